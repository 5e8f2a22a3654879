package aggregates

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/reusee/aggr/codecs"
	"github.com/reusee/aggr/envelopes"
	"github.com/reusee/aggr/paths"
	"go.uber.org/goleak"
	"golang.org/x/time/rate"
)

type recordingNetwork struct {
	mu      sync.Mutex
	inbound envelopes.Inbound[int]
	sent    []*envelopes.Envelope[int]
	failAt  int
}

var _ Network[int] = new(recordingNetwork)

func (r *recordingNetwork) Send(ctx context.Context, from int, outbound *envelopes.Envelope[int]) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, outbound)
	return nil
}

func (r *recordingNetwork) Receive(ctx context.Context) (envelopes.Inbound[int], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAt > 0 && len(r.sent)+1 == r.failAt {
		return nil, errors.New("receive failed")
	}
	return r.inbound, nil
}

func counter(c *Context[int]) (int, error) {
	return Repeating(c, 0, func(i int) (int, error) {
		return i + 1, nil
	})
}

func TestDriver(t *testing.T) {
	defer goleak.VerifyNone(t)

	network := new(recordingNetwork)
	var rounds []int
	driver := &Driver[int, int]{
		ID:      1,
		Network: network,
		Program: counter,
		Limiter: rate.NewLimiter(rate.Inf, 1),
		OnRound: func(round int, result Result[int, int]) error {
			rounds = append(rounds, round)
			return nil
		},
	}
	result, err := driver.Run(context.Background(), func() bool {
		return driver.Rounds() < 3
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Value != 3 {
		t.Fatalf("got %v", result.Value)
	}
	if driver.Rounds() != 3 {
		t.Fatalf("got %v", driver.Rounds())
	}
	if len(network.sent) != 3 {
		t.Fatalf("got %v", len(network.sent))
	}
	if len(rounds) != 3 || rounds[0] != 0 || rounds[2] != 2 {
		t.Fatalf("got %v", rounds)
	}
	if driver.Phase() != Idle {
		t.Fatalf("got %v", driver.Phase())
	}

	// resumes from the retained state
	result, err = driver.Run(context.Background(), func() bool {
		return driver.Rounds() < 4
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Value != 4 {
		t.Fatalf("got %v", result.Value)
	}
}

func TestDriveUntilNoRound(t *testing.T) {
	_, err := DriveUntil[int, int](context.Background(), 1, func() bool {
		return false
	}, new(recordingNetwork), counter)
	if !errors.Is(err, ErrNoResultProduced) {
		t.Fatalf("got %v", err)
	}
}

func TestDriverCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := DriveUntil[int, int](ctx, 1, func() bool {
		return true
	}, new(recordingNetwork), counter)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v", err)
	}
}

func TestDriverReceiveError(t *testing.T) {
	network := &recordingNetwork{
		failAt: 2,
	}
	driver := &Driver[int, int]{
		ID:      1,
		Network: network,
		Program: counter,
	}
	_, err := driver.Run(context.Background(), func() bool {
		return true
	})
	if err == nil {
		t.Fatal("should fail")
	}
	if driver.Rounds() != 1 {
		t.Fatalf("got %v", driver.Rounds())
	}
}

func TestDriverRoundError(t *testing.T) {
	programErr := errors.New("program")
	network := new(recordingNetwork)
	_, err := DriveUntil[int, int](context.Background(), 1, func() bool {
		return true
	}, network, func(c *Context[int]) (int, error) {
		return 0, programErr
	})
	if !errors.Is(err, programErr) {
		t.Fatalf("got %v", err)
	}
	if len(network.sent) != 0 {
		t.Fatal("failed round should send nothing")
	}
}

func TestPhaseString(t *testing.T) {
	for phase, expected := range map[Phase]string{
		Idle:            "idle",
		RoundRunning:    "round running",
		AwaitingNetwork: "awaiting network",
		Phase(42):       "phase(42)",
	} {
		if phase.String() != expected {
			t.Fatalf("got %v", phase.String())
		}
	}
}

func TestSaveLoadState(t *testing.T) {
	result, err := SingleRound(0, nil, nil, func(c *Context[int]) (int, error) {
		if _, err := Call(c, "a", func() (int, error) {
			return Repeating(c, 41, func(i int) (int, error) {
				return i + 1, nil
			})
		}); err != nil {
			return 0, err
		}
		return Call(c, "b", func() (int, error) {
			s, err := Repeating(c, "foo", func(s string) (string, error) {
				return s + "bar", nil
			})
			return len(s), err
		})
	})
	if err != nil {
		t.Fatal(err)
	}

	codec := codecs.New[int](codecs.NewRegistry(), codecs.Gob)
	buf := new(bytes.Buffer)
	if err := SaveState(buf, codec, result.State); err != nil {
		t.Fatal(err)
	}
	state, err := LoadState(buf, codec)
	if err != nil {
		t.Fatal(err)
	}
	a := paths.FromTokens(paths.Token{Kind: paths.KindCall, Key: "a"})
	if state[a] != 42 {
		t.Fatalf("got %v", state[a])
	}
	b := paths.FromTokens(paths.Token{Kind: paths.KindCall, Key: "b"})
	if state[b] != "foobar" {
		t.Fatalf("got %v", state[b])
	}
}
