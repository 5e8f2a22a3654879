package simulations

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/reusee/aggr/aggregates"
	"github.com/reusee/aggr/codecs"
	"github.com/reusee/aggr/fields"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func countNeighbors(c *aggregates.Context[int]) (int, error) {
	f, err := aggregates.Neighboring(c, c.LocalID())
	if err != nil {
		return 0, err
	}
	return f.NeighborsCount(), nil
}

func TestTopologies(t *testing.T) {
	line := Line(4)
	if diff := cmp.Diff([]int{0, 2}, line.Neighbors(1)); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff([]int{2}, line.Neighbors(3)); diff != "" {
		t.Fatal(diff)
	}

	grid := Grid(3, 3)
	if grid.Len() != 9 {
		t.Fatalf("got %v", grid.Len())
	}
	if diff := cmp.Diff([]int{0, 1, 2, 3, 5, 6, 7, 8}, grid.Neighbors(4)); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff([]int{1, 3, 4}, grid.Neighbors(0)); diff != "" {
		t.Fatal(diff)
	}

	edges := FromEdges([2]string{"a", "b"}, [2]string{"b", "c"})
	if diff := cmp.Diff([]string{"a", "b", "c"}, edges.IDs()); diff != "" {
		t.Fatal(diff)
	}
	if !edges.Linked("b", "a") || edges.Linked("a", "c") {
		t.Fatal()
	}
	edges.Disconnect("a", "b")
	if edges.Linked("a", "b") {
		t.Fatal()
	}

	ring, err := ByName("ring", 4)
	if err != nil {
		t.Fatal(err)
	}
	if !ring.Linked(0, 3) {
		t.Fatal()
	}
	if _, err := ByName("foo", 4); err == nil {
		t.Fatal()
	}
}

func TestCycleInOrder(t *testing.T) {
	env := NewEnvironment(Line(3), func(int) int {
		return -1
	}, countNeighbors)
	if diff := cmp.Diff(Status[int, int]{0: -1, 1: -1, 2: -1}, env.Status()); diff != "" {
		t.Fatal(diff)
	}
	ctx := context.Background()

	// later devices see earlier ones in the same cycle
	if err := env.CycleInOrder(ctx); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Status[int, int]{0: 0, 1: 1, 2: 1}, env.Status()); diff != "" {
		t.Fatal(diff)
	}

	if err := env.CycleInOrder(ctx); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Status[int, int]{0: 1, 1: 2, 2: 1}, env.Status()); diff != "" {
		t.Fatal(diff)
	}
	if env.Cycles() != 2 {
		t.Fatalf("got %v", env.Cycles())
	}
}

func TestCycleInReverseOrder(t *testing.T) {
	env := NewEnvironment(Line(3), func(int) int {
		return -1
	}, countNeighbors)
	if err := env.CycleInReverseOrder(context.Background()); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Status[int, int]{0: 1, 1: 1, 2: 0}, env.Status()); diff != "" {
		t.Fatal(diff)
	}
}

func TestCycleParallel(t *testing.T) {
	env := NewEnvironment(Grid(4, 4), func(int) int {
		return -1
	}, countNeighbors)
	env.Parallelism = 3
	ctx := context.Background()

	// nobody sent anything before the first cycle
	if err := env.CycleParallel(ctx); err != nil {
		t.Fatal(err)
	}
	for id, count := range env.Status() {
		if count != 0 {
			t.Fatalf("device %v: got %v", id, count)
		}
	}

	if err := env.CycleParallel(ctx); err != nil {
		t.Fatal(err)
	}
	for id, count := range env.Status() {
		if count != len(env.Topology.Neighbors(id)) {
			t.Fatalf("device %v: got %v", id, count)
		}
	}
}

func TestCycleError(t *testing.T) {
	programErr := errors.New("program")
	for _, order := range []Order{InOrder, InReverseOrder, Parallel} {
		t.Run(string(order), func(t *testing.T) {
			env := NewEnvironment(Line(3), func(int) int {
				return 0
			}, func(c *aggregates.Context[int]) (int, error) {
				if c.LocalID() == 1 {
					return 0, programErr
				}
				return 1, nil
			})
			err := env.Cycle(context.Background(), order)
			if !errors.Is(err, programErr) {
				t.Fatalf("got %v", err)
			}
		})
	}
}

func TestRunUntil(t *testing.T) {
	env := NewEnvironment(Line(2), func(int) int {
		return 0
	}, func(c *aggregates.Context[int]) (int, error) {
		return aggregates.Repeating(c, 0, func(i int) (int, error) {
			return i + 1, nil
		})
	})
	ctx := context.Background()
	cycles, err := env.RunUntil(ctx, InOrder, 10, func(status Status[int, int]) (bool, error) {
		return status[0] >= 3, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if cycles != 3 {
		t.Fatalf("got %v", cycles)
	}

	_, err = env.RunUntilStable(ctx, Parallel, 5)
	if !errors.Is(err, ErrNotStable) {
		t.Fatalf("got %v", err)
	}
}

func TestEnvironmentCodec(t *testing.T) {
	type unregistered struct {
		X int
	}
	codec := codecs.New[int](codecs.NewRegistry(), codecs.Gob)

	env := NewEnvironment(Line(2), func(int) int {
		return 0
	}, func(c *aggregates.Context[int]) (int, error) {
		f, err := aggregates.Neighboring(c, c.LocalID()+1)
		if err != nil {
			return 0, err
		}
		return fields.Sum(f, true), nil
	})
	env.Codec = &codec
	if _, err := env.RunUntilStable(context.Background(), Parallel, 5); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Status[int, int]{0: 3, 1: 3}, env.Status()); diff != "" {
		t.Fatal(diff)
	}

	// unsupported payloads fail when sent
	env = NewEnvironment(Line(2), func(int) int {
		return 0
	}, func(c *aggregates.Context[int]) (int, error) {
		_, err := aggregates.Neighboring(c, unregistered{})
		return 0, err
	})
	env.Codec = &codec
	err := env.CycleInOrder(context.Background())
	var serErr *codecs.SerializationError
	if !errors.As(err, &serErr) {
		t.Fatalf("got %v", err)
	}
}

func TestRemove(t *testing.T) {
	env := NewEnvironment(Line(3), func(int) int {
		return 0
	}, countNeighbors)
	ctx := context.Background()
	if err := env.CycleInOrder(ctx); err != nil {
		t.Fatal(err)
	}
	env.Remove(2)
	if err := env.CycleInOrder(ctx); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Status[int, int]{0: 1, 1: 1}, env.Status()); diff != "" {
		t.Fatal(diff)
	}
	if env.State(2) != nil {
		t.Fatal()
	}
}
