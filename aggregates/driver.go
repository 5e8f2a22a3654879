package aggregates

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/reusee/aggr/envelopes"
	"github.com/reusee/aggr/logs"
	"golang.org/x/time/rate"
)

// Network carries the messages of one device.
// Receive may block until the messages the next round needs are available; the policy is the network's.
type Network[ID cmp.Ordered] interface {
	Send(ctx context.Context, from ID, outbound *envelopes.Envelope[ID]) error
	Receive(ctx context.Context) (envelopes.Inbound[ID], error)
}

type Phase int32

const (
	Idle Phase = iota
	RoundRunning
	AwaitingNetwork
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case RoundRunning:
		return "round running"
	case AwaitingNetwork:
		return "awaiting network"
	}
	return fmt.Sprintf("phase(%d)", int32(p))
}

// Driver runs the rounds of one device against a network.
type Driver[ID cmp.Ordered, R any] struct {
	ID      ID
	Network Network[ID]
	Program Program[ID, R]

	// Previous is the state the next round starts from. It is updated after every successful round.
	Previous State
	// Limiter paces rounds if not nil.
	Limiter *rate.Limiter
	Logger  logs.Logger
	// OnRound is called after each round has been sent. An error stops the driver.
	OnRound func(round int, result Result[ID, R]) error

	phase  atomic.Int32
	rounds atomic.Int64
}

func (d *Driver[ID, R]) Phase() Phase {
	return Phase(d.phase.Load())
}

func (d *Driver[ID, R]) Rounds() int {
	return int(d.rounds.Load())
}

func (d *Driver[ID, R]) setPhase(p Phase) {
	d.phase.Store(int32(p))
}

func (d *Driver[ID, R]) logger() logs.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Run drives rounds while condition holds.
// condition and ctx are only checked between rounds; a running round always completes.
// It returns the result of the last round, or ErrNoResultProduced if no round ran.
func (d *Driver[ID, R]) Run(ctx context.Context, condition func() bool) (ret Result[ID, R], err error) {
	logger := d.logger()
	defer d.setPhase(Idle)

	ran := false
	for condition() {
		if err := ctx.Err(); err != nil {
			return ret, err
		}

		if d.Limiter != nil {
			if err := d.Limiter.Wait(ctx); err != nil {
				return ret, err
			}
		}

		d.setPhase(AwaitingNetwork)
		inbound, err := d.Network.Receive(ctx)
		if err != nil {
			return ret, fmt.Errorf("receive: %w", err)
		}

		d.setPhase(RoundRunning)
		round := d.Rounds()
		result, err := SingleRound(d.ID, inbound, d.Previous, d.Program)
		if err != nil {
			logger.ErrorContext(ctx, "round failed",
				"device", d.ID,
				"round", round,
				"error", err,
			)
			return ret, logs.WrapSpan(ctx, fmt.Errorf("round %d: %w", round, err))
		}
		d.Previous = result.State
		d.rounds.Add(1)

		d.setPhase(AwaitingNetwork)
		if err := d.Network.Send(ctx, d.ID, result.Outbound); err != nil {
			return ret, fmt.Errorf("send: %w", err)
		}
		d.setPhase(Idle)

		logger.DebugContext(ctx, "round",
			"device", d.ID,
			"round", round,
			"neighbors", len(inbound),
			"paths", result.Outbound.Len(),
		)

		ret = result
		ran = true
		if d.OnRound != nil {
			if err := d.OnRound(round, result); err != nil {
				return ret, err
			}
		}
	}

	if !ran {
		return ret, ErrNoResultProduced
	}
	return ret, nil
}

// DriveUntil runs program on device id against network while condition holds.
func DriveUntil[ID cmp.Ordered, R any](
	ctx context.Context,
	id ID,
	condition func() bool,
	network Network[ID],
	program Program[ID, R],
) (Result[ID, R], error) {
	driver := &Driver[ID, R]{
		ID:      id,
		Network: network,
		Program: program,
	}
	return driver.Run(ctx, condition)
}
