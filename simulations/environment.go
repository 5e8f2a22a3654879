package simulations

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	gocmp "github.com/google/go-cmp/cmp"
	"github.com/reusee/aggr/aggregates"
	"github.com/reusee/aggr/codecs"
	"github.com/reusee/aggr/envelopes"
	"github.com/reusee/aggr/logs"
	"golang.org/x/sync/errgroup"
)

var ErrNotStable = errors.New("not stable")

// Status maps each device to the value of its last round.
type Status[ID cmp.Ordered, R any] map[ID]R

// Environment runs one program on every device of a topology, in process.
// A device sees the last message each of its current neighbors sent.
// An Environment must not be used from multiple goroutines.
type Environment[ID cmp.Ordered, R any] struct {
	Topology *Topology[ID]
	Program  aggregates.Program[ID, R]

	// Codec, if set, encodes the messages of a device at the end of its round and decodes them at the receiver.
	Codec *codecs.Codec[ID]
	// Parallelism limits the devices running at once in CycleParallel. Zero means no limit.
	Parallelism int
	Logger      logs.Logger

	states map[ID]aggregates.State
	outbox map[ID]outgoing[ID]
	status Status[ID, R]
	cycles int
}

// NewEnvironment sets the status of each device to initial until its first round.
func NewEnvironment[ID cmp.Ordered, R any](
	topology *Topology[ID],
	initial func(ID) R,
	program aggregates.Program[ID, R],
) *Environment[ID, R] {
	e := &Environment[ID, R]{
		Topology: topology,
		Program:  program,
		states:   make(map[ID]aggregates.State),
		outbox:   make(map[ID]outgoing[ID]),
		status:   make(Status[ID, R]),
	}
	for _, id := range topology.IDs() {
		e.status[id] = initial(id)
	}
	return e
}

func (e *Environment[ID, R]) logger() logs.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Status returns a copy of the current status.
func (e *Environment[ID, R]) Status() Status[ID, R] {
	return maps.Clone(e.status)
}

// State returns the retained state of id.
func (e *Environment[ID, R]) State(id ID) aggregates.State {
	return e.states[id]
}

func (e *Environment[ID, R]) Cycles() int {
	return e.cycles
}

// Remove takes id out of the topology, dropping everything it retained and sent.
func (e *Environment[ID, R]) Remove(id ID) {
	e.Topology.Remove(id)
	delete(e.states, id)
	delete(e.outbox, id)
	delete(e.status, id)
}

// outgoing is what a device sent in its last round.
type outgoing[ID cmp.Ordered] struct {
	envelope *envelopes.Envelope[ID]
	// encoded messages by receiver, if the environment has a codec
	encoded map[ID][]byte
}

func (e *Environment[ID, R]) send(id ID, envelope *envelopes.Envelope[ID]) (ret outgoing[ID], err error) {
	ret.envelope = envelope
	if e.Codec == nil {
		return ret, nil
	}
	neighbors := e.Topology.Neighbors(id)
	ret.encoded = make(map[ID][]byte, len(neighbors))
	for _, neighbor := range neighbors {
		data, err := e.Codec.EncodeMessage(envelope.PrepareMessageFor(neighbor))
		if err != nil {
			return ret, fmt.Errorf("device %v: %w", id, err)
		}
		ret.encoded[neighbor] = data
	}
	return ret, nil
}

func (e *Environment[ID, R]) inboundOf(id ID, outbox map[ID]outgoing[ID]) envelopes.Inbound[ID] {
	inbound := make(envelopes.Inbound[ID])
	for _, neighbor := range e.Topology.Neighbors(id) {
		out, ok := outbox[neighbor]
		if !ok {
			continue
		}
		if e.Codec == nil {
			inbound.Add(out.envelope.PrepareMessageFor(id))
			continue
		}
		data, ok := out.encoded[id]
		if !ok {
			// linked after neighbor sent
			continue
		}
		msg, err := e.Codec.DecodeMessage(data)
		if err != nil {
			e.logger().Warn("drop message",
				"sender", neighbor,
				"receiver", id,
				"error", err,
			)
			continue
		}
		inbound.Add(msg)
	}
	return inbound
}

func (e *Environment[ID, R]) round(id ID, outbox map[ID]outgoing[ID]) (ret aggregates.Result[ID, R], out outgoing[ID], err error) {
	ret, err = aggregates.SingleRound(id, e.inboundOf(id, outbox), e.states[id], e.Program)
	if err != nil {
		return ret, out, fmt.Errorf("device %v: %w", id, err)
	}
	out, err = e.send(id, ret.Outbound)
	if err != nil {
		return ret, out, err
	}
	return ret, out, nil
}

func (e *Environment[ID, R]) commit(id ID, result aggregates.Result[ID, R], out outgoing[ID]) {
	e.states[id] = result.State
	e.outbox[id] = out
	e.status[id] = result.Value
}

func (e *Environment[ID, R]) sequential(ctx context.Context, ids []ID) error {
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		result, out, err := e.round(id, e.outbox)
		if err != nil {
			return err
		}
		e.commit(id, result, out)
	}
	e.cycles++
	e.logger().DebugContext(ctx, "cycle", "cycle", e.cycles)
	return nil
}

// CycleInOrder runs one round on every device in ascending id order.
// A device sees the messages its neighbors sent earlier in the same cycle.
func (e *Environment[ID, R]) CycleInOrder(ctx context.Context) error {
	return e.sequential(ctx, e.Topology.IDs())
}

// CycleInReverseOrder runs one round on every device in descending id order.
func (e *Environment[ID, R]) CycleInReverseOrder(ctx context.Context) error {
	ids := e.Topology.IDs()
	slices.Reverse(ids)
	return e.sequential(ctx, ids)
}

// CycleParallel runs one round on every device concurrently.
// Every device sees the messages sent in the previous cycle. Nothing is committed if a round fails.
func (e *Environment[ID, R]) CycleParallel(ctx context.Context) error {
	snapshot := maps.Clone(e.outbox)
	ids := e.Topology.IDs()
	results := make([]aggregates.Result[ID, R], len(ids))
	outs := make([]outgoing[ID], len(ids))

	group, ctx := errgroup.WithContext(ctx)
	if e.Parallelism > 0 {
		group.SetLimit(e.Parallelism)
	}
	for i, id := range ids {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, out, err := e.round(id, snapshot)
			if err != nil {
				return err
			}
			results[i] = result
			outs[i] = out
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	for i, id := range ids {
		e.commit(id, results[i], outs[i])
	}
	e.cycles++
	e.logger().DebugContext(ctx, "cycle", "cycle", e.cycles, "parallel", true)
	return nil
}

type Order string

const (
	InOrder        Order = "in-order"
	InReverseOrder Order = "reverse"
	Parallel       Order = "parallel"
)

func (e *Environment[ID, R]) Cycle(ctx context.Context, order Order) error {
	switch order {
	case InOrder:
		return e.CycleInOrder(ctx)
	case InReverseOrder:
		return e.CycleInReverseOrder(ctx)
	case Parallel:
		return e.CycleParallel(ctx)
	}
	return fmt.Errorf("unknown order: %s", order)
}

// RunUntil cycles until stop holds for the status after a cycle, at most maxCycles times.
// It returns the number of cycles run, and ErrNotStable if stop never held.
func (e *Environment[ID, R]) RunUntil(
	ctx context.Context,
	order Order,
	maxCycles int,
	stop func(Status[ID, R]) (bool, error),
) (int, error) {
	for i := range maxCycles {
		if err := e.Cycle(ctx, order); err != nil {
			return i, err
		}
		ok, err := stop(e.status)
		if err != nil {
			return i + 1, err
		}
		if ok {
			return i + 1, nil
		}
	}
	return maxCycles, fmt.Errorf("%w after %d cycles", ErrNotStable, maxCycles)
}

// RunUntilStable cycles until a cycle leaves the status unchanged.
// Values are compared with go-cmp, so R must not have unexported fields.
func (e *Environment[ID, R]) RunUntilStable(ctx context.Context, order Order, maxCycles int) (int, error) {
	previous := e.Status()
	return e.RunUntil(ctx, order, maxCycles, func(status Status[ID, R]) (bool, error) {
		if gocmp.Equal(previous, status) {
			return true, nil
		}
		previous = maps.Clone(status)
		return false, nil
	})
}
