package aggregates

import (
	"cmp"
	"errors"
	"maps"

	"github.com/reusee/aggr/envelopes"
	"github.com/reusee/aggr/paths"
)

var (
	ErrAlignmentClash   = envelopes.ErrAlignmentClash
	ErrStackUnderflow   = paths.ErrStackUnderflow
	ErrUnbalancedStack  = errors.New("alignment stack not empty at round end")
	ErrNoResultProduced = errors.New("the computation did not produce a result")
	ErrForeignField     = errors.New("field owned by another device")
)

// State is what a device retains between rounds, the last value stored at each visited path.
type State map[paths.Path]any

func (s State) Clone() State {
	return maps.Clone(s)
}

// Context is the view of one device on one round.
// It owns the alignment stack, the retained state being built and the outbound envelope.
// A Context must not be used outside the round it was created for, nor from other goroutines.
type Context[ID cmp.Ordered] struct {
	id       ID
	inbound  envelopes.Inbound[ID]
	previous State
	stack    *paths.Stack
	state    State
	envelope *envelopes.Envelope[ID]
	err      error
}

func NewContext[ID cmp.Ordered](id ID, inbound envelopes.Inbound[ID], previous State) *Context[ID] {
	return &Context[ID]{
		id:       id,
		inbound:  inbound,
		previous: previous,
		stack:    paths.NewStack(),
		state:    make(State, len(previous)),
		envelope: envelopes.NewEnvelope(id, len(previous)),
	}
}

func (c *Context[ID]) LocalID() ID {
	return c.id
}

// Neighbors returns the ids of the devices that sent a message for this round.
func (c *Context[ID]) Neighbors() []ID {
	ret := make([]ID, 0, len(c.inbound))
	for _, id := range c.inbound.Senders() {
		if id == c.id {
			continue
		}
		ret = append(ret, id)
	}
	return ret
}

func (c *Context[ID]) CurrentPath() paths.Path {
	return c.stack.CurrentPath()
}

// Outbound is the envelope built so far.
func (c *Context[ID]) Outbound() *envelopes.Envelope[ID] {
	return c.envelope
}

// NewState is the retained state built so far.
func (c *Context[ID]) NewState() State {
	return c.state
}

// Fail marks the round as failed. The first failure is the one reported by the round,
// even if the program ignores the returned error.
func (c *Context[ID]) Fail(err error) error {
	if c.err == nil {
		c.err = err
	}
	return err
}

func (c *Context[ID]) Err() error {
	return c.err
}

func (c *Context[ID]) clash(path paths.Path) error {
	return c.Fail(&ClashError{
		Path: path,
	})
}

func (c *Context[ID]) checkUnused(path paths.Path) error {
	if _, ok := c.state[path]; ok {
		return c.clash(path)
	}
	if _, ok := c.envelope.Default(path); ok {
		return c.clash(path)
	}
	return nil
}

func previousAt[ID cmp.Ordered, X any](c *Context[ID], path paths.Path, initial X) X {
	v, ok := c.previous[path]
	if !ok {
		return initial
	}
	x, ok := v.(X)
	if !ok {
		return initial
	}
	return x
}

// neighborsAt returns the values of type X received for path. Payloads of other types are ignored.
func neighborsAt[ID cmp.Ordered, X any](c *Context[ID], path paths.Path) map[ID]X {
	ret := make(map[ID]X)
	for sender, v := range c.inbound.At(path) {
		if sender == c.id {
			continue
		}
		x, ok := v.(X)
		if !ok {
			continue
		}
		ret[sender] = x
	}
	return ret
}
