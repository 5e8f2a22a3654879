package aggregates

import (
	"cmp"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/reusee/aggr/codecs"
	"github.com/reusee/aggr/envelopes"
)

// Program is an aggregate program, run once per round on every device.
type Program[ID cmp.Ordered, R any] func(c *Context[ID]) (R, error)

type Result[ID cmp.Ordered, R any] struct {
	Value    R
	Outbound *envelopes.Envelope[ID]
	State    State
}

// SingleRound runs program once for device id.
// A failing round produces no result: the error of program or of an alignment violation is returned instead.
// A panic in program is returned as a *PanicError.
func SingleRound[ID cmp.Ordered, R any](
	id ID,
	inbound envelopes.Inbound[ID],
	previous State,
	program Program[ID, R],
) (ret Result[ID, R], err error) {
	c := NewContext(id, inbound, previous)
	c.stack.Clear()
	defer c.stack.Clear()
	defer func() {
		if p := recover(); p != nil {
			ret = Result[ID, R]{}
			err = &PanicError{
				Value: p,
				Stack: debug.Stack(),
			}
		}
	}()

	value, err := program(c)
	if err != nil {
		return ret, err
	}
	if err := c.Err(); err != nil {
		return ret, err
	}
	if c.stack.Depth() != 0 {
		return ret, ErrUnbalancedStack
	}

	return Result[ID, R]{
		Value:    value,
		Outbound: c.envelope,
		State:    c.state,
	}, nil
}

func SaveState[ID cmp.Ordered](w io.Writer, codec codecs.Codec[ID], state State) error {
	data, err := codec.EncodeState(state)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func LoadState[ID cmp.Ordered](r io.Reader, codec codecs.Codec[ID]) (State, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	state, err := codec.DecodeState(data)
	if err != nil {
		return nil, err
	}
	return State(state), nil
}

type PanicError struct {
	Value any
	Stack []byte
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("panic in aggregate program: %v\n%s", p.Value, p.Stack)
}
