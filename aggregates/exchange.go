package aggregates

import (
	"cmp"
	"fmt"

	"github.com/reusee/aggr/envelopes"
	"github.com/reusee/aggr/fields"
)

// Exchange is the primitive of aggregate programs.
//
// body receives the field of values the neighbors sent for the current path,
// with the value this device retained at the same path last round as the local entry (initial if none).
// The local entry of the field body returns is sent to every neighbor and retained for the next round,
// while its neighbor entries are sent to the respective neighbors only.
// Nothing is recorded if body fails.
func Exchange[ID cmp.Ordered, X any](
	c *Context[ID],
	initial X,
	body func(fields.Field[ID, X]) (fields.Field[ID, X], error),
) (ret fields.Field[ID, X], err error) {
	path := c.stack.CurrentPath()
	if err := c.checkUnused(path); err != nil {
		return ret, err
	}

	input := fields.New(c.id, previousAt(c, path, initial), neighborsAt[ID, X](c, path))
	output, err := body(input)
	if err != nil {
		return ret, err
	}
	if output.Owner() != c.id {
		return ret, c.Fail(fmt.Errorf("%w: %v", ErrForeignField, output.Owner()))
	}

	if err := c.checkUnused(path); err != nil {
		return ret, err
	}
	if err := envelopes.AddData(c.envelope, path, envelopes.SharedData[ID, X]{
		Default:   output.Local(),
		Overrides: output.ExcludeSelf(),
	}); err != nil {
		return ret, c.Fail(err)
	}
	c.state[path] = output.Local()

	return output, nil
}

// Share is Exchange where every neighbor receives the same value.
// body maps the field of neighbor values, local entry being the previous retained value, to the value to share.
func Share[ID cmp.Ordered, X any](
	c *Context[ID],
	initial X,
	body func(fields.Field[ID, X]) (X, error),
) (ret X, err error) {
	path := c.stack.CurrentPath()
	if err := c.checkUnused(path); err != nil {
		return ret, err
	}

	input := fields.New(c.id, previousAt(c, path, initial), neighborsAt[ID, X](c, path))
	value, err := body(input)
	if err != nil {
		return ret, err
	}

	if err := c.checkUnused(path); err != nil {
		return ret, err
	}
	if err := c.envelope.RecordDefault(path, value); err != nil {
		return ret, c.Fail(err)
	}
	c.state[path] = value

	return value, nil
}

// Neighboring shares local and returns the field of the values the neighbors shared at the same path.
func Neighboring[ID cmp.Ordered, X any](c *Context[ID], local X) (ret fields.Field[ID, X], err error) {
	path := c.stack.CurrentPath()
	if err := c.checkUnused(path); err != nil {
		return ret, err
	}
	if err := c.envelope.RecordDefault(path, local); err != nil {
		return ret, c.Fail(err)
	}
	c.state[path] = local
	return fields.New(c.id, local, neighborsAt[ID, X](c, path)), nil
}

// Repeating threads a local value across rounds:
// step receives the value retained at the current path last round, or initial, and its result is retained.
// Nothing is shared with neighbors.
func Repeating[ID cmp.Ordered, X any](
	c *Context[ID],
	initial X,
	step func(X) (X, error),
) (ret X, err error) {
	path := c.stack.CurrentPath()
	if err := c.checkUnused(path); err != nil {
		return ret, err
	}
	value, err := step(previousAt(c, path, initial))
	if err != nil {
		return ret, err
	}
	if err := c.checkUnused(path); err != nil {
		return ret, err
	}
	c.state[path] = value
	return value, nil
}
