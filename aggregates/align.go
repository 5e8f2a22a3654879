package aggregates

import (
	"cmp"
	"errors"
	"strconv"

	"github.com/reusee/aggr/paths"
)

func aligned[ID cmp.Ordered, R any](
	c *Context[ID],
	kind paths.Kind,
	key string,
	body func() (R, error),
) (ret R, err error) {
	c.stack.Align(c.stack.Next(kind, key))
	defer func() {
		if e := c.stack.Dealign(); e != nil {
			err = errors.Join(err, c.Fail(e))
		}
	}()
	return body()
}

// AlignedOn runs body aligned on pivot: devices calling it with equal pivots at the same program point
// exchange values inside body, devices with different pivots do not.
// The alignment is released on every exit of body, panics included.
func AlignedOn[ID cmp.Ordered, R any](c *Context[ID], pivot any, body func() (R, error)) (R, error) {
	return aligned(c, paths.KindPivot, paths.PivotKey(pivot), body)
}

// Call aligns body on a named call site.
// Repeated calls with the same name in the same scope are told apart by their position.
func Call[ID cmp.Ordered, R any](c *Context[ID], name string, body func() (R, error)) (R, error) {
	return aligned(c, paths.KindCall, name, body)
}

// Branch runs then or otherwise depending on cond, each aligned on the branch taken,
// so devices taking different branches never exchange values with each other inside them.
func Branch[ID cmp.Ordered, R any](
	c *Context[ID],
	cond bool,
	then func() (R, error),
	otherwise func() (R, error),
) (R, error) {
	if cond {
		return aligned(c, paths.KindBranch, "true", then)
	}
	return aligned(c, paths.KindBranch, "false", otherwise)
}

// Iterate runs fn n times, each iteration aligned on its index.
// It returns an empty slice if n is not positive.
func Iterate[ID cmp.Ordered, R any](c *Context[ID], n int, fn func(i int) (R, error)) ([]R, error) {
	if n <= 0 {
		return []R{}, nil
	}
	ret := make([]R, 0, n)
	for i := range n {
		r, err := aligned(c, paths.KindIteration, strconv.Itoa(i), func() (R, error) {
			return fn(i)
		})
		if err != nil {
			return nil, err
		}
		ret = append(ret, r)
	}
	return ret, nil
}
