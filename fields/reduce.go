package fields

import (
	"cmp"
	"errors"
)

var ErrEmptyField = errors.New("empty field")

func values[ID cmp.Ordered, V any](f Field[ID, V], includingSelf bool) []V {
	ret := make([]V, 0, len(f.neighbors)+1)
	if includingSelf {
		for _, v := range f.All() {
			ret = append(ret, v)
		}
		return ret
	}
	for _, v := range f.Neighbors() {
		ret = append(ret, v)
	}
	return ret
}

// Min returns the smallest value of the field, optionally considering the local entry.
// It fails with ErrEmptyField when there is nothing to reduce.
func Min[ID cmp.Ordered, V cmp.Ordered](f Field[ID, V], includingSelf bool) (ret V, err error) {
	vs := values(f, includingSelf)
	if len(vs) == 0 {
		return ret, ErrEmptyField
	}
	ret = vs[0]
	for _, v := range vs[1:] {
		ret = min(ret, v)
	}
	return ret, nil
}

// Max returns the largest value of the field, optionally considering the local entry.
// It fails with ErrEmptyField when there is nothing to reduce.
func Max[ID cmp.Ordered, V cmp.Ordered](f Field[ID, V], includingSelf bool) (ret V, err error) {
	vs := values(f, includingSelf)
	if len(vs) == 0 {
		return ret, ErrEmptyField
	}
	ret = vs[0]
	for _, v := range vs[1:] {
		ret = max(ret, v)
	}
	return ret, nil
}

// MinWithSelf never fails since the local entry is always present.
func MinWithSelf[ID cmp.Ordered, V cmp.Ordered](f Field[ID, V]) V {
	ret, _ := Min(f, true)
	return ret
}

func MaxWithSelf[ID cmp.Ordered, V cmp.Ordered](f Field[ID, V]) V {
	ret, _ := Max(f, true)
	return ret
}

// MinOr reduces the neighbors, returning base when there are none.
func MinOr[ID cmp.Ordered, V cmp.Ordered](f Field[ID, V], base V) V {
	ret := base
	for _, v := range f.Neighbors() {
		ret = min(ret, v)
	}
	return ret
}

func MaxOr[ID cmp.Ordered, V cmp.Ordered](f Field[ID, V], base V) V {
	ret := base
	for _, v := range f.Neighbors() {
		ret = max(ret, v)
	}
	return ret
}

// MinBy selects among base and the neighbor values the first one not greater than any other by less.
// Neighbors are visited in ascending id order, so ties resolve to base, then to the smallest id.
func MinBy[ID cmp.Ordered, V any](f Field[ID, V], base V, less func(a, b V) bool) V {
	ret := base
	for _, v := range f.Neighbors() {
		if less(v, ret) {
			ret = v
		}
	}
	return ret
}

// Fold accumulates the neighbor values in ascending id order.
func Fold[ID cmp.Ordered, V any, R any](f Field[ID, V], initial R, fn func(R, ID, V) R) R {
	acc := initial
	for id, v := range f.Neighbors() {
		acc = fn(acc, id, v)
	}
	return acc
}

// Exists reports whether any neighbor satisfies pred.
func Exists[ID cmp.Ordered, V any](f Field[ID, V], pred func(V) bool) bool {
	for _, v := range f.neighbors {
		if pred(v) {
			return true
		}
	}
	return false
}

// ForAll reports whether every neighbor satisfies pred. A field without neighbors satisfies any pred.
func ForAll[ID cmp.Ordered, V any](f Field[ID, V], pred func(V) bool) bool {
	for _, v := range f.neighbors {
		if !pred(v) {
			return false
		}
	}
	return true
}
