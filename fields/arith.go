package fields

import "cmp"

type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64
}

// Plus adds b to a entry by entry.
//
// The result keeps exactly the neighbor set of a: neighbors only in b are dropped,
// and neighbors missing from b are added to zero. This asymmetric policy is kept for
// compatibility with existing programs; use AlignedMap to combine fields on the
// intersection of their neighbors instead.
func Plus[ID cmp.Ordered, V Number](a, b Field[ID, V]) Field[ID, V] {
	return asymmetric(a, b, func(x, y V) V {
		return x + y
	})
}

// Minus subtracts b from a with the same asymmetric policy as Plus.
func Minus[ID cmp.Ordered, V Number](a, b Field[ID, V]) Field[ID, V] {
	return asymmetric(a, b, func(x, y V) V {
		return x - y
	})
}

func asymmetric[ID cmp.Ordered, V Number](a, b Field[ID, V], op func(V, V) V) Field[ID, V] {
	m := make(map[ID]V, len(a.neighbors))
	for id, x := range a.neighbors {
		m[id] = op(x, b.neighbors[id])
	}
	return Field[ID, V]{
		owner:     a.owner,
		local:     op(a.local, b.local),
		neighbors: m,
	}
}

// Sum adds up the neighbor values, optionally with the local one.
func Sum[ID cmp.Ordered, V Number](f Field[ID, V], includingSelf bool) V {
	var ret V
	for _, v := range values(f, includingSelf) {
		ret += v
	}
	return ret
}
