package fields

import "cmp"

// Map applies fn to every entry, local included.
func Map[ID cmp.Ordered, V any, R any](f Field[ID, V], fn func(V) R) Field[ID, R] {
	m := make(map[ID]R, len(f.neighbors))
	for id, v := range f.neighbors {
		m[id] = fn(v)
	}
	return Field[ID, R]{
		owner:     f.owner,
		local:     fn(f.local),
		neighbors: m,
	}
}

func MapWithID[ID cmp.Ordered, V any, R any](f Field[ID, V], fn func(ID, V) R) Field[ID, R] {
	m := make(map[ID]R, len(f.neighbors))
	for id, v := range f.neighbors {
		m[id] = fn(id, v)
	}
	return Field[ID, R]{
		owner:     f.owner,
		local:     fn(f.owner, f.local),
		neighbors: m,
	}
}

// AlignedMap combines two fields entry by entry.
// Only neighbors present in both fields appear in the result, plus the local entry.
// Both fields must belong to the same device.
func AlignedMap[ID cmp.Ordered, A any, B any, R any](a Field[ID, A], b Field[ID, B], combine func(A, B) R) Field[ID, R] {
	return AlignedMapWithID(a, b, func(_ ID, x A, y B) R {
		return combine(x, y)
	})
}

func AlignedMapWithID[ID cmp.Ordered, A any, B any, R any](a Field[ID, A], b Field[ID, B], combine func(ID, A, B) R) Field[ID, R] {
	if a.owner != b.owner {
		panic("aligned map of fields owned by different devices")
	}
	m := make(map[ID]R, min(len(a.neighbors), len(b.neighbors)))
	for id, x := range a.neighbors {
		y, ok := b.neighbors[id]
		if !ok {
			continue
		}
		m[id] = combine(id, x, y)
	}
	return Field[ID, R]{
		owner:     a.owner,
		local:     combine(a.owner, a.local, b.local),
		neighbors: m,
	}
}

// Filter keeps the neighbors for which keep returns true. The local entry is always kept.
func Filter[ID cmp.Ordered, V any](f Field[ID, V], keep func(ID, V) bool) Field[ID, V] {
	m := make(map[ID]V, len(f.neighbors))
	for id, v := range f.neighbors {
		if keep(id, v) {
			m[id] = v
		}
	}
	return Field[ID, V]{
		owner:     f.owner,
		local:     f.local,
		neighbors: m,
	}
}

// WithLocal returns a copy of f with the local entry replaced.
func WithLocal[ID cmp.Ordered, V any](f Field[ID, V], local V) Field[ID, V] {
	return Field[ID, V]{
		owner:     f.owner,
		local:     local,
		neighbors: f.neighbors,
	}
}

// CoerceIn clamps every entry into [lower, upper].
func CoerceIn[ID cmp.Ordered, V cmp.Ordered](f Field[ID, V], lower, upper V) Field[ID, V] {
	return Map(f, func(v V) V {
		return min(max(v, lower), upper)
	})
}
