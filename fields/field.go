package fields

import (
	"cmp"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"
)

// Field is a device's view of a value across itself and its aligned neighbors.
// A Field is immutable; every transform returns a new Field.
type Field[ID cmp.Ordered, V any] struct {
	owner     ID
	local     V
	neighbors map[ID]V
}

// New builds a field owned by owner.
// An entry for owner in neighbors is ignored, the local value always wins.
func New[ID cmp.Ordered, V any](owner ID, local V, neighbors map[ID]V) Field[ID, V] {
	m := make(map[ID]V, len(neighbors))
	for id, v := range neighbors {
		if id == owner {
			continue
		}
		m[id] = v
	}
	return Field[ID, V]{
		owner:     owner,
		local:     local,
		neighbors: m,
	}
}

// Constant builds a field holding value for owner and every id in neighbors.
func Constant[ID cmp.Ordered, V any](owner ID, neighbors []ID, value V) Field[ID, V] {
	m := make(map[ID]V, len(neighbors))
	for _, id := range neighbors {
		if id == owner {
			continue
		}
		m[id] = value
	}
	return Field[ID, V]{
		owner:     owner,
		local:     value,
		neighbors: m,
	}
}

func (f Field[ID, V]) Owner() ID {
	return f.owner
}

func (f Field[ID, V]) Local() V {
	return f.local
}

func (f Field[ID, V]) Get(id ID) (V, bool) {
	if id == f.owner {
		return f.local, true
	}
	v, ok := f.neighbors[id]
	return v, ok
}

func (f Field[ID, V]) NeighborsCount() int {
	return len(f.neighbors)
}

// NeighborIDs returns the neighbor ids in ascending order.
func (f Field[ID, V]) NeighborIDs() []ID {
	return slices.Sorted(maps.Keys(f.neighbors))
}

// Neighbors iterates neighbor entries in ascending id order, excluding the local entry.
func (f Field[ID, V]) Neighbors() iter.Seq2[ID, V] {
	return func(yield func(ID, V) bool) {
		for _, id := range f.NeighborIDs() {
			if !yield(id, f.neighbors[id]) {
				return
			}
		}
	}
}

// All iterates every entry in ascending id order, including the local entry.
func (f Field[ID, V]) All() iter.Seq2[ID, V] {
	return func(yield func(ID, V) bool) {
		ids := f.NeighborIDs()
		pos, _ := slices.BinarySearch(ids, f.owner)
		ids = slices.Insert(ids, pos, f.owner)
		for _, id := range ids {
			v, _ := f.Get(id)
			if !yield(id, v) {
				return
			}
		}
	}
}

func (f Field[ID, V]) ExcludeSelf() map[ID]V {
	return maps.Clone(f.neighbors)
}

func (f Field[ID, V]) ToMap() map[ID]V {
	m := make(map[ID]V, len(f.neighbors)+1)
	maps.Copy(m, f.neighbors)
	m[f.owner] = f.local
	return m
}

func (f Field[ID, V]) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Field(%v: %v", f.owner, f.local)
	for id, v := range f.Neighbors() {
		fmt.Fprintf(&sb, ", %v: %v", id, v)
	}
	sb.WriteString(")")
	return sb.String()
}
