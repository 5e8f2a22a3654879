package simulations

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
)

// Topology is an undirected neighborhood graph.
type Topology[ID cmp.Ordered] struct {
	links map[ID]map[ID]struct{}
}

func NewTopology[ID cmp.Ordered](ids ...ID) *Topology[ID] {
	t := &Topology[ID]{
		links: make(map[ID]map[ID]struct{}, len(ids)),
	}
	for _, id := range ids {
		t.Add(id)
	}
	return t
}

// FromEdges builds a topology from links. Devices are the ends of the links.
func FromEdges[ID cmp.Ordered](edges ...[2]ID) *Topology[ID] {
	t := NewTopology[ID]()
	for _, edge := range edges {
		t.Connect(edge[0], edge[1])
	}
	return t
}

// Line links n devices 0..n-1 in a chain.
func Line(n int) *Topology[int] {
	t := NewTopology[int]()
	for i := range n {
		t.Add(i)
		if i > 0 {
			t.Connect(i-1, i)
		}
	}
	return t
}

// Grid places width*height devices on a grid, device y*width+x at (x, y),
// each linked to the up to eight devices around it.
func Grid(width, height int) *Topology[int] {
	t := NewTopology[int]()
	for y := range height {
		for x := range width {
			id := y*width + x
			t.Add(id)
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if dx == 0 && dy == 0 ||
						nx < 0 || nx >= width ||
						ny < 0 || ny >= height {
						continue
					}
					t.Connect(id, ny*width+nx)
				}
			}
		}
	}
	return t
}

// ByName builds one of the named topologies over size devices.
// A grid is square, size being its side.
func ByName(name string, size int) (*Topology[int], error) {
	switch name {
	case "line":
		return Line(size), nil
	case "grid":
		return Grid(size, size), nil
	case "ring":
		t := Line(size)
		if size > 2 {
			t.Connect(0, size-1)
		}
		return t, nil
	}
	return nil, fmt.Errorf("unknown topology: %s", name)
}

func (t *Topology[ID]) Add(id ID) {
	if _, ok := t.links[id]; !ok {
		t.links[id] = make(map[ID]struct{})
	}
}

func (t *Topology[ID]) Remove(id ID) {
	for neighbor := range t.links[id] {
		delete(t.links[neighbor], id)
	}
	delete(t.links, id)
}

func (t *Topology[ID]) Connect(a, b ID) {
	if a == b {
		return
	}
	t.Add(a)
	t.Add(b)
	t.links[a][b] = struct{}{}
	t.links[b][a] = struct{}{}
}

func (t *Topology[ID]) Disconnect(a, b ID) {
	delete(t.links[a], b)
	delete(t.links[b], a)
}

// IDs returns the devices in ascending order.
func (t *Topology[ID]) IDs() []ID {
	return slices.Sorted(maps.Keys(t.links))
}

// Neighbors returns the neighbors of id in ascending order.
func (t *Topology[ID]) Neighbors(id ID) []ID {
	return slices.Sorted(maps.Keys(t.links[id]))
}

func (t *Topology[ID]) Linked(a, b ID) bool {
	_, ok := t.links[a][b]
	return ok
}

func (t *Topology[ID]) Len() int {
	return len(t.links)
}
