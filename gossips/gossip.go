package gossips

import (
	"cmp"
	"slices"

	"github.com/reusee/aggr/aggregates"
	"github.com/reusee/aggr/fields"
)

// Rumor is a gossiped value with the devices it went through, the originating one first.
type Rumor[ID cmp.Ordered, V any] struct {
	Best V
	Path []ID
}

// Gossip spreads the best value in the network, best being the greatest by compare.
//
// A rumor is never accepted back by a device it already went through,
// so a value stops spreading once its origin is gone
// and the network settles on the best remaining value.
func Gossip[ID cmp.Ordered, V any](
	c *aggregates.Context[ID],
	local V,
	compare func(a, b V) int,
) (ret V, err error) {
	self := c.LocalID()
	own := Rumor[ID, V]{
		Best: local,
		Path: []ID{self},
	}
	rumor, err := aggregates.Call(c, "gossip", func() (Rumor[ID, V], error) {
		return aggregates.Share(c, own, func(received fields.Field[ID, Rumor[ID, V]]) (Rumor[ID, V], error) {
			return fields.Fold(received, own, func(best Rumor[ID, V], _ ID, rumor Rumor[ID, V]) Rumor[ID, V] {
				if slices.Contains(rumor.Path, self) {
					return best
				}
				if compare(rumor.Best, best.Best) <= 0 {
					return best
				}
				return Rumor[ID, V]{
					Best: rumor.Best,
					Path: append(slices.Clone(rumor.Path), self),
				}
			}), nil
		})
	})
	if err != nil {
		return ret, err
	}
	return rumor.Best, nil
}

// GossipMax spreads the greatest value in the network.
func GossipMax[ID cmp.Ordered, V cmp.Ordered](c *aggregates.Context[ID], local V) (V, error) {
	return Gossip(c, local, cmp.Compare[V])
}

// GossipMin spreads the least value in the network.
func GossipMin[ID cmp.Ordered, V cmp.Ordered](c *aggregates.Context[ID], local V) (V, error) {
	return Gossip(c, local, func(a, b V) int {
		return cmp.Compare(b, a)
	})
}
