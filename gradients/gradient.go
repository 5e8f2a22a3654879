package gradients

import (
	"cmp"
	"errors"
	"fmt"

	"github.com/reusee/aggr/aggregates"
	"github.com/reusee/aggr/fields"
)

var ErrDistanceMonotonicity = errors.New("distance accumulation violates the triangle inequality")

// Route is what a device shares in a gradient: its distance from the nearest source and the data carried from it.
type Route[D cmp.Ordered, V any] struct {
	Distance D
	Data     V
}

// GradientCast propagates local from the nearest source along the minimum distance paths.
//
// Distances are kept in [bottom, top]. metric measures the distance to each neighbor,
// accumulateDistance adds it to the neighbor's distance from the source,
// and accumulateData rewrites the data received from a neighbor, nil meaning identity.
// A device that neither is a source nor has a neighbor with data keeps local.
//
// accumulateDistance must never produce a distance shorter than any of its arguments,
// the round fails with ErrDistanceMonotonicity otherwise, on sources too.
func GradientCast[ID cmp.Ordered, V any, D cmp.Ordered](
	c *aggregates.Context[ID],
	source bool,
	local V,
	bottom D,
	top D,
	accumulateDistance func(fromSource, toNeighbor D) D,
	accumulateData func(fromSource, toNeighbor D, data V) V,
	metric func() (fields.Field[ID, D], error),
) (ret V, err error) {
	route, err := aggregates.Call(c, "gradientCast", func() (ret Route[D, V], err error) {
		toNeighbors, err := aggregates.Call(c, "metric", metric)
		if err != nil {
			return ret, err
		}
		toNeighbors = fields.CoerceIn(toNeighbors, bottom, top)

		base := Route[D, V]{
			Distance: top,
			Data:     local,
		}
		return aggregates.Share(c, base, func(received fields.Field[ID, Route[D, V]]) (ret Route[D, V], err error) {
			owner := received.Owner()
			var violation error
			routes := fields.AlignedMapWithID(received, toNeighbors, func(id ID, route Route[D, V], toNeighbor D) Route[D, V] {
				if id == owner {
					// the local entry is the previous route, not a path through a neighbor
					return route
				}
				total := min(max(accumulateDistance(route.Distance, toNeighbor), bottom), top)
				if total < route.Distance || total < toNeighbor {
					if violation == nil {
						violation = fmt.Errorf("%w: accumulating %v and %v produced %v",
							ErrDistanceMonotonicity, route.Distance, toNeighbor, total)
					}
					return route
				}
				data := route.Data
				if accumulateData != nil {
					data = accumulateData(route.Distance, toNeighbor, data)
				}
				return Route[D, V]{
					Distance: total,
					Data:     data,
				}
			})
			if violation != nil {
				return ret, c.Fail(violation)
			}

			if source {
				return Route[D, V]{
					Distance: bottom,
					Data:     local,
				}, nil
			}

			return fields.MinBy(routes, base, func(a, b Route[D, V]) bool {
				return a.Distance < b.Distance
			}), nil
		})
	})
	if err != nil {
		return ret, err
	}
	return route.Data, nil
}

// DistanceTo computes the distance from the nearest source.
func DistanceTo[ID cmp.Ordered, D cmp.Ordered](
	c *aggregates.Context[ID],
	source bool,
	bottom D,
	top D,
	accumulateDistance func(fromSource, toNeighbor D) D,
	metric func() (fields.Field[ID, D], error),
) (D, error) {
	local := top
	if source {
		local = bottom
	}
	return GradientCast(
		c, source, local, bottom, top,
		accumulateDistance,
		func(fromSource, toNeighbor D, _ D) D {
			return accumulateDistance(fromSource, toNeighbor)
		},
		metric,
	)
}
