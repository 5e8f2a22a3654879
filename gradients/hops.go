package gradients

import (
	"cmp"
	"math"

	"github.com/reusee/aggr/aggregates"
	"github.com/reusee/aggr/fields"
)

func saturatingAdd(a, b int) int {
	if b > 0 && a > math.MaxInt-b {
		return math.MaxInt
	}
	if b < 0 && a < math.MinInt-b {
		return math.MinInt
	}
	return a + b
}

func hopMetric[ID cmp.Ordered](c *aggregates.Context[ID]) func() (fields.Field[ID, int], error) {
	return func() (fields.Field[ID, int], error) {
		return aggregates.Neighboring(c, 1)
	}
}

// HopDistanceTo counts the hops to the nearest source. It is math.MaxInt if no source is reachable.
func HopDistanceTo[ID cmp.Ordered](c *aggregates.Context[ID], source bool) (int, error) {
	return DistanceTo(c, source, 0, math.MaxInt, saturatingAdd, hopMetric(c))
}

// FloatDistanceTo computes the distance from the nearest source with metric, one per hop if metric is nil.
// It is +Inf if no source is reachable.
func FloatDistanceTo[ID cmp.Ordered](
	c *aggregates.Context[ID],
	source bool,
	metric func() (fields.Field[ID, float64], error),
) (float64, error) {
	if metric == nil {
		metric = func() (fields.Field[ID, float64], error) {
			return aggregates.Neighboring(c, 1.0)
		}
	}
	return DistanceTo(c, source, 0, math.Inf(1), func(a, b float64) float64 {
		return a + b
	}, metric)
}

// GradientCastHops is GradientCast measuring distances in hops.
func GradientCastHops[ID cmp.Ordered, V any](
	c *aggregates.Context[ID],
	source bool,
	local V,
	accumulateData func(fromSource, toNeighbor int, data V) V,
) (V, error) {
	return GradientCast(c, source, local, 0, math.MaxInt, saturatingAdd, accumulateData, hopMetric(c))
}
