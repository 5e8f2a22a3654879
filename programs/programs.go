package programs

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/reusee/aggr/aggregates"
	"github.com/reusee/aggr/codecs"
	"github.com/reusee/aggr/gossips"
	"github.com/reusee/aggr/gradients"
)

// Program is a device program selectable by name, device 0 being the source of the gradients.
type Program = aggregates.Program[int, any]

var ErrUnknownProgram = errors.New("unknown program")

func isSource(c *aggregates.Context[int]) bool {
	return c.LocalID() == 0
}

var byName = map[string]Program{

	"hops": func(c *aggregates.Context[int]) (any, error) {
		return gradients.HopDistanceTo(c, isSource(c))
	},

	"distance": func(c *aggregates.Context[int]) (any, error) {
		return gradients.FloatDistanceTo(c, isSource(c), nil)
	},

	// every device learns the id of the source and its hop count
	"broadcast": func(c *aggregates.Context[int]) (any, error) {
		return gradients.GradientCastHops(c, isSource(c), fmt.Sprint(c.LocalID()), func(_, _ int, data string) string {
			return data + "."
		})
	},

	"gossip-max": func(c *aggregates.Context[int]) (any, error) {
		return gossips.GossipMax(c, c.LocalID())
	},

	"gossip-min": func(c *aggregates.Context[int]) (any, error) {
		return gossips.GossipMin(c, c.LocalID())
	},
}

func ByName(name string) (Program, error) {
	program, ok := byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProgram, name)
	}
	return program, nil
}

func Names() []string {
	return slices.Sorted(maps.Keys(byName))
}

// Register adds the payload types exchanged by the programs.
func Register(registry *codecs.Registry) {
	codecs.Register[gradients.Route[int, int]](registry)
	codecs.Register[gradients.Route[float64, float64]](registry)
	codecs.Register[gradients.Route[int, string]](registry)
	codecs.Register[gossips.Rumor[int, int]](registry)
}

// NewCodec returns a codec for the programs in the named format, or nil for an empty name.
func NewCodec(formatName string) (*codecs.Codec[int], error) {
	if formatName == "" {
		return nil, nil
	}
	format, err := codecs.FormatByName(formatName)
	if err != nil {
		return nil, err
	}
	registry := codecs.NewRegistry()
	Register(registry)
	codec := codecs.New[int](registry, format)
	return &codec, nil
}
