package envelopes

import (
	"cmp"
	"maps"
	"slices"

	"github.com/reusee/aggr/paths"
)

// Message is what one device sends to one neighbor at the end of a round.
type Message[ID cmp.Ordered] struct {
	Sender   ID
	Payloads map[paths.Path]any
}

// Inbound holds the latest message from each neighbor, keyed by sender.
type Inbound[ID cmp.Ordered] map[ID]Message[ID]

// At collects the payloads sent for path, keyed by sender.
func (i Inbound[ID]) At(path paths.Path) map[ID]any {
	ret := make(map[ID]any)
	for sender, msg := range i {
		if v, ok := msg.Payloads[path]; ok {
			ret[sender] = v
		}
	}
	return ret
}

func (i Inbound[ID]) Senders() []ID {
	return slices.Sorted(maps.Keys(i))
}

// Add stores msg, replacing any previous message from the same sender.
func (i Inbound[ID]) Add(msg Message[ID]) {
	i[msg.Sender] = msg
}
