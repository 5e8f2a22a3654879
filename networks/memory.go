package networks

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/reusee/aggr/aggregates"
	"github.com/reusee/aggr/codecs"
	"github.com/reusee/aggr/envelopes"
)

// Neighborhood tells who hears whom.
type Neighborhood[ID cmp.Ordered] interface {
	Neighbors(id ID) []ID
}

// Memory delivers messages between devices of one process.
// Each device keeps the last message of every neighbor until the neighbor sends a new one.
type Memory[ID cmp.Ordered] struct {
	neighborhood Neighborhood[ID]
	codec        *codecs.Codec[ID]

	mu        sync.Mutex
	mailboxes map[ID]map[ID]mail[ID]
}

type mail[ID cmp.Ordered] struct {
	msg     envelopes.Message[ID]
	encoded []byte
}

// NewMemory creates an in-process network.
// If codec is not nil, messages are encoded when sent and decoded when received.
func NewMemory[ID cmp.Ordered](neighborhood Neighborhood[ID], codec *codecs.Codec[ID]) *Memory[ID] {
	return &Memory[ID]{
		neighborhood: neighborhood,
		codec:        codec,
		mailboxes:    make(map[ID]map[ID]mail[ID]),
	}
}

// Endpoint returns the network as seen by id.
func (m *Memory[ID]) Endpoint(id ID) *MemoryEndpoint[ID] {
	return &MemoryEndpoint[ID]{
		memory: m,
		id:     id,
	}
}

func (m *Memory[ID]) send(from ID, outbound *envelopes.Envelope[ID]) error {
	neighbors := m.neighborhood.Neighbors(from)
	mails := make(map[ID]mail[ID], len(neighbors))
	for _, neighbor := range neighbors {
		msg := outbound.PrepareMessageFor(neighbor)
		if m.codec == nil {
			mails[neighbor] = mail[ID]{
				msg: msg,
			}
			continue
		}
		data, err := m.codec.EncodeMessage(msg)
		if err != nil {
			return fmt.Errorf("send to %v: %w", neighbor, err)
		}
		mails[neighbor] = mail[ID]{
			encoded: data,
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for neighbor, ml := range mails {
		box, ok := m.mailboxes[neighbor]
		if !ok {
			box = make(map[ID]mail[ID])
			m.mailboxes[neighbor] = box
		}
		box[from] = ml
	}
	return nil
}

func (m *Memory[ID]) receive(id ID) (envelopes.Inbound[ID], error) {
	m.mu.Lock()
	box := maps.Clone(m.mailboxes[id])
	m.mu.Unlock()

	inbound := make(envelopes.Inbound[ID], len(box))
	for sender, ml := range box {
		if m.codec == nil {
			inbound.Add(ml.msg)
			continue
		}
		msg, err := m.codec.DecodeMessage(ml.encoded)
		if err != nil {
			return nil, fmt.Errorf("receive from %v: %w", sender, err)
		}
		inbound.Add(msg)
	}
	return inbound, nil
}

// Forget drops the messages id received from sender.
func (m *Memory[ID]) Forget(id ID, sender ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.mailboxes[id], sender)
}

type MemoryEndpoint[ID cmp.Ordered] struct {
	memory *Memory[ID]
	id     ID
}

var _ aggregates.Network[int] = new(MemoryEndpoint[int])

func (m *MemoryEndpoint[ID]) Send(ctx context.Context, from ID, outbound *envelopes.Envelope[ID]) error {
	return m.memory.send(from, outbound)
}

func (m *MemoryEndpoint[ID]) Receive(ctx context.Context) (envelopes.Inbound[ID], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.memory.receive(m.id)
}
