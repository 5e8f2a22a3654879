package envelopes

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/reusee/aggr/paths"
)

var ErrAlignmentClash = errors.New("alignment clash")

// Envelope collects the data a device shares during one round.
// Every path carries a default value sent to all neighbors, and optional per-neighbor overrides.
// An Envelope belongs to a single round and is not safe for concurrent writes.
type Envelope[ID cmp.Ordered] struct {
	sender    ID
	defaults  map[paths.Path]any
	order     []paths.Path
	overrides map[ID]map[paths.Path]any
}

func NewEnvelope[ID cmp.Ordered](sender ID, expectedSize int) *Envelope[ID] {
	return &Envelope[ID]{
		sender:    sender,
		defaults:  make(map[paths.Path]any, expectedSize),
		overrides: make(map[ID]map[paths.Path]any),
	}
}

// SharedData is the data shared at one path.
type SharedData[ID cmp.Ordered, V any] struct {
	Default   V
	Overrides map[ID]V
}

func clashError(path paths.Path) error {
	return fmt.Errorf("%w at path %v: the same program point shared data twice in one round; "+
		"repeated aggregate calls in the same scope need distinct alignment", ErrAlignmentClash, path)
}

func (e *Envelope[ID]) Sender() ID {
	return e.sender
}

// RecordDefault sets the value sent to every neighbor for path.
func (e *Envelope[ID]) RecordDefault(path paths.Path, value any) error {
	if _, ok := e.defaults[path]; ok {
		return clashError(path)
	}
	e.defaults[path] = value
	e.order = append(e.order, path)
	return nil
}

// MergeOverride sets the value sent to receiver for path, in place of the default.
// Overrides already queued for other paths to the same receiver are kept.
func (e *Envelope[ID]) MergeOverride(path paths.Path, receiver ID, value any) error {
	bucket, ok := e.overrides[receiver]
	if !ok {
		bucket = make(map[paths.Path]any)
		e.overrides[receiver] = bucket
	}
	if _, ok := bucket[path]; ok {
		return clashError(path)
	}
	bucket[path] = value
	return nil
}

// AddData records data for path. Nothing is recorded if path already has a default.
func AddData[ID cmp.Ordered, V any](e *Envelope[ID], path paths.Path, data SharedData[ID, V]) error {
	if _, ok := e.defaults[path]; ok {
		return clashError(path)
	}
	for receiver := range data.Overrides {
		if _, ok := e.overrides[receiver][path]; ok {
			return clashError(path)
		}
	}
	if err := e.RecordDefault(path, data.Default); err != nil {
		return err
	}
	for _, receiver := range slices.Sorted(maps.Keys(data.Overrides)) {
		if err := e.MergeOverride(path, receiver, data.Overrides[receiver]); err != nil {
			return err
		}
	}
	return nil
}

// PrepareMessageFor materializes the message for receiver:
// the defaults of every recorded path, with receiver's overrides applied.
func (e *Envelope[ID]) PrepareMessageFor(receiver ID) Message[ID] {
	payloads := make(map[paths.Path]any, len(e.defaults))
	maps.Copy(payloads, e.defaults)
	for path, value := range e.overrides[receiver] {
		if _, ok := payloads[path]; !ok {
			// overrides without a default are never materialized
			continue
		}
		payloads[path] = value
	}
	return Message[ID]{
		Sender:   e.sender,
		Payloads: payloads,
	}
}

func (e *Envelope[ID]) IsEmpty() bool {
	return len(e.defaults) == 0
}

func (e *Envelope[ID]) IsNotEmpty() bool {
	return len(e.defaults) > 0
}

func (e *Envelope[ID]) Len() int {
	return len(e.defaults)
}

// Paths returns the recorded paths in recording order.
func (e *Envelope[ID]) Paths() []paths.Path {
	return slices.Clone(e.order)
}

// Default returns the default recorded for path.
func (e *Envelope[ID]) Default(path paths.Path) (any, bool) {
	v, ok := e.defaults[path]
	return v, ok
}

// OverrideReceivers returns the receivers having at least one override, in ascending order.
func (e *Envelope[ID]) OverrideReceivers() []ID {
	return slices.Sorted(maps.Keys(e.overrides))
}
