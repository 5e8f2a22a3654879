package codecs

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/reusee/aggr/envelopes"
	"github.com/reusee/aggr/paths"
)

var ErrUnregisteredType = errors.New("unregistered payload type")

type SerializationError struct {
	Op   string
	Path paths.Path
	Type string
	Err  error
}

func (s *SerializationError) Error() string {
	return fmt.Sprintf("%s payload %s at %v: %v", s.Op, s.Type, s.Path, s.Err)
}

func (s *SerializationError) Unwrap() error {
	return s.Err
}

type DecodePolicy uint8

const (
	// DropEntry drops a payload that cannot be decoded, as if the neighbor sent nothing for that path.
	DropEntry DecodePolicy = iota
	// FailMessage rejects the whole message when any payload cannot be decoded.
	FailMessage
)

// Codec encodes messages as a sender plus tagged (path, type name, bytes) entries.
type Codec[ID cmp.Ordered] struct {
	Registry *Registry
	Format   Format
	Policy   DecodePolicy
	// OnDrop is called for each payload dropped under DropEntry.
	OnDrop func(*SerializationError)
}

func New[ID cmp.Ordered](registry *Registry, format Format) Codec[ID] {
	return Codec[ID]{
		Registry: registry,
		Format:   format,
	}
}

type wireEntry struct {
	Path []byte
	Type string
	Data []byte
}

type wireMessage[ID cmp.Ordered] struct {
	Sender  ID
	Entries []wireEntry
}

func (c Codec[ID]) encodeEntries(payloads map[paths.Path]any) ([]wireEntry, error) {
	entries := make([]wireEntry, 0, len(payloads))
	for _, path := range slices.Sorted(maps.Keys(payloads)) {
		value := payloads[path]
		name, ok := c.Registry.NameOf(value)
		if !ok {
			return nil, &SerializationError{
				Op:   "encode",
				Path: path,
				Type: fmt.Sprintf("%T", value),
				Err:  ErrUnregisteredType,
			}
		}
		data, err := c.Format.Marshal(value)
		if err != nil {
			return nil, &SerializationError{
				Op:   "encode",
				Path: path,
				Type: name,
				Err:  err,
			}
		}
		entries = append(entries, wireEntry{
			Path: []byte(path),
			Type: name,
			Data: data,
		})
	}
	return entries, nil
}

func (c Codec[ID]) decodeEntry(entry wireEntry) (any, error) {
	path := paths.Path(entry.Path)
	t, ok := c.Registry.TypeOf(entry.Type)
	if !ok {
		return nil, &SerializationError{
			Op:   "decode",
			Path: path,
			Type: entry.Type,
			Err:  ErrUnregisteredType,
		}
	}
	ptr := reflect.New(t)
	if err := c.Format.Unmarshal(entry.Data, ptr.Interface()); err != nil {
		return nil, &SerializationError{
			Op:   "decode",
			Path: path,
			Type: entry.Type,
			Err:  err,
		}
	}
	return ptr.Elem().Interface(), nil
}

// EncodeMessage fails with a *SerializationError when a payload type is not registered
// or cannot be marshaled, so unsupported types are reported at send time.
func (c Codec[ID]) EncodeMessage(msg envelopes.Message[ID]) ([]byte, error) {
	entries, err := c.encodeEntries(msg.Payloads)
	if err != nil {
		return nil, err
	}
	return c.Format.Marshal(wireMessage[ID]{
		Sender:  msg.Sender,
		Entries: entries,
	})
}

func (c Codec[ID]) DecodeMessage(data []byte) (ret envelopes.Message[ID], err error) {
	var wire wireMessage[ID]
	if err := c.Format.Unmarshal(data, &wire); err != nil {
		return ret, &SerializationError{
			Op:   "decode",
			Type: "message",
			Err:  err,
		}
	}
	ret.Sender = wire.Sender
	ret.Payloads = make(map[paths.Path]any, len(wire.Entries))
	var errs []error
	for _, entry := range wire.Entries {
		value, err := c.decodeEntry(entry)
		if err != nil {
			var serr *SerializationError
			if c.Policy == DropEntry && errors.As(err, &serr) {
				if c.OnDrop != nil {
					c.OnDrop(serr)
				}
				continue
			}
			errs = append(errs, err)
			continue
		}
		ret.Payloads[paths.Path(entry.Path)] = value
	}
	if len(errs) > 0 {
		return envelopes.Message[ID]{}, errors.Join(errs...)
	}
	return ret, nil
}

// EncodeState encodes a retained state for persistence.
func (c Codec[ID]) EncodeState(state map[paths.Path]any) ([]byte, error) {
	entries, err := c.encodeEntries(state)
	if err != nil {
		return nil, err
	}
	return c.Format.Marshal(entries)
}

// DecodeState is strict: any undecodable entry fails the whole state.
func (c Codec[ID]) DecodeState(data []byte) (map[paths.Path]any, error) {
	var entries []wireEntry
	if err := c.Format.Unmarshal(data, &entries); err != nil {
		return nil, &SerializationError{
			Op:   "decode",
			Type: "state",
			Err:  err,
		}
	}
	ret := make(map[paths.Path]any, len(entries))
	for _, entry := range entries {
		value, err := c.decodeEntry(entry)
		if err != nil {
			return nil, err
		}
		ret[paths.Path(entry.Path)] = value
	}
	return ret, nil
}
