package codecs

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
)

// Format turns single values into bytes and back.
type Format interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, ptr any) error
}

var (
	Gob  Format = gobFormat{}
	JSON Format = jsonFormat{}
)

func FormatByName(name string) (Format, error) {
	switch name {
	case "gob":
		return Gob, nil
	case "json":
		return JSON, nil
	}
	return nil, fmt.Errorf("unknown format: %s", name)
}

type gobFormat struct{}

func (gobFormat) Name() string {
	return "gob"
}

func (gobFormat) Marshal(v any) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := gob.NewEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobFormat) Unmarshal(data []byte, ptr any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(ptr)
}

type jsonFormat struct{}

func (jsonFormat) Name() string {
	return "json"
}

func (jsonFormat) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonFormat) Unmarshal(data []byte, ptr any) error {
	return json.Unmarshal(data, ptr)
}
