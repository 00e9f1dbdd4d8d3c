package codec

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec names.
const (
	JSON    = "json"
	MsgPack = "msgpack"
)

// Codec encodes messages published on a topic.
type Codec interface {
	Name() string
	// Binary reports whether encoded messages must be sent as binary frames.
	Binary() bool
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

// NewJSON returns the JSON codec, the default for text topics and uploads.
func NewJSON() Codec {
	return jsonCodec{}
}

// New returns the codec registered under name.
func New(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", JSON:
		return NewJSON(), nil
	case MsgPack:
		return msgpackCodec{}, nil
	default:
		return nil, errors.Errorf("unknown codec %q", name)
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return JSON }
func (jsonCodec) Binary() bool { return false }

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	return data, errors.Wrap(err, "json encode")
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return errors.Wrap(json.Unmarshal(data, v), "json decode")
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string { return MsgPack }
func (msgpackCodec) Binary() bool { return true }

func (msgpackCodec) Marshal(v interface{}) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	return data, errors.Wrap(err, "msgpack encode")
}

func (msgpackCodec) Unmarshal(data []byte, v interface{}) error {
	return errors.Wrap(msgpack.Unmarshal(data, v), "msgpack decode")
}
