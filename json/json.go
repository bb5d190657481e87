// Package json is the codec used for values persisted through the cache and
// connection capabilities. It wraps json-iterator and fills `default` struct
// tags before encoding and decoding.
package json

import (
	"io"
	"reflect"

	"github.com/creasty/defaults"
	jsoniter "github.com/json-iterator/go"
)

var api = jsoniter.ConfigCompatibleWithStandardLibrary

// Codec encodes values to bytes and back.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type codec struct{}

func (codec) Marshal(v any) ([]byte, error)      { return Marshal(v) }
func (codec) Unmarshal(data []byte, v any) error { return Unmarshal(data, v) }

// Default is the package-level codec.
var Default Codec = codec{}

type Encoder struct {
	*jsoniter.Encoder
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{Encoder: api.NewEncoder(w)}
}

func (e *Encoder) Encode(v any) error {
	if err := applyDefaults(v); err != nil {
		return err
	}
	return e.Encoder.Encode(v)
}

type Decoder struct {
	*jsoniter.Decoder
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{Decoder: api.NewDecoder(r)}
}

// Decode fills defaults first so explicit zero values in the input win.
func (d *Decoder) Decode(v any) error {
	if err := applyDefaults(v); err != nil {
		return err
	}
	return d.Decoder.Decode(v)
}

func Marshal(v any) ([]byte, error) {
	if err := applyDefaults(v); err != nil {
		return nil, err
	}
	return api.Marshal(v)
}

func MarshalToString(v any) (string, error) {
	if err := applyDefaults(v); err != nil {
		return "", err
	}
	return api.MarshalToString(v)
}

func Unmarshal(data []byte, v any) error {
	if err := applyDefaults(v); err != nil {
		return err
	}
	return api.Unmarshal(data, v)
}

func UnmarshalFromString(s string, v any) error {
	return Unmarshal([]byte(s), v)
}

func Valid(data []byte) bool {
	return api.Valid(data)
}

// applyDefaults only touches pointers to structs; maps, slices and scalars
// pass through unchanged.
func applyDefaults(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil
	}
	return defaults.Set(v)
}
