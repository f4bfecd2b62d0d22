package types

import (
	"encoding/json"
	"fmt"
	"reflect"

	collcodec "cosmossdk.io/collections/codec"
)

// JSONValue returns a collections value codec that stores T as canonical JSON.
// State types in this module are plain Go structs, so they are persisted with
// encoding/json rather than a protobuf codec.
func JSONValue[T any]() collcodec.ValueCodec[T] {
	return jsonValue[T]{}
}

type jsonValue[T any] struct{}

func (jsonValue[T]) Encode(value T) ([]byte, error) {
	return json.Marshal(value)
}

func (jsonValue[T]) Decode(b []byte) (T, error) {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("failed to decode %s: %w", typeName[T](), err)
	}
	return v, nil
}

func (j jsonValue[T]) EncodeJSON(value T) ([]byte, error) {
	return j.Encode(value)
}

func (j jsonValue[T]) DecodeJSON(b []byte) (T, error) {
	return j.Decode(b)
}

func (jsonValue[T]) Stringify(value T) string {
	bz, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%+v", value)
	}
	return string(bz)
}

func (jsonValue[T]) ValueType() string {
	return "json/" + typeName[T]()
}

func typeName[T any]() string {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return "unknown"
	}
	return t.String()
}
