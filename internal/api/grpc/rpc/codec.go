// Package rpc holds the wire types and service descriptors of the securemail gRPC API.
package rpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName is the content subtype clients send: application/grpc+json.
const CodecName = "json"

func init() {
	encoding.RegisterCodec(Codec{})
}

// Codec encodes messages as JSON.
// TODO: switch to protoc-generated types and drop the hand-written ServiceDescs once
// securemail/v1/{auth,mail}.proto are published.
type Codec struct{}

var _ encoding.Codec = Codec{}

func (Codec) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	return b, nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %T: %w", v, err)
	}
	return nil
}

func (Codec) Name() string {
	return CodecName
}
