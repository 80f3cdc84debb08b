// Package pb holds the wire message types for the two gRPC service
// definitions (control plane, data plane) plus the codec that serializes
// them. No protoc toolchain is available to this repository, so these
// messages are plain Go structs authored directly against the shape
// protoc-gen-go would produce, and the wire codec is JSON rather than the
// binary protobuf encoding (which requires a generated descriptor these
// structs don't have).
package pb

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec registers itself under the name "proto", the name grpc-go's
// transport picks by default, so grpc.NewServer()/grpc.Dial() need no extra
// option to use it.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "proto" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("pb: marshal: %w", err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("pb: unmarshal: %w", err)
	}
	return nil
}

// StoreScoped is implemented by every request message that carries a
// policy_store_id, letting the audit interceptor attribute a generic
// ApiCalled/ApiCompleted event pair to the right aggregate without a type
// switch over every message type.
type StoreScoped interface {
	GetPolicyStoreId() string
}
