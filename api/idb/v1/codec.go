package idbv1

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

// Codec marshals CompanionService messages in protobuf wire format. It
// handles the hand-written messages of this package as well as generated
// proto.Message values such as emptypb.Empty. Install it with
// grpc.ForceCodec on clients and grpc.ForceServerCodec on servers.
type Codec struct{}

// Name reports "proto" so the content type matches a stock companion.
func (Codec) Name() string { return "proto" }

func (Codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case message:
		return m.appendWire(nil), nil
	case proto.Message:
		return proto.Marshal(m)
	default:
		return nil, fmt.Errorf("idbv1: cannot marshal %T", v)
	}
}

func (Codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case message:
		return m.unmarshalWire(data)
	case proto.Message:
		return proto.Unmarshal(data, m)
	default:
		return fmt.Errorf("idbv1: cannot unmarshal into %T", v)
	}
}
