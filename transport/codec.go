// Package transport ships wire.Message frames between nodes over gRPC,
// using a hand-rolled grpc.ServiceDesc so the service needs no .proto
// file or generated stubs.
package transport

import "fmt"

// Frame is the payload shape carried over the wire: the raw bytes a
// wire.Message produced via SendStart, concatenated back into one slice
// for transport. The receiving side feeds it back through
// HeaderRecvStart/HeaderRecvDone/BodyRecvStart exactly as if it had been
// read off a socket directly.
type Frame struct {
	Data []byte
}

// Ack is the empty acknowledgement returned once a Frame has been
// delivered to the local handler.
type Ack struct{}

// frameCodec is a grpc.Codec (registered via encoding.RegisterCodec) that
// passes Frame/Ack payloads through as raw bytes instead of marshaling
// them with protobuf or JSON — the wire package has already done the only
// encoding this payload needs.
type frameCodec struct{}

func (frameCodec) Name() string { return "memvfs-frame" }

func (frameCodec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case *Frame:
		return m.Data, nil
	case *Ack:
		return nil, nil
	default:
		return nil, fmt.Errorf("transport: frameCodec cannot marshal %T", v)
	}
}

func (frameCodec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case *Frame:
		m.Data = append([]byte(nil), data...)
		return nil
	case *Ack:
		return nil
	default:
		return fmt.Errorf("transport: frameCodec cannot unmarshal into %T", v)
	}
}
