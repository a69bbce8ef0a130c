package transport

import (
	"context"

	"google.golang.org/grpc"
)

// Service is implemented by a node's message handler: given the raw bytes
// of an inbound Frame (header followed by body, not yet decoded), do
// whatever the message type calls for and return nil on success.
type Service interface {
	HandleFrame(ctx context.Context, data []byte) error
}

// RegisterService attaches srv to s using a manual grpc.ServiceDesc: this
// module has exactly one RPC and no need for a generated client/server
// stub pair.
func RegisterService(s *grpc.Server, srv Service) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: "memvfs.Transport",
		HandlerType: (*Service)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "Send", Handler: sendHandler},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "memvfs",
	}, srv)
}

func sendHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Frame)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return handle(ctx, srv.(Service), in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/memvfs.Transport/Send"}
	handler := func(ctx context.Context, req any) (any, error) {
		return handle(ctx, srv.(Service), req.(*Frame))
	}
	return interceptor(ctx, in, info, handler)
}

func handle(ctx context.Context, srv Service, in *Frame) (*Ack, error) {
	if err := srv.HandleFrame(ctx, in.Data); err != nil {
		return nil, err
	}
	return &Ack{}, nil
}
