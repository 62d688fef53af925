package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName       = "streamtabs.v1.Runtime"
	SendMessageMethod = "/" + ServiceName + "/SendMessage"
)

// RuntimeServer handles runtime messages: a Struct carrying an "action" key
// plus action-specific fields, answered with an arbitrary Value.
type RuntimeServer interface {
	SendMessage(ctx context.Context, msg *structpb.Struct) (*structpb.Value, error)
}

// ServiceDesc describes the Runtime service for grpc.Server registration.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RuntimeServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SendMessage",
			Handler:    sendMessageHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "streamtabs/v1/runtime.proto",
}

// RegisterRuntimeServer registers srv on s.
func RegisterRuntimeServer(s grpc.ServiceRegistrar, srv RuntimeServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func sendMessageHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RuntimeServer).SendMessage(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: SendMessageMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RuntimeServer).SendMessage(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
