package grpctransport

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified name of the gRPC service.
const ServiceName = "psikit.v1.SetIntersection"

const (
	joinMethod      = "/" + ServiceName + "/Join"
	getResultMethod = "/" + ServiceName + "/GetResult"
)

// SetIntersectionServer is the server API of the SetIntersection service.
//
// Requests and responses are [structpb.Struct] messages with the same fields
// as the JSON bodies of the HTTP API.
type SetIntersectionServer interface {
	Join(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetResult(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterSetIntersectionServer registers srv with r.
func RegisterSetIntersectionServer(r grpc.ServiceRegistrar, srv SetIntersectionServer) {
	r.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SetIntersectionServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Join",
			Handler: unaryHandler(
				joinMethod,
				SetIntersectionServer.Join,
			),
		},
		{
			MethodName: "GetResult",
			Handler: unaryHandler(
				getResultMethod,
				SetIntersectionServer.GetResult,
			),
		},
	},
	Metadata: "psikit/v1/set_intersection.proto",
}

// unaryHandler returns a [grpc.MethodHandler] that invokes fn.
func unaryHandler(
	fullMethod string,
	fn func(SetIntersectionServer, context.Context, *structpb.Struct) (*structpb.Struct, error),
) grpc.MethodHandler {
	return func(
		srv any,
		ctx context.Context,
		dec func(any) error,
		interceptor grpc.UnaryServerInterceptor,
	) (any, error) {
		in := &structpb.Struct{}
		if err := dec(in); err != nil {
			return nil, err
		}

		if interceptor == nil {
			return fn(srv.(SetIntersectionServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		return interceptor(
			ctx,
			in,
			info,
			func(ctx context.Context, req any) (any, error) {
				return fn(srv.(SetIntersectionServer), ctx, req.(*structpb.Struct))
			},
		)
	}
}
