package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// OrderAdminServiceName is the fully qualified gRPC service name. Messages
// are well-known protobuf types so no generated code is needed on either
// side: requests carry an order id or a filter struct, replies are structs
// holding the JSON rendering of the order.
const OrderAdminServiceName = "shopdesk.order.v1.OrderAdmin"

const (
	methodGetOrder     = "/" + OrderAdminServiceName + "/GetOrder"
	methodListOrders   = "/" + OrderAdminServiceName + "/ListOrders"
	methodDeliverOrder = "/" + OrderAdminServiceName + "/DeliverOrder"
	methodCancelOrder  = "/" + OrderAdminServiceName + "/CancelOrder"
)

type OrderAdminServer interface {
	GetOrder(ctx context.Context, req *wrapperspb.UInt64Value) (*structpb.Struct, error)
	ListOrders(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeliverOrder(ctx context.Context, req *wrapperspb.UInt64Value) (*structpb.Struct, error)
	CancelOrder(ctx context.Context, req *wrapperspb.UInt64Value) (*structpb.Struct, error)
}

func byID(method string, call func(OrderAdminServer, context.Context, *wrapperspb.UInt64Value) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(wrapperspb.UInt64Value)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(OrderAdminServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(OrderAdminServer), ctx, req.(*wrapperspb.UInt64Value))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func listHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderAdminServer).ListOrders(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodListOrders}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(OrderAdminServer).ListOrders(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var OrderAdminServiceDesc = grpc.ServiceDesc{
	ServiceName: OrderAdminServiceName,
	HandlerType: (*OrderAdminServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetOrder", Handler: byID(methodGetOrder, OrderAdminServer.GetOrder)},
		{MethodName: "ListOrders", Handler: listHandler},
		{MethodName: "DeliverOrder", Handler: byID(methodDeliverOrder, OrderAdminServer.DeliverOrder)},
		{MethodName: "CancelOrder", Handler: byID(methodCancelOrder, OrderAdminServer.CancelOrder)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shopdesk/order/v1/order_admin.proto",
}

func RegisterOrderAdminServer(s grpc.ServiceRegistrar, srv OrderAdminServer) {
	s.RegisterService(&OrderAdminServiceDesc, srv)
}
