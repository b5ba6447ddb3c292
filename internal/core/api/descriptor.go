package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "promokeeper.v1.PromoAPI"

// Full method names, used by interceptors and clients.
const (
	EvaluateRuleMethod   = "/" + ServiceName + "/EvaluateRule"
	EvaluateCouponMethod = "/" + ServiceName + "/EvaluateCoupon"
	PutCouponMethod      = "/" + ServiceName + "/PutCoupon"
	ListCouponsMethod    = "/" + ServiceName + "/ListCoupons"
)

// PromoAPIServer is the server API for the PromoAPI service.
// Requests and responses are google.protobuf.Struct documents.
type PromoAPIServer interface {
	EvaluateRule(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EvaluateCoupon(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PutCoupon(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCoupons(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(PromoAPIServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// unaryHandler adapts a PromoAPIServer method to grpc.MethodHandler.
func unaryHandler(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PromoAPIServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(PromoAPIServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// PromoAPIServiceDesc describes the PromoAPI service for grpc.Server.RegisterService.
var PromoAPIServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PromoAPIServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "EvaluateRule",
			Handler:    unaryHandler(EvaluateRuleMethod, PromoAPIServer.EvaluateRule),
		},
		{
			MethodName: "EvaluateCoupon",
			Handler:    unaryHandler(EvaluateCouponMethod, PromoAPIServer.EvaluateCoupon),
		},
		{
			MethodName: "PutCoupon",
			Handler:    unaryHandler(PutCouponMethod, PromoAPIServer.PutCoupon),
		},
		{
			MethodName: "ListCoupons",
			Handler:    unaryHandler(ListCouponsMethod, PromoAPIServer.ListCoupons),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "promokeeper/v1/promo_api.proto",
}

// RegisterPromoAPIServer registers srv on s.
func RegisterPromoAPIServer(s grpc.ServiceRegistrar, srv PromoAPIServer) {
	s.RegisterService(&PromoAPIServiceDesc, srv)
}

// PromoAPIClient is the client API for the PromoAPI service.
type PromoAPIClient struct {
	cc grpc.ClientConnInterface
}

// NewPromoAPIClient returns a client bound to cc.
func NewPromoAPIClient(cc grpc.ClientConnInterface) *PromoAPIClient {
	return &PromoAPIClient{cc: cc}
}

func (c *PromoAPIClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// EvaluateRule evaluates an ad-hoc rule string.
func (c *PromoAPIClient) EvaluateRule(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, EvaluateRuleMethod, in, opts...)
}

// EvaluateCoupon evaluates the rule stored for a coupon code.
func (c *PromoAPIClient) EvaluateCoupon(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, EvaluateCouponMethod, in, opts...)
}

// PutCoupon adds a coupon to the catalog.
func (c *PromoAPIClient) PutCoupon(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, PutCouponMethod, in, opts...)
}

// ListCoupons lists the storefront's coupons.
func (c *PromoAPIClient) ListCoupons(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ListCouponsMethod, in, opts...)
}
