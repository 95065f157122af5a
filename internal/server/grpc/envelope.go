package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The envelope service carries one opaque request and one opaque response
// per call. The bytes are the wire package's envelopes; gRPC supplies the
// framing and the concurrency.
const (
	EnvelopeServiceName = "wxstore.v1.Envelope"
	ExchangeFullMethod  = "/wxstore.v1.Envelope/Exchange"
)

// EnvelopeServer is implemented by the request server.
type EnvelopeServer interface {
	Exchange(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
}

// RegisterEnvelopeServer registers srv on s.
func RegisterEnvelopeServer(s grpc.ServiceRegistrar, srv EnvelopeServer) {
	s.RegisterService(&EnvelopeServiceDesc, srv)
}

func exchangeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EnvelopeServer).Exchange(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ExchangeFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(EnvelopeServer).Exchange(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

// EnvelopeServiceDesc describes the envelope service.
var EnvelopeServiceDesc = grpc.ServiceDesc{
	ServiceName: EnvelopeServiceName,
	HandlerType: (*EnvelopeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Exchange", Handler: exchangeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "wxstore/v1/envelope.proto",
}

// EnvelopeClient is the client side of the envelope service.
type EnvelopeClient interface {
	Exchange(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
}

type envelopeClient struct {
	cc grpc.ClientConnInterface
}

// NewEnvelopeClient returns a client bound to cc.
func NewEnvelopeClient(cc grpc.ClientConnInterface) EnvelopeClient {
	return &envelopeClient{cc: cc}
}

func (c *envelopeClient) Exchange(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, ExchangeFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
