package wire

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	PeerExchange_Advertise_FullMethodName = "/tuplespace.v1.PeerExchange/Advertise"
	PeerExchange_Digest_FullMethodName    = "/tuplespace.v1.PeerExchange/Digest"
	PeerExchange_Missing_FullMethodName   = "/tuplespace.v1.PeerExchange/Missing"
	PeerExchange_Fetch_FullMethodName     = "/tuplespace.v1.PeerExchange/Fetch"
	PeerExchange_Deliver_FullMethodName   = "/tuplespace.v1.PeerExchange/Deliver"

	TupleSpace_Out_FullMethodName    = "/tuplespace.v1.TupleSpace/Out"
	TupleSpace_In_FullMethodName     = "/tuplespace.v1.TupleSpace/In"
	TupleSpace_Read_FullMethodName   = "/tuplespace.v1.TupleSpace/Read"
	TupleSpace_Health_FullMethodName = "/tuplespace.v1.TupleSpace/Health"
)

// PeerExchangeClient is the client API for the reconciliation service.
type PeerExchangeClient interface {
	Advertise(ctx context.Context, in *HostRequest, opts ...grpc.CallOption) (*IDList, error)
	Digest(ctx context.Context, in *HostRequest, opts ...grpc.CallOption) (*DigestResponse, error)
	Missing(ctx context.Context, in *IDList, opts ...grpc.CallOption) (*IDList, error)
	Fetch(ctx context.Context, in *IDList, opts ...grpc.CallOption) (*MessageList, error)
	Deliver(ctx context.Context, in *MessageList, opts ...grpc.CallOption) (*DeliverResponse, error)
}

type peerExchangeClient struct {
	cc grpc.ClientConnInterface
}

// NewPeerExchangeClient returns a client using cc.
func NewPeerExchangeClient(cc grpc.ClientConnInterface) PeerExchangeClient {
	return &peerExchangeClient{cc}
}

func (c *peerExchangeClient) Advertise(ctx context.Context, in *HostRequest, opts ...grpc.CallOption) (*IDList, error) {
	out := new(IDList)
	if err := c.cc.Invoke(ctx, PeerExchange_Advertise_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *peerExchangeClient) Digest(ctx context.Context, in *HostRequest, opts ...grpc.CallOption) (*DigestResponse, error) {
	out := new(DigestResponse)
	if err := c.cc.Invoke(ctx, PeerExchange_Digest_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *peerExchangeClient) Missing(ctx context.Context, in *IDList, opts ...grpc.CallOption) (*IDList, error) {
	out := new(IDList)
	if err := c.cc.Invoke(ctx, PeerExchange_Missing_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *peerExchangeClient) Fetch(ctx context.Context, in *IDList, opts ...grpc.CallOption) (*MessageList, error) {
	out := new(MessageList)
	if err := c.cc.Invoke(ctx, PeerExchange_Fetch_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *peerExchangeClient) Deliver(ctx context.Context, in *MessageList, opts ...grpc.CallOption) (*DeliverResponse, error) {
	out := new(DeliverResponse)
	if err := c.cc.Invoke(ctx, PeerExchange_Deliver_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// PeerExchangeServer is the server API for the reconciliation service.
type PeerExchangeServer interface {
	Advertise(context.Context, *HostRequest) (*IDList, error)
	Digest(context.Context, *HostRequest) (*DigestResponse, error)
	Missing(context.Context, *IDList) (*IDList, error)
	Fetch(context.Context, *IDList) (*MessageList, error)
	Deliver(context.Context, *MessageList) (*DeliverResponse, error)
}

// UnimplementedPeerExchangeServer answers every call with Unimplemented.
type UnimplementedPeerExchangeServer struct{}

func (UnimplementedPeerExchangeServer) Advertise(context.Context, *HostRequest) (*IDList, error) {
	return nil, status.Error(codes.Unimplemented, "method Advertise not implemented")
}
func (UnimplementedPeerExchangeServer) Digest(context.Context, *HostRequest) (*DigestResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Digest not implemented")
}
func (UnimplementedPeerExchangeServer) Missing(context.Context, *IDList) (*IDList, error) {
	return nil, status.Error(codes.Unimplemented, "method Missing not implemented")
}
func (UnimplementedPeerExchangeServer) Fetch(context.Context, *IDList) (*MessageList, error) {
	return nil, status.Error(codes.Unimplemented, "method Fetch not implemented")
}
func (UnimplementedPeerExchangeServer) Deliver(context.Context, *MessageList) (*DeliverResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Deliver not implemented")
}

// RegisterPeerExchangeServer registers srv on s.
func RegisterPeerExchangeServer(s grpc.ServiceRegistrar, srv PeerExchangeServer) {
	s.RegisterService(&PeerExchange_ServiceDesc, srv)
}

var PeerExchange_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "tuplespace.v1.PeerExchange",
	HandlerType: (*PeerExchangeServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Advertise",
			Handler: unaryHandler(PeerExchange_Advertise_FullMethodName, func(srv any, ctx context.Context, in *HostRequest) (any, error) {
				return srv.(PeerExchangeServer).Advertise(ctx, in)
			}),
		},
		{
			MethodName: "Digest",
			Handler: unaryHandler(PeerExchange_Digest_FullMethodName, func(srv any, ctx context.Context, in *HostRequest) (any, error) {
				return srv.(PeerExchangeServer).Digest(ctx, in)
			}),
		},
		{
			MethodName: "Missing",
			Handler: unaryHandler(PeerExchange_Missing_FullMethodName, func(srv any, ctx context.Context, in *IDList) (any, error) {
				return srv.(PeerExchangeServer).Missing(ctx, in)
			}),
		},
		{
			MethodName: "Fetch",
			Handler: unaryHandler(PeerExchange_Fetch_FullMethodName, func(srv any, ctx context.Context, in *IDList) (any, error) {
				return srv.(PeerExchangeServer).Fetch(ctx, in)
			}),
		},
		{
			MethodName: "Deliver",
			Handler: unaryHandler(PeerExchange_Deliver_FullMethodName, func(srv any, ctx context.Context, in *MessageList) (any, error) {
				return srv.(PeerExchangeServer).Deliver(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/tuplespace.proto",
}

// TupleSpaceClient is the client API for remote application access.
type TupleSpaceClient interface {
	Out(ctx context.Context, in *OutRequest, opts ...grpc.CallOption) (*OutResponse, error)
	In(ctx context.Context, in *TupleMessage, opts ...grpc.CallOption) (*TupleMessage, error)
	Read(ctx context.Context, in *TupleMessage, opts ...grpc.CallOption) (*TupleMessage, error)
	Health(ctx context.Context, in *HostRequest, opts ...grpc.CallOption) (*HealthResponse, error)
}

type tupleSpaceClient struct {
	cc grpc.ClientConnInterface
}

// NewTupleSpaceClient returns a client using cc.
func NewTupleSpaceClient(cc grpc.ClientConnInterface) TupleSpaceClient {
	return &tupleSpaceClient{cc}
}

func (c *tupleSpaceClient) Out(ctx context.Context, in *OutRequest, opts ...grpc.CallOption) (*OutResponse, error) {
	out := new(OutResponse)
	if err := c.cc.Invoke(ctx, TupleSpace_Out_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tupleSpaceClient) In(ctx context.Context, in *TupleMessage, opts ...grpc.CallOption) (*TupleMessage, error) {
	out := new(TupleMessage)
	if err := c.cc.Invoke(ctx, TupleSpace_In_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tupleSpaceClient) Read(ctx context.Context, in *TupleMessage, opts ...grpc.CallOption) (*TupleMessage, error) {
	out := new(TupleMessage)
	if err := c.cc.Invoke(ctx, TupleSpace_Read_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tupleSpaceClient) Health(ctx context.Context, in *HostRequest, opts ...grpc.CallOption) (*HealthResponse, error) {
	out := new(HealthResponse)
	if err := c.cc.Invoke(ctx, TupleSpace_Health_FullMethodName, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

// TupleSpaceServer is the server API for remote application access.
type TupleSpaceServer interface {
	Out(context.Context, *OutRequest) (*OutResponse, error)
	In(context.Context, *TupleMessage) (*TupleMessage, error)
	Read(context.Context, *TupleMessage) (*TupleMessage, error)
	Health(context.Context, *HostRequest) (*HealthResponse, error)
}

// UnimplementedTupleSpaceServer answers every call with Unimplemented.
type UnimplementedTupleSpaceServer struct{}

func (UnimplementedTupleSpaceServer) Out(context.Context, *OutRequest) (*OutResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Out not implemented")
}
func (UnimplementedTupleSpaceServer) In(context.Context, *TupleMessage) (*TupleMessage, error) {
	return nil, status.Error(codes.Unimplemented, "method In not implemented")
}
func (UnimplementedTupleSpaceServer) Read(context.Context, *TupleMessage) (*TupleMessage, error) {
	return nil, status.Error(codes.Unimplemented, "method Read not implemented")
}
func (UnimplementedTupleSpaceServer) Health(context.Context, *HostRequest) (*HealthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Health not implemented")
}

// RegisterTupleSpaceServer registers srv on s.
func RegisterTupleSpaceServer(s grpc.ServiceRegistrar, srv TupleSpaceServer) {
	s.RegisterService(&TupleSpace_ServiceDesc, srv)
}

var TupleSpace_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "tuplespace.v1.TupleSpace",
	HandlerType: (*TupleSpaceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Out",
			Handler: unaryHandler(TupleSpace_Out_FullMethodName, func(srv any, ctx context.Context, in *OutRequest) (any, error) {
				return srv.(TupleSpaceServer).Out(ctx, in)
			}),
		},
		{
			MethodName: "In",
			Handler: unaryHandler(TupleSpace_In_FullMethodName, func(srv any, ctx context.Context, in *TupleMessage) (any, error) {
				return srv.(TupleSpaceServer).In(ctx, in)
			}),
		},
		{
			MethodName: "Read",
			Handler: unaryHandler(TupleSpace_Read_FullMethodName, func(srv any, ctx context.Context, in *TupleMessage) (any, error) {
				return srv.(TupleSpaceServer).Read(ctx, in)
			}),
		},
		{
			MethodName: "Health",
			Handler: unaryHandler(TupleSpace_Health_FullMethodName, func(srv any, ctx context.Context, in *HostRequest) (any, error) {
				return srv.(TupleSpaceServer).Health(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/tuplespace.proto",
}

// unaryHandler adapts a typed call to grpc.MethodHandler, running it
// through the server's interceptor when one is installed.
func unaryHandler[Req any](method string, call func(srv any, ctx context.Context, in *Req) (any, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv, ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv, ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
