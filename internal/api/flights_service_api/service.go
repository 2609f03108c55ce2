package flights_service_api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "flightseats.v1.FlightsService"

	listFlightsMethod = "/" + ServiceName + "/ListFlights"
	getFlightMethod   = "/" + ServiceName + "/GetFlight"
	listCitiesMethod  = "/" + ServiceName + "/ListCities"
)

// FlightsServiceServer is the read side of the flight catalogue. Messages
// are protobuf well-known types; field names match the HTTP JSON.
type FlightsServiceServer interface {
	// ListFlights accepts a struct with optional departure, destination and
	// date (YYYY-MM-DD) fields and returns {"flights": [...]}.
	ListFlights(ctx context.Context, filter *structpb.Struct) (*structpb.Struct, error)
	GetFlight(ctx context.Context, id *wrapperspb.Int64Value) (*structpb.Struct, error)
	ListCities(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error)
}

func RegisterFlightsServiceServer(s grpc.ServiceRegistrar, srv FlightsServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FlightsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListFlights", Handler: listFlightsHandler},
		{MethodName: "GetFlight", Handler: getFlightHandler},
		{MethodName: "ListCities", Handler: listCitiesHandler},
	},
	Metadata: "flightseats/v1/flights.proto",
}

func listFlightsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FlightsServiceServer).ListFlights(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listFlightsMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(FlightsServiceServer).ListFlights(ctx, req.(*structpb.Struct))
	})
}

func getFlightHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FlightsServiceServer).GetFlight(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getFlightMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(FlightsServiceServer).GetFlight(ctx, req.(*wrapperspb.Int64Value))
	})
}

func listCitiesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FlightsServiceServer).ListCities(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listCitiesMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(FlightsServiceServer).ListCities(ctx, req.(*emptypb.Empty))
	})
}

// Client calls FlightsService over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) ListFlights(ctx context.Context, filter *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, listFlightsMethod, filter, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetFlight(ctx context.Context, id int64, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getFlightMethod, wrapperspb.Int64(id), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListCities(ctx context.Context, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, listCitiesMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
