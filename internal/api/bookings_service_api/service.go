package bookings_service_api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "flightseats.v1.BookingsService"

	createBookingMethod    = "/" + ServiceName + "/CreateBooking"
	cancelBookingMethod    = "/" + ServiceName + "/CancelBooking"
	listUserBookingsMethod = "/" + ServiceName + "/ListUserBookings"
)

type BookingsServiceServer interface {
	// CreateBooking takes {"user_id": string, "flight_id": number}.
	CreateBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CancelBooking(ctx context.Context, id *wrapperspb.Int64Value) (*structpb.Struct, error)
	ListUserBookings(ctx context.Context, userID *wrapperspb.StringValue) (*structpb.ListValue, error)
}

func RegisterBookingsServiceServer(s grpc.ServiceRegistrar, srv BookingsServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BookingsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateBooking", Handler: createBookingHandler},
		{MethodName: "CancelBooking", Handler: cancelBookingHandler},
		{MethodName: "ListUserBookings", Handler: listUserBookingsHandler},
	},
	Metadata: "flightseats/v1/bookings.proto",
}

func createBookingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingsServiceServer).CreateBooking(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: createBookingMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(BookingsServiceServer).CreateBooking(ctx, req.(*structpb.Struct))
	})
}

func cancelBookingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingsServiceServer).CancelBooking(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: cancelBookingMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(BookingsServiceServer).CancelBooking(ctx, req.(*wrapperspb.Int64Value))
	})
}

func listUserBookingsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingsServiceServer).ListUserBookings(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listUserBookingsMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(BookingsServiceServer).ListUserBookings(ctx, req.(*wrapperspb.StringValue))
	})
}

// Client calls BookingsService over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) CreateBooking(ctx context.Context, userID string, flightID int64, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]any{"user_id": userID, "flight_id": flightID})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, createBookingMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CancelBooking(ctx context.Context, id int64, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, cancelBookingMethod, wrapperspb.Int64(id), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListUserBookings(ctx context.Context, userID string, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, listUserBookingsMethod, wrapperspb.String(userID), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
