package api

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

const ServiceName = "facelock.v1.FaceLockService"

// Full method names.
const (
	MethodSendLockedItem     = "/" + ServiceName + "/SendLockedItem"
	MethodGetItemPlaceholder = "/" + ServiceName + "/GetItemPlaceholder"
	MethodUnlock             = "/" + ServiceName + "/Unlock"
	MethodCancelUnlock       = "/" + ServiceName + "/CancelUnlock"
	MethodAssessRisk         = "/" + ServiceName + "/AssessRisk"
	MethodEnrollFace         = "/" + ServiceName + "/EnrollFace"
	MethodFaceStatus         = "/" + ServiceName + "/FaceStatus"
	MethodPing               = "/" + ServiceName + "/Ping"
	MethodEvents             = "/" + ServiceName + "/Events"
)

// FaceLockServer is implemented by the gRPC transport.
type FaceLockServer interface {
	SendLockedItem(context.Context, *SendLockedItemRequest) (*SendLockedItemResponse, error)
	GetItemPlaceholder(context.Context, *ItemRequest) (*Placeholder, error)
	Unlock(context.Context, *UnlockRequest) (*UnlockResult, error)
	CancelUnlock(context.Context, *ItemRequest) (*emptypb.Empty, error)
	AssessRisk(context.Context, *AssessRiskRequest) (*RiskAssessment, error)
	EnrollFace(context.Context, *EnrollFaceRequest) (*FaceStatus, error)
	FaceStatus(context.Context, *emptypb.Empty) (*FaceStatus, error)
	Ping(context.Context, *emptypb.Empty) (*PingResponse, error)
	Events(*emptypb.Empty, EventsServer) error
}

// EventsServer is the server side of the Events stream.
type EventsServer interface {
	Send(*Event) error
	grpc.ServerStream
}

type eventsServer struct {
	grpc.ServerStream
}

func (s *eventsServer) Send(ev *Event) error {
	return s.ServerStream.SendMsg(ev)
}

// unary adapts a typed method to grpc.MethodHandler. The request is taken
// as raw JSON and checked against its schema before the interceptor chain
// sees it, so schema violations surface as InvalidArgument.
func unary[Req any, Resp any](method string, call func(FaceLockServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		var raw json.RawMessage
		if err := dec(&raw); err != nil {
			return nil, err
		}
		in := new(Req)
		if err := Decode(raw, in); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		if interceptor == nil {
			return call(srv.(FaceLockServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(FaceLockServer), ctx, req.(*Req))
		})
	}
}

func eventsHandler(srv any, stream grpc.ServerStream) error {
	var raw json.RawMessage
	if err := stream.RecvMsg(&raw); err != nil {
		return err
	}
	in := new(emptypb.Empty)
	if err := Decode(raw, in); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return srv.(FaceLockServer).Events(in, &eventsServer{stream})
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FaceLockServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SendLockedItem", Handler: unary(MethodSendLockedItem, FaceLockServer.SendLockedItem)},
		{MethodName: "GetItemPlaceholder", Handler: unary(MethodGetItemPlaceholder, FaceLockServer.GetItemPlaceholder)},
		{MethodName: "Unlock", Handler: unary(MethodUnlock, FaceLockServer.Unlock)},
		{MethodName: "CancelUnlock", Handler: unary(MethodCancelUnlock, FaceLockServer.CancelUnlock)},
		{MethodName: "AssessRisk", Handler: unary(MethodAssessRisk, FaceLockServer.AssessRisk)},
		{MethodName: "EnrollFace", Handler: unary(MethodEnrollFace, FaceLockServer.EnrollFace)},
		{MethodName: "FaceStatus", Handler: unary(MethodFaceStatus, FaceLockServer.FaceStatus)},
		{MethodName: "Ping", Handler: unary(MethodPing, FaceLockServer.Ping)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Events", Handler: eventsHandler, ServerStreams: true},
	},
	Metadata: "facelock/v1/facelock.proto",
}

func RegisterFaceLockServer(s grpc.ServiceRegistrar, srv FaceLockServer) {
	s.RegisterService(&ServiceDesc, srv)
}
