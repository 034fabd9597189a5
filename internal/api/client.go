package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

// FaceLockClient calls FaceLockService over a connection using the JSON codec.
type FaceLockClient struct {
	cc grpc.ClientConnInterface
}

func NewFaceLockClient(cc grpc.ClientConnInterface) *FaceLockClient {
	return &FaceLockClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *FaceLockClient) SendLockedItem(ctx context.Context, in *SendLockedItemRequest, opts ...grpc.CallOption) (*SendLockedItemResponse, error) {
	return invoke[SendLockedItemResponse](ctx, c.cc, MethodSendLockedItem, in, opts)
}

func (c *FaceLockClient) GetItemPlaceholder(ctx context.Context, in *ItemRequest, opts ...grpc.CallOption) (*Placeholder, error) {
	return invoke[Placeholder](ctx, c.cc, MethodGetItemPlaceholder, in, opts)
}

func (c *FaceLockClient) Unlock(ctx context.Context, in *UnlockRequest, opts ...grpc.CallOption) (*UnlockResult, error) {
	return invoke[UnlockResult](ctx, c.cc, MethodUnlock, in, opts)
}

func (c *FaceLockClient) CancelUnlock(ctx context.Context, in *ItemRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, MethodCancelUnlock, in, opts)
}

func (c *FaceLockClient) AssessRisk(ctx context.Context, in *AssessRiskRequest, opts ...grpc.CallOption) (*RiskAssessment, error) {
	return invoke[RiskAssessment](ctx, c.cc, MethodAssessRisk, in, opts)
}

func (c *FaceLockClient) EnrollFace(ctx context.Context, in *EnrollFaceRequest, opts ...grpc.CallOption) (*FaceStatus, error) {
	return invoke[FaceStatus](ctx, c.cc, MethodEnrollFace, in, opts)
}

func (c *FaceLockClient) FaceStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*FaceStatus, error) {
	return invoke[FaceStatus](ctx, c.cc, MethodFaceStatus, in, opts)
}

func (c *FaceLockClient) Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, in, opts)
}

// EventsClient receives events until the server ends the stream.
type EventsClient interface {
	Recv() (*Event, error)
	grpc.ClientStream
}

type eventsClient struct {
	grpc.ClientStream
}

func (c *eventsClient) Recv() (*Event, error) {
	ev := new(Event)
	if err := c.ClientStream.RecvMsg(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func (c *FaceLockClient) Events(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (EventsClient, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], MethodEvents, opts...)
	if err != nil {
		return nil, err
	}
	x := &eventsClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
