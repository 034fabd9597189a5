package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/facelock/internal/api"
	"github.com/dmitrijs2005/facelock/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

// faceLockAPI is the subset of *api.FaceLockClient the client uses.
type faceLockAPI interface {
	SendLockedItem(ctx context.Context, in *api.SendLockedItemRequest, opts ...grpc.CallOption) (*api.SendLockedItemResponse, error)
	GetItemPlaceholder(ctx context.Context, in *api.ItemRequest, opts ...grpc.CallOption) (*api.Placeholder, error)
	Unlock(ctx context.Context, in *api.UnlockRequest, opts ...grpc.CallOption) (*api.UnlockResult, error)
	CancelUnlock(ctx context.Context, in *api.ItemRequest, opts ...grpc.CallOption) (*emptypb.Empty, error)
	AssessRisk(ctx context.Context, in *api.AssessRiskRequest, opts ...grpc.CallOption) (*api.RiskAssessment, error)
	EnrollFace(ctx context.Context, in *api.EnrollFaceRequest, opts ...grpc.CallOption) (*api.FaceStatus, error)
	FaceStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*api.FaceStatus, error)
	Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*api.PingResponse, error)
	Events(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (api.EventsClient, error)
}

var _ Client = (*GRPCClient)(nil)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      faceLockAPI
	accessToken string
	locale      string
}

func withCallMetadata(ctx context.Context, token, locale string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}
	if locale != "" {
		md.Set("accept-language", locale)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	return invoker(withCallMetadata(ctx, s.accessToken, s.locale), method, req, reply, cc, opts...)
}

func (s *GRPCClient) streamAccessTokenInterceptor(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	return streamer(withCallMetadata(ctx, s.accessToken, s.locale), desc, cc, method, opts...)
}

func NewFaceLockClientService(endpointURL, accessToken, locale string) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, accessToken: accessToken, locale: locale}
	err := c.InitGRPCClient()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {

	conn, err := grpc.NewClient(s.endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
		grpc.WithStreamInterceptor(s.streamAccessTokenInterceptor),
	)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = api.NewFaceLockClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	_, err := s.client.Ping(ctx, &emptypb.Empty{})
	return s.mapError(err)
}

func (s *GRPCClient) SendMessage(ctx context.Context, recipientID, text string) (string, error) {
	resp, err := s.client.SendLockedItem(ctx, &api.SendLockedItemRequest{
		RecipientID: recipientID,
		Kind:        "message",
		Payload:     text,
	})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.ItemID, nil
}

func (s *GRPCClient) SendFile(ctx context.Context, recipientID, fileName, contentType string, body []byte) (string, error) {
	resp, err := s.client.SendLockedItem(ctx, &api.SendLockedItemRequest{
		RecipientID: recipientID,
		Kind:        "file",
		FileName:    fileName,
		FileContent: body,
		ContentType: contentType,
	})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.ItemID, nil
}

func (s *GRPCClient) Placeholder(ctx context.Context, itemID string) (*api.Placeholder, error) {
	resp, err := s.client.GetItemPlaceholder(ctx, &api.ItemRequest{ItemID: itemID})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) Unlock(ctx context.Context, itemID string, probe []byte) (*api.UnlockResult, error) {
	resp, err := s.client.Unlock(ctx, &api.UnlockRequest{ItemID: itemID, ProbeImage: probe})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) CancelUnlock(ctx context.Context, itemID string) error {
	_, err := s.client.CancelUnlock(ctx, &api.ItemRequest{ItemID: itemID})
	return s.mapError(err)
}

func (s *GRPCClient) AssessRisk(ctx context.Context, req *api.AssessRiskRequest) (*api.RiskAssessment, error) {
	resp, err := s.client.AssessRisk(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) EnrollFace(ctx context.Context, descriptor []float64) (*api.FaceStatus, error) {
	resp, err := s.client.EnrollFace(ctx, &api.EnrollFaceRequest{Descriptor: descriptor})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) FaceStatus(ctx context.Context) (*api.FaceStatus, error) {
	resp, err := s.client.FaceStatus(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

// Watch calls fn for every event until ctx is done, the server ends the
// stream, or fn returns an error.
func (s *GRPCClient) Watch(ctx context.Context, fn func(*api.Event) error) error {
	stream, err := s.client.Events(ctx, &emptypb.Empty{})
	if err != nil {
		return s.mapError(err)
	}

	for {
		ev, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return s.mapError(err)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.PermissionDenied:
		return ErrForbidden
	case codes.NotFound:
		return ErrNotFound
	case codes.FailedPrecondition:
		return ErrNotEnrolled
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidRequest, st.Message())
	case codes.ResourceExhausted:
		return ErrSessionDropped
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
