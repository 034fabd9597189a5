package grpc

import (
	"context"

	"github.com/dmitrijs2005/facelock/internal/api"
	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/dmitrijs2005/facelock/internal/server/auth"
	"github.com/dmitrijs2005/facelock/internal/server/messages"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// methods callable without an access token
var publicMethods = map[string]bool{
	api.MethodPing: true,
}

// authenticate resolves the caller from the access_token metadata and puts
// the identity and preferred locale into ctx.
func (s *GRPCServer) authenticate(ctx context.Context, method string) (context.Context, error) {
	md, _ := metadata.FromIncomingContext(ctx)

	if values := md.Get("accept-language"); len(values) > 0 {
		ctx = messages.WithLocale(ctx, values[0])
	}

	if publicMethods[method] {
		return ctx, nil
	}

	var accessToken string
	if values := md.Get(common.AccessTokenHeaderName); len(values) > 0 {
		accessToken = values[0]
	}
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	id, err := auth.ParseToken(accessToken, s.jwtSecret)
	if err != nil {
		if err == common.ErrTokenExpired {
			return nil, status.Error(codes.Unauthenticated, "token expired")
		}
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	return auth.WithIdentity(ctx, id), nil
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	ctx, err := s.authenticate(ctx, info.FullMethod)
	if err != nil {
		s.logger.Warn(context.Background(), "rejected call", "method", info.FullMethod, "error", err)
		return nil, err
	}
	return handler(ctx, req)
}

type authedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (a *authedStream) Context() context.Context { return a.ctx }

func (s *GRPCServer) streamAccessTokenInterceptor(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	ctx, err := s.authenticate(ss.Context(), info.FullMethod)
	if err != nil {
		s.logger.Warn(context.Background(), "rejected stream", "method", info.FullMethod, "error", err)
		return err
	}
	return handler(srv, &authedStream{ServerStream: ss, ctx: ctx})
}

func identity(ctx context.Context) (auth.Identity, error) {
	id, ok := auth.FromContext(ctx)
	if !ok {
		return auth.Identity{}, status.Error(codes.Unauthenticated, "missing identity")
	}
	return id, nil
}
