// Package rpc exposes token verification and login over gRPC.
package rpc

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"gatehouse.dev/internal/auth"
)

const authorizationKey = "authorization"

// TokenVerifier is the part of auth.Codec the interceptors need.
type TokenVerifier interface {
	Verify(raw string) (auth.TokenPayload, bool)
}

// errUnauthenticated is the single error for every bearer failure.
var errUnauthenticated = status.Error(codes.Unauthenticated, "invalid or missing bearer token")

// UnaryAuth verifies the bearer token of every call except public methods and
// stores the payload in the handler context.
func UnaryAuth(verifier TokenVerifier, publicMethods ...string) grpc.UnaryServerInterceptor {
	public := methodSet(publicMethods)
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := public[info.FullMethod]; ok {
			return handler(ctx, req)
		}
		ctx, err := authenticate(ctx, verifier)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamAuth is the streaming counterpart of UnaryAuth.
func StreamAuth(verifier TokenVerifier, publicMethods ...string) grpc.StreamServerInterceptor {
	public := methodSet(publicMethods)
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if _, ok := public[info.FullMethod]; ok {
			return handler(srv, ss)
		}
		ctx, err := authenticate(ss.Context(), verifier)
		if err != nil {
			return err
		}
		return handler(srv, &authenticatedStream{ServerStream: ss, ctx: ctx})
	}
}

type authenticatedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authenticatedStream) Context() context.Context { return s.ctx }

func authenticate(ctx context.Context, verifier TokenVerifier) (context.Context, error) {
	token, ok := bearerFromMetadata(ctx)
	if !ok {
		return nil, errUnauthenticated
	}
	payload, ok := verifier.Verify(token)
	if !ok {
		return nil, errUnauthenticated
	}
	ctx = auth.ContextWithPayload(ctx, payload)
	return auth.ContextWithToken(ctx, token), nil
}

func bearerFromMetadata(ctx context.Context) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}
	for _, value := range md.Get(authorizationKey) {
		scheme, token, found := strings.Cut(strings.TrimSpace(value), " ")
		if found && strings.EqualFold(scheme, "bearer") {
			if token = strings.TrimSpace(token); token != "" {
				return token, true
			}
		}
	}
	return "", false
}

func methodSet(methods []string) map[string]struct{} {
	set := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		set[m] = struct{}{}
	}
	return set
}
