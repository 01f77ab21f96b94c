package rpc

import (
	"context"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"gatehouse.dev/internal/auth"
)

type stubVerifier map[string]auth.TokenPayload

func (s stubVerifier) Verify(raw string) (auth.TokenPayload, bool) {
	p, ok := s[raw]
	return p, ok
}

type stubStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s stubStream) Context() context.Context { return s.ctx }

func incoming(values ...string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(values...))
}

func TestUnaryAuthStoresPayload(t *testing.T) {
	verifier := stubVerifier{"good": {Subject: "42", UserID: 42}}
	interceptor := UnaryAuth(verifier)

	var seen auth.TokenPayload
	handler := func(ctx context.Context, _ any) (any, error) {
		seen, _ = auth.PayloadFromContext(ctx)
		token, _ := auth.TokenFromContext(ctx)
		return token, nil
	}
	got, err := interceptor(incoming("authorization", "bearer good"), nil, &grpc.UnaryServerInfo{FullMethod: MethodWhoAmI}, handler)
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if got != "good" || seen.UserID != 42 {
		t.Fatalf("token %v payload %+v", got, seen)
	}
}

func TestUnaryAuthRejects(t *testing.T) {
	interceptor := UnaryAuth(stubVerifier{"good": {}})
	cases := map[string]context.Context{
		"no metadata":   context.Background(),
		"no header":     incoming("x-other", "1"),
		"empty bearer":  incoming("authorization", "Bearer "),
		"unknown token": incoming("authorization", "Bearer bad"),
	}
	for name, ctx := range cases {
		t.Run(name, func(t *testing.T) {
			called := false
			_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: MethodWhoAmI}, func(context.Context, any) (any, error) {
				called = true
				return nil, nil
			})
			if status.Code(err) != codes.Unauthenticated {
				t.Fatalf("expected Unauthenticated, got %v", err)
			}
			if called {
				t.Fatalf("handler ran without a valid token")
			}
		})
	}
}

func TestUnaryAuthSkipsPublicMethods(t *testing.T) {
	interceptor := UnaryAuth(stubVerifier{}, MethodLogin)
	called := false
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: MethodLogin}, func(context.Context, any) (any, error) {
		called = true
		return nil, nil
	})
	if err != nil || !called {
		t.Fatalf("public method blocked: called=%v err=%v", called, err)
	}
}

func TestStreamAuth(t *testing.T) {
	interceptor := StreamAuth(stubVerifier{"good": {UserID: 7}})
	info := &grpc.StreamServerInfo{FullMethod: "/gatehouse.auth.v1.TokenService/Watch"}

	var seen auth.UserID
	err := interceptor(nil, stubStream{ctx: incoming("authorization", "Bearer good")}, info, func(_ any, ss grpc.ServerStream) error {
		seen, _ = auth.UserIDFromContext(ss.Context())
		return nil
	})
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if seen != 7 {
		t.Fatalf("user id = %d", seen)
	}

	err = interceptor(nil, stubStream{ctx: context.Background()}, info, func(any, grpc.ServerStream) error { return nil })
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}
}
