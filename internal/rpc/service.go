package rpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"gatehouse.dev/internal/auth"
	"gatehouse.dev/internal/obs"
)

const (
	tokenServiceName = "gatehouse.auth.v1.TokenService"

	MethodLogin      = "/" + tokenServiceName + "/Login"
	MethodIntrospect = "/" + tokenServiceName + "/Introspect"
	MethodWhoAmI     = "/" + tokenServiceName + "/WhoAmI"
)

// TokenService serves login, introspection and caller identity over gRPC
// using well-known struct messages.
type TokenService interface {
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Introspect(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WhoAmI(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// TokenServer implements TokenService on top of the auth engines.
type TokenServer struct {
	logins   *auth.LoginService
	verifier TokenVerifier
}

func NewTokenServer(logins *auth.LoginService, verifier TokenVerifier) *TokenServer {
	return &TokenServer{logins: logins, verifier: verifier}
}

// Login expects {"login", "password", "client_id"}.
func (s *TokenServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.logins == nil {
		return nil, status.Error(codes.Unavailable, "login service unavailable")
	}
	fields := req.GetFields()
	clientID := fields["client_id"].GetStringValue()
	if clientID == "" {
		return nil, status.Error(codes.InvalidArgument, "client_id is required")
	}
	issued, err := s.logins.Login(ctx, auth.LoginRequest{
		Login:    fields["login"].GetStringValue(),
		Password: fields["password"].GetStringValue(),
		ClientID: clientID,
	})
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrAuthenticationFailed):
		return nil, status.Error(codes.Unauthenticated, auth.ErrAuthenticationFailed.Error())
	case errors.Is(err, auth.ErrAccessDenied):
		return nil, status.Error(codes.PermissionDenied, auth.ErrAccessDenied.Error())
	default:
		obs.Error("grpc login failed", map[string]any{"error": err.Error()})
		return nil, status.Error(codes.Internal, "authentication error")
	}
	return structpb.NewStruct(map[string]any{
		"access_token": issued.Token,
		"token_type":   "Bearer",
		"expires_at":   issued.Payload.ExpiresAt.Unix(),
		"session_id":   issued.Payload.SessionID,
	})
}

// Introspect expects {"token"} and answers {"active": false} for any invalid token.
func (s *TokenServer) Introspect(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	payload, ok := s.verifier.Verify(req.GetFields()["token"].GetStringValue())
	if !ok {
		return structpb.NewStruct(map[string]any{"active": false})
	}
	return claimsStruct(payload)
}

// WhoAmI returns the claims of the caller's bearer token.
func (s *TokenServer) WhoAmI(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	payload, ok := auth.PayloadFromContext(ctx)
	if !ok {
		return nil, errUnauthenticated
	}
	return claimsStruct(payload)
}

func claimsStruct(p auth.TokenPayload) (*structpb.Struct, error) {
	roles := make([]any, 0, len(p.RoleCodes))
	for _, code := range p.RoleCodes {
		roles = append(roles, code)
	}
	out, err := structpb.NewStruct(map[string]any{
		"active":       true,
		"iss":          p.Issuer,
		"sub":          p.Subject,
		"aud":          p.Audience,
		"iat":          p.IssuedAt.Unix(),
		"exp":          p.ExpiresAt.Unix(),
		"jti":          p.TokenID,
		"userId":       int64(p.UserID),
		"username":     p.Username,
		"email":        p.Email,
		"name":         p.DisplayName,
		"master":       p.Master,
		"systemId":     int64(p.SystemID),
		"systemRoles":  roles,
		"authMethod":   p.AuthMethod,
		"sessionId":    p.SessionID,
		"tokenVersion": p.TokenVersion,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return out, nil
}

// RegisterTokenService registers svc on server.
func RegisterTokenService(server grpc.ServiceRegistrar, svc TokenService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: tokenServiceName,
		HandlerType: (*TokenService)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "Login", Handler: unaryHandler(MethodLogin, svc.Login)},
			{MethodName: "Introspect", Handler: unaryHandler(MethodIntrospect, svc.Introspect)},
			{MethodName: "WhoAmI", Handler: unaryHandler(MethodWhoAmI, svc.WhoAmI)},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "gatehouse/auth/v1/token.proto",
	}, svc)
}

func unaryHandler[Req any, PReq interface {
	*Req
}, Resp any](fullMethod string, call func(context.Context, PReq) (Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := PReq(new(Req))
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, req)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(PReq)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return call(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}
