package rpc

import (
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"gatehouse.dev/internal/auth"
)

// PublicMethods are served without a bearer token.
var PublicMethods = []string{
	healthpb.Health_Check_FullMethodName,
	healthpb.Health_Watch_FullMethodName,
	MethodLogin,
	MethodIntrospect,
}

// NewServer builds a gRPC server with bearer authentication, the token
// service and the health service.
func NewServer(logins *auth.LoginService, codec *auth.Codec, reporter *HealthReporter, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts,
		grpc.ChainUnaryInterceptor(UnaryAuth(codec, PublicMethods...)),
		grpc.ChainStreamInterceptor(StreamAuth(codec, PublicMethods...)),
	)
	server := grpc.NewServer(opts...)
	RegisterTokenService(server, NewTokenServer(logins, codec))
	if reporter != nil {
		healthpb.RegisterHealthServer(server, reporter.Server())
	}
	return server
}
