package server

import (
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	authzhandler "entitlement-gate/internal/authz/handler"
	healthhandler "entitlement-gate/internal/health/handler"
)

// Deps holds the service dependencies for gRPC handlers.
type Deps struct {
	// Gate answers AuthorizationService/Authorize. Required.
	Gate authzhandler.Checker
	// Health serves grpc.health.v1. If nil, a store-less health server is registered.
	Health *healthhandler.Server
}

// RegisterServices registers all gRPC services with the given server.
//
// Service → handler mapping:
//   - entitlement.v1.AuthorizationService → internal/authz/handler
//   - grpc.health.v1.Health               → internal/health/handler
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	authzhandler.RegisterAuthorizationServer(s, authzhandler.NewGRPCServer(deps.Gate))
	health := deps.Health
	if health == nil {
		health = healthhandler.NewServer(nil, authzhandler.ServiceName)
	}
	healthpb.RegisterHealthServer(s, health)
}
