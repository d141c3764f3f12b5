package interceptors

import (
	"context"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"entitlement-gate/internal/telemetry"
	"entitlement-gate/internal/telemetry/domain"
)

// EventGRPCRequest is emitted once per RPC by TelemetryUnary.
const EventGRPCRequest = "grpc_request"

// TelemetryUnary returns a unary server interceptor that tags the context with the grpc transport
// and emits a telemetry event after each RPC. Best-effort: failures are logged and do not fail the RPC.
// If emitter is nil only the transport tag is applied. skipMethods is the set of full method names
// to not emit (e.g. health checks).
func TelemetryUnary(emitter telemetry.EventEmitter, skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		ctx = WithTransport(ctx, TransportGRPC)
		start := time.Now()
		resp, err := handler(ctx, req)
		if emitter == nil || skipMethods[info.FullMethod] {
			return resp, err
		}
		telemetry.EmitAsync(emitter, ctx, &domain.Event{
			EventType: EventGRPCRequest,
			Source:    "grpc_interceptor",
			Attrs: map[string]string{
				"full_method": info.FullMethod,
				"status_code": status.Code(err).String(),
				"duration_ms": strconv.FormatInt(time.Since(start).Milliseconds(), 10),
				"client_ip":   ClientIP(ctx),
			},
			CreatedAt: time.Now().UTC(),
		})
		return resp, err
	}
}
