package interceptors

import "context"

type contextKey struct{ name string }

var (
	transportKey = contextKey{"transport"}
	clientIPKey  = contextKey{"client_ip"}
	operatorKey  = contextKey{"operator"}
)

// Transports recorded on decisions.
const (
	TransportGRPC = "grpc"
	TransportHTTP = "http"
)

// WithTransport returns a context that records which boundary (grpc, http) received the call.
func WithTransport(ctx context.Context, transport string) context.Context {
	return context.WithValue(ctx, transportKey, transport)
}

// Transport returns the transport from context, or "unknown" if not set.
func Transport(ctx context.Context) string {
	if v, ok := ctx.Value(transportKey).(string); ok && v != "" {
		return v
	}
	return "unknown"
}

// WithClientIP returns a context carrying an already resolved client IP (used by the HTTP boundary).
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// WithOperator returns a context carrying the authenticated operator subject.
func WithOperator(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, operatorKey, subject)
}

// Operator returns the operator subject from context.
func Operator(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(operatorKey).(string)
	return v, ok && v != ""
}
