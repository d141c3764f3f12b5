package server

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"entitlement-gate/internal/authz/metrics"
	"entitlement-gate/internal/platform/httputil"
)

// RouteRegistrar is implemented by the HTTP handlers.
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// HTTPDeps holds the handlers mounted on the HTTP router.
type HTTPDeps struct {
	// Routes are the public API handlers (authorize).
	Routes []RouteRegistrar
	// OperatorRoutes are the account inspection handlers (devices, audit). They are mounted
	// behind OperatorAuth, and not at all when OperatorAuth is nil.
	OperatorRoutes []RouteRegistrar
	// OperatorAuth authenticates requests to OperatorRoutes.
	OperatorAuth mux.MiddlewareFunc
	// Health answers GET /healthz. Optional.
	Health http.Handler
	// MetricsHandler answers GET /metrics. Optional.
	MetricsHandler http.Handler
	// Metrics records per-request counters. Optional.
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// NewHTTPRouter builds the gorilla/mux router for the HTTP boundary.
func NewHTTPRouter(deps HTTPDeps) *mux.Router {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	router := mux.NewRouter()
	router.Use(recoverMiddleware(log), instrumentMiddleware(deps.Metrics, log))
	for _, r := range deps.Routes {
		if r != nil {
			r.RegisterRoutes(router)
		}
	}
	if deps.OperatorAuth != nil && len(deps.OperatorRoutes) > 0 {
		operator := router.NewRoute().Subrouter()
		operator.Use(deps.OperatorAuth)
		for _, r := range deps.OperatorRoutes {
			if r != nil {
				r.RegisterRoutes(operator)
			}
		}
	} else if len(deps.OperatorRoutes) > 0 {
		log.Info("http: operator routes disabled, no OPERATOR_JWT_PUBLIC_KEY configured")
	}
	if deps.Health != nil {
		router.Handle("/healthz", deps.Health).Methods(http.MethodGet)
	}
	if deps.MetricsHandler != nil {
		router.Handle("/metrics", deps.MetricsHandler).Methods(http.MethodGet)
	}
	return router
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// instrumentMiddleware records request metrics by route template and writes a debug access log.
func instrumentMiddleware(m *metrics.Metrics, log *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			route := routeTemplate(r)
			elapsed := time.Since(start)
			if m != nil {
				m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
				m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
			}
			log.DebugContext(r.Context(), "http request",
				"method", r.Method, "route", route, "status", sw.status, "duration_ms", elapsed.Milliseconds())
		})
	}
}

// recoverMiddleware turns a handler panic into a 500 and logs the stack.
func recoverMiddleware(log *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.ErrorContext(r.Context(), "http: panic recovered",
						"panic", rec, "path", r.URL.Path, "stack", string(debug.Stack()))
					httputil.WriteErrorMessage(w, http.StatusInternalServerError, "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
