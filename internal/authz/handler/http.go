// Package handler exposes the authorization gate over HTTP and gRPC.
// Both transports answer with a bare boolean and never surface errors.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"entitlement-gate/internal/platform/httputil"
	"entitlement-gate/internal/server/interceptors"
)

// Checker is the gate call used by the transports. *gate.Gate implements it.
type Checker interface {
	Check(ctx context.Context, rawAccountID, rawDeviceID any) bool
}

// AuthorizeRequest is the JSON body of POST /api/authorize.
// Fields are untyped so that a non-string id reaches the gate and is rejected there.
type AuthorizeRequest struct {
	AccountID any `json:"accountId" validate:"required"`
	DeviceID  any `json:"deviceId" validate:"required"`
}

// AuthorizeResponse is the JSON body returned by POST /api/authorize.
type AuthorizeResponse struct {
	Authorized bool `json:"authorized"`
}

// HTTPHandler serves the authorization boundary over HTTP.
type HTTPHandler struct {
	gate Checker
}

// NewHTTPHandler returns an HTTPHandler over gate.
func NewHTTPHandler(gate Checker) *HTTPHandler {
	return &HTTPHandler{gate: gate}
}

// RegisterRoutes registers the authorization route on router.
func (h *HTTPHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/authorize", h.authorize).Methods(http.MethodPost)
}

func (h *HTTPHandler) authorize(w http.ResponseWriter, r *http.Request) {
	ctx := interceptors.WithTransport(r.Context(), interceptors.TransportHTTP)
	ctx = interceptors.WithClientIP(ctx, interceptors.HTTPClientIP(r))

	var req AuthorizeRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		slog.DebugContext(ctx, "authorize: decode body", "error", err)
		req = AuthorizeRequest{}
	} else if err := httputil.Validate(req); err != nil {
		slog.DebugContext(ctx, "authorize: invalid body", "error", httputil.FormatValidationErrors(err))
	}
	// Invalid bodies still reach the gate: bypass is decided there first, and rejects are logged and audited as invalid input.
	allowed := h.gate.Check(ctx, req.AccountID, req.DeviceID)
	httputil.WriteJSON(w, http.StatusOK, AuthorizeResponse{Authorized: allowed})
}
