// Package handler serves the read-only device listing for an account.
package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"entitlement-gate/internal/device/domain"
	"entitlement-gate/internal/platform/httputil"
)

// Lister is the repository call the handler needs.
type Lister interface {
	ListByAccount(ctx context.Context, accountID string) ([]*domain.Device, error)
}

// DeviceResponse is the JSON view of a device.
type DeviceResponse struct {
	DeviceID   string    `json:"deviceId"`
	LastUsedAt time.Time `json:"lastUsedAt"`
	IsActive   bool      `json:"isActive"`
}

// ListResponse is returned by GET /api/accounts/{accountID}/devices.
type ListResponse struct {
	AccountID   string           `json:"accountId"`
	Devices     []DeviceResponse `json:"devices"`
	ActiveCount int              `json:"activeCount"`
}

// Handler lists devices. It never mutates the registry.
type Handler struct {
	repo Lister
}

// NewHandler returns a device Handler over repo.
func NewHandler(repo Lister) *Handler {
	return &Handler{repo: repo}
}

// RegisterRoutes registers the device routes on router.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/accounts/{accountID}/devices", h.list).Methods(http.MethodGet)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	accountID := strings.TrimSpace(mux.Vars(r)["accountID"])
	if accountID == "" {
		httputil.WriteBadRequest(w, "accountID is required")
		return
	}
	devices, err := h.repo.ListByAccount(r.Context(), accountID)
	if err != nil {
		httputil.WriteInternalError(w, r, err)
		return
	}
	resp := ListResponse{AccountID: accountID, Devices: make([]DeviceResponse, 0, len(devices))}
	for _, d := range devices {
		if d == nil {
			continue
		}
		resp.Devices = append(resp.Devices, DeviceResponse{
			DeviceID:   d.DeviceID,
			LastUsedAt: d.LastUsedAt.UTC(),
			IsActive:   d.IsActive,
		})
	}
	resp.ActiveCount = len(domain.ActiveOnly(devices))
	httputil.WriteJSON(w, http.StatusOK, resp)
}
