// Package handler serves the decision audit trail of an account over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"entitlement-gate/internal/audit/domain"
	"entitlement-gate/internal/platform/httputil"
)

const defaultPageSize = 50

// Lister is the repository call the handler needs.
type Lister interface {
	ListByAccount(ctx context.Context, accountID string, limit, offset int32) ([]*domain.Entry, error)
}

type listQuery struct {
	AccountID string `validate:"required"`
	Limit     int32  `validate:"min=1,max=500"`
	Offset    int32  `validate:"min=0"`
}

// EntryResponse is the JSON view of an audit entry. The deny reason stays internal.
type EntryResponse struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"deviceId"`
	Outcome   string    `json:"outcome"`
	Transport string    `json:"transport"`
	IP        string    `json:"ip"`
	SessionID string    `json:"sessionId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListResponse is returned by GET /api/accounts/{accountID}/audit.
type ListResponse struct {
	AccountID string          `json:"accountId"`
	Entries   []EntryResponse `json:"entries"`
	// NextOffset is set when a full page was returned.
	NextOffset *int `json:"nextOffset,omitempty"`
}

// Handler lists audit entries.
type Handler struct {
	repo Lister
}

// NewHandler returns an audit Handler over repo.
func NewHandler(repo Lister) *Handler {
	return &Handler{repo: repo}
}

// RegisterRoutes registers the audit routes on router.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/accounts/{accountID}/audit", h.list).Methods(http.MethodGet)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := listQuery{
		AccountID: strings.TrimSpace(mux.Vars(r)["accountID"]),
		Limit:     defaultPageSize,
	}
	var msg string
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if q.Limit, msg = parseInt32("limit", raw); msg != "" {
			httputil.WriteBadRequest(w, msg)
			return
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if q.Offset, msg = parseInt32("offset", raw); msg != "" {
			httputil.WriteBadRequest(w, msg)
			return
		}
	}
	if err := httputil.Validate(q); err != nil {
		httputil.WriteBadRequest(w, httputil.FormatValidationErrors(err))
		return
	}

	entries, err := h.repo.ListByAccount(r.Context(), q.AccountID, q.Limit, q.Offset)
	if err != nil {
		httputil.WriteInternalError(w, r, err)
		return
	}
	resp := ListResponse{AccountID: q.AccountID, Entries: make([]EntryResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, EntryResponse{
			ID:        e.ID,
			DeviceID:  e.DeviceID,
			Outcome:   e.Outcome,
			Transport: e.Transport,
			IP:        e.IP,
			SessionID: e.SessionID,
			CreatedAt: e.CreatedAt.UTC(),
		})
	}
	if len(entries) == int(q.Limit) {
		next := int(q.Offset) + int(q.Limit)
		resp.NextOffset = &next
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// parseInt32 parses a query parameter and returns a client-facing message on failure.
func parseInt32(name, raw string) (int32, string) {
	n, err := strconv.ParseInt(raw, 10, 32)
	if errors.Is(err, strconv.ErrRange) {
		return 0, name + " is out of range"
	}
	if err != nil {
		return 0, name + " must be an integer"
	}
	return int32(n), ""
}
