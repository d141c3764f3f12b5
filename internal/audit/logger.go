// Package audit records every authorization decision with its caller address.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"entitlement-gate/internal/audit/domain"
	auditrepo "entitlement-gate/internal/audit/repository"
)

// IPExtractor returns the client IP from the request context (e.g. gRPC metadata or peer).
type IPExtractor func(context.Context) string

// Decision is what the boundary knows about one authorization call.
type Decision struct {
	AccountID string
	DeviceID  string
	Outcome   string
	Reason    string
	Transport string
	SessionID string
}

// DecisionLogger writes a single decision. Best-effort: failures are logged and do not affect the caller.
type DecisionLogger interface {
	LogDecision(ctx context.Context, d Decision)
}

// Logger implements DecisionLogger using the audit repository and an optional IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
	onFailure   func()
	now         func() time.Time
}

// NewLogger returns a DecisionLogger that persists to repo and uses ipExtractor for client IP.
// ipExtractor may be nil; then IP is recorded as "unknown". onFailure, if set, runs after a failed write.
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor, onFailure func()) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor, onFailure: onFailure, now: time.Now}
}

// LogDecision writes one audit entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogDecision(ctx context.Context, d Decision) {
	if l == nil || l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		if v := l.ipExtractor(ctx); v != "" {
			ip = v
		}
	}
	entry := &domain.Entry{
		ID:        uuid.New().String(),
		AccountID: d.AccountID,
		DeviceID:  d.DeviceID,
		Outcome:   d.Outcome,
		Reason:    d.Reason,
		Transport: d.Transport,
		IP:        ip,
		SessionID: d.SessionID,
		CreatedAt: l.now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		slog.WarnContext(ctx, "audit: failed to record decision",
			"account_id", d.AccountID, "outcome", d.Outcome, "error", err)
		if l.onFailure != nil {
			l.onFailure()
		}
	}
}
