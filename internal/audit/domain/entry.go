package domain

import "time"

// Entry is one persisted authorization decision.
type Entry struct {
	ID        string
	AccountID string
	DeviceID  string
	Outcome   string // allowed, denied, error, bypassed
	Reason    string // internal deny reason or error text; never returned to callers of the boundary
	Transport string // grpc, http
	IP        string
	SessionID string
	CreatedAt time.Time
}
