package domain

import "time"

// Event types emitted by the authorization path.
const (
	EventAuthzAllowed               = "authz.allowed"
	EventAuthzDenied                = "authz.denied"
	EventAuthzError                 = "authz.error"
	EventAuthzBypassed              = "authz.bypassed"
	EventDeviceEvicted              = "device.evicted"
	EventDeviceReactivatedOverLimit = "device.reactivated_over_capacity"
)

// Event is a best-effort decision or lifecycle event (account-scoped, optional device/session).
type Event struct {
	EventType string            `json:"event_type"`
	AccountID string            `json:"account_id"`
	DeviceID  string            `json:"device_id,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	Source    string            `json:"source,omitempty"`
	Attrs     map[string]string `json:"attrs,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
