package domain

import "time"

// Session is one logical login of an account on a device. A session is
// expired by moving ExpiresAt back to the rotation time; it is never deleted.
type Session struct {
	ID        string
	AccountID string
	DeviceID  string
	StartedAt time.Time
	ExpiresAt time.Time
}

// ActiveAt reports whether the session has not expired at now.
func (s *Session) ActiveAt(now time.Time) bool {
	return s != nil && s.ExpiresAt.After(now)
}

// IDs returns the session ids in order.
func IDs(sessions []*Session) []string {
	out := make([]string, 0, len(sessions))
	for _, s := range sessions {
		if s != nil {
			out = append(out, s.ID)
		}
	}
	return out
}
