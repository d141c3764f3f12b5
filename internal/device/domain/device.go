package domain

import "time"

// Device is a client installation registered against an account.
// Evicted devices keep their record with IsActive false.
type Device struct {
	DeviceID   string
	AccountID  string
	LastUsedAt time.Time
	IsActive   bool
}

// ActiveOnly returns the devices whose IsActive flag is set, preserving order.
func ActiveOnly(devices []*Device) []*Device {
	out := make([]*Device, 0, len(devices))
	for _, d := range devices {
		if d != nil && d.IsActive {
			out = append(out, d)
		}
	}
	return out
}

// LeastRecentlyUsed returns the device with the smallest LastUsedAt, or nil for an empty slice.
// Ties go to the first device encountered.
func LeastRecentlyUsed(devices []*Device) *Device {
	var oldest *Device
	for _, d := range devices {
		if d == nil {
			continue
		}
		if oldest == nil || d.LastUsedAt.Before(oldest.LastUsedAt) {
			oldest = d
		}
	}
	return oldest
}
