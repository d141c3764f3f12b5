package domain

import "time"

// Account is the billing entitlement of a tenant. It is owned by the billing
// integration; the authorization engine only reads it.
type Account struct {
	ID                    string
	IsPremium             bool
	SubscriptionExpiresAt *time.Time // nil means no fixed end
}

// IsPaid reports whether the account is premium and its subscription has not
// ended at now. An expiry equal to now counts as ended.
func (a *Account) IsPaid(now time.Time) bool {
	if a == nil || !a.IsPremium {
		return false
	}
	if a.SubscriptionExpiresAt != nil && !a.SubscriptionExpiresAt.After(now) {
		return false
	}
	return true
}
