package handler

import (
	"context"
	"sync"

	"entitlement-gate/internal/server/interceptors"
)

type checkCall struct {
	accountID any
	deviceID  any
	transport string
	clientIP  string
}

// fakeChecker records every call and answers allow.
type fakeChecker struct {
	mu    sync.Mutex
	calls []checkCall
	allow bool
}

func (f *fakeChecker) Check(ctx context.Context, accountID, deviceID any) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, checkCall{
		accountID: accountID,
		deviceID:  deviceID,
		transport: interceptors.Transport(ctx),
		clientIP:  interceptors.ClientIP(ctx),
	})
	return f.allow
}

func (f *fakeChecker) last() checkCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return checkCall{}
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeChecker) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
