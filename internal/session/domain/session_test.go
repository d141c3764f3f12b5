package domain

import (
	"reflect"
	"testing"
	"time"
)

func TestSession_ActiveAt(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	testCases := []struct {
		name    string
		session *Session
		want    bool
	}{
		{"nil", nil, false},
		{"expires later", &Session{ExpiresAt: now.Add(time.Second)}, true},
		{"expires now", &Session{ExpiresAt: now}, false},
		{"expired", &Session{ExpiresAt: now.Add(-time.Second)}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.session.ActiveAt(now); got != tc.want {
				t.Errorf("ActiveAt = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIDs(t *testing.T) {
	got := IDs([]*Session{{ID: "a"}, nil, {ID: "b"}})
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("IDs = %v, want [a b]", got)
	}
	if got := IDs(nil); len(got) != 0 {
		t.Errorf("IDs(nil) = %v, want empty", got)
	}
}
