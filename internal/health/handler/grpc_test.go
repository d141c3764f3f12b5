package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// mockPinger implements Pinger for tests.
type mockPinger struct {
	pingErr error
}

func (m *mockPinger) PingContext(context.Context) error {
	return m.pingErr
}

func TestCheck_NilPinger(t *testing.T) {
	srv := NewServer(nil)
	resp, err := srv.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v, want SERVING", resp.GetStatus())
	}
}

func TestCheck_PingerSuccess(t *testing.T) {
	srv := NewServer(&mockPinger{}, "entitlement.v1.AuthorizationService")
	resp, err := srv.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "entitlement.v1.AuthorizationService"})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v, want SERVING", resp.GetStatus())
	}
}

func TestCheck_PingerFailure(t *testing.T) {
	srv := NewServer(&mockPinger{pingErr: errors.New("connection refused")})
	resp, err := srv.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status = %v, want NOT_SERVING", resp.GetStatus())
	}
}

func TestCheck_UnknownService(t *testing.T) {
	srv := NewServer(nil)
	_, err := srv.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "other.Service"})
	if status.Code(err) != codes.NotFound {
		t.Errorf("code = %v, want NotFound", status.Code(err))
	}
}

func TestList(t *testing.T) {
	srv := NewServer(&mockPinger{pingErr: errors.New("down")}, "svc")
	resp, err := srv.List(context.Background(), &healthpb.HealthListRequest{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(resp.GetStatuses()) != 2 {
		t.Fatalf("len(statuses) = %d, want 2", len(resp.GetStatuses()))
	}
	if got := resp.GetStatuses()["svc"].GetStatus(); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("svc status = %v, want NOT_SERVING", got)
	}
}

func TestServeHTTP(t *testing.T) {
	testCases := []struct {
		name   string
		pinger Pinger
		code   int
		body   string
	}{
		{"memory store", nil, http.StatusOK, "{\"status\":\"SERVING\"}\n"},
		{"db up", &mockPinger{}, http.StatusOK, "{\"status\":\"SERVING\"}\n"},
		{"db down", &mockPinger{pingErr: errors.New("down")}, http.StatusServiceUnavailable, "{\"status\":\"NOT_SERVING\"}\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewServer(tc.pinger).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if rec.Code != tc.code {
				t.Errorf("code = %d, want %d", rec.Code, tc.code)
			}
			if rec.Body.String() != tc.body {
				t.Errorf("body = %q, want %q", rec.Body.String(), tc.body)
			}
		})
	}
}
