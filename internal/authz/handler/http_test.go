package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entitlement-gate/internal/server/interceptors"
)

func serveAuthorize(t *testing.T, checker *fakeChecker, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := mux.NewRouter()
	NewHTTPHandler(checker).RegisterRoutes(router)
	req := httptest.NewRequest(method, "/api/authorize", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthorize_PassesIdentifiersToGate(t *testing.T) {
	checker := &fakeChecker{allow: true}
	rec := serveAuthorize(t, checker, http.MethodPost, `{"accountId":"acc-1","deviceId":"dev-1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"authorized":true}`, rec.Body.String())
	call := checker.last()
	assert.Equal(t, "acc-1", call.accountID)
	assert.Equal(t, "dev-1", call.deviceID)
	assert.Equal(t, interceptors.TransportHTTP, call.transport)
	assert.Equal(t, "203.0.113.7", call.clientIP)
}

func TestAuthorize_DeniedIsStillOK(t *testing.T) {
	checker := &fakeChecker{allow: false}
	rec := serveAuthorize(t, checker, http.MethodPost, `{"accountId":"acc-1","deviceId":"dev-1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"authorized":false}`, rec.Body.String())
}

func TestAuthorize_MalformedBodies(t *testing.T) {
	testCases := []struct {
		name      string
		body      string
		accountID any
		deviceID  any
	}{
		{"not json", `{nope`, nil, nil},
		{"empty body", ``, nil, nil},
		{"missing device", `{"accountId":"acc-1"}`, "acc-1", nil},
		{"numeric account", `{"accountId":42,"deviceId":"dev-1"}`, float64(42), "dev-1"},
		{"empty strings", `{"accountId":"","deviceId":""}`, "", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			checker := &fakeChecker{allow: false}
			rec := serveAuthorize(t, checker, http.MethodPost, tc.body)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"authorized":false}`, rec.Body.String())
			require.Equal(t, 1, checker.count())
			assert.Equal(t, tc.accountID, checker.last().accountID)
			assert.Equal(t, tc.deviceID, checker.last().deviceID)
		})
	}
}

func TestAuthorize_BypassAnswersTrueForEmptyBody(t *testing.T) {
	// A bypassing gate allows even an unreadable body.
	checker := &fakeChecker{allow: true}
	rec := serveAuthorize(t, checker, http.MethodPost, `garbage`)

	assert.JSONEq(t, `{"authorized":true}`, rec.Body.String())
}

func TestAuthorize_MethodNotAllowed(t *testing.T) {
	checker := &fakeChecker{allow: true}
	rec := serveAuthorize(t, checker, http.MethodGet, ``)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, 0, checker.count())
}
