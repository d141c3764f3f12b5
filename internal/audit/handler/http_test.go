package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entitlement-gate/internal/audit/domain"
	"entitlement-gate/internal/audit/repository"
)

type failingLister struct{}

func (failingLister) ListByAccount(context.Context, string, int32, int32) ([]*domain.Entry, error) {
	return nil, errors.New("db down")
}

func seeded(t *testing.T, n int) *repository.MemoryRepository {
	t.Helper()
	repo := repository.NewMemoryRepository()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		require.NoError(t, repo.Create(context.Background(), &domain.Entry{
			ID:        fmt.Sprintf("e%d", i),
			AccountID: "acc",
			DeviceID:  "dev",
			Outcome:   "allowed",
			Transport: "http",
			IP:        "203.0.113.1",
			CreatedAt: t0.Add(time.Duration(i) * time.Minute),
		}))
	}
	return repo
}

func get(t *testing.T, lister Lister, path string) *httptest.ResponseRecorder {
	t.Helper()
	router := mux.NewRouter()
	NewHandler(lister).RegisterRoutes(router)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestList_NewestFirstWithPaging(t *testing.T) {
	rec := get(t, seeded(t, 5), "/api/accounts/acc/audit?limit=2&offset=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "e3", resp.Entries[0].ID)
	assert.Equal(t, "e2", resp.Entries[1].ID)
	require.NotNil(t, resp.NextOffset)
	assert.Equal(t, 3, *resp.NextOffset)
}

func TestList_LastPageHasNoNextOffset(t *testing.T) {
	rec := get(t, seeded(t, 3), "/api/accounts/acc/audit")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Entries, 3)
	assert.Nil(t, resp.NextOffset)
}

func TestList_InvalidQuery(t *testing.T) {
	testCases := []struct {
		name string
		path string
		want string
	}{
		{"limit not a number", "/api/accounts/acc/audit?limit=ten", "limit must be an integer"},
		{"offset not a number", "/api/accounts/acc/audit?offset=x", "offset must be an integer"},
		{"limit zero", "/api/accounts/acc/audit?limit=0", "Limit must be at least 1"},
		{"limit too large", "/api/accounts/acc/audit?limit=501", "Limit must be at most 500"},
		{"negative offset", "/api/accounts/acc/audit?offset=-1", "Offset must be at least 0"},
		{"offset past int32", "/api/accounts/acc/audit?offset=2147483648", "offset is out of range"},
		{"offset wraps to zero", "/api/accounts/acc/audit?offset=4294967296", "offset is out of range"},
		{"limit wraps to one", "/api/accounts/acc/audit?limit=4294967297", "limit is out of range"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(t, seeded(t, 1), tc.path)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.want, body["error"])
		})
	}
}

func TestList_MaxOffsetReachesRepository(t *testing.T) {
	rec := get(t, seeded(t, 2), "/api/accounts/acc/audit?offset=2147483647")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Entries)
	assert.Nil(t, resp.NextOffset)
}

func TestList_OmitsDenyReason(t *testing.T) {
	repo := repository.NewMemoryRepository()
	require.NoError(t, repo.Create(context.Background(), &domain.Entry{
		ID:        "e1",
		AccountID: "acc",
		DeviceID:  "dev",
		Outcome:   "denied",
		Reason:    "subscription_inactive",
		Transport: "http",
		IP:        "203.0.113.1",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}))

	rec := get(t, repo, "/api/accounts/acc/audit")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "reason")
	assert.NotContains(t, rec.Body.String(), "subscription_inactive")
}

func TestList_RepositoryError(t *testing.T) {
	rec := get(t, failingLister{}, "/api/accounts/acc/audit")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
