package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escuelahq/escuela-ui-api/internal/domain/model"
)

type stubAuditStore struct {
	entries  []model.AuditEntry
	lastQ    model.AuditQuery
	counts   map[model.AuditEvent]int64
	purged   int64
	lastCut  time.Time
	listErr  error
	purgeErr error
}

func (s *stubAuditStore) List(_ context.Context, q model.AuditQuery) ([]model.AuditEntry, error) {
	s.lastQ = q
	return s.entries, s.listErr
}

func (s *stubAuditStore) CountByEvent(context.Context) (map[model.AuditEvent]int64, error) {
	return s.counts, nil
}

func (s *stubAuditStore) Purge(_ context.Context, before time.Time) (int64, error) {
	s.lastCut = before
	return s.purged, s.purgeErr
}

func TestAuditList(t *testing.T) {
	store := &stubAuditStore{
		entries: []model.AuditEntry{
			{ID: 2, Event: model.AuditLogout, Username: "mperez"},
			{ID: 1, Event: model.AuditLogin, Username: "mperez"},
		},
	}
	h := &AuditHandlers{Store: store}

	req := httptest.NewRequest(http.MethodGet, "/api/audit?event=login&limit=10&offset=5", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.AuditLogin, store.lastQ.Event)
	assert.Equal(t, 10, store.lastQ.Limit)
	assert.Equal(t, 5, store.lastQ.Offset)

	var body struct {
		Entries []model.AuditEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Entries, 2)
}

func TestAuditList_EmptyIsArray(t *testing.T) {
	h := &AuditHandlers{Store: &stubAuditStore{}}

	req := httptest.NewRequest(http.MethodGet, "/api/audit", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"entries":[]}`, rec.Body.String())
}

func TestAuditList_BadBounds(t *testing.T) {
	h := &AuditHandlers{Store: &stubAuditStore{}}

	req := httptest.NewRequest(http.MethodGet, "/api/audit?limit=abc", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/audit?offset=abc", nil)
	rec = httptest.NewRecorder()
	h.List(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuditList_StoreError(t *testing.T) {
	h := &AuditHandlers{Store: &stubAuditStore{listErr: errors.New("db down")}}

	req := httptest.NewRequest(http.MethodGet, "/api/audit", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAuditStats(t *testing.T) {
	h := &AuditHandlers{Store: &stubAuditStore{
		counts: map[model.AuditEvent]int64{model.AuditLogin: 4},
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/audit/stats", nil)
	rec := httptest.NewRecorder()
	h.Stats(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"counts":{"login":4}}`, rec.Body.String())
}

func TestAuditPurge(t *testing.T) {
	store := &stubAuditStore{purged: 12}
	h := &AuditHandlers{Store: store}

	req := httptest.NewRequest(http.MethodPost, "/api/audit/purge?days=30", nil)
	rec := httptest.NewRecorder()
	h.Purge(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"purged":12}`, rec.Body.String())
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -30), store.lastCut, time.Minute)
}

func TestAuditPurge_InvalidDays(t *testing.T) {
	h := &AuditHandlers{Store: &stubAuditStore{}}

	for _, raw := range []string{"abc", "0", "-3"} {
		req := httptest.NewRequest(http.MethodPost, "/api/audit/purge?days="+raw, nil)
		rec := httptest.NewRecorder()
		h.Purge(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "days=%s", raw)
	}
}
