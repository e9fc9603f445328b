package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

type stubSnapshot struct {
	at time.Time
}

func (s stubSnapshot) SnapshotTime() time.Time { return s.at }

func newTestHealthServer(db DatabasePinger, snapshot SnapshotReporter, maxAge time.Duration) *Server {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewServer(Config{
		ServiceName:    "safe-legs",
		Version:        "test",
		Logger:         log,
		DB:             db,
		Snapshot:       snapshot,
		MaxSnapshotAge: maxAge,
	})
}

func TestHandleHealth(t *testing.T) {
	s := newTestHealthServer(nil, nil, 0)

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "safe-legs", resp.Service)
}

func TestHandleReadyNotReady(t *testing.T) {
	s := newTestHealthServer(nil, nil, 0)

	rec := httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleReadyAllChecksPass(t *testing.T) {
	s := newTestHealthServer(stubPinger{}, stubSnapshot{at: time.Now()}, time.Hour)
	s.SetReady(true)

	rec := httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ReadyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Checks["database"])
	assert.Equal(t, "ok", resp.Checks["snapshot"])
}

func TestHandleReadyDatabaseDown(t *testing.T) {
	s := newTestHealthServer(stubPinger{err: errors.New("connection refused")}, nil, 0)
	s.SetReady(true)

	rec := httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleReadyStaleSnapshot(t *testing.T) {
	s := newTestHealthServer(nil, stubSnapshot{at: time.Now().Add(-2 * time.Hour)}, time.Hour)
	s.SetReady(true)

	rec := httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp.Checks["snapshot"], "stale")
}

func TestHandleReadyEmptySnapshotIsNotFatal(t *testing.T) {
	s := newTestHealthServer(nil, stubSnapshot{}, time.Hour)
	s.SetReady(true)

	rec := httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
