package statushttp

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

	"github.com/zoobzio/levelsync"
)

type fakeSession struct {
	status    levelsync.Status
	incidents []levelsync.Incident
	startErr  error
	calls     []string
}

func (f *fakeSession) Status() levelsync.Status           { return f.status }
func (f *fakeSession) ErrorHistory() []levelsync.Incident { return f.incidents }

func (f *fakeSession) Start(context.Context) error {
	f.calls = append(f.calls, "start")
	return f.startErr
}

func (f *fakeSession) Stop(context.Context) error {
	f.calls = append(f.calls, "stop")
	return nil
}

func (f *fakeSession) Reload(context.Context) error {
	f.calls = append(f.calls, "reload")
	return nil
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestStatus_Primed(t *testing.T) {
	s := &fakeSession{status: levelsync.Status{
		Running: true,
		Healthy: true,
		Source:  levelsync.Connected,
		Target:  levelsync.Connected,
		Snapshot: levelsync.Snapshot{
			Source:  levelsync.Percent(50),
			Target:  levelsync.Decibels(-10.82),
			State:   levelsync.SyncState{Direction: levelsync.FromSource},
			Outcome: levelsync.OutcomeToTarget,
			Primed:  true,
		},
	}}
	rec := do(t, NewHandler(s), http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Running)
	assert.True(t, resp.Healthy)
	assert.Equal(t, "connected", resp.Source)
	require.NotNil(t, resp.Volume)
	assert.Equal(t, 50, *resp.Volume)
	require.NotNil(t, resp.Gain)
	assert.InDelta(t, -10.82, *resp.Gain, 1e-9)
	assert.Equal(t, "from_source", resp.Direction)
	assert.Equal(t, "to_target", resp.Outcome)
}

func TestStatus_NotPrimed(t *testing.T) {
	s := &fakeSession{incidents: []levelsync.Incident{
		{At: time.Unix(0, 0), Op: "connect", Err: errors.New("voicemeeter not running")},
	}}
	rec := do(t, NewHandler(s), http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Running)
	assert.Nil(t, resp.Volume)
	assert.Equal(t, "disconnected", resp.Target)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "connect", resp.Errors[0].Op)
	assert.Equal(t, "voicemeeter not running", resp.Errors[0].Error)
}

func TestControl(t *testing.T) {
	s := &fakeSession{}
	h := NewHandler(s)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodPost, "/start").Code)
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodPost, "/reload").Code)
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodPost, "/stop").Code)
	assert.Equal(t, []string{"start", "reload", "stop"}, s.calls)
}

func TestControl_Errors(t *testing.T) {
	s := &fakeSession{startErr: levelsync.ErrRunning}
	h := NewHandler(s)
	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/start").Code)

	s.startErr = errors.New("build sources: boom")
	assert.Equal(t, http.StatusInternalServerError, do(t, h, http.MethodPost, "/start").Code)
}

func TestControl_MethodNotAllowed(t *testing.T) {
	h := NewHandler(&fakeSession{})
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/start").Code)
}

func TestMetrics(t *testing.T) {
	h := NewHandler(&fakeSession{})
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/metrics").Code)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("levelsync_ticks_total 1\n")) //nolint:errcheck // test handler
	})
	h = NewHandler(&fakeSession{}, WithMetrics(metrics))
	rec := do(t, h, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "levelsync_ticks_total")
}
