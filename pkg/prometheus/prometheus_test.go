package prometheus

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/levelsync"
)

func TestProvider_Ticks(t *testing.T) {
	p := New()
	p.OnTick(levelsync.OutcomeIdle, time.Millisecond)
	p.OnTick(levelsync.OutcomeIdle, time.Millisecond)
	p.OnTick(levelsync.OutcomeToTarget, 2*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.ticks.WithLabelValues("idle")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.ticks.WithLabelValues("to_target")))
	assert.Equal(t, 1, testutil.CollectAndCount(p.tickSeconds))
}

func TestProvider_Propagated(t *testing.T) {
	p := New()
	p.OnPropagated(levelsync.FromSource)
	p.OnPropagated(levelsync.FromTarget)
	p.OnPropagated(levelsync.FromTarget)

	assert.Equal(t, 1.0, testutil.ToFloat64(p.propagated.WithLabelValues("from_source")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.propagated.WithLabelValues("from_target")))
}

func TestProvider_Connects(t *testing.T) {
	p := New()
	p.OnConnectAttempt("voicemeeter", errors.New("not running"))
	p.OnConnectAttempt("voicemeeter", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(p.connects.WithLabelValues("voicemeeter", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.connects.WithLabelValues("voicemeeter", "success")))

	p.OnConnStateChange("voicemeeter", levelsync.Connecting, levelsync.Connected)
	assert.Equal(t, 2.0, testutil.ToFloat64(p.connState.WithLabelValues("voicemeeter")))
}

func TestProvider_Health(t *testing.T) {
	p := New()
	p.OnHealthChange("voicemeeter", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.healthy.WithLabelValues("voicemeeter")))
	p.OnHealthChange("voicemeeter", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(p.healthy.WithLabelValues("voicemeeter")))
}

func TestProvider_Reloads(t *testing.T) {
	p := New()
	p.OnFeedStateChange(levelsync.FeedLoading, levelsync.FeedDegraded)
	p.OnReload("", time.Millisecond)
	p.OnReload("decode", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.feedState))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.reloads.WithLabelValues("applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.reloads.WithLabelValues("decode_failed")))
}

func TestProvider_Handler(t *testing.T) {
	p := New()
	p.OnPropagated(levelsync.FromSource)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `levelsync_propagations_total{direction="from_source"} 1`), body)
}
