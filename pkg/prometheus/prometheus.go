// Package prometheus implements levelsync.MetricsProvider on top of the
// Prometheus client library.
package prometheus

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zoobzio/levelsync"
)

// Namespace prefixes every metric name.
const Namespace = "levelsync"

// Provider records levelsync events as Prometheus metrics.
type Provider struct {
	registry *prom.Registry

	ticks       *prom.CounterVec
	tickSeconds prom.Histogram
	propagated  *prom.CounterVec
	connects    *prom.CounterVec
	connState   *prom.GaugeVec
	healthy     *prom.GaugeVec
	feedState   prom.Gauge
	reloads     *prom.CounterVec
	reloadSecs  prom.Histogram
}

// New creates a Provider whose metrics live on a private registry.
func New() *Provider {
	p := &Provider{
		registry: prom.NewRegistry(),
		ticks: prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "ticks_total",
			Help:      "Engine ticks by outcome.",
		}, []string{"outcome"}),
		tickSeconds: prom.NewHistogram(prom.HistogramOpts{
			Namespace: Namespace,
			Name:      "tick_duration_seconds",
			Help:      "Duration of engine ticks.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
		propagated: prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "propagations_total",
			Help:      "Level writes issued by the engine, by direction.",
		}, []string{"direction"}),
		connects: prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "connect_attempts_total",
			Help:      "Connect attempts by source and result.",
		}, []string{"source", "result"}),
		connState: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: Namespace,
			Name:      "connection_state",
			Help:      "Connection state per source: 0 disconnected, 1 connecting, 2 connected.",
		}, []string{"source"}),
		healthy: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: Namespace,
			Name:      "healthy",
			Help:      "1 if the last health probe of the source succeeded.",
		}, []string{"source"}),
		feedState: prom.NewGauge(prom.GaugeOpts{
			Namespace: Namespace,
			Name:      "config_state",
			Help:      "Config reloader state: 0 loading, 1 healthy, 2 degraded, 3 empty.",
		}),
		reloads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: Namespace,
			Name:      "config_reloads_total",
			Help:      "Config changes processed, by result.",
		}, []string{"result"}),
		reloadSecs: prom.NewHistogram(prom.HistogramOpts{
			Namespace: Namespace,
			Name:      "config_reload_duration_seconds",
			Help:      "Duration of config decode and apply.",
			Buckets:   prom.DefBuckets,
		}),
	}
	p.registry.MustRegister(
		p.ticks, p.tickSeconds, p.propagated, p.connects,
		p.connState, p.healthy, p.feedState, p.reloads, p.reloadSecs,
	)
	return p
}

// Registry returns the registry the metrics are registered on.
func (p *Provider) Registry() *prom.Registry { return p.registry }

// Handler serves the registry in the Prometheus exposition format.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// OnTick implements levelsync.MetricsProvider.
func (p *Provider) OnTick(outcome levelsync.Outcome, d time.Duration) {
	p.ticks.WithLabelValues(outcome.String()).Inc()
	p.tickSeconds.Observe(d.Seconds())
}

// OnPropagated implements levelsync.MetricsProvider.
func (p *Provider) OnPropagated(dir levelsync.Direction) {
	p.propagated.WithLabelValues(dir.String()).Inc()
}

// OnConnectAttempt implements levelsync.MetricsProvider.
func (p *Provider) OnConnectAttempt(source string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	p.connects.WithLabelValues(source, result).Inc()
}

// OnConnStateChange implements levelsync.MetricsProvider.
func (p *Provider) OnConnStateChange(source string, _, to levelsync.ConnState) {
	p.connState.WithLabelValues(source).Set(float64(to))
}

// OnHealthChange implements levelsync.MetricsProvider.
func (p *Provider) OnHealthChange(source string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1
	}
	p.healthy.WithLabelValues(source).Set(v)
}

// OnFeedStateChange implements levelsync.MetricsProvider.
func (p *Provider) OnFeedStateChange(_, to levelsync.FeedState) {
	p.feedState.Set(float64(to))
}

// OnReload implements levelsync.MetricsProvider.
func (p *Provider) OnReload(stage string, d time.Duration) {
	result := "applied"
	if stage != "" {
		result = stage + "_failed"
	}
	p.reloads.WithLabelValues(result).Inc()
	p.reloadSecs.Observe(d.Seconds())
}

var _ levelsync.MetricsProvider = (*Provider)(nil)
