// Package metrics defines the Prometheus collectors for ingestion, queries and the provider client.
// A nil *Metrics is valid and records nothing, so components can run without a registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "afl_stats"

// Outcome labels for resolver and ingestion counters.
const (
	OutcomeMatched    = "matched"
	OutcomeBackfilled = "backfilled"
	OutcomeCreated    = "created"
	OutcomeExisting   = "existing"
	OutcomeFailed     = "failed"
)

type Metrics struct {
	registry *prometheus.Registry

	EntitiesResolved  *prometheus.CounterVec
	DuplicatePlayers  prometheus.Counter
	TeamChanges       prometheus.Counter
	OutOfOrderIngests prometheus.Counter
	GamesIngested     *prometheus.CounterVec
	SyncRuns          *prometheus.CounterVec
	SyncDuration      prometheus.Histogram
	QueryRequests     *prometheus.CounterVec
	QueryDuration     prometheus.Histogram
	ProviderRequests  *prometheus.CounterVec
}

// New registers every collector on a fresh registry that also carries the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		EntitiesResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_resolved_total",
			Help:      "Entity resolutions by entity kind and outcome",
		}, []string{"entity", "outcome"}),
		DuplicatePlayers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_player_names_total",
			Help:      "Players created under a name already held by a different external id",
		}),
		TeamChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "player_team_changes_total",
			Help:      "Team history intervals closed because a player moved clubs",
		}),
		OutOfOrderIngests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "out_of_order_stat_ingests_total",
			Help:      "Stat lines ingested for a game dated before the player's last recorded game",
		}),
		GamesIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_ingested_total",
			Help:      "Whole-game ingestions by outcome",
		}, []string{"outcome"}),
		SyncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Provider sync runs by trigger and status",
		}, []string{"trigger", "status"}),
		SyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Wall time of one season sync",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		QueryRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "over_under_requests_total",
			Help:      "Over/under queries by statistic and result",
		}, []string{"stat", "result"}),
		QueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "over_under_duration_seconds",
			Help:      "Over/under query latency",
			Buckets:   prometheus.DefBuckets,
		}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Upstream provider calls by endpoint and status class",
		}, []string{"endpoint", "status"}),
	}
	reg.MustRegister(
		m.EntitiesResolved, m.DuplicatePlayers, m.TeamChanges, m.OutOfOrderIngests, m.GamesIngested,
		m.SyncRuns, m.SyncDuration, m.QueryRequests, m.QueryDuration, m.ProviderRequests,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RecordResolution(entity, outcome string) {
	if m == nil {
		return
	}
	m.EntitiesResolved.WithLabelValues(entity, outcome).Inc()
}

func (m *Metrics) RecordDuplicatePlayer() {
	if m == nil {
		return
	}
	m.DuplicatePlayers.Inc()
}

func (m *Metrics) RecordTeamChange() {
	if m == nil {
		return
	}
	m.TeamChanges.Inc()
}

func (m *Metrics) RecordOutOfOrder() {
	if m == nil {
		return
	}
	m.OutOfOrderIngests.Inc()
}

func (m *Metrics) RecordGameIngest(outcome string) {
	if m == nil {
		return
	}
	m.GamesIngested.WithLabelValues(outcome).Inc()
}

// RecordSync records one sync run; status is "success" or "failure".
func (m *Metrics) RecordSync(trigger, status string, took time.Duration) {
	if m == nil {
		return
	}
	m.SyncRuns.WithLabelValues(trigger, status).Inc()
	m.SyncDuration.Observe(took.Seconds())
}

// RecordQuery records one over/under query; result is "ok", "invalid", "not_found" or "error".
func (m *Metrics) RecordQuery(stat, result string, took time.Duration) {
	if m == nil {
		return
	}
	m.QueryRequests.WithLabelValues(stat, result).Inc()
	m.QueryDuration.Observe(took.Seconds())
}

func (m *Metrics) RecordProviderRequest(endpoint, status string) {
	if m == nil {
		return
	}
	m.ProviderRequests.WithLabelValues(endpoint, status).Inc()
}
