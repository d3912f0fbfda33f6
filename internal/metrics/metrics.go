// package metrics counts what a sync run did and exports it for the node_exporter textfile collector.
//
// All methods are safe on a nil *Metrics, so callers can leave metrics unconfigured.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus counters for a migration run.
type Metrics struct {
	registry         *prometheus.Registry
	searchesTotal    prometheus.Counter
	cacheHitsTotal   prometheus.Counter
	noMatchTotal     prometheus.Counter
	addedTotal       prometheus.Counter
	failedTotal      *prometheus.CounterVec
	playlistsCreated prometheus.Counter
	playlistsSynced  prometheus.Counter
	lastRunTimestamp prometheus.Gauge
}

// New creates and registers the migration metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		searchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ytmigrate_searches_total",
			Help: "Total number of catalog searches issued for unresolved tracks",
		}),
		cacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ytmigrate_checkpoint_hits_total",
			Help: "Total number of tracks resolved from the checkpoint without searching",
		}),
		noMatchTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ytmigrate_no_match_total",
			Help: "Total number of tracks for which no candidate cleared the threshold",
		}),
		addedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ytmigrate_items_added_total",
			Help: "Total number of items added to target playlists",
		}),
		failedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ytmigrate_items_failed_total",
			Help: "Total number of items the target rejected, by reason",
		}, []string{"reason"}),
		playlistsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ytmigrate_playlists_created_total",
			Help: "Total number of target playlists created",
		}),
		playlistsSynced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ytmigrate_playlists_synced_total",
			Help: "Total number of source playlists processed",
		}),
		lastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ytmigrate_last_run_timestamp_seconds",
			Help: "Unix time at which the last sync run finished",
		}),
	}

	registry.MustRegister(
		m.searchesTotal,
		m.cacheHitsTotal,
		m.noMatchTotal,
		m.addedTotal,
		m.failedTotal,
		m.playlistsCreated,
		m.playlistsSynced,
		m.lastRunTimestamp,
	)

	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// IncSearches increments the search counter.
func (m *Metrics) IncSearches() {
	if m != nil {
		m.searchesTotal.Inc()
	}
}

// IncCacheHits increments the checkpoint hit counter.
func (m *Metrics) IncCacheHits() {
	if m != nil {
		m.cacheHitsTotal.Inc()
	}
}

// IncNoMatch increments the no-match counter.
func (m *Metrics) IncNoMatch() {
	if m != nil {
		m.noMatchTotal.Inc()
	}
}

// AddAdded adds n to the added items counter.
func (m *Metrics) AddAdded(n int) {
	if m != nil && n > 0 {
		m.addedTotal.Add(float64(n))
	}
}

// IncFailed increments the failed items counter for reason.
func (m *Metrics) IncFailed(reason string) {
	if m != nil {
		m.failedTotal.WithLabelValues(reason).Inc()
	}
}

// IncPlaylistsCreated increments the created playlists counter.
func (m *Metrics) IncPlaylistsCreated() {
	if m != nil {
		m.playlistsCreated.Inc()
	}
}

// IncPlaylistsSynced increments the processed playlists counter.
func (m *Metrics) IncPlaylistsSynced() {
	if m != nil {
		m.playlistsSynced.Inc()
	}
}

// MarkRun records the finish time of a run as Unix seconds.
func (m *Metrics) MarkRun(unix int64) {
	if m != nil {
		m.lastRunTimestamp.Set(float64(unix))
	}
}

// WriteTextfile writes every metric to path in the text exposition format.
// An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
