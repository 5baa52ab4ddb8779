// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TransactionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "financas_transactions_created_total",
		Help: "Transactions created, by any path (user or scheduler).",
	})

	SchedulerPasses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "financas_scheduler_passes_total",
		Help: "Recurring-rule processing passes.",
	})

	SchedulerFirings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "financas_scheduler_firings_total",
		Help: "Transactions materialized from recurring rules.",
	})

	SnapshotSaves = promauto.NewCounter(prometheus.CounterOpts{
		Name: "financas_snapshot_saves_total",
		Help: "Snapshot writes to the local store.",
	})

	SnapshotSaveFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "financas_snapshot_save_failures_total",
		Help: "Failed snapshot writes to the local store.",
	})

	CloudSyncSaves = promauto.NewCounter(prometheus.CounterOpts{
		Name: "financas_cloud_sync_saves_total",
		Help: "Snapshots pushed to the cloud endpoint.",
	})

	CloudSyncFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "financas_cloud_sync_failures_total",
		Help: "Failed cloud snapshot pushes.",
	})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
