package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_monitor_http_requests_total",
			Help: "Total de requisições HTTP",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campaign_monitor_http_request_duration_seconds",
			Help:    "Latência das requisições HTTP em segundos",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)

	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_monitor_panics_recovered_total",
			Help: "Total de panics recuperados",
		},
		[]string{"component"},
	)

	// Campanhas
	CampaignsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_monitor_campaigns_created_total",
			Help: "Total de campanhas criadas",
		},
	)

	KPIUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_monitor_kpi_updates_total",
			Help: "Total de atualizações de KPIs por resultado",
		},
		[]string{"status"}, // status: success, validation_error, not_found, storage_error
	)

	KPIUpdateConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_monitor_kpi_update_conflicts_total",
			Help: "Total de conflitos de versão durante atualizações de KPIs",
		},
	)

	AlertsRaisedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_monitor_alerts_raised_total",
			Help: "Total de alertas disparados",
		},
		[]string{"type", "severity"},
	)

	AlertsResolvedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campaign_monitor_alerts_resolved_total",
			Help: "Total de alertas resolvidos",
		},
	)

	// Notificações
	AlertNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_monitor_alert_notifications_total",
			Help: "Total de publicações de alertas na fila",
		},
		[]string{"status"}, // status: success, failed
	)

	// Sincronização com o Meta
	KPISyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_monitor_kpi_sync_runs_total",
			Help: "Execuções da sincronização de KPIs por resultado",
		},
		[]string{"status"},
	)

	KPISyncCampaignsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_monitor_kpi_sync_campaigns_total",
			Help: "Campanhas processadas pela sincronização de KPIs",
		},
		[]string{"status"}, // status: success, failed, skipped
	)

	KPISyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "campaign_monitor_kpi_sync_duration_seconds",
			Help:    "Duração de cada execução da sincronização de KPIs",
			Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 120, 300},
		},
	)
)
