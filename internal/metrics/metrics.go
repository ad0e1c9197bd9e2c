package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LogsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholar_logs_submitted_total",
			Help: "Total number of scholar article logs submitted",
		},
		[]string{"subject"},
	)

	LogPointsHistogram = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scholar_log_points",
			Help:    "Distribution of points on submitted and reviewed logs",
			Buckets: prometheus.LinearBuckets(0, 1, 6),
		},
	)

	ReviewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scholar_log_reviews_total",
			Help: "Total number of admin reviews by resulting status",
		},
		[]string{"status"},
	)

	BonusPointsAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bonus_points_awarded_total",
			Help: "Total bonus points awarded",
		},
		[]string{"bonus_type"},
	)

	HeadlinesArchived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rss_headlines_archived_total",
			Help: "Total number of new headlines added to the archive",
		},
	)

	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "git_sync_runs_total",
			Help: "Git sync attempts by outcome",
		},
		[]string{"result"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
