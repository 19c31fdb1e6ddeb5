package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestCounter counts HTTP requests by status code, method, and route pattern
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treasurehunt_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"status", "method", "route"},
	)

	// RequestDuration measures HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "treasurehunt_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	PathsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "treasurehunt_paths_generated_total",
			Help: "Total number of team paths generated",
		},
	)

	// PathUniqueness is distinct paths divided by teams for the last
	// generation run of a session.
	PathUniqueness = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "treasurehunt_path_uniqueness_ratio",
			Help: "Distinct paths divided by teams for the last generation run, per session",
		},
		[]string{"session"},
	)

	CodeSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "treasurehunt_code_submissions_total",
			Help: "Stage unlock code submissions by result",
		},
		[]string{"result"},
	)

	HintsRevealed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "treasurehunt_hints_revealed_total",
			Help: "Total number of hints revealed to teams",
		},
	)

	TeamsFinished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "treasurehunt_teams_finished_total",
			Help: "Total number of teams that reached their end location",
		},
	)
)

// Code submission results.
const (
	ResultCorrect  = "correct"
	ResultWrong    = "wrong"
	ResultNearMiss = "near_miss"
)
