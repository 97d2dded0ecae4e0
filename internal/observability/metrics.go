// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arche_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheLookups counts cache-aside lookups by outcome (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arche_cache_lookups_total",
		Help: "Cache-aside lookups by outcome",
	}, []string{"outcome"})

	// VotesCast counts votes by direction.
	VotesCast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arche_votes_cast_total",
		Help: "Votes cast by direction",
	}, []string{"direction"})

	// Toggles counts favorite and follow toggles by resource and resulting state.
	Toggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arche_toggles_total",
		Help: "Toggle operations by resource and resulting state",
	}, []string{"resource", "state"})

	// AuthAttempts counts sign-in attempts by provider and outcome.
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arche_auth_attempts_total",
		Help: "Sign-in attempts by provider and outcome",
	}, []string{"provider", "outcome"})

	// ActivitiesPublished counts feed events by type.
	ActivitiesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arche_activities_published_total",
		Help: "Activity feed events by type",
	}, []string{"activity_type"})

	// RateLimited counts requests refused by a named rate limit.
	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arche_rate_limited_total",
		Help: "Requests refused by rate limiting, by limit name",
	}, []string{"limit"})

	// WebSocketConnections is the gauge of live feed connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arche_websocket_connections",
		Help: "Number of active live feed connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arche_websocket_backpressure_drops_total",
		Help: "Live feed messages dropped due to backpressure",
	}, []string{"reason"})
)
