package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kaizen_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// LikeToggles counts like toggles by resulting state.
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kaizen_like_toggles_total",
		Help: "Total number of like toggles by result",
	}, []string{"result"})

	// CommentsCreated counts persisted comments.
	CommentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kaizen_comments_created_total",
		Help: "Total number of comments created",
	})

	// NotificationsCreated counts persisted notifications by type.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kaizen_notifications_created_total",
		Help: "Total number of notifications created by type",
	}, []string{"type"})

	// NotificationFailures counts notifications that could not be stored or published.
	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kaizen_notification_failures_total",
		Help: "Total number of failed notification writes or publishes",
	}, []string{"stage"})

	// SurveyComputations counts survey writes by method.
	SurveyComputations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kaizen_survey_computations_total",
		Help: "Total number of survey computations by method",
	}, []string{"method"})

	// TokenEvents counts auth token lifecycle events.
	TokenEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kaizen_token_events_total",
		Help: "Total number of token events by kind and outcome",
	}, []string{"event", "outcome"})

	// BlacklistFlushed counts expired blacklist rows removed by the flush job.
	BlacklistFlushed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kaizen_blacklist_flushed_total",
		Help: "Total number of expired blacklist entries removed",
	})

	// WebSocketConnections is the number of open notification streams.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kaizen_websocket_connections",
		Help: "Number of active notification WebSocket connections",
	})

	// WebSocketDrops counts realtime events dropped because a client was too slow.
	WebSocketDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kaizen_websocket_backpressure_drops_total",
		Help: "Total number of notification events dropped due to backpressure",
	})
)
