package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PlatformPublishTotal counts fan-out outcomes per platform.
	PlatformPublishTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_platform_publish_total",
		Help: "Platform publish attempts by platform and outcome",
	}, []string{"platform", "outcome"})

	// PostsProcessedTotal counts posts reaching a status at the end of a cycle.
	PostsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_posts_processed_total",
		Help: "Posts processed by the orchestrator by resulting status",
	}, []string{"status"})

	// SchedulerTicksSkipped counts ticks dropped because a previous tick was still running.
	SchedulerTicksSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "social_scheduler_ticks_skipped_total",
		Help: "Scheduler ticks skipped due to an in-flight tick",
	})

	// NotificationFailures counts operator notifications that could not be delivered or queued.
	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "social_notification_failures_total",
		Help: "Operator notifications that failed",
	})
)
