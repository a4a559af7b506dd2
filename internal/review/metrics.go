package review

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("SKCKPortal/internal/review")

var (
	reviewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skck_reviews_total",
		Help: "Completed reviews by decision.",
	}, []string{"decision"})
	writeFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skck_review_write_failures_total",
		Help: "Failed review writes by stage (transition, notification, outbox).",
	}, []string{"stage"})
	dispatchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skck_review_notifications_dispatched_total",
		Help: "Review outbox entries delivered, by path.",
	}, []string{"path"})
)
