package notification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	createdTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skck_notifications_created_total",
		Help: "Notifications stored, by type.",
	}, []string{"type"})
	mailTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skck_notification_emails_total",
		Help: "Notification e-mails by outcome.",
	}, []string{"result"})
)
