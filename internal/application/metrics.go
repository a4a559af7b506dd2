package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skck_applications_submitted_total",
		Help: "Applications accepted by the submission flow.",
	})
	autofillTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skck_autofill_lookups_total",
		Help: "NIK autofill lookups by result.",
	}, []string{"result"})
)
