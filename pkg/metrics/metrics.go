package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	PatchesApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "patchdoc", Name: "patches_applied_total", Help: "Number of successfully applied patches by source."},
		[]string{"source"},
	)
	PatchesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "patchdoc", Name: "patches_rejected_total", Help: "Number of rejected patch attempts by source."},
		[]string{"source"},
	)
	Interpretations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "patchdoc", Name: "interpretations_total", Help: "Number of interpreted agent payloads by outcome."},
		[]string{"outcome"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "patchdoc", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "patchdoc", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(PatchesApplied, PatchesRejected, Interpretations, RateLimitAllowed, RateLimitRejected)
}
