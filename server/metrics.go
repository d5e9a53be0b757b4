package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assistant",
		Name:      "turns_total",
		Help:      "Dialogue turns processed, by resolved intent and outcome.",
	}, []string{"intent", "outcome"})

	terminationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "assistant",
		Name:      "terminations_total",
		Help:      "Session termination requests, by whether a session existed.",
	}, []string{"terminated"})
)
