// Package metrics exposes Prometheus collectors for the HTTP surface and the
// outline pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "slidegen"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 120},
		},
		[]string{"method", "path"},
	)

	// LLM calls, op is "list_models" or "generate_outline".
	LLMCallTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "call_total",
			Help:      "Total number of LLM backend calls",
		},
		[]string{"provider", "op", "status"},
	)

	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "LLM backend call duration in seconds",
			Buckets:   []float64{.1, .5, 1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"provider", "op"},
	)

	LLMRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "retries_total",
			Help:      "Total number of retried LLM backend attempts",
		},
		[]string{"provider"},
	)

	DeckGenerationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "deck",
			Name:      "generation_total",
			Help:      "Total number of deck generations by outcome code",
		},
		[]string{"provider", "status"},
	)

	DeckSlideCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "deck",
			Name:      "slide_count",
			Help:      "Number of slides parsed from generated outlines",
			Buckets:   []float64{0, 1, 3, 5, 7, 10, 15, 20, 30},
		},
	)
)
