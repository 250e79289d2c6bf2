package uploader

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/TheMafiaBot/html-telegraph-poster-v2/pkg/errors"
)

const (
	phaseFetch  = "fetch"
	phaseUpload = "upload"
)

var (
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegraph_uploads_total",
			Help: "Total number of upload calls by outcome",
		},
		[]string{"outcome"},
	)

	phaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "telegraph_phase_duration_seconds",
			Help:    "Duration of the fetch and upload network phases in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"phase"},
	)

	fetchedBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telegraph_fetched_bytes",
			Help:    "Size of media fetched from remote URLs in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)
)

// outcomeOf maps an upload error to its metric label.
func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	if code := apperrors.CodeOf(err); code != "" {
		return strings.ToLower(code)
	}
	return "error"
}
