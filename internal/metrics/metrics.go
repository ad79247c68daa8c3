package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	splitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "duplexprint",
			Name:      "splits_total",
			Help:      "Total document splits by result",
		},
		[]string{"result"},
	)

	splitPages = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "duplexprint",
			Name:      "split_selected_pages",
			Help:      "Number of pages selected per split",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 250},
		},
	)

	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "duplexprint",
			Name:      "print_submissions_total",
			Help:      "Print queue submissions by subset and result",
		},
		[]string{"subset", "result"},
	)

	submissionLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "duplexprint",
			Name:      "print_submission_duration_seconds",
			Help:      "Duration of lp submissions by subset",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"subset"},
	)

	statusQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "duplexprint",
			Name:      "queue_status_queries_total",
			Help:      "Print queue status queries by result",
		},
		[]string{"result"},
	)

	conversionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "duplexprint",
			Name:      "word_conversions_total",
			Help:      "Word to PDF conversions by result",
		},
		[]string{"result"},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(splitsTotal, splitPages, submissionsTotal, submissionLatency, statusQueries, conversionsTotal)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func IncSplit(result string)         { splitsTotal.WithLabelValues(result).Inc() }
func ObserveSplitPages(selected int) { splitPages.Observe(float64(selected)) }
func IncStatusQuery(result string)   { statusQueries.WithLabelValues(result).Inc() }
func IncConversion(result string)    { conversionsTotal.WithLabelValues(result).Inc() }

func ObserveSubmission(subset, result string, dur time.Duration) {
	submissionsTotal.WithLabelValues(subset, result).Inc()
	submissionLatency.WithLabelValues(subset).Observe(dur.Seconds())
}
