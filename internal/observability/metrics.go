package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the pipeline. Metrics are
// organized by subsystem: searches, papers, PDF acquisition, and pipeline
// runs. All collectors are registered via promauto with the default registry.
type Metrics struct {
	// SearchesStarted counts provider searches initiated.
	SearchesStarted prometheus.Counter

	// SearchesCompleted counts provider searches that returned results.
	SearchesCompleted prometheus.Counter

	// SearchesFailed counts provider searches that stopped on error.
	SearchesFailed prometheus.Counter

	// SearchDuration observes end-to-end search duration in seconds.
	SearchDuration prometheus.Histogram

	// PapersFound counts papers returned across all searches.
	PapersFound prometheus.Counter

	// ParseFailures counts provider records that could not be parsed.
	ParseFailures prometheus.Counter

	// PDFsLocated counts papers for which a direct PDF URL was resolved,
	// labeled by resolution rule (direct, arxiv, anchor, meta).
	PDFsLocated *prometheus.CounterVec

	// LocateFailures counts papers for which no PDF URL could be resolved.
	LocateFailures prometheus.Counter

	// DownloadsStarted counts PDF download attempts.
	DownloadsStarted prometheus.Counter

	// DownloadsSucceeded counts PDF downloads persisted to disk.
	DownloadsSucceeded prometheus.Counter

	// DownloadsFailed counts failed PDF downloads, labeled by reason
	// (network, status, content_type, too_large, write).
	DownloadsFailed *prometheus.CounterVec

	// DownloadBytes observes the size of downloaded PDFs in bytes.
	DownloadBytes prometheus.Histogram

	// ExtractionFailures counts PDFs whose text could not be extracted.
	ExtractionFailures prometheus.Counter

	// PipelineRuns counts pipeline runs, labeled by outcome.
	PipelineRuns *prometheus.CounterVec

	// PipelineDuration observes end-to-end pipeline run duration in seconds.
	PipelineDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics under the given
// namespace. Use distinct namespaces in tests to avoid duplicate
// registration with the default registry.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		SearchesStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_started_total",
			Help:      "Total number of provider searches started",
		}),
		SearchesCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_completed_total",
			Help:      "Total number of provider searches completed",
		}),
		SearchesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_failed_total",
			Help:      "Total number of provider searches stopped by an error",
		}),
		SearchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Provider search duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		PapersFound: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_found_total",
			Help:      "Total number of papers returned by searches",
		}),
		ParseFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_failures_total",
			Help:      "Total number of provider records that failed to parse",
		}),
		PDFsLocated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pdfs_located_total",
			Help:      "Total number of PDF URLs resolved, by resolution rule",
		}, []string{"rule"}),
		LocateFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "locate_failures_total",
			Help:      "Total number of papers with no resolvable PDF URL",
		}),
		DownloadsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_started_total",
			Help:      "Total number of PDF download attempts",
		}),
		DownloadsSucceeded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_succeeded_total",
			Help:      "Total number of PDFs persisted to disk",
		}),
		DownloadsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_failed_total",
			Help:      "Total number of failed PDF downloads, by reason",
		}, []string{"reason"}),
		DownloadBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "download_bytes",
			Help:      "Size of downloaded PDFs in bytes",
			Buckets:   prometheus.ExponentialBuckets(64*1024, 4, 8),
		}),
		ExtractionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_failures_total",
			Help:      "Total number of PDFs whose text extraction failed",
		}),
		PipelineRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Total number of pipeline runs, by outcome",
		}, []string{"outcome"}),
		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "End-to-end pipeline run duration in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}
}

// RecordSearch records the outcome of one provider search.
func (m *Metrics) RecordSearch(papers int, seconds float64, failed bool) {
	if m == nil {
		return
	}
	m.SearchDuration.Observe(seconds)
	m.PapersFound.Add(float64(papers))
	if failed {
		m.SearchesFailed.Inc()
		return
	}
	m.SearchesCompleted.Inc()
}

// RecordExtractionFailure records a PDF whose text could not be extracted.
func (m *Metrics) RecordExtractionFailure() {
	if m == nil {
		return
	}
	m.ExtractionFailures.Inc()
}

// RecordDownload records the outcome of one PDF download attempt.
func (m *Metrics) RecordDownload(bytes int64, failReason string) {
	if m == nil {
		return
	}
	m.DownloadsStarted.Inc()
	if failReason != "" {
		m.DownloadsFailed.WithLabelValues(failReason).Inc()
		return
	}
	m.DownloadsSucceeded.Inc()
	m.DownloadBytes.Observe(float64(bytes))
}
