package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the article extraction service.
// Metrics are organized by subsystem: extraction, dates, sections, E-utilities
// requests, events, and the HTTP API. All counters and histograms are
// registered via promauto for automatic registration with the default
// Prometheus registry.
type Metrics struct {
	// ArticlesExtracted counts successfully extracted articles, labeled by schema.
	ArticlesExtracted *prometheus.CounterVec

	// ArticlesFailed counts articles that could not be extracted, labeled by schema.
	ArticlesFailed *prometheus.CounterVec

	// ExtractionDuration observes per-document extraction duration in seconds, labeled by schema.
	ExtractionDuration *prometheus.HistogramVec

	// ArticlesPerDocument observes how many article nodes each fetched document contained.
	ArticlesPerDocument *prometheus.HistogramVec

	// DateResolutionFailures counts publication dates that could not be resolved, labeled by schema.
	DateResolutionFailures *prometheus.CounterVec

	// SectionBucketHits counts section-title matches, labeled by canonical bucket name.
	SectionBucketHits *prometheus.CounterVec

	// EUtilsRequestsTotal counts requests to the NCBI E-utilities API, labeled by database and endpoint.
	EUtilsRequestsTotal *prometheus.CounterVec

	// EUtilsRequestsFailed counts failed E-utilities requests, labeled by database, endpoint, and error type.
	EUtilsRequestsFailed *prometheus.CounterVec

	// EUtilsRequestDuration observes E-utilities request duration in seconds.
	EUtilsRequestDuration *prometheus.HistogramVec

	// EUtilsRateLimited counts rate-limit responses from the E-utilities API.
	EUtilsRateLimited prometheus.Counter

	// EventsPublished counts events published to Kafka, labeled by event type.
	EventsPublished *prometheus.CounterVec

	// EventsFailed counts events that failed to publish, labeled by event type.
	EventsFailed *prometheus.CounterVec

	// HTTPRequestsTotal counts HTTP API requests, labeled by method, path, and status code.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration observes HTTP API request duration in seconds, labeled by method and path.
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Extraction
		ArticlesExtracted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_extracted_total",
			Help:      "Total number of articles extracted successfully by schema",
		}, []string{"schema"}),
		ArticlesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_failed_total",
			Help:      "Total number of articles that failed extraction by schema",
		}, []string{"schema"}),
		ExtractionDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Duration of per-document extraction in seconds by schema",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"schema"}),
		ArticlesPerDocument: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "articles_per_document",
			Help:      "Number of article nodes found per fetched XML document",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}, []string{"schema"}),

		// Dates
		DateResolutionFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "date_resolution_failures_total",
			Help:      "Total number of publication dates that could not be resolved by schema",
		}, []string{"schema"}),

		// Sections
		SectionBucketHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "section_bucket_hits_total",
			Help:      "Total number of section titles matched to a canonical bucket",
		}, []string{"bucket"}),

		// E-utilities
		EUtilsRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eutils_requests_total",
			Help:      "Total number of requests to the NCBI E-utilities API",
		}, []string{"db", "endpoint"}),
		EUtilsRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eutils_requests_failed_total",
			Help:      "Total number of failed requests to the NCBI E-utilities API",
		}, []string{"db", "endpoint", "error_type"}),
		EUtilsRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "eutils_request_duration_seconds",
			Help:      "Duration of requests to the NCBI E-utilities API in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"db", "endpoint"}),
		EUtilsRateLimited: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eutils_rate_limited_total",
			Help:      "Total number of rate limit responses from the E-utilities API",
		}),

		// Events
		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of events published to Kafka by type",
		}, []string{"event_type"}),
		EventsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_failed_total",
			Help:      "Total number of events that failed to publish by type",
		}, []string{"event_type"}),

		// HTTP API
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP API requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP API requests in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "path"}),
	}
}

// RecordArticleExtracted records a successfully extracted article.
func (m *Metrics) RecordArticleExtracted(schema string) {
	m.ArticlesExtracted.WithLabelValues(schema).Inc()
}

// RecordArticleFailed records an article that failed extraction.
func (m *Metrics) RecordArticleFailed(schema string) {
	m.ArticlesFailed.WithLabelValues(schema).Inc()
}

// RecordExtraction records a completed document extraction pass.
func (m *Metrics) RecordExtraction(schema string, articleCount int, durationSeconds float64) {
	m.ExtractionDuration.WithLabelValues(schema).Observe(durationSeconds)
	m.ArticlesPerDocument.WithLabelValues(schema).Observe(float64(articleCount))
}

// RecordDateResolutionFailure records a publication date that could not be resolved.
func (m *Metrics) RecordDateResolutionFailure(schema string) {
	m.DateResolutionFailures.WithLabelValues(schema).Inc()
}

// RecordSectionBucketHit records a section title matched to a canonical bucket.
func (m *Metrics) RecordSectionBucketHit(bucket string) {
	m.SectionBucketHits.WithLabelValues(bucket).Inc()
}

// RecordEUtilsRequest records a request to the E-utilities API.
func (m *Metrics) RecordEUtilsRequest(db, endpoint string, durationSeconds float64) {
	m.EUtilsRequestsTotal.WithLabelValues(db, endpoint).Inc()
	m.EUtilsRequestDuration.WithLabelValues(db, endpoint).Observe(durationSeconds)
}

// RecordEUtilsRequestFailed records a failed request to the E-utilities API.
func (m *Metrics) RecordEUtilsRequestFailed(db, endpoint, errorType string) {
	m.EUtilsRequestsFailed.WithLabelValues(db, endpoint, errorType).Inc()
}

// RecordEUtilsRateLimited records a rate limit response from the E-utilities API.
func (m *Metrics) RecordEUtilsRateLimited() {
	m.EUtilsRateLimited.Inc()
}

// RecordEventPublished records an event published to Kafka.
func (m *Metrics) RecordEventPublished(eventType string) {
	m.EventsPublished.WithLabelValues(eventType).Inc()
}

// RecordEventFailed records an event that failed to publish.
func (m *Metrics) RecordEventFailed(eventType string) {
	m.EventsFailed.WithLabelValues(eventType).Inc()
}

// RecordHTTPRequest records a completed HTTP API request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, durationSeconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(durationSeconds)
}
