// Package observability provides logging and metrics support for the
// article extraction service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for extraction, dates, sections, and E-utilities
//   - Context helpers for propagating observability data
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    Output:    "stdout",
//	    AddSource: true,
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("article_id", id).Msg("article extracted")
//
// Add component context to a logger:
//
//	logger = observability.WithComponent(logger, "extractor")
//
// # Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics("article_extraction")
//
// Record metrics:
//
//	metrics.RecordArticleExtracted("pubmed")
//	metrics.RecordEUtilsRequest("pmc", "efetch", 0.42)
//
// # Context Helpers
//
// Store and retrieve request context:
//
//	ctx = observability.WithRequestID(ctx, requestID)
//	ctx = observability.WithSchema(ctx, "pmc")
//
//	reqID := observability.RequestIDFromContext(ctx)
//	schema := observability.SchemaFromContext(ctx)
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - request_id: HTTP request identifier
//   - article_id: PubMed or PMC article identifier
//   - schema: Extraction schema (pubmed, pmc)
//   - db: E-utilities database name
//   - query: E-utilities search query
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
