// Package observability provides structured logging and Prometheus metrics
// for the scholarly search pipeline.
//
// Logging is built on zerolog and configured through LoggingConfig. Metrics
// cover the externally visible work of the pipeline: provider searches,
// record parsing, PDF location, downloads, text extraction, and whole
// pipeline runs.
package observability
