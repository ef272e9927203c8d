// Package observability sets up structured logging (log/slog) and the
// Prometheus metrics exposed at /metrics.
package observability
