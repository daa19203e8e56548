// Package logging wraps log/slog construction and the structured field
// conventions shared across the pipeline. Loggers carry job, stage, and
// correlation identifiers through context so every stage emits comparable
// records.
package logging
