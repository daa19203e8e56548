// Package analysis produces per-unit semantic results by calling an
// external analysis provider with bounded retry. Exhausted retries degrade
// to a deterministic zero-confidence fallback so downstream synthesis can
// always proceed.
package analysis
