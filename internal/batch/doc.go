// Package batch runs many description jobs over a bounded worker pool and
// reports per-item outcomes plus aggregate timing.
package batch
