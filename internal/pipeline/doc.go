// Package pipeline sequences the description pipeline: segmentation,
// per-unit analysis, and synthesis. Advancement follows a pull model; each
// Advance call performs at most one stage's worth of work and persists the
// outcome through the job store's compare-and-swap update.
package pipeline
