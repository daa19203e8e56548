// Package synthesis merges per-unit analyses into the final description
// aggregate: narrative, timestamped, technical, and accessibility views
// plus derived key moments, highlights, chapters, and metadata.
package synthesis
