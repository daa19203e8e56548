// Package jobs owns the durable job record and its state machine
// invariants. Records are immutable snapshots: every mutation flows through
// the store's single update entry point, which replaces the row guarded by
// a revision counter so concurrent advance calls never interleave into an
// inconsistent record.
package jobs
