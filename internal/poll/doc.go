// Package poll implements the generic long-poll driver used to wait on
// slow external operations. Callers supply a status-check closure and the
// driver handles interval pacing, deadline expiry, cancellation, and
// progress reporting.
package poll
