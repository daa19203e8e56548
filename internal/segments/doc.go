// Package segments turns one media input into an ordered sequence of
// independently analyzable units. Two planners exist: one delegates to a
// managed detection service polled until terminal, the other chunks
// locally by fixed span with optional overlap and boundary alignment.
package segments
