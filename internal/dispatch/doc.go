// Package dispatch runs the broadcast loop.
//
// The loop is strictly sequential: one recipient at a time, in loader
// order, with a rate limiter pacing consecutive sends. Sequential delivery
// keeps per-recipient ordering deterministic and makes the provider rate
// ceiling trivial to respect; this job is an operator-triggered batch, not
// a throughput problem.
//
// Outcomes
//
// Every processed recipient lands in exactly one bucket: sent, blocked, or
// failed. Blocked means the transport reported the recipient permanently
// undeliverable; those are never retried. Rate-limit failures are retried
// after the server-supplied wait plus a margin, bounded by RetryMax. A
// session-level failure aborts the run with a partial report.
//
// Recipients already recorded in the send journal are skipped before
// delivery and counted separately, which makes re-running after a partial
// failure safe.
package dispatch
