// Package transport defines the delivery contract shared by the channel
// implementations (telegram, email) and consumed by the dispatcher.
//
// Error taxonomy
//
// Senders classify delivery failures so the dispatch loop never has to know
// channel specifics:
//
//   - ErrUnreachable: the recipient made themselves permanently
//     undeliverable (blocked the bot, deactivated account, dead mailbox).
//     Never retried.
//   - RateLimitError: transient, provider-imposed throttling. Retried after
//     the server-supplied wait (when present) plus a safety margin.
//   - SessionError: the transport itself is unusable (auth failed, API
//     unreachable). Aborts the whole run instead of failing every
//     recipient one by one.
//
// Anything else is an ordinary delivery failure: recorded, not retried
// (unless the operator opts into transient retries).
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"primecast/internal/message"
	"primecast/internal/recipient"
)

// ErrUnreachable marks a permanently undeliverable recipient. Wrap it with
// %w and the provider's description.
var ErrUnreachable = errors.New("recipient unreachable")

// RateLimitError reports provider throttling. RetryAfter is the
// server-supplied wait; zero when the provider gave none.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// SessionError reports a transport-level failure that makes further sends
// pointless.
type SessionError struct {
	Err error
}

func (e *SessionError) Error() string { return fmt.Sprintf("send session: %v", e.Err) }

func (e *SessionError) Unwrap() error { return e.Err }

// Sender delivers one message to one recipient. Implementations classify
// failures per the package taxonomy. Send must honor ctx cancellation and
// deadlines.
type Sender interface {
	Send(ctx context.Context, rec recipient.Record, msg message.Template) error
}
