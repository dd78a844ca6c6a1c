package dispatch

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"primecast/internal/message"
	"primecast/internal/recipient"
	"primecast/internal/transport"
	logx "primecast/pkg/logx"
)

type Config struct {
	// Channel tags the report and the journal rows ("telegram", "email").
	Channel string
	// Pace is the minimum spacing between consecutive sends.
	Pace time.Duration
	// SendTimeout bounds one delivery attempt. 0 leaves the transport's
	// own timeout in charge.
	SendTimeout time.Duration
	// RetryMax bounds retries of one recipient after transient failures.
	RetryMax int
	// RetryMargin is added to a server-supplied backoff before retrying.
	RetryMargin time.Duration
	// RetryBase seeds exponential backoff when the server supplied no wait.
	RetryBase time.Duration
	// RetryTransient retries ordinary delivery failures too, not only
	// explicit rate-limit signals.
	RetryTransient bool
	// Offset skips the first N records (resume after interruption).
	Offset int
}

// Journal is the completed-set consulted before and written after each
// send. A nil Journal disables skipping.
type Journal interface {
	Sent(ctx context.Context, channel, contact string) (bool, error)
	MarkSent(ctx context.Context, channel, contact string) error
}

type Dispatcher struct {
	cfg     Config
	sender  transport.Sender
	catalog message.Catalog
	journal Journal
	log     logx.Logger

	limiter *rate.Limiter
	sleep   func(ctx context.Context, d time.Duration) error

	// OnProgress, when set, is called after each processed recipient with
	// (processed, total). Used for sd_notify status updates.
	OnProgress func(done, total int)
}

func New(cfg Config, sender transport.Sender, catalog message.Catalog, journal Journal, log logx.Logger) *Dispatcher {
	if cfg.RetryMargin <= 0 {
		cfg.RetryMargin = 500 * time.Millisecond
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 200 * time.Millisecond
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	lim := rate.NewLimiter(rate.Inf, 0)
	if cfg.Pace > 0 {
		lim = rate.NewLimiter(rate.Every(cfg.Pace), 1)
	}
	return &Dispatcher{
		cfg:     cfg,
		sender:  sender,
		catalog: catalog,
		journal: journal,
		log:     log,
		limiter: lim,
		sleep:   sleepCtx,
	}
}

// Run dispatches to every record in order and returns the report.
//
// The returned error is non-nil only for session-level failures; ordinary
// per-recipient failures are recorded in the report and never abort the
// loop. On cancellation or session failure the report is marked
// interrupted and NextOffset points at the first unprocessed record.
func (d *Dispatcher) Run(ctx context.Context, records []recipient.Record) (*Report, error) {
	rep := &Report{
		Channel:   d.cfg.Channel,
		Total:     len(records),
		StartedAt: time.Now(),
	}
	defer func() { rep.FinishedAt = time.Now() }()

	start := d.cfg.Offset
	if start < 0 {
		start = 0
	}
	if start > len(records) {
		start = len(records)
	}
	if start > 0 {
		rep.Skipped += start
		d.log.Info("resuming from offset", logx.Int("offset", start))
	}

	for i := start; i < len(records); i++ {
		rec := records[i]

		if ctx.Err() != nil {
			d.interrupt(rep, i)
			return rep, nil
		}

		if skip := d.alreadySent(ctx, rec); skip {
			rep.Skipped++
			d.log.Debug("already sent, skipping", logx.String("contact", rec.Contact))
			continue
		}

		tmpl := d.catalog.Pick(rec.Language)

		if err := d.limiter.Wait(ctx); err != nil {
			d.interrupt(rep, i)
			return rep, nil
		}

		outcome, reason, err := d.deliver(ctx, rec, tmpl)
		if err != nil {
			// Session-level: abort the whole run.
			d.interrupt(rep, i)
			return rep, err
		}

		switch outcome {
		case outcomeSent:
			rep.Sent++
			d.markSent(ctx, rec)
			d.log.Info("sent",
				logx.String("progress", rep.progress()),
				logx.String("lang", langTag(rec.Language)),
				logx.String("contact", rec.Contact),
				logx.String("name", rec.DisplayName))
		case outcomeBlocked:
			rep.Blocked++
			d.log.Warn("recipient unreachable",
				logx.String("contact", rec.Contact),
				logx.String("reason", reason))
		case outcomeFailed:
			rep.Failed++
			rep.Failures = append(rep.Failures, Failure{Contact: rec.Contact, Reason: reason})
			d.log.Warn("send failed",
				logx.String("contact", rec.Contact),
				logx.String("reason", reason))
		}

		if d.OnProgress != nil {
			d.OnProgress(i+1-start, len(records)-start)
		}
	}

	return rep, nil
}

type outcome int

const (
	outcomeSent outcome = iota
	outcomeBlocked
	outcomeFailed
)

// deliver attempts one recipient, retrying transient failures within the
// configured bounds. It returns a session-level error only when further
// sends are pointless.
func (d *Dispatcher) deliver(ctx context.Context, rec recipient.Record, tmpl message.Template) (outcome, string, error) {
	for attempt := 0; ; attempt++ {
		sctx := ctx
		cancel := context.CancelFunc(func() {})
		if d.cfg.SendTimeout > 0 {
			sctx, cancel = context.WithTimeout(ctx, d.cfg.SendTimeout)
		}
		err := d.sender.Send(sctx, rec, tmpl)
		cancel()

		if err == nil {
			return outcomeSent, "", nil
		}

		var sess *transport.SessionError
		if errors.As(err, &sess) {
			return 0, "", err
		}
		if errors.Is(err, transport.ErrUnreachable) {
			return outcomeBlocked, err.Error(), nil
		}

		var wait time.Duration
		var rl *transport.RateLimitError
		switch {
		case errors.As(err, &rl):
			wait = rl.RetryAfter + d.cfg.RetryMargin
			if rl.RetryAfter <= 0 {
				wait = d.backoff(attempt)
			}
		case d.cfg.RetryTransient:
			wait = d.backoff(attempt)
		default:
			return outcomeFailed, err.Error(), nil
		}

		if attempt >= d.cfg.RetryMax {
			return outcomeFailed, err.Error(), nil
		}

		d.log.Info("transient failure, will retry",
			logx.String("contact", rec.Contact),
			logx.Int("attempt", attempt+2),
			logx.Duration("wait", wait),
			logx.Err(err))
		if serr := d.sleep(ctx, wait); serr != nil {
			return outcomeFailed, err.Error(), nil
		}
	}
}

func (d *Dispatcher) backoff(attempt int) time.Duration {
	const ceiling = 30 * time.Second
	delay := d.cfg.RetryBase << attempt
	if delay > ceiling || delay <= 0 {
		delay = ceiling
	}
	return delay
}

func (d *Dispatcher) alreadySent(ctx context.Context, rec recipient.Record) bool {
	if d.journal == nil {
		return false
	}
	ok, err := d.journal.Sent(ctx, d.cfg.Channel, rec.Contact)
	if err != nil {
		d.log.Warn("journal lookup failed", logx.String("contact", rec.Contact), logx.Err(err))
		return false
	}
	return ok
}

func (d *Dispatcher) markSent(ctx context.Context, rec recipient.Record) {
	if d.journal == nil {
		return
	}
	if err := d.journal.MarkSent(ctx, d.cfg.Channel, rec.Contact); err != nil {
		d.log.Warn("journal write failed", logx.String("contact", rec.Contact), logx.Err(err))
	}
}

func (d *Dispatcher) interrupt(rep *Report, next int) {
	rep.Interrupted = true
	rep.NextOffset = next
	d.log.Warn("dispatch interrupted",
		logx.Int("next_offset", next),
		logx.Int("sent", rep.Sent))
}

func langTag(lang string) string {
	if lang == "es" {
		return "ES"
	}
	return "EN"
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
