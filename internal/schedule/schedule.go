// Package schedule delays a run until a cron-specified start time.
//
// A broadcast is often staged ahead of time ("send at 09:00"); run_at holds
// a standard 5-field cron spec and the job sleeps until its next fire time
// before loading recipients.
package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	logx "primecast/pkg/logx"
)

// NextAfter returns the first fire time of spec after now.
func NextAfter(spec string, now time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("run_at: invalid cron spec %q: %w", spec, err)
	}
	return sched.Next(now), nil
}

// Wait blocks until the next fire time of spec, or returns immediately for
// an empty spec. Cancellation aborts the wait with ctx.Err().
func Wait(ctx context.Context, spec string, log logx.Logger) error {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil
	}
	next, err := NextAfter(spec, time.Now())
	if err != nil {
		return err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	log.Info("waiting for scheduled start",
		logx.String("spec", spec),
		logx.Time("at", next),
		logx.Duration("in", time.Until(next)))

	t := time.NewTimer(time.Until(next))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
