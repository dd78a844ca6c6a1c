package dispatch

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	logx "primecast/pkg/logx"
)

// Failure is one (contact, reason) tuple from the run.
type Failure struct {
	Contact string `json:"contact"`
	Reason  string `json:"reason"`
}

// Report is the run's bookkeeping. Invariant: for a completed run,
// Sent + Blocked + Failed == Total - Skipped.
type Report struct {
	Channel    string    `json:"channel"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Total   int `json:"total"`
	Skipped int `json:"skipped"` // resume offset + journal hits
	Sent    int `json:"sent"`
	Blocked int `json:"blocked"`
	Failed  int `json:"failed"`

	Failures []Failure `json:"failures,omitempty"`

	Interrupted bool `json:"interrupted,omitempty"`
	// NextOffset is the index to resume from after an interrupted run.
	NextOffset int `json:"next_offset,omitempty"`
}

func (r *Report) progress() string {
	return fmt.Sprintf("%d/%d", r.Sent, r.Total)
}

// Ok reports whether every processed recipient was actually delivered.
func (r *Report) Ok() bool {
	return !r.Interrupted && r.Blocked == 0 && r.Failed == 0
}

// Log emits the human-readable summary: final counters plus an itemized
// failure list when non-empty.
func (r *Report) Log(log logx.Logger) {
	fields := []logx.Field{
		logx.String("channel", r.Channel),
		logx.Int("total", r.Total),
		logx.Int("sent", r.Sent),
		logx.Int("blocked", r.Blocked),
		logx.Int("failed", r.Failed),
		logx.Int("skipped", r.Skipped),
		logx.Duration("took", r.FinishedAt.Sub(r.StartedAt)),
	}
	switch {
	case r.Interrupted:
		log.Warn("broadcast interrupted", append(fields, logx.Int("next_offset", r.NextOffset))...)
	case r.Blocked > 0 || r.Failed > 0:
		log.Warn("broadcast finished with failures", fields...)
	default:
		log.Info("broadcast finished", fields...)
	}
	for _, f := range r.Failures {
		log.Warn("failed recipient", logx.String("contact", f.Contact), logx.String("reason", f.Reason))
	}
}

// WriteFile persists the machine-readable report for auditability.
func (r *Report) WriteFile(path string) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	b = append(b, '\n')
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
