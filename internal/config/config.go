// Package config loads and validates the primecast run configuration.
//
// Config files are YAML (or JSON); YAML is coerced to JSON bytes so both
// formats go through one strict decoder that rejects unknown fields.
// Durations are Go duration strings (e.g. "80ms", "15s").
//
// Credentials and endpoints have no built-in defaults: a run for a channel
// whose credentials are missing fails Validate with the offending key named.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	logx "primecast/pkg/logx"
)

type Config struct {
	Logging LoggingConfig `json:"logging,omitempty"`

	// JournalPath enables the sqlite send journal when non-empty.
	// The journal makes re-runs safe: contacts already sent are skipped.
	JournalPath string `json:"journal_path,omitempty"`

	// ReportPath, when non-empty, is where the machine-readable JSON run
	// report is written after dispatch.
	ReportPath string `json:"report_path,omitempty"`

	// RunAt is an optional standard cron spec; the job sleeps until the
	// next fire time before dispatching. Empty means start immediately.
	RunAt string `json:"run_at,omitempty"`

	Recipients RecipientsConfig `json:"recipients"`
	Telegram   TelegramConfig   `json:"telegram,omitempty"`
	Email      EmailConfig      `json:"email,omitempty"`
}

type LoggingConfig struct {
	Level   string     `json:"level,omitempty"`
	Console *bool      `json:"console,omitempty"`
	File    FileConfig `json:"file,omitempty"`
}

type FileConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

// RecipientsConfig names the recipient source. Exactly one of Command or
// File must be set. Command is an argv (no shell) whose stdout is the
// pipe-delimited (contact|language|display-name) export; File is a path to
// the same shape on disk.
type RecipientsConfig struct {
	Command []string `json:"command,omitempty"`
	File    string   `json:"file,omitempty"`
}

// DeliveryConfig carries the pacing/retry knobs shared by both channels.
// Zero values fall back to per-channel defaults at resolve time.
type DeliveryConfig struct {
	// Pace is the minimum spacing between consecutive sends.
	Pace string `json:"pace,omitempty"`
	// SendTimeout bounds a single delivery attempt.
	SendTimeout string `json:"send_timeout,omitempty"`
	// RetryMax bounds retries after a rate-limit (or, with RetryTransient,
	// any transient) failure. The first attempt is not counted.
	RetryMax *int `json:"retry_max,omitempty"`
	// RetryMargin is added to the server-supplied backoff before retrying.
	RetryMargin string `json:"retry_margin,omitempty"`
	// RetryBase seeds the exponential backoff used when the server supplies
	// no wait duration.
	RetryBase string `json:"retry_base,omitempty"`
	// RetryTransient extends the bounded retry to all non-permanent
	// transport failures, not just explicit rate-limit signals.
	RetryTransient bool `json:"retry_transient,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token,omitempty"`
	DeliveryConfig
}

type EmailConfig struct {
	Host        string `json:"host,omitempty"`
	Port        int    `json:"port,omitempty"`
	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
	FromAddress string `json:"from_address,omitempty"`
	FromName    string `json:"from_name,omitempty"`
	ReplyTo     string `json:"reply_to,omitempty"`
	TemplateDir string `json:"template_dir,omitempty"`
	DeliveryConfig
}

// Delivery is DeliveryConfig with durations parsed and defaults applied.
type Delivery struct {
	Pace           time.Duration
	SendTimeout    time.Duration
	RetryMax       int
	RetryMargin    time.Duration
	RetryBase      time.Duration
	RetryTransient bool
}

// Channel defaults. Pace targets stay well under the providers' documented
// ceilings (Telegram: 30 msg/s; SMTP relays commonly throttle above ~2/s).
var (
	TelegramDefaults = Delivery{
		Pace:        80 * time.Millisecond,
		SendTimeout: 15 * time.Second,
		RetryMax:    1,
		RetryMargin: 500 * time.Millisecond,
		RetryBase:   200 * time.Millisecond,
	}
	EmailDefaults = Delivery{
		Pace:        500 * time.Millisecond,
		SendTimeout: 30 * time.Second,
		RetryMax:    1,
		RetryMargin: 500 * time.Millisecond,
		RetryBase:   200 * time.Millisecond,
	}
)

// Resolve parses the duration fields and fills gaps from def.
// path prefixes error messages (e.g. "telegram").
func (d DeliveryConfig) Resolve(path string, def Delivery) (Delivery, error) {
	out := def
	var err error
	if out.Pace, err = ParseDurationOrDefault(path+".pace", d.Pace, def.Pace); err != nil {
		return Delivery{}, err
	}
	if out.SendTimeout, err = ParseDurationOrDefault(path+".send_timeout", d.SendTimeout, def.SendTimeout); err != nil {
		return Delivery{}, err
	}
	if out.RetryMargin, err = ParseDurationOrDefault(path+".retry_margin", d.RetryMargin, def.RetryMargin); err != nil {
		return Delivery{}, err
	}
	if out.RetryBase, err = ParseDurationOrDefault(path+".retry_base", d.RetryBase, def.RetryBase); err != nil {
		return Delivery{}, err
	}
	if d.RetryMax != nil {
		if *d.RetryMax < 0 {
			return Delivery{}, fmt.Errorf("%s.retry_max: must be >= 0", path)
		}
		out.RetryMax = *d.RetryMax
	}
	out.RetryTransient = d.RetryTransient
	return out, nil
}

// Load reads, strictly decodes, and returns the config at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jb, _, err := coerceToJSONBytes(path, b)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("config %s: trailing data", path)
		}
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the parts of the config the selected channel needs.
// channel is "telegram" or "email".
func (c *Config) Validate(channel string) error {
	hasCmd := len(c.Recipients.Command) > 0
	hasFile := strings.TrimSpace(c.Recipients.File) != ""
	if hasCmd == hasFile {
		return fmt.Errorf("recipients: exactly one of command or file must be set")
	}

	switch channel {
	case "telegram":
		if strings.TrimSpace(c.Telegram.Token) == "" {
			return fmt.Errorf("telegram.token: required")
		}
	case "email":
		for _, f := range []struct{ key, val string }{
			{"email.host", c.Email.Host},
			{"email.username", c.Email.Username},
			{"email.password", c.Email.Password},
			{"email.from_address", c.Email.FromAddress},
			{"email.template_dir", c.Email.TemplateDir},
		} {
			if strings.TrimSpace(f.val) == "" {
				return fmt.Errorf("%s: required", f.key)
			}
		}
		if c.Email.Port <= 0 || c.Email.Port > 65535 {
			return fmt.Errorf("email.port: required (1-65535)")
		}
	default:
		return fmt.Errorf("unknown channel %q (want telegram or email)", channel)
	}
	return nil
}

// Logx maps the logging section onto the logx config. Console defaults to on.
func (l LoggingConfig) Logx() logx.Config {
	return logx.Config{
		Level:   l.Level,
		Console: l.Console == nil || *l.Console,
		File: logx.FileConfig{
			Enabled: l.File.Enabled,
			Path:    l.File.Path,
		},
	}
}
