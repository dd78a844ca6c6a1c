package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validYAML = `
logging:
  level: debug
journal_path: ./j.db
report_path: ./r.json
recipients:
  command: ["psql", "-c", "select 1"]
telegram:
  token: "123:abc"
  pace: 100ms
  retry_max: 2
email:
  host: smtp.test
  port: 465
  username: u
  password: p
  from_address: a@b.c
  from_name: Tester
  reply_to: r@b.c
  template_dir: ./emails
`

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Telegram.Pace != "100ms" {
		t.Fatalf("pace = %q", cfg.Telegram.Pace)
	}
	if cfg.Telegram.RetryMax == nil || *cfg.Telegram.RetryMax != 2 {
		t.Fatalf("retry_max = %v", cfg.Telegram.RetryMax)
	}
	if cfg.Email.Port != 465 {
		t.Fatalf("port = %d", cfg.Email.Port)
	}
	if got := cfg.Logging.Logx(); got.Level != "debug" || !got.Console {
		t.Fatalf("logging mapping wrong: %+v", got)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	_, err := Load(writeConfig(t, "recipients:\n  command: [x]\nbogus_key: 1\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(c *Config)
		channel string
		wantErr string
	}{
		{name: "telegram ok", channel: "telegram"},
		{name: "email ok", channel: "email"},
		{
			name:    "missing token",
			channel: "telegram",
			mutate:  func(c *Config) { c.Telegram.Token = "" },
			wantErr: "telegram.token",
		},
		{
			name:    "missing smtp password",
			channel: "email",
			mutate:  func(c *Config) { c.Email.Password = "" },
			wantErr: "email.password",
		},
		{
			name:    "missing port",
			channel: "email",
			mutate:  func(c *Config) { c.Email.Port = 0 },
			wantErr: "email.port",
		},
		{
			name:    "no recipient source",
			channel: "telegram",
			mutate:  func(c *Config) { c.Recipients.Command = nil },
			wantErr: "recipients",
		},
		{
			name:    "both recipient sources",
			channel: "telegram",
			mutate:  func(c *Config) { c.Recipients.File = "x.txt" },
			wantErr: "recipients",
		},
		{
			name:    "unknown channel",
			channel: "sms",
			wantErr: "unknown channel",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := Load(writeConfig(t, validYAML))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			err = cfg.Validate(tt.channel)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestResolveDefaultsAndOverrides(t *testing.T) {
	t.Parallel()
	d, err := DeliveryConfig{}.Resolve("telegram", TelegramDefaults)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if d != TelegramDefaults {
		t.Fatalf("empty config must resolve to defaults, got %+v", d)
	}

	two := 2
	d, err = DeliveryConfig{
		Pace:           "1s",
		SendTimeout:    "5s",
		RetryMax:       &two,
		RetryTransient: true,
	}.Resolve("email", EmailDefaults)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if d.Pace != time.Second || d.SendTimeout != 5*time.Second {
		t.Fatalf("durations not applied: %+v", d)
	}
	if d.RetryMax != 2 || !d.RetryTransient {
		t.Fatalf("retry knobs not applied: %+v", d)
	}

	if _, err := (DeliveryConfig{Pace: "fast"}).Resolve("telegram", TelegramDefaults); err == nil {
		t.Fatal("expected error for junk duration")
	}
	neg := -1
	if _, err := (DeliveryConfig{RetryMax: &neg}).Resolve("telegram", TelegramDefaults); err == nil {
		t.Fatal("expected error for negative retry_max")
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	if d, err := ParseDurationField("x", " 80ms "); err != nil || d != 80*time.Millisecond {
		t.Fatalf("got (%v, %v)", d, err)
	}
	if d, err := ParseDurationField("x", ""); err != nil || d != 0 {
		t.Fatalf("empty should be zero, got (%v, %v)", d, err)
	}
	if _, err := ParseDurationField("x", "-5s"); err == nil {
		t.Fatal("negative duration must error")
	}
}
