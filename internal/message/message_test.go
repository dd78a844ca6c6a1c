package message

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPickIsBinaryAndTotal(t *testing.T) {
	t.Parallel()
	c := TelegramPrimeWelcome()

	tests := []struct {
		lang    string
		spanish bool
	}{
		{"es", true},
		{"en", false},
		{"", false},
		{"pt", false},
		{"ES", false}, // codes are case-sensitive, matches the stored value
	}
	for _, tt := range tests {
		got := c.Pick(tt.lang)
		want := c.English
		if tt.spanish {
			want = c.Spanish
		}
		if got.Text != want.Text {
			t.Fatalf("Pick(%q) selected the wrong variant", tt.lang)
		}
	}
}

func TestPickDeterministic(t *testing.T) {
	t.Parallel()
	c := TelegramPrimeWelcome()
	for _, lang := range []string{"es", "en", "", "xx"} {
		if c.Pick(lang).Text != c.Pick(lang).Text {
			t.Fatalf("Pick(%q) not deterministic", lang)
		}
	}
}

func TestTelegramCatalogShape(t *testing.T) {
	t.Parallel()
	c := TelegramPrimeWelcome()
	for name, tmpl := range map[string]Template{"english": c.English, "spanish": c.Spanish} {
		if tmpl.Text == "" {
			t.Fatalf("%s: empty body", name)
		}
		if len(tmpl.Buttons) != 2 {
			t.Fatalf("%s: expected 2 buttons, got %d", name, len(tmpl.Buttons))
		}
		if tmpl.Buttons[0].URL == "" {
			t.Fatalf("%s: first button must carry the app URL", name)
		}
		if tmpl.Buttons[1].Data == "" {
			t.Fatalf("%s: second button must carry callback data", name)
		}
	}
}

func TestEmailCatalogLoadsHTML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	for name, body := range map[string]string{
		"prime-welcome.html":    "<html>EN</html>",
		"prime-welcome-es.html": "<html>ES</html>",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}

	c, err := EmailPrimeWelcome(dir)
	if err != nil {
		t.Fatalf("EmailPrimeWelcome: %v", err)
	}
	if c.English.HTML != "<html>EN</html>" || c.Spanish.HTML != "<html>ES</html>" {
		t.Fatal("HTML bodies not loaded from template dir")
	}
	if c.English.Subject == "" || c.Spanish.Subject == "" {
		t.Fatal("subjects must be set")
	}
	if !strings.Contains(c.Spanish.Text, "PRIME") {
		t.Fatal("plain body missing")
	}
}

func TestEmailCatalogMissingTemplate(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "prime-welcome.html"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	_, err := EmailPrimeWelcome(dir)
	if err == nil {
		t.Fatal("expected error for missing spanish template")
	}
	if !strings.Contains(err.Error(), "prime-welcome-es.html") {
		t.Fatalf("error should name the missing file: %v", err)
	}
}
