// Package message holds the broadcast templates and the language selector.
//
// There are exactly two variants per channel: default (English) and Spanish.
// Templates are static content; nothing is generated per recipient.
package message

// Button is transport-neutral call-to-action markup. Telegram renders URL
// buttons as web-app buttons and Data buttons as callbacks; email ignores
// buttons entirely.
type Button struct {
	Label string
	URL   string
	Data  string
}

// Template is one localized message bundle. Telegram uses Text (HTML parse
// mode) and Buttons; email uses Subject, Text (plain part) and HTML.
type Template struct {
	Subject string
	Text    string
	HTML    string
	Buttons []Button
}

// Catalog pairs the two variants for one channel.
type Catalog struct {
	English Template
	Spanish Template
}

// Pick returns the template for a language code. The rule is deliberately
// binary and total: "es" selects Spanish, every other value (including
// empty or unknown codes) falls back to English.
func (c Catalog) Pick(lang string) Template {
	if lang == "es" {
		return c.Spanish
	}
	return c.English
}
