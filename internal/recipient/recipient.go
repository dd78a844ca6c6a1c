// Package recipient loads the broadcast audience.
//
// The audience arrives as pipe-delimited rows of
// (contact, language, display-name), the shape a
// `psql -t -A -F'|'` export produces. The loader only consumes that shape;
// where the rows come from (a query command, a file) is a Source concern.
package recipient

import (
	"bufio"
	"io"
	"strings"
)

// Record is one broadcast recipient. Immutable once loaded; source order is
// preserved so a run can resume by offset.
type Record struct {
	Contact     string // chat id or email address
	Language    string // ISO-ish code; only "es" is distinguished downstream
	DisplayName string
}

type ParseOptions struct {
	// RequireAt drops records whose contact lacks an "@" (email variant).
	RequireAt bool
}

// Parse reads pipe-delimited rows into Records, preserving order.
//
// Skipped without error: blank lines, lines with fewer than 2 fields,
// records with an empty contact, and (with RequireAt) contacts without "@".
// Fields are whitespace-trimmed.
func Parse(r io.Reader, opts ParseOptions) ([]Record, error) {
	out := []Record{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) < 2 {
			continue
		}
		rec := Record{
			Contact:  strings.TrimSpace(parts[0]),
			Language: strings.TrimSpace(parts[1]),
		}
		if len(parts) > 2 {
			rec.DisplayName = strings.TrimSpace(parts[2])
		}
		if rec.Contact == "" {
			continue
		}
		if opts.RequireAt && !strings.Contains(rec.Contact, "@") {
			continue
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, &LoadError{Source: "input", Err: err}
	}
	return out, nil
}

// Breakdown counts records per template language. Everything that is not
// "es" renders the default (English) template.
func Breakdown(records []Record) (english, spanish int) {
	for _, r := range records {
		if r.Language == "es" {
			spanish++
		} else {
			english++
		}
	}
	return english, spanish
}
