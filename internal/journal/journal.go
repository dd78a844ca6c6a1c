// Package journal persists the completed-set of sent contacts.
//
// Without it, re-running the job after a partial failure double-sends to
// everyone who already got the message. With it, a (channel, contact) pair
// is written after each successful send and consulted before each send on
// the next run.
//
// A nil *Journal is valid and disables all persistence.
package journal

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "primecast/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type Journal struct {
	db  *sql.DB
	log logx.Logger
}

// Open initializes the journal at path. An empty path disables the journal
// and returns (nil, nil).
func Open(path string, log logx.Logger) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA busy_timeout = 5000")
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	j := &Journal{db: db, log: log}
	if err := j.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal migrate: %w", err)
	}
	return j, nil
}

func (j *Journal) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = j.db.ExecContext(ctx, string(b))
	return err
}

// Sent reports whether contact already received the channel's message.
func (j *Journal) Sent(ctx context.Context, channel, contact string) (bool, error) {
	if j == nil || j.db == nil {
		return false, nil
	}
	var one int
	err := j.db.QueryRowContext(ctx,
		`SELECT 1 FROM sends WHERE channel = ? AND contact = ?`,
		channel, contact,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkSent records a successful delivery. Idempotent.
func (j *Journal) MarkSent(ctx context.Context, channel, contact string) error {
	if j == nil || j.db == nil {
		return nil
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO sends(channel, contact, at) VALUES(?,?,?)
		 ON CONFLICT(channel, contact) DO NOTHING`,
		channel, contact, time.Now().Format(time.RFC3339Nano),
	)
	return err
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}
