package recipient

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// LoadError signals that the recipient source itself failed (query command
// errored, file unreadable). It is distinct from an empty result: a broken
// source must never be mistaken for "nothing to do".
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load recipients from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Source produces the ordered recipient list.
type Source interface {
	Load(ctx context.Context) ([]Record, error)
}

// CommandSource runs an argv (no shell) and parses its stdout.
// This matches driving the audience query through psql or an equivalent
// export tool.
type CommandSource struct {
	Argv    []string
	Options ParseOptions
}

func (s CommandSource) Load(ctx context.Context) ([]Record, error) {
	if len(s.Argv) == 0 {
		return nil, &LoadError{Source: "command", Err: fmt.Errorf("empty argv")}
	}
	name := strings.Join(s.Argv, " ")

	cmd := exec.CommandContext(ctx, s.Argv[0], s.Argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, &LoadError{Source: name, Err: err}
	}
	return Parse(&stdout, s.Options)
}

// FileSource reads a prepared export from disk.
type FileSource struct {
	Path    string
	Options ParseOptions
}

func (s FileSource) Load(ctx context.Context) ([]Record, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, &LoadError{Source: s.Path, Err: err}
	}
	defer f.Close()
	return Parse(f, s.Options)
}
