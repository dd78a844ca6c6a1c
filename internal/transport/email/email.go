// Package email delivers broadcast messages over an authenticated
// SMTP-over-TLS session.
//
// One session is dialed when the sender is opened and reused for the whole
// run; Close releases it unconditionally. A send that times out marks the
// session stale, and the next send redials instead of writing into a
// half-dead connection.
package email

import (
	"context"
	"errors"
	"fmt"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"primecast/internal/message"
	"primecast/internal/recipient"
	"primecast/internal/transport"
	logx "primecast/pkg/logx"
)

type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string
	ReplyTo     string
	// Timeout bounds one message submission. Defaults to 30s.
	Timeout time.Duration
}

type Sender struct {
	cfg    Config
	dialer *gomail.Dialer
	sc     gomail.SendCloser
	stale  bool
	log    logx.Logger
}

// Open dials and authenticates the session. Failure here is a SessionError:
// if we cannot log in, the run must abort instead of failing per recipient.
func Open(cfg Config, log logx.Logger) (*Sender, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	// gomail enables implicit TLS automatically for port 465.
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	sc, err := d.Dial()
	if err != nil {
		return nil, &transport.SessionError{Err: fmt.Errorf("smtp dial %s:%d: %w", cfg.Host, cfg.Port, err)}
	}
	log.Debug("smtp session established", logx.String("host", cfg.Host), logx.Int("port", cfg.Port))
	return &Sender{cfg: cfg, dialer: d, sc: sc, log: log}, nil
}

func (s *Sender) Send(ctx context.Context, rec recipient.Record, msg message.Template) error {
	if err := s.ensureSession(); err != nil {
		return err
	}

	m := s.compose(rec, msg)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- gomail.Send(s.sc, m) }()

	select {
	case err := <-done:
		if err != nil {
			return classify(fmt.Errorf("send to %s: %w", rec.Contact, err))
		}
		return nil
	case <-ctx.Done():
		// Unblock the in-flight write and force a redial next send.
		s.stale = true
		_ = s.sc.Close()
		return fmt.Errorf("send to %s: %w", rec.Contact, ctx.Err())
	}
}

func (s *Sender) compose(rec recipient.Record, msg message.Template) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.FromAddress, s.cfg.FromName)
	m.SetHeader("To", rec.Contact)
	if s.cfg.ReplyTo != "" {
		m.SetHeader("Reply-To", s.cfg.ReplyTo)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}
	return m
}

func (s *Sender) ensureSession() error {
	if !s.stale {
		return nil
	}
	sc, err := s.dialer.Dial()
	if err != nil {
		return &transport.SessionError{Err: fmt.Errorf("smtp redial %s:%d: %w", s.cfg.Host, s.cfg.Port, err)}
	}
	s.sc = sc
	s.stale = false
	s.log.Debug("smtp session re-established")
	return nil
}

func (s *Sender) Close() error {
	if s == nil || s.sc == nil {
		return nil
	}
	return s.sc.Close()
}

// classify maps SMTP reply codes onto the transport taxonomy.
//
//	550/551/553  no such mailbox       -> unreachable, never retry
//	421/450-452  server asks to slow   -> rate limited (no wait supplied)
func classify(err error) error {
	switch smtpCode(err) {
	case 550, 551, 553:
		return fmt.Errorf("%w: %v", transport.ErrUnreachable, err)
	case 421, 450, 451, 452:
		return &transport.RateLimitError{Err: err}
	}
	return err
}

// smtpCode digs the reply code out of an SMTP error. gomail wraps the
// underlying *textproto.Error with %v, so when unwrapping fails we fall
// back to scanning the message for a standalone 3-digit reply code.
func smtpCode(err error) int {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		return tpErr.Code
	}
	for _, tok := range strings.Fields(err.Error()) {
		tok = strings.TrimSuffix(tok, ":")
		if len(tok) != 3 {
			continue
		}
		n, convErr := strconv.Atoi(tok)
		if convErr == nil && n >= 400 && n < 600 {
			return n
		}
	}
	return 0
}
