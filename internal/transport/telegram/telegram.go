// Package telegram delivers broadcast messages through the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"primecast/internal/message"
	"primecast/internal/recipient"
	"primecast/internal/transport"
	logx "primecast/pkg/logx"
)

type Config struct {
	Token string
	// Timeout bounds one sendMessage call. Defaults to 15s.
	Timeout time.Duration
}

type Sender struct {
	bot *tele.Bot
	log logx.Logger
}

// New builds the sender. Bot construction probes getMe, so an unreachable
// API or a bad token surfaces here as a SessionError rather than failing
// every recipient.
func New(cfg Config, log logx.Logger) (*Sender, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Client: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, &transport.SessionError{Err: err}
	}
	log.Debug("telegram bot ready", logx.String("username", b.Me.Username))
	return &Sender{bot: b, log: log}, nil
}

func (s *Sender) Send(ctx context.Context, rec recipient.Record, msg message.Template) error {
	id, err := strconv.ParseInt(rec.Contact, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", rec.Contact, err)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	opts := &tele.SendOptions{
		ParseMode:             tele.ModeHTML,
		DisableWebPagePreview: true,
		ReplyMarkup:           markup(msg.Buttons),
	}
	_, err = s.bot.Send(&tele.Chat{ID: id}, msg.Text, opts)
	return classify(err)
}

func markup(buttons []message.Button) *tele.ReplyMarkup {
	if len(buttons) == 0 {
		return nil
	}
	rows := make([][]tele.InlineButton, 0, len(buttons))
	for _, b := range buttons {
		btn := tele.InlineButton{Text: b.Label}
		switch {
		case b.URL != "":
			btn.WebApp = &tele.WebApp{URL: b.URL}
		case b.Data != "":
			btn.Data = b.Data
		}
		rows = append(rows, []tele.InlineButton{btn})
	}
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

// classify maps Bot API errors onto the transport taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var flood tele.FloodError
	if errors.As(err, &flood) {
		return &transport.RateLimitError{
			RetryAfter: time.Duration(flood.RetryAfter) * time.Second,
			Err:        err,
		}
	}

	if errors.Is(err, tele.ErrBlockedByUser) || errors.Is(err, tele.ErrUserIsDeactivated) {
		return fmt.Errorf("%w: %v", transport.ErrUnreachable, err)
	}
	// telebot has no sentinel for every unreachable description
	// ("bot was kicked", casing drift), so match the text too.
	desc := strings.ToLower(err.Error())
	if strings.Contains(desc, "blocked") || strings.Contains(desc, "deactivated") || strings.Contains(desc, "kicked") {
		return fmt.Errorf("%w: %v", transport.ErrUnreachable, err)
	}

	return err
}
