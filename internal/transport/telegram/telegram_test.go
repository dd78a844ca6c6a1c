package telegram

import (
	"errors"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	"primecast/internal/message"
	"primecast/internal/transport"
	logx "primecast/pkg/logx"
)

func TestClassifyFlood(t *testing.T) {
	t.Parallel()
	err := classify(tele.FloodError{
		RetryAfter: 3,
	})
	var rl *transport.RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("flood must classify as RateLimitError, got %v", err)
	}
	if rl.RetryAfter != 3*time.Second {
		t.Fatalf("RetryAfter = %v, want 3s", rl.RetryAfter)
	}
}

func TestClassifyUnreachable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
	}{
		{name: "blocked sentinel", err: tele.ErrBlockedByUser},
		{name: "deactivated sentinel", err: tele.ErrUserIsDeactivated},
		{name: "description match", err: errors.New("telegram: bot was kicked from the group chat (403)")},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if !errors.Is(classify(tt.err), transport.ErrUnreachable) {
				t.Fatalf("want ErrUnreachable, got %v", classify(tt.err))
			}
		})
	}
}

func TestClassifyPassthrough(t *testing.T) {
	t.Parallel()
	if classify(nil) != nil {
		t.Fatal("nil stays nil")
	}
	plain := errors.New("Bad Request: message is too long")
	if got := classify(plain); got != plain {
		t.Fatalf("ordinary errors must pass through unchanged, got %v", got)
	}
}

func TestMarkup(t *testing.T) {
	t.Parallel()
	if markup(nil) != nil {
		t.Fatal("no buttons means no markup")
	}

	rm := markup([]message.Button{
		{Label: "Open", URL: "https://pnptv.app"},
		{Label: "Help", Data: "help_menu"},
	})
	if rm == nil || len(rm.InlineKeyboard) != 2 {
		t.Fatalf("expected 2 keyboard rows, got %+v", rm)
	}
	first := rm.InlineKeyboard[0][0]
	if first.WebApp == nil || first.WebApp.URL != "https://pnptv.app" {
		t.Fatalf("url button must render as web app: %+v", first)
	}
	second := rm.InlineKeyboard[1][0]
	if second.Data != "help_menu" || second.WebApp != nil {
		t.Fatalf("data button must render as callback: %+v", second)
	}
}

func TestNewRejectsEmptyToken(t *testing.T) {
	t.Parallel()
	if _, err := New(Config{}, logx.Nop()); err == nil {
		t.Fatal("expected error for empty token")
	}
}
