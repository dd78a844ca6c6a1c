package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"

	"primecast/internal/config"
	"primecast/internal/dispatch"
	"primecast/internal/journal"
	"primecast/internal/message"
	"primecast/internal/recipient"
	"primecast/internal/schedule"
	"primecast/internal/transport"
	"primecast/internal/transport/email"
	"primecast/internal/transport/telegram"
	logx "primecast/pkg/logx"
)

// Exit codes: 0 everything sent (or nothing to do), 1 run completed with
// blocked/failed recipients, 2 aborted (config, load, or session error).
const (
	exitOK      = 0
	exitPartial = 1
	exitAborted = 2
)

func main() {
	var (
		cfgPath string
		channel string
		offset  int
		dryRun  bool
	)
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config yaml")
	flag.StringVar(&channel, "channel", "telegram", "broadcast channel: telegram or email")
	flag.IntVar(&offset, "offset", 0, "resume from recipient index")
	flag.BoolVar(&dryRun, "dry-run", false, "log instead of sending; journal stays untouched")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	os.Exit(run(ctx, cfgPath, channel, offset, dryRun))
}

func run(ctx context.Context, cfgPath, channel string, offset int, dryRun bool) int {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return exitAborted
	}
	if err := cfg.Validate(channel); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return exitAborted
	}

	log, closeLog, err := logx.New(cfg.Logging.Logx())
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return exitAborted
	}
	defer closeLog()
	log = log.With(logx.String("channel", channel))

	if err := schedule.Wait(ctx, cfg.RunAt, log); err != nil {
		log.Error("scheduled start aborted", logx.Err(err))
		return exitAborted
	}

	recs, err := loadRecipients(ctx, cfg, channel)
	if err != nil {
		log.Error("recipient query failed", logx.Err(err))
		return exitAborted
	}
	if len(recs) == 0 {
		log.Info("no prime recipients found, nothing to send")
		return exitOK
	}
	en, es := recipient.Breakdown(recs)
	log.Info("recipients loaded",
		logx.Int("total", len(recs)),
		logx.Int("english", en),
		logx.Int("spanish", es))

	catalog, delivery, err := channelSetup(cfg, channel)
	if err != nil {
		log.Error("channel setup failed", logx.Err(err))
		return exitAborted
	}

	jrnl, err := journal.Open(cfg.JournalPath, log)
	if err != nil {
		log.Error("journal open failed", logx.Err(err))
		return exitAborted
	}
	defer jrnl.Close()

	sender, closeSender, err := buildSender(cfg, channel, delivery, dryRun, log)
	if err != nil {
		log.Error("transport setup failed", logx.Err(err))
		return exitAborted
	}
	defer closeSender()

	disp := dispatch.New(dispatch.Config{
		Channel:        channel,
		Pace:           delivery.Pace,
		SendTimeout:    delivery.SendTimeout,
		RetryMax:       delivery.RetryMax,
		RetryMargin:    delivery.RetryMargin,
		RetryBase:      delivery.RetryBase,
		RetryTransient: delivery.RetryTransient,
		Offset:         offset,
	}, sender, catalog, journalFor(jrnl, dryRun), log)
	disp.OnProgress = func(done, total int) {
		_, _ = daemon.SdNotify(false, fmt.Sprintf("STATUS=dispatching %d/%d", done, total))
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	rep, runErr := disp.Run(ctx, recs)
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	rep.Log(log)
	if cfg.ReportPath != "" {
		if werr := rep.WriteFile(cfg.ReportPath); werr != nil {
			log.Error("report not persisted", logx.Err(werr))
		} else {
			log.Info("report written", logx.String("path", cfg.ReportPath))
		}
	}

	switch {
	case runErr != nil:
		log.Error("run aborted", logx.Err(runErr))
		return exitAborted
	case rep.Interrupted:
		return exitAborted
	case rep.Ok():
		return exitOK
	default:
		return exitPartial
	}
}

func loadRecipients(ctx context.Context, cfg *config.Config, channel string) ([]recipient.Record, error) {
	opts := recipient.ParseOptions{RequireAt: channel == "email"}
	var src recipient.Source
	if len(cfg.Recipients.Command) > 0 {
		src = recipient.CommandSource{Argv: cfg.Recipients.Command, Options: opts}
	} else {
		src = recipient.FileSource{Path: cfg.Recipients.File, Options: opts}
	}
	return src.Load(ctx)
}

func channelSetup(cfg *config.Config, channel string) (message.Catalog, config.Delivery, error) {
	switch channel {
	case "telegram":
		d, err := cfg.Telegram.Resolve("telegram", config.TelegramDefaults)
		if err != nil {
			return message.Catalog{}, config.Delivery{}, err
		}
		return message.TelegramPrimeWelcome(), d, nil
	case "email":
		d, err := cfg.Email.Resolve("email", config.EmailDefaults)
		if err != nil {
			return message.Catalog{}, config.Delivery{}, err
		}
		cat, err := message.EmailPrimeWelcome(cfg.Email.TemplateDir)
		if err != nil {
			return message.Catalog{}, config.Delivery{}, err
		}
		return cat, d, nil
	}
	return message.Catalog{}, config.Delivery{}, fmt.Errorf("unknown channel %q", channel)
}

func buildSender(cfg *config.Config, channel string, d config.Delivery, dryRun bool, log logx.Logger) (transport.Sender, func() error, error) {
	noop := func() error { return nil }
	if dryRun {
		return dryRunSender{log: log}, noop, nil
	}
	switch channel {
	case "telegram":
		s, err := telegram.New(telegram.Config{
			Token:   cfg.Telegram.Token,
			Timeout: d.SendTimeout,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case "email":
		s, err := email.Open(email.Config{
			Host:        cfg.Email.Host,
			Port:        cfg.Email.Port,
			Username:    cfg.Email.Username,
			Password:    cfg.Email.Password,
			FromAddress: cfg.Email.FromAddress,
			FromName:    cfg.Email.FromName,
			ReplyTo:     cfg.Email.ReplyTo,
			Timeout:     d.SendTimeout,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown channel %q", channel)
}

// journalFor keeps dry runs from writing the completed-set while still
// exercising the rest of the pipeline.
func journalFor(j *journal.Journal, dryRun bool) dispatch.Journal {
	if j == nil || dryRun {
		return nil
	}
	return j
}

// dryRunSender logs the would-be delivery and reports success.
type dryRunSender struct {
	log logx.Logger
}

func (s dryRunSender) Send(_ context.Context, rec recipient.Record, msg message.Template) error {
	s.log.Info("dry-run send",
		logx.String("contact", rec.Contact),
		logx.String("subject", msg.Subject),
		logx.Int("body_len", len(msg.Text)))
	return nil
}
