// cmd/notifier/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"econ_release_notifier/internal/app"
	"econ_release_notifier/internal/apperr"
	"econ_release_notifier/internal/domain/notify"
	"econ_release_notifier/internal/infra/calendar"
	"econ_release_notifier/internal/infra/config"
	"econ_release_notifier/internal/infra/logger"
	"econ_release_notifier/internal/infra/metrics"
	"econ_release_notifier/internal/infra/ntfy"
	"econ_release_notifier/internal/infra/scheduler"
	"econ_release_notifier/internal/infra/state"
	"econ_release_notifier/internal/infra/telegram"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		reportError(err)
		return apperr.ExitCode(err)
	}

	logger.Init(cfg.LogLevel, cfg.Environment)
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier, err := buildNotifier(cfg)
	if err != nil {
		reportError(err)
		return apperr.ExitCode(err)
	}

	source := calendar.New(cfg.RapidAPIKey)
	states := state.NewFileStore(cfg.StatePath)
	svc := app.NewRunServiceImpl(source, notifier, states, cfg, log, os.Stdout)

	if cfg.CronSpec != "" {
		return runDaemon(ctx, cfg, svc, log)
	}

	if _, err := svc.Run(ctx); err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "interrupted")
			return 130
		}
		reportError(err)
		return apperr.ExitCode(err)
	}
	return 0
}

// buildNotifier picks the delivery client for the configured channel.
func buildNotifier(cfg *config.Settings) (notify.Notifier, error) {
	if cfg.Channel == config.ChannelTelegram {
		if !cfg.Apply {
			// telebot verifies the token over the network at construction;
			// a dry run never delivers, so skip the session entirely.
			return notify.Discard{}, nil
		}
		bot, err := telegram.NewBot(cfg.TelegramToken)
		if err != nil {
			return nil, err
		}
		return telegram.NewTelebotAdapter(bot, cfg.TelegramChatID), nil
	}
	return ntfy.New(cfg.NtfyURL(), cfg.NtfyTitle, cfg.NtfyPriority), nil
}

// runDaemon keeps the scheduler (and, when configured, the metrics endpoint)
// alive until a shutdown signal arrives. Individual run failures are logged
// and counted but never stop the daemon.
func runDaemon(ctx context.Context, cfg *config.Settings, svc app.RunService, log *logrus.Logger) int {
	var obs scheduler.Observer
	var msrv *metrics.Server
	if cfg.MetricsAddr != "" {
		msrv = metrics.NewServer(cfg.MetricsAddr)
		obs = msrv
		go func() {
			if err := msrv.Serve(); err != nil {
				log.WithError(err).Error("metrics server failed")
			}
		}()
		log.WithField("addr", cfg.MetricsAddr).Info("metrics server started")
	}

	sched := scheduler.NewRunScheduler(svc, log, obs, cfg.CronSpec)
	if err := sched.Start(); err != nil {
		reportError(err)
		return apperr.ExitCode(err)
	}

	<-ctx.Done()
	log.Info("shutdown signal received")
	sched.Stop()
	if msrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := msrv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("metrics server shutdown failed")
		}
	}
	return 0
}

// reportError writes the operator-facing failure summary to stderr. Usage
// and transport errors come with their message (and hint, when present);
// anything else is surfaced with its type and a partial-completion warning.
func reportError(err error) {
	if e, ok := apperr.As(err); ok {
		fmt.Fprintln(os.Stderr, "ERROR: "+err.Error())
		if e.Hint() != "" {
			fmt.Fprintln(os.Stderr, "hint: "+e.Hint())
		}
		return
	}
	fmt.Fprintf(os.Stderr, "ERROR: unexpected %T: %v\n", err, err)
	fmt.Fprintln(os.Stderr, "warning: the run stopped partway; notifications and state updates may be incomplete")
}
