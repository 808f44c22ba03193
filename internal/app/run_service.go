// internal/app/run_service.go
package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"econ_release_notifier/internal/domain/event"
	"econ_release_notifier/internal/domain/ledger"
	"econ_release_notifier/internal/domain/notify"
	"econ_release_notifier/internal/infra/config"
)

// RunService drives one notification run end to end: fetch, normalize,
// filter, dedup check, deliver, persist.
type RunService interface {
	Run(ctx context.Context) (*RunReport, error)
}

// RunReport summarizes what one run did. Counters are filled in even when
// the run fails partway, so callers can still observe progress.
type RunReport struct {
	Fetched       int
	Normalized    int
	Candidates    int
	Sent          int
	Suppressed    int
	SkippedBudget int
	Applied       bool
}

// RunServiceImpl implements the RunService interface.
type RunServiceImpl struct {
	source   event.Source
	notifier notify.Notifier
	states   ledger.Repository
	cfg      *config.Settings
	logger   *logrus.Logger
	out      io.Writer
}

func NewRunServiceImpl(
	source event.Source,
	notifier notify.Notifier,
	states ledger.Repository,
	cfg *config.Settings,
	logger *logrus.Logger,
	out io.Writer,
) *RunServiceImpl {
	return &RunServiceImpl{
		source:   source,
		notifier: notifier,
		states:   states,
		cfg:      cfg,
		logger:   logger,
		out:      out,
	}
}

// Run executes one full cycle. The plan is printed before any network
// activity so operators can audit a dry-run before enabling apply mode.
func (s *RunServiceImpl) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{Applied: s.cfg.Apply}
	nowUTC := s.cfg.Now()

	log := s.logger.WithFields(logrus.Fields{
		"run_id": uuid.NewString(),
		"mode":   s.modeLabel(),
	})
	log.WithField("now_utc", ledger.FormatTime(nowUTC)).Info("run started")

	s.printPlan(nowUTC)

	// 1. Fetch raw records from the calendar API.
	raw, err := s.source.Fetch(ctx)
	if err != nil {
		log.WithError(err).Error("calendar fetch failed")
		return report, fmt.Errorf("fetch calendar events: %w", err)
	}
	report.Fetched = len(raw)

	// 2. Normalize and filter down to the candidates for this window.
	events := event.Normalize(raw)
	report.Normalized = len(events)

	targets := event.Filter(events, s.cfg.Criteria(nowUTC))
	report.Candidates = len(targets)
	log.WithFields(logrus.Fields{
		"fetched":    report.Fetched,
		"normalized": report.Normalized,
		"candidates": report.Candidates,
	}).Debug("pipeline counts")

	if len(targets) == 0 {
		fmt.Fprintln(s.out, "no matching releases in the window; nothing to notify")
		log.Info("run finished: no candidates")
		return report, nil
	}

	// 3. Load the dedup ledger. Absent file means an empty ledger.
	led, err := s.states.Load(ctx, nowUTC)
	if err != nil {
		log.WithError(err).Error("state load failed")
		return report, err
	}

	// 4. Walk candidates soonest first, respecting the per-run send budget.
	// Only successful apply-mode sends consume budget; suppressed candidates
	// and dry-run previews do not.
	sent := 0
	for i, ev := range targets {
		if sent >= s.cfg.MaxNotifyPerRun {
			report.SkippedBudget = len(targets) - i
			fmt.Fprintf(s.out, "per-run notify budget reached (%d); %d candidate(s) left unsent\n",
				s.cfg.MaxNotifyPerRun, report.SkippedBudget)
			log.WithField("unsent", report.SkippedBudget).Warn("send budget exhausted")
			break
		}

		key := ev.Key()
		skip, remaining := led.ShouldSkip(key, nowUTC, s.cfg.MinInterval())
		if skip {
			report.Suppressed++
			fmt.Fprintf(s.out, "suppressed by min interval (about %ds remaining): %s\n",
				int(remaining/time.Second), key)
			log.WithField("key", key).Debug("candidate suppressed by cooldown")
			continue
		}

		msg := BuildMessage(nowUTC, ev)
		fmt.Fprintln(s.out, "--- notification ---")
		fmt.Fprint(s.out, msg)
		fmt.Fprintln(s.out, "--------------------")

		if !s.cfg.Apply {
			fmt.Fprintln(s.out, "dry-run: nothing sent (pass --apply to send)")
			continue
		}

		// A ledger entry must imply a successful delivery attempt, so the
		// ledger is only touched after Send returns cleanly.
		if err := s.notifier.Send(ctx, msg); err != nil {
			log.WithError(err).WithField("key", key).Error("delivery failed")
			return report, fmt.Errorf("deliver notification for %s: %w", key, err)
		}
		led.RecordSend(key, ev.TimeUTC, nowUTC)
		sent++
		report.Sent++
		log.WithField("key", key).Info("notification sent")
	}

	// 5. Persist the ledger exactly once, and only when something was sent.
	if s.cfg.Apply && sent > 0 {
		if err := s.states.Save(ctx, led); err != nil {
			log.WithError(err).Error("state save failed")
			return report, fmt.Errorf("persist state: %w", err)
		}
		fmt.Fprintf(s.out, "state updated: %s\n", s.cfg.StatePath)
	} else if s.cfg.Apply {
		fmt.Fprintln(s.out, "nothing sent (suppressed or none eligible); state not updated")
	}

	log.WithFields(logrus.Fields{
		"sent":       report.Sent,
		"suppressed": report.Suppressed,
	}).Info("run finished")
	return report, nil
}

func (s *RunServiceImpl) modeLabel() string {
	if s.cfg.Apply {
		return "apply"
	}
	return "dry-run"
}

// printPlan writes the pre-flight summary of what this run will look at and
// where it would deliver.
func (s *RunServiceImpl) printPlan(nowUTC time.Time) {
	endUTC := nowUTC.Add(time.Duration(s.cfg.LookaheadHours) * time.Hour)
	nowU, nowJ := FormatTimePair(nowUTC)
	endU, endJ := FormatTimePair(endUTC)

	fmt.Fprintln(s.out, "=== run plan ===")
	if s.cfg.Apply {
		fmt.Fprintln(s.out, "- mode: APPLY (notifications will be sent, state will be written)")
	} else {
		fmt.Fprintln(s.out, "- mode: DRY-RUN (no sends, no state writes)")
	}
	fmt.Fprintf(s.out, "- now (UTC): %s\n", nowU)
	fmt.Fprintf(s.out, "- now (JST): %s\n", nowJ)
	fmt.Fprintf(s.out, "- window (UTC): %s .. %s\n", nowU, endU)
	fmt.Fprintf(s.out, "- window (JST): %s .. %s\n", nowJ, endJ)
	fmt.Fprintf(s.out, "- countries: %s\n", joinOrNone(s.cfg.Countries))
	fmt.Fprintf(s.out, "- keywords: %s\n", joinOrNone(s.cfg.MatchKeywords))
	fmt.Fprintf(s.out, "- match rules: %s\n", joinRulesOrNone(s.cfg.MatchRules))
	fmt.Fprintf(s.out, "- ignore rules: %s\n", joinRulesOrNone(s.cfg.IgnoreRules))
	fmt.Fprintf(s.out, "- max items: %d\n", s.cfg.MaxItems)
	fmt.Fprintf(s.out, "- min interval (minutes): %d\n", s.cfg.MinIntervalMinutes)
	fmt.Fprintf(s.out, "- max notify per run: %d\n", s.cfg.MaxNotifyPerRun)
	fmt.Fprintf(s.out, "- target: %s\n", s.targetLabel())
	fmt.Fprintf(s.out, "- state file: %s\n", s.cfg.StatePath)
	fmt.Fprintln(s.out, "================")
}

func (s *RunServiceImpl) targetLabel() string {
	if s.cfg.Channel == config.ChannelTelegram {
		return fmt.Sprintf("telegram chat %d", s.cfg.TelegramChatID)
	}
	return fmt.Sprintf("ntfy %s (title %q, priority %s)", s.cfg.NtfyURL(), s.cfg.NtfyTitle, s.cfg.NtfyPriority)
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

func joinRulesOrNone(rules []event.Rule) string {
	if len(rules) == 0 {
		return "(none)"
	}
	parts := make([]string, len(rules))
	for i, r := range rules {
		parts[i] = r.Country + "|" + r.NameContains
	}
	return strings.Join(parts, ", ")
}
