package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"econ_release_notifier/internal/apperr"
	"econ_release_notifier/internal/domain/event"
)

// Environment variable names.
const (
	EnvRapidAPIKey   = "RAPIDAPI_KEY"
	EnvTelegramToken = "TELEGRAM_TOKEN"
)

// CLI defaults. Every one of these is overridable per run.
const (
	DefaultLookaheadHours     = 24
	DefaultMaxItems           = 1
	DefaultMinIntervalMinutes = 1
	DefaultMaxNotifyPerRun    = 10

	DefaultNtfyServer   = "https://ntfy.sh"
	DefaultNtfyTopic    = "econ-release-notifier"
	DefaultNtfyTitle    = "Econ Release Notifier"
	DefaultNtfyPriority = "default"

	DefaultStateFile = "er.state.json"
)

// Hard caps guarding against runaway configurations.
const (
	maxLookaheadHours     = 168
	maxMaxItems           = 50
	maxMinIntervalMinutes = 24 * 60
	maxNotifyPerRun       = 200
)

// Delivery channel names accepted by --channel.
const (
	ChannelNtfy     = "ntfy"
	ChannelTelegram = "telegram"
)

var (
	// DefaultCountries follows ISO 3166-1 alpha-2; EU is kept because the
	// calendar API uses it as a region code.
	DefaultCountries = []string{"US", "EU", "JP", "GB", "CA", "CH", "AU", "NZ"}

	// DefaultMatchKeywords are matched case-insensitively against event names.
	DefaultMatchKeywords = []string{
		"Interest Rate Decision",
		"Policy Rate",
		"Non-Farm Payrolls",
		"Employment",
		"Consumer Price Index",
		"CPI",
	}
)

// Settings holds one run's validated configuration. Constructed once by Load
// and never mutated afterwards.
type Settings struct {
	Apply       bool
	NowOverride *time.Time

	LookaheadHours     int
	MaxItems           int
	MinIntervalMinutes int
	MaxNotifyPerRun    int

	Countries     []string
	MatchKeywords []string
	MatchRules    []event.Rule
	IgnoreRules   []event.Rule

	NtfyServer   string
	NtfyTopic    string
	NtfyTitle    string
	NtfyPriority string

	Channel        string
	TelegramToken  string
	TelegramChatID int64

	StatePath   string
	RapidAPIKey string

	CronSpec    string
	MetricsAddr string

	LogLevel    string
	Environment string
}

// stringList collects repeatable flag values.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Load parses flags and environment into validated Settings. A .env file is
// loaded first when present; real environment variables win over it.
func Load(args []string) (*Settings, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("econ-release-notifier", flag.ContinueOnError)

	var (
		countries stringList
		keywords  stringList
		matches   stringList
		ignores   stringList
	)

	apply := fs.Bool("apply", false, "send notifications and update state (default is dry-run)")
	nowText := fs.String("now", "", "fix the current UTC time for testing, e.g. 2026-01-03T12:34:56Z")
	lookahead := fs.Int("lookahead-hours", DefaultLookaheadHours, "how many hours ahead to scan (1..168)")
	maxItems := fs.Int("max-items", DefaultMaxItems, "maximum candidates to notify about, soonest first (1..50)")
	minInterval := fs.Int("min-interval-minutes", DefaultMinIntervalMinutes, "cooldown per event in minutes, 0 disables dedup (0..1440)")
	maxNotify := fs.Int("max-notify-per-run", DefaultMaxNotifyPerRun, "hard cap on sends per run (1..200)")
	fs.Var(&countries, "country", "country to include (repeatable; default list used when omitted)")
	fs.Var(&keywords, "match-keyword", "name substring to match (repeatable; default list used when omitted)")
	fs.Var(&matches, "match", `extra match rule "Country|name_contains" (repeatable)`)
	fs.Var(&ignores, "ignore", `ignore rule "Country|name_contains", wins over matches (repeatable)`)
	ntfyServer := fs.String("ntfy-server", DefaultNtfyServer, "ntfy server URL")
	ntfyTopic := fs.String("ntfy-topic", DefaultNtfyTopic, "ntfy topic")
	ntfyTitle := fs.String("ntfy-title", DefaultNtfyTitle, "ntfy notification title")
	ntfyPriority := fs.String("ntfy-priority", DefaultNtfyPriority, "ntfy priority (min/low/default/high/max or 1-5)")
	statePath := fs.String("state", DefaultStateFile, "dedup state file path")
	apiKey := fs.String("rapidapi-key", "", "RapidAPI key (falls back to "+EnvRapidAPIKey+")")
	rulesPath := fs.String("rules", "", "optional YAML rules file (flags win over file values)")
	channel := fs.String("channel", ChannelNtfy, "delivery channel: ntfy or telegram")
	chatID := fs.Int64("telegram-chat-id", 0, "telegram chat to notify when --channel telegram")
	cronSpec := fs.String("cron", "", "run as a daemon on this cron schedule (UTC) instead of once")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address (daemon mode only)")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, err
		}
		return nil, apperr.UsageWrap(err, "invalid arguments", "run with -h for usage")
	}
	if fs.NArg() > 0 {
		return nil, apperr.Usagef("unexpected positional arguments: %v", fs.Args())
	}

	s := &Settings{
		Apply:              *apply,
		LookaheadHours:     *lookahead,
		MaxItems:           *maxItems,
		MinIntervalMinutes: *minInterval,
		MaxNotifyPerRun:    *maxNotify,
		NtfyServer:         strings.TrimSpace(*ntfyServer),
		NtfyTopic:          strings.TrimSpace(*ntfyTopic),
		NtfyTitle:          *ntfyTitle,
		NtfyPriority:       *ntfyPriority,
		Channel:            strings.ToLower(strings.TrimSpace(*channel)),
		TelegramChatID:     *chatID,
		CronSpec:           strings.TrimSpace(*cronSpec),
		MetricsAddr:        strings.TrimSpace(*metricsAddr),
	}

	if *nowText != "" {
		t, err := event.ParseDateTimeUTC(*nowText)
		if err != nil {
			return nil, apperr.UsageWrap(err,
				fmt.Sprintf("cannot parse --now value %q", *nowText),
				"use ISO 8601, e.g. 2026-01-03T12:34:56Z")
		}
		s.NowOverride = &t
	}

	if err := validateRanges(s); err != nil {
		return nil, err
	}

	var rf *rulesFile
	if *rulesPath != "" {
		var err error
		if rf, err = loadRulesFile(*rulesPath); err != nil {
			return nil, err
		}
	}
	if err := resolveFilters(s, countries, keywords, matches, ignores, rf); err != nil {
		return nil, err
	}

	if !strings.HasPrefix(s.NtfyServer, "http://") && !strings.HasPrefix(s.NtfyServer, "https://") {
		return nil, apperr.Usage(
			fmt.Sprintf("ntfy-server %q must start with http:// or https://", s.NtfyServer),
			"pass a full server URL, e.g. https://ntfy.sh")
	}
	if s.NtfyTopic == "" || strings.Contains(s.NtfyTopic, "/") {
		return nil, apperr.Usage(
			fmt.Sprintf("ntfy-topic %q is invalid", s.NtfyTopic),
			"topics are single path segments without slashes")
	}

	switch s.Channel {
	case ChannelNtfy:
	case ChannelTelegram:
		s.TelegramToken = os.Getenv(EnvTelegramToken)
		if s.Apply && s.TelegramToken == "" {
			return nil, apperr.Usage("telegram channel selected but "+EnvTelegramToken+" is not set",
				"export "+EnvTelegramToken+" or switch back to --channel ntfy")
		}
		if s.Apply && s.TelegramChatID == 0 {
			return nil, apperr.Usage("telegram channel selected but --telegram-chat-id is not set",
				"pass the numeric chat id to notify")
		}
	default:
		return nil, apperr.Usagef("unknown channel %q (want %s or %s)", s.Channel, ChannelNtfy, ChannelTelegram)
	}

	s.RapidAPIKey = strings.TrimSpace(*apiKey)
	if s.RapidAPIKey == "" {
		s.RapidAPIKey = strings.TrimSpace(os.Getenv(EnvRapidAPIKey))
	}
	if s.RapidAPIKey == "" {
		return nil, apperr.Usage("RapidAPI key is not set",
			"pass --rapidapi-key or set the "+EnvRapidAPIKey+" environment variable")
	}

	abs, err := filepath.Abs(*statePath)
	if err != nil {
		return nil, apperr.UsageWrap(err, fmt.Sprintf("cannot resolve state path %q", *statePath), "pass an absolute --state path")
	}
	if reason := dangerousPath(abs); reason != "" {
		return nil, apperr.Usage(
			fmt.Sprintf("state path %s is refused: %s", abs, reason),
			"choose a file inside a data directory")
	}
	s.StatePath = abs

	if s.MetricsAddr != "" && s.CronSpec == "" {
		return nil, apperr.Usage("--metrics-addr requires --cron",
			"metrics are only served while the daemon is running")
	}

	s.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	s.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if s.Environment == "" {
		s.Environment = "development"
	}

	return s, nil
}

func validateRanges(s *Settings) error {
	if s.LookaheadHours < 1 || s.LookaheadHours > maxLookaheadHours {
		return apperr.Usagef("lookahead-hours %d out of range 1..%d", s.LookaheadHours, maxLookaheadHours)
	}
	if s.MaxItems < 1 || s.MaxItems > maxMaxItems {
		return apperr.Usagef("max-items %d out of range 1..%d", s.MaxItems, maxMaxItems)
	}
	if s.MinIntervalMinutes < 0 || s.MinIntervalMinutes > maxMinIntervalMinutes {
		return apperr.Usagef("min-interval-minutes %d out of range 0..%d", s.MinIntervalMinutes, maxMinIntervalMinutes)
	}
	if s.MaxNotifyPerRun < 1 || s.MaxNotifyPerRun > maxNotifyPerRun {
		return apperr.Usagef("max-notify-per-run %d out of range 1..%d", s.MaxNotifyPerRun, maxNotifyPerRun)
	}
	return nil
}

// resolveFilters applies the precedence flag > rules file > built-in default
// to the four filter lists.
func resolveFilters(s *Settings, countries, keywords, matches, ignores stringList, rf *rulesFile) error {
	s.Countries = pickList(countries, rf.countries(), DefaultCountries)
	s.MatchKeywords = pickList(keywords, rf.keywords(), DefaultMatchKeywords)

	var err error
	if len(matches) > 0 {
		s.MatchRules, err = event.ParseRules(matches)
	} else {
		s.MatchRules, err = rf.matchRules()
	}
	if err != nil {
		return apperr.UsageWrap(err, "invalid match rule", `use "Country|name_contains", e.g. "United States|CPI"`)
	}

	if len(ignores) > 0 {
		s.IgnoreRules, err = event.ParseRules(ignores)
	} else {
		s.IgnoreRules, err = rf.ignoreRules()
	}
	if err != nil {
		return apperr.UsageWrap(err, "invalid ignore rule", `use "Country|name_contains", e.g. "Japan|Tankan"`)
	}
	return nil
}

func pickList(flagValues, fileValues, defaults []string) []string {
	if len(flagValues) > 0 {
		return flagValues
	}
	if len(fileValues) > 0 {
		return fileValues
	}
	out := make([]string, len(defaults))
	copy(out, defaults)
	return out
}

// dangerousPath reports why abs must not be used as a state file, or ""
// when it is acceptable. Filesystem roots and files directly under a volume
// root are refused.
func dangerousPath(abs string) string {
	root := filepath.VolumeName(abs) + string(filepath.Separator)
	switch {
	case abs == root:
		return "path is a filesystem root"
	case filepath.Dir(abs) == root:
		return "path is directly under a filesystem root"
	}
	return ""
}

// Now returns the override when set, the wall clock otherwise. Always UTC.
func (s *Settings) Now() time.Time {
	if s.NowOverride != nil {
		return s.NowOverride.UTC()
	}
	return time.Now().UTC()
}

// MinInterval is the dedup cooldown as a duration.
func (s *Settings) MinInterval() time.Duration {
	return time.Duration(s.MinIntervalMinutes) * time.Minute
}

// Criteria assembles the filter inputs for one run at nowUTC.
func (s *Settings) Criteria(nowUTC time.Time) event.Criteria {
	return event.Criteria{
		NowUTC:         nowUTC,
		LookaheadHours: s.LookaheadHours,
		Countries:      s.Countries,
		Keywords:       s.MatchKeywords,
		MatchRules:     s.MatchRules,
		IgnoreRules:    s.IgnoreRules,
		MaxItems:       s.MaxItems,
	}
}

// NtfyURL is the publish endpoint for the configured server and topic.
func (s *Settings) NtfyURL() string {
	return strings.TrimRight(s.NtfyServer, "/") + "/" + s.NtfyTopic
}
