// internal/domain/ledger/ledger.go
package ledger

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// timeLayout matches the identity-key timestamp: UTC, second precision, Z.
const timeLayout = "2006-01-02T15:04:05Z07:00"

// MaxEntries bounds ledger growth. RecordSend trims back to this size.
const MaxEntries = 500

// Entry records when an event key last produced a notification.
type Entry struct {
	LastNotifiedAtUTC string `json:"lastNotifiedAtUTC"`
}

// Ledger is the durable dedup bookkeeping that survives across runs. An entry
// for a key means a delivery for that event succeeded at the recorded time.
type Ledger struct {
	Events              map[string]Entry `json:"events"`
	LastNotifiedTimeUTC *string          `json:"lastNotifiedTimeUTC"`
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{Events: make(map[string]Entry)}
}

// Decode parses a stored ledger document. Ledgers in the legacy format (a
// flat "notified" list with permanent-suppression semantics) are upgraded in
// place: each legacy key not already present is seeded as notified at now, so
// the cooldown window takes over instead of suppressing forever or allowing
// an immediate duplicate burst.
func Decode(data []byte, now time.Time) (*Ledger, error) {
	var raw struct {
		Events              map[string]Entry `json:"events"`
		LastNotifiedTimeUTC *string          `json:"lastNotifiedTimeUTC"`
		Notified            []string         `json:"notified"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing ledger: %w", err)
	}

	l := &Ledger{Events: raw.Events, LastNotifiedTimeUTC: raw.LastNotifiedTimeUTC}
	if l.Events == nil {
		l.Events = make(map[string]Entry)
	}
	seeded := FormatTime(now)
	for _, key := range raw.Notified {
		if _, ok := l.Events[key]; !ok {
			l.Events[key] = Entry{LastNotifiedAtUTC: seeded}
		}
	}
	return l, nil
}

// Encode renders the ledger as indented JSON for operator inspection.
func (l *Ledger) Encode() ([]byte, error) {
	if l.Events == nil {
		l.Events = make(map[string]Entry)
	}
	return json.MarshalIndent(l, "", "  ")
}

// ShouldSkip reports whether key is still inside its cooldown window at
// nowUTC. When it is, the remaining wait is also returned. A non-positive
// interval disables dedup entirely; an absent key or an entry whose timestamp
// no longer parses never skips.
func (l *Ledger) ShouldSkip(key string, nowUTC time.Time, minInterval time.Duration) (bool, time.Duration) {
	if minInterval <= 0 {
		return false, 0
	}
	entry, ok := l.Events[key]
	if !ok {
		return false, 0
	}
	last, err := ParseTime(entry.LastNotifiedAtUTC)
	if err != nil {
		return false, 0
	}
	elapsed := nowUTC.UTC().Sub(last)
	if elapsed < minInterval {
		return true, minInterval - elapsed
	}
	return false, 0
}

// RecordSend marks key as notified at nowUTC and moves the scalar
// last-notified marker to the event's own release time, then trims the map
// if it grew past MaxEntries. Callers only invoke this after a delivery
// succeeded.
func (l *Ledger) RecordSend(key string, releaseTimeUTC, nowUTC time.Time) {
	if l.Events == nil {
		l.Events = make(map[string]Entry)
	}
	l.Events[key] = Entry{LastNotifiedAtUTC: FormatTime(nowUTC)}
	release := FormatTime(releaseTimeUTC)
	l.LastNotifiedTimeUTC = &release
	l.trim()
}

// trim evicts the oldest entries until MaxEntries remain. Entries whose
// timestamp no longer parses evict first; ties fall back to key order so the
// result is deterministic regardless of map iteration order.
func (l *Ledger) trim() {
	if len(l.Events) <= MaxEntries {
		return
	}
	type aged struct {
		key string
		at  time.Time
		bad bool
	}
	entries := make([]aged, 0, len(l.Events))
	for k, e := range l.Events {
		t, err := ParseTime(e.LastNotifiedAtUTC)
		entries = append(entries, aged{key: k, at: t, bad: err != nil})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.bad != b.bad {
			return a.bad
		}
		if !a.at.Equal(b.at) {
			return a.at.Before(b.at)
		}
		return a.key < b.key
	})
	for _, e := range entries[:len(entries)-MaxEntries] {
		delete(l.Events, e.key)
	}
}

// FormatTime renders t in the ledger wire format.
func FormatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(timeLayout)
}

// ParseTime parses a ledger timestamp. Zone-less values count as UTC so that
// hand-edited files stay readable.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized ledger timestamp %q", s)
	}
	return t, nil
}
