// internal/domain/event/normalize.go
package event

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Placeholders for records that carry a release time but no usable name or
// country field. Such records are kept, not dropped.
const (
	UnknownName    = "(unknown event)"
	UnknownCountry = "(unknown country)"
)

// Field aliases seen across calendar API payload variants. Country probes
// coded fields before display-name fields.
var (
	epochAliases    = []string{"timestamp", "timeStamp", "ts"}
	datetimeAliases = []string{"datetime", "dateTime", "date_time", "eventTime", "event_time", "time"}
	nameAliases     = []string{"event", "name", "title", "indicator", "economicIndicator"}
	countryAliases  = []string{"countryCode", "country_code", "country", "countryName", "country_name"}
)

// Normalize converts raw records into canonical events. A record without a
// parseable release time is dropped silently; a missing name or country only
// earns a placeholder.
func Normalize(records []RawRecord) []Event {
	events := make([]Event, 0, len(records))
	for _, raw := range records {
		t, ok := extractTimeUTC(raw)
		if !ok {
			continue
		}
		events = append(events, Event{
			Name:    extractName(raw),
			Country: extractCountry(raw),
			TimeUTC: t,
			Raw:     raw,
		})
	}
	return events
}

// extractTimeUTC runs the extraction strategies in order. Each strategy is
// total; the first success wins and a failed strategy falls through to the
// next one.
func extractTimeUTC(raw RawRecord) (time.Time, bool) {
	if t, ok := epochTime(raw); ok {
		return t, true
	}
	if t, ok := datetimeText(raw); ok {
		return t, true
	}
	return dateAndTime(raw)
}

// epochTime reads a numeric epoch. Values above 1e12 are milliseconds,
// anything else seconds. Values the clock cannot represent fail the
// strategy instead of producing a garbage time.
func epochTime(raw RawRecord) (time.Time, bool) {
	for _, k := range epochAliases {
		n, ok := numericValue(raw[k])
		if !ok {
			continue
		}
		ms := n * 1000
		if n > 1e12 {
			ms = n
		}
		if ms >= math.MaxInt64 || ms <= math.MinInt64 {
			continue
		}
		return time.UnixMilli(int64(ms)).UTC(), true
	}
	return time.Time{}, false
}

func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func datetimeText(raw RawRecord) (time.Time, bool) {
	for _, k := range datetimeAliases {
		s, ok := raw[k].(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		if t, err := ParseDateTimeUTC(s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dateAndTime joins separate date and time fields with a T. When a time field
// is present but the combination does not parse, the record is dropped rather
// than silently falling back to midnight.
func dateAndTime(raw RawRecord) (time.Time, bool) {
	d, ok := raw["date"].(string)
	if !ok || strings.TrimSpace(d) == "" {
		return time.Time{}, false
	}
	d = strings.TrimSpace(d)
	if tv, ok := raw["time"].(string); ok && strings.TrimSpace(tv) != "" {
		t, err := ParseDateTimeUTC(d + "T" + strings.TrimSpace(tv))
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	t, err := ParseDateTimeUTC(d)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Layouts carrying an explicit zone or offset.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
}

// Layouts with no zone information; these are interpreted as UTC.
var nakedLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDateTimeUTC parses an ISO-8601-ish datetime and returns it in UTC.
// A single bare space between date and time is promoted to T. Input without
// a zone or offset is interpreted as UTC; that policy resolves the ambiguity
// once instead of guessing per record.
func ParseDateTimeUTC(text string) (time.Time, error) {
	s := strings.TrimSpace(text)
	if strings.Contains(s, " ") && !strings.Contains(s, "T") {
		s = strings.Replace(s, " ", "T", 1)
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range nakedLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime %q", text)
}

func extractName(raw RawRecord) string {
	for _, k := range nameAliases {
		if s, ok := raw[k].(string); ok {
			if v := strings.TrimSpace(s); v != "" {
				return v
			}
		}
	}
	return UnknownName
}

func extractCountry(raw RawRecord) string {
	for _, k := range countryAliases {
		if s, ok := raw[k].(string); ok {
			if v := strings.TrimSpace(s); v != "" {
				return v
			}
		}
	}
	return UnknownCountry
}
