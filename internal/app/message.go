// internal/app/message.go
package app

import (
	"fmt"
	"strings"
	"time"

	"econ_release_notifier/internal/domain/event"
)

// jst is the audience's reading timezone; release times are shown in both
// UTC and JST.
var jst = time.FixedZone("JST", 9*60*60)

// FormatTimePair renders t as an ISO 8601 pair: UTC with a Z suffix and JST
// with its +09:00 offset.
func FormatTimePair(t time.Time) (utcText, jstText string) {
	u := t.UTC()
	return u.Format("2006-01-02T15:04:05Z07:00"), u.In(jst).Format("2006-01-02T15:04:05-07:00")
}

// HumanizeDuration renders d like "12h 0m 0s". Hours appear only when
// non-zero, minutes whenever hours do, seconds always. Negative durations
// clamp to "0s".
func HumanizeDuration(d time.Duration) string {
	total := int(d / time.Second)
	if total < 0 {
		total = 0
	}
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))
	return strings.Join(parts, " ")
}

// BuildMessage renders the plaintext notification body for one upcoming
// release. The same body is shown in dry-run previews and delivered in apply
// mode, so operators can audit exactly what would go out.
func BuildMessage(nowUTC time.Time, ev event.Event) string {
	utcText, jstText := FormatTimePair(ev.TimeUTC)
	remaining := ev.TimeUTC.Sub(nowUTC.UTC())

	var b strings.Builder
	fmt.Fprintf(&b, "Event: %s\n", ev.Name)
	fmt.Fprintf(&b, "Country: %s\n", ev.Country)
	fmt.Fprintf(&b, "Release (UTC): %s\n", utcText)
	fmt.Fprintf(&b, "Release (JST): %s\n", jstText)
	fmt.Fprintf(&b, "Remaining: %s\n", HumanizeDuration(remaining))
	return b.String()
}
