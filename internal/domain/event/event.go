// internal/domain/event/event.go
package event

import (
	"fmt"
	"time"
)

// RawRecord is one untyped record as returned by the calendar API. The API
// shape is not stable; the normalizer probes well-known field aliases.
type RawRecord map[string]any

// Event is a canonical economic release. TimeUTC is always UTC; constructors
// must never let a zone-less timestamp through.
type Event struct {
	Name    string
	Country string
	TimeUTC time.Time
	Raw     RawRecord
}

// keyTimeLayout renders second precision with a literal Z for UTC.
const keyTimeLayout = "2006-01-02T15:04:05Z07:00"

// Key is the dedup identity of the event. It must be stable across runs for
// the same underlying release, so the timestamp is truncated to the second
// before formatting.
func (e Event) Key() string {
	t := e.TimeUTC.UTC().Truncate(time.Second).Format(keyTimeLayout)
	return fmt.Sprintf("%s|%s|%s", t, e.Country, e.Name)
}
