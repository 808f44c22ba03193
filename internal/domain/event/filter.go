// internal/domain/event/filter.go
package event

import (
	"sort"
	"strings"
	"time"
)

// Criteria is the filtering slice of the run settings.
type Criteria struct {
	NowUTC         time.Time
	LookaheadHours int
	Countries      []string
	Keywords       []string
	MatchRules     []Rule
	IgnoreRules    []Rule
	MaxItems       int
}

// Filter applies the gates in fixed order: time window, country allow-list,
// keyword-or-rule match, ignore override. Survivors are sorted ascending by
// release time (stable for equal timestamps) and truncated to MaxItems, so
// the soonest releases win when there are more candidates than the cap.
func Filter(events []Event, c Criteria) []Event {
	end := c.NowUTC.Add(time.Duration(c.LookaheadHours) * time.Hour)

	kept := make([]Event, 0, len(events))
	for _, ev := range events {
		// Window bounds are inclusive; anything strictly in the past is out.
		if ev.TimeUTC.Before(c.NowUTC) || ev.TimeUTC.After(end) {
			continue
		}
		if len(c.Countries) > 0 && !countryAllowed(ev.Country, c.Countries) {
			continue
		}
		if !keywordMatches(ev.Name, c.Keywords) && !anyRuleMatches(c.MatchRules, ev.Country, ev.Name) {
			continue
		}
		// Ignore always wins, whatever matched above.
		if anyRuleMatches(c.IgnoreRules, ev.Country, ev.Name) {
			continue
		}
		kept = append(kept, ev)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].TimeUTC.Before(kept[j].TimeUTC)
	})
	if c.MaxItems > 0 && len(kept) > c.MaxItems {
		kept = kept[:c.MaxItems]
	}
	return kept
}

func countryAllowed(country string, allowed []string) bool {
	c := NormalizeText(country)
	for _, a := range allowed {
		if c == NormalizeText(a) {
			return true
		}
	}
	return false
}

func keywordMatches(name string, keywords []string) bool {
	n := NormalizeText(name)
	for _, kw := range keywords {
		if strings.Contains(n, NormalizeText(kw)) {
			return true
		}
	}
	return false
}

func anyRuleMatches(rules []Rule, country, name string) bool {
	for _, r := range rules {
		if r.Matches(country, name) {
			return true
		}
	}
	return false
}
