// internal/domain/event/rules.go
package event

import (
	"fmt"
	"strings"
)

// Rule pairs a country with a name substring. The same shape serves both
// match rules and ignore rules; the filter decides which list wins.
type Rule struct {
	Country      string
	NameContains string
}

// ParseRule parses the "Country|name_contains" form used on the command line,
// e.g. "United States|CPI". Both parts must be non-empty after trimming.
func ParseRule(text string) (Rule, error) {
	country, name, found := strings.Cut(text, "|")
	if !found {
		return Rule{}, fmt.Errorf("rule %q is not in Country|name_contains form", text)
	}
	country = strings.TrimSpace(country)
	name = strings.TrimSpace(name)
	if country == "" || name == "" {
		return Rule{}, fmt.Errorf("rule %q has an empty country or name part", text)
	}
	return Rule{Country: country, NameContains: name}, nil
}

// ParseRules parses a list of rule strings, failing on the first bad one.
func ParseRules(texts []string) ([]Rule, error) {
	rules := make([]Rule, 0, len(texts))
	for _, t := range texts {
		r, err := ParseRule(t)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// Matches reports whether the rule applies to the (country, name) pair:
// country equality and name substring containment, both after normalization.
func (r Rule) Matches(country, name string) bool {
	return NormalizeText(country) == NormalizeText(r.Country) &&
		strings.Contains(NormalizeText(name), NormalizeText(r.NameContains))
}

// NormalizeText lowercases and collapses whitespace runs so that matching is
// insensitive to case and spacing differences between API payloads and
// operator-supplied filters.
func NormalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
