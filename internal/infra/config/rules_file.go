// internal/infra/config/rules_file.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"econ_release_notifier/internal/apperr"
	"econ_release_notifier/internal/domain/event"
)

// rulesFile is the optional YAML companion to the filter flags:
//
//	countries: [US, EU]
//	keywords: ["CPI", "Policy Rate"]
//	match:
//	  - country: United States
//	    name_contains: PMI
//	ignore:
//	  - country: Japan
//	    name_contains: Tankan
//
// Flags always win over file values; file values win over built-in defaults.
type rulesFile struct {
	Countries []string   `yaml:"countries"`
	Keywords  []string   `yaml:"keywords"`
	Match     []ruleSpec `yaml:"match"`
	Ignore    []ruleSpec `yaml:"ignore"`
}

type ruleSpec struct {
	Country      string `yaml:"country"`
	NameContains string `yaml:"name_contains"`
}

func loadRulesFile(path string) (*rulesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.UsageWrap(err,
			fmt.Sprintf("cannot read rules file %s", path),
			"check the --rules path")
	}
	var rf rulesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, apperr.UsageWrap(err,
			fmt.Sprintf("rules file %s is not valid YAML", path),
			"expected keys: countries, keywords, match, ignore")
	}
	return &rf, nil
}

// The accessors below tolerate a nil receiver so Load can treat "no rules
// file" and "empty rules file" the same way.

func (rf *rulesFile) countries() []string {
	if rf == nil {
		return nil
	}
	return rf.Countries
}

func (rf *rulesFile) keywords() []string {
	if rf == nil {
		return nil
	}
	return rf.Keywords
}

func (rf *rulesFile) matchRules() ([]event.Rule, error) {
	if rf == nil {
		return nil, nil
	}
	return convertRuleSpecs(rf.Match)
}

func (rf *rulesFile) ignoreRules() ([]event.Rule, error) {
	if rf == nil {
		return nil, nil
	}
	return convertRuleSpecs(rf.Ignore)
}

func convertRuleSpecs(specs []ruleSpec) ([]event.Rule, error) {
	rules := make([]event.Rule, 0, len(specs))
	for _, sp := range specs {
		if sp.Country == "" || sp.NameContains == "" {
			return nil, fmt.Errorf("rule {country: %q, name_contains: %q} has an empty field", sp.Country, sp.NameContains)
		}
		rules = append(rules, event.Rule{Country: sp.Country, NameContains: sp.NameContains})
	}
	return rules, nil
}
