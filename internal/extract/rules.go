package extract

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed denyrules.yml
var defaultRulesYAML []byte

// Rule is one compiled deny-list matcher with its category tag.
type Rule struct {
	Category string
	re       *regexp.Regexp
}

// RuleSet is an ordered chain of deny rules. An address matching any rule is
// dropped from extraction output.
type RuleSet struct {
	rules []Rule
}

type ruleFile struct {
	Rules []struct {
		Category string   `yaml:"category"`
		Patterns []string `yaml:"patterns"`
	} `yaml:"rules"`
}

// ParseRules compiles a YAML rule document into a RuleSet.
func ParseRules(b []byte) (*RuleSet, error) {
	var f ruleFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse deny rules: %w", err)
	}

	var rs RuleSet
	for _, group := range f.Rules {
		if group.Category == "" {
			return nil, fmt.Errorf("deny rule group missing category")
		}
		for _, p := range group.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("deny rule %s: compile %q: %w", group.Category, p, err)
			}
			rs.rules = append(rs.rules, Rule{Category: group.Category, re: re})
		}
	}
	if len(rs.rules) == 0 {
		return nil, fmt.Errorf("deny rule file has no patterns")
	}
	return &rs, nil
}

// LoadRules reads a rule file from disk, so categories can be extended
// without touching extraction code.
func LoadRules(path string) (*RuleSet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRules(b)
}

var (
	defaultRules     *RuleSet
	defaultRulesOnce sync.Once
)

// DefaultRules returns the embedded rule set.
func DefaultRules() *RuleSet {
	defaultRulesOnce.Do(func() {
		rs, err := ParseRules(defaultRulesYAML)
		if err != nil {
			// The embedded file ships with the binary; failing to parse it
			// is a build defect, not a runtime condition.
			panic(err)
		}
		defaultRules = rs
	})
	return defaultRules
}

// Deny reports whether addr matches any rule, and the first matching
// rule's category.
func (rs *RuleSet) Deny(addr string) (string, bool) {
	for _, r := range rs.rules {
		if r.re.MatchString(addr) {
			return r.Category, true
		}
	}
	return "", false
}

// Len reports how many compiled matchers the chain holds.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}
