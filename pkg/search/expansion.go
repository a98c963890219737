package search

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ExpansionRule maps a query substring to its expanded form.
type ExpansionRule struct {
	Match     string `yaml:"match"`
	Expansion string `yaml:"expansion"`
}

// DefaultExpansionRules is the built-in substring dictionary. It is a
// deliberately simple stand-in for a smarter expansion stage.
var DefaultExpansionRules = []ExpansionRule{
	{Match: "ml", Expansion: "machine learning"},
	{Match: "ai", Expansion: "artificial intelligence"},
	{Match: "nlp", Expansion: "natural language processing"},
	{Match: "db", Expansion: "database"},
	{Match: "knn", Expansion: "nearest neighbor search"},
}

// LoadExpansionRules reads a YAML file of match -> expansion pairs.
//
//	rules:
//	  ml: machine learning
//	  ai: artificial intelligence
func LoadExpansionRules(path string) ([]ExpansionRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read expansion rules: %w", err)
	}

	var doc struct {
		Rules map[string]string `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse expansion rules: %w", err)
	}

	rules := make([]ExpansionRule, 0, len(doc.Rules))
	for match, expansion := range doc.Rules {
		rules = append(rules, ExpansionRule{Match: match, Expansion: expansion})
	}
	sortRules(rules)
	return rules, nil
}

// sortRules orders rules longest match first so that overlapping matches
// expand deterministically.
func sortRules(rules []ExpansionRule) {
	sort.Slice(rules, func(i, j int) bool {
		if len(rules[i].Match) != len(rules[j].Match) {
			return len(rules[i].Match) > len(rules[j].Match)
		}
		return rules[i].Match < rules[j].Match
	})
}

// expandQuery applies every matching rule as a substring substitution and
// returns the expanded query. The result equals the input when no rule
// matches.
func expandQuery(query string, rules []ExpansionRule) string {
	expanded := query
	for _, rule := range rules {
		expanded = strings.ReplaceAll(expanded, rule.Match, rule.Expansion)
	}
	return expanded
}
