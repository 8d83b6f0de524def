package policy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/DrSkyle/azmigrate/pkg/resource"
)

// Rule is one named exclude condition.
type Rule struct {
	ID        string `json:"id"`
	Condition string `json:"condition"` // CEL expression: "tags.env == 'dev' && category == 'compute'"
}

var namedRule = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_-]*):\s+(.+)$`)

// ParseRules turns config strings into rules. "name: expr" names a rule;
// bare expressions are numbered.
func ParseRules(raw []string) []Rule {
	rules := make([]Rule, 0, len(raw))
	for i, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if m := namedRule.FindStringSubmatch(r); m != nil {
			rules = append(rules, Rule{ID: m[1], Condition: m[2]})
			continue
		}
		rules = append(rules, Rule{ID: fmt.Sprintf("exclude-%d", i+1), Condition: r})
	}
	return rules
}

// Filter drops resources matched by any exclude rule.
type Filter struct {
	engine *CELEngine
}

// NewFilter compiles raw exclude rules. An empty list yields a filter that keeps everything.
func NewFilter(raw []string) (*Filter, error) {
	engine, err := NewCELEngine()
	if err != nil {
		return nil, err
	}
	if err := engine.Compile(ParseRules(raw)); err != nil {
		return nil, err
	}
	return &Filter{engine: engine}, nil
}

// Keep reports whether d survives the filter.
func (f *Filter) Keep(d resource.Descriptor) bool {
	if f == nil || f.engine.Len() == 0 {
		return true
	}
	return !f.engine.Excludes(d)
}
