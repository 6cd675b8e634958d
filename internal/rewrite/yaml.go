package rewrite

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RuleSpec is the on-disk form of a rule.
type RuleSpec struct {
	Name  string   `yaml:"name"`
	LHS   string   `yaml:"lhs"`
	RHS   string   `yaml:"rhs"`
	Guard []string `yaml:"guard,omitempty"`
}

// RulesConfig is the top level of a rules file. With Extend set, the rules
// are appended to DefaultRules instead of replacing them.
type RulesConfig struct {
	Extend bool       `yaml:"extend"`
	Rules  []RuleSpec `yaml:"rules"`
}

// Load reads a YAML rules file.
func Load(path string) ([]*Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rules, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// Decode compiles the rules in a YAML document.
func Decode(data []byte) ([]*Rule, error) {
	var cfg RulesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	var rules []*Rule
	if cfg.Extend {
		rules = DefaultRules()
	}
	seen := make(map[string]bool)
	for _, r := range rules {
		seen[r.Name] = true
	}
	for i, spec := range cfg.Rules {
		if spec.Name == "" {
			return nil, fmt.Errorf("rule #%d has no name", i+1)
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("duplicate rule %q", spec.Name)
		}
		seen[spec.Name] = true

		guards := make([]Guard, 0, len(spec.Guard))
		for _, text := range spec.Guard {
			g, err := ParseGuard(text)
			if err != nil {
				return nil, fmt.Errorf("rule %s: %w", spec.Name, err)
			}
			guards = append(guards, g)
		}
		rule, err := NewRule(spec.Name, spec.LHS, spec.RHS, guards...)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Encode writes rules back out in the format Decode reads.
func Encode(rules []*Rule) ([]byte, error) {
	cfg := RulesConfig{Rules: make([]RuleSpec, 0, len(rules))}
	for _, r := range rules {
		spec := RuleSpec{Name: r.Name, LHS: r.LHS.String(), RHS: r.RHS.String()}
		for _, g := range r.Guards {
			spec.Guard = append(spec.Guard, g.String())
		}
		cfg.Rules = append(cfg.Rules, spec)
	}
	return yaml.Marshal(&cfg)
}
