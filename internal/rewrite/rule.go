package rewrite

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gnoswap-labs/cornelius/internal/egraph"
	"github.com/gnoswap-labs/cornelius/internal/peg"
)

var (
	ErrUnknownGuard = errors.New("unknown guard")
	ErrRHSVariable  = errors.New("right-hand side variable not bound by left-hand side")
)

// Predicate inspects one class of the graph.
type Predicate func(g *egraph.EGraph, id peg.ID) bool

// Guard restricts a rule to matches where the class bound to Var satisfies
// Check.
type Guard struct {
	Name  string
	Var   string
	Check Predicate
}

func (g Guard) String() string {
	return g.Name + " ?" + g.Var
}

var predicates = map[string]Predicate{
	"is_const": func(g *egraph.EGraph, id peg.ID) bool {
		_, ok := g.Constant(id)
		return ok
	},
	"is_not_const": func(g *egraph.EGraph, id peg.ID) bool {
		_, ok := g.Constant(id)
		return !ok
	},
}

// IsNotConst holds when the class bound to v has no folded constant.
func IsNotConst(v string) Guard {
	return Guard{Name: "is_not_const", Var: v, Check: predicates["is_not_const"]}
}

// IsConst holds when the class bound to v folds to a constant.
func IsConst(v string) Guard {
	return Guard{Name: "is_const", Var: v, Check: predicates["is_const"]}
}

// ParseGuard parses the textual form `is_not_const ?a`.
func ParseGuard(text string) (Guard, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 || !strings.HasPrefix(fields[1], "?") {
		return Guard{}, fmt.Errorf("guard %q: want `<name> ?<var>`", text)
	}
	check, ok := predicates[fields[0]]
	if !ok {
		return Guard{}, fmt.Errorf("%w %q", ErrUnknownGuard, fields[0])
	}
	return Guard{Name: fields[0], Var: fields[1][1:], Check: check}, nil
}

// GuardNames lists the guards ParseGuard accepts.
func GuardNames() []string {
	names := make([]string, 0, len(predicates))
	for name := range predicates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Rule states that any term matching LHS is equivalent to the
// corresponding instance of RHS.
type Rule struct {
	Name   string
	LHS    *Pattern
	RHS    *Pattern
	Guards []Guard

	guardVars []int
}

// NewRule compiles a rule. RHS may only use variables bound by LHS, and
// every guard must name an LHS variable.
func NewRule(name, lhs, rhs string, guards ...Guard) (*Rule, error) {
	l, err := ParsePattern(lhs)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", name, err)
	}
	if l.Root.IsVar() {
		return nil, fmt.Errorf("rule %s: left-hand side is a bare variable", name)
	}
	r, err := parsePattern(rhs, l.Vars)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", name, err)
	}
	if len(r.Vars) != len(l.Vars) {
		return nil, fmt.Errorf("rule %s: %w: ?%s", name, ErrRHSVariable, r.Vars[len(l.Vars)])
	}

	rule := &Rule{Name: name, LHS: l, RHS: r, Guards: guards}
	for _, g := range guards {
		idx := -1
		for i, v := range l.Vars {
			if v == g.Var {
				idx = i
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("rule %s: guard %s names unknown variable", name, g)
		}
		rule.guardVars = append(rule.guardVars, idx)
	}
	return rule, nil
}

// MustRule is like NewRule but panics on error.
func MustRule(name, lhs, rhs string, guards ...Guard) *Rule {
	r, err := NewRule(name, lhs, rhs, guards...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Rule) String() string {
	s := fmt.Sprintf("%s: %s => %s", r.Name, r.LHS, r.RHS)
	for _, g := range r.Guards {
		s += " if " + g.String()
	}
	return s
}

// Search returns the matches of LHS that pass every guard. It does not
// modify g.
func (r *Rule) Search(g *egraph.EGraph) []Match {
	matches := r.LHS.Search(g)
	if len(r.Guards) == 0 {
		return matches
	}
	kept := matches[:0]
	for _, m := range matches {
		if r.allowed(g, m) {
			kept = append(kept, m)
		}
	}
	return kept
}

func (r *Rule) allowed(g *egraph.EGraph, m Match) bool {
	for i, guard := range r.Guards {
		id, ok := m.Subst.Get(r.guardVars[i])
		if !ok || !guard.Check(g, id) {
			return false
		}
	}
	return true
}

// Apply instantiates RHS for every match and merges it with the matched
// class. It returns how many merges changed the graph.
func (r *Rule) Apply(g *egraph.EGraph, matches []Match) (int, error) {
	merged := 0
	for _, m := range matches {
		id, err := r.RHS.Instantiate(g, m.Subst)
		if err != nil {
			return merged, fmt.Errorf("rule %s: %w", r.Name, err)
		}
		if _, ok := g.Union(m.Class, id); ok {
			merged++
		}
	}
	return merged, nil
}
