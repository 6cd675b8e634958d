package rewrite

import (
	"strconv"
	"strings"

	"github.com/gnoswap-labs/cornelius/internal/egraph"
	"github.com/gnoswap-labs/cornelius/internal/peg"
)

const unbound = ^peg.ID(0)

// Subst binds pattern variables (by index) to class ids.
type Subst []peg.ID

// Get returns the binding of variable i.
func (s Subst) Get(i int) (peg.ID, bool) {
	if i < 0 || i >= len(s) || s[i] == unbound {
		return 0, false
	}
	return s[i], true
}

func (s Subst) bind(i int, id peg.ID) Subst {
	out := make(Subst, len(s))
	copy(out, s)
	out[i] = id
	return out
}

func (s Subst) key() string {
	var sb strings.Builder
	for _, id := range s {
		sb.WriteString(strconv.FormatUint(uint64(id), 10))
		sb.WriteByte(',')
	}
	return sb.String()
}

// Match is one way a pattern matches a class.
type Match struct {
	Class peg.ID
	Subst Subst
}

// Search returns every match of p in g, ordered by class id. It only
// reads g, so several searches may run concurrently against a clean graph.
func (p *Pattern) Search(g *egraph.EGraph) []Match {
	var out []Match
	for _, id := range g.Classes() {
		out = append(out, p.SearchClass(g, id)...)
	}
	return out
}

// SearchClass returns the distinct matches of p rooted at class id.
func (p *Pattern) SearchClass(g *egraph.EGraph, id peg.ID) []Match {
	id = g.Root(id)
	empty := make(Subst, len(p.Vars))
	for i := range empty {
		empty[i] = unbound
	}

	var out []Match
	seen := make(map[string]bool)
	m := matcher{g: g}
	m.match(p.Root, id, empty, func(s Subst) {
		k := s.key()
		if seen[k] {
			return
		}
		seen[k] = true
		out = append(out, Match{Class: id, Subst: s})
	})
	return out
}

type matcher struct {
	g *egraph.EGraph
}

// match calls yield once per way pn can match class id, extending s.
func (m matcher) match(pn *PatternNode, id peg.ID, s Subst, yield func(Subst)) {
	id = m.g.Root(id)
	if pn.IsVar() {
		if bound, ok := s.Get(pn.Var); ok {
			if m.g.Root(bound) == id {
				yield(s)
			}
			return
		}
		yield(s.bind(pn.Var, id))
		return
	}

	for _, n := range m.g.Nodes(id) {
		if n.Op != pn.Op || len(n.Children) != len(pn.Children) {
			continue
		}
		if n.Op.IsLeaf() {
			if n.Name == pn.Name {
				yield(s)
			}
			continue
		}
		m.children(pn, n, 0, s, yield)
	}
}

func (m matcher) children(pn *PatternNode, n peg.Node, i int, s Subst, yield func(Subst)) {
	if i == len(pn.Children) {
		yield(s)
		return
	}
	m.match(pn.Children[i], n.Children[i], s, func(next Subst) {
		m.children(pn, n, i+1, next, yield)
	})
}

// Instantiate adds the term described by p under s to g and returns its
// class. Every variable of p must be bound in s.
func (p *Pattern) Instantiate(g *egraph.EGraph, s Subst) (peg.ID, error) {
	return p.instantiate(g, p.Root, s)
}

func (p *Pattern) instantiate(g *egraph.EGraph, pn *PatternNode, s Subst) (peg.ID, error) {
	if pn.IsVar() {
		id, ok := s.Get(pn.Var)
		if !ok {
			return 0, &UnboundVariableError{Name: p.Vars[pn.Var]}
		}
		return id, nil
	}
	if pn.Op.IsLeaf() {
		return g.Add(peg.Node{Op: pn.Op, Name: pn.Name})
	}
	children := make([]peg.ID, len(pn.Children))
	for i, c := range pn.Children {
		id, err := p.instantiate(g, c, s)
		if err != nil {
			return 0, err
		}
		children[i] = id
	}
	return g.Add(peg.Apply(pn.Op, children...))
}

// UnboundVariableError reports a right-hand side variable with no binding.
type UnboundVariableError struct {
	Name string
}

func (e *UnboundVariableError) Error() string {
	return "unbound pattern variable ?" + e.Name
}
