// Package egraph implements an e-graph: hash-consed nodes grouped into
// equivalence classes by a union-find forest, with congruence closure
// restored in batches by Rebuild.
//
// Storage is an arena indexed by class id. A class id stays valid forever;
// once its class is merged away it simply stops being canonical and Find
// maps it to the surviving class.
package egraph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gnoswap-labs/cornelius/internal/peg"
)

var (
	// ErrUnboundChild is returned by Add when a child id was never
	// produced by this graph.
	ErrUnboundChild = errors.New("unbound child")
	// ErrConflictingConstants means two classes folding to different
	// values were merged, which only an unsound rule or a false declared
	// equivalence can cause.
	ErrConflictingConstants = errors.New("conflicting constants merged")
)

// EClass is one equivalence class. Nodes and parents are canonical after
// Rebuild; between a Union and the next Rebuild they may hold stale ids.
type EClass struct {
	ID    peg.ID
	Nodes []peg.Node
	Data  Data

	parents []parent
}

// parent records that node, a member of class, uses this class as a child.
type parent struct {
	node  peg.Node
	class peg.ID
}

// EGraph is not safe for concurrent mutation. Root, Nodes, Constant and
// Classes only read and may be called concurrently once no writer is active.
type EGraph struct {
	uf      unionFind
	classes []*EClass // indexed by id, nil once merged away
	memo    map[string]peg.ID
	dirty   []peg.ID

	numNodes int
	version  uint64
	err      error
}

// New returns an empty e-graph.
func New() *EGraph {
	return &EGraph{memo: make(map[string]peg.ID)}
}

// Add inserts a node and returns the id of its class. Children are
// canonicalised first, so a node congruent to an existing one returns the
// existing class.
func (g *EGraph) Add(node peg.Node) (peg.ID, error) {
	for _, c := range node.Children {
		if int(c) >= g.uf.len() {
			return 0, fmt.Errorf("%w: %d in %s", ErrUnboundChild, c, node)
		}
	}

	n := node.WithChildren(g.uf.find)
	key := n.Key()
	if id, ok := g.memo[key]; ok {
		return g.uf.find(id), nil
	}

	id := g.uf.makeSet()
	cls := &EClass{ID: id, Nodes: []peg.Node{n}, Data: g.makeData(n)}
	g.classes = append(g.classes, cls)
	for _, c := range n.Children {
		child := g.classes[c]
		child.parents = append(child.parents, parent{node: n, class: id})
	}
	g.memo[key] = id
	g.numNodes++
	g.version++

	if cls.Data.HasConstant() {
		g.materialize(id)
	}
	return g.uf.find(id), nil
}

// Lookup returns the class already holding node, without inserting it.
func (g *EGraph) Lookup(node peg.Node) (peg.ID, bool) {
	for _, c := range node.Children {
		if int(c) >= g.uf.len() {
			return 0, false
		}
	}
	id, ok := g.memo[node.WithChildren(g.uf.root).Key()]
	if !ok {
		return 0, false
	}
	return g.uf.root(id), true
}

// Find returns the canonical id of id's class, compressing the path.
func (g *EGraph) Find(id peg.ID) peg.ID {
	return g.uf.find(id)
}

// Root is Find without path compression. It never writes, so it is the
// variant to use while other goroutines read the graph.
func (g *EGraph) Root(id peg.ID) peg.ID {
	return g.uf.root(id)
}

// Union merges the classes of a and b and returns the surviving id.
// The second result is false when they were already equal. Congruences
// implied by the merge are repaired by the next Rebuild, not here.
func (g *EGraph) Union(a, b peg.ID) (peg.ID, bool) {
	a, b = g.uf.find(a), g.uf.find(b)
	if a == b {
		return a, false
	}

	winner, loser := g.uf.union(a, b)
	w, l := g.classes[winner], g.classes[loser]
	w.Nodes = append(w.Nodes, l.Nodes...)
	w.parents = append(w.parents, l.parents...)
	g.mergeData(&w.Data, l.Data)
	g.classes[loser] = nil

	// winner's parents are re-canonicalised and re-folded by Rebuild
	g.dirty = append(g.dirty, winner)
	g.version++
	return winner, true
}

// Rebuild restores the congruence invariant: afterwards, any two nodes
// with the same operator and canonically equal children are in the same
// class. It returns the number of unions it performed.
func (g *EGraph) Rebuild() int {
	unions := 0
	for len(g.dirty) > 0 {
		todo := g.dirty
		g.dirty = nil
		seen := make(map[peg.ID]bool, len(todo))
		for _, id := range todo {
			id = g.uf.find(id)
			if seen[id] {
				continue
			}
			seen[id] = true
			unions += g.repair(id)
		}
	}

	g.numNodes = 0
	for _, cls := range g.classes {
		if cls == nil {
			continue
		}
		cls.Nodes = g.canonicalNodes(cls.Nodes)
		g.numNodes += len(cls.Nodes)
	}
	return unions
}

// repair re-canonicalises the parents of one dirty class and unions the
// classes of parents that collide in the hash-cons table.
func (g *EGraph) repair(id peg.ID) int {
	unions := 0
	cls := g.classes[id]

	for _, p := range cls.parents {
		oldKey := p.node.Key()
		n := p.node.WithChildren(g.uf.find)
		key := n.Key()
		if key != oldKey {
			if owner, ok := g.memo[oldKey]; ok && g.uf.find(owner) == g.uf.find(p.class) {
				delete(g.memo, oldKey)
			}
		}
		if existing, ok := g.memo[key]; ok {
			if _, merged := g.Union(existing, p.class); merged {
				unions++
			}
		}
		g.memo[key] = g.uf.find(p.class)
	}

	// The class may have been merged while its parents were processed, so
	// the surviving class can hold parents the loop above never saw. Two
	// parents with one key are congruent: merge their classes before
	// keeping a single entry.
	cls = g.classes[g.uf.find(id)]
	ps := cls.parents
	seen := make(map[string]int, len(ps))
	kept := make([]parent, 0, len(ps))
	for _, p := range ps {
		n := p.node.WithChildren(g.uf.find)
		key := n.Key()
		if i, ok := seen[key]; ok {
			if _, merged := g.Union(kept[i].class, p.class); merged {
				unions++
			}
			kept[i].class = g.uf.find(kept[i].class)
			g.memo[key] = kept[i].class
			continue
		}
		if existing, ok := g.memo[key]; ok {
			if _, merged := g.Union(existing, p.class); merged {
				unions++
			}
		}
		seen[key] = len(kept)
		kept = append(kept, parent{node: n, class: g.uf.find(p.class)})
		g.memo[key] = g.uf.find(p.class)
	}
	// Unions above may have moved more parents into cls, or cls into
	// another class that is now dirty and will be repaired in turn.
	if g.classes[g.uf.find(id)] == cls {
		cls.parents = append(kept, cls.parents[len(ps):]...)
	}

	for _, p := range kept {
		pc := g.classes[g.uf.find(p.class)]
		if pc.Data.HasConstant() {
			continue
		}
		if g.mergeData(&pc.Data, g.makeData(p.node)) {
			g.dirty = append(g.dirty, pc.ID)
			g.materialize(pc.ID)
		}
	}
	g.materialize(id)
	return unions
}

// canonicalNodes maps children through Find and drops duplicates, keeping
// a stable order by key.
func (g *EGraph) canonicalNodes(nodes []peg.Node) []peg.Node {
	type keyed struct {
		key  string
		node peg.Node
	}
	ks := make([]keyed, 0, len(nodes))
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		n = n.WithChildren(g.uf.find)
		key := n.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		ks = append(ks, keyed{key: key, node: n})
	}
	sort.Slice(ks, func(i, j int) bool { return ks[i].key < ks[j].key })
	out := make([]peg.Node, len(ks))
	for i, k := range ks {
		out[i] = k.node
	}
	return out
}

// Classes returns the canonical class ids in ascending order.
func (g *EGraph) Classes() []peg.ID {
	ids := make([]peg.ID, 0, len(g.classes))
	for i, cls := range g.classes {
		if cls != nil {
			ids = append(ids, peg.ID(i))
		}
	}
	return ids
}

// Nodes returns the member nodes of id's class. The slice must not be modified.
func (g *EGraph) Nodes(id peg.ID) []peg.Node {
	return g.classes[g.uf.root(id)].Nodes
}

// Constant returns the folded value of id's class, if any.
func (g *EGraph) Constant(id peg.ID) (peg.Value, bool) {
	v := g.classes[g.uf.root(id)].Data.Constant
	return v, v != nil
}

// NumClasses is the number of canonical classes.
func (g *EGraph) NumClasses() int {
	n := 0
	for _, cls := range g.classes {
		if cls != nil {
			n++
		}
	}
	return n
}

// NumNodes is the number of distinct member nodes as of the last Rebuild,
// plus any added since.
func (g *EGraph) NumNodes() int {
	return g.numNodes
}

// Version changes whenever a class is created or two classes are merged.
func (g *EGraph) Version() uint64 {
	return g.version
}

// Clean reports whether there is no pending congruence work.
func (g *EGraph) Clean() bool {
	return len(g.dirty) == 0
}

// Err returns the first internal inconsistency detected, if any.
func (g *EGraph) Err() error {
	return g.err
}
