package egraph

import (
	"fmt"

	"github.com/gnoswap-labs/cornelius/internal/peg"
)

// Data is the per-class analysis: the constant every member evaluates to,
// when one is known.
type Data struct {
	Constant peg.Value
}

// HasConstant reports whether the class folded to a concrete value.
func (d Data) HasConstant() bool {
	return d.Constant != nil
}

// makeData computes the analysis value contributed by a canonical node.
func (g *EGraph) makeData(n peg.Node) Data {
	if n.Op.IsLeaf() {
		v, _ := n.Constant()
		return Data{Constant: v}
	}
	args := make([]peg.Value, len(n.Children))
	for i, c := range n.Children {
		v := g.classes[g.uf.find(c)].Data.Constant
		if v == nil {
			return Data{}
		}
		args[i] = v
	}
	v, ok := peg.Eval(n.Op, args)
	if !ok {
		return Data{}
	}
	return Data{Constant: v}
}

// mergeData folds b into a and reports whether a gained information.
func (g *EGraph) mergeData(a *Data, b Data) bool {
	switch {
	case b.Constant == nil:
		return false
	case a.Constant == nil:
		a.Constant = b.Constant
		return true
	case !peg.SameValue(a.Constant, b.Constant):
		if g.err == nil {
			g.err = fmt.Errorf("%w: %s and %s", ErrConflictingConstants, a.Constant, b.Constant)
		}
	}
	return false
}

// materialize adds the literal for a folded class and unions it in, so
// that every constant class contains its canonical leaf.
func (g *EGraph) materialize(id peg.ID) {
	id = g.uf.find(id)
	v := g.classes[id].Data.Constant
	if v == nil {
		return
	}
	leaf, err := g.Add(peg.ValueNode(v))
	if err != nil {
		return
	}
	g.Union(id, leaf)
}
