package egraph

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/cornelius/internal/peg"
)

func mustAdd(t *testing.T, g *EGraph, n peg.Node) peg.ID {
	t.Helper()
	id, err := g.Add(n)
	require.NoError(t, err)
	return id
}

// congruent reports whether every pair of nodes with equal canonical
// keys lives in one class.
func congruent(g *EGraph) bool {
	owner := make(map[string]peg.ID)
	for _, id := range g.Classes() {
		for _, n := range g.classes[id].Nodes {
			key := n.WithChildren(g.Root).Key()
			if other, ok := owner[key]; ok && other != id {
				return false
			}
			owner[key] = id
		}
	}
	return true
}

// indexed reports whether Lookup finds every member node in its own class.
func indexed(g *EGraph) bool {
	for _, id := range g.Classes() {
		for _, n := range g.classes[id].Nodes {
			got, ok := g.Lookup(n)
			if !ok || got != id {
				return false
			}
		}
	}
	return true
}

func TestAddHashConses(t *testing.T) {
	t.Parallel()
	g := New()
	a := mustAdd(t, g, peg.Symbol("a"))
	b := mustAdd(t, g, peg.Symbol("b"))

	x := mustAdd(t, g, peg.Apply(peg.OpAdd, a, b))
	y := mustAdd(t, g, peg.Apply(peg.OpAdd, a, b))
	z := mustAdd(t, g, peg.Apply(peg.OpAdd, b, a))

	assert.Equal(t, x, y)
	assert.NotEqual(t, x, z)
	assert.Equal(t, 4, g.NumClasses())
	assert.Equal(t, 4, g.NumNodes())

	got, ok := g.Lookup(peg.Apply(peg.OpAdd, b, a))
	assert.True(t, ok)
	assert.Equal(t, z, got)
	_, ok = g.Lookup(peg.Apply(peg.OpMul, a, b))
	assert.False(t, ok)
}

func TestAddUnboundChild(t *testing.T) {
	t.Parallel()
	g := New()
	a := mustAdd(t, g, peg.Symbol("a"))

	_, err := g.Add(peg.Apply(peg.OpAdd, a, 7))
	assert.ErrorIs(t, err, ErrUnboundChild)
	assert.Equal(t, 1, g.NumClasses())
}

func TestUnionSelfIsNoop(t *testing.T) {
	t.Parallel()
	g := New()
	a := mustAdd(t, g, peg.Symbol("a"))
	v := g.Version()

	id, merged := g.Union(a, a)
	assert.False(t, merged)
	assert.Equal(t, a, id)
	assert.Equal(t, v, g.Version())
	assert.True(t, g.Clean())
}

func TestFindIdempotent(t *testing.T) {
	t.Parallel()
	g := New()
	ids := make([]peg.ID, 8)
	for i := range ids {
		ids[i] = mustAdd(t, g, peg.Symbol(strconv.Itoa(i)))
	}
	for i := 1; i < len(ids); i += 2 {
		g.Union(ids[i-1], ids[i])
	}
	g.Union(ids[0], ids[7])
	g.Rebuild()

	for _, id := range ids {
		assert.Equal(t, g.Find(id), g.Find(g.Find(id)))
		assert.Equal(t, g.Find(id), g.Root(id))
	}
	assert.Equal(t, g.Find(ids[0]), g.Find(ids[6]))
	assert.NotEqual(t, g.Find(ids[0]), g.Find(ids[2]))
}

func TestRebuildRestoresCongruence(t *testing.T) {
	t.Parallel()
	g := New()
	a := mustAdd(t, g, peg.Symbol("a"))
	b := mustAdd(t, g, peg.Symbol("b"))
	fa := mustAdd(t, g, peg.Apply(peg.OpNeg, a))
	fb := mustAdd(t, g, peg.Apply(peg.OpNeg, b))
	ffa := mustAdd(t, g, peg.Apply(peg.OpNeg, fa))
	ffb := mustAdd(t, g, peg.Apply(peg.OpNeg, fb))

	g.Union(a, b)
	assert.NotEqual(t, g.Find(fa), g.Find(fb), "union must not cascade eagerly")
	assert.False(t, g.Clean())

	unions := g.Rebuild()
	assert.Equal(t, 2, unions)
	assert.True(t, g.Clean())
	assert.Equal(t, g.Find(fa), g.Find(fb))
	assert.Equal(t, g.Find(ffa), g.Find(ffb))
	assert.Equal(t, 3, g.NumClasses())
	assert.Equal(t, 4, g.NumNodes())
	assert.True(t, congruent(g))
}

func TestRebuildLongChain(t *testing.T) {
	t.Parallel()
	g := New()
	const depth = 5000

	a := mustAdd(t, g, peg.Symbol("a"))
	b := mustAdd(t, g, peg.Symbol("b"))
	ta, tb := a, b
	for i := 0; i < depth; i++ {
		ta = mustAdd(t, g, peg.Apply(peg.OpBitNot, ta))
		tb = mustAdd(t, g, peg.Apply(peg.OpBitNot, tb))
	}

	g.Union(a, b)
	g.Rebuild()
	assert.Equal(t, g.Find(ta), g.Find(tb))
	assert.Equal(t, depth+1, g.NumClasses())
}

func TestConstantFolding(t *testing.T) {
	t.Parallel()
	g := New()
	three := mustAdd(t, g, peg.Const("3"))
	four := mustAdd(t, g, peg.Const("4"))
	sum := mustAdd(t, g, peg.Apply(peg.OpAdd, three, four))
	g.Rebuild()

	v, ok := g.Constant(sum)
	require.True(t, ok)
	assert.Equal(t, peg.IntValue{Val: 7}, v)

	seven, ok := g.Lookup(peg.Const("7"))
	require.True(t, ok)
	assert.Equal(t, g.Find(sum), seven)

	x := mustAdd(t, g, peg.Symbol("x"))
	_, ok = g.Constant(x)
	assert.False(t, ok)
}

func TestConstantFoldingAfterUnion(t *testing.T) {
	t.Parallel()
	g := New()
	x := mustAdd(t, g, peg.Symbol("x"))
	one := mustAdd(t, g, peg.Const("1"))
	sum := mustAdd(t, g, peg.Apply(peg.OpAdd, x, one))
	_, ok := g.Constant(sum)
	assert.False(t, ok)

	two := mustAdd(t, g, peg.Const("2"))
	g.Union(x, two)
	g.Rebuild()

	v, ok := g.Constant(sum)
	require.True(t, ok)
	assert.Equal(t, peg.IntValue{Val: 3}, v)
	assert.NoError(t, g.Err())
}

func TestConflictingConstants(t *testing.T) {
	t.Parallel()
	g := New()
	one := mustAdd(t, g, peg.Const("1"))
	two := mustAdd(t, g, peg.Const("2"))
	g.Union(one, two)
	g.Rebuild()
	assert.ErrorIs(t, g.Err(), ErrConflictingConstants)

	h := New()
	i := mustAdd(t, h, peg.Const("0"))
	l := mustAdd(t, h, peg.Const("0l"))
	h.Union(i, l)
	h.Rebuild()
	assert.NoError(t, h.Err())
}

func TestUnionIsMonotone(t *testing.T) {
	t.Parallel()
	g := New()
	ids := make([]peg.ID, 6)
	for i := range ids {
		ids[i] = mustAdd(t, g, peg.Symbol(strconv.Itoa(i)))
	}
	pairs := [][2]int{{0, 1}, {2, 3}, {1, 3}, {4, 5}}
	var merged [][2]int
	for _, p := range pairs {
		g.Union(ids[p[0]], ids[p[1]])
		g.Rebuild()
		merged = append(merged, p)
		for _, m := range merged {
			assert.Equal(t, g.Find(ids[m[0]]), g.Find(ids[m[1]]))
		}
	}
}

func TestWriteDot(t *testing.T) {
	t.Parallel()
	g := New()
	a := mustAdd(t, g, peg.Symbol("a"))
	mustAdd(t, g, peg.Apply(peg.OpNeg, a))

	var buf bytes.Buffer
	require.NoError(t, g.WriteDot(&buf))
	out := buf.String()
	assert.Contains(t, out, "digraph egraph {")
	assert.Contains(t, out, "cluster_0")
	assert.Contains(t, out, "n1_0 -> n0_0")
}

// applyOps interprets each value as one add or union against g, picking
// operands from ids, and returns ids extended with the added classes.
func applyOps(g *EGraph, ops []int, ids []peg.ID) []peg.ID {
	pick := func(v int) peg.ID { return ids[v%len(ids)] }
	for _, v := range ops {
		kind := v % 5
		v /= 5
		if len(ids) == 0 {
			kind = 0
		}
		var node peg.Node
		switch kind {
		case 0:
			node = peg.Symbol(strconv.Itoa(v % 6))
		case 1:
			node = peg.Const(strconv.Itoa(v % 3))
		case 2:
			node = peg.Apply(peg.OpAdd, pick(v), pick(v/7))
		case 3:
			node = peg.Apply(peg.OpNeg, pick(v))
		case 4:
			g.Union(pick(v), pick(v/11))
			continue
		}
		id, err := g.Add(node)
		if err != nil {
			panic(err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestCongruenceProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("congruence holds after every rebuild", prop.ForAll(
		func(ops []int) bool {
			g := New()
			ids := applyOps(g, ops, nil)
			g.Rebuild()
			if !congruent(g) || !g.Clean() {
				return false
			}
			for _, id := range ids {
				if g.Find(g.Find(id)) != g.Find(id) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 1<<20)),
	))

	properties.Property("every member stays reachable across interleaved rebuilds", prop.ForAll(
		func(ops []int) bool {
			g := New()
			var ids []peg.ID
			for start := 0; start < len(ops); start += 8 {
				end := min(start+8, len(ops))
				ids = applyOps(g, ops[start:end], ids)
				g.Rebuild()
				if !congruent(g) || !indexed(g) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 1<<20)),
	))

	properties.Property("rebuilding twice changes nothing", prop.ForAll(
		func(ops []int) bool {
			g := New()
			applyOps(g, ops, nil)
			g.Rebuild()
			v := g.Version()
			return g.Rebuild() == 0 && g.Version() == v
		},
		gen.SliceOf(gen.IntRange(0, 1<<20)),
	))

	properties.TestingRun(t)
}
