package egraph

import "github.com/gnoswap-labs/cornelius/internal/peg"

// unionFind is a parent-pointer forest over dense ids with union by size.
type unionFind struct {
	parent []peg.ID
	size   []uint32
}

func (uf *unionFind) makeSet() peg.ID {
	id := peg.ID(len(uf.parent))
	uf.parent = append(uf.parent, id)
	uf.size = append(uf.size, 1)
	return id
}

func (uf *unionFind) len() int {
	return len(uf.parent)
}

// find resolves id to its root and compresses the path behind it.
func (uf *unionFind) find(id peg.ID) peg.ID {
	root := id
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	for uf.parent[id] != root {
		next := uf.parent[id]
		uf.parent[id] = root
		id = next
	}
	return root
}

// root resolves id without writing to the forest.
func (uf *unionFind) root(id peg.ID) peg.ID {
	for uf.parent[id] != id {
		id = uf.parent[id]
	}
	return id
}

// union links two roots and returns (winner, loser). The larger tree wins;
// ties go to the smaller id so results do not depend on argument order.
func (uf *unionFind) union(a, b peg.ID) (peg.ID, peg.ID) {
	if uf.size[a] < uf.size[b] || (uf.size[a] == uf.size[b] && b < a) {
		a, b = b, a
	}
	uf.parent[b] = a
	uf.size[a] += uf.size[b]
	return a, b
}
