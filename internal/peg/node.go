package peg

import (
	"strconv"
	"strings"
)

// ID refers to a node or e-class. Raw ids in subject files and e-class ids
// share the representation; which one is meant depends on context.
type ID uint32

// Node is an operator applied to an ordered list of child ids.
// Leaves carry their symbol text or constant token in Name.
// A Node must not be modified once it has been handed to a graph.
type Node struct {
	Op       Op
	Name     string
	Children []ID
}

// Symbol returns the leaf node for a quoted symbol.
func Symbol(name string) Node {
	return Node{Op: OpSymbol, Name: name}
}

// Const returns the leaf node for a bare token.
func Const(token string) Node {
	return Node{Op: OpConst, Name: token}
}

// Apply returns op applied to children.
func Apply(op Op, children ...ID) Node {
	return Node{Op: op, Children: children}
}

// Key is the hash-consing key: operator, leaf name and child ids.
// Two nodes have the same key iff they are structurally identical.
func (n Node) Key() string {
	var sb strings.Builder
	sb.Grow(len(n.Name) + 4 + 6*len(n.Children))
	sb.WriteByte(byte(n.Op))
	if n.Op.IsLeaf() {
		sb.WriteString(n.Name)
		return sb.String()
	}
	var buf [10]byte
	for _, c := range n.Children {
		sb.WriteByte(' ')
		sb.Write(strconv.AppendUint(buf[:0], uint64(c), 10))
	}
	return sb.String()
}

// WithChildren returns a copy of n whose children are mapped through f.
func (n Node) WithChildren(f func(ID) ID) Node {
	if len(n.Children) == 0 {
		return n
	}
	children := make([]ID, len(n.Children))
	for i, c := range n.Children {
		children[i] = f(c)
	}
	return Node{Op: n.Op, Name: n.Name, Children: children}
}

// Constant returns the concrete value of a constant leaf, if it has one.
// Tokens such as "error" are constants without a value.
func (n Node) Constant() (Value, bool) {
	if n.Op != OpConst {
		return nil, false
	}
	return ParseValue(n.Name)
}

func (n Node) String() string {
	switch n.Op {
	case OpSymbol:
		return `"` + n.Name + `"`
	case OpConst:
		return n.Name
	}
	parts := make([]string, 0, len(n.Children)+1)
	parts = append(parts, n.Op.String())
	for _, c := range n.Children {
		parts = append(parts, strconv.FormatUint(uint64(c), 10))
	}
	return "(" + strings.Join(parts, " ") + ")"
}
