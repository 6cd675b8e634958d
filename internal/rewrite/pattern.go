package rewrite

import (
	"fmt"
	"strings"

	"github.com/gnoswap-labs/cornelius/internal/peg"
)

// PatternNode is one element of a pattern tree: either a variable or an
// operator (or leaf) with child patterns.
type PatternNode struct {
	Var      int // index into Pattern.Vars, or -1
	Op       peg.Op
	Name     string // leaf text for symbols and constants
	Children []*PatternNode
}

// IsVar reports whether the node is a pattern variable.
func (p *PatternNode) IsVar() bool {
	return p.Var >= 0
}

// Pattern is a term with variables. Variables are numbered densely in
// order of first appearance.
type Pattern struct {
	Root *PatternNode
	Vars []string
}

// ParsePattern parses an s-expression pattern like `(+ ?a (--- ?a))`.
func ParsePattern(input string) (*Pattern, error) {
	return parsePattern(input, nil)
}

// parsePattern parses input with vars pre-assigned to the first indices,
// so a right-hand side shares numbering with its left-hand side.
func parsePattern(input string, vars []string) (*Pattern, error) {
	tokens, err := Lex(input)
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", input, err)
	}
	seeded := &Pattern{Vars: append([]string(nil), vars...)}
	p := &parser{tokens: tokens, pattern: seeded}
	root, err := p.parse()
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", input, err)
	}
	if tok := p.peek(); tok.Type != TokenEOF {
		return nil, fmt.Errorf("pattern %q: col %d: unexpected %q after pattern", input, tok.Col, tok.Value)
	}
	p.pattern.Root = root
	return p.pattern, nil
}

// MustParsePattern is like ParsePattern but panics on error.
func MustParsePattern(input string) *Pattern {
	p, err := ParsePattern(input)
	if err != nil {
		panic(err)
	}
	return p
}

type parser struct {
	tokens  []Token
	pos     int
	pattern *Pattern
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) next() Token {
	tok := p.tokens[p.pos]
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) variable(name string) int {
	for i, v := range p.pattern.Vars {
		if v == name {
			return i
		}
	}
	p.pattern.Vars = append(p.pattern.Vars, name)
	return len(p.pattern.Vars) - 1
}

func (p *parser) parse() (*PatternNode, error) {
	tok := p.next()
	switch tok.Type {
	case TokenVar:
		return &PatternNode{Var: p.variable(tok.Value)}, nil
	case TokenSymbol:
		return &PatternNode{Var: -1, Op: peg.OpSymbol, Name: tok.Value}, nil
	case TokenAtom:
		if _, ok := peg.LookupOp(tok.Value); ok {
			return nil, fmt.Errorf("col %d: operator %q outside head position", tok.Col, tok.Value)
		}
		return &PatternNode{Var: -1, Op: peg.OpConst, Name: tok.Value}, nil
	case TokenOpen:
		return p.parseApply(tok)
	default:
		return nil, fmt.Errorf("col %d: unexpected %s", tok.Col, tok.Type)
	}
}

func (p *parser) parseApply(open Token) (*PatternNode, error) {
	head := p.next()
	if head.Type != TokenAtom {
		return nil, fmt.Errorf("col %d: expected operator", head.Col)
	}
	op, ok := peg.LookupOp(head.Value)
	if !ok {
		return nil, fmt.Errorf("col %d: %w %q", head.Col, peg.ErrUnknownOperator, head.Value)
	}

	node := &PatternNode{Var: -1, Op: op}
	for p.peek().Type != TokenClose {
		if p.peek().Type == TokenEOF {
			return nil, fmt.Errorf("col %d: unclosed parenthesis", open.Col)
		}
		child, err := p.parse()
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	p.next()

	if len(node.Children) != op.Arity() {
		return nil, fmt.Errorf("col %d: %w: %s takes %d, got %d",
			open.Col, peg.ErrArity, op, op.Arity(), len(node.Children))
	}
	return node, nil
}

func (p *Pattern) String() string {
	var sb strings.Builder
	p.write(&sb, p.Root)
	return sb.String()
}

func (p *Pattern) write(sb *strings.Builder, n *PatternNode) {
	switch {
	case n.IsVar():
		sb.WriteString("?" + p.Vars[n.Var])
	case n.Op == peg.OpSymbol:
		sb.WriteString(`"` + n.Name + `"`)
	case n.Op == peg.OpConst:
		sb.WriteString(n.Name)
	default:
		sb.WriteString("(" + n.Op.String())
		for _, c := range n.Children {
			sb.WriteByte(' ')
			p.write(sb, c)
		}
		sb.WriteByte(')')
	}
}
