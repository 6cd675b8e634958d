package peg

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMalformed       = errors.New("malformed PEG string")
	ErrUnknownOperator = errors.New("unknown operator")
	ErrArity           = errors.New("wrong number of children")
)

// ParseNode parses one entry of a raw-id table.
//
//	"x"           symbol leaf
//	tok           zero-arity constant
//	(op id ...)   operator over previously defined raw ids
//
// Child ids are returned as written; resolving them is the caller's job.
func ParseNode(s string) (Node, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Node{}, fmt.Errorf("%w: empty string", ErrMalformed)
	}

	switch s[0] {
	case '"':
		if len(s) < 2 || s[len(s)-1] != '"' {
			return Node{}, fmt.Errorf("%w: unterminated symbol %s", ErrMalformed, s)
		}
		return Symbol(s[1 : len(s)-1]), nil
	case '(':
		if s[len(s)-1] != ')' {
			return Node{}, fmt.Errorf("%w: unbalanced parenthesis in %s", ErrMalformed, s)
		}
		return parseApply(s, s[1:len(s)-1])
	}

	if strings.ContainsAny(s, "()\" \t\n") {
		return Node{}, fmt.Errorf("%w: invalid token %s", ErrMalformed, s)
	}
	if op, ok := LookupOp(s); ok {
		return Node{}, fmt.Errorf("%w: operator %s used as a constant: %w", ErrArity, op, ErrMalformed)
	}
	return Const(s), nil
}

func parseApply(whole, inner string) (Node, error) {
	parts := strings.Fields(inner)
	if len(parts) == 0 {
		return Node{}, fmt.Errorf("%w: no operator in %s", ErrMalformed, whole)
	}

	head, args := parts[0], parts[1:]
	if strings.ContainsAny(head, "()\"") {
		return Node{}, fmt.Errorf("%w: invalid operator %q in %s", ErrMalformed, head, whole)
	}

	op, ok := LookupOp(head)
	if !ok {
		// "(tok)" is accepted as a parenthesised constant.
		if len(args) == 0 {
			return Const(head), nil
		}
		return Node{}, fmt.Errorf("%w %q in %s", ErrUnknownOperator, head, whole)
	}
	if len(args) != op.Arity() {
		return Node{}, fmt.Errorf("%w: %s takes %d, got %d in %s: %w",
			ErrArity, op, op.Arity(), len(args), whole, ErrMalformed)
	}

	children := make([]ID, len(args))
	for i, arg := range args {
		v, err := strconv.ParseUint(arg, 10, 32)
		if err != nil {
			return Node{}, fmt.Errorf("%w: child %q in %s is not an id", ErrMalformed, arg, whole)
		}
		children[i] = ID(v)
	}
	return Apply(op, children...), nil
}
