// Package peg defines the Program Expression Graph term language: operator
// kinds and arities, immutable nodes over child ids, the PEG string grammar
// used by subject files, and a concrete evaluator with Java integer semantics.
package peg

import "sort"

// Op identifies the operator of a node.
type Op uint8

const (
	// OpSymbol is a quoted leaf, e.g. "x".
	OpSymbol Op = iota
	// OpConst is a bare zero-arity token, e.g. 0, 7l, true or error.
	OpConst

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpNeg

	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpUShr
	OpBitNot

	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	OpNot
	OpAnd
	OpOr

	OpPhi

	numOps
)

type opInfo struct {
	token string
	arity int
}

var opTable = [numOps]opInfo{
	OpSymbol: {"symbol", 0},
	OpConst:  {"const", 0},
	OpAdd:    {"+", 2},
	OpSub:    {"-", 2},
	OpMul:    {"*", 2},
	OpDiv:    {"/", 2},
	OpRem:    {"%", 2},
	OpNeg:    {"---", 1},
	OpBitAnd: {"&", 2},
	OpBitOr:  {"|", 2},
	OpBitXor: {"^", 2},
	OpShl:    {"<<", 2},
	OpShr:    {">>", 2},
	OpUShr:   {">>>", 2},
	OpBitNot: {"~", 1},
	OpEq:     {"==", 2},
	OpNe:     {"!=", 2},
	OpLt:     {"<", 2},
	OpLe:     {"<=", 2},
	OpGt:     {">", 2},
	OpGe:     {">=", 2},
	OpNot:    {"!", 1},
	OpAnd:    {"&&", 2},
	OpOr:     {"||", 2},
	OpPhi:    {"phi", 3},
}

var opByToken = func() map[string]Op {
	m := make(map[string]Op, numOps)
	for op := OpAdd; op < numOps; op++ {
		m[opTable[op].token] = op
	}
	return m
}()

// LookupOp resolves an operator token such as "+" or "phi".
// Leaf kinds are never returned.
func LookupOp(token string) (Op, bool) {
	op, ok := opByToken[token]
	return op, ok
}

// Operators returns the tokens of every non-leaf operator, sorted.
func Operators() []string {
	tokens := make([]string, 0, len(opByToken))
	for tok := range opByToken {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)
	return tokens
}

// Arity is the fixed number of children of op.
func (op Op) Arity() int {
	if op >= numOps {
		return 0
	}
	return opTable[op].arity
}

// IsLeaf reports whether op is a symbol or a constant.
func (op Op) IsLeaf() bool {
	return op == OpSymbol || op == OpConst
}

func (op Op) String() string {
	if op >= numOps {
		return "?"
	}
	return opTable[op].token
}
