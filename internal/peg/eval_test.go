package peg

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseValue(t *testing.T) {
	t.Parallel()
	tests := []struct {
		token string
		want  Value
		ok    bool
	}{
		{"0", IntValue{0}, true},
		{"-17", IntValue{-17}, true},
		{"2147483647", IntValue{math.MaxInt32}, true},
		{"2147483648", nil, false},
		{"0l", LongValue{0}, true},
		{"9000000000L", LongValue{9000000000}, true},
		{"true", BoolValue{true}, true},
		{"false", BoolValue{false}, true},
		{"error", nil, false},
		{"l", nil, false},
		{"+3", nil, false},
	}
	for _, tt := range tests {
		got, ok := ParseValue(tt.token)
		assert.Equal(t, tt.ok, ok, tt.token)
		assert.Equal(t, tt.want, got, tt.token)
	}
}

func TestEval(t *testing.T) {
	t.Parallel()
	i := func(v int32) Value { return IntValue{v} }
	l := func(v int64) Value { return LongValue{v} }
	b := func(v bool) Value { return BoolValue{v} }

	tests := []struct {
		name string
		op   Op
		args []Value
		want Value
	}{
		{"add", OpAdd, []Value{i(3), i(4)}, i(7)},
		{"add wraps", OpAdd, []Value{i(math.MaxInt32), i(1)}, i(math.MinInt32)},
		{"mixed widens", OpAdd, []Value{i(1), l(2)}, l(3)},
		{"sub", OpSub, []Value{i(3), i(4)}, i(-1)},
		{"mul", OpMul, []Value{l(6), l(7)}, l(42)},
		{"div truncates", OpDiv, []Value{i(-7), i(2)}, i(-3)},
		{"min div minus one", OpDiv, []Value{i(math.MinInt32), i(-1)}, i(math.MinInt32)},
		{"rem sign of dividend", OpRem, []Value{i(-7), i(2)}, i(-1)},
		{"neg", OpNeg, []Value{i(5)}, i(-5)},
		{"bitnot", OpBitNot, []Value{i(0)}, i(-1)},
		{"shl masks distance", OpShl, []Value{i(1), i(33)}, i(2)},
		{"shr", OpShr, []Value{i(-8), i(1)}, i(-4)},
		{"ushr", OpUShr, []Value{i(-1), i(28)}, i(15)},
		{"long shl", OpShl, []Value{l(1), i(40)}, l(1 << 40)},
		{"and ints", OpBitAnd, []Value{i(6), i(3)}, i(2)},
		{"xor bools", OpBitXor, []Value{b(true), b(true)}, b(false)},
		{"lt", OpLt, []Value{i(1), i(2)}, b(true)},
		{"ge", OpGe, []Value{l(1), i(2)}, b(false)},
		{"eq bools", OpEq, []Value{b(true), b(true)}, b(true)},
		{"not", OpNot, []Value{b(false)}, b(true)},
		{"logical or", OpOr, []Value{b(false), b(true)}, b(true)},
		{"phi true", OpPhi, []Value{b(true), i(1), i(2)}, i(1)},
		{"phi false", OpPhi, []Value{b(false), i(1), i(2)}, i(2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Eval(tt.op, tt.args)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalUndefined(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		op   Op
		args []Value
	}{
		{"div by zero", OpDiv, []Value{IntValue{1}, IntValue{0}}},
		{"rem by zero", OpRem, []Value{LongValue{1}, LongValue{0}}},
		{"bool arithmetic", OpAdd, []Value{BoolValue{true}, IntValue{1}}},
		{"not of int", OpNot, []Value{IntValue{1}}},
		{"phi on int", OpPhi, []Value{IntValue{1}, IntValue{1}, IntValue{2}}},
		{"wrong arity", OpAdd, []Value{IntValue{1}}},
		{"leaf", OpConst, nil},
	}
	for _, tt := range tests {
		_, ok := Eval(tt.op, tt.args)
		assert.False(t, ok, tt.name)
	}
}
