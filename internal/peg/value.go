package peg

import (
	"math"
	"strconv"
	"strings"
)

// Value is a concrete constant: a Java int, long or boolean.
type Value interface {
	isValue()
	String() string
	Equal(other Value) bool
}

// IntValue is a 32-bit Java int.
type IntValue struct {
	Val int32
}

func (IntValue) isValue() {}
func (v IntValue) String() string {
	return strconv.FormatInt(int64(v.Val), 10)
}

func (v IntValue) Equal(other Value) bool {
	if o, ok := other.(IntValue); ok {
		return v.Val == o.Val
	}
	return false
}

// LongValue is a 64-bit Java long. Its token carries an "l" suffix.
type LongValue struct {
	Val int64
}

func (LongValue) isValue() {}
func (v LongValue) String() string {
	return strconv.FormatInt(v.Val, 10) + "l"
}

func (v LongValue) Equal(other Value) bool {
	if o, ok := other.(LongValue); ok {
		return v.Val == o.Val
	}
	return false
}

// BoolValue is a Java boolean.
type BoolValue struct {
	Val bool
}

func (BoolValue) isValue() {}
func (v BoolValue) String() string {
	return strconv.FormatBool(v.Val)
}

func (v BoolValue) Equal(other Value) bool {
	if o, ok := other.(BoolValue); ok {
		return v.Val == o.Val
	}
	return false
}

// ParseValue interprets a constant token. Decimal literals within int range
// are ints, an l or L suffix makes a long. Other tokens have no value.
func ParseValue(token string) (Value, bool) {
	switch token {
	case "true":
		return BoolValue{Val: true}, true
	case "false":
		return BoolValue{Val: false}, true
	}

	if n := len(token); n > 1 && (token[n-1] == 'l' || token[n-1] == 'L') {
		v, err := strconv.ParseInt(token[:n-1], 10, 64)
		if err != nil {
			return nil, false
		}
		return LongValue{Val: v}, true
	}

	if strings.HasPrefix(token, "+") {
		return nil, false
	}
	v, err := strconv.ParseInt(token, 10, 64)
	if err != nil || v < math.MinInt32 || v > math.MaxInt32 {
		return nil, false
	}
	return IntValue{Val: int32(v)}, true
}

// ValueNode is the canonical constant leaf for v.
func ValueNode(v Value) Node {
	return Const(v.String())
}

// SameValue reports whether a and b denote the same number or boolean.
// Unlike Equal it treats an int and a long with equal magnitude as the same.
func SameValue(a, b Value) bool {
	if a.Equal(b) {
		return true
	}
	l, r, _, ok := widen(a, b)
	return ok && l == r
}
