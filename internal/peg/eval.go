package peg

// Eval applies a non-leaf operator to concrete arguments using Java
// semantics: int arithmetic wraps at 32 bits, long at 64 bits, mixed
// int/long operands are widened, shift distances are masked, and integer
// division or remainder by zero has no value. The second result is false
// when the operation is undefined or ill-typed.
func Eval(op Op, args []Value) (Value, bool) {
	if op.IsLeaf() || len(args) != op.Arity() {
		return nil, false
	}

	switch op {
	case OpNeg:
		switch a := args[0].(type) {
		case IntValue:
			return IntValue{Val: -a.Val}, true
		case LongValue:
			return LongValue{Val: -a.Val}, true
		}
		return nil, false

	case OpBitNot:
		switch a := args[0].(type) {
		case IntValue:
			return IntValue{Val: ^a.Val}, true
		case LongValue:
			return LongValue{Val: ^a.Val}, true
		}
		return nil, false

	case OpNot:
		if a, ok := args[0].(BoolValue); ok {
			return BoolValue{Val: !a.Val}, true
		}
		return nil, false

	case OpPhi:
		c, ok := args[0].(BoolValue)
		if !ok {
			return nil, false
		}
		if c.Val {
			return args[1], true
		}
		return args[2], true

	case OpShl, OpShr, OpUShr:
		return evalShift(op, args[0], args[1])

	case OpAnd, OpOr:
		l, lok := args[0].(BoolValue)
		r, rok := args[1].(BoolValue)
		if !lok || !rok {
			return nil, false
		}
		if op == OpAnd {
			return BoolValue{Val: l.Val && r.Val}, true
		}
		return BoolValue{Val: l.Val || r.Val}, true
	}

	if l, ok := args[0].(BoolValue); ok {
		r, ok := args[1].(BoolValue)
		if !ok {
			return nil, false
		}
		return evalBool(op, l.Val, r.Val)
	}

	l, r, long, ok := widen(args[0], args[1])
	if !ok {
		return nil, false
	}
	if long {
		return evalLong(op, l, r)
	}
	return evalInt(op, int32(l), int32(r))
}

// widen applies binary numeric promotion.
func widen(a, b Value) (l, r int64, long, ok bool) {
	switch x := a.(type) {
	case IntValue:
		l = int64(x.Val)
	case LongValue:
		l, long = x.Val, true
	default:
		return 0, 0, false, false
	}
	switch y := b.(type) {
	case IntValue:
		r = int64(y.Val)
	case LongValue:
		r, long = y.Val, true
	default:
		return 0, 0, false, false
	}
	return l, r, long, true
}

func evalBool(op Op, l, r bool) (Value, bool) {
	switch op {
	case OpBitAnd:
		return BoolValue{Val: l && r}, true
	case OpBitOr:
		return BoolValue{Val: l || r}, true
	case OpBitXor, OpNe:
		return BoolValue{Val: l != r}, true
	case OpEq:
		return BoolValue{Val: l == r}, true
	}
	return nil, false
}

func evalInt(op Op, l, r int32) (Value, bool) {
	switch op {
	case OpAdd:
		return IntValue{Val: l + r}, true
	case OpSub:
		return IntValue{Val: l - r}, true
	case OpMul:
		return IntValue{Val: l * r}, true
	case OpDiv:
		if r == 0 {
			return nil, false
		}
		return IntValue{Val: l / r}, true
	case OpRem:
		if r == 0 {
			return nil, false
		}
		return IntValue{Val: l % r}, true
	case OpBitAnd:
		return IntValue{Val: l & r}, true
	case OpBitOr:
		return IntValue{Val: l | r}, true
	case OpBitXor:
		return IntValue{Val: l ^ r}, true
	}
	return compare(op, int64(l), int64(r))
}

func evalLong(op Op, l, r int64) (Value, bool) {
	switch op {
	case OpAdd:
		return LongValue{Val: l + r}, true
	case OpSub:
		return LongValue{Val: l - r}, true
	case OpMul:
		return LongValue{Val: l * r}, true
	case OpDiv:
		if r == 0 {
			return nil, false
		}
		return LongValue{Val: l / r}, true
	case OpRem:
		if r == 0 {
			return nil, false
		}
		return LongValue{Val: l % r}, true
	case OpBitAnd:
		return LongValue{Val: l & r}, true
	case OpBitOr:
		return LongValue{Val: l | r}, true
	case OpBitXor:
		return LongValue{Val: l ^ r}, true
	}
	return compare(op, l, r)
}

func compare(op Op, l, r int64) (Value, bool) {
	switch op {
	case OpEq:
		return BoolValue{Val: l == r}, true
	case OpNe:
		return BoolValue{Val: l != r}, true
	case OpLt:
		return BoolValue{Val: l < r}, true
	case OpLe:
		return BoolValue{Val: l <= r}, true
	case OpGt:
		return BoolValue{Val: l > r}, true
	case OpGe:
		return BoolValue{Val: l >= r}, true
	}
	return nil, false
}

// evalShift follows Java: the result type is the type of the left operand
// and only the low 5 (int) or 6 (long) bits of the distance are used.
func evalShift(op Op, a, b Value) (Value, bool) {
	var dist int64
	switch d := b.(type) {
	case IntValue:
		dist = int64(d.Val)
	case LongValue:
		dist = d.Val
	default:
		return nil, false
	}

	switch x := a.(type) {
	case IntValue:
		s := uint(dist & 31)
		switch op {
		case OpShl:
			return IntValue{Val: x.Val << s}, true
		case OpShr:
			return IntValue{Val: x.Val >> s}, true
		default:
			return IntValue{Val: int32(uint32(x.Val) >> s)}, true
		}
	case LongValue:
		s := uint(dist & 63)
		switch op {
		case OpShl:
			return LongValue{Val: x.Val << s}, true
		case OpShr:
			return LongValue{Val: x.Val >> s}, true
		default:
			return LongValue{Val: int64(uint64(x.Val) >> s)}, true
		}
	}
	return nil, false
}
