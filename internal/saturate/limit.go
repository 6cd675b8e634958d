package saturate

import "strconv"

// Limit is a resource bound that is either unbounded or a maximum count.
// The zero value is Unbounded.
type Limit struct {
	max     int
	bounded bool
}

// Unbounded never stops a run.
var Unbounded = Limit{}

// Max returns a limit of n. Max(0) is a real bound of zero, unlike
// LimitOf(0).
func Max(n int) Limit {
	if n < 0 {
		n = 0
	}
	return Limit{max: n, bounded: true}
}

// LimitOf converts a user-facing count, where 0 (or less) means no bound.
func LimitOf(n int) Limit {
	if n <= 0 {
		return Unbounded
	}
	return Max(n)
}

// Reached reports whether a counter at n has used up the limit.
func (l Limit) Reached(n int) bool {
	return l.bounded && n >= l.max
}

// Exceeded reports whether n has gone past the limit.
func (l Limit) Exceeded(n int) bool {
	return l.bounded && n > l.max
}

// Value returns the maximum and whether there is one.
func (l Limit) Value() (int, bool) {
	return l.max, l.bounded
}

// Int is the user-facing form, the inverse of LimitOf.
func (l Limit) Int() int {
	if !l.bounded {
		return 0
	}
	return l.max
}

func (l Limit) String() string {
	if !l.bounded {
		return "unbounded"
	}
	return strconv.Itoa(l.max)
}
