package rewrite

// DefaultRules returns the built-in arithmetic and boolean rewrite rules,
// in the order they are applied each round.
//
// Every rule holds for all operand values of a single Java integer type.
// Identities that need a non-zero divisor or unbounded integers are not
// included.
func DefaultRules() []*Rule {
	return []*Rule{
		// arithmetic
		MustRule("commute-add", "(+ ?a ?b)", "(+ ?b ?a)"),
		MustRule("commute-mul", "(* ?a ?b)", "(* ?b ?a)"),
		MustRule("associate-add", "(+ ?a (+ ?b ?c))", "(+ (+ ?a ?b) ?c)"),
		MustRule("associate-mul", "(* ?a (* ?b ?c))", "(* (* ?a ?b) ?c)"),
		MustRule("add-ident", "(+ ?a 0)", "?a", IsNotConst("a")),
		MustRule("mul-bot", "(* ?a 0)", "0", IsNotConst("a")),
		MustRule("mul-bot-long", "(* ?a 0l)", "0l", IsNotConst("a")),
		MustRule("mul-ident", "(* ?a 1)", "?a", IsNotConst("a")),
		MustRule("neg-zero", "(--- 0)", "0"),
		MustRule("neg-involution", "(--- (--- ?a))", "?a"),
		MustRule("add-inv", "(+ ?a (--- ?a))", "0", IsNotConst("a")),
		MustRule("sub-to-add", "(- ?a ?b)", "(+ ?a (--- ?b))"),

		// division and remainder
		MustRule("div-ident", "(/ ?a 1)", "?a"),
		MustRule("div-zero", "(/ ?a 0)", "error"),
		MustRule("rem-zero-divisor", "(% ?a 1)", "0"),

		// bitwise
		MustRule("commute-bitand", "(& ?a ?b)", "(& ?b ?a)"),
		MustRule("commute-bitor", "(| ?a ?b)", "(| ?b ?a)"),
		MustRule("commute-bitxor", "(^ ?a ?b)", "(^ ?b ?a)"),
		MustRule("bitnot-involution", "(~ (~ ?a))", "?a"),

		// comparison
		MustRule("lt-comp", "(< ?a ?b)", "(! (>= ?a ?b))"),
		MustRule("gt-comp", "(> ?a ?b)", "(! (<= ?a ?b))"),
		MustRule("lte-comp", "(<= ?a ?b)", "(! (> ?a ?b))"),
		MustRule("gte-comp", "(>= ?a ?b)", "(! (< ?a ?b))"),
		MustRule("gte-split", "(>= ?a ?b)", "(|| (> ?a ?b) (== ?a ?b))"),
		MustRule("lte-split", "(<= ?a ?b)", "(|| (< ?a ?b) (== ?a ?b))"),
		MustRule("lt-flip", "(< ?a ?b)", "(> ?b ?a)"),
		MustRule("lte-flip", "(<= ?a ?b)", "(>= ?b ?a)"),
		MustRule("commute-eq", "(== ?a ?b)", "(== ?b ?a)"),
		MustRule("commute-ne", "(!= ?a ?b)", "(!= ?b ?a)"),
		MustRule("ne-comp", "(!= ?a ?b)", "(! (== ?a ?b))"),

		// boolean
		MustRule("not-involution", "(! (! ?a))", "?a"),
		MustRule("commute-and", "(&& ?a ?b)", "(&& ?b ?a)"),
		MustRule("commute-or", "(|| ?a ?b)", "(|| ?b ?a)"),
	}
}

// Lookup returns the rules whose names are listed, in the order given.
func Lookup(rules []*Rule, names ...string) []*Rule {
	byName := make(map[string]*Rule, len(rules))
	for _, r := range rules {
		byName[r.Name] = r
	}
	var out []*Rule
	for _, name := range names {
		if r, ok := byName[name]; ok {
			out = append(out, r)
		}
	}
	return out
}
