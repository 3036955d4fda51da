// Package builtin provides the predicates and arithmetic operators every
// knowledge base starts with.
package builtin

import (
	"fmt"

	"github.com/cognicore/horn/pkg/horn/kb"
)

type entry struct {
	name    string
	arity   int
	factory kb.PredicateFactory
}

func predicates() []entry {
	return []entry{
		{"true", 0, kb.SingletonFunc(succeed)},
		{"fail", 0, kb.SingletonFunc(fail)},
		{"false", 0, kb.SingletonFunc(fail)},
		{",", 2, Conjunction{}},
		{";", 2, Disjunction{}},
		{"->", 2, IfThen{}},
		{"once", 1, kb.SingletonFunc(once)},
		{"call", 1, Call{}},
		{"\\+", 1, kb.SingletonFunc(not)},
		{"repeat", 0, Repeat{}},
		{"repeat", 1, RepeatSetAmount{}},

		{"=", 2, kb.SingletonFunc(unify)},
		{"\\=", 2, kb.SingletonFunc(notUnifiable)},
		{"==", 2, kb.SingletonFunc(strictEquality)},
		{"\\==", 2, kb.SingletonFunc(notStrictEquality)},
		{"@<", 2, kb.SingletonFunc(termOrder(func(c int) bool { return c < 0 }))},
		{"@=<", 2, kb.SingletonFunc(termOrder(func(c int) bool { return c <= 0 }))},
		{"@>", 2, kb.SingletonFunc(termOrder(func(c int) bool { return c > 0 }))},
		{"@>=", 2, kb.SingletonFunc(termOrder(func(c int) bool { return c >= 0 }))},
		{"compare", 3, kb.SingletonFunc(compareTerms)},

		{"is", 2, Is{}},
		{"=:=", 2, kb.SingletonFunc(numericOrder(func(c int) bool { return c == 0 }))},
		{"=\\=", 2, kb.SingletonFunc(numericOrder(func(c int) bool { return c != 0 }))},
		{"<", 2, kb.SingletonFunc(numericOrder(func(c int) bool { return c < 0 }))},
		{"=<", 2, kb.SingletonFunc(numericOrder(func(c int) bool { return c <= 0 }))},
		{">", 2, kb.SingletonFunc(numericOrder(func(c int) bool { return c > 0 }))},
		{">=", 2, kb.SingletonFunc(numericOrder(func(c int) bool { return c >= 0 }))},

		{"current_predicate", 1, CurrentPredicate{}},
		{"assert", 1, kb.SingletonFunc(assertLast)},
		{"assertz", 1, kb.SingletonFunc(assertLast)},
		{"asserta", 1, kb.SingletonFunc(assertFirst)},
		{"retract", 1, kb.SingletonFunc(retract)},

		{"subtract", 3, kb.SingletonFunc(subtract)},
		{"reverse", 2, kb.SingletonFunc(reverse)},
	}
}

// Register installs the built-in predicates and arithmetic operators into k
func Register(k *kb.KnowledgeBase) error {
	for _, e := range predicates() {
		if err := k.AddPredicateFactory(kb.NewKey(e.name, e.arity), e.factory); err != nil {
			return fmt.Errorf("register %s/%d: %w", e.name, e.arity, err)
		}
	}
	for _, op := range operators() {
		k.AddArithmeticOperator(kb.NewKey(op.name, op.arity), op.op)
	}
	return nil
}
