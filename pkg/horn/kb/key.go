package kb

import (
	"fmt"

	"github.com/cognicore/horn/pkg/horn/term"
)

// PredicateKey identifies a predicate by name and arity
type PredicateKey struct {
	Name  string
	Arity int
}

// NewKey returns the key name/arity
func NewKey(name string, arity int) PredicateKey {
	return PredicateKey{Name: name, Arity: arity}
}

// KeyOf returns the key of a callable term. Variables, numbers and anything
// else that cannot name a goal produce a type error.
func KeyOf(t term.Term) (PredicateKey, error) {
	d := t.Deref()
	if !d.Type().IsCallable() {
		return PredicateKey{}, &term.TypeError{Expected: "an atom or a predicate", Term: t}
	}
	return PredicateKey{Name: d.Name(), Arity: len(d.Args())}, nil
}

func (k PredicateKey) String() string {
	return fmt.Sprintf("%s/%d", k.Name, k.Arity)
}

// Term returns the key as the structure name/arity
func (k PredicateKey) Term() term.Term {
	return term.NewStructure("/", term.NewAtom(k.Name), term.NewInteger(int64(k.Arity)))
}
