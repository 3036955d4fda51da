package builtin

import (
	"github.com/cognicore/horn/pkg/horn/kb"
	"github.com/cognicore/horn/pkg/horn/term"
)

// unifyOrUndo unifies a and b, leaving no bindings behind when they do not
// unify
func unifyOrUndo(env *kb.Env, a, b term.Term) bool {
	tr := env.Trail()
	mark := tr.Mark()
	if env.Unify(a, b) {
		return true
	}
	tr.Undo(mark)
	return false
}

func unify(env *kb.Env, args []term.Term) (bool, error) {
	return unifyOrUndo(env, args[0], args[1]), nil
}

func notUnifiable(env *kb.Env, args []term.Term) (bool, error) {
	tr := env.Trail()
	mark := tr.Mark()
	ok := env.Unify(args[0], args[1])
	tr.Undo(mark)
	return !ok, nil
}

func strictEquality(_ *kb.Env, args []term.Term) (bool, error) {
	return term.StrictEquality(args[0], args[1]), nil
}

func notStrictEquality(_ *kb.Env, args []term.Term) (bool, error) {
	return !term.StrictEquality(args[0], args[1]), nil
}

func termOrder(accept func(int) bool) func(*kb.Env, []term.Term) (bool, error) {
	return func(_ *kb.Env, args []term.Term) (bool, error) {
		return accept(term.Compare(args[0], args[1])), nil
	}
}

var orderAtoms = [3]*term.Atom{term.NewAtom("<"), term.NewAtom("="), term.NewAtom(">")}

// compareTerms is compare(Order, A, B)
func compareTerms(env *kb.Env, args []term.Term) (bool, error) {
	order := orderAtoms[term.Compare(args[1], args[2])+1]
	return unifyOrUndo(env, args[0], order), nil
}
