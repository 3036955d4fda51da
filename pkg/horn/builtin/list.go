package builtin

import (
	"github.com/cognicore/horn/pkg/horn/kb"
	"github.com/cognicore/horn/pkg/horn/term"
)

// subtract is subtract(List, Remove, Result): Result is List without the
// elements that unify with an element of Remove. Bindings made by a
// successful match are kept.
func subtract(env *kb.Env, args []term.Term) (bool, error) {
	list, ok := term.ToSlice(args[0])
	if !ok {
		return false, nil
	}
	remove, ok := term.ToSlice(args[1])
	if !ok {
		return false, nil
	}
	kept := make([]term.Term, 0, len(list))
	for _, item := range list {
		if !matchesAny(env, item, remove) {
			kept = append(kept, item)
		}
	}
	return unifyOrUndo(env, args[2], term.NewList(kept)), nil
}

func matchesAny(env *kb.Env, item term.Term, candidates []term.Term) bool {
	for _, c := range candidates {
		if unifyOrUndo(env, item, c) {
			return true
		}
	}
	return false
}

// reverse is reverse(A, B) for proper lists, in either direction
func reverse(env *kb.Env, args []term.Term) (bool, error) {
	a, b := args[0].Deref(), args[1].Deref()
	switch {
	case a.Type() == term.TypeList:
		return unifyReversed(env, b, a), nil
	case b.Type() == term.TypeList:
		return unifyReversed(env, a, b), nil
	case a.Type() == term.TypeEmptyList || b.Type() == term.TypeEmptyList:
		return unifyOrUndo(env, a, b), nil
	}
	return false, nil
}

func unifyReversed(env *kb.Env, t, list term.Term) bool {
	elems, ok := term.ToSlice(list)
	if !ok {
		return false
	}
	rev := make([]term.Term, len(elems))
	for i, e := range elems {
		rev[len(elems)-1-i] = e
	}
	return unifyOrUndo(env, t, term.NewList(rev))
}
