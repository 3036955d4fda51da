package term

import (
	"fmt"

	"github.com/cognicore/horn/pkg/horn/internalerr"
)

// Type identifies the variant of a Term
type Type int

const (
	TypeAnonymousVariable Type = iota
	TypeVariable
	TypeInteger
	TypeDecimal
	TypeAtom
	TypeEmptyList
	TypeStructure
	TypeList
)

var typeNames = map[Type]string{
	TypeAnonymousVariable: "ANONYMOUS_VARIABLE",
	TypeVariable:          "VARIABLE",
	TypeInteger:           "INTEGER",
	TypeDecimal:           "DECIMAL",
	TypeAtom:              "ATOM",
	TypeEmptyList:         "EMPTY_LIST",
	TypeStructure:         "STRUCTURE",
	TypeList:              "LIST",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// precedence is the rank used by Compare: variables, numbers, atoms, compounds.
func (t Type) precedence() int {
	switch t {
	case TypeAnonymousVariable, TypeVariable:
		return 1
	case TypeInteger, TypeDecimal:
		return 2
	case TypeAtom, TypeEmptyList:
		return 3
	default:
		return 4
	}
}

// IsNumeric reports whether terms of this type implement Numeric
func (t Type) IsNumeric() bool { return t == TypeInteger || t == TypeDecimal }

// IsVariable reports whether the type is a (named or anonymous) variable
func (t Type) IsVariable() bool { return t == TypeVariable || t == TypeAnonymousVariable }

// IsCallable reports whether a term of this type can name a goal
func (t Type) IsCallable() bool {
	return t == TypeAtom || t == TypeStructure || t == TypeList || t == TypeEmptyList
}

// Term is a value in the expression language.
//
// Atoms, numbers and the anonymous variable are immutable and may be shared
// freely. Structures and lists are immutable in shape but may contain
// variables, which are the only mutable cells: a Variable is either unbound or
// refers to exactly one other term.
type Term interface {
	Type() Type
	// Name is the functor name for atoms, structures and lists, the id for
	// variables and the printed value for numbers.
	Name() string
	// Args returns the arguments; nil for zero-arity terms.
	Args() []Term
	// Deref follows variable bindings to a value or to the last unbound
	// variable of the chain.
	Deref() Term
	// Copy returns a structural copy in which each unbound variable is
	// replaced by a fresh one. Variables already present in sub are reused so
	// sharing in the source is preserved in the copy.
	Copy(sub map[*Variable]*Variable) Term
	// IsImmutable reports whether the term contains no variables.
	IsImmutable() bool
	String() string
}

// TypeError reports a term whose type did not match what an operation needed
type TypeError struct {
	Expected string
	Term     Term
}

func (e *TypeError) Error() string {
	t := e.Term.Deref()
	return fmt.Sprintf("expected %s but got: %s with value: %s", e.Expected, t.Type(), t)
}

// Unwrap lets callers match with errors.Is(err, internalerr.ErrType)
func (e *TypeError) Unwrap() error { return internalerr.ErrType }

// Argument returns the i-th argument of t, failing with a type error when t
// has no arguments or the index is out of range.
func Argument(t Term, i int) (Term, error) {
	args := t.Args()
	if len(args) == 0 {
		return nil, &TypeError{Expected: "a term with arguments", Term: t}
	}
	if i < 0 || i >= len(args) {
		return nil, &TypeError{Expected: fmt.Sprintf("a term with argument %d", i), Term: t}
	}
	return args[i], nil
}

// Arity returns the number of arguments of t
func Arity(t Term) int { return len(t.Args()) }

// IsGround reports whether t, after following bindings, contains no unbound
// variables. Unlike IsImmutable it looks through bound variables.
func IsGround(t Term) bool {
	t = t.Deref()
	switch t.Type() {
	case TypeVariable, TypeAnonymousVariable:
		return false
	case TypeStructure, TypeList:
		if t.IsImmutable() {
			return true
		}
		for _, a := range t.Args() {
			if !IsGround(a) {
				return false
			}
		}
	}
	return true
}

// Variables returns the unbound variables of t in order of first occurrence
func Variables(t Term) []*Variable {
	var out []*Variable
	seen := make(map[*Variable]struct{})
	var walk func(Term)
	walk = func(t Term) {
		t = t.Deref()
		switch v := t.(type) {
		case *Variable:
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				out = append(out, v)
			}
		case *Structure:
			for _, a := range v.args {
				walk(a)
			}
		case *List:
			walk(v.head)
			walk(v.tail)
		}
	}
	walk(t)
	return out
}

// Backtrack reverts the bindings of every variable occurring directly in t.
// It is a local undo that bypasses the trail.
func Backtrack(t Term) {
	switch v := t.(type) {
	case *Variable:
		v.value = nil
	case *Structure:
		if v.immutable {
			return
		}
		for _, a := range v.args {
			Backtrack(a)
		}
	case *List:
		if v.immutable {
			return
		}
		Backtrack(v.head)
		Backtrack(v.tail)
	}
}
