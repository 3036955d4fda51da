package term

import (
	"strings"
)

// ListFunctor is the name of the cons cell functor
const ListFunctor = "."

// Structure is a compound term: a functor name applied to one or more
// arguments
type Structure struct {
	name      string
	args      []Term
	immutable bool
}

// NewStructure builds a compound term. A "." functor with two arguments
// yields a List and zero arguments yields an Atom, so equal terms always
// share a representation.
func NewStructure(name string, args ...Term) Term {
	switch {
	case len(args) == 0:
		return NewAtom(name)
	case name == ListFunctor && len(args) == 2:
		return NewCons(args[0], args[1])
	}
	return &Structure{name: name, args: args, immutable: allImmutable(args)}
}

func allImmutable(args []Term) bool {
	for _, a := range args {
		if !a.IsImmutable() {
			return false
		}
	}
	return true
}

func (s *Structure) Type() Type        { return TypeStructure }
func (s *Structure) Name() string      { return s.name }
func (s *Structure) Args() []Term      { return s.args }
func (s *Structure) Deref() Term       { return s }
func (s *Structure) IsImmutable() bool { return s.immutable }

func (s *Structure) Copy(sub map[*Variable]*Variable) Term {
	if s.immutable {
		return s
	}
	args := make([]Term, len(s.args))
	for i, a := range s.args {
		args[i] = a.Copy(sub)
	}
	return &Structure{name: s.name, args: args, immutable: allImmutable(args)}
}

func (s *Structure) String() string {
	var b strings.Builder
	b.WriteString(quoteAtom(s.name))
	b.WriteByte('(')
	for i, a := range s.args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteByte(')')
	return b.String()
}

// List is a cons cell of the "." functor
type List struct {
	head, tail Term
	immutable  bool
}

// NewCons returns the list cell [head|tail]
func NewCons(head, tail Term) *List {
	return &List{head: head, tail: tail, immutable: head.IsImmutable() && tail.IsImmutable()}
}

func (l *List) Type() Type        { return TypeList }
func (l *List) Name() string      { return ListFunctor }
func (l *List) Args() []Term      { return []Term{l.head, l.tail} }
func (l *List) Deref() Term       { return l }
func (l *List) IsImmutable() bool { return l.immutable }

// Head returns the first element
func (l *List) Head() Term { return l.head }

// Tail returns the rest of the list
func (l *List) Tail() Term { return l.tail }

func (l *List) Copy(sub map[*Variable]*Variable) Term {
	if l.immutable {
		return l
	}
	return NewCons(l.head.Copy(sub), l.tail.Copy(sub))
}

func (l *List) String() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(l.head.String())
	rest := l.tail.Deref()
	for {
		next, ok := rest.(*List)
		if !ok {
			break
		}
		b.WriteByte(',')
		b.WriteString(next.head.String())
		rest = next.tail.Deref()
	}
	if rest != EmptyList {
		b.WriteByte('|')
		b.WriteString(rest.String())
	}
	b.WriteByte(']')
	return b.String()
}

type emptyList struct{}

// EmptyList is the [] terminator of proper lists
var EmptyList Term = emptyList{}

func (emptyList) Type() Type                          { return TypeEmptyList }
func (emptyList) Name() string                        { return "[]" }
func (emptyList) Args() []Term                        { return nil }
func (e emptyList) Deref() Term                       { return e }
func (e emptyList) Copy(map[*Variable]*Variable) Term { return e }
func (emptyList) IsImmutable() bool                   { return true }
func (emptyList) String() string                      { return "[]" }

// NewList returns a proper list of the given elements
func NewList(elems []Term) Term {
	return NewListWithTail(elems, EmptyList)
}

// NewListWithTail returns a list of elems ending in tail, which need not be
// a list
func NewListWithTail(elems []Term, tail Term) Term {
	out := tail
	for i := len(elems) - 1; i >= 0; i-- {
		out = NewCons(elems[i], out)
	}
	return out
}

// ToSlice returns the elements of a proper list. Partial lists and non-list
// terms report false.
func ToSlice(t Term) ([]Term, bool) {
	t = t.Deref()
	if t == EmptyList {
		return []Term{}, true
	}
	var out []Term
	for {
		l, ok := t.(*List)
		if !ok {
			break
		}
		out = append(out, l.head)
		t = l.tail.Deref()
	}
	if t != EmptyList || out == nil {
		return nil, false
	}
	return out, true
}
