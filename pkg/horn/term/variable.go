package term

import "sync/atomic"

var variableSerial atomic.Uint64

// Variable is a named binding slot. It is the only mutable term: unbound, or
// bound to exactly one other term. Bindings are made by Unify and reverted by
// a Trail or by Backtrack.
type Variable struct {
	id     string
	serial uint64
	value  Term
}

// NewVariable returns a fresh unbound variable
func NewVariable(id string) *Variable {
	return &Variable{id: id, serial: variableSerial.Add(1)}
}

func (v *Variable) Type() Type {
	if v.value != nil {
		return v.Deref().Type()
	}
	return TypeVariable
}

// ID returns the source name of the variable
func (v *Variable) ID() string { return v.id }

// IsBound reports whether the variable currently refers to another term
func (v *Variable) IsBound() bool { return v.value != nil }

func (v *Variable) Name() string {
	if v.value != nil {
		return v.Deref().Name()
	}
	return v.id
}

func (v *Variable) Args() []Term {
	if v.value != nil {
		return v.Deref().Args()
	}
	return nil
}

func (v *Variable) Deref() Term {
	var t Term = v
	for {
		cur, ok := t.(*Variable)
		if !ok || cur.value == nil {
			return t
		}
		t = cur.value
	}
}

func (v *Variable) Copy(sub map[*Variable]*Variable) Term {
	t := v.Deref()
	u, ok := t.(*Variable)
	if !ok {
		return t.Copy(sub)
	}
	if c, ok := sub[u]; ok {
		return c
	}
	c := NewVariable(u.id)
	sub[u] = c
	return c
}

func (v *Variable) IsImmutable() bool { return false }

func (v *Variable) String() string {
	if v.value != nil {
		return v.Deref().String()
	}
	return v.id
}

func (v *Variable) bind(t Term, tr *Trail) {
	v.value = t
	if tr != nil {
		tr.push(v)
	}
}

type anonymous struct{}

// Anonymous is the singleton "_" variable. It unifies with anything and
// never holds a binding.
var Anonymous Term = anonymous{}

func (anonymous) Type() Type                          { return TypeAnonymousVariable }
func (anonymous) Name() string                        { return "_" }
func (anonymous) Args() []Term                        { return nil }
func (a anonymous) Deref() Term                       { return a }
func (a anonymous) Copy(map[*Variable]*Variable) Term { return a }
func (anonymous) IsImmutable() bool                   { return true }
func (anonymous) String() string                      { return "_" }
