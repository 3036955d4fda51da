package kb

import (
	"fmt"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/term"
)

// ClauseFunctor separates head and body in a clause term
const ClauseFunctor = ":-"

// MalformedClauseError reports a clause that cannot be stored
type MalformedClauseError struct {
	Clause term.Term
	Reason string
}

func (e *MalformedClauseError) Error() string {
	return fmt.Sprintf("malformed clause %s: %s", e.Clause, e.Reason)
}

func (e *MalformedClauseError) Unwrap() error { return internalerr.ErrMalformedClause }

// ClauseModel is one stored clause: a head and a body, independent of any
// call. Facts have the body true.
type ClauseModel struct {
	Head term.Term
	Body term.Term
}

// NewClauseModel splits a "Head :- Body" term, or a bare head, into a model.
// The head must be callable and every goal in the body must be callable or a
// variable. The model is built from a copy of clause, so later changes to
// the bindings of clause's variables do not affect it.
func NewClauseModel(clause term.Term) (ClauseModel, error) {
	d := clause.Copy(make(map[*term.Variable]*term.Variable)).Deref()
	head, body := d, term.Term(term.True)
	if isClauseTerm(d) {
		args := d.Args()
		head, body = args[0].Deref(), args[1].Deref()
	}
	if !head.Type().IsCallable() {
		return ClauseModel{}, &MalformedClauseError{Clause: clause, Reason: "head must be an atom or a structure, got " + head.Type().String()}
	}
	if err := checkBody(body); err != nil {
		return ClauseModel{}, &MalformedClauseError{Clause: clause, Reason: err.Error()}
	}
	return ClauseModel{Head: head, Body: body}, nil
}

func isClauseTerm(t term.Term) bool {
	return t.Type() == term.TypeStructure && t.Name() == ClauseFunctor && len(t.Args()) == 2
}

// checkBody walks the control constructs of a body looking for goals that
// can never be called
func checkBody(body term.Term) error {
	b := body.Deref()
	switch {
	case b.Type() == term.TypeVariable:
		return nil
	case b.Type() == term.TypeAnonymousVariable:
		return fmt.Errorf("body goal cannot be the anonymous variable")
	case !b.Type().IsCallable():
		return fmt.Errorf("body goal %s is a %s", b, b.Type())
	}
	if b.Type() == term.TypeStructure && len(b.Args()) == 2 {
		switch b.Name() {
		case ",", ";", "->":
			for _, g := range b.Args() {
				if err := checkBody(g); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// IsFact reports whether the body is true
func (m ClauseModel) IsFact() bool {
	b := m.Body.Deref()
	return b.Type() == term.TypeAtom && b.Name() == term.True.Name()
}

// Copy returns fresh copies of head and body sharing one substitution, so a
// variable occurring in both maps to the same new variable
func (m ClauseModel) Copy() (head, body term.Term) {
	sub := make(map[*term.Variable]*term.Variable)
	return m.Head.Copy(sub), m.Body.Copy(sub)
}

// Term returns the clause as a term
func (m ClauseModel) Term() term.Term {
	if m.IsFact() {
		return m.Head
	}
	return term.NewStructure(ClauseFunctor, m.Head, m.Body)
}

func (m ClauseModel) String() string { return m.Term().String() }
