package kb

import (
	"github.com/cognicore/horn/pkg/horn/term"
)

// ClauseAction is the compiled form of one clause. It is chosen once, when
// the clause is asserted, by looking at the shape of the head and body, and
// is shared by every call; per-call state is created inside Predicate.
//
// Predicate unifies the call arguments with the clause head and returns the
// predicate that proves the body, or False when the head does not match.
type ClauseAction interface {
	Model() ClauseModel
	IsRetryable() bool
	Predicate(env *Env, args []term.Term) (Predicate, error)
}

// compile selects the cheapest action able to run model
func (k *KnowledgeBase) compile(model ClauseModel) (ClauseAction, error) {
	head, body := model.Head, model.Body.Deref()
	args := head.Args()

	if body.Type() == term.TypeVariable {
		return &VariableAntecedantClauseAction{model: model}, nil
	}
	if model.IsFact() {
		switch {
		case len(args) == 0 || distinctVariables(args):
			return &AlwaysMatchedFact{model: model}, nil
		case head.IsImmutable():
			return &ImmutableFact{model: model, args: args}, nil
		default:
			return &MutableFact{model: model}, nil
		}
	}

	ante := k.newAntecedent(body)
	switch {
	case len(args) == 0:
		return &ZeroArgConsequentRule{model: model, ante: ante}, nil
	case head.IsImmutable():
		return &ImmutableConsequentRule{model: model, args: args, ante: ante}, nil
	default:
		return &MutableRule{model: model, ante: ante}, nil
	}
}

// distinctVariables reports whether every argument is a variable and no
// named variable repeats
func distinctVariables(args []term.Term) bool {
	seen := make(map[*term.Variable]struct{}, len(args))
	for _, a := range args {
		switch v := a.(type) {
		case *term.Variable:
			if _, dup := seen[v]; dup {
				return false
			}
			seen[v] = struct{}{}
		default:
			if a != term.Anonymous {
				return false
			}
		}
	}
	return true
}

// antecedent resolves the body goal of a rule. When the body's predicate is
// known at compile time its factory is fixed, otherwise it is looked up on
// every call so that predicates defined later are found.
type antecedent struct {
	key   PredicateKey
	fixed PredicateFactory
}

func (k *KnowledgeBase) newAntecedent(body term.Term) antecedent {
	key, _ := KeyOf(body)
	f, _ := k.FactoryFor(body)
	return antecedent{key: key, fixed: f}
}

// isRetryable is conservatively true for a body whose predicate is not yet
// defined
func (a antecedent) isRetryable() bool {
	if a.fixed == nil {
		return true
	}
	return a.fixed.IsRetryable()
}

func (a antecedent) predicate(env *Env, body term.Term) (Predicate, error) {
	f := a.fixed
	if f == nil {
		var err error
		if f, err = env.KB().resolve(a.key); err != nil {
			return nil, err
		}
	}
	return f.Predicate(env, body.Deref().Args())
}

// AlwaysMatchedFact is a fact whose head has no arguments or only distinct
// variables, so every call matches without binding anything.
type AlwaysMatchedFact struct {
	model ClauseModel
}

func (a *AlwaysMatchedFact) Model() ClauseModel { return a.model }
func (a *AlwaysMatchedFact) IsRetryable() bool  { return false }

func (a *AlwaysMatchedFact) Predicate(*Env, []term.Term) (Predicate, error) {
	return True, nil
}

// ImmutableFact is a fact whose head contains no variables. Calls unify
// against the stored arguments directly.
type ImmutableFact struct {
	model ClauseModel
	args  []term.Term
}

func (a *ImmutableFact) Model() ClauseModel { return a.model }
func (a *ImmutableFact) IsRetryable() bool  { return false }

func (a *ImmutableFact) Predicate(env *Env, args []term.Term) (Predicate, error) {
	return Result(term.UnifyAll(args, a.args, env.Trail())), nil
}

// MutableFact is a fact whose head contains variables. Each call unifies
// against a fresh copy of the head.
type MutableFact struct {
	model ClauseModel
}

func (a *MutableFact) Model() ClauseModel { return a.model }
func (a *MutableFact) IsRetryable() bool  { return false }

func (a *MutableFact) Predicate(env *Env, args []term.Term) (Predicate, error) {
	head := a.model.Head.Copy(make(map[*term.Variable]*term.Variable))
	return Result(term.UnifyAll(args, head.Args(), env.Trail())), nil
}

// VariableAntecedantClauseAction is a clause whose body is a variable. The
// goal is only known once the head has been unified and the variable is
// bound, so the lookup happens on every call.
type VariableAntecedantClauseAction struct {
	model ClauseModel
}

func (a *VariableAntecedantClauseAction) Model() ClauseModel { return a.model }
func (a *VariableAntecedantClauseAction) IsRetryable() bool  { return true }

func (a *VariableAntecedantClauseAction) Predicate(env *Env, args []term.Term) (Predicate, error) {
	head, body := a.model.Copy()
	if !term.UnifyAll(args, head.Args(), env.Trail()) {
		return False, nil
	}
	return env.Goal(body)
}

// ZeroArgConsequentRule is a rule with an atom head: it only has to prove
// its body.
type ZeroArgConsequentRule struct {
	model ClauseModel
	ante  antecedent
}

func (a *ZeroArgConsequentRule) Model() ClauseModel { return a.model }
func (a *ZeroArgConsequentRule) IsRetryable() bool  { return a.ante.isRetryable() }

func (a *ZeroArgConsequentRule) Predicate(env *Env, _ []term.Term) (Predicate, error) {
	return a.ante.predicate(env, freshBody(a.model.Body))
}

// ImmutableConsequentRule is a rule whose head contains no variables. The
// call is unified against the stored head and only on success is the body
// resolved.
type ImmutableConsequentRule struct {
	model ClauseModel
	args  []term.Term
	ante  antecedent
}

func (a *ImmutableConsequentRule) Model() ClauseModel { return a.model }
func (a *ImmutableConsequentRule) IsRetryable() bool  { return a.ante.isRetryable() }

func (a *ImmutableConsequentRule) Predicate(env *Env, args []term.Term) (Predicate, error) {
	if !term.UnifyAll(args, a.args, env.Trail()) {
		return False, nil
	}
	return a.ante.predicate(env, freshBody(a.model.Body))
}

// MutableRule is a rule whose head contains variables. Each call copies the
// whole clause so variables shared between head and body stay shared.
type MutableRule struct {
	model ClauseModel
	ante  antecedent
}

func (a *MutableRule) Model() ClauseModel { return a.model }
func (a *MutableRule) IsRetryable() bool  { return a.ante.isRetryable() }

func (a *MutableRule) Predicate(env *Env, args []term.Term) (Predicate, error) {
	head, body := a.model.Copy()
	if !term.UnifyAll(args, head.Args(), env.Trail()) {
		return False, nil
	}
	return a.ante.predicate(env, body)
}

// freshBody returns body itself when it has no variables, otherwise a copy
// private to the call
func freshBody(body term.Term) term.Term {
	if body.IsImmutable() {
		return body
	}
	return body.Copy(make(map[*term.Variable]*term.Variable))
}

func actionName(a ClauseAction) string {
	switch a.(type) {
	case *AlwaysMatchedFact:
		return "AlwaysMatchedFact"
	case *ImmutableFact:
		return "ImmutableFact"
	case *MutableFact:
		return "MutableFact"
	case *VariableAntecedantClauseAction:
		return "VariableAntecedantClauseAction"
	case *ZeroArgConsequentRule:
		return "ZeroArgConsequentRule"
	case *ImmutableConsequentRule:
		return "ImmutableConsequentRule"
	case *MutableRule:
		return "MutableRule"
	}
	return "unknown"
}
