package builtin

import (
	"github.com/cognicore/horn/pkg/horn/kb"
	"github.com/cognicore/horn/pkg/horn/term"
)

// CurrentPredicate is "current_predicate(Name/Arity)". It enumerates the
// keys registered when the call started.
type CurrentPredicate struct{}

func (CurrentPredicate) IsRetryable() bool { return true }

func (CurrentPredicate) Predicate(env *kb.Env, args []term.Term) (kb.Predicate, error) {
	return &currentPredicate{env: env, arg: args[0], keys: env.KB().Keys(), mark: -1}, nil
}

type currentPredicate struct {
	env  *kb.Env
	arg  term.Term
	keys []kb.PredicateKey
	next int
	mark int
}

func (c *currentPredicate) Evaluate() (bool, error) {
	tr := c.env.Trail()
	if c.mark < 0 {
		c.mark = tr.Mark()
	}
	for c.next < len(c.keys) {
		tr.Undo(c.mark)
		key := c.keys[c.next]
		c.next++
		if c.env.Unify(c.arg, key.Term()) {
			return true, nil
		}
	}
	tr.Undo(c.mark)
	return false, nil
}

func (c *currentPredicate) IsRetryable() bool              { return true }
func (c *currentPredicate) CouldReEvaluationSucceed() bool { return c.next < len(c.keys) }

// assertLast stores a copy of the clause as it is bound now
func assertLast(env *kb.Env, args []term.Term) (bool, error) {
	if err := env.KB().Assert(args[0]); err != nil {
		return false, err
	}
	return true, nil
}

func assertFirst(env *kb.Env, args []term.Term) (bool, error) {
	if err := env.KB().AssertFirst(args[0]); err != nil {
		return false, err
	}
	return true, nil
}

func retract(env *kb.Env, args []term.Term) (bool, error) {
	return env.KB().Retract(env, args[0])
}
