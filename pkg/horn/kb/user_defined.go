package kb

import (
	"sync/atomic"

	"github.com/cognicore/horn/pkg/horn/term"
)

// UserDefinedPredicate is a predicate defined by asserted clauses. Its clause
// list is replaced, never edited in place, so a call iterates the clauses
// that existed when it started even if the predicate changes meanwhile.
type UserDefinedPredicate struct {
	key     PredicateKey
	clauses atomic.Pointer[[]ClauseAction]
}

func newUserDefinedPredicate(key PredicateKey) *UserDefinedPredicate {
	u := &UserDefinedPredicate{key: key}
	u.clauses.Store(&[]ClauseAction{})
	return u
}

func (u *UserDefinedPredicate) Key() PredicateKey { return u.key }

// Clauses returns the current clauses in order
func (u *UserDefinedPredicate) Clauses() []ClauseAction { return *u.clauses.Load() }

// add is called with the knowledge base lock held
func (u *UserDefinedPredicate) add(a ClauseAction, first bool) {
	cur := *u.clauses.Load()
	next := make([]ClauseAction, 0, len(cur)+1)
	if first {
		next = append(append(next, a), cur...)
	} else {
		next = append(append(next, cur...), a)
	}
	u.clauses.Store(&next)
}

// remove is called with the knowledge base lock held
func (u *UserDefinedPredicate) remove(a ClauseAction) bool {
	cur := *u.clauses.Load()
	for i, c := range cur {
		if c != a {
			continue
		}
		next := make([]ClauseAction, 0, len(cur)-1)
		next = append(append(next, cur[:i]...), cur[i+1:]...)
		u.clauses.Store(&next)
		return true
	}
	return false
}

// IsRetryable is always true: clauses may be added after a caller has
// compiled against this predicate.
func (u *UserDefinedPredicate) IsRetryable() bool { return true }

func (u *UserDefinedPredicate) Predicate(env *Env, args []term.Term) (Predicate, error) {
	clauses := u.Clauses()
	switch {
	case len(clauses) == 0:
		return False, nil
	case len(clauses) == 1 && !clauses[0].IsRetryable():
		return clauses[0].Predicate(env, args)
	}
	return &clauseIterator{env: env, args: args, clauses: clauses, mark: -1}, nil
}

// clauseIterator tries each clause in turn, exhausting the alternatives of
// one clause before undoing its bindings and moving to the next.
type clauseIterator struct {
	env     *Env
	args    []term.Term
	clauses []ClauseAction
	next    int
	current Predicate
	mark    int
}

func (it *clauseIterator) Evaluate() (bool, error) {
	tr := it.env.Trail()
	if it.mark < 0 {
		it.mark = tr.Mark()
	}
	if it.current != nil && it.current.IsRetryable() {
		ok, err := it.current.Evaluate()
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	for it.next < len(it.clauses) {
		if err := it.env.Context().Err(); err != nil {
			return false, err
		}
		tr.Undo(it.mark)
		action := it.clauses[it.next]
		it.next++
		p, err := action.Predicate(it.env, it.args)
		if err != nil {
			return false, err
		}
		it.current = p
		ok, err := p.Evaluate()
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	it.current = nil
	tr.Undo(it.mark)
	return false, nil
}

func (it *clauseIterator) IsRetryable() bool { return true }

func (it *clauseIterator) CouldReEvaluationSucceed() bool {
	return it.next < len(it.clauses) || CanRetry(it.current)
}
