package builtin

import (
	"github.com/cognicore/horn/pkg/horn/kb"
	"github.com/cognicore/horn/pkg/horn/term"
)

func succeed(*kb.Env, []term.Term) (bool, error) { return true, nil }
func fail(*kb.Env, []term.Term) (bool, error)    { return false, nil }

// goal creates the predicate for t, through f when the factory was resolved
// in advance
func goal(env *kb.Env, f kb.PredicateFactory, t term.Term) (kb.Predicate, error) {
	if f == nil {
		return env.Goal(t)
	}
	return f.Predicate(env, t.Deref().Args())
}

// preprocessed resolves the factory for a goal at compile time, or nil when
// it has to be looked up on each call
func preprocessed(k *kb.KnowledgeBase, t term.Term) kb.PredicateFactory {
	f, ok := k.FactoryFor(t)
	if !ok {
		return nil
	}
	return f
}

// Conjunction is ",/2". The right goal is started afresh for every solution
// of the left goal, and is exhausted before the left goal is retried, so
// solutions come in the order the right goal varies fastest.
type Conjunction struct{}

func (Conjunction) IsRetryable() bool { return true }

func (Conjunction) Predicate(env *kb.Env, args []term.Term) (kb.Predicate, error) {
	return &conjunction{env: env, left: args[0], right: args[1], retryable: true}, nil
}

func (Conjunction) Preprocess(k *kb.KnowledgeBase, g term.Term) kb.PredicateFactory {
	args := g.Args()
	return &preprocessedConjunction{
		left:  preprocessed(k, args[0]),
		right: preprocessed(k, args[1]),
	}
}

type preprocessedConjunction struct {
	left, right kb.PredicateFactory
}

// IsRetryable is false only when both sides are known to be decided in a
// single step
func (c *preprocessedConjunction) IsRetryable() bool {
	return c.left == nil || c.right == nil || c.left.IsRetryable() || c.right.IsRetryable()
}

func (c *preprocessedConjunction) Predicate(env *kb.Env, args []term.Term) (kb.Predicate, error) {
	return &conjunction{
		env: env, left: args[0], right: args[1],
		lf: c.left, rf: c.right,
		retryable: c.IsRetryable(),
	}, nil
}

type conjunction struct {
	env         *kb.Env
	left, right term.Term
	lf, rf      kb.PredicateFactory
	retryable   bool

	first, second kb.Predicate
	start, mark   int
}

func (c *conjunction) Evaluate() (bool, error) {
	tr := c.env.Trail()
	if c.first == nil {
		c.start = tr.Mark()
		p, err := goal(c.env, c.lf, c.left)
		if err != nil {
			return false, err
		}
		c.first = p
	} else {
		if c.second != nil && c.second.IsRetryable() {
			ok, err := c.second.Evaluate()
			if err != nil || ok {
				return ok, err
			}
		}
		tr.Undo(c.mark)
		c.second = nil
		if !c.first.IsRetryable() {
			return c.exhausted()
		}
	}

	for {
		ok, err := c.first.Evaluate()
		if err != nil {
			return false, err
		}
		if !ok {
			return c.exhausted()
		}
		c.mark = tr.Mark()
		p, err := goal(c.env, c.rf, c.right)
		if err != nil {
			return false, err
		}
		c.second = p
		if ok, err = p.Evaluate(); err != nil || ok {
			return ok, err
		}
		tr.Undo(c.mark)
		c.second = nil
		if !c.first.IsRetryable() {
			return c.exhausted()
		}
	}
}

func (c *conjunction) exhausted() (bool, error) {
	c.env.Trail().Undo(c.start)
	return false, nil
}

func (c *conjunction) IsRetryable() bool { return c.retryable }

func (c *conjunction) CouldReEvaluationSucceed() bool {
	return c.first == nil || kb.CanRetry(c.first) || kb.CanRetry(c.second)
}

// Disjunction is ";/2". When the left side is "Cond -> Then" it is an
// if-then-else.
type Disjunction struct{}

func (Disjunction) IsRetryable() bool { return true }

func (Disjunction) Predicate(env *kb.Env, args []term.Term) (kb.Predicate, error) {
	left := args[0].Deref()
	if left.Type() == term.TypeStructure && left.Name() == "->" && len(left.Args()) == 2 {
		ite := left.Args()
		return &ifThenElse{env: env, cond: ite[0], then: ite[1], els: args[1]}, nil
	}
	return &disjunction{env: env, goals: args, mark: -1}, nil
}

type disjunction struct {
	env     *kb.Env
	goals   []term.Term
	next    int
	current kb.Predicate
	mark    int
}

func (d *disjunction) Evaluate() (bool, error) {
	tr := d.env.Trail()
	if d.mark < 0 {
		d.mark = tr.Mark()
	}
	if d.current != nil && d.current.IsRetryable() {
		ok, err := d.current.Evaluate()
		if err != nil || ok {
			return ok, err
		}
	}
	for d.next < len(d.goals) {
		tr.Undo(d.mark)
		p, err := d.env.Goal(d.goals[d.next])
		d.next++
		if err != nil {
			return false, err
		}
		d.current = p
		ok, err := p.Evaluate()
		if err != nil || ok {
			return ok, err
		}
	}
	d.current = nil
	tr.Undo(d.mark)
	return false, nil
}

func (d *disjunction) IsRetryable() bool { return true }

func (d *disjunction) CouldReEvaluationSucceed() bool {
	return d.next < len(d.goals) || kb.CanRetry(d.current)
}

// IfThen is "->/2": the condition is proved once and the branch taken
// without the option of going back into the condition.
type IfThen struct{}

func (IfThen) IsRetryable() bool { return true }

func (IfThen) Predicate(env *kb.Env, args []term.Term) (kb.Predicate, error) {
	return &ifThenElse{env: env, cond: args[0], then: args[1]}, nil
}

// ifThenElse without an else branch fails when the condition fails
type ifThenElse struct {
	env             *kb.Env
	cond, then, els term.Term
	branch          kb.Predicate
}

func (p *ifThenElse) Evaluate() (bool, error) {
	if p.branch != nil {
		if !p.branch.IsRetryable() {
			return false, nil
		}
		return p.branch.Evaluate()
	}
	tr := p.env.Trail()
	mark := tr.Mark()
	c, err := p.env.Goal(p.cond)
	if err != nil {
		return false, err
	}
	ok, err := c.Evaluate()
	if err != nil {
		return false, err
	}
	next := p.then
	if !ok {
		tr.Undo(mark)
		if p.els == nil {
			return false, nil
		}
		next = p.els
	}
	if p.branch, err = p.env.Goal(next); err != nil {
		return false, err
	}
	return p.branch.Evaluate()
}

func (p *ifThenElse) IsRetryable() bool { return true }

func (p *ifThenElse) CouldReEvaluationSucceed() bool {
	return p.branch == nil || kb.CanRetry(p.branch)
}

// once/1 commits to the first solution of its goal
func once(env *kb.Env, args []term.Term) (bool, error) {
	p, err := env.Goal(args[0])
	if err != nil {
		return false, err
	}
	return p.Evaluate()
}

// Call is "call/1": the goal runs as if it appeared in place of the call
type Call struct{}

func (Call) IsRetryable() bool { return true }

func (Call) Predicate(env *kb.Env, args []term.Term) (kb.Predicate, error) {
	return env.Goal(args[0])
}

// not is "\+/1". Bindings made while proving the goal are always undone.
func not(env *kb.Env, args []term.Term) (bool, error) {
	tr := env.Trail()
	mark := tr.Mark()
	defer tr.Undo(mark)
	p, err := env.Goal(args[0])
	if err != nil {
		return false, err
	}
	ok, err := p.Evaluate()
	return !ok, err
}

// Repeat is "repeat/0", which succeeds every time it is evaluated. It stops
// only when the query's context is done.
type Repeat struct{}

func (Repeat) IsRetryable() bool { return true }

func (Repeat) Predicate(env *kb.Env, _ []term.Term) (kb.Predicate, error) {
	return &repeat{env: env}, nil
}

type repeat struct{ env *kb.Env }

func (r *repeat) Evaluate() (bool, error) {
	if err := r.env.Context().Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *repeat) IsRetryable() bool              { return true }
func (r *repeat) CouldReEvaluationSucceed() bool { return true }

// RepeatSetAmount is "repeat/1", which succeeds the given number of times
type RepeatSetAmount struct{}

func (RepeatSetAmount) IsRetryable() bool { return true }

func (RepeatSetAmount) Predicate(_ *kb.Env, args []term.Term) (kb.Predicate, error) {
	n, err := term.ToNumeric(args[0])
	if err != nil {
		return nil, err
	}
	return &repeatSetAmount{limit: n.Int()}, nil
}

type repeatSetAmount struct {
	limit, count int64
}

func (r *repeatSetAmount) Evaluate() (bool, error) {
	if r.count >= r.limit {
		return false, nil
	}
	r.count++
	return true, nil
}

func (r *repeatSetAmount) IsRetryable() bool              { return true }
func (r *repeatSetAmount) CouldReEvaluationSucceed() bool { return r.count < r.limit }
