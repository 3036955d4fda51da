package kb

import (
	"context"

	"github.com/cognicore/horn/pkg/horn/term"
)

// Predicate is the search cursor for one call of a goal.
//
// Evaluate returns true on the first and each subsequent solution and false
// once no further solution exists. A predicate must not be evaluated again
// after it has returned false, and only predicates reporting IsRetryable may
// be evaluated more than once. CouldReEvaluationSucceed is a hint; it may be
// true when a retry turns out to fail, but never false when a retry would
// succeed.
type Predicate interface {
	Evaluate() (bool, error)
	IsRetryable() bool
	CouldReEvaluationSucceed() bool
}

// PredicateFactory creates predicates for calls with a specific argument
// tuple. Factories hold no per-call state and are shared between queries.
type PredicateFactory interface {
	Predicate(env *Env, args []term.Term) (Predicate, error)
	IsRetryable() bool
}

// PreprocessablePredicateFactory can specialise itself for one goal site.
// Preprocess is called once, when a clause containing goal is compiled, and
// the returned factory serves every call made from that site.
type PreprocessablePredicateFactory interface {
	PredicateFactory
	Preprocess(k *KnowledgeBase, goal term.Term) PredicateFactory
}

// CanRetry reports whether it is worth evaluating p again. It walks the
// whole tree of nested predicates, so it is meant for the caller driving a
// query; predicates composing children check IsRetryable only.
func CanRetry(p Predicate) bool {
	return p != nil && p.IsRetryable() && p.CouldReEvaluationSucceed()
}

type result bool

// True and False are the predicates of goals decided in a single step
var (
	True  Predicate = result(true)
	False Predicate = result(false)
)

// Result returns True or False
func Result(ok bool) Predicate {
	if ok {
		return True
	}
	return False
}

func (r result) Evaluate() (bool, error)        { return bool(r), nil }
func (r result) IsRetryable() bool              { return false }
func (r result) CouldReEvaluationSucceed() bool { return false }

// SingletonFunc adapts a function that decides a goal once into a
// PredicateFactory. The decision is made when the predicate is created.
type SingletonFunc func(env *Env, args []term.Term) (bool, error)

func (f SingletonFunc) Predicate(env *Env, args []term.Term) (Predicate, error) {
	ok, err := f(env, args)
	if err != nil {
		return nil, err
	}
	return Result(ok), nil
}

func (f SingletonFunc) IsRetryable() bool { return false }

type failFactory struct{}

func (failFactory) Predicate(*Env, []term.Term) (Predicate, error) { return False, nil }
func (failFactory) IsRetryable() bool                              { return false }

// Env carries the state of one query through every goal it evaluates: the
// knowledge base, the trail of bindings, and the query's context. An Env
// belongs to a single goroutine.
type Env struct {
	ctx   context.Context
	kb    *KnowledgeBase
	trail *term.Trail
}

// NewEnv returns an Env with an empty trail
func NewEnv(ctx context.Context, k *KnowledgeBase) *Env {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Env{ctx: ctx, kb: k, trail: term.NewTrail()}
}

func (e *Env) Context() context.Context { return e.ctx }
func (e *Env) KB() *KnowledgeBase       { return e.kb }
func (e *Env) Trail() *term.Trail       { return e.trail }

// Unify unifies a and b, recording bindings on the trail
func (e *Env) Unify(a, b term.Term) bool {
	return term.Unify(a, b, e.trail)
}

// Goal looks up the factory for the callable term t and creates its
// predicate. Unknown keys follow the knowledge base's policy.
func (e *Env) Goal(t term.Term) (Predicate, error) {
	key, err := KeyOf(t)
	if err != nil {
		return nil, err
	}
	f, err := e.kb.resolve(key)
	if err != nil {
		return nil, err
	}
	return f.Predicate(e, t.Deref().Args())
}
