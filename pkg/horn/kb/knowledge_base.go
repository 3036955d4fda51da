package kb

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/term"
)

// UnknownPolicy decides what a call to an unregistered predicate does
type UnknownPolicy int

const (
	// UnknownError raises an *UnknownPredicateError
	UnknownError UnknownPolicy = iota
	// UnknownFail treats the predicate as having no clauses
	UnknownFail
)

// UnknownPredicateError reports a call to a key with no registered factory
type UnknownPredicateError struct {
	Key PredicateKey
}

func (e *UnknownPredicateError) Error() string {
	return fmt.Sprintf("unknown predicate: %s", e.Key)
}

func (e *UnknownPredicateError) Unwrap() error { return internalerr.ErrUnknownPredicate }

// Observer is notified of changes to the clause store
type Observer interface {
	ClauseAsserted(key PredicateKey)
	ClauseRetracted(key PredicateKey)
}

// Option configures a KnowledgeBase
type Option func(*KnowledgeBase)

// WithLogger sets the logger; nil keeps slog.Default()
func WithLogger(l *slog.Logger) Option {
	return func(k *KnowledgeBase) {
		if l != nil {
			k.logger = l
		}
	}
}

// WithUnknownPolicy sets how calls to unregistered predicates behave
func WithUnknownPolicy(p UnknownPolicy) Option {
	return func(k *KnowledgeBase) { k.unknown = p }
}

// WithPreprocessing enables or disables compile-time specialisation of
// clause bodies. It is on by default.
func WithPreprocessing(on bool) Option {
	return func(k *KnowledgeBase) { k.preprocess = on }
}

// WithObserver registers an observer of assert and retract
func WithObserver(o Observer) Option {
	return func(k *KnowledgeBase) { k.observer = o }
}

// predicateTable is an immutable snapshot of the registry. Writers build a
// new table and publish it; readers never see a partial update.
type predicateTable struct {
	byKey map[PredicateKey]PredicateFactory
	order []PredicateKey
}

func (t *predicateTable) with(key PredicateKey, f PredicateFactory) *predicateTable {
	next := &predicateTable{
		byKey: make(map[PredicateKey]PredicateFactory, len(t.byKey)+1),
		order: t.order,
	}
	for k, v := range t.byKey {
		next.byKey[k] = v
	}
	if _, ok := t.byKey[key]; !ok {
		next.order = append(append(make([]PredicateKey, 0, len(t.order)+1), t.order...), key)
	}
	next.byKey[key] = f
	return next
}

// KnowledgeBase owns the predicates and arithmetic operators of one program.
// Any number of knowledge bases may coexist.
//
// Lookups are lock free and see a consistent snapshot; registration,
// assert and retract are serialised and publish by replacement.
type KnowledgeBase struct {
	mu         sync.Mutex
	preds      atomic.Pointer[predicateTable]
	ops        atomic.Pointer[map[PredicateKey]ArithmeticOperator]
	unknown    UnknownPolicy
	preprocess bool
	observer   Observer
	logger     *slog.Logger
}

// New creates an empty knowledge base
func New(opts ...Option) *KnowledgeBase {
	k := &KnowledgeBase{
		preprocess: true,
		logger:     slog.Default(),
	}
	k.preds.Store(&predicateTable{byKey: map[PredicateKey]PredicateFactory{}})
	ops := map[PredicateKey]ArithmeticOperator{}
	k.ops.Store(&ops)
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// UnknownPolicy returns the policy for calls to unregistered predicates
func (k *KnowledgeBase) UnknownPolicy() UnknownPolicy { return k.unknown }

// AddPredicateFactory registers f under key. A later registration replaces
// an earlier one, except that predicates defined by clauses cannot be
// replaced.
func (k *KnowledgeBase) AddPredicateFactory(key PredicateKey, f PredicateFactory) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	cur := k.preds.Load()
	if existing, ok := cur.byKey[key]; ok {
		if _, user := existing.(*UserDefinedPredicate); user {
			return fmt.Errorf("replace %s: user-defined predicate: %w", key, internalerr.ErrPermission)
		}
	}
	k.preds.Store(cur.with(key, f))
	k.logger.Debug("predicate registered", slog.String("key", key.String()))
	return nil
}

// PredicateFactory returns the factory registered under key
func (k *KnowledgeBase) PredicateFactory(key PredicateKey) (PredicateFactory, error) {
	if f, ok := k.preds.Load().byKey[key]; ok {
		return f, nil
	}
	return nil, &UnknownPredicateError{Key: key}
}

// resolve applies the unknown-predicate policy to a lookup
func (k *KnowledgeBase) resolve(key PredicateKey) (PredicateFactory, error) {
	f, err := k.PredicateFactory(key)
	if err != nil && k.unknown == UnknownFail {
		return failFactory{}, nil
	}
	return f, err
}

// FactoryFor returns the factory for the key of goal, specialised for goal
// when the factory supports preprocessing. ok is false when goal is not
// callable or its key is not registered yet.
func (k *KnowledgeBase) FactoryFor(goal term.Term) (PredicateFactory, bool) {
	key, err := KeyOf(goal)
	if err != nil {
		return nil, false
	}
	f, err := k.PredicateFactory(key)
	if err != nil {
		return nil, false
	}
	if p, ok := f.(PreprocessablePredicateFactory); ok && k.preprocess {
		return p.Preprocess(k, goal.Deref()), true
	}
	return f, true
}

// Keys returns every registered key in registration order
func (k *KnowledgeBase) Keys() []PredicateKey {
	order := k.preds.Load().order
	return append(make([]PredicateKey, 0, len(order)), order...)
}

// UserDefined returns the clause store for key, if key is defined by clauses
func (k *KnowledgeBase) UserDefined(key PredicateKey) (*UserDefinedPredicate, bool) {
	f, ok := k.preds.Load().byKey[key]
	if !ok {
		return nil, false
	}
	u, ok := f.(*UserDefinedPredicate)
	return u, ok
}

// Assert compiles clause and appends it to its predicate
func (k *KnowledgeBase) Assert(clause term.Term) error {
	return k.addClause(clause, false)
}

// AssertFirst compiles clause and inserts it before existing clauses
func (k *KnowledgeBase) AssertFirst(clause term.Term) error {
	return k.addClause(clause, true)
}

func (k *KnowledgeBase) addClause(clause term.Term, first bool) error {
	model, err := NewClauseModel(clause)
	if err != nil {
		return err
	}
	key, _ := KeyOf(model.Head)
	action, err := k.compile(model)
	if err != nil {
		return err
	}

	k.mu.Lock()
	cur := k.preds.Load()
	var udp *UserDefinedPredicate
	if f, ok := cur.byKey[key]; ok {
		u, user := f.(*UserDefinedPredicate)
		if !user {
			k.mu.Unlock()
			return &MalformedClauseError{Clause: clause, Reason: "cannot add clauses to built-in predicate " + key.String()}
		}
		udp = u
	} else {
		udp = newUserDefinedPredicate(key)
		k.preds.Store(cur.with(key, udp))
	}
	udp.add(action, first)
	k.mu.Unlock()

	k.logger.Debug("clause asserted",
		slog.String("key", key.String()),
		slog.String("action", actionName(action)))
	if k.observer != nil {
		k.observer.ClauseAsserted(key)
	}
	return nil
}

// Retract removes the first clause of the predicate that unifies with
// clause. The bindings made by the match are kept on env's trail.
func (k *KnowledgeBase) Retract(env *Env, clause term.Term) (bool, error) {
	d := clause.Deref()
	head, body := d, term.Term(term.True)
	if isClauseTerm(d) {
		args := d.Args()
		head, body = args[0].Deref(), args[1]
	}
	key, err := KeyOf(head)
	if err != nil {
		return false, err
	}
	udp, ok := k.UserDefined(key)
	if !ok {
		if _, err := k.PredicateFactory(key); err == nil {
			return false, fmt.Errorf("retract %s: built-in predicate: %w", key, internalerr.ErrPermission)
		}
		return false, nil
	}

	tr := env.Trail()
	for _, action := range udp.Clauses() {
		mark := tr.Mark()
		h, b := action.Model().Copy()
		if env.Unify(head, h) && env.Unify(body, b) {
			if k.removeClause(udp, action) {
				k.logger.Debug("clause retracted", slog.String("key", key.String()))
				if k.observer != nil {
					k.observer.ClauseRetracted(key)
				}
				return true, nil
			}
		}
		tr.Undo(mark)
	}
	return false, nil
}

func (k *KnowledgeBase) removeClause(udp *UserDefinedPredicate, action ClauseAction) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return udp.remove(action)
}
