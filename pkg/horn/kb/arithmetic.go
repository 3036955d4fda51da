package kb

import (
	"fmt"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/term"
)

// ArithmeticOperator computes a value from already evaluated arguments.
// Operators must be pure: expressions with fixed arguments are evaluated
// once when a clause is compiled.
type ArithmeticOperator interface {
	Calculate(k *KnowledgeBase, args []term.Numeric) (term.Numeric, error)
}

// OperatorFunc adapts a plain function to ArithmeticOperator
type OperatorFunc func(args []term.Numeric) (term.Numeric, error)

func (f OperatorFunc) Calculate(_ *KnowledgeBase, args []term.Numeric) (term.Numeric, error) {
	return f(args)
}

// ArithmeticError reports an expression that cannot be evaluated. Operator
// is set when the expression named an unregistered operator.
type ArithmeticError struct {
	Term     term.Term
	Operator *PredicateKey
}

func (e *ArithmeticError) Error() string {
	if e.Operator != nil {
		return fmt.Sprintf("cannot find arithmetic operator: %s", e.Operator)
	}
	t := e.Term.Deref()
	return fmt.Sprintf("cannot resolve to numeric value: %s of type: %s", t, t.Type())
}

func (e *ArithmeticError) Unwrap() error { return internalerr.ErrType }

// AddArithmeticOperator registers op under key, replacing any earlier
// operator for the same key
func (k *KnowledgeBase) AddArithmeticOperator(key PredicateKey, op ArithmeticOperator) {
	k.mu.Lock()
	defer k.mu.Unlock()

	cur := *k.ops.Load()
	next := make(map[PredicateKey]ArithmeticOperator, len(cur)+1)
	for existing, v := range cur {
		next[existing] = v
	}
	next[key] = op
	k.ops.Store(&next)
}

// ArithmeticOperator returns the operator registered under key
func (k *KnowledgeBase) ArithmeticOperator(key PredicateKey) (ArithmeticOperator, bool) {
	op, ok := (*k.ops.Load())[key]
	return op, ok
}

// Calculate evaluates the expression t
func (k *KnowledgeBase) Calculate(t term.Term) (term.Numeric, error) {
	d := t.Deref()
	if n, ok := d.(term.Numeric); ok {
		return n, nil
	}
	if d.Type() != term.TypeAtom && d.Type() != term.TypeStructure {
		return nil, &ArithmeticError{Term: t}
	}
	key := NewKey(d.Name(), len(d.Args()))
	op, ok := k.ArithmeticOperator(key)
	if !ok {
		return nil, &ArithmeticError{Term: t, Operator: &key}
	}
	args := d.Args()
	vals := make([]term.Numeric, len(args))
	for i, a := range args {
		v, err := k.Calculate(a)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return op.Calculate(k, vals)
}

// Expression is an arithmetic expression compiled for one goal site.
// Evaluate is given the expression term of the actual call, which has the
// shape the expression was compiled from.
type Expression interface {
	Evaluate(k *KnowledgeBase, t term.Term) (term.Numeric, error)
	// Constant returns the value when the expression was folded completely
	Constant() (term.Numeric, bool)
}

// PreprocessExpression compiles t. Operator applications whose arguments are
// all fixed are folded into constants and operators are resolved up front.
// Parts that cannot be decided now, including any that would fail, are left
// to be evaluated in full on each call so errors surface at call time.
func (k *KnowledgeBase) PreprocessExpression(t term.Term) Expression {
	d := t.Deref()
	if n, ok := d.(term.Numeric); ok {
		return constant{n}
	}
	if d.Type() != term.TypeAtom && d.Type() != term.TypeStructure {
		return dynamic{}
	}
	op, ok := k.ArithmeticOperator(NewKey(d.Name(), len(d.Args())))
	if !ok {
		return dynamic{}
	}
	if d.IsImmutable() {
		if n, err := k.Calculate(d); err == nil {
			return constant{n}
		}
		return dynamic{}
	}
	args := d.Args()
	node := &operation{op: op, args: make([]Expression, len(args))}
	for i, a := range args {
		node.args[i] = k.PreprocessExpression(a)
	}
	return node
}

type constant struct{ value term.Numeric }

func (c constant) Evaluate(*KnowledgeBase, term.Term) (term.Numeric, error) { return c.value, nil }
func (c constant) Constant() (term.Numeric, bool)                           { return c.value, true }

type dynamic struct{}

func (dynamic) Evaluate(k *KnowledgeBase, t term.Term) (term.Numeric, error) { return k.Calculate(t) }
func (dynamic) Constant() (term.Numeric, bool)                               { return nil, false }

type operation struct {
	op   ArithmeticOperator
	args []Expression
}

func (o *operation) Evaluate(k *KnowledgeBase, t term.Term) (term.Numeric, error) {
	args := t.Deref().Args()
	if len(args) != len(o.args) {
		return k.Calculate(t)
	}
	vals := make([]term.Numeric, len(args))
	for i, e := range o.args {
		v, err := e.Evaluate(k, args[i])
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return o.op.Calculate(k, vals)
}

func (o *operation) Constant() (term.Numeric, bool) { return nil, false }
