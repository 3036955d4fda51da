package builtin

import (
	"fmt"
	"math"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/kb"
	"github.com/cognicore/horn/pkg/horn/term"
)

// Is is "is/2". Compiled goal sites evaluate through a preprocessed
// expression, which is a plain unification when the expression is fixed.
type Is struct{}

func (Is) IsRetryable() bool { return false }

func (Is) Predicate(env *kb.Env, args []term.Term) (kb.Predicate, error) {
	n, err := env.KB().Calculate(args[1])
	if err != nil {
		return nil, err
	}
	return kb.Result(unifyOrUndo(env, args[0], n)), nil
}

func (Is) Preprocess(k *kb.KnowledgeBase, g term.Term) kb.PredicateFactory {
	e := k.PreprocessExpression(g.Args()[1])
	if n, ok := e.Constant(); ok {
		return kb.SingletonFunc(func(env *kb.Env, args []term.Term) (bool, error) {
			return unifyOrUndo(env, args[0], n), nil
		})
	}
	return kb.SingletonFunc(func(env *kb.Env, args []term.Term) (bool, error) {
		n, err := e.Evaluate(env.KB(), args[1])
		if err != nil {
			return false, err
		}
		return unifyOrUndo(env, args[0], n), nil
	})
}

func numericOrder(accept func(int) bool) func(*kb.Env, []term.Term) (bool, error) {
	return func(env *kb.Env, args []term.Term) (bool, error) {
		a, err := env.KB().Calculate(args[0])
		if err != nil {
			return false, err
		}
		b, err := env.KB().Calculate(args[1])
		if err != nil {
			return false, err
		}
		return accept(compareNumbers(a, b)), nil
	}
}

func compareNumbers(a, b term.Numeric) int {
	if bothIntegers(a, b) {
		switch x, y := a.Int(), b.Int(); {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	switch x, y := a.Float(), b.Float(); {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func bothIntegers(a, b term.Numeric) bool {
	return a.Type() == term.TypeInteger && b.Type() == term.TypeInteger
}

var errDivisionByZero = fmt.Errorf("division by zero: %w", internalerr.ErrInvalidInput)

type operator struct {
	name  string
	arity int
	op    kb.ArithmeticOperator
}

// binary builds an operator that works on integers when both arguments are
// integers and on decimals otherwise
func binary(ints func(x, y int64) (int64, error), floats func(x, y float64) float64) kb.OperatorFunc {
	return func(args []term.Numeric) (term.Numeric, error) {
		a, b := args[0], args[1]
		if bothIntegers(a, b) {
			n, err := ints(a.Int(), b.Int())
			if err != nil {
				return nil, err
			}
			return term.NewInteger(n), nil
		}
		return term.NewDecimal(floats(a.Float(), b.Float())), nil
	}
}

// integerOnly builds an operator defined for integers only
func integerOnly(name string, f func(x, y int64) (int64, error)) kb.OperatorFunc {
	return func(args []term.Numeric) (term.Numeric, error) {
		for _, a := range args {
			if a.Type() != term.TypeInteger {
				return nil, &term.TypeError{Expected: "INTEGER for " + name, Term: a}
			}
		}
		n, err := f(args[0].Int(), args[1].Int())
		if err != nil {
			return nil, err
		}
		return term.NewInteger(n), nil
	}
}

func nonZero(f func(x, y int64) int64) func(x, y int64) (int64, error) {
	return func(x, y int64) (int64, error) {
		if y == 0 {
			return 0, errDivisionByZero
		}
		return f(x, y), nil
	}
}

func divide(args []term.Numeric) (term.Numeric, error) {
	a, b := args[0], args[1]
	if bothIntegers(a, b) {
		x, y := a.Int(), b.Int()
		if y == 0 {
			return nil, errDivisionByZero
		}
		if x%y == 0 {
			return term.NewInteger(x / y), nil
		}
	}
	if b.Float() == 0 {
		return nil, errDivisionByZero
	}
	return term.NewDecimal(a.Float() / b.Float()), nil
}

func unary(ints func(int64) int64, floats func(float64) float64) kb.OperatorFunc {
	return func(args []term.Numeric) (term.Numeric, error) {
		if args[0].Type() == term.TypeInteger {
			return term.NewInteger(ints(args[0].Int())), nil
		}
		return term.NewDecimal(floats(args[0].Float())), nil
	}
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

// extreme picks one of the two arguments, keeping its type
func extreme(first func(c int) bool) kb.OperatorFunc {
	return func(args []term.Numeric) (term.Numeric, error) {
		if first(compareNumbers(args[0], args[1])) {
			return args[0], nil
		}
		return args[1], nil
	}
}

func operators() []operator {
	return []operator{
		{"+", 2, binary(
			func(x, y int64) (int64, error) { return x + y, nil },
			func(x, y float64) float64 { return x + y })},
		{"-", 2, binary(
			func(x, y int64) (int64, error) { return x - y, nil },
			func(x, y float64) float64 { return x - y })},
		{"*", 2, binary(
			func(x, y int64) (int64, error) { return x * y, nil },
			func(x, y float64) float64 { return x * y })},
		{"/", 2, kb.OperatorFunc(divide)},
		{"//", 2, integerOnly("//", nonZero(func(x, y int64) int64 { return x / y }))},
		{"rem", 2, integerOnly("rem", nonZero(func(x, y int64) int64 { return x % y }))},
		{"mod", 2, integerOnly("mod", nonZero(func(x, y int64) int64 {
			m := x % y
			if m != 0 && (m < 0) != (y < 0) {
				m += y
			}
			return m
		}))},
		{"-", 1, unary(func(x int64) int64 { return -x }, func(x float64) float64 { return -x })},
		{"abs", 1, unary(abs, math.Abs)},
		{"max", 2, extreme(func(c int) bool { return c >= 0 })},
		{"min", 2, extreme(func(c int) bool { return c <= 0 })},
		{"round", 1, kb.OperatorFunc(func(args []term.Numeric) (term.Numeric, error) {
			return term.NewInteger(int64(math.Round(args[0].Float()))), nil
		})},
		{"integer", 1, kb.OperatorFunc(func(args []term.Numeric) (term.Numeric, error) {
			if args[0].Type() == term.TypeInteger {
				return args[0], nil
			}
			return term.NewInteger(int64(math.Round(args[0].Float()))), nil
		})},
		{"float", 1, kb.OperatorFunc(func(args []term.Numeric) (term.Numeric, error) {
			return term.NewDecimal(args[0].Float()), nil
		})},
	}
}
