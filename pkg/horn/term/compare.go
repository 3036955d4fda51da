package term

import "strings"

// StrictEquality reports whether a and b are the same type and structurally
// identical without binding anything. Distinct unbound variables are never
// equal, nor is the anonymous variable equal to itself.
func StrictEquality(a, b Term) bool {
	a, b = a.Deref(), b.Deref()
	if a == Anonymous || b == Anonymous {
		return false
	}
	if a == b {
		return true
	}
	switch x := a.(type) {
	case *Atom:
		y, ok := b.(*Atom)
		return ok && x.name == y.name
	case *Integer:
		y, ok := b.(*Integer)
		return ok && x.value == y.value
	case *Decimal:
		y, ok := b.(*Decimal)
		return ok && x.value == y.value
	case *Structure:
		y, ok := b.(*Structure)
		if !ok || x.name != y.name || len(x.args) != len(y.args) {
			return false
		}
		for i := range x.args {
			if !StrictEquality(x.args[i], y.args[i]) {
				return false
			}
		}
		return true
	case *List:
		y, ok := b.(*List)
		return ok && StrictEquality(x.head, y.head) && StrictEquality(x.tail, y.tail)
	}
	return false
}

// Compare orders terms: variables before numbers before atoms before
// compound terms. Numbers compare by value, with a decimal before an integer
// of equal value. Atoms compare by name; compound terms by name, then arity,
// then arguments left to right. Variables compare by creation order.
func Compare(a, b Term) int {
	a, b = a.Deref(), b.Deref()
	if a == b {
		return 0
	}
	pa, pb := a.Type().precedence(), b.Type().precedence()
	if pa != pb {
		return sign(pa - pb)
	}
	switch pa {
	case 1:
		return compareUint(serialOf(a), serialOf(b))
	case 2:
		x, y := a.(Numeric), b.(Numeric)
		if c := compareNumeric(x, y); c != 0 {
			return c
		}
		switch {
		case a.Type() == b.Type():
			return 0
		case a.Type() == TypeDecimal:
			return -1
		}
		return 1
	case 3:
		return strings.Compare(a.Name(), b.Name())
	}
	if c := strings.Compare(a.Name(), b.Name()); c != 0 {
		return c
	}
	xa, ya := a.Args(), b.Args()
	if len(xa) != len(ya) {
		return sign(len(xa) - len(ya))
	}
	for i := range xa {
		if c := Compare(xa[i], ya[i]); c != 0 {
			return c
		}
	}
	return 0
}

func compareNumeric(x, y Numeric) int {
	xi, xok := x.(*Integer)
	yi, yok := y.(*Integer)
	if xok && yok {
		return compareInt(xi.value, yi.value)
	}
	xf, yf := x.Float(), y.Float()
	switch {
	case xf < yf:
		return -1
	case xf > yf:
		return 1
	}
	return 0
}

func serialOf(t Term) uint64 {
	if v, ok := t.(*Variable); ok {
		return v.serial
	}
	return 0
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
