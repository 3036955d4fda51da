package term

import (
	"math"
	"strconv"
	"strings"
)

// Numeric is implemented by Integer and Decimal
type Numeric interface {
	Term
	Int() int64
	Float() float64
}

// Integer is a 64-bit signed whole number
type Integer struct {
	value int64
}

// NewInteger returns an Integer term
func NewInteger(v int64) *Integer { return &Integer{value: v} }

func (n *Integer) Type() Type                        { return TypeInteger }
func (n *Integer) Name() string                      { return n.String() }
func (n *Integer) Args() []Term                      { return nil }
func (n *Integer) Deref() Term                       { return n }
func (n *Integer) Copy(map[*Variable]*Variable) Term { return n }
func (n *Integer) IsImmutable() bool                 { return true }
func (n *Integer) Int() int64                        { return n.value }
func (n *Integer) Float() float64                    { return float64(n.value) }
func (n *Integer) String() string                    { return strconv.FormatInt(n.value, 10) }

// Decimal is a 64-bit floating point number
type Decimal struct {
	value float64
}

// NewDecimal returns a Decimal term
func NewDecimal(v float64) *Decimal { return &Decimal{value: v} }

func (n *Decimal) Type() Type                        { return TypeDecimal }
func (n *Decimal) Name() string                      { return n.String() }
func (n *Decimal) Args() []Term                      { return nil }
func (n *Decimal) Deref() Term                       { return n }
func (n *Decimal) Copy(map[*Variable]*Variable) Term { return n }
func (n *Decimal) IsImmutable() bool                 { return true }
func (n *Decimal) Int() int64                        { return int64(n.value) }
func (n *Decimal) Float() float64                    { return n.value }

func (n *Decimal) String() string {
	if math.IsInf(n.value, 0) || math.IsNaN(n.value) {
		return strconv.FormatFloat(n.value, 'g', -1, 64)
	}
	s := strconv.FormatFloat(n.value, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// ToNumeric dereferences t and returns it as a Numeric, or a type error
func ToNumeric(t Term) (Numeric, error) {
	if n, ok := t.Deref().(Numeric); ok {
		return n, nil
	}
	return nil, &TypeError{Expected: "Numeric", Term: t}
}

// ToInteger dereferences t and returns its integer value. Decimals are
// rejected.
func ToInteger(t Term) (int64, error) {
	if n, ok := t.Deref().(*Integer); ok {
		return n.value, nil
	}
	return 0, &TypeError{Expected: "INTEGER", Term: t}
}

// ToAtom dereferences t and returns it as an atom, or a type error
func ToAtom(t Term) (*Atom, error) {
	if a, ok := t.Deref().(*Atom); ok {
		return a, nil
	}
	return nil, &TypeError{Expected: "ATOM", Term: t}
}
