package term

// Trail records variables in the order they were bound so the bindings can
// be reverted, newest first, back to any earlier mark.
type Trail struct {
	bound []*Variable
}

// NewTrail returns an empty trail
func NewTrail() *Trail { return &Trail{} }

// Mark returns a position to Undo back to
func (t *Trail) Mark() int { return len(t.bound) }

// Len returns the number of recorded bindings
func (t *Trail) Len() int { return len(t.bound) }

// Undo unbinds every variable recorded since mark
func (t *Trail) Undo(mark int) {
	if mark < 0 {
		mark = 0
	}
	for i := len(t.bound) - 1; i >= mark; i-- {
		t.bound[i].value = nil
		t.bound[i] = nil
	}
	if mark < len(t.bound) {
		t.bound = t.bound[:mark]
	}
}

func (t *Trail) push(v *Variable) {
	t.bound = append(t.bound, v)
}

// Unify attempts to make a and b equal by binding variables, recording each
// binding on tr (which may be nil for bindings undone with Backtrack).
//
// On failure the bindings made so far are left in place; the caller reverts
// them by undoing tr to a mark taken before the call.
func Unify(a, b Term, tr *Trail) bool {
	for {
		a, b = a.Deref(), b.Deref()
		if a == b {
			return true
		}
		if a == Anonymous || b == Anonymous {
			return true
		}
		if v, ok := a.(*Variable); ok {
			v.bind(b, tr)
			return true
		}
		if v, ok := b.(*Variable); ok {
			v.bind(a, tr)
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
				if !Unify(x.args[i], y.args[i], tr) {
					return false
				}
			}
			return true
		case *List:
			y, ok := b.(*List)
			if !ok || !Unify(x.head, y.head, tr) {
				return false
			}
			// iterate on the tails so long lists do not grow the stack
			a, b = x.tail, y.tail
		default:
			return false
		}
	}
}

// UnifyAll unifies two argument sequences position by position
func UnifyAll(a, b []Term, tr *Trail) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Unify(a[i], b[i], tr) {
			return false
		}
	}
	return true
}
