package term

import (
	"strings"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"
)

const internCacheSize = 4096

// interned shares Atom values for frequently used names. Atoms compare by
// name, so eviction only costs an allocation.
var interned = newInternCache()

func newInternCache() *lru.Cache[string, *Atom] {
	c, err := lru.New[string, *Atom](internCacheSize)
	if err != nil {
		panic(err)
	}
	return c
}

// Atom is a named constant with zero arity
type Atom struct {
	name string
}

// NewAtom returns the atom with the given name
func NewAtom(name string) *Atom {
	if a, ok := interned.Get(name); ok {
		return a
	}
	a := &Atom{name: name}
	interned.Add(name, a)
	return a
}

var (
	True  = NewAtom("true")
	Fail  = NewAtom("fail")
	False = NewAtom("false")
)

func (a *Atom) Type() Type                        { return TypeAtom }
func (a *Atom) Name() string                      { return a.name }
func (a *Atom) Args() []Term                      { return nil }
func (a *Atom) Deref() Term                       { return a }
func (a *Atom) Copy(map[*Variable]*Variable) Term { return a }
func (a *Atom) IsImmutable() bool                 { return true }

func (a *Atom) String() string { return quoteAtom(a.name) }

// quoteAtom wraps names that would not read back as a plain atom
func quoteAtom(name string) string {
	if name == "" {
		return "''"
	}
	if name == "[]" || name == "!" || name == ";" || name == "," {
		return name
	}
	runes := []rune(name)
	if unicode.IsLower(runes[0]) {
		plain := true
		for _, r := range runes {
			if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
				plain = false
				break
			}
		}
		if plain {
			return name
		}
	}
	if strings.Trim(name, "+-*/\\^<>=~:.?@#&$") == "" {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "\\'") + "'"
}
