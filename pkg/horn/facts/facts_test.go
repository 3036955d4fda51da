package facts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/horn/pkg/horn/builtin"
	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/kb"
	"github.com/cognicore/horn/pkg/horn/term"
)

const taxonomy = `
# model taxonomy
is_a(bert, transformer).
is_a(gpt, transformer)
is_a(transformer, neural-network).
% sizes
params(bert, 110).
score(bert, 0.92)
label(bert, 'Large, Model')
stable
is_a(bert, transformer)
`

func newKB(t *testing.T) *kb.KnowledgeBase {
	t.Helper()
	k := kb.New()
	require.NoError(t, builtin.Register(k))
	return k
}

func all(t *testing.T, k *kb.KnowledgeBase, goal term.Term, v *term.Variable) []string {
	t.Helper()
	env := kb.NewEnv(context.Background(), k)
	p, err := env.Goal(goal)
	require.NoError(t, err)
	var out []string
	for {
		ok, err := p.Evaluate()
		require.NoError(t, err)
		if !ok {
			break
		}
		out = append(out, v.Deref().String())
		if !kb.CanRetry(p) {
			break
		}
	}
	return out
}

func TestLoad(t *testing.T) {
	k := newKB(t)
	n, err := Load(k, strings.NewReader(taxonomy))
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	x := term.NewVariable("X")
	assert.Equal(t, []string{"bert", "gpt"}, all(t, k, term.NewStructure("is_a", x, term.NewAtom("transformer")), x))
	assert.Equal(t, []string{"110"}, all(t, k, term.NewStructure("params", term.NewAtom("bert"), x), x))
	assert.Equal(t, []string{"0.92"}, all(t, k, term.NewStructure("score", term.NewAtom("bert"), x), x))
	assert.Equal(t, []string{"'Large, Model'"}, all(t, k, term.NewStructure("label", term.NewAtom("bert"), x), x))

	_, ok := k.UserDefined(kb.NewKey("stable", 0))
	assert.True(t, ok)
}

func TestLoadedFactsWithRules(t *testing.T) {
	k := newKB(t)
	_, err := Load(k, strings.NewReader(taxonomy))
	require.NoError(t, err)

	x, y, z := term.NewVariable("X"), term.NewVariable("Y"), term.NewVariable("Z")
	require.NoError(t, k.Assert(term.NewStructure(kb.ClauseFunctor,
		term.NewStructure("kind_of", x, y), term.NewStructure("is_a", x, y))))
	require.NoError(t, k.Assert(term.NewStructure(kb.ClauseFunctor,
		term.NewStructure("kind_of", x, z),
		term.NewStructure(",", term.NewStructure("is_a", x, y), term.NewStructure("kind_of", y, z)))))

	r := term.NewVariable("R")
	got := all(t, k, term.NewStructure("kind_of", term.NewAtom("bert"), r), r)
	assert.Equal(t, []string{"transformer", "neural-network"}, got)
}

func TestLoadErrorsCarryLineNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  string
	}{
		{"missing paren", "ok(a)\nbad(a, b", "line 2"},
		{"empty argument", "\n\nf(a, )", "line 3"},
		{"variable argument", "f(X)", "line 1"},
		{"unterminated quote", "f('abc)", "line 1"},
		{"bad relation", "Rel(a)", "line 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newKB(t), strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.line)
			assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))
		})
	}
}

func TestLoadRejectsBuiltinRelation(t *testing.T) {
	_, err := Load(newKB(t), strings.NewReader("is(a, b)"))
	assert.True(t, errors.Is(err, internalerr.ErrMalformedClause))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facts.pl")
	require.NoError(t, os.WriteFile(path, []byte("edge(a, b).\nedge(b, c).\n"), 0o644))

	k := newKB(t)
	n, err := LoadFile(k, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = LoadFile(k, filepath.Join(t.TempDir(), "missing.pl"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
