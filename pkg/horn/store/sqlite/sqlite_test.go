package sqlite

import (
	"context"
	"database/sql"
	"errors"
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

var edges = Relation{Name: "edge", Table: "edges", Columns: []string{"src", "dst", "weight"}}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, EnsureTable(ctx, db, edges))
	for _, row := range [][]term.Term{
		{term.NewAtom("a"), term.NewAtom("b"), term.NewInteger(1)},
		{term.NewAtom("b"), term.NewAtom("c"), term.NewDecimal(2.5)},
		{term.NewAtom("a"), term.NewAtom("c"), term.NewInteger(7)},
	} {
		require.NoError(t, Insert(ctx, db, edges, row...))
	}
	return db
}

func newKB(t *testing.T, db *sql.DB) *kb.KnowledgeBase {
	t.Helper()
	k := kb.New()
	require.NoError(t, builtin.Register(k))
	require.NoError(t, Register(k, db, []Relation{edges}))
	return k
}

func solutions(t *testing.T, k *kb.KnowledgeBase, goal term.Term, vars ...*term.Variable) []string {
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
		parts := make([]string, len(vars))
		for i, v := range vars {
			parts[i] = v.Deref().String()
		}
		out = append(out, strings.Join(parts, " "))
		if !kb.CanRetry(p) {
			break
		}
	}
	return out
}

func TestRelationEnumeratesRows(t *testing.T) {
	k := newKB(t, openTestDB(t))
	x, y, w := term.NewVariable("X"), term.NewVariable("Y"), term.NewVariable("W")

	got := solutions(t, k, term.NewStructure("edge", x, y, w), x, y, w)
	assert.Equal(t, []string{"a b 1", "b c 2.5", "a c 7"}, got)
}

func TestRelationFiltersBoundArguments(t *testing.T) {
	k := newKB(t, openTestDB(t))
	y := term.NewVariable("Y")

	got := solutions(t, k, term.NewStructure("edge", term.NewAtom("a"), y, term.Anonymous), y)
	assert.Equal(t, []string{"b", "c"}, got)

	got = solutions(t, k, term.NewStructure("edge", y, term.NewAtom("c"), term.NewDecimal(2.5)), y)
	assert.Equal(t, []string{"b"}, got)

	assert.Empty(t, solutions(t, k, term.NewStructure("edge", term.NewAtom("z"), y, term.Anonymous)))
	assert.Empty(t, solutions(t, k, term.NewStructure("edge", term.NewStructure("f", y), y, term.Anonymous)))
}

func TestRelationRepeatedVariable(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, Insert(ctx, db, edges, term.NewAtom("d"), term.NewAtom("d"), term.NewInteger(0)))
	k := newKB(t, db)

	x := term.NewVariable("X")
	got := solutions(t, k, term.NewStructure("edge", x, x, term.Anonymous), x)
	assert.Equal(t, []string{"d"}, got)
}

func TestRelationInRule(t *testing.T) {
	k := newKB(t, openTestDB(t))
	x, y, z := term.NewVariable("X"), term.NewVariable("Y"), term.NewVariable("Z")
	require.NoError(t, k.Assert(term.NewStructure(kb.ClauseFunctor,
		term.NewStructure("path", x, z),
		term.NewStructure(",",
			term.NewStructure("edge", x, y, term.Anonymous),
			term.NewStructure("edge", y, z, term.Anonymous)))))

	r := term.NewVariable("R")
	assert.Equal(t, []string{"c"}, solutions(t, k, term.NewStructure("path", term.NewAtom("a"), r), r))
}

func TestRelationSnapshot(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	k := newKB(t, db)
	env := kb.NewEnv(ctx, k)

	x := term.NewVariable("X")
	p, err := env.Goal(term.NewStructure("edge", x, term.Anonymous, term.Anonymous))
	require.NoError(t, err)
	ok, err := p.Evaluate()
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, Insert(ctx, db, edges, term.NewAtom("e"), term.NewAtom("f"), term.NewInteger(3)))
	n := 1
	for kb.CanRetry(p) {
		ok, err := p.Evaluate()
		require.NoError(t, err)
		if !ok {
			break
		}
		n++
	}
	assert.Equal(t, 3, n)
}

func TestNullCells(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	_, err := db.ExecContext(ctx, "INSERT INTO edges (src, dst, weight) VALUES ('x', 'y', NULL)")
	require.NoError(t, err)
	k := newKB(t, db)

	w := term.NewVariable("W")
	got := solutions(t, k, term.NewStructure("edge", term.NewAtom("x"), term.NewAtom("y"), w), w)
	assert.Equal(t, []string{"null"}, got)
}

func TestNullArgumentMatchesNullCells(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, Insert(ctx, db, edges, term.NewAtom("x"), term.NewAtom("y"), NullAtom))
	k := newKB(t, db)

	var stored int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM edges WHERE weight IS NULL").Scan(&stored))
	assert.Equal(t, 1, stored)

	x, y := term.NewVariable("X"), term.NewVariable("Y")
	got := solutions(t, k, term.NewStructure("edge", x, y, NullAtom), x, y)
	assert.Equal(t, []string{"x y"}, got)

	got = solutions(t, k, term.NewStructure("edge", term.NewAtom("x"), term.NewAtom("y"), NullAtom))
	assert.Len(t, got, 1)
	got = solutions(t, k, term.NewStructure("edge", term.NewAtom("a"), term.NewAtom("b"), NullAtom))
	assert.Empty(t, got)
}

func TestRelationValidate(t *testing.T) {
	bad := []Relation{
		{Table: "t", Columns: []string{"a"}},
		{Name: "r", Table: "t; DROP TABLE x", Columns: []string{"a"}},
		{Name: "r", Table: "t"},
		{Name: "r", Table: "t", Columns: []string{"a b"}},
	}
	for _, r := range bad {
		assert.True(t, errors.Is(r.Validate(), internalerr.ErrInvalidInput), "%+v", r)
	}
	assert.NoError(t, edges.Validate())
	assert.Equal(t, kb.NewKey("edge", 3), edges.Key())
}

func TestInsertRejectsCompoundValues(t *testing.T) {
	db := openTestDB(t)
	err := Insert(context.Background(), db, edges, term.NewAtom("a"), term.NewStructure("f", term.NewAtom("x")), term.NewInteger(1))
	assert.True(t, errors.Is(err, internalerr.ErrType))

	err = Insert(context.Background(), db, edges, term.NewAtom("a"))
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))
}

func TestQueryAfterCloseFails(t *testing.T) {
	db := openTestDB(t)
	k := newKB(t, db)
	require.NoError(t, db.Close())

	env := kb.NewEnv(context.Background(), k)
	_, err := env.Goal(term.NewStructure("edge", term.Anonymous, term.Anonymous, term.Anonymous))
	assert.True(t, errors.Is(err, internalerr.ErrStoreUnavailable))
}
