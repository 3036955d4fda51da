package horn

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/horn/pkg/horn/config"
	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/kb"
	"github.com/cognicore/horn/pkg/horn/store/sqlite"
	"github.com/cognicore/horn/pkg/horn/term"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newEngine(t *testing.T, cfg *config.Config, reg prometheus.Registerer) *Engine {
	t.Helper()
	e, err := New(context.Background(), Options{Config: cfg, Logger: discard, Registerer: reg})
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func st(name string, args ...term.Term) term.Term { return term.NewStructure(name, args...) }

func atom(name string) term.Term { return term.NewAtom(name) }

func rule(head, body term.Term) term.Term { return st(kb.ClauseFunctor, head, body) }

func values(rows []map[string]term.Term, name string) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r[name].String()
	}
	return out
}

func addAncestry(t *testing.T, e *Engine) {
	t.Helper()
	_, err := e.LoadFacts(strings.NewReader("parent(ann, bob).\nparent(bob, cid).\nparent(cid, dee).\n"))
	require.NoError(t, err)
	x, y, z := term.NewVariable("X"), term.NewVariable("Y"), term.NewVariable("Z")
	require.NoError(t, e.Assert(rule(st("ancestor", x, y), st("parent", x, y))))
	require.NoError(t, e.Assert(rule(st("ancestor", x, z), st(",", st("parent", x, y), st("ancestor", y, z)))))
}

func TestAllCollectsBindings(t *testing.T) {
	e := newEngine(t, nil, nil)
	addAncestry(t, e)

	d := term.NewVariable("D")
	rows, err := e.All(context.Background(), st("ancestor", atom("ann"), d))
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "cid", "dee"}, values(rows, "D"))
	assert.False(t, d.IsBound(), "bindings are undone after the query")
}

func TestQueryNextAndClose(t *testing.T) {
	e := newEngine(t, nil, nil)
	addAncestry(t, e)

	a := term.NewVariable("A")
	q := e.Query(context.Background(), st("ancestor", a, atom("dee")))
	_, err := ulid.Parse(q.ID)
	require.NoError(t, err)

	ok, err := q.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "cid", q.Bindings()["A"].String())

	q.Close()
	assert.False(t, a.IsBound())
	ok, err = q.Next()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, q.Solutions())
}

func TestQueryDeterministicGoal(t *testing.T) {
	e := newEngine(t, nil, nil)
	x := term.NewVariable("X")
	rows, err := e.All(context.Background(), st("is", x, st("+", term.NewInteger(1), term.NewInteger(2))))
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, values(rows, "X"))
}

func TestQueryIDsAreUnique(t *testing.T) {
	e := newEngine(t, nil, nil)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := e.Query(context.Background(), atom("true")).ID
		require.False(t, seen[id])
		seen[id] = true
	}
}

func TestQueryErrors(t *testing.T) {
	e := newEngine(t, nil, nil)

	q := e.Query(context.Background(), st("missing", atom("a")))
	_, err := q.Next()
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalerr.ErrUnknownPredicate))
	assert.Contains(t, err.Error(), q.ID)

	ok, err := q.Next()
	assert.NoError(t, err)
	assert.False(t, ok)

	_, err = e.All(context.Background(), st("is", term.NewVariable("X"), st("+", term.NewVariable("Y"), term.NewInteger(1))))
	assert.True(t, errors.Is(err, internalerr.ErrType))
}

func TestQueryCanceled(t *testing.T) {
	e := newEngine(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.All(ctx, st(",", atom("repeat"), atom("fail")))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestUnknownPredicateFailPolicy(t *testing.T) {
	cfg, err := config.Parse([]byte("unknown_predicate: fail\n"))
	require.NoError(t, err)
	e := newEngine(t, cfg, nil)

	rows, err := e.All(context.Background(), st("missing", atom("a")))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := newEngine(t, nil, reg)
	addAncestry(t, e)
	m := e.Metrics()

	assert.Equal(t, 5.0, testutil.ToFloat64(m.clausesAsserted))

	_, err := e.All(context.Background(), st("ancestor", atom("ann"), term.NewVariable("D")))
	require.NoError(t, err)
	_, err = e.All(context.Background(), atom("nope"))
	require.Error(t, err)

	env := kb.NewEnv(context.Background(), e.KnowledgeBase())
	ok, err := e.KnowledgeBase().Retract(env, st("parent", atom("ann"), atom("bob")))
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.queries))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.solutions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queryErrors.WithLabelValues("unknown_predicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.clausesRetracted))

	n, err := testutil.GatherAndCount(reg, "horn_queries_total", "horn_solutions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestEnginesDoNotShareState(t *testing.T) {
	a := newEngine(t, nil, nil)
	b := newEngine(t, nil, nil)
	require.NoError(t, a.Assert(st("only_in_a", atom("x"))))

	_, err := b.All(context.Background(), st("only_in_a", term.NewVariable("X")))
	assert.True(t, errors.Is(err, internalerr.ErrUnknownPredicate))
}

func TestNewFromConfig(t *testing.T) {
	dir := t.TempDir()
	factsPath := filepath.Join(dir, "roles.pl")
	require.NoError(t, os.WriteFile(factsPath, []byte("role(alice, admin).\nrole(bob, viewer).\n"), 0o644))

	cfg := config.Default()
	cfg.SQLite = config.SQLite{
		Path: filepath.Join(dir, "horn.db"),
		Relations: []config.Relation{
			{Name: "login", Table: "logins", Columns: []string{"account", "host"}},
		},
	}
	cfg.FactFiles = []string{factsPath}
	e := newEngine(t, cfg, nil)
	require.NotNil(t, e.DB())

	ctx := context.Background()
	logins := sqlite.Relation{Name: "login", Table: "logins", Columns: []string{"account", "host"}}
	require.NoError(t, sqlite.Insert(ctx, e.DB(), logins, atom("alice"), atom("db1")))
	require.NoError(t, sqlite.Insert(ctx, e.DB(), logins, atom("bob"), atom("web1")))
	require.NoError(t, sqlite.Insert(ctx, e.DB(), logins, atom("alice"), atom("web2")))

	u, h := term.NewVariable("U"), term.NewVariable("H")
	rows, err := e.All(ctx, st(",", st("role", u, atom("admin")), st("login", u, h)))
	require.NoError(t, err)
	assert.Equal(t, []string{"db1", "web2"}, values(rows, "H"))
	assert.Equal(t, []string{"alice", "alice"}, values(rows, "U"))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.UnknownPredicate = "maybe"
	_, err := New(context.Background(), Options{Config: cfg, Logger: discard})
	assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig))

	cfg = config.Default()
	cfg.FactFiles = []string{filepath.Join(t.TempDir(), "missing.pl")}
	_, err = New(context.Background(), Options{Config: cfg, Logger: discard})
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestBindingsResolveNestedVariables(t *testing.T) {
	e := newEngine(t, nil, nil)
	x, y := term.NewVariable("X"), term.NewVariable("Y")
	rows, err := e.All(context.Background(),
		st(",", st("=", x, st("f", y)), st("=", y, term.NewInteger(1))))
	require.NoError(t, err)
	assert.Equal(t, []string{"f(1)"}, values(rows, "X"))
	assert.Equal(t, []string{"1"}, values(rows, "Y"))
	assert.False(t, x.IsBound())
}

func TestBindingsShareUnboundVariables(t *testing.T) {
	e := newEngine(t, nil, nil)
	x, y, z := term.NewVariable("X"), term.NewVariable("Y"), term.NewVariable("Z")
	q := e.Query(context.Background(), st(",", st("=", x, st("g", z)), st("=", y, st("h", z))))
	defer q.Close()

	ok, err := q.Next()
	require.NoError(t, err)
	require.True(t, ok)
	b := q.Bindings()
	gx, ok := b["X"].(*term.Structure)
	require.True(t, ok)
	hy, ok := b["Y"].(*term.Structure)
	require.True(t, ok)
	assert.Same(t, gx.Args()[0], hy.Args()[0])
	assert.Same(t, b["Z"], gx.Args()[0])
}

func TestQueryLogsGoal(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e, err := New(context.Background(), Options{Logger: logger})
	require.NoError(t, err)
	defer e.Close()

	goal := st("once", atom("true"))
	_, err = e.All(context.Background(), goal)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "query started")
	assert.Contains(t, buf.String(), "goal="+goal.String())
}
