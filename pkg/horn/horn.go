// Package horn assembles a knowledge base with its built-in predicates,
// configured fact sources and metrics, and drives queries against it.
package horn

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cognicore/horn/pkg/horn/builtin"
	"github.com/cognicore/horn/pkg/horn/config"
	"github.com/cognicore/horn/pkg/horn/facts"
	"github.com/cognicore/horn/pkg/horn/kb"
	"github.com/cognicore/horn/pkg/horn/store/sqlite"
	"github.com/cognicore/horn/pkg/horn/term"
)

// Engine is the main facade: one knowledge base plus the resources that
// feed it
type Engine struct {
	kb      *kb.KnowledgeBase
	db      *sql.DB
	logger  *slog.Logger
	metrics *Metrics

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Options configures an Engine
type Options struct {
	// Config defaults to config.Default()
	Config *config.Config
	// Logger defaults to a text logger on stderr at Config.LogLevel
	Logger *slog.Logger
	// Registerer receives the engine metrics; nil keeps them private
	Registerer prometheus.Registerer
}

// New builds an engine: it registers the built-in predicates, opens the
// configured SQLite relations and loads the configured fact files.
func New(ctx context.Context, opts Options) (*Engine, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, _ := cfg.Policy()

	logger := opts.Logger
	if logger == nil {
		level, _ := cfg.Level()
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}

	e := &Engine{
		logger:  logger,
		metrics: newMetrics(opts.Registerer),
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
	e.kb = kb.New(
		kb.WithLogger(logger),
		kb.WithUnknownPolicy(policy),
		kb.WithPreprocessing(cfg.Preprocess),
		kb.WithObserver(e.metrics),
	)
	if err := builtin.Register(e.kb); err != nil {
		return nil, fmt.Errorf("register builtins: %w", err)
	}

	if cfg.SQLite.Path != "" {
		if err := e.openRelations(ctx, cfg.SQLite); err != nil {
			return nil, err
		}
	}

	for _, path := range cfg.FactFiles {
		n, err := facts.LoadFile(e.kb, path)
		if err != nil {
			e.Close()
			return nil, err
		}
		logger.Info("facts loaded", slog.String("path", path), slog.Int("facts", n))
	}
	return e, nil
}

func (e *Engine) openRelations(ctx context.Context, c config.SQLite) error {
	db, err := sqlite.OpenSQLite(ctx, c.Path)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", c.Path, err)
	}
	e.db = db

	rels := make([]sqlite.Relation, len(c.Relations))
	for i, r := range c.Relations {
		rels[i] = sqlite.Relation{Name: r.Name, Table: r.Table, Columns: r.Columns}
		if err := sqlite.EnsureTable(ctx, db, rels[i]); err != nil {
			db.Close()
			return err
		}
	}
	if err := sqlite.Register(e.kb, db, rels); err != nil {
		db.Close()
		return err
	}
	e.logger.Info("sqlite relations registered",
		slog.String("path", c.Path),
		slog.Int("relations", len(rels)))
	return nil
}

// Close releases the SQLite database, if one was opened
func (e *Engine) Close() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}

// KnowledgeBase returns the engine's knowledge base
func (e *Engine) KnowledgeBase() *kb.KnowledgeBase { return e.kb }

// DB returns the SQLite database backing the configured relations, or nil
func (e *Engine) DB() *sql.DB { return e.db }

// Metrics returns the engine's collectors
func (e *Engine) Metrics() *Metrics { return e.metrics }

// Assert adds a clause at the end of its predicate
func (e *Engine) Assert(clause term.Term) error {
	return e.kb.Assert(clause)
}

// LoadFacts asserts the facts read from r
func (e *Engine) LoadFacts(r io.Reader) (int, error) {
	return facts.Load(e.kb, r)
}

func (e *Engine) newID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ulid.MustNew(ulid.Now(), e.entropy).String()
}

// Query prepares goal for evaluation. No work is done until Next.
func (e *Engine) Query(ctx context.Context, goal term.Term) *Query {
	q := &Query{
		ID:     e.newID(),
		engine: e,
		env:    kb.NewEnv(ctx, e.kb),
		goal:   goal,
		vars:   term.Variables(goal),
	}
	q.logger = e.logger.With(slog.String("query_id", q.ID))
	return q
}

// All collects the bindings of every solution of goal
func (e *Engine) All(ctx context.Context, goal term.Term) ([]map[string]term.Term, error) {
	q := e.Query(ctx, goal)
	defer q.Close()

	var out []map[string]term.Term
	for {
		ok, err := q.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, q.Bindings())
	}
}

// Query is one evaluation of a goal. The goal's variables hold the bindings
// of the current solution between calls to Next. A Query is not safe for
// concurrent use.
type Query struct {
	ID string

	engine    *Engine
	env       *kb.Env
	goal      term.Term
	vars      []*term.Variable
	logger    *slog.Logger
	pred      kb.Predicate
	started   time.Time
	solutions int
	done      bool
}

// Next advances to the next solution. It returns false once the goal has no
// more solutions; the goal's variables are then unbound again.
func (q *Query) Next() (bool, error) {
	if q.done {
		return false, nil
	}
	m := q.engine.metrics

	if q.pred == nil {
		q.started = time.Now()
		m.queries.Inc()
		q.logger.Debug("query started", slog.Any("goal", q.goal))

		p, err := q.env.Goal(q.goal)
		if err != nil {
			return false, q.fail(err)
		}
		q.pred = p
	} else if !kb.CanRetry(q.pred) {
		q.finish()
		return false, nil
	}

	ok, err := q.pred.Evaluate()
	if err != nil {
		return false, q.fail(err)
	}
	if !ok {
		q.finish()
		return false, nil
	}
	q.solutions++
	m.solutions.Inc()
	return true, nil
}

// Bindings maps each named variable of the goal to a copy of its current
// value with every binding resolved, so the map stays valid after the query
// moves on. Variables left unbound are shared across the map.
func (q *Query) Bindings() map[string]term.Term {
	sub := make(map[*term.Variable]*term.Variable)
	out := make(map[string]term.Term, len(q.vars))
	for _, v := range q.vars {
		out[v.ID()] = v.Copy(sub)
	}
	return out
}

// Solutions returns how many solutions Next has produced
func (q *Query) Solutions() int { return q.solutions }

// Close abandons the query and unbinds the goal's variables
func (q *Query) Close() {
	if !q.done {
		q.finish()
	}
}

func (q *Query) finish() {
	q.done = true
	q.env.Trail().Undo(0)
	if q.started.IsZero() {
		return
	}
	q.engine.metrics.queryDuration.Observe(time.Since(q.started).Seconds())
	q.logger.Debug("query finished", slog.Int("solutions", q.solutions))
}

func (q *Query) fail(err error) error {
	kind := errorKind(err)
	q.engine.metrics.queryErrors.WithLabelValues(kind).Inc()
	q.logger.Error("query failed",
		slog.String("kind", kind),
		slog.String("error", err.Error()))
	q.finish()
	return fmt.Errorf("query %s: %w", q.ID, err)
}
