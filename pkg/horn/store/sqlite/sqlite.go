// Package sqlite exposes SQLite tables as predicates: each row of a table is
// a fact of the relation, read when the goal is called.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/kb"
	"github.com/cognicore/horn/pkg/horn/term"
)

// NullAtom stands for SQL NULL, both in query results and in the values
// passed to calls and Insert
var NullAtom = term.NewAtom("null")

// OpenSQLite opens a SQLite database with WAL mode and foreign keys enabled
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Relation maps the predicate Name/len(Columns) onto a table
type Relation struct {
	Name    string
	Table   string
	Columns []string
}

// Key returns the predicate key the relation is registered under
func (r Relation) Key() kb.PredicateKey { return kb.NewKey(r.Name, len(r.Columns)) }

// Validate checks the relation names a table and columns that can be used
// in SQL without quoting
func (r Relation) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("relation without name: %w", internalerr.ErrInvalidInput)
	}
	if !identifier.MatchString(r.Table) {
		return fmt.Errorf("relation %s: invalid table %q: %w", r.Name, r.Table, internalerr.ErrInvalidInput)
	}
	if len(r.Columns) == 0 {
		return fmt.Errorf("relation %s: no columns: %w", r.Name, internalerr.ErrInvalidInput)
	}
	for _, c := range r.Columns {
		if !identifier.MatchString(c) {
			return fmt.Errorf("relation %s: invalid column %q: %w", r.Name, c, internalerr.ErrInvalidInput)
		}
	}
	return nil
}

// EnsureTable creates the relation's table if it does not exist
func EnsureTable(ctx context.Context, db *sql.DB, r Relation) error {
	if err := r.Validate(); err != nil {
		return err
	}
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", r.Table, strings.Join(r.Columns, ", "))
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", r.Table, err)
	}
	return nil
}

// Insert adds one row. Values must be atoms or numbers.
func Insert(ctx context.Context, db *sql.DB, r Relation, values ...term.Term) error {
	if len(values) != len(r.Columns) {
		return fmt.Errorf("insert %s: %d values for %d columns: %w", r.Key(), len(values), len(r.Columns), internalerr.ErrInvalidInput)
	}
	args := make([]any, len(values))
	for i, v := range values {
		a, ok := sqlValue(v)
		if !ok {
			return fmt.Errorf("insert %s: %w", r.Key(), &term.TypeError{Expected: "an atom or a number", Term: v})
		}
		args[i] = a
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		r.Table, strings.Join(r.Columns, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", "))
	if _, err := db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.Key(), err)
	}
	return nil
}

// Register installs a predicate for each relation. The database stays
// owned by the caller and must outlive the knowledge base's queries.
func Register(k *kb.KnowledgeBase, db *sql.DB, rels []Relation) error {
	for _, r := range rels {
		if err := r.Validate(); err != nil {
			return err
		}
		if err := k.AddPredicateFactory(r.Key(), &relationFactory{db: db, rel: r}); err != nil {
			return fmt.Errorf("register relation %s: %w", r.Key(), err)
		}
	}
	return nil
}

// relationFactory answers calls by selecting the matching rows. Arguments
// bound to atoms or numbers become WHERE filters; the rows are read in full
// before the first solution so no cursor is held between evaluations.
type relationFactory struct {
	db  *sql.DB
	rel Relation
}

func (f *relationFactory) IsRetryable() bool { return true }

func (f *relationFactory) Predicate(env *kb.Env, args []term.Term) (kb.Predicate, error) {
	var where []string
	var params []any
	for i, a := range args {
		d := a.Deref()
		if d.Type().IsVariable() {
			continue
		}
		v, ok := sqlValue(d)
		if !ok {
			// compound terms never equal a cell
			return kb.False, nil
		}
		if v == nil {
			where = append(where, f.rel.Columns[i]+" IS NULL")
			continue
		}
		where = append(where, f.rel.Columns[i]+" = ?")
		params = append(params, v)
	}

	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(f.rel.Columns, ", "), f.rel.Table)
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY rowid"

	rows, err := f.db.QueryContext(env.Context(), q, params...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w: %w", f.rel.Key(), internalerr.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out [][]term.Term
	for rows.Next() {
		cells := make([]any, len(f.rel.Columns))
		ptrs := make([]any, len(cells))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", f.rel.Key(), err)
		}
		row := make([]term.Term, len(cells))
		for i, c := range cells {
			row[i] = cellTerm(c)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", f.rel.Key(), err)
	}
	return &rowIterator{env: env, args: args, rows: out, mark: -1}, nil
}

type rowIterator struct {
	env  *kb.Env
	args []term.Term
	rows [][]term.Term
	next int
	mark int
}

func (it *rowIterator) Evaluate() (bool, error) {
	tr := it.env.Trail()
	if it.mark < 0 {
		it.mark = tr.Mark()
	}
	for it.next < len(it.rows) {
		tr.Undo(it.mark)
		row := it.rows[it.next]
		it.next++
		if term.UnifyAll(it.args, row, tr) {
			return true, nil
		}
	}
	tr.Undo(it.mark)
	return false, nil
}

func (it *rowIterator) IsRetryable() bool              { return true }
func (it *rowIterator) CouldReEvaluationSucceed() bool { return it.next < len(it.rows) }

func sqlValue(t term.Term) (any, bool) {
	switch v := t.Deref().(type) {
	case *term.Atom:
		if v.Name() == NullAtom.Name() {
			return nil, true
		}
		return v.Name(), true
	case *term.Integer:
		return v.Int(), true
	case *term.Decimal:
		return v.Float(), true
	}
	return nil, false
}

func cellTerm(c any) term.Term {
	switch v := c.(type) {
	case nil:
		return NullAtom
	case int64:
		return term.NewInteger(v)
	case float64:
		return term.NewDecimal(v)
	case string:
		return term.NewAtom(v)
	case []byte:
		return term.NewAtom(string(v))
	case bool:
		if v {
			return term.NewInteger(1)
		}
		return term.NewInteger(0)
	}
	return term.NewAtom(fmt.Sprint(c))
}
