// Package tables implements the schema-driven table abstraction behind the
// run cache. One Table per logical entity; all SQL the bot issues against
// the cache goes through here.
package tables

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/uptrace/bun"

	"github.com/srcbot/bot/srcbot/database/query"
)

// Column is one declared (name, SQL type) pair.
type Column struct {
	Name string
	Type string
}

// Schema declares a table statically: name, ordered typed columns and an
// optional primary-key column. Validated once at construction instead of
// per call.
type Schema struct {
	Table      string
	Columns    []Column
	PrimaryKey string
}

// Row is a scanned result row keyed by column name.
type Row map[string]any

// Table executes parameterized CRUD against one declared schema.
type Table struct {
	db     *bun.DB
	schema Schema
	cols   map[string]struct{}
}

// New validates the schema and returns a table bound to it. The table is
// not created in storage until Create is called.
func New(db *bun.DB, schema Schema) (*Table, error) {
	if schema.Table == "" {
		return nil, fmt.Errorf("table schema: missing table name")
	}
	if len(schema.Columns) == 0 {
		return nil, fmt.Errorf("table %s: schema declares no columns", schema.Table)
	}
	cols := make(map[string]struct{}, len(schema.Columns))
	for _, col := range schema.Columns {
		if _, ok := cols[col.Name]; ok {
			return nil, fmt.Errorf("table %s: duplicate column %q", schema.Table, col.Name)
		}
		cols[col.Name] = struct{}{}
	}
	if schema.PrimaryKey != "" {
		if _, ok := cols[schema.PrimaryKey]; !ok {
			return nil, &UnknownColumnError{Table: schema.Table, Column: schema.PrimaryKey}
		}
	}
	return &Table{db: db, schema: schema, cols: cols}, nil
}

func (t *Table) Name() string {
	return t.schema.Table
}

func (t *Table) columnNames() []string {
	names := make([]string, len(t.schema.Columns))
	for i, col := range t.schema.Columns {
		names[i] = col.Name
	}
	return names
}

func (t *Table) checkColumns(names []string) error {
	for _, name := range names {
		if _, ok := t.cols[name]; !ok {
			return &UnknownColumnError{Table: t.schema.Table, Column: name}
		}
	}
	return nil
}

func (t *Table) createSQL(name string) string {
	defs := make([]string, len(t.schema.Columns))
	for i, col := range t.schema.Columns {
		def := col.Name + " " + col.Type
		if col.Name == t.schema.PrimaryKey {
			def += " PRIMARY KEY"
		}
		defs[i] = def
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", name, strings.Join(defs, ", "))
}

func (t *Table) insertSQL(name string) string {
	cols := t.columnNames()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", name, strings.Join(cols, ", "), placeholders)
}

// Create creates the table in storage. Idempotent.
func (t *Table) Create(ctx context.Context) error {
	q := t.createSQL(t.schema.Table)
	if _, err := t.db.ExecContext(ctx, q); err != nil {
		return &StorageError{Table: t.schema.Table, Query: q, Err: err}
	}
	return nil
}

// Insert writes one row and returns it as stored. The row arity must match
// the declared column count.
func (t *Table) Insert(ctx context.Context, row []any) (Row, error) {
	if len(row) != len(t.schema.Columns) {
		return nil, &SchemaMismatchError{Table: t.schema.Table, Want: len(t.schema.Columns), Got: len(row)}
	}
	q := t.insertSQL(t.schema.Table) + " RETURNING *"
	rows, err := t.scanQuery(ctx, q, row...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &StorageError{Table: t.schema.Table, Query: q, Args: row, Err: fmt.Errorf("insert returned no row")}
	}
	return rows[0], nil
}

// InsertMany writes rows one statement at a time inside a transaction.
func (t *Table) InsertMany(ctx context.Context, rows [][]any) error {
	for _, row := range rows {
		if len(row) != len(t.schema.Columns) {
			return &SchemaMismatchError{Table: t.schema.Table, Want: len(t.schema.Columns), Got: len(row)}
		}
	}
	q := t.insertSQL(t.schema.Table)
	err := t.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, row := range rows {
			if _, err := tx.ExecContext(ctx, q, row...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &StorageError{Table: t.schema.Table, Query: q, Err: err}
	}
	return nil
}

// SelectOptions narrows a Select. Zero value selects every column of every
// row. Suffix is appended verbatim after the WHERE clause and exists for
// ORDER BY / LIMIT; it must never carry user input.
type SelectOptions struct {
	Columns []string
	Where   []query.Cond
	Suffix  string
}

// Select returns rows matching the AND-composed conditions. Requested and
// condition columns are validated against the schema.
func (t *Table) Select(ctx context.Context, opts SelectOptions) ([]Row, error) {
	if err := t.checkColumns(opts.Columns); err != nil {
		return nil, err
	}
	condCols := make([]string, 0, len(opts.Where))
	for _, c := range opts.Where {
		condCols = append(condCols, c.Col)
	}
	if err := t.checkColumns(condCols); err != nil {
		return nil, err
	}

	cols := "*"
	if len(opts.Columns) > 0 {
		cols = strings.Join(opts.Columns, ", ")
	}
	q := fmt.Sprintf("SELECT %s FROM %s", cols, t.schema.Table)
	frag, args := query.Render(opts.Where)
	if frag != "" {
		q += " WHERE " + frag
	}
	if opts.Suffix != "" {
		q += " " + opts.Suffix
	}
	return t.scanQuery(ctx, q, args...)
}

// Search returns rows where the keyword substring-matches any column. It is
// a fuzzy pre-filter for interactive lookups, not a hard query.
func (t *Table) Search(ctx context.Context, keyword string) ([]Row, error) {
	pattern := "%" + keyword + "%"
	frags := make([]string, 0, len(t.schema.Columns))
	args := make([]any, 0, len(t.schema.Columns))
	for _, col := range t.schema.Columns {
		frags = append(frags, fmt.Sprintf("CAST(%s AS TEXT) LIKE ?", col.Name))
		args = append(args, pattern)
	}
	q := fmt.Sprintf("SELECT * FROM %s WHERE %s", t.schema.Table, strings.Join(frags, " OR "))
	return t.scanQuery(ctx, q, args...)
}

// Update applies the field updates to the single row with the given primary
// key and returns it. ok is false when no row matched.
func (t *Table) Update(ctx context.Context, pk any, fields map[string]any) (Row, bool, error) {
	if t.schema.PrimaryKey == "" {
		return nil, false, fmt.Errorf("table %s: no primary key declared", t.schema.Table)
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	if err := t.checkColumns(names); err != nil {
		return nil, false, err
	}
	sort.Strings(names)

	sets := make([]string, 0, len(names))
	args := make([]any, 0, len(names)+1)
	for _, name := range names {
		sets = append(sets, name+" = ?")
		args = append(args, fields[name])
	}
	args = append(args, pk)
	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ? RETURNING *",
		t.schema.Table, strings.Join(sets, ", "), t.schema.PrimaryKey)
	rows, err := t.scanQuery(ctx, q, args...)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

// Delete removes the row with the given primary key. Missing rows are not
// an error.
func (t *Table) Delete(ctx context.Context, pk any) error {
	if t.schema.PrimaryKey == "" {
		return fmt.Errorf("table %s: no primary key declared", t.schema.Table)
	}
	q := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", t.schema.Table, t.schema.PrimaryKey)
	if _, err := t.db.ExecContext(ctx, q, pk); err != nil {
		return &StorageError{Table: t.schema.Table, Query: q, Args: []any{pk}, Err: err}
	}
	return nil
}

// Clear deletes every row but keeps the table.
func (t *Table) Clear(ctx context.Context) error {
	q := "DELETE FROM " + t.schema.Table
	if _, err := t.db.ExecContext(ctx, q); err != nil {
		return &StorageError{Table: t.schema.Table, Query: q, Err: err}
	}
	return nil
}

// Drop removes the table from storage entirely.
func (t *Table) Drop(ctx context.Context) error {
	q := "DROP TABLE IF EXISTS " + t.schema.Table
	if _, err := t.db.ExecContext(ctx, q); err != nil {
		return &StorageError{Table: t.schema.Table, Query: q, Err: err}
	}
	return nil
}

// Resync atomically replaces the table's entire content. The new rows are
// built into a shadow table inside one transaction and swapped in by
// rename, so a failure partway through leaves the previous contents
// untouched.
func (t *Table) Resync(ctx context.Context, rows [][]any) error {
	for _, row := range rows {
		if len(row) != len(t.schema.Columns) {
			return &SchemaMismatchError{Table: t.schema.Table, Want: len(t.schema.Columns), Got: len(row)}
		}
	}
	shadow := t.schema.Table + "_resync"
	insert := t.insertSQL(shadow)
	err := t.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+shadow); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, t.createSQL(shadow)); err != nil {
			return err
		}
		for _, row := range rows {
			if _, err := tx.ExecContext(ctx, insert, row...); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+t.schema.Table); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", shadow, t.schema.Table)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return &StorageError{Table: t.schema.Table, Query: insert, Err: err}
	}
	return nil
}

// Count returns the number of rows matching the conditions.
func (t *Table) Count(ctx context.Context, conds []query.Cond) (int, error) {
	condCols := make([]string, 0, len(conds))
	for _, c := range conds {
		condCols = append(condCols, c.Col)
	}
	if err := t.checkColumns(condCols); err != nil {
		return 0, err
	}
	q := "SELECT COUNT(*) AS n FROM " + t.schema.Table
	frag, args := query.Render(conds)
	if frag != "" {
		q += " WHERE " + frag
	}
	rows, err := t.scanQuery(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return int(AsFloat(rows[0]["n"])), nil
}

// scanQuery executes the query and scans every result row into a Row keyed
// by column name, decoding []byte values to string.
func (t *Table) scanQuery(ctx context.Context, q string, args ...any) ([]Row, error) {
	rows, err := t.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, &StorageError{Table: t.schema.Table, Query: q, Args: args, Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &StorageError{Table: t.schema.Table, Query: q, Args: args, Err: err}
	}
	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &StorageError{Table: t.schema.Table, Query: q, Args: args, Err: err}
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Table: t.schema.Table, Query: q, Args: args, Err: err}
	}
	return out, nil
}

// AsString reads a scanned value as a string, treating NULL as "".
func AsString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprintf("%v", s)
	}
}

// AsFloat reads a scanned numeric value, treating NULL as 0.
func AsFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}
