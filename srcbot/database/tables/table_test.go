package tables

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/srcbot/bot/srcbot/database/query"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// A single connection keeps every statement on the same in-memory db.
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })
	return db
}

func testSchema() Schema {
	return Schema{
		Table:      "items",
		PrimaryKey: "id",
		Columns: []Column{
			{"id", "TEXT"},
			{"name", "TEXT"},
			{"score", "REAL"},
		},
	}
}

func newTestTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := New(newTestDB(t), testSchema())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := tbl.Create(context.Background()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return tbl
}

func TestNewRejectsBadSchemas(t *testing.T) {
	db := newTestDB(t)
	tests := []struct {
		name   string
		schema Schema
	}{
		{"missing table name", Schema{Columns: []Column{{"id", "TEXT"}}}},
		{"no columns", Schema{Table: "t"}},
		{"duplicate column", Schema{Table: "t", Columns: []Column{{"id", "TEXT"}, {"id", "TEXT"}}}},
		{"unknown primary key", Schema{Table: "t", PrimaryKey: "nope", Columns: []Column{{"id", "TEXT"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(db, tt.schema); err == nil {
				t.Error("New accepted an invalid schema")
			}
		})
	}
}

func TestInsertAndSelect(t *testing.T) {
	tbl := newTestTable(t)
	ctx := context.Background()

	row, err := tbl.Insert(ctx, []any{"a1", "first", 1.5})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if AsString(row["id"]) != "a1" || AsString(row["name"]) != "first" {
		t.Errorf("Insert returned %v", row)
	}

	if _, err := tbl.Insert(ctx, []any{"a2", "second", 2.5}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	rows, err := tbl.Select(ctx, SelectOptions{
		Where: []query.Cond{query.New("name", "=", "second")},
	})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(rows) != 1 || AsString(rows[0]["id"]) != "a2" {
		t.Errorf("Select = %v, want the a2 row", rows)
	}
}

func TestInsertArityMismatch(t *testing.T) {
	tbl := newTestTable(t)

	_, err := tbl.Insert(context.Background(), []any{"only-one"})
	var mismatch *SchemaMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Insert error = %v, want SchemaMismatchError", err)
	}
	if mismatch.Want != 3 || mismatch.Got != 1 {
		t.Errorf("mismatch = %+v", mismatch)
	}
}

func TestSelectUnknownColumn(t *testing.T) {
	tbl := newTestTable(t)
	ctx := context.Background()

	_, err := tbl.Select(ctx, SelectOptions{Columns: []string{"nope"}})
	var unknown *UnknownColumnError
	if !errors.As(err, &unknown) {
		t.Fatalf("Select error = %v, want UnknownColumnError", err)
	}

	_, err = tbl.Select(ctx, SelectOptions{Where: []query.Cond{query.New("nope", "=", 1)}})
	if !errors.As(err, &unknown) {
		t.Fatalf("Select error = %v, want UnknownColumnError", err)
	}
}

func TestSelectWithSuffix(t *testing.T) {
	tbl := newTestTable(t)
	ctx := context.Background()
	for _, row := range [][]any{
		{"a", "x", 3.0},
		{"b", "y", 1.0},
		{"c", "z", 2.0},
	} {
		if _, err := tbl.Insert(ctx, row); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	rows, err := tbl.Select(ctx, SelectOptions{Suffix: "ORDER BY score ASC LIMIT 1"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(rows) != 1 || AsString(rows[0]["id"]) != "b" {
		t.Errorf("Select = %v, want the lowest-score row", rows)
	}
}

func TestSearchMatchesAnyColumn(t *testing.T) {
	tbl := newTestTable(t)
	ctx := context.Background()
	if _, err := tbl.Insert(ctx, []any{"r1", "mario odyssey", 1.0}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := tbl.Insert(ctx, []any{"r2", "zelda", 64.5}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	rows, err := tbl.Search(ctx, "odyssey")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(rows) != 1 || AsString(rows[0]["id"]) != "r1" {
		t.Errorf("Search(odyssey) = %v", rows)
	}

	// Numeric columns are searched through their text cast.
	rows, err = tbl.Search(ctx, "64.5")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(rows) != 1 || AsString(rows[0]["id"]) != "r2" {
		t.Errorf("Search(64.5) = %v", rows)
	}
}

func TestUpdate(t *testing.T) {
	tbl := newTestTable(t)
	ctx := context.Background()
	if _, err := tbl.Insert(ctx, []any{"a1", "old", 1.0}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	row, ok, err := tbl.Update(ctx, "a1", map[string]any{"name": "new", "score": 9.0})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !ok {
		t.Fatal("Update reported no match")
	}
	if AsString(row["name"]) != "new" || AsFloat(row["score"]) != 9.0 {
		t.Errorf("Update returned %v", row)
	}

	_, ok, err = tbl.Update(ctx, "missing", map[string]any{"name": "x"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if ok {
		t.Error("Update on a missing key reported a match")
	}

	_, _, err = tbl.Update(ctx, "a1", map[string]any{"nope": 1})
	var unknown *UnknownColumnError
	if !errors.As(err, &unknown) {
		t.Errorf("Update error = %v, want UnknownColumnError", err)
	}
}

func TestDeleteAndClear(t *testing.T) {
	tbl := newTestTable(t)
	ctx := context.Background()
	for _, row := range [][]any{{"a", "x", 1.0}, {"b", "y", 2.0}} {
		if _, err := tbl.Insert(ctx, row); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	if err := tbl.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n, _ := tbl.Count(ctx, nil); n != 1 {
		t.Errorf("Count after Delete = %d, want 1", n)
	}

	// Deleting a missing key is not an error.
	if err := tbl.Delete(ctx, "a"); err != nil {
		t.Errorf("Delete(missing) = %v", err)
	}

	if err := tbl.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n, _ := tbl.Count(ctx, nil); n != 0 {
		t.Errorf("Count after Clear = %d, want 0", n)
	}
}

func TestInsertMany(t *testing.T) {
	tbl := newTestTable(t)
	ctx := context.Background()

	err := tbl.InsertMany(ctx, [][]any{
		{"a", "x", 1.0},
		{"b", "y", 2.0},
		{"c", "z", 3.0},
	})
	if err != nil {
		t.Fatalf("InsertMany: %v", err)
	}
	if n, _ := tbl.Count(ctx, nil); n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
}

func TestResyncReplacesContents(t *testing.T) {
	tbl := newTestTable(t)
	ctx := context.Background()
	if _, err := tbl.Insert(ctx, []any{"stale", "old", 0.0}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	err := tbl.Resync(ctx, [][]any{
		{"f1", "fresh one", 1.0},
		{"f2", "fresh two", 2.0},
	})
	if err != nil {
		t.Fatalf("Resync: %v", err)
	}

	rows, err := tbl.Select(ctx, SelectOptions{Suffix: "ORDER BY id"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(rows) != 2 || AsString(rows[0]["id"]) != "f1" || AsString(rows[1]["id"]) != "f2" {
		t.Errorf("rows after Resync = %v", rows)
	}

	// Resyncing the same rows again leaves the content unchanged.
	err = tbl.Resync(ctx, [][]any{
		{"f1", "fresh one", 1.0},
		{"f2", "fresh two", 2.0},
	})
	if err != nil {
		t.Fatalf("second Resync: %v", err)
	}
	again, err := tbl.Select(ctx, SelectOptions{Suffix: "ORDER BY id"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(again) != 2 || AsString(again[0]["id"]) != "f1" || AsString(again[1]["id"]) != "f2" {
		t.Errorf("rows after second Resync = %v", again)
	}
}

func TestResyncFailurePreservesOldContents(t *testing.T) {
	tbl := newTestTable(t)
	ctx := context.Background()
	if _, err := tbl.Insert(ctx, []any{"keep", "survivor", 1.0}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	// Duplicate primary keys make the shadow insert fail mid-transaction.
	err := tbl.Resync(ctx, [][]any{
		{"dup", "one", 1.0},
		{"dup", "two", 2.0},
	})
	if err == nil {
		t.Fatal("Resync with duplicate keys succeeded")
	}

	rows, err := tbl.Select(ctx, SelectOptions{})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(rows) != 1 || AsString(rows[0]["id"]) != "keep" {
		t.Errorf("rows after failed Resync = %v, want the original row", rows)
	}
}

func TestResyncArityMismatch(t *testing.T) {
	tbl := newTestTable(t)
	err := tbl.Resync(context.Background(), [][]any{{"too", "few"}})
	var mismatch *SchemaMismatchError
	if !errors.As(err, &mismatch) {
		t.Errorf("Resync error = %v, want SchemaMismatchError", err)
	}
}

func TestCountWithConditions(t *testing.T) {
	tbl := newTestTable(t)
	ctx := context.Background()
	for _, row := range [][]any{
		{"a", "hit", 1.0},
		{"b", "hit", 2.0},
		{"c", "miss", 3.0},
	} {
		if _, err := tbl.Insert(ctx, row); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	n, err := tbl.Count(ctx, []query.Cond{query.New("name", "=", "hit")})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
}
