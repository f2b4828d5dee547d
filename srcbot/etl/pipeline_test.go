package etl

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/srcbot/bot/srcbot/database/models"
	"github.com/srcbot/bot/srcbot/database/query"
	"github.com/srcbot/bot/srcbot/database/tables"
	"github.com/srcbot/bot/srcbot/srcom"
)

func newTestStore(t *testing.T) *tables.Store {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	store, err := tables.NewStore(db)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return store
}

// fakeSource serves canned per-game payloads.
type fakeSource struct {
	runs       map[string][]srcom.Run
	variables  map[string][]srcom.Variable
	categories map[string][]srcom.Category
	err        error
}

func (f *fakeSource) AllRuns(_ context.Context, gameID string) ([]srcom.Run, error) {
	return f.runs[gameID], f.err
}

func (f *fakeSource) AllVariables(_ context.Context, gameID string) ([]srcom.Variable, error) {
	return f.variables[gameID], f.err
}

func (f *fakeSource) AllCategories(_ context.Context, gameID string) ([]srcom.Category, error) {
	return f.categories[gameID], f.err
}

func testSource() *fakeSource {
	return &fakeSource{
		categories: map[string][]srcom.Category{
			"g1": {{ID: "cat1", Name: "Any%"}},
		},
		variables: map[string][]srcom.Variable{
			"g1": {{
				ID:       "var1",
				Name:     "Glitches",
				Category: "cat1",
				Values: srcom.VariableValues{Values: map[string]srcom.VariableChoice{
					"c1": {Label: "Allowed"},
				}},
			}},
		},
		runs: map[string][]srcom.Run{
			"g1": {
				{
					ID:       "r1",
					Game:     "g1",
					Category: "cat1",
					Players: srcom.PlayerList{Data: []srcom.Player{{
						Rel:   "user",
						ID:    "u1",
						Names: &srcom.GameNames{International: "Alice"},
					}}},
					Date:   "2024-03-15",
					Times:  srcom.RunTimes{RealtimeT: 125.5, IngameT: 120.0},
					Values: map[string]string{"var1": "c1"},
					Status: srcom.RunStatus{
						Status:     "verified",
						Examiner:   "mod1",
						VerifyDate: "2024-03-20T08:00:00Z",
					},
				},
			},
		},
	}
}

func TestResyncAll(t *testing.T) {
	store := newTestStore(t)
	games := []Game{{ID: "g1", Name: "Super Mario 64"}}
	p := NewPipeline(testSource(), games, store)
	ctx := context.Background()

	if err := p.ResyncAll(ctx); err != nil {
		t.Fatalf("ResyncAll: %v", err)
	}

	if n, _ := store.Categories.Count(ctx, nil); n != 1 {
		t.Errorf("categories = %d, want 1", n)
	}
	if n, _ := store.Variables.Count(ctx, nil); n != 1 {
		t.Errorf("variables = %d, want 1", n)
	}
	if n, _ := store.Runs.Count(ctx, nil); n != 1 {
		t.Errorf("runs = %d, want 1", n)
	}
	// Alice plus the minimal verifier row.
	if n, _ := store.Users.Count(ctx, nil); n != 2 {
		t.Errorf("users = %d, want 2", n)
	}

	rows, err := store.Master.Select(ctx, tables.SelectOptions{})
	if err != nil {
		t.Fatalf("Select master: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("master = %d rows, want 1", len(rows))
	}
	m, err := tables.MasterFromRow(rows[0])
	if err != nil {
		t.Fatalf("MasterFromRow: %v", err)
	}
	if m.GameName != "Super Mario 64" {
		t.Errorf("GameName = %q", m.GameName)
	}
	if m.CategoryName != "Any%" {
		t.Errorf("CategoryName = %q", m.CategoryName)
	}
	if !reflect.DeepEqual(m.VariableInfo, map[string]string{"Glitches": "Allowed"}) {
		t.Errorf("VariableInfo = %v", m.VariableInfo)
	}
	if !reflect.DeepEqual(m.Players.Names(), []string{"Alice"}) {
		t.Errorf("player names = %v", m.Players.Names())
	}
}

func TestResyncRunsSkipsMalformedRecords(t *testing.T) {
	store := newTestStore(t)
	src := testSource()
	src.runs["g1"] = append(src.runs["g1"], srcom.Run{
		ID:      "broken",
		Game:    "g1",
		Players: srcom.PlayerList{}, // no players: skipped, not fatal
		Date:    "2024-01-01",
	})
	p := NewPipeline(src, []Game{{ID: "g1", Name: "Super Mario 64"}}, store)
	ctx := context.Background()

	if err := p.ResyncAll(ctx); err != nil {
		t.Fatalf("ResyncAll: %v", err)
	}
	if n, _ := store.Runs.Count(ctx, nil); n != 1 {
		t.Errorf("runs = %d, want 1 (malformed record skipped)", n)
	}
}

func TestResyncReplacesStaleRows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	stale, err := tables.RunToRow(models.Run{
		ID:      "stale",
		GameID:  "g1",
		Players: models.PlayerSet{"u9"},
		Date:    mustDate(t, "2020-01-01"),
		Values:  models.VarSelection{},
		Status:  models.StatusNew,
	})
	if err != nil {
		t.Fatalf("RunToRow: %v", err)
	}
	if _, err := store.Runs.Insert(ctx, stale); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	p := NewPipeline(testSource(), []Game{{ID: "g1", Name: "Super Mario 64"}}, store)
	if err := p.ResyncAll(ctx); err != nil {
		t.Fatalf("ResyncAll: %v", err)
	}

	rows, err := store.Runs.Select(ctx, tables.SelectOptions{
		Where: []query.Cond{query.New("run_id", "=", "stale")},
	})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(rows) != 0 {
		t.Error("stale row survived a resync")
	}
}

func TestResyncPropagatesSourceFailure(t *testing.T) {
	store := newTestStore(t)
	src := testSource()
	src.err = errors.New("api down")
	p := NewPipeline(src, []Game{{ID: "g1", Name: "Super Mario 64"}}, store)

	if err := p.ResyncAll(context.Background()); err == nil {
		t.Fatal("ResyncAll succeeded with a failing source")
	}
}

func TestGameNames(t *testing.T) {
	p := NewPipeline(testSource(), []Game{
		{ID: "g1", Name: "Super Mario 64"},
		{ID: "g2", Name: "Portal"},
	}, nil)
	want := map[string]string{"g1": "Super Mario 64", "g2": "Portal"}
	if got := p.GameNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("GameNames = %v, want %v", got, want)
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := models.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return parsed
}
