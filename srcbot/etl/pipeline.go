// Package etl pulls leaderboard data from the remote source and reconciles
// it into the cache tables. Resync is a full replace, never a diff:
// correctness wins over efficiency because refreshes are infrequent and
// bounded by the configured game count.
package etl

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/srcbot/bot/srcbot/database/models"
	"github.com/srcbot/bot/srcbot/database/tables"
	"github.com/srcbot/bot/srcbot/srcom"
)

// Source yields finite, deduplicated record sequences for one game.
// Implemented by srcom.Client; faked in tests.
type Source interface {
	AllRuns(ctx context.Context, gameID string) ([]srcom.Run, error)
	AllVariables(ctx context.Context, gameID string) ([]srcom.Variable, error)
	AllCategories(ctx context.Context, gameID string) ([]srcom.Category, error)
}

// Game is one monitored game: the source's id plus the display name used on
// master rows (a static config mapping, not an API call).
type Game struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

type Pipeline struct {
	source Source
	games  []Game
	store  *tables.Store
}

func NewPipeline(source Source, games []Game, store *tables.Store) *Pipeline {
	return &Pipeline{source: source, games: games, store: store}
}

// GameNames returns the static id-to-name mapping for the monitored games.
func (p *Pipeline) GameNames() map[string]string {
	names := make(map[string]string, len(p.games))
	for _, g := range p.games {
		names[g.ID] = g.Name
	}
	return names
}

// forEachGame runs fetch concurrently across the configured games and
// returns the per-game results in configuration order.
func forEachGame[T any](ctx context.Context, games []Game, fetch func(ctx context.Context, gameID string) ([]T, error)) ([]T, error) {
	results := make([][]T, len(games))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for i, game := range games {
		i, game := i, game
		g.Go(func() error {
			records, err := fetch(ctx, game.ID)
			if err != nil {
				return err
			}
			mu.Lock()
			results[i] = records
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var all []T
	for _, records := range results {
		all = append(all, records...)
	}
	return all, nil
}

// ResyncCategories replaces the categories table from the source.
func (p *Pipeline) ResyncCategories(ctx context.Context) error {
	rows := make([][]any, 0)
	for _, game := range p.games {
		raw, err := p.source.AllCategories(ctx, game.ID)
		if err != nil {
			return err
		}
		for _, c := range raw {
			rows = append(rows, tables.CategoryToRow(MapCategory(c, game.ID)))
		}
	}
	if err := p.store.Categories.Resync(ctx, rows); err != nil {
		return err
	}
	slog.Info("Categories resynced", slog.String("type", "db"), slog.Int("rows", len(rows)))
	return nil
}

// ResyncVariables replaces the variables table from the source.
func (p *Pipeline) ResyncVariables(ctx context.Context) error {
	raw, err := forEachGame(ctx, p.games, p.source.AllVariables)
	if err != nil {
		return err
	}
	rows := make([][]any, 0, len(raw))
	for _, v := range raw {
		row, err := tables.VariableToRow(MapVariable(v))
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	if err := p.store.Variables.Resync(ctx, rows); err != nil {
		return err
	}
	slog.Info("Variables resynced", slog.String("type", "db"), slog.Int("rows", len(rows)))
	return nil
}

// ResyncRuns fetches every run for every monitored game, then replaces the
// users, runs and master tables in that order. Categories and variables
// must have been resynced first; master-row construction resolves them by
// table lookup.
func (p *Pipeline) ResyncRuns(ctx context.Context) error {
	rawRuns, err := forEachGame(ctx, p.games, p.source.AllRuns)
	if err != nil {
		return err
	}

	runs := make([]models.Run, 0, len(rawRuns))
	var userSet models.UserSet
	for _, raw := range rawRuns {
		run, err := MapRun(raw)
		if err != nil {
			var parseErr *ParseError
			if errors.As(err, &parseErr) {
				slog.Warn("Skipping malformed run record",
					slog.String("type", "db"),
					slog.String("run_id", parseErr.RunID),
					slog.Any("error", parseErr))
				continue
			}
			return err
		}
		runs = append(runs, run)
		// The source repeats user entries across runs; UserSet dedups by id
		// and a minimal row backs any verifier that was never a player.
		for _, u := range UsersFromRun(raw) {
			userSet.Add(u)
		}
		if run.VerifierID != "" {
			if _, ok := userSet.Get(run.VerifierID); !ok {
				userSet.Add(MinimalUser(run.VerifierID))
			}
		}
	}

	userRows := make([][]any, 0, userSet.Len())
	for _, u := range userSet.Users() {
		userRows = append(userRows, tables.UserToRow(u))
	}
	if err := p.store.Users.Resync(ctx, userRows); err != nil {
		return err
	}

	runRows := make([][]any, 0, len(runs))
	for _, run := range runs {
		row, err := tables.RunToRow(run)
		if err != nil {
			return err
		}
		runRows = append(runRows, row)
	}
	if err := p.store.Runs.Resync(ctx, runRows); err != nil {
		return err
	}

	resolver, err := NewResolver(ctx, p.store, p.GameNames())
	if err != nil {
		return err
	}
	masterRows := make([][]any, 0, len(runs))
	for _, run := range runs {
		row, err := tables.MasterToRow(resolver.BuildRow(run))
		if err != nil {
			return err
		}
		masterRows = append(masterRows, row)
	}
	if err := p.store.Master.Resync(ctx, masterRows); err != nil {
		return err
	}

	slog.Info("Runs resynced",
		slog.String("type", "db"),
		slog.Int("runs", len(runRows)),
		slog.Int("users", len(userRows)),
		slog.Int("skipped", len(rawRuns)-len(runs)))
	return nil
}

// ResyncAll refreshes every cache table in dependency order: categories and
// variables first, then users, runs and the master view. A failure aborts
// the remaining steps but does not roll back entities already resynced.
func (p *Pipeline) ResyncAll(ctx context.Context) error {
	if err := p.ResyncCategories(ctx); err != nil {
		return err
	}
	if err := p.ResyncVariables(ctx); err != nil {
		return err
	}
	return p.ResyncRuns(ctx)
}
