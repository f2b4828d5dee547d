package services

import (
	"context"
	"time"

	"github.com/srcbot/bot/srcbot/database/models"
	"github.com/srcbot/bot/srcbot/database/query"
	"github.com/srcbot/bot/srcbot/database/tables"
	"github.com/srcbot/bot/srcbot/utils"
)

// QueryService answers the structured queries the commands present. Not
// finding anything is reported through the ok return, never as an error.
type QueryService struct {
	store *tables.Store
}

func NewQueryService(store *tables.Store) *QueryService {
	return &QueryService{store: store}
}

// GetRun looks one run up by id on the master view.
func (s *QueryService) GetRun(ctx context.Context, runID string) (models.MasterRow, bool, error) {
	rows, err := s.store.Master.Select(ctx, tables.SelectOptions{
		Where: []query.Cond{query.New("run_id", "=", runID)},
	})
	if err != nil {
		return models.MasterRow{}, false, err
	}
	if len(rows) == 0 {
		return models.MasterRow{}, false, nil
	}
	m, err := tables.MasterFromRow(rows[0])
	if err != nil {
		return models.MasterRow{}, false, err
	}
	return m, true, nil
}

// WorldRecord returns the fastest verified run for the game and category
// with every requested variable label selected. Ties on in-game time break
// on earliest submission date, then run id, so the result is deterministic.
func (s *QueryService) WorldRecord(ctx context.Context, gameName, categoryName string, labels []string) (models.MasterRow, bool, error) {
	conds := []query.Cond{
		query.New("game_name", "=", gameName),
		query.New("category_name", "=", categoryName),
		query.New("status", "=", string(models.StatusVerified)),
	}
	for _, label := range labels {
		conds = append(conds, query.New("variable_info", "LIKE", "%"+label+"%"))
	}
	rows, err := s.store.Master.Select(ctx, tables.SelectOptions{
		Where:  conds,
		Suffix: "ORDER BY igt ASC, date ASC, run_id ASC LIMIT 1",
	})
	if err != nil {
		return models.MasterRow{}, false, err
	}
	if len(rows) == 0 {
		return models.MasterRow{}, false, nil
	}
	m, err := tables.MasterFromRow(rows[0])
	if err != nil {
		return models.MasterRow{}, false, err
	}
	return m, true, nil
}

// VerifiedFilter narrows CountVerified. Empty fields are skipped; DateExpr
// accepts the expressions ParseDateConditions understands.
type VerifiedFilter struct {
	Verifier string
	GameID   string
	DateExpr string
}

// CountVerified counts verified runs matching the filter.
func (s *QueryService) CountVerified(ctx context.Context, filter VerifiedFilter) (int, error) {
	conds := []query.Cond{query.New("status", "=", string(models.StatusVerified))}
	if filter.Verifier != "" {
		conds = append(conds, query.New("verifier", "=", filter.Verifier))
	}
	if filter.GameID != "" {
		conds = append(conds, query.New("game_id", "=", filter.GameID))
	}
	if filter.DateExpr != "" {
		dateConds, err := utils.ParseDateConditions(filter.DateExpr, time.Now())
		if err != nil {
			return 0, err
		}
		conds = append(conds, dateConds...)
	}
	return s.store.Runs.Count(ctx, conds)
}

// TotalTime sums the in-game time of every cached run, optionally for one
// game.
func (s *QueryService) TotalTime(ctx context.Context, gameID string) (float64, error) {
	opts := tables.SelectOptions{Columns: []string{"igt"}}
	if gameID != "" {
		opts.Where = []query.Cond{query.New("game_id", "=", gameID)}
	}
	rows, err := s.store.Runs.Select(ctx, opts)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, row := range rows {
		total += tables.AsFloat(row["igt"])
	}
	return total, nil
}

// SearchRuns substring-matches the keyword across every master column, for
// interactive selection.
func (s *QueryService) SearchRuns(ctx context.Context, keyword string) ([]models.MasterRow, error) {
	var (
		rows []tables.Row
		err  error
	)
	if keyword == "" {
		rows, err = s.store.Master.Select(ctx, tables.SelectOptions{Suffix: "ORDER BY date DESC"})
	} else {
		rows, err = s.store.Master.Search(ctx, keyword)
	}
	if err != nil {
		return nil, err
	}
	out := make([]models.MasterRow, 0, len(rows))
	for _, row := range rows {
		m, err := tables.MasterFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
