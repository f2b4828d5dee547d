package etl

import (
	"context"

	"github.com/srcbot/bot/srcbot/database/models"
	"github.com/srcbot/bot/srcbot/database/tables"
)

// Resolver joins a run against the already-resynced category, variable and
// user tables to produce denormalized master rows. Lookup maps are loaded
// once at construction; categories, variables and users must be resynced
// before a resolver is built.
type Resolver struct {
	categories map[string]models.Category
	variables  map[string]models.Variable
	users      map[string]models.User
	gameNames  map[string]string
}

// NewResolver loads the lookup maps from the store. gameNames is the static
// game-id to display-name mapping from configuration.
func NewResolver(ctx context.Context, store *tables.Store, gameNames map[string]string) (*Resolver, error) {
	r := &Resolver{
		categories: make(map[string]models.Category),
		variables:  make(map[string]models.Variable),
		users:      make(map[string]models.User),
		gameNames:  gameNames,
	}

	catRows, err := store.Categories.Select(ctx, tables.SelectOptions{})
	if err != nil {
		return nil, err
	}
	for _, row := range catRows {
		c := tables.CategoryFromRow(row)
		r.categories[c.ID] = c
	}

	varRows, err := store.Variables.Select(ctx, tables.SelectOptions{})
	if err != nil {
		return nil, err
	}
	for _, row := range varRows {
		v, err := tables.VariableFromRow(row)
		if err != nil {
			return nil, err
		}
		r.variables[v.ID] = v
	}

	userRows, err := store.Users.Select(ctx, tables.SelectOptions{})
	if err != nil {
		return nil, err
	}
	for _, row := range userRows {
		u := tables.UserFromRow(row)
		r.users[u.ID] = u
	}

	return r, nil
}

// BuildRow denormalizes one run. Unresolvable category or variable
// references degrade to empty/absent entries rather than failing; a missing
// verifier row yields an empty display set.
func (r *Resolver) BuildRow(run models.Run) models.MasterRow {
	m := models.MasterRow{
		RunID:        run.ID,
		GameID:       run.GameID,
		GameName:     r.gameNames[run.GameID],
		Date:         run.Date,
		RTA:          run.RTA,
		IGT:          run.IGT,
		VariableInfo: map[string]string{},
		VerifyDate:   run.VerifyDate,
		Status:       run.Status,
		Video:        run.Video,
		Comment:      run.Comment,
	}

	if cat, ok := r.categories[run.CategoryID]; ok {
		m.CategoryName = cat.Name
	}

	for varID, choiceID := range run.Values {
		variable, ok := r.variables[varID]
		if !ok {
			continue
		}
		label, ok := variable.Values[choiceID]
		if !ok {
			continue
		}
		m.VariableInfo[variable.Name] = label
	}

	for _, id := range run.Players {
		if u, ok := r.users[id]; ok {
			m.Players.Add(u)
		} else {
			m.Players.Add(models.User{ID: id})
		}
	}

	if run.VerifierID != "" {
		if u, ok := r.users[run.VerifierID]; ok {
			m.Verifier.Add(u)
		}
	}

	return m
}
