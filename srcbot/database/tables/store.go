package tables

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/srcbot/bot/srcbot/database/models"
)

// Store bundles the five cache tables and owns their schema creation. It is
// constructed once at startup and handed to every component that needs
// storage access.
type Store struct {
	Runs       *Table
	Categories *Table
	Variables  *Table
	Users      *Table
	Master     *Table
}

func runsSchema() Schema {
	return Schema{
		Table:      "runs",
		PrimaryKey: "run_id",
		Columns: []Column{
			{"run_id", "TEXT"},
			{"game_id", "TEXT"},
			{"player", "TEXT"},
			{"date", "TEXT"},
			{"rta", "REAL"},
			{"igt", "REAL"},
			{"category", "TEXT"},
			{"variable", "TEXT"},
			{"verifier", "TEXT"},
			{"verify_date", "TEXT"},
			{"status", "TEXT"},
			{"reason", "TEXT"},
			{"video", "TEXT"},
			{"comment", "TEXT"},
		},
	}
}

func categoriesSchema() Schema {
	return Schema{
		Table:      "categories",
		PrimaryKey: "category_id",
		Columns: []Column{
			{"category_id", "TEXT"},
			{"name", "TEXT"},
			{"game_id", "TEXT"},
		},
	}
}

func variablesSchema() Schema {
	return Schema{
		Table:      "variables",
		PrimaryKey: "variable_id",
		Columns: []Column{
			{"variable_id", "TEXT"},
			{"category_id", "TEXT"},
			{"var_name", "TEXT"},
			{"var_values", "TEXT"},
		},
	}
}

func usersSchema() Schema {
	return Schema{
		Table:      "users",
		PrimaryKey: "user_id",
		Columns: []Column{
			{"user_id", "TEXT"},
			{"name", "TEXT"},
			{"pronouns", "TEXT"},
			{"type", "TEXT"},
			{"pfp", "TEXT"},
		},
	}
}

func masterSchema() Schema {
	return Schema{
		Table:      "runs_master",
		PrimaryKey: "run_id",
		Columns: []Column{
			{"run_id", "TEXT"},
			{"game_id", "TEXT"},
			{"game_name", "TEXT"},
			{"player_info", "TEXT"},
			{"date", "TEXT"},
			{"rta", "REAL"},
			{"igt", "REAL"},
			{"category_name", "TEXT"},
			{"variable_info", "TEXT"},
			{"verifier_info", "TEXT"},
			{"verify_date", "TEXT"},
			{"status", "TEXT"},
			{"video", "TEXT"},
			{"comment", "TEXT"},
		},
	}
}

// NewStore binds every cache table to the database. Schemas are validated
// here; storage tables are created by Init.
func NewStore(db *bun.DB) (*Store, error) {
	var (
		s   Store
		err error
	)
	if s.Runs, err = New(db, runsSchema()); err != nil {
		return nil, err
	}
	if s.Categories, err = New(db, categoriesSchema()); err != nil {
		return nil, err
	}
	if s.Variables, err = New(db, variablesSchema()); err != nil {
		return nil, err
	}
	if s.Users, err = New(db, usersSchema()); err != nil {
		return nil, err
	}
	if s.Master, err = New(db, masterSchema()); err != nil {
		return nil, err
	}
	return &s, nil
}

// Init creates all cache tables. Idempotent.
func (s *Store) Init(ctx context.Context) error {
	for _, t := range []*Table{s.Runs, s.Categories, s.Variables, s.Users, s.Master} {
		if err := t.Create(ctx); err != nil {
			return err
		}
	}
	return nil
}

// RunToRow flattens a run into the runs-table column order.
func RunToRow(r models.Run) ([]any, error) {
	values, err := r.Values.Encode()
	if err != nil {
		return nil, err
	}
	var verifier any
	if r.VerifierID != "" {
		verifier = r.VerifierID
	}
	return []any{
		r.ID,
		r.GameID,
		r.Players.Encode(),
		models.EncodeDate(r.Date),
		r.RTA,
		r.IGT,
		r.CategoryID,
		values,
		verifier,
		models.EncodeNullableDate(r.VerifyDate),
		string(r.Status),
		nullIfEmpty(r.Reason),
		nullIfEmpty(r.Video),
		nullIfEmpty(r.Comment),
	}, nil
}

// RunFromRow rebuilds a run from a scanned runs-table row.
func RunFromRow(row Row) (models.Run, error) {
	date, err := models.ParseDate(AsString(row["date"]))
	if err != nil {
		return models.Run{}, fmt.Errorf("run %s: %w", AsString(row["run_id"]), err)
	}
	values, err := models.ParseVarSelection(AsString(row["variable"]))
	if err != nil {
		return models.Run{}, fmt.Errorf("run %s: %w", AsString(row["run_id"]), err)
	}
	r := models.Run{
		ID:         AsString(row["run_id"]),
		GameID:     AsString(row["game_id"]),
		Players:    models.ParsePlayerSet(AsString(row["player"])),
		Date:       date,
		RTA:        AsFloat(row["rta"]),
		IGT:        AsFloat(row["igt"]),
		CategoryID: AsString(row["category"]),
		Values:     values,
		VerifierID: AsString(row["verifier"]),
		Status:     models.RunStatus(AsString(row["status"])),
		Reason:     AsString(row["reason"]),
		Video:      AsString(row["video"]),
		Comment:    AsString(row["comment"]),
	}
	if s := AsString(row["verify_date"]); s != "" {
		vd, err := models.ParseDate(s)
		if err != nil {
			return models.Run{}, fmt.Errorf("run %s: %w", r.ID, err)
		}
		r.VerifyDate = &vd
	}
	return r, nil
}

func CategoryToRow(c models.Category) []any {
	return []any{c.ID, c.Name, c.GameID}
}

func CategoryFromRow(row Row) models.Category {
	return models.Category{
		ID:     AsString(row["category_id"]),
		Name:   AsString(row["name"]),
		GameID: AsString(row["game_id"]),
	}
}

func VariableToRow(v models.Variable) ([]any, error) {
	values, err := v.EncodeValues()
	if err != nil {
		return nil, err
	}
	return []any{v.ID, v.CategoryID, v.Name, values}, nil
}

func VariableFromRow(row Row) (models.Variable, error) {
	values, err := models.ParseVariableValues(AsString(row["var_values"]))
	if err != nil {
		return models.Variable{}, fmt.Errorf("variable %s: %w", AsString(row["variable_id"]), err)
	}
	return models.Variable{
		ID:         AsString(row["variable_id"]),
		CategoryID: AsString(row["category_id"]),
		Name:       AsString(row["var_name"]),
		Values:     values,
	}, nil
}

func UserToRow(u models.User) []any {
	return []any{u.ID, u.Name, nullIfEmpty(u.Pronouns), string(u.Type), nullIfEmpty(u.Pfp)}
}

func UserFromRow(row Row) models.User {
	return models.User{
		ID:       AsString(row["user_id"]),
		Name:     AsString(row["name"]),
		Pronouns: AsString(row["pronouns"]),
		Type:     models.UserType(AsString(row["type"])),
		Pfp:      AsString(row["pfp"]),
	}
}

func MasterToRow(m models.MasterRow) ([]any, error) {
	players, err := m.Players.Encode()
	if err != nil {
		return nil, err
	}
	verifier, err := m.Verifier.Encode()
	if err != nil {
		return nil, err
	}
	info, err := m.EncodeVariableInfo()
	if err != nil {
		return nil, err
	}
	return []any{
		m.RunID,
		m.GameID,
		m.GameName,
		players,
		models.EncodeDate(m.Date),
		m.RTA,
		m.IGT,
		m.CategoryName,
		info,
		verifier,
		models.EncodeNullableDate(m.VerifyDate),
		string(m.Status),
		nullIfEmpty(m.Video),
		nullIfEmpty(m.Comment),
	}, nil
}

func MasterFromRow(row Row) (models.MasterRow, error) {
	date, err := models.ParseDate(AsString(row["date"]))
	if err != nil {
		return models.MasterRow{}, fmt.Errorf("master row %s: %w", AsString(row["run_id"]), err)
	}
	players, err := models.ParseUserSet(AsString(row["player_info"]))
	if err != nil {
		return models.MasterRow{}, fmt.Errorf("master row %s: %w", AsString(row["run_id"]), err)
	}
	verifier, err := models.ParseUserSet(AsString(row["verifier_info"]))
	if err != nil {
		return models.MasterRow{}, fmt.Errorf("master row %s: %w", AsString(row["run_id"]), err)
	}
	info, err := models.ParseVariableInfo(AsString(row["variable_info"]))
	if err != nil {
		return models.MasterRow{}, fmt.Errorf("master row %s: %w", AsString(row["run_id"]), err)
	}
	m := models.MasterRow{
		RunID:        AsString(row["run_id"]),
		GameID:       AsString(row["game_id"]),
		GameName:     AsString(row["game_name"]),
		Players:      players,
		Date:         date,
		RTA:          AsFloat(row["rta"]),
		IGT:          AsFloat(row["igt"]),
		CategoryName: AsString(row["category_name"]),
		VariableInfo: info,
		Verifier:     verifier,
		VerifyDate:   nil,
		Status:       models.RunStatus(AsString(row["status"])),
		Video:        AsString(row["video"]),
		Comment:      AsString(row["comment"]),
	}
	if s := AsString(row["verify_date"]); s != "" {
		vd, err := models.ParseDate(s)
		if err != nil {
			return models.MasterRow{}, fmt.Errorf("master row %s: %w", m.RunID, err)
		}
		m.VerifyDate = &vd
	}
	return m, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
