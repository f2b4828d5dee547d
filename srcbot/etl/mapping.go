package etl

import (
	"fmt"

	"github.com/srcbot/bot/srcbot/database/models"
	"github.com/srcbot/bot/srcbot/srcom"
)

// ParseError reports a single malformed API record. The record is skipped;
// the rest of the batch is unaffected.
type ParseError struct {
	RunID string
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("run %s: bad %s: %v", e.RunID, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MapRun converts a raw API run into the cached shape. In-game time falls
// back to real time when the source reports exactly zero, and guest ids are
// synthesized from the raw guest name.
func MapRun(raw srcom.Run) (models.Run, error) {
	players := make(models.PlayerSet, 0, len(raw.Players.Data))
	for _, p := range raw.Players.Data {
		switch p.Rel {
		case "guest":
			players = append(players, models.GuestID(p.Name))
		default:
			players = append(players, p.ID)
		}
	}
	if len(players) == 0 {
		return models.Run{}, &ParseError{RunID: raw.ID, Field: "players", Err: fmt.Errorf("empty player list")}
	}

	date, err := models.ParseDate(raw.Date)
	if err != nil {
		return models.Run{}, &ParseError{RunID: raw.ID, Field: "date", Err: err}
	}

	igt := raw.Times.IngameT
	if igt == 0 {
		igt = raw.Times.RealtimeT
	}

	run := models.Run{
		ID:         raw.ID,
		GameID:     raw.Game,
		Players:    players,
		Date:       date,
		RTA:        raw.Times.RealtimeT,
		IGT:        igt,
		CategoryID: raw.Category,
		Values:     models.VarSelection(raw.Values),
		VerifierID: raw.Status.Examiner,
		Status:     models.RunStatus(raw.Status.Status),
		Reason:     raw.Status.Reason,
		Comment:    raw.Comment,
	}
	if run.Values == nil {
		run.Values = models.VarSelection{}
	}
	// verify-date is an ISO-8601 timestamp; only the date part is kept.
	if vd := raw.Status.VerifyDate; len(vd) >= 10 {
		parsed, err := models.ParseDate(vd[:10])
		if err != nil {
			return models.Run{}, &ParseError{RunID: raw.ID, Field: "verify-date", Err: err}
		}
		run.VerifyDate = &parsed
	}
	if raw.Videos != nil && len(raw.Videos.Links) > 0 {
		run.Video = raw.Videos.Links[0].URI
	}
	return run, nil
}

// MapVariable projects the source's per-choice structure down to a
// choice-id to label mapping.
func MapVariable(raw srcom.Variable) models.Variable {
	values := make(map[string]string, len(raw.Values.Values))
	for id, choice := range raw.Values.Values {
		values[id] = choice.Label
	}
	return models.Variable{
		ID:         raw.ID,
		CategoryID: raw.Category,
		Name:       raw.Name,
		Values:     values,
	}
}

// MapCategory attaches the game id the category payload omits.
func MapCategory(raw srcom.Category, gameID string) models.Category {
	return models.Category{ID: raw.ID, Name: raw.Name, GameID: gameID}
}

// UsersFromRun extracts user rows from a run's player list. With embedded
// player data the full display record is built; a bare examiner reference
// only yields the minimal id-plus-type variant.
func UsersFromRun(raw srcom.Run) []models.User {
	users := make([]models.User, 0, len(raw.Players.Data))
	for _, p := range raw.Players.Data {
		switch p.Rel {
		case "guest":
			users = append(users, models.User{
				ID:       models.GuestID(p.Name),
				Name:     p.Name,
				Pronouns: p.Pronouns,
				Type:     models.UserGuest,
			})
		default:
			u := models.User{
				ID:       p.ID,
				Pronouns: p.Pronouns,
				Type:     models.UserRegistered,
			}
			if p.Names != nil {
				u.Name = p.Names.International
			}
			if p.Assets != nil {
				u.Pfp = p.Assets.Image.URI
			}
			users = append(users, u)
		}
	}
	return users
}

// MinimalUser is the id-only variant used for verifier references that
// arrive without embedded player data.
func MinimalUser(id string) models.User {
	return models.User{ID: id, Type: models.UserRegistered}
}
