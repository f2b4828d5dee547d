package commands

import (
	"strings"

	"github.com/disgoorg/disgo/discord"

	srcbot "github.com/srcbot/bot/srcbot"
	"github.com/srcbot/bot/srcbot/services"
)

var Commands = []discord.ApplicationCommandCreate{
	GetGame,
	GetRun,
	SearchRuns,
	WorldRecord,
	Verified,
	Runtime,
	Resync,
	Version,
}

func toChoices(choices []services.Choice) []discord.AutocompleteChoice {
	out := make([]discord.AutocompleteChoice, 0, len(choices))
	for _, c := range choices {
		out = append(out, discord.AutocompleteChoiceString{Name: c.Name, Value: c.Value})
	}
	return out
}

// configuredGameChoices suggests the monitored games from config, matching
// the typed prefix against the display name. Values are game ids.
func configuredGameChoices(b *srcbot.Bot, current string) []discord.AutocompleteChoice {
	current = strings.ToLower(strings.TrimSpace(current))
	var out []discord.AutocompleteChoice
	for _, game := range b.Cfg.Games {
		if current != "" && !strings.Contains(strings.ToLower(game.Name), current) {
			continue
		}
		out = append(out, discord.AutocompleteChoiceString{Name: game.Name, Value: game.ID})
	}
	if len(out) > 25 {
		out = out[:25]
	}
	return out
}

// gameNameByID resolves a configured game id back to its display name.
func gameNameByID(b *srcbot.Bot, gameID string) string {
	for _, game := range b.Cfg.Games {
		if game.ID == gameID {
			return game.Name
		}
	}
	return gameID
}
