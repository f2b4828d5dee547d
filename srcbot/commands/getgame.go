package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	srcbot "github.com/srcbot/bot/srcbot"
)

var GetGame = discord.SlashCommandCreate{
	Name:        "getgame",
	Description: "Find a game's speedrun.com id",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:         "name",
			Description:  "Game name",
			Required:     true,
			Autocomplete: true,
		},
	},
}

func GetGameHandler(_ *srcbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		gameID := e.SlashCommandInteractionData().String("name")
		return e.CreateMessage(discord.MessageCreate{
			Content: fmt.Sprintf("The game id is `%s`", gameID),
		})
	}
}

// GetGameAutocompleteHandler serves debounced remote game lookups. Only the
// final request of a typing burst reaches the API; preempted requests
// return no suggestions.
func GetGameAutocompleteHandler(b *srcbot.Bot) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		current := strings.TrimSpace(e.Data.String("name"))

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		choices, err := b.Autocomplete.Games(ctx, current)
		if err != nil {
			slog.Error("Game autocomplete failed",
				slog.String("type", "cmd"),
				slog.Any("error", err))
			return e.AutocompleteResult(nil)
		}
		return e.AutocompleteResult(toChoices(choices))
	}
}
