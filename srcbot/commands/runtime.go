package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	srcbot "github.com/srcbot/bot/srcbot"
	"github.com/srcbot/bot/srcbot/utils"
)

var Runtime = discord.SlashCommandCreate{
	Name:        "runtime",
	Description: "Total in-game time across all cached runs",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:         "game",
			Description:  "Limit to one monitored game",
			Required:     false,
			Autocomplete: true,
		},
	},
}

func RuntimeHandler(b *srcbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		gameID := e.SlashCommandInteractionData().String("game")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		total, err := b.Query.TotalTime(ctx, gameID)
		if err != nil {
			return err
		}

		scope := "all monitored games"
		if gameID != "" {
			scope = gameNameByID(b, gameID)
		}
		return e.CreateMessage(discord.MessageCreate{
			Content: fmt.Sprintf("Total in-game time for %s: %s", scope, utils.FormatDuration(total)),
		})
	}
}

func RuntimeAutocompleteHandler(b *srcbot.Bot) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		return e.AutocompleteResult(configuredGameChoices(b, e.Data.String("game")))
	}
}
