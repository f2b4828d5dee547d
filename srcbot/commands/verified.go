package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	srcbot "github.com/srcbot/bot/srcbot"
	"github.com/srcbot/bot/srcbot/services"
	"github.com/srcbot/bot/srcbot/utils"
)

var Verified = discord.SlashCommandCreate{
	Name:        "verified",
	Description: "Count verified runs for the monitored games",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:         "game",
			Description:  "Limit to one monitored game",
			Required:     false,
			Autocomplete: true,
		},
		discord.ApplicationCommandOptionString{
			Name:        "verifier",
			Description: "Limit to runs verified by this user id",
			Required:    false,
		},
		discord.ApplicationCommandOptionString{
			Name:         "date",
			Description:  "Date filter, e.g. \"last 2 weeks\" or \"after 2024-01-01\"",
			Required:     false,
			Autocomplete: true,
		},
	},
}

func VerifiedHandler(b *srcbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		data := e.SlashCommandInteractionData()
		filter := services.VerifiedFilter{
			GameID:   data.String("game"),
			Verifier: data.String("verifier"),
			DateExpr: data.String("date"),
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		count, err := b.Query.CountVerified(ctx, filter)
		if err != nil {
			if errors.Is(err, utils.ErrBadDateExpr) {
				return e.CreateMessage(discord.MessageCreate{
					Content: fmt.Sprintf("I don't understand the date filter %q — try one of the suggested forms", filter.DateExpr),
				})
			}
			return err
		}
		return e.CreateMessage(discord.MessageCreate{
			Content: fmt.Sprintf("%d verified runs match", count),
		})
	}
}

func VerifiedAutocompleteHandler(b *srcbot.Bot) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		switch e.Data.Focused().Name {
		case "game":
			return e.AutocompleteResult(configuredGameChoices(b, e.Data.String("game")))
		case "date":
			return e.AutocompleteResult(toChoices(b.Autocomplete.Dates(e.Data.String("date"))))
		}
		return e.AutocompleteResult(nil)
	}
}
