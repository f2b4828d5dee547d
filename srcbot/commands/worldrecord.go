package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	srcbot "github.com/srcbot/bot/srcbot"
	"github.com/srcbot/bot/srcbot/utils"
)

var WorldRecord = discord.SlashCommandCreate{
	Name:        "worldrecord",
	Description: "Get the current world record for a category",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:         "game",
			Description:  "Monitored game",
			Required:     true,
			Autocomplete: true,
		},
		discord.ApplicationCommandOptionString{
			Name:        "category",
			Description: "Category name",
			Required:    true,
		},
		discord.ApplicationCommandOptionString{
			Name:        "variables",
			Description: "Comma-separated variable choice labels, e.g. Glitchless, Solo",
			Required:    false,
		},
	},
}

func WorldRecordHandler(b *srcbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		data := e.SlashCommandInteractionData()
		gameName := gameNameByID(b, data.String("game"))
		categoryName := data.String("category")

		var labels []string
		for _, label := range strings.Split(data.String("variables"), ",") {
			if label = strings.TrimSpace(label); label != "" {
				labels = append(labels, label)
			}
		}

		if err := e.DeferCreateMessage(false); err != nil {
			return fmt.Errorf("failed to defer response: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		record, found, err := b.Query.WorldRecord(ctx, gameName, categoryName, labels)
		if err != nil {
			return err
		}
		if !found {
			_, err = e.UpdateInteractionResponse(discord.MessageUpdate{
				Content: utils.Ptr(fmt.Sprintf("No verified runs for %s — %s with those variables", gameName, categoryName)),
			})
			return err
		}

		embed := runEmbed(record)
		embed.Title = "🏆 " + embed.Title
		_, err = e.UpdateInteractionResponse(discord.MessageUpdate{
			Embeds: &[]discord.Embed{embed},
		})
		return err
	}
}

func WorldRecordAutocompleteHandler(b *srcbot.Bot) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		if e.Data.Focused().Name != "game" {
			return e.AutocompleteResult(nil)
		}
		return e.AutocompleteResult(configuredGameChoices(b, e.Data.String("game")))
	}
}
