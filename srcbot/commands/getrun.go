package commands

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	srcbot "github.com/srcbot/bot/srcbot"
	"github.com/srcbot/bot/srcbot/database/models"
	"github.com/srcbot/bot/srcbot/utils"
)

var GetRun = discord.SlashCommandCreate{
	Name:        "getrun",
	Description: "Look a cached run up by id",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:         "run",
			Description:  "Run to look up",
			Required:     true,
			Autocomplete: true,
		},
	},
}

func GetRunHandler(b *srcbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		runID := e.SlashCommandInteractionData().String("run")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		run, found, err := b.Query.GetRun(ctx, runID)
		if err != nil {
			return err
		}
		if !found {
			return e.CreateMessage(discord.MessageCreate{
				Content: fmt.Sprintf("No cached run with id `%s`", runID),
			})
		}
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{runEmbed(run)},
		})
	}
}

func GetRunAutocompleteHandler(b *srcbot.Bot) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		current := e.Data.String("run")

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		choices, err := b.Autocomplete.Runs(ctx, current)
		if err != nil {
			slog.Error("Run autocomplete failed",
				slog.String("type", "cmd"),
				slog.Any("error", err))
			return e.AutocompleteResult(nil)
		}
		return e.AutocompleteResult(toChoices(choices))
	}
}

func runEmbed(run models.MasterRow) discord.Embed {
	builder := discord.NewEmbedBuilder().
		SetTitle(fmt.Sprintf("%s — %s", run.GameName, run.CategoryName)).
		SetColor(0x2B2D31).
		AddField("Players", playerLines(run.Players), false).
		AddField("Time", fmt.Sprintf("IGT %s / RTA %s",
			utils.FormatDuration(run.IGT), utils.FormatDuration(run.RTA)), true).
		AddField("Date", models.EncodeDate(run.Date), true).
		AddField("Status", string(run.Status), true)

	if len(run.VariableInfo) > 0 {
		var lines []string
		for name, label := range run.VariableInfo {
			lines = append(lines, fmt.Sprintf("%s: %s", name, label))
		}
		sort.Strings(lines)
		builder.AddField("Variables", strings.Join(lines, "\n"), false)
	}
	if run.Verifier.Len() > 0 {
		verified := strings.Join(run.Verifier.Names(), ", ")
		if run.VerifyDate != nil {
			verified += " on " + models.EncodeDate(*run.VerifyDate)
		}
		builder.AddField("Verified by", verified, false)
	}
	if run.Video != "" {
		builder.AddField("Video", run.Video, false)
	}
	if run.Comment != "" {
		builder.AddField("Comment", run.Comment, false)
	}
	return builder.SetFooter(run.RunID, "").Build()
}

func playerLines(players models.UserSet) string {
	lines := make([]string, 0, players.Len())
	for _, u := range players.Users() {
		line := u.Name
		if line == "" {
			line = u.ID
		}
		if u.Pronouns != "" {
			line += " (" + u.Pronouns + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
