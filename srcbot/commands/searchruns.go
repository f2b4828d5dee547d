package commands

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"

	srcbot "github.com/srcbot/bot/srcbot"
	"github.com/srcbot/bot/srcbot/services"
	"github.com/srcbot/bot/srcbot/utils"
)

const runsPerPage = 10

var SearchRuns = discord.SlashCommandCreate{
	Name:        "searchruns",
	Description: "🔍 Search the cached runs",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "query",
			Description: "Text to match against any part of a run",
			Required:    false,
		},
	},
}

func SearchRunsHandler(b *srcbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		query := strings.TrimSpace(e.SlashCommandInteractionData().String("query"))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		runs, err := b.Query.SearchRuns(ctx, query)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			return e.CreateMessage(discord.MessageCreate{
				Content: "No cached runs match",
			})
		}

		totalPages := int(math.Ceil(float64(len(runs)) / float64(runsPerPage)))
		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				start := page * runsPerPage
				end := min(start+runsPerPage, len(runs))

				var description strings.Builder
				if query != "" {
					description.WriteString(fmt.Sprintf("🔍`%s`\n\n", query))
				}
				for _, run := range runs[start:end] {
					description.WriteString(fmt.Sprintf("`%s` %s\n", run.RunID, utils.TruncateChoiceName(services.DisplayRun(run))))
				}

				embed.
					SetTitle("Cached runs").
					SetDescription(description.String()).
					SetColor(0x2B2D31).
					SetFooter(fmt.Sprintf("Page %d/%d • %d runs", page+1, totalPages, len(runs)), "")
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}
}
