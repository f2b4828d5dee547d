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

var Resync = discord.SlashCommandCreate{
	Name:        "resync",
	Description: "MOD ONLY: refresh the whole run cache from speedrun.com",
}

// ResyncHandler triggers a full cache refresh. Failed resyncs are not
// retried automatically; rerunning the command is the recovery path.
func ResyncHandler(b *srcbot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if err := e.DeferCreateMessage(false); err != nil {
			return fmt.Errorf("failed to defer response: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		start := time.Now()
		if err := b.Pipeline.ResyncAll(ctx); err != nil {
			_, updateErr := e.UpdateInteractionResponse(discord.MessageUpdate{
				Content: utils.Ptr(fmt.Sprintf("Resync failed: %v", err)),
			})
			if updateErr != nil {
				return updateErr
			}
			return err
		}

		_, err := e.UpdateInteractionResponse(discord.MessageUpdate{
			Content: utils.Ptr(fmt.Sprintf("Resync finished in %s", time.Since(start).Round(time.Second))),
		})
		return err
	}
}
