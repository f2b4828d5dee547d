package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"

	"github.com/srcbot/bot/srcbot"
	"github.com/srcbot/bot/srcbot/commands"
	"github.com/srcbot/bot/srcbot/database"
	"github.com/srcbot/bot/srcbot/database/tables"
	"github.com/srcbot/bot/srcbot/etl"
	"github.com/srcbot/bot/srcbot/handlers"
	"github.com/srcbot/bot/srcbot/logger"
	"github.com/srcbot/bot/srcbot/services"
	"github.com/srcbot/bot/srcbot/srcom"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	shouldSyncCommands := flag.Bool("sync-commands", false, "Whether to sync commands to discord")
	shouldResync := flag.Bool("resync", false, "Whether to refresh the run cache on startup")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := srcbot.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}

	slog.SetDefault(slog.New(logger.NewHandler(cfg.Log.Level)))
	slog.Info("Starting SRCBot",
		slog.String("version", version),
		slog.String("commit", commit),
		slog.Int("games", len(cfg.Games)))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		slog.Error("Failed to open cache database", slog.Any("error", err))
		os.Exit(-1)
	}
	defer db.Close()

	store, err := tables.NewStore(db.BunDB())
	if err != nil {
		slog.Error("Invalid table schema", slog.Any("error", err))
		os.Exit(-1)
	}
	if err := store.Init(ctx); err != nil {
		slog.Error("Failed to initialize cache tables", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Cache tables ready", slog.String("type", "db"))

	b := srcbot.New(*cfg, version, commit)
	b.DB = db
	b.Store = store
	b.Source = srcom.NewClient(cfg.SRC)
	b.Pipeline = etl.NewPipeline(b.Source, cfg.Games, store)
	b.Query = services.NewQueryService(store)

	debounceDelay := time.Duration(cfg.Bot.DebounceSeconds * float64(time.Second))
	if debounceDelay <= 0 {
		debounceDelay = time.Second
	}
	b.Autocomplete = services.NewAutocompleteService(b.Source, b.Query, debounceDelay)
	b.Autocomplete.Warm(cfg.GameNames())

	if *shouldResync {
		slog.Info("Refreshing run cache on startup...")
		resyncCtx, resyncCancel := context.WithTimeout(context.Background(), 10*time.Minute)
		start := time.Now()
		if err := b.Pipeline.ResyncAll(resyncCtx); err != nil {
			resyncCancel()
			slog.Error("Startup resync failed", slog.Any("error", err))
			os.Exit(-1)
		}
		resyncCancel()
		slog.Info("Startup resync finished", slog.Duration("took", time.Since(start)))
	}

	// Periodic full refresh keeps the cache from going stale between manual
	// /resync invocations.
	if cfg.Resync.IntervalHours > 0 {
		refreshCtx, refreshCancel := context.WithCancel(context.Background())
		defer refreshCancel()

		go func() {
			ticker := time.NewTicker(time.Duration(cfg.Resync.IntervalHours) * time.Hour)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
					if err := b.Pipeline.ResyncAll(ctx); err != nil {
						slog.Error("Periodic resync failed", slog.Any("error", err))
					}
					cancel()
				case <-refreshCtx.Done():
					return
				}
			}
		}()
	}

	h := handler.New()

	// Game/run lookup commands
	h.Command("/getgame", handlers.WrapWithLogging("getgame", commands.GetGameHandler(b)))
	h.Autocomplete("/getgame", commands.GetGameAutocompleteHandler(b))
	h.Command("/getrun", handlers.WrapWithLogging("getrun", commands.GetRunHandler(b)))
	h.Autocomplete("/getrun", commands.GetRunAutocompleteHandler(b))
	h.Command("/searchruns", handlers.WrapWithLogging("searchruns", commands.SearchRunsHandler(b)))

	// Leaderboard commands
	h.Command("/worldrecord", handlers.WrapWithLogging("worldrecord", commands.WorldRecordHandler(b)))
	h.Autocomplete("/worldrecord", commands.WorldRecordAutocompleteHandler(b))
	h.Command("/verified", handlers.WrapWithLogging("verified", commands.VerifiedHandler(b)))
	h.Autocomplete("/verified", commands.VerifiedAutocompleteHandler(b))
	h.Command("/runtime", handlers.WrapWithLogging("runtime", commands.RuntimeHandler(b)))
	h.Autocomplete("/runtime", commands.RuntimeAutocompleteHandler(b))

	// Admin commands
	h.Command("/resync", handlers.WrapWithLogging("resync", commands.ResyncHandler(b)))
	h.Command("/version", commands.VersionHandler(b))

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady)); err != nil {
		slog.Error("Failed to setup bot", slog.Any("error", err))
		os.Exit(-1)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Client.Close(ctx)
	}()

	if *shouldSyncCommands {
		slog.Info("Syncing commands", slog.Any("guild_ids", cfg.Bot.DevGuilds))
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands", slog.Any("error", err))
		}
	}

	gatewayCtx, gatewayCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer gatewayCancel()
	if err = b.Client.OpenGateway(gatewayCtx); err != nil {
		slog.Error("Failed to open gateway", slog.Any("error", err))
		os.Exit(-1)
	}

	slog.Info("Bot is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	slog.Info("Shutting down bot...")
}
