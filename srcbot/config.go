package srcbot

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/disgoorg/snowflake/v2"
	"github.com/pelletier/go-toml/v2"

	"github.com/srcbot/bot/srcbot/database"
	"github.com/srcbot/bot/srcbot/etl"
	"github.com/srcbot/bot/srcbot/srcom"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	if len(cfg.Games) == 0 {
		return nil, fmt.Errorf("config declares no games to monitor")
	}
	return &cfg, nil
}

type Config struct {
	Log    LogConfig         `toml:"log"`
	Bot    BotConfig         `toml:"bot"`
	DB     database.DBConfig `toml:"db"`
	SRC    srcom.Config      `toml:"src"`
	Resync ResyncConfig      `toml:"resync"`
	Games  []etl.Game        `toml:"games"`
}

type BotConfig struct {
	DevGuilds []snowflake.ID `toml:"dev_guilds"`
	Token     string         `toml:"token"`
	// Quiet period on the game autocomplete before the remote lookup runs.
	DebounceSeconds float64 `toml:"debounce_seconds"`
}

type LogConfig struct {
	Level slog.Level `toml:"level"`
}

type ResyncConfig struct {
	// Full cache refresh interval. Zero disables the periodic resync; the
	// /resync command stays available.
	IntervalHours int `toml:"interval_hours"`
}

// GameNames returns the static game-id to display-name mapping.
func (c *Config) GameNames() map[string]string {
	names := make(map[string]string, len(c.Games))
	for _, g := range c.Games {
		names[g.ID] = g.Name
	}
	return names
}
