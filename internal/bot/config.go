package bot

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

const defaultAdminName = "telegram"

// Config is the [bot] section of the shared config file. AdminName is
// recorded as the reviewer on edits made from chat.
type Config struct {
	Bot struct {
		Token     string  `toml:"token"`
		AdminIDs  []int64 `toml:"admin_ids"`
		AdminName string  `toml:"admin_name"`
	} `toml:"bot"`
}

func ReadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("Failed to load config: %v", err)
	}
	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("bot.token is required")
	}
	if cfg.Bot.AdminName == "" {
		cfg.Bot.AdminName = defaultAdminName
	}

	return &cfg, nil
}
