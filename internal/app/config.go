package app

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/pulverlogic/newsboard/internal/briefing"
	"github.com/pulverlogic/newsboard/internal/gitsync"
	"github.com/pulverlogic/newsboard/internal/scoring"
	"github.com/pulverlogic/newsboard/internal/subjects"
)

type ExportConfig struct {
	CredentialsPath string `toml:"credentials_path"`
	SheetID         string `toml:"sheet_id"`
	SheetName       string `toml:"sheet_name"`
	StartCell       string `toml:"start_cell"`
	TimestampCell   string `toml:"timestamp_cell"`
	Schedule        string `toml:"schedule"`
}

type Config struct {
	Server struct {
		Port                string `toml:"port"`
		SessionSecret       string `toml:"session_secret"`
		SessionMaxAge       string `toml:"session_max_age"`
		SecureCookies       bool   `toml:"secure_cookies"`
		LoginAttemptsPerMin int    `toml:"login_attempts_per_minute"`
		LowParticipation    int    `toml:"low_participation"`
	} `toml:"server"`

	Data struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
		LogsFile      string `toml:"logs_file"`
		BonusFile     string `toml:"bonus_file"`
		ArchiveFile   string `toml:"archive_file"`
	} `toml:"data"`

	Auth struct {
		UsersFile string `toml:"users_file"`
		Watch     bool   `toml:"watch"`
		RedisURL  string `toml:"redis_url"`
	} `toml:"auth"`

	Scoring scoring.Grader `toml:"scoring"`

	Subjects struct {
		Policy  subjects.Policy `toml:"policy"`
		Catalog string          `toml:"catalog"`
	} `toml:"subjects"`

	Feeds struct {
		Catalog         string `toml:"catalog"`
		Limit           int    `toml:"limit"`
		Concurrency     int    `toml:"concurrency"`
		Timeout         string `toml:"timeout"`
		RefreshSchedule string `toml:"refresh_schedule"`
	} `toml:"feeds"`

	Sync gitsync.Config `toml:"sync"`

	Briefing briefing.Config `toml:"briefing"`

	Export []ExportConfig `toml:"export"`
}

func defaultConfig() Config {
	var c Config
	c.Server.Port = ":8080"
	c.Server.SessionMaxAge = "12h"
	c.Server.LoginAttemptsPerMin = 10
	c.Server.LowParticipation = 5
	c.Data.MigrationsDir = "./migrations"
	c.Data.LogsFile = "scholar_logs.csv"
	c.Data.BonusFile = "bonus_logs.csv"
	c.Data.ArchiveFile = "rss_archive.csv"
	c.Auth.UsersFile = "users.json"
	c.Scoring = scoring.DefaultGrader()
	c.Subjects.Policy = subjects.PolicyFirstMatch
	c.Feeds.Timeout = "15s"
	return c
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return ParseConfig(path, data)
}

// ParseConfig reads TOML over the defaults and checks the result.
func ParseConfig(path string, data []byte) (*Config, error) {
	config := defaultConfig()
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :8080")
	}
	if config.Server.SessionSecret == "" {
		return nil, fmt.Errorf("server.session_secret is required")
	}
	for name, value := range map[string]string{
		"server.session_max_age": config.Server.SessionMaxAge,
		"feeds.timeout":          config.Feeds.Timeout,
		"sync.timeout":           config.Sync.Timeout,
		"sync.batch_interval":    config.Sync.Interval,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	if config.Scoring.LongNotesThreshold <= 0 {
		return nil, fmt.Errorf("scoring.long_notes_threshold must be positive")
	}
	for i, e := range config.Export {
		if e.SheetID == "" || e.CredentialsPath == "" || e.Schedule == "" {
			return nil, fmt.Errorf("export #%d needs sheet_id, credentials_path and schedule", i)
		}
	}

	logger.Debug.Printf("Loaded scoring config: %+v", config.Scoring)

	return &config, nil
}

// duration parses a value already checked by ParseConfig.
func duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func (c *Config) SessionLifetime() time.Duration {
	return duration(c.Server.SessionMaxAge, 12*time.Hour)
}
