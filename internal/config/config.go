package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// RedditConfig covers the api client. All four credentials are needed for
// oauth, anything missing switches the client to the public endpoints.
type RedditConfig struct {
	ClientID     string        `yaml:"client_id" env:"REDDIT_CLIENT_ID"`
	ClientSecret string        `yaml:"client_secret" env:"REDDIT_CLIENT_SECRET"`
	Username     string        `yaml:"username" env:"REDDIT_USERNAME"`
	Password     string        `yaml:"password" env:"REDDIT_PASSWORD"`
	UserAgent    string        `yaml:"user_agent" env:"REDGRAB_USER_AGENT" env-default:"RedditMediaGrabber/1.1 (by u/yourusername)"`
	Timeout      time.Duration `yaml:"timeout" env:"REDGRAB_HTTP_TIMEOUT" env-default:"20s"`
}

func (c *RedditConfig) Anonymous() bool {
	return c.ClientID == "" || c.ClientSecret == "" || c.Username == "" || c.Password == ""
}

type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout" env:"REDGRAB_DOWNLOAD_TIMEOUT" env-default:"60s"`
	Retries   int           `yaml:"retries" env:"REDGRAB_DOWNLOAD_RETRIES" env-default:"3"`
	KeepParts bool          `yaml:"keep_parts" env:"REDGRAB_KEEP_PARTS" env-default:"false"`
}

type GrabConfig struct {
	Workers int `yaml:"workers" env:"REDGRAB_WORKERS" env-default:"4"`
}

type WatchConfig struct {
	Interval time.Duration `yaml:"interval" env:"REDGRAB_WATCH_INTERVAL" env-default:"5m"`
	Limit    int           `yaml:"limit" env:"REDGRAB_WATCH_LIMIT" env-default:"25"`
}

// HistoryConfig selects the history store. An empty redis url keeps the
// per-process in-memory store.
type HistoryConfig struct {
	RedisURL string        `yaml:"redis_url" env:"REDGRAB_REDIS_URL"`
	SeenTTL  time.Duration `yaml:"seen_ttl" env:"REDGRAB_SEEN_TTL" env-default:"720h"`
}

type Config struct {
	OutputDir     string `yaml:"output_dir" env:"OUTPUT_DIR"`
	LogLevel      string `yaml:"log_level" env:"REDGRAB_LOG_LEVEL" env-default:"info"`
	FFmpeg        string `yaml:"ffmpeg" env:"REDGRAB_FFMPEG"`
	IndexTemplate string `yaml:"index_template" env:"REDGRAB_INDEX_TEMPLATE"`

	Reddit  RedditConfig  `yaml:"reddit"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Grab    GrabConfig    `yaml:"grab"`
	Watch   WatchConfig   `yaml:"watch"`
	History HistoryConfig `yaml:"history"`
}

// Load reads the optional yaml file and lets environment variables override
// it. A missing file is not an error, the environment alone is enough.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return nil, fmt.Errorf("cannot read config %s: %w", path, err)
			}

			cfg.normalize()

			return &cfg, nil
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("cannot read environment: %w", err)
	}

	cfg.normalize()

	return &cfg, nil
}

func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// normalize fills the output dir: OUTPUT_DIR wins, outside a container the
// user's Downloads folder is the fallback.
func (c *Config) normalize() {
	if c.OutputDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}

		c.OutputDir = filepath.Join(home, "Downloads")
	}
}
