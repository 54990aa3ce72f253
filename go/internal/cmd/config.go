package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/buffet/go/internal/ordering"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Session struct {
		Length time.Duration `yaml:"length"`
	} `yaml:"session"`

	// Storage is "postgres" or "memory"
	Storage string `yaml:"storage"`

	Events EventsConfig `yaml:"events"`
}

type EventsConfig struct {
	Log     bool `yaml:"log"`
	Kitchen bool `yaml:"kitchen"`

	NATS struct {
		Enabled       bool   `yaml:"enabled"`
		URL           string `yaml:"url"`
		StreamName    string `yaml:"stream_name"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`

	RabbitMQ struct {
		Enabled  bool   `yaml:"enabled"`
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"rabbitmq"`

	Telegram struct {
		Enabled bool   `yaml:"enabled"`
		Token   string `yaml:"token"`
		ChatID  int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
}

func defaultConfig() *Config {
	var c Config
	c.Server.Port = "8000"
	c.Server.AllowedOrigins = []string{"*"}
	c.Session.Length = ordering.DefaultSessionLength
	c.Storage = "postgres"
	c.Events.Log = true
	c.Events.Kitchen = true
	c.Events.NATS.StreamName = "BUFFET_EVENTS"
	c.Events.NATS.SubjectPrefix = "buffet.events"
	c.Events.RabbitMQ.Exchange = "buffet_events"
	return &c
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring non-numeric environment value")
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring invalid duration")
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// loadConfig reads the YAML file over the defaults, then applies environment
// overrides. A missing file is not an error.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn().Str("path", path).Msg("config file not found, using defaults")
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnv(config)

	if config.Session.Length <= 0 {
		return nil, fmt.Errorf("session length must be positive, got %s", config.Session.Length)
	}
	if config.Storage != "postgres" && config.Storage != "memory" {
		return nil, fmt.Errorf("unknown storage %q", config.Storage)
	}
	return config, nil
}

func applyEnv(c *Config) {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Session.Length = getEnvAsDuration("SESSION_LENGTH", c.Session.Length)
	c.Storage = getEnv("STORAGE", c.Storage)

	if url := os.Getenv("NATS_URL"); url != "" {
		c.Events.NATS.Enabled = true
		c.Events.NATS.URL = url
	}
	if url := os.Getenv("RABBITMQ_URL"); url != "" {
		c.Events.RabbitMQ.Enabled = true
		c.Events.RabbitMQ.URL = url
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.Events.Telegram.Enabled = true
		c.Events.Telegram.Token = token
	}
	c.Events.Telegram.ChatID = getEnvAsInt64("TELEGRAM_CHAT_ID", c.Events.Telegram.ChatID)
	c.Events.Log = getEnvAsBool("EVENTS_LOG", c.Events.Log)
}
