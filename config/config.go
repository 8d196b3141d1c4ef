// Package config loads service settings from an optional YAML file and the
// environment, with built-in defaults for every key.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"wanderplan/planner"
)

// EnvPrefix namespaces environment overrides, e.g. WANDERPLAN_SERVER_PORT.
const EnvPrefix = "WANDERPLAN"

type Config struct {
	Server   ServerConfig          `mapstructure:"server"`
	Database DatabaseConfig        `mapstructure:"database"`
	Storage  StorageConfig         `mapstructure:"storage"`
	NATS     NATSConfig            `mapstructure:"nats"`
	Identity IdentityConfig        `mapstructure:"identity"`
	AI       AIConfig              `mapstructure:"ai"`
	Logging  LoggingConfig         `mapstructure:"logging"`
	Planner  planner.CostModel     `mapstructure:"planner"`
	Packages planner.PackagePolicy `mapstructure:"packages"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	GinMode      string        `mapstructure:"gin_mode"`
	FrontendURLs []string      `mapstructure:"frontend_urls"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnectAttempts int           `mapstructure:"connect_attempts"`
}

// StorageConfig selects where saved plans go. The catalog always lives in
// the relational database when one is configured.
type StorageConfig struct {
	Driver          string `mapstructure:"driver"` // postgres, mongo
	MongoURI        string `mapstructure:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type IdentityConfig struct {
	URL     string        `mapstructure:"url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type AIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputFile string `mapstructure:"output_file"` // optional file output
}

var defaults = map[string]any{
	"server.port":                "8080",
	"server.gin_mode":            "",
	"server.frontend_urls":       []string{"http://localhost:5173", "http://localhost:3000"},
	"server.session_ttl":         "2h",
	"database.url":               "",
	"database.host":              "localhost",
	"database.port":              "5432",
	"database.user":              "postgres",
	"database.password":          "postgres",
	"database.name":              "wanderplan",
	"database.sslmode":           "disable",
	"database.max_open_conns":    10,
	"database.max_idle_conns":    5,
	"database.conn_max_lifetime": "5m",
	"database.connect_attempts":  10,
	"storage.driver":             "postgres",
	"storage.mongo_uri":          "mongodb://localhost:27017",
	"storage.mongo_database":     "wanderplan",
	"storage.mongo_collection":   "plans",
	"nats.url":                   "",
	"nats.subject":               "wanderplan.notifications",
	"identity.url":               "",
	"identity.api_key":           "",
	"identity.timeout":           "10s",
	"ai.api_key":                 "",
	"ai.model":                   "mistralai/Mistral-7B-Instruct-v0.3",
	"logging.level":              "info",
	"logging.format":             "json",
	"logging.output_file":        "",
}

// legacyEnv maps the bare variable names the deployment already sets.
var legacyEnv = map[string]string{
	"server.port":       "PORT",
	"server.gin_mode":   "GIN_MODE",
	"database.url":      "DATABASE_URL",
	"database.host":     "DB_HOST",
	"database.port":     "DB_PORT",
	"database.user":     "DB_USER",
	"database.password": "DB_PASSWORD",
	"database.name":     "DB_NAME",
	"database.sslmode":  "DB_SSLMODE",
	"storage.mongo_uri": "MONGO_URI",
	"nats.url":          "NATS_URL",
	"identity.url":      "AUTH_URL",
	"identity.api_key":  "AUTH_API_KEY",
	"ai.api_key":        "HUGGINGFACE_API_KEY",
	"ai.model":          "HF_MODEL",
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	cfg, _ := load(viper.New(), "")
	return cfg
}

// Load reads the YAML file at path (a missing file is not an error) and
// applies environment overrides on top.
func Load(path string) (*Config, error) {
	return load(viper.New(), path)
}

func load(v *viper.Viper, path string) (*Config, error) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file, %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file, %w", err)
		}
	}

	cfg := &Config{
		Planner:  planner.DefaultCostModel(),
		Packages: planner.DefaultPackagePolicy(),
	}
	// Lists from the file replace the built-in ones instead of being decoded
	// over them element by element.
	if v.IsSet("planner.generic_activities") {
		cfg.Planner.GenericActivities = nil
	}
	if v.IsSet("packages.tiers") {
		cfg.Packages.Tiers = nil
	}
	if v.IsSet("packages.default_activities") {
		cfg.Packages.DefaultActivities = nil
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	// FRONTEND_URL is a comma-separated list that extends the defaults.
	if extra := os.Getenv("FRONTEND_URL"); extra != "" {
		for _, u := range strings.Split(extra, ",") {
			if u = strings.TrimSpace(u); u != "" {
				cfg.Server.FrontendURLs = append(cfg.Server.FrontendURLs, u)
			}
		}
	}

	return cfg, cfg.Validate()
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.Server.GinMode {
	case "", "debug", "release", "test":
	default:
		return fmt.Errorf("unsupported gin_mode %q", c.Server.GinMode)
	}
	switch c.Storage.Driver {
	case "postgres", "mongo":
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}
	switch c.Planner.ZeroNightPolicy {
	case "", planner.ZeroNightKeep, planner.ZeroNightDrop, planner.ZeroNightReject:
	default:
		return fmt.Errorf("unsupported zero_night_policy %q", c.Planner.ZeroNightPolicy)
	}
	if c.Packages.ComfortThreshold > c.Packages.LuxuryThreshold {
		return fmt.Errorf("packages.comfort_threshold (%.0f) exceeds packages.luxury_threshold (%.0f)",
			c.Packages.ComfortThreshold, c.Packages.LuxuryThreshold)
	}
	return nil
}
