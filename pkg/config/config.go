package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"

	// DefaultStoreTimeout is the default per-call document store timeout.
	DefaultStoreTimeout = "30s"

	// DefaultMaxUpdateAttempts is the default bound on optimistic update
	// retries.
	DefaultMaxUpdateAttempts = 3

	// DefaultDevStoreListen is the default devstore listen address.
	DefaultDevStoreListen = ":8585"

	// DefaultDevStoreSQLitePath is the default devstore database file.
	DefaultDevStoreSQLitePath = "./devstore.db"
)

// Default collection names in the document store.
const (
	DefaultRunsCollection      = "runs"
	DefaultLogsCollection      = "logs"
	DefaultArtifactsCollection = "artifacts"
)

// Config is the root configuration for archivoor.
type Config struct {
	Global   GlobalConfig    `yaml:"global" mapstructure:"global"`
	Store    StoreConfig     `yaml:"store" mapstructure:"store"`
	Archive  ArchiveConfig   `yaml:"archive" mapstructure:"archive"`
	DevStore *DevStoreConfig `yaml:"devstore,omitempty" mapstructure:"devstore"`
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// StoreConfig describes the remote document store endpoint.
type StoreConfig struct {
	URL     string `yaml:"url" mapstructure:"url"`
	Token   string `yaml:"token,omitempty" mapstructure:"token"`
	Timeout string `yaml:"timeout,omitempty" mapstructure:"timeout"`
}

// ArchiveConfig tunes the archive engines.
type ArchiveConfig struct {
	MaxUpdateAttempts int               `yaml:"max_update_attempts,omitempty" mapstructure:"max_update_attempts"`
	Collections       CollectionsConfig `yaml:"collections,omitempty" mapstructure:"collections"`
}

// CollectionsConfig names the store collections per record kind.
type CollectionsConfig struct {
	Runs      string `yaml:"runs,omitempty" mapstructure:"runs"`
	Logs      string `yaml:"logs,omitempty" mapstructure:"logs"`
	Artifacts string `yaml:"artifacts,omitempty" mapstructure:"artifacts"`
}

// DevStoreConfig configures the embedded development document store.
type DevStoreConfig struct {
	Listen      string         `yaml:"listen,omitempty" mapstructure:"listen"`
	CORSOrigins []string       `yaml:"cors_origins,omitempty" mapstructure:"cors_origins"`
	Database    DatabaseConfig `yaml:"database" mapstructure:"database"`
}

// DatabaseConfig contains devstore database connection settings.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver" mapstructure:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite,omitempty" mapstructure:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres,omitempty" mapstructure:"postgres"`
}

// SQLiteConfig contains SQLite-specific settings.
type SQLiteConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Database string `yaml:"database" mapstructure:"database"`
	SSLMode  string `yaml:"ssl_mode" mapstructure:"ssl_mode"`
}

// Load reads and merges one or more configuration files, later files
// overriding earlier ones.
func Load(paths ...string) (*Config, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("at least one config file is required")
	}

	v := viper.New()

	for i, path := range paths {
		v.SetConfigFile(path)

		var err error
		if i == 0 {
			err = v.ReadInConfig()
		} else {
			err = v.MergeInConfig()
		}

		if err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", path, err)
		}
	}

	var cfg Config

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating config decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults sets default values for unspecified configuration options.
func (c *Config) applyDefaults() {
	if c.Global.LogLevel == "" {
		c.Global.LogLevel = DefaultLogLevel
	}

	if c.Store.Timeout == "" {
		c.Store.Timeout = DefaultStoreTimeout
	}

	if c.Archive.MaxUpdateAttempts == 0 {
		c.Archive.MaxUpdateAttempts = DefaultMaxUpdateAttempts
	}

	if c.Archive.Collections.Runs == "" {
		c.Archive.Collections.Runs = DefaultRunsCollection
	}

	if c.Archive.Collections.Logs == "" {
		c.Archive.Collections.Logs = DefaultLogsCollection
	}

	if c.Archive.Collections.Artifacts == "" {
		c.Archive.Collections.Artifacts = DefaultArtifactsCollection
	}

	if c.DevStore != nil {
		if c.DevStore.Listen == "" {
			c.DevStore.Listen = DefaultDevStoreListen
		}

		if c.DevStore.Database.Driver == "" {
			c.DevStore.Database.Driver = "sqlite"
		}

		if c.DevStore.Database.Driver == "sqlite" &&
			c.DevStore.Database.SQLite.Path == "" {
			c.DevStore.Database.SQLite.Path = DefaultDevStoreSQLitePath
		}
	}
}

// ValidateStore checks the settings needed by commands that talk to the
// remote document store.
func (c *Config) ValidateStore() error {
	if c.Store.URL == "" {
		return fmt.Errorf("store.url is required")
	}

	if _, err := time.ParseDuration(c.Store.Timeout); err != nil {
		return fmt.Errorf("store.timeout %q: %w", c.Store.Timeout, err)
	}

	if c.Archive.MaxUpdateAttempts < 1 {
		return fmt.Errorf(
			"archive.max_update_attempts must be at least 1, got %d",
			c.Archive.MaxUpdateAttempts,
		)
	}

	return nil
}

// ValidateDevStore checks the settings needed to run the devstore server.
func (c *Config) ValidateDevStore() error {
	if c.DevStore == nil {
		return fmt.Errorf("devstore section is required in config")
	}

	switch c.DevStore.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf(
			"unsupported devstore database driver: %s",
			c.DevStore.Database.Driver,
		)
	}

	return nil
}

// StoreTimeout returns the parsed per-call store timeout.
func (c *Config) StoreTimeout() time.Duration {
	d, err := time.ParseDuration(c.Store.Timeout)
	if err != nil {
		d, _ = time.ParseDuration(DefaultStoreTimeout)
	}

	return d
}
