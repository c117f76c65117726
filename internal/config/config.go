package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/cartola/internal/categories"
)

// FileName is the project configuration file written by `cartola init`.
const FileName = "cartola.yaml"

// ErrUnknownDriver is returned for a store driver other than sqlite or postgres.
var ErrUnknownDriver = errors.New("unknown store driver")

// Config represents the top-level cartola.yaml configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Suggestions SuggestionsConfig `yaml:"suggestions" mapstructure:"suggestions"`
	Categories  CategoriesConfig  `yaml:"categories" mapstructure:"categories"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Import      ImportConfig      `yaml:"import" mapstructure:"import"`
	Git         GitConfig         `yaml:"git" mapstructure:"git"`
}

// StoreConfig selects and locates the ledger database.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`     // "sqlite" or "postgres"
	Path   string `yaml:"path" mapstructure:"path"`         // sqlite file, relative to the project dir
	DSN    string `yaml:"dsn,omitempty" mapstructure:"dsn"` // postgres connection string
}

// SuggestionsConfig tunes the category suggestion engine.
type SuggestionsConfig struct {
	DominantShare float64 `yaml:"dominant_share" mapstructure:"dominant_share"`
	AutoApply     float64 `yaml:"auto_apply" mapstructure:"auto_apply"`
}

// CategoriesConfig lists the categories seeded on first run.
type CategoriesConfig struct {
	Defaults []string `yaml:"defaults" mapstructure:"defaults"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // "console" or "json"
}

// ImportConfig controls statement discovery for `cartola import --scan`.
type ImportConfig struct {
	Dir    string `yaml:"dir" mapstructure:"dir"`
	Format string `yaml:"format" mapstructure:"format"` // importer name, empty to autodetect
}

// GitConfig controls git snapshots of exports.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit" mapstructure:"auto_commit"`
	AuthorName  string `yaml:"author_name" mapstructure:"author_name"`
	AuthorEmail string `yaml:"author_email" mapstructure:"author_email"`
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   "cartola.db",
		},
		Suggestions: SuggestionsConfig{
			DominantShare: 0.70,
			AutoApply:     0.90,
		},
		Categories: CategoriesConfig{
			Defaults: categories.Defaults(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Import: ImportConfig{
			Dir: "import",
		},
		Git: GitConfig{
			AuthorName:  "cartola",
			AuthorEmail: "cartola@localhost",
		},
	}
}

// Load reads a cartola.yaml file from disk. Values may be overridden by
// CARTOLA_* environment variables (CARTOLA_STORE_DRIVER, CARTOLA_LOG_LEVEL,
// ...), and DATABASE_URL switches the store to postgres.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CARTOLA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Store.Driver = "postgres"
		cfg.Store.DSN = url
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("store.driver", cfg.Store.Driver)
	v.SetDefault("store.path", cfg.Store.Path)
	v.SetDefault("store.dsn", cfg.Store.DSN)
	v.SetDefault("suggestions.dominant_share", cfg.Suggestions.DominantShare)
	v.SetDefault("suggestions.auto_apply", cfg.Suggestions.AutoApply)
	v.SetDefault("categories.defaults", cfg.Categories.Defaults)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("import.dir", cfg.Import.Dir)
	v.SetDefault("import.format", cfg.Import.Format)
	v.SetDefault("git.auto_commit", cfg.Git.AutoCommit)
	v.SetDefault("git.author_name", cfg.Git.AuthorName)
	v.SetDefault("git.author_email", cfg.Git.AuthorEmail)
}

// Validate checks the settings a command cannot run without.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			return errors.New("store.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DSN == "" {
			return errors.New("store.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Store.Driver)
	}
	if c.Suggestions.DominantShare <= 0 || c.Suggestions.DominantShare > 1 {
		return fmt.Errorf("suggestions.dominant_share must be in (0, 1], got %v", c.Suggestions.DominantShare)
	}
	return nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
