package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Library  LibraryConfig  `mapstructure:"library"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	TMDB     TMDBConfig     `mapstructure:"tmdb"`
	Scan     ScanConfig     `mapstructure:"scan"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Probe    ProbeConfig    `mapstructure:"probe"`
}

// LibraryConfig holds the source tree and destination roots.
type LibraryConfig struct {
	SourceDir    string `mapstructure:"source_dir"`
	TVDestDir    string `mapstructure:"tv_dest_dir"`
	MovieDestDir string `mapstructure:"movie_dest_dir"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// TMDBConfig holds TMDB API client configuration.
type TMDBConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // seconds
}

// ScanConfig holds scan pass configuration.
type ScanConfig struct {
	IntervalSeconds        int `mapstructure:"interval_seconds"`
	FullIntervalMin        int `mapstructure:"full_interval_min"`
	CatalogSyncIntervalMin int `mapstructure:"catalog_sync_interval_min"`
}

// ResolverConfig holds title resolver configuration.
type ResolverConfig struct {
	CacheSize int `mapstructure:"cache_size"`
	// AutoResolve makes the daemon periodically accept the first candidate
	// of every pending ambiguous match instead of waiting for an operator.
	AutoResolve bool `mapstructure:"auto_resolve"`
}

// ProbeConfig holds resolution probe configuration.
type ProbeConfig struct {
	FFprobePath string `mapstructure:"ffprobe_path"`
}

// Default returns a Config with default values.
func Default() *Config {
	cfg := &Config{}
	v := viper.New()
	setDefaults(v)
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.reelink")
	}

	v.SetEnvPrefix("REELINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional; defaults + env vars are enough to run.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the directories required for a scan pass are set.
func (c *Config) Validate() error {
	if c.Library.SourceDir == "" {
		return fmt.Errorf("library.source_dir is required")
	}
	if c.Library.TVDestDir == "" {
		return fmt.Errorf("library.tv_dest_dir is required")
	}
	if c.Library.MovieDestDir == "" {
		return fmt.Errorf("library.movie_dest_dir is required")
	}
	return nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	v.SetDefault("library.source_dir", "")
	v.SetDefault("library.tv_dest_dir", "")
	v.SetDefault("library.movie_dest_dir", "")

	v.SetDefault("database.path", "./data/reelink.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("logging.compress", true)

	v.SetDefault("tmdb.api_key", "")
	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.timeout", 30)

	v.SetDefault("scan.interval_seconds", 10)
	v.SetDefault("scan.full_interval_min", 360)
	v.SetDefault("scan.catalog_sync_interval_min", 60)

	v.SetDefault("resolver.cache_size", 1024)
	v.SetDefault("resolver.auto_resolve", false)

	v.SetDefault("probe.ffprobe_path", "")
}
