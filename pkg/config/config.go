package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Download DownloadConfig `mapstructure:"download"`
	Source   SourceConfig   `mapstructure:"source"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DownloadConfig controls where and how pages are written
type DownloadConfig struct {
	Dir         string `mapstructure:"dir"`
	RetryLimit  int    `mapstructure:"retry_limit"` // attempts per page before it is ledgered
	Concurrency int    `mapstructure:"concurrency"` // page downloads in flight across a run
	Extension   string `mapstructure:"extension"`
}

// SourceConfig describes the remote catalog
type SourceConfig struct {
	APIBaseURL  string        `mapstructure:"api_base_url"`
	SiteBaseURL string        `mapstructure:"site_base_url"`
	UserAgent   string        `mapstructure:"user_agent"`
	Timeout     time.Duration `mapstructure:"timeout"`
	PageSize    int           `mapstructure:"page_size"` // chapters per catalog request
}

type WatchConfig struct {
	File string `mapstructure:"file"`
}

type StorageConfig struct {
	LedgerDB  string `mapstructure:"ledger_db"`
	HistoryDB string `mapstructure:"history_db"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Download: DownloadConfig{
			Dir:         filepath.Join(home, "Downloads", "copymanga"),
			RetryLimit:  3,
			Concurrency: 16,
			Extension:   "jpg",
		},
		Source: SourceConfig{
			APIBaseURL:  "https://api.copymanga.com",
			SiteBaseURL: "https://www.copymanga.com",
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/96.0.4664.110 Safari/537.36",
			Timeout:     30 * time.Second,
			PageSize:    500,
		},
		Watch: WatchConfig{
			File: "watching.json",
		},
		Storage: StorageConfig{
			LedgerDB:  filepath.Join(defaultDataPath(), "ledger.db"),
			HistoryDB: filepath.Join(defaultDataPath(), "history.duckdb"),
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), "copymanga.log"),
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the directory for state and logs on the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "copymanga")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "copymanga")
	}
}

// defaultConfigPath returns the default config file directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "copymanga")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "copymanga")
	}
}

// LoadConfig loads configuration from the given file, or from config.yaml in the default
// locations when file is empty, then applies COPYMANGA_* environment overrides.
func LoadConfig(file string) (*Config, error) {
	return load(viper.New(), file)
}

func load(v *viper.Viper, file string) (*Config, error) {
	cfg := DefaultConfig()
	setDefaults(v, cfg)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	// Environment variable overrides, e.g. COPYMANGA_DOWNLOAD_DIR
	v.SetEnvPrefix("COPYMANGA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys absent from the file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("download.dir", cfg.Download.Dir)
	v.SetDefault("download.retry_limit", cfg.Download.RetryLimit)
	v.SetDefault("download.concurrency", cfg.Download.Concurrency)
	v.SetDefault("download.extension", cfg.Download.Extension)

	v.SetDefault("source.api_base_url", cfg.Source.APIBaseURL)
	v.SetDefault("source.site_base_url", cfg.Source.SiteBaseURL)
	v.SetDefault("source.user_agent", cfg.Source.UserAgent)
	v.SetDefault("source.timeout", cfg.Source.Timeout)
	v.SetDefault("source.page_size", cfg.Source.PageSize)

	v.SetDefault("watch.file", cfg.Watch.File)

	v.SetDefault("storage.ledger_db", cfg.Storage.LedgerDB)
	v.SetDefault("storage.history_db", cfg.Storage.HistoryDB)

	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

func (c *Config) Validate() error {
	if c.Download.RetryLimit < 1 {
		return fmt.Errorf("download.retry_limit must be at least 1, got %d", c.Download.RetryLimit)
	}
	if c.Download.Concurrency < 1 {
		return fmt.Errorf("download.concurrency must be at least 1, got %d", c.Download.Concurrency)
	}
	if c.Download.Dir == "" {
		return errors.New("download.dir must be set")
	}
	return nil
}
