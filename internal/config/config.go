package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	StateFile    string
	PGDSN        string
	Migrate      bool
	Journal      string
	MetricsOut   string
	RPCURL       string
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("POOLCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("state-file", "./data/ledger.json")
	v.SetDefault("journal", "./data/events.jsonl")
	v.SetDefault("migrate", true)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("poolctl")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		StateFile:    strings.TrimSpace(v.GetString("state-file")),
		PGDSN:        strings.TrimSpace(v.GetString("pg-dsn")),
		Migrate:      v.GetBool("migrate"),
		Journal:      strings.TrimSpace(v.GetString("journal")),
		MetricsOut:   strings.TrimSpace(v.GetString("metrics-out")),
		RPCURL:       strings.TrimSpace(v.GetString("rpc")),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no command can run with.
func (c Config) Validate() error {
	if c.PGDSN == "" && c.StateFile == "" {
		return errors.New("one of pg-dsn or state-file is required")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max-retries must be >= 0, got %d", c.MaxRetries)
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry-backoff must be >= 0, got %s", c.RetryBackoff)
	}
	return nil
}
