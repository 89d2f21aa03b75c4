package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tyemirov/claimrelay/internal/model"
)

const (
	envPrefix = "CLAIM"

	KeyServerURL          = "server_url"
	KeyTimeoutSec         = "timeout_sec"
	KeyLogLevel           = "log_level"
	KeyFiles              = "files"
	KeyConfirmTimeframe   = "confirm_timeframe"
	KeyConfirmUndisclosed = "confirm_undisclosed"
	KeyAcceptFees         = "accept_fees"
	DefaultServerURL      = "http://localhost:8080/submit"
	defaultTimeoutSeconds = 25
	defaultLogLevel       = "WARN"
)

// Config is everything claim-cli needs for one submission. Flags, CLAIM_* environment
// variables and an optional YAML file feed it, in that order of precedence.
type Config struct {
	ServerURL          string   `mapstructure:"server_url"`
	TimeoutSec         int      `mapstructure:"timeout_sec"`
	LogLevel           string   `mapstructure:"log_level"`
	Files              []string `mapstructure:"files"`
	ConfirmTimeframe   bool     `mapstructure:"confirm_timeframe"`
	ConfirmUndisclosed bool     `mapstructure:"confirm_undisclosed"`
	AcceptFees         bool     `mapstructure:"accept_fees"`

	model.Claim `mapstructure:",squash"`
}

// Timeout converts TimeoutSec to a duration.
func (cfg Config) Timeout() time.Duration {
	return time.Duration(cfg.TimeoutSec) * time.Second
}

// Load reads configuration into v and decodes it. configFile may be empty.
func Load(v *viper.Viper, configFile string) (Config, error) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyServerURL, DefaultServerURL)
	v.SetDefault(KeyTimeoutSec, defaultTimeoutSeconds)
	v.SetDefault(KeyLogLevel, defaultLogLevel)

	boundKeys := append([]string{KeyFiles, KeyConfirmTimeframe, KeyConfirmUndisclosed, KeyAcceptFees}, model.ClaimFieldNames...)
	for _, key := range boundKeys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if trimmedFile := strings.TrimSpace(configFile); trimmedFile != "" {
		v.SetConfigFile(trimmedFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", trimmedFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode configuration: %w", err)
	}

	var problems []string
	if strings.TrimSpace(cfg.ServerURL) == "" {
		problems = append(problems, "server_url is required")
	}
	if cfg.TimeoutSec <= 0 {
		problems = append(problems, "timeout_sec must be positive")
	}
	if len(problems) > 0 {
		return Config{}, errors.New("configuration errors: " + strings.Join(problems, "; "))
	}
	return cfg, nil
}
