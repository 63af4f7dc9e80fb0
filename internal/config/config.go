// Package config builds the single configuration value passed into every
// component. Values come from flags, an optional .insightifyrc.yaml at
// the project root, and INSIGHTIFY_* environment variables, in that
// order of precedence. There is no ambient global configuration.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Service hosts. Debug mode targets a locally running functions host;
// production goes through the API gateway.
const (
	DebugHost      = "http://localhost:7071"
	ProductionHost = "https://insightify-api.azure-api.net"
)

// ErrMissingKey indicates no subscription key was configured. Outside
// debug mode this is fatal before any network call is made.
var ErrMissingKey = errors.New("subscription key not configured (set INSIGHTIFY_SUBSCRIPTION_KEY)")

// Config holds everything the pipeline needs. It is constructed once at
// process start and passed by reference.
type Config struct {
	// SubscriptionKey authenticates every request to the analysis service.
	SubscriptionKey string
	// Host is the service base URL, selected by Debug unless overridden.
	Host string
	// Debug selects the local functions host and its URL scheme.
	Debug bool

	// Throttle overrides, zero means use the dispatcher default.
	MaxConcurrent int
	IntervalCap   int
	IntervalMs    int
	TimeoutMs     int

	// Retry overrides, zero means use the policy default.
	Retries    int
	MinDelayMs int
	MaxDelayMs int
}

// Load reads configuration for a project rooted at projectRoot. Debug
// mode tolerates a missing subscription key; production does not.
func Load(projectRoot string, debug bool) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("insightify")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(".insightifyrc")
	v.SetConfigType("yaml")
	v.AddConfigPath(projectRoot)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading .insightifyrc.yaml: %w", err)
		}
	}

	cfg := &Config{
		SubscriptionKey: v.GetString("subscription_key"),
		Debug:           debug,
		MaxConcurrent:   v.GetInt("throttle.max_concurrent"),
		IntervalCap:     v.GetInt("throttle.interval_cap"),
		IntervalMs:      v.GetInt("throttle.interval_ms"),
		TimeoutMs:       v.GetInt("throttle.timeout_ms"),
		Retries:         v.GetInt("retry.retries"),
		MinDelayMs:      v.GetInt("retry.min_delay_ms"),
		MaxDelayMs:      v.GetInt("retry.max_delay_ms"),
	}

	cfg.Host = v.GetString("host")
	if cfg.Host == "" {
		if debug {
			cfg.Host = DebugHost
		} else {
			cfg.Host = ProductionHost
		}
	}
	cfg.Host = strings.TrimSuffix(cfg.Host, "/")

	if cfg.SubscriptionKey == "" && !debug {
		return nil, ErrMissingKey
	}
	return cfg, nil
}
