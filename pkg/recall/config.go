package recall

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Environment variables read by ConfigFromEnv. Each is the RECALL_ prefix
// plus the upper-cased config key.
const (
	EnvRedisURL = "RECALL_REDIS_URL"
	EnvCacheTTL = "RECALL_CACHE_TTL"
	EnvIdentity = "RECALL_IDENTITY"
)

const (
	envPrefix = "RECALL"

	keyRedisURL = "redis_url"
	keyCacheTTL = "cache_ttl"
	keyIdentity = "identity"
)

// Config holds process-level settings for the examples and workers.
type Config struct {
	// RedisURL is passed to NewClientFromURL
	RedisURL string

	// TTL is the expiring cache lifetime for fetched results
	TTL time.Duration

	// Identity names the Cache store method (see WithIdentity)
	Identity string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		RedisURL: "redis://localhost:6379/0",
		TTL:      10 * time.Second,
		Identity: DefaultStoreIdentity,
	}
}

// ConfigFromEnv starts from DefaultConfig and overrides fields that have an
// environment variable set. RECALL_CACHE_TTL uses time.ParseDuration syntax.
func ConfigFromEnv() (Config, error) {
	return LoadConfig("")
}

// LoadConfig reads configFile (any format viper understands, keyed by
// redis_url, cache_ttl and identity) when it is non-empty, then applies
// RECALL_* environment overrides on top of the defaults.
func LoadConfig(configFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return DefaultConfig(), fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	}

	cfg := Config{
		RedisURL: v.GetString(keyRedisURL),
		TTL:      v.GetDuration(keyCacheTTL),
		Identity: v.GetString(keyIdentity),
	}
	// GetDuration yields zero for unparsable text, which validateTTL rejects.
	if err := validateTTL(cfg.TTL); err != nil {
		return DefaultConfig(), fmt.Errorf("invalid %s %q: %w", keyCacheTTL, v.GetString(keyCacheTTL), err)
	}
	if cfg.Identity == "" {
		return DefaultConfig(), fmt.Errorf("invalid %s: %w", keyIdentity, ErrEmptyIdentity)
	}
	if cfg.RedisURL == "" {
		return DefaultConfig(), errors.New("redis_url is required")
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault(keyRedisURL, defaults.RedisURL)
	v.SetDefault(keyCacheTTL, defaults.TTL)
	v.SetDefault(keyIdentity, defaults.Identity)
}
