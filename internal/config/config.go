// Package config loads and validates application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gookit/validate"
	"github.com/spf13/viper"

	"github.com/Veraticus/sortwise/internal/common"
)

// RelayConfig configures the inference relay client.
type RelayConfig struct {
	URL             string        `validate:"required|fullUrl"`
	QuotaURL        string        `validate:"fullUrl"`
	APIKey          string        `validate:"required"`
	Timeout         time.Duration `validate:"required|min:1"`
	MaxImageBytes   int           `validate:"required|min:1024"`
	MaxOutputTokens int           `validate:"required|min:16"`
	RateLimit       int           `validate:"min:0"`
	UseWebSearch    bool
}

// BackendConfig configures the remote aggregate backend. An empty URL disables it.
type BackendConfig struct {
	URL    string `validate:"fullUrl"`
	APIKey string
}

// AuthConfig carries the signed-in identity, if any.
type AuthConfig struct {
	UserID      string
	DisplayName string
	AccessToken string
}

// CacheConfig configures the reply cache for text scans.
type CacheConfig struct {
	TTL     time.Duration
	SizeMB  int `validate:"min:0"`
	Enabled bool
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level  string `validate:"required|in:debug,info,warn,error"`
	Format string `validate:"required|in:console,json"`
}

// Config is the full application configuration.
type Config struct {
	Relay        RelayConfig
	Backend      BackendConfig
	Auth         AuthConfig
	Cache        CacheConfig
	Logging      LoggingConfig
	DatabasePath string `validate:"required"`
	SyncTimeout  time.Duration
	MetricsFile  string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("relay.timeout", 30*time.Second)
	v.SetDefault("relay.max_image_bytes", 4*1024*1024)
	v.SetDefault("relay.max_output_tokens", 600)
	v.SetDefault("relay.use_web_search", true)
	v.SetDefault("relay.rate_limit", 30)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.size_mb", 8)
	v.SetDefault("cache.ttl", 15*time.Minute)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("database.path", "~/.local/share/sortwise/sortwise.db")
	v.SetDefault("sync.timeout", 10*time.Second)
}

// Load reads configuration from v, falling back to environment variables
// for secrets, and validates the result.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	cfg := Config{
		Relay: RelayConfig{
			URL:             v.GetString("relay.url"),
			QuotaURL:        v.GetString("relay.quota_url"),
			APIKey:          v.GetString("relay.api_key"),
			Timeout:         v.GetDuration("relay.timeout"),
			MaxImageBytes:   v.GetInt("relay.max_image_bytes"),
			MaxOutputTokens: v.GetInt("relay.max_output_tokens"),
			RateLimit:       v.GetInt("relay.rate_limit"),
			UseWebSearch:    v.GetBool("relay.use_web_search"),
		},
		Backend: BackendConfig{
			URL:    v.GetString("backend.url"),
			APIKey: v.GetString("backend.api_key"),
		},
		Auth: AuthConfig{
			UserID:      v.GetString("auth.user_id"),
			DisplayName: v.GetString("auth.display_name"),
			AccessToken: v.GetString("auth.access_token"),
		},
		Cache: CacheConfig{
			Enabled: v.GetBool("cache.enabled"),
			SizeMB:  v.GetInt("cache.size_mb"),
			TTL:     v.GetDuration("cache.ttl"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		DatabasePath: ExpandPath(v.GetString("database.path")),
		SyncTimeout:  v.GetDuration("sync.timeout"),
		MetricsFile:  ExpandPath(v.GetString("metrics.textfile")),
	}

	// Direct environment variables win only when nothing else set the value.
	if cfg.Relay.APIKey == "" {
		cfg.Relay.APIKey = os.Getenv("SORTWISE_RELAY_API_KEY")
	}
	if cfg.Backend.APIKey == "" {
		cfg.Backend.APIKey = cfg.Relay.APIKey
	}
	if cfg.Relay.QuotaURL == "" && cfg.Relay.URL != "" {
		cfg.Relay.QuotaURL = strings.TrimRight(cfg.Relay.URL, "/") + "/guest-quota"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration against its struct rules.
func (c *Config) Validate() error {
	if c.Relay.URL == "" {
		return fmt.Errorf("%w: relay.url", common.ErrMissingConfig)
	}

	v := validate.Struct(c)
	if !v.Validate() {
		return fmt.Errorf("%w: %s", common.ErrInvalidConfig, v.Errors.One())
	}

	if (c.Auth.AccessToken == "") != (c.Auth.UserID == "") {
		return fmt.Errorf("%w: auth.user_id and auth.access_token must be set together", common.ErrInvalidConfig)
	}
	return nil
}

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") || path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}

	return os.ExpandEnv(path)
}
