package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*PlaylistAPIConfig, error) {
	v := viper.New()

	def := DefaultPlaylistAPIConfig()
	v.SetDefault("playlist_api.host", def.Host)
	v.SetDefault("playlist_api.port", def.Port)
	v.SetDefault("playlist_api.request_timeout", def.RequestTimeout.String())
	v.SetDefault("playlist_api.refresh_concurrency", def.RefreshConcurrency)
	v.SetDefault("playlist_api.default_max_items", def.DefaultMaxItems)
	v.SetDefault("playlist_api.db_url", def.DBURL)

	// Bind environment variables with SP_ prefix
	v.SetEnvPrefix("SP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets must be environment-only
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &PlaylistAPIConfig{
		Host:               v.GetString("playlist_api.host"),
		Port:               v.GetInt("playlist_api.port"),
		RequestTimeout:     v.GetDuration("playlist_api.request_timeout"),
		RefreshConcurrency: v.GetInt("playlist_api.refresh_concurrency"),
		DefaultMaxItems:    v.GetInt("playlist_api.default_max_items"),
		DBURL:              v.GetString("playlist_api.db_url"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port range and positive values for timeout, concurrency and max items.
func validateConfig(cfg *PlaylistAPIConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.RefreshConcurrency <= 0 {
		return fmt.Errorf("refresh_concurrency must be positive, got %d", cfg.RefreshConcurrency)
	}
	if cfg.DefaultMaxItems <= 0 {
		return fmt.Errorf("default_max_items must be positive, got %d", cfg.DefaultMaxItems)
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets.
// InConfig rather than IsSet: with AutomaticEnv, IsSet also sees SP_HMAC_SECRET.
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("hmac_secret") || v.InConfig("playlist_api.hmac_secret") {
		return fmt.Errorf("HMAC secrets not allowed in config files (use SP_HMAC_SECRET environment variable)")
	}
	return nil
}
