package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds every runtime setting, loaded once at startup and threaded
// through the components that need it.
type Config struct {
	// osu! OAuth2 application credentials
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// Where the frontend expects to land after a successful login
	PostLoginRedirectURI string

	AdminPassword string
	JWTSecretKey  string

	// SurrealDB connection. URL must carry a ws:// or wss:// scheme.
	SurrealURL  string
	SurrealUser string
	SurrealPass string

	Port string

	// DeployCookie adds the Secure and Domain attributes to auth cookies.
	// Off for local development.
	DeployCookie bool

	// DailyUpdate enables the in-process stale user refresh loop.
	DailyUpdate bool
}

// Load reads the configuration from environment variables.
// REQUIRED variables fail fast with a named error so a broken deploy
// is caught at startup instead of on the first request.
func Load() (*Config, error) {
	cfg := &Config{
		Port:         os.Getenv("PORT"),
		DeployCookie: boolEnv("DEPLOY_COOKIE"),
		DailyUpdate:  boolEnv("DAILY_UPDATE"),
	}

	required := []struct {
		name   string
		target *string
	}{
		{"CLIENT_ID", &cfg.ClientID},
		{"CLIENT_SECRET", &cfg.ClientSecret},
		{"REDIRECT_URI", &cfg.RedirectURI},
		{"POST_LOGIN_REDIRECT_URI", &cfg.PostLoginRedirectURI},
		{"ADMIN_PASSWORD", &cfg.AdminPassword},
		{"JWT_SECRET_KEY", &cfg.JWTSecretKey},
		{"SURREAL_URL", &cfg.SurrealURL},
		{"SURREAL_USER", &cfg.SurrealUser},
		{"SURREAL_PASS", &cfg.SurrealPass},
	}
	for _, env := range required {
		value := os.Getenv(env.name)
		if value == "" {
			return nil, fmt.Errorf("%s environment variable not set", env.name)
		}
		*env.target = value
	}

	if !strings.HasPrefix(cfg.SurrealURL, "ws://") && !strings.HasPrefix(cfg.SurrealURL, "wss://") {
		return nil, fmt.Errorf("SURREAL_URL must include a ws:// or wss:// scheme, got %q", cfg.SurrealURL)
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	return cfg, nil
}

func boolEnv(name string) bool {
	return strings.EqualFold(os.Getenv(name), "true")
}
