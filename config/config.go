package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the environment-level settings consumed by the core.
type Config struct {
	Port        string
	Environment string

	// Administrator identity, defined out of band (never stored as a
	// regular credential-store row until first login upserts it).
	AdminUsername string
	AdminPassword string
	AdminEmail    string

	JWTSecret string

	CORSOrigins []string

	// Optional federated identity provider. When unset, only local
	// username/password authentication is available.
	OIDCProvider     string
	OIDCTokenURL     string
	OIDCUserinfoURL  string
	OIDCClientID     string
	OIDCClientSecret string
}

// Load reads configuration from the environment, loading .env if present.
// Malformed or missing administrator configuration is fatal at startup, per
// the auth design: it is an operator error, not a per-request condition.
func Load() *Config {
	_ = godotenv.Load() // ok if missing in prod

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		AdminUsername:    os.Getenv("ADMIN_USERNAME"),
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
		AdminEmail:       os.Getenv("ADMIN_EMAIL"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		OIDCProvider:     os.Getenv("OIDC_PROVIDER"),
		OIDCTokenURL:     os.Getenv("OIDC_TOKEN_URL"),
		OIDCUserinfoURL:  os.Getenv("OIDC_USERINFO_URL"),
		OIDCClientID:     os.Getenv("OIDC_CLIENT_ID"),
		OIDCClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
	}

	for _, k := range []string{"JWT_SECRET", "ADMIN_USERNAME", "ADMIN_PASSWORD", "ADMIN_EMAIL"} {
		if os.Getenv(k) == "" {
			log.Fatalf("missing required env %s", k)
		}
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	} else {
		cfg.CORSOrigins = []string{"http://localhost:3000"}
	}

	return cfg
}

// IsProduction reports whether secure cookie flags should be set.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// FederatedEnabled reports whether a federated identity provider is configured.
func (c *Config) FederatedEnabled() bool {
	return c.OIDCProvider != "" && c.OIDCTokenURL != "" && c.OIDCUserinfoURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
