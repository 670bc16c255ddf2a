package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAddr            = ":8080"
	defaultCatalogPath     = "config/providers.yaml"
	defaultUpstreamTimeout = 15 * time.Second
	defaultAuditTopic      = "opsconsole.audit"
	devSigningKey          = "dev-secret-key-change-in-production"
)

// Server captures process level configuration.
type Server struct {
	Addr            string
	Environment     string
	LogLevel        string
	DatabaseURL     string
	JWTSigningKey   string
	JWTIssuer       string
	CatalogPath     string
	UpstreamTimeout time.Duration
	AuditBrokers    []string
	AuditTopic      string
}

// IsProduction reports whether the process runs with production settings.
func (s Server) IsProduction() bool {
	return s.Environment == "production"
}

// LoadDotEnv loads variables from the given files (default .env) without
// overriding what the environment already sets. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:          getenv("OPSCONSOLE_ADDR", defaultAddr),
		Environment:   getenv("ENVIRONMENT", "development"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
		JWTIssuer:     os.Getenv("JWT_ISSUER"),
		CatalogPath:   getenv("PROVIDER_CATALOG", defaultCatalogPath),
		AuditTopic:    getenv("AUDIT_KAFKA_TOPIC", defaultAuditTopic),
	}

	cfg.UpstreamTimeout = defaultUpstreamTimeout
	if raw := os.Getenv("UPSTREAM_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return Server{}, fmt.Errorf("invalid UPSTREAM_TIMEOUT %q", raw)
		}
		cfg.UpstreamTimeout = d
	}

	for _, b := range strings.Split(os.Getenv("AUDIT_KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.AuditBrokers = append(cfg.AuditBrokers, b)
		}
	}

	if cfg.JWTSigningKey == "" {
		if cfg.IsProduction() {
			return Server{}, errors.New("JWT_SIGNING_KEY is required in production")
		}
		// Development default; production refuses to start without one.
		cfg.JWTSigningKey = devSigningKey
	}
	if cfg.DatabaseURL == "" && cfg.IsProduction() {
		return Server{}, errors.New("DATABASE_URL is required in production")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
