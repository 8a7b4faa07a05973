package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	pstrings "masseutsendelse/pkg/platform/strings"
)

// MockBaseURL addresses the fixture registry when no real one is configured.
const MockBaseURL = "http://matrikkel.mock/"

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"MASSEUTSENDELSE_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// Matrikkel configures the registry client and transport.
type Matrikkel struct {
	BaseURL      string        `env:"MATRIKKEL_BASE_URL"`
	ProxyBaseURL string        `env:"MASSEUTSENDELSEAPI_BASE_URL"`
	APIKey       string        `env:"MATRIKKEL_API_KEY"`
	ClientID     string        `env:"MATRIKKELPROXY_CLIENTID" envDefault:"masseutsendelse"`
	Timeout      time.Duration `env:"MATRIKKEL_TIMEOUT" envDefault:"30s"`
	Mock         bool          `env:"MOCK_MATRIKKEL_API"`
	MockLatency  time.Duration `env:"MOCK_MATRIKKEL_LATENCY" envDefault:"0s"`

	// BreakerThreshold consecutive outages open the registry circuit for
	// BreakerCooldown. Zero disables the breaker.
	BreakerThreshold int           `env:"MATRIKKEL_BREAKER_THRESHOLD" envDefault:"5"`
	BreakerCooldown  time.Duration `env:"MATRIKKEL_BREAKER_COOLDOWN" envDefault:"30s"`

	ExcludedOwners   string `env:"EXCLUDED_OWNER_IDS"`
	ExcludedOwnerIDs []string
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type Tracing struct {
	Enabled      bool    `env:"TRACING_ENABLED"`
	Exporter     string  `env:"TRACING_EXPORTER" envDefault:"none"`
	OTLPEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	SampleRate   float64 `env:"TRACING_SAMPLE_RATE" envDefault:"1"`
}

// Audit selects the audit store. An empty DatabaseURL keeps events in memory.
type Audit struct {
	DatabaseURL string `env:"DATABASE_URL"`
	Buffer      int    `env:"AUDIT_BUFFER" envDefault:"256"`
}

type Config struct {
	Server    Server
	Matrikkel Matrikkel
	Log       Log
	Tracing   Tracing
	Audit     Audit
}

// FromEnv reads the configuration once at startup so main stays lean.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	m := &c.Matrikkel
	m.ExcludedOwnerIDs = pstrings.SplitList(m.ExcludedOwners)
	m.BaseURL = withTrailingSlash(m.BaseURL)
	m.ProxyBaseURL = withTrailingSlash(m.ProxyBaseURL)

	if m.BaseURL == "" && m.ProxyBaseURL == "" {
		if !m.Mock {
			return errors.New("MATRIKKEL_BASE_URL or MASSEUTSENDELSEAPI_BASE_URL is required unless MOCK_MATRIKKEL_API=true")
		}
		m.BaseURL = MockBaseURL
	}
	if m.Timeout <= 0 {
		return fmt.Errorf("MATRIKKEL_TIMEOUT must be positive, got %s", m.Timeout)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Log.Format)
	}
	return nil
}

func withTrailingSlash(u string) string {
	u = strings.TrimSpace(u)
	if u == "" || strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}
