package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/ircbridge/internal/bridge/throttle"
	"github.com/aussiebroadwan/ircbridge/pkg/httpx"
	"github.com/caarlos0/env/v11"
)

// Credential modes for the login link.
const (
	CredentialSecret = "secret"
	CredentialTicket = "ticket"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	HTTPAddr            string        `env:"HTTP_ADDR"             envDefault:":8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`

	DBDriver   string `env:"DB_DRIVER"   envDefault:"sqlite"`
	DBDSN      string `env:"DB_DSN"      envDefault:"bridge.db"`
	PepperFile string `env:"PEPPER_FILE" envDefault:"pepper"`

	// Exactly one of JWKSURL and HMACSecret verifies caller tokens.
	JWKSURL       string        `env:"UPSTREAM_JWKS_URL"`
	JWKSRefresh   time.Duration `env:"UPSTREAM_JWKS_REFRESH" envDefault:"5m"`
	HMACSecret    string        `env:"UPSTREAM_HMAC_SECRET"`
	Issuer        string        `env:"UPSTREAM_ISSUER"`
	Audience      []string      `env:"UPSTREAM_AUDIENCE"     envSeparator:","`
	TokenLeeway   time.Duration `env:"UPSTREAM_LEEWAY"       envDefault:"30s"`
	RequiredScope string        `env:"REQUIRED_SCOPE"`

	NetworkName        string   `env:"NETWORK_NAME"            envDefault:"bartab"`
	IRCHost            string   `env:"IRC_HOST"`
	IRCPort            int      `env:"IRC_PORT"                envDefault:"6697"`
	IRCTLS             bool     `env:"IRC_TLS"                 envDefault:"true"`
	RejectUnauthorized bool     `env:"IRC_REJECT_UNAUTHORIZED" envDefault:"true"`
	ClientURL          string   `env:"CLIENT_URL"`
	DefaultChannels    []string `env:"DEFAULT_CHANNELS"        envSeparator:","`

	DeeplinkCredential string        `env:"DEEPLINK_CREDENTIAL" envDefault:"secret"`
	TicketTTL          time.Duration `env:"TICKET_TTL"          envDefault:"2m"`

	AuthFailThreshold int           `env:"AUTH_FAIL_THRESHOLD" envDefault:"5"`
	AuthFailWindow    time.Duration `env:"AUTH_FAIL_WINDOW"    envDefault:"15m"`
	RedisURL          string        `env:"REDIS_URL"`

	// TrustedProxies lists the addresses allowed to set X-Forwarded-For.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	HashConcurrency      int           `env:"HASH_CONCURRENCY"      envDefault:"4"`
	StoreTimeout         time.Duration `env:"STORE_TIMEOUT"         envDefault:"5s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"10m"`

	EmbedAllowedOrigins []string      `env:"EMBED_ALLOWED_ORIGINS" envSeparator:","`
	EmbedFormTimeout    time.Duration `env:"EMBED_FORM_TIMEOUT"    envDefault:"15s"`

	Env       string `env:"ENV"        envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// LoadConfig reads the configuration from the environment and validates it.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.Audience = trimCSV(cfg.Audience)
	cfg.DefaultChannels = trimCSV(cfg.DefaultChannels)
	cfg.EmbedAllowedOrigins = trimCSV(cfg.EmbedAllowedOrigins)
	cfg.TrustedProxies = trimCSV(cfg.TrustedProxies)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks combinations env tags cannot express.
func (c Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.DBDriver))
	}

	switch {
	case c.JWKSURL == "" && c.HMACSecret == "":
		errs = append(errs, errors.New("one of UPSTREAM_JWKS_URL or UPSTREAM_HMAC_SECRET is required"))
	case c.JWKSURL != "" && c.HMACSecret != "":
		errs = append(errs, errors.New("UPSTREAM_JWKS_URL and UPSTREAM_HMAC_SECRET are mutually exclusive"))
	case c.JWKSURL != "" && c.JWKSRefresh <= 0:
		errs = append(errs, errors.New("UPSTREAM_JWKS_REFRESH must be positive"))
	}

	switch c.DeeplinkCredential {
	case CredentialSecret, CredentialTicket:
	default:
		errs = append(errs, fmt.Errorf("DEEPLINK_CREDENTIAL must be %q or %q, got %q",
			CredentialSecret, CredentialTicket, c.DeeplinkCredential))
	}

	if strings.TrimSpace(c.NetworkName) == "" {
		errs = append(errs, errors.New("NETWORK_NAME is required"))
	}
	if c.ClientURL != "" && c.IRCHost == "" {
		errs = append(errs, errors.New("IRC_HOST is required when CLIENT_URL is set"))
	}
	if c.AuthFailThreshold <= 0 || c.AuthFailWindow <= 0 {
		errs = append(errs, errors.New("AUTH_FAIL_THRESHOLD and AUTH_FAIL_WINDOW must be positive"))
	}
	if _, err := httpx.ParseTrustedProxies(c.TrustedProxies); err != nil {
		errs = append(errs, fmt.Errorf("TRUSTED_PROXIES: %w", err))
	}
	if c.HashConcurrency <= 0 {
		errs = append(errs, errors.New("HASH_CONCURRENCY must be positive"))
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT must be positive"))
	}

	return errors.Join(errs...)
}

// ThrottleConfig is the failed-attempt throttle derived from c.
func (c Config) ThrottleConfig() throttle.Config {
	return throttle.Config{Threshold: c.AuthFailThreshold, Window: c.AuthFailWindow}
}

// trimCSV drops blank entries left by comma splitting.
func trimCSV(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
