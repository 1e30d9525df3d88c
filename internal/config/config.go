package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the gateway process.
// All values come from env. No business logic reads raw environment
// variables; everything goes through here.
type Config struct {
	Mode string
	Port int

	Backend BackendConfig
	Twilio  TwilioConfig
	Cred    CredConfig
	DB      DBConfig

	// ForwardTimeout bounds the single outbound POST per invocation. A live
	// call is waiting on the response, so this stays short.
	ForwardTimeout time.Duration
}

// BackendConfig describes the application backend reports are forwarded to.
type BackendConfig struct {
	URLProd string
	URLTest string
	URLDev  string

	AuthKey    string
	RefreshKey string
}

type TwilioConfig struct {
	// AuthToken is both the inbound webhook validation secret and the
	// outbound signing secret. Empty disables inbound validation.
	AuthToken string
}

// CredConfig configures the stored-passcode store used by contact-scoped
// verification. RedisAddr empty disables the contact path.
type CredConfig struct {
	Key       string
	RedisAddr string
	TTL       time.Duration
}

// DBConfig configures the audit trail database. Host empty keeps audit
// in memory.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

func Load() (Config, error) {
	c := Config{}
	var errs []error

	c.Mode = strings.TrimSpace(os.Getenv("MODE"))
	if c.Mode == "" {
		c.Mode = "test"
	}

	c.Port = intOr(os.Getenv("APP_PORT"), 8080)

	c.Backend.URLProd = strings.TrimSpace(os.Getenv("URL_PROD"))
	c.Backend.URLTest = strings.TrimSpace(os.Getenv("URL_TEST"))
	c.Backend.URLDev = strings.TrimSpace(os.Getenv("URL_DEV"))
	c.Backend.AuthKey = os.Getenv("AUTH_KEY")
	c.Backend.RefreshKey = os.Getenv("REFRESH_KEY")

	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")

	c.Cred.Key = os.Getenv("CRED_KEY")
	c.Cred.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	c.Cred.TTL = durationOr(os.Getenv("CRED_TTL"), 10*time.Minute)

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	c.DB.Port = intOr(os.Getenv("DB_PORT"), 5432)
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.ForwardTimeout = durationOr(os.Getenv("FORWARD_TIMEOUT"), 5*time.Second)

	if err := c.Validate(); err != nil {
		errs = append(errs, err)
	}
	return c, joinErrors(errs)
}

func (c *Config) Validate() error {
	var errs []error

	if !isValidMode(c.Mode) {
		errs = append(errs, fmt.Errorf("MODE must be one of prod, test, dev, got %q", c.Mode))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.Port))
	}

	// A gateway whose mode resolves to no backend URL cannot do its one job.
	// This is a deployment error, fatal at startup, not recoverable per
	// request.
	if url, _ := c.BaseURL(); url == "" {
		errs = append(errs, fmt.Errorf("no backend URL configured for mode %q", c.Mode))
	}

	if c.Mode == "prod" && c.Twilio.AuthToken == "" {
		errs = append(errs, errors.New("TWILIO_AUTH_TOKEN is required in prod"))
	}

	if c.DB.Host != "" {
		if c.DB.User == "" {
			errs = append(errs, errors.New("DB_USER is required when DB_HOST is set"))
		}
		if c.DB.Name == "" {
			errs = append(errs, errors.New("DB_NAME is required when DB_HOST is set"))
		}
		if c.DB.SSLMode == "" {
			if c.Mode == "prod" {
				errs = append(errs, errors.New("DB_SSLMODE is required in prod"))
			} else {
				c.DB.SSLMode = "disable"
			}
		}
	}

	if c.Cred.RedisAddr != "" && c.Cred.Key == "" {
		errs = append(errs, errors.New("CRED_KEY is required when REDIS_ADDR is set"))
	}

	if c.ForwardTimeout <= 0 {
		c.ForwardTimeout = 5 * time.Second
	}

	return joinErrors(errs)
}

// BaseURL resolves the backend base URL for the configured mode.
func (c Config) BaseURL() (string, error) {
	var url string
	switch c.Mode {
	case "prod":
		url = c.Backend.URLProd
	case "dev":
		url = c.Backend.URLDev
	default:
		url = c.Backend.URLTest
	}
	if url == "" {
		return "", fmt.Errorf("no backend URL configured for mode %q", c.Mode)
	}
	return url, nil
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// PostgresDSN must not be logged; it contains secrets.
func (c Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode,
	)
}

// AuditEnabled reports whether the Postgres audit repository is configured.
func (c Config) AuditEnabled() bool { return c.DB.Host != "" }

// CredStoreEnabled reports whether the Redis passcode store is configured.
func (c Config) CredStoreEnabled() bool { return c.Cred.RedisAddr != "" }

func isValidMode(v string) bool {
	switch v {
	case "prod", "test", "dev":
		return true
	default:
		return false
	}
}

func intOr(raw string, def int) int {
	v := strings.TrimSpace(raw)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durationOr(raw string, def time.Duration) time.Duration {
	v := strings.TrimSpace(raw)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
