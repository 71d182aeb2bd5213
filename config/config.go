// Package config loads the YAML configuration of the halrest server.
//
// A configuration file looks like:
//
//	listen: localhost:8080
//	base_path: /api
//	max_items_per_page: 100
//	request_timeout: 5s
//	log_level: info
//	storage:
//	  driver: mysql
//	  dsn: user:pass@tcp(localhost:3306)/app
//	  table: users
//	auth:
//	  mode: basic
//	  clients:
//	    admin: $2a$10$...
//	  allowed_paths: [/api/ping]
//	cors:
//	  allowed_origins: ["*"]
//	breaker:
//	  enabled: true
//	  timeout: 1s
//
// Some values can be overridden from the environment, see Env.
package config

import (
	"bytes"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/afex/hystrix-go/hystrix"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/rs/halrest/rest"
)

// Config is the server configuration.
type Config struct {
	Listen          string        `yaml:"listen"`
	BasePath        string        `yaml:"base_path"`
	MaxItemsPerPage int           `yaml:"max_items_per_page"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	LogLevel        string        `yaml:"log_level"`
	Storage         Storage       `yaml:"storage"`
	Auth            Auth          `yaml:"auth"`
	CORS            CORS          `yaml:"cors"`
	Breaker         Breaker       `yaml:"breaker"`
}

// Storage selects the mapper backing the resources.
type Storage struct {
	// Driver is one of "mem", "mysql" or "pgx".
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table"`
	// Latency slows down the memory mapper, for testing timeouts.
	Latency time.Duration `yaml:"latency"`
}

// Auth configures the authentication middleware.
type Auth struct {
	// Mode is one of "none", "basic" or "jwt".
	Mode         string            `yaml:"mode"`
	Clients      map[string]string `yaml:"clients"`
	Secret       string            `yaml:"secret"`
	AllowedPaths []string          `yaml:"allowed_paths"`
	Realm        string            `yaml:"realm"`
}

// CORS configures cross origin requests. CORS is disabled when no origin is
// allowed.
type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Breaker configures the circuit breaker wrapped around storage.
type Breaker struct {
	Enabled               bool          `yaml:"enabled"`
	Timeout               time.Duration `yaml:"timeout"`
	MaxConcurrentRequests int           `yaml:"max_concurrent_requests"`
	ErrorPercentThreshold int           `yaml:"error_percent_threshold"`
}

// Command returns the hystrix configuration of the breaker.
func (b Breaker) Command() *hystrix.CommandConfig {
	return &hystrix.CommandConfig{
		Timeout:               int(b.Timeout / time.Millisecond),
		MaxConcurrentRequests: b.MaxConcurrentRequests,
		ErrorPercentThreshold: b.ErrorPercentThreshold,
	}
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Listen:          "localhost:8080",
		BasePath:        "/api",
		MaxItemsPerPage: rest.DefaultMaxItemsPerPage,
		LogLevel:        "info",
		Storage: Storage{
			Driver: "mem",
			Table:  "users",
		},
		Auth: Auth{
			Mode: "none",
		},
		Breaker: Breaker{
			Timeout:               time.Second,
			MaxConcurrentRequests: hystrix.DefaultMaxConcurrent,
			ErrorPercentThreshold: hystrix.DefaultErrorPercentThreshold,
		},
	}
}

// Load reads the YAML file at path over the defaults, applies the
// environment overrides and validates the result. An empty path only uses
// defaults and environment.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, errors.Wrap(err, "config: read")
		}
		if err := Parse(b, &c); err != nil {
			return c, err
		}
	}
	if err := c.Env(os.LookupEnv); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// Parse decodes a YAML document into c, rejecting unknown keys.
func Parse(b []byte, c *Config) error {
	d := yaml.NewDecoder(bytes.NewReader(b))
	d.KnownFields(true)
	if err := d.Decode(c); err != nil {
		return errors.Wrap(err, "config: parse")
	}
	return nil
}

// Env applies the HALREST_* overrides found by lookup: HALREST_LISTEN,
// HALREST_BASE_PATH, HALREST_MAX_ITEMS_PER_PAGE, HALREST_LOG_LEVEL,
// HALREST_STORAGE_DRIVER, HALREST_STORAGE_DSN, HALREST_STORAGE_TABLE,
// HALREST_AUTH_MODE and HALREST_AUTH_SECRET.
func (c *Config) Env(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"HALREST_LISTEN":         &c.Listen,
		"HALREST_BASE_PATH":      &c.BasePath,
		"HALREST_LOG_LEVEL":      &c.LogLevel,
		"HALREST_STORAGE_DRIVER": &c.Storage.Driver,
		"HALREST_STORAGE_DSN":    &c.Storage.DSN,
		"HALREST_STORAGE_TABLE":  &c.Storage.Table,
		"HALREST_AUTH_MODE":      &c.Auth.Mode,
		"HALREST_AUTH_SECRET":    &c.Auth.Secret,
	}
	for k, p := range strs {
		if v, found := lookup(k); found {
			*p = v
		}
	}
	if v, found := lookup("HALREST_MAX_ITEMS_PER_PAGE"); found {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "config: HALREST_MAX_ITEMS_PER_PAGE")
		}
		c.MaxItemsPerPage = n
	}
	return nil
}

// Validate checks the consistency of the configuration.
func (c Config) Validate() error {
	if c.Listen == "" {
		return errors.New("config: listen: required")
	}
	if c.MaxItemsPerPage < 1 {
		return errors.Errorf("config: max_items_per_page: must be positive, got %d", c.MaxItemsPerPage)
	}
	if c.RequestTimeout < 0 {
		return errors.New("config: request_timeout: must not be negative")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.Storage.Driver {
	case "mem":
	case "mysql", "pgx":
		if c.Storage.DSN == "" {
			return errors.Errorf("config: storage.dsn: required with driver %s", c.Storage.Driver)
		}
		if c.Storage.Table == "" {
			return errors.New("config: storage.table: required")
		}
	default:
		return errors.Errorf("config: storage.driver: unknown driver %q", c.Storage.Driver)
	}
	switch c.Auth.Mode {
	case "", "none":
	case "basic":
		if len(c.Auth.Clients) == 0 {
			return errors.New("config: auth.clients: required with basic mode")
		}
	case "jwt":
		if c.Auth.Secret == "" {
			return errors.New("config: auth.secret: required with jwt mode")
		}
	default:
		return errors.Errorf("config: auth.mode: unknown mode %q", c.Auth.Mode)
	}
	if c.Breaker.Enabled && c.Breaker.Timeout < time.Millisecond {
		return errors.New("config: breaker.timeout: must be at least 1ms")
	}
	return nil
}

// Level returns the parsed log level.
func (c Config) Level() (zerolog.Level, error) {
	l, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return l, errors.Wrap(err, "config: log_level")
	}
	return l, nil
}
