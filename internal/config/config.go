// Package config loads storefront settings from the environment, an optional
// .env file and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable, e.g. STOREFRONT_ADDR.
const EnvPrefix = "STOREFRONT"

// Session store kinds.
const (
	SessionsMemory = "memory"
	SessionsSQLite = "sqlite"
	SessionsRedis  = "redis"
)

// Tracing exporters.
const (
	TracingNone   = "none"
	TracingStdout = "stdout"
	TracingOTLP   = "otlp"
)

// Config is the complete storefront configuration.
type Config struct {
	Addr           string        `envconfig:"ADDR" default:":8080"`
	BackendURL     string        `envconfig:"BACKEND_URL" default:"http://localhost:8000"`
	BackendTimeout time.Duration `envconfig:"BACKEND_TIMEOUT" default:"10s"`

	Sessions      string        `envconfig:"SESSIONS" default:"memory"`
	DBPath        string        `envconfig:"DB" default:"storefront.sqlite3"`
	RedisURL      string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"168h"`
	SessionSecret string        `envconfig:"SESSION_SECRET"`
	CookieSecure  bool          `envconfig:"COOKIE_SECURE" default:"false"`

	KafkaBrokers string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string `envconfig:"KAFKA_TOPIC" default:"storefront-events"`

	Tracing      string `envconfig:"TRACING" default:"none"`
	OTLPEndpoint string `envconfig:"OTLP_ENDPOINT" default:"localhost:4317"`

	LogPath  string `envconfig:"LOG"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// ErrHelp is returned by Load when -h or -help was given.
var ErrHelp = flag.ErrHelp

// Load reads .env (if present in the working directory), then the
// environment, then args.
func Load(args []string, usageOut io.Writer) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return load(args, usageOut)
}

func load(args []string, usageOut io.Writer) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	fs := flag.NewFlagSet("storefront", flag.ContinueOnError)
	fs.SetOutput(usageOut)

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "")
	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "")

	fs.StringVar(&cfg.BackendURL, "backend", cfg.BackendURL, "")
	fs.StringVar(&cfg.BackendURL, "b", cfg.BackendURL, "")

	fs.StringVar(&cfg.Sessions, "sessions", cfg.Sessions, "")
	fs.StringVar(&cfg.Sessions, "s", cfg.Sessions, "")

	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "")

	fs.StringVar(&cfg.RedisURL, "redis", cfg.RedisURL, "")
	fs.StringVar(&cfg.RedisURL, "r", cfg.RedisURL, "")

	fs.StringVar(&cfg.LogPath, "log", cfg.LogPath, "")
	fs.StringVar(&cfg.LogPath, "l", cfg.LogPath, "")

	fs.Usage = func() {
		fmt.Fprint(usageOut, `Usage: storefront [flags]

Flags:
  -a, -addr <host:port>      listen address (default: :8080)
  -b, -backend <url>         inventory backend base URL (default: http://localhost:8000)
  -s, -sessions <kind>       session store: memory, sqlite or redis (default: memory)
  -d, -db <path>             SQLite database path for sqlite sessions (default: storefront.sqlite3)
  -r, -redis <url>           Redis URL for redis sessions
  -l, -log <path>            log file path (default: no file, stdout/stderr only)
  -h, -help                  show this help and exit

Every flag can also be set through the environment, e.g. STOREFRONT_BACKEND_URL.
`)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be expressed as envconfig defaults.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("backend URL %q must be absolute", c.BackendURL))
	}

	switch c.Sessions {
	case SessionsMemory, SessionsSQLite, SessionsRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown session store %q", c.Sessions))
	}

	switch c.Tracing {
	case TracingNone, TracingStdout, TracingOTLP:
	default:
		errs = append(errs, fmt.Errorf("unknown tracing exporter %q", c.Tracing))
	}

	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("session TTL must be positive"))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return lvl, nil
}
