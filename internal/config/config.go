// Package config loads server settings from defaults, an optional .env
// file, BISTRO_* environment variables and command-line flags, in that
// order of precedence (later wins).
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration.
type Config struct {
	Port           string
	LogLevel       string
	LogFormat      string // "json" or "console"
	DataDir        string // empty keeps the cart in memory
	SessionTTL     time.Duration
	RequestTimeout time.Duration

	ApproveDelay       time.Duration
	DeclineDelay       time.Duration
	PaymentConcurrency int     // authorizations processed at once
	DeliveryDistance   float64 // miles, used when a checkout does not send one
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:               "8080",
		LogLevel:           "info",
		LogFormat:          "json",
		SessionTTL:         30 * time.Minute,
		RequestTimeout:     10 * time.Second,
		ApproveDelay:       1500 * time.Millisecond,
		DeclineDelay:       2000 * time.Millisecond,
		PaymentConcurrency: 4,
		DeliveryDistance:   3,
	}
}

// LookupFunc reads one environment variable; os.LookupEnv in production.
type LookupFunc func(key string) (string, bool)

// Load builds the configuration. envFile may be empty to skip the .env step;
// a missing file is not an error.
func Load(args []string, envFile string, lookup LookupFunc) (Config, error) {
	cfg := Default()

	fileVars := map[string]string{}
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("config: read %s: %w", envFile, err)
		default:
			fileVars = vars
		}
	}
	get := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}

	if err := cfg.applyEnv(get); err != nil {
		return Config{}, err
	}
	if err := cfg.applyFlags(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(get LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := get(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := get(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("BISTRO_PORT", &c.Port)
	str("BISTRO_LOG_LEVEL", &c.LogLevel)
	str("BISTRO_LOG_FORMAT", &c.LogFormat)
	str("BISTRO_DATA_DIR", &c.DataDir)

	for key, dst := range map[string]*time.Duration{
		"BISTRO_SESSION_TTL":     &c.SessionTTL,
		"BISTRO_REQUEST_TIMEOUT": &c.RequestTimeout,
		"BISTRO_APPROVE_DELAY":   &c.ApproveDelay,
		"BISTRO_DECLINE_DELAY":   &c.DeclineDelay,
	} {
		if err := dur(key, dst); err != nil {
			return err
		}
	}

	if v, ok := get("BISTRO_PAYMENT_CONCURRENCY"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: BISTRO_PAYMENT_CONCURRENCY: %w", err)
		}
		c.PaymentConcurrency = n
	}
	if v, ok := get("BISTRO_DELIVERY_DISTANCE"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: BISTRO_DELIVERY_DISTANCE: %w", err)
		}
		c.DeliveryDistance = f
	}
	return nil
}

func (c *Config) applyFlags(args []string) error {
	set := flag.NewFlagSet("bistro", flag.ContinueOnError)
	set.SetOutput(io.Discard)

	set.StringVar(&c.Port, "port", c.Port, "Port number")
	set.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	set.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format (json, console)")
	set.StringVar(&c.DataDir, "data-dir", c.DataDir, "Directory for the durable cart; empty keeps it in memory")
	set.DurationVar(&c.SessionTTL, "session-ttl", c.SessionTTL, "Lifetime of session data such as the order confirmation")
	set.DurationVar(&c.RequestTimeout, "request-timeout", c.RequestTimeout, "Per-request timeout")
	set.DurationVar(&c.ApproveDelay, "approve-delay", c.ApproveDelay, "Simulated payment approval latency")
	set.DurationVar(&c.DeclineDelay, "decline-delay", c.DeclineDelay, "Simulated payment decline latency")
	set.IntVar(&c.PaymentConcurrency, "payment-concurrency", c.PaymentConcurrency, "Authorizations processed at once (1-128)")
	set.Float64Var(&c.DeliveryDistance, "delivery-distance", c.DeliveryDistance, "Default delivery distance in miles")

	if err := set.Parse(args); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validatePort(c.Port); err != nil {
		return err
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.ApproveDelay < 0 || c.DeclineDelay < 0 {
		return fmt.Errorf("payment delays cannot be negative")
	}
	if c.PaymentConcurrency < 1 || c.PaymentConcurrency > 128 {
		return fmt.Errorf("payment concurrency must be between 1 and 128, got %d", c.PaymentConcurrency)
	}
	if c.DeliveryDistance < 0 {
		return fmt.Errorf("delivery distance cannot be negative, got %v", c.DeliveryDistance)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// Addr is the listen address.
func (c Config) Addr() string { return ":" + c.Port }

func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid port number '%s': must be a number", port)
	}
	if n < 1 || n > 65535 {
		return fmt.Errorf("port number %d is out of range: must be between 1 and 65535", n)
	}
	return nil
}
