// Package config loads server settings from defaults, an optional .env file, the environment and flags.
package config

import (
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/and161185/authsite/internal/errs"
)

// MinSecretKeyLen is the minimum decoded length of the session signing key.
const MinSecretKeyLen = 32

// Config holds everything cmd/server needs to start.
type Config struct {
	Addr string

	DatabaseURL      string
	DatabaseMaxConns int

	SecretKey             []byte
	SessionExpiration     time.Duration
	DeleteExpiredInterval time.Duration
	SecureCookie          bool

	HashWorkers     int
	ShutdownTimeout time.Duration
	Dev             bool
}

// Default returns the built-in settings. SecretKey and DatabaseURL have no default.
func Default() Config {
	return Config{
		Addr:                  ":3000",
		DatabaseMaxConns:      10,
		SessionExpiration:     24 * time.Hour,
		DeleteExpiredInterval: time.Minute,
		SecureCookie:          true,
		HashWorkers:           runtime.GOMAXPROCS(0),
		ShutdownTimeout:       10 * time.Second,
	}
}

// Load builds a Config. envFile may be empty; a missing file is skipped.
// Variables already set in the environment win over the file, flags win over both.
func Load(args []string, envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: read %s: %v", errs.ErrInvalidConfig, envFile, err)
		}
	}

	cfg := Default()
	if err := cfg.fromEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.fromFlags(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) fromEnv(lookup lookupFunc) error {
	var err error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || err != nil {
			return
		}
		n, perr := strconv.Atoi(v)
		if perr != nil {
			err = fmt.Errorf("%w: %s: %v", errs.ErrInvalidConfig, key, perr)
			return
		}
		*dst = n
	}
	dur := func(key string, unit time.Duration, dst *time.Duration) {
		var n int
		num(key, &n)
		if _, ok := lookup(key); ok && err == nil {
			*dst = time.Duration(n) * unit
		}
	}

	str("ADDR", &c.Addr)
	str("DATABASE_URL", &c.DatabaseURL)
	num("DATABASE_POOL_MAX_CONNECTIONS", &c.DatabaseMaxConns)
	dur("AUTH_SESSION_EXPIRATION_MINUTES", time.Minute, &c.SessionExpiration)
	dur("AUTH_DELETE_EXPIRED_SESSIONS_INTERVAL_SECONDS", time.Second, &c.DeleteExpiredInterval)
	num("HASH_WORKERS", &c.HashWorkers)
	if err != nil {
		return err
	}

	if v, ok := lookup("AUTH_SECRET_KEY"); ok {
		key, derr := decodeKey(v)
		if derr != nil {
			return derr
		}
		c.SecretKey = key
	}
	if v, ok := lookup("AUTH_SECURE_COOKIE"); ok {
		b, perr := strconv.ParseBool(v)
		if perr != nil {
			return fmt.Errorf("%w: AUTH_SECURE_COOKIE: %v", errs.ErrInvalidConfig, perr)
		}
		c.SecureCookie = b
	}
	if v, ok := lookup("SHUTDOWN_TIMEOUT"); ok {
		d, perr := time.ParseDuration(v)
		if perr != nil {
			return fmt.Errorf("%w: SHUTDOWN_TIMEOUT: %v", errs.ErrInvalidConfig, perr)
		}
		c.ShutdownTimeout = d
	}
	return nil
}

func (c *Config) fromFlags(args []string) error {
	fset := flag.NewFlagSet("server", flag.ContinueOnError)
	fset.StringVar(&c.Addr, "addr", c.Addr, "listen address")
	fset.StringVar(&c.DatabaseURL, "dsn", c.DatabaseURL, "PostgreSQL DSN")
	fset.IntVar(&c.DatabaseMaxConns, "db-max-conns", c.DatabaseMaxConns, "max pool connections")
	fset.DurationVar(&c.SessionExpiration, "session-ttl", c.SessionExpiration, "session inactivity expiration")
	fset.DurationVar(&c.DeleteExpiredInterval, "reap-interval", c.DeleteExpiredInterval, "expired session deletion interval")
	fset.BoolVar(&c.SecureCookie, "secure-cookie", c.SecureCookie, "set the Secure cookie attribute")
	fset.IntVar(&c.HashWorkers, "hash-workers", c.HashWorkers, "concurrent password hash computations")
	fset.DurationVar(&c.ShutdownTimeout, "shutdown-timeout", c.ShutdownTimeout, "graceful shutdown bound")
	fset.BoolVar(&c.Dev, "dev", c.Dev, "development logging")
	key := fset.String("secret-key", "", "base64 session signing key")

	if err := fset.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrInvalidConfig, err)
	}
	if *key != "" {
		k, err := decodeKey(*key)
		if err != nil {
			return err
		}
		c.SecretKey = k
	}
	return nil
}

func decodeKey(s string) ([]byte, error) {
	k, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: AUTH_SECRET_KEY is not valid base64: %v", errs.ErrInvalidConfig, err)
	}
	return k, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: empty listen address", errs.ErrInvalidConfig)
	case c.DatabaseURL == "":
		return fmt.Errorf("%w: DATABASE_URL is required", errs.ErrInvalidConfig)
	case c.DatabaseMaxConns <= 0:
		return fmt.Errorf("%w: DATABASE_POOL_MAX_CONNECTIONS must be positive", errs.ErrInvalidConfig)
	case len(c.SecretKey) < MinSecretKeyLen:
		return fmt.Errorf("%w: AUTH_SECRET_KEY must decode to at least %d bytes", errs.ErrInvalidConfig, MinSecretKeyLen)
	case c.SessionExpiration <= 0:
		return fmt.Errorf("%w: session expiration must be positive", errs.ErrInvalidConfig)
	case c.DeleteExpiredInterval <= 0:
		return fmt.Errorf("%w: delete interval must be positive", errs.ErrInvalidConfig)
	case c.HashWorkers <= 0:
		return fmt.Errorf("%w: HASH_WORKERS must be positive", errs.ErrInvalidConfig)
	case c.ShutdownTimeout <= 0:
		return fmt.Errorf("%w: shutdown timeout must be positive", errs.ErrInvalidConfig)
	}
	return nil
}
