// Package config loads the settings of the vault tools from the environment
// and configures the global logger.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Defaults of the environment variables.
const (
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "console"
	DefaultDBPath     = "vault.db"
	DefaultAddress    = "localhost:7089"
	DefaultMaxUpload  = 32 << 20
	DefaultMaxDecoded = 128 << 20
)

// envPaths are the .env locations tried in order; the first one found wins.
var envPaths = []string{".env", "../.env", "../../.env"}

// Config holds the settings shared by the vault subcommands.
type Config struct {
	LogLevel   zerolog.Level
	LogFormat  string // "console" or "json"
	DBPath     string
	Address    string
	MaxUpload  int64 // Largest accepted upload in bytes
	MaxDecoded int64 // Largest accepted replay after zstd decompression
}

// Load reads a .env file if there is one, then the VAULT_* variables.
// Variables already set in the environment take precedence over the file.
func Load() (Config, error) {
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			log.Debug().Str("path", path).Msg("loaded .env")
			break
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the lookup function getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	c := Config{
		LogFormat:  DefaultLogFormat,
		DBPath:     DefaultDBPath,
		Address:    DefaultAddress,
		MaxUpload:  DefaultMaxUpload,
		MaxDecoded: DefaultMaxDecoded,
	}

	level := value(getenv, "VAULT_LOG_LEVEL", DefaultLogLevel)
	var err error
	if c.LogLevel, err = zerolog.ParseLevel(strings.ToLower(level)); err != nil {
		return c, fmt.Errorf("VAULT_LOG_LEVEL: %w", err)
	}

	switch format := strings.ToLower(value(getenv, "VAULT_LOG_FORMAT", DefaultLogFormat)); format {
	case "console", "json":
		c.LogFormat = format
	default:
		return c, fmt.Errorf("VAULT_LOG_FORMAT: unknown format %q", format)
	}

	c.DBPath = value(getenv, "VAULT_DB_PATH", c.DBPath)
	c.Address = value(getenv, "VAULT_ADDRESS", c.Address)

	if c.MaxUpload, err = size(getenv, "VAULT_MAX_UPLOAD", c.MaxUpload); err != nil {
		return c, err
	}
	if c.MaxDecoded, err = size(getenv, "VAULT_MAX_DECODED", c.MaxDecoded); err != nil {
		return c, err
	}

	return c, nil
}

// size parses a positive byte count, or returns def if key is unset.
func size(getenv func(string) string, key string, def int64) (int64, error) {
	s := getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return def, fmt.Errorf("%s: invalid size %q", key, s)
	}
	return n, nil
}

// value returns the variable trimmed of quotes left by .env parsing, or def.
func value(getenv func(string) string, key, def string) string {
	v := strings.Trim(getenv(key), "\"")
	if v == "" {
		return def
	}
	return v
}

// SetupLogger points the global zerolog logger at w with the configured
// level and format.
func (c Config) SetupLogger(w io.Writer) {
	zerolog.SetGlobalLevel(c.LogLevel)

	if c.LogFormat == "json" {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
}
