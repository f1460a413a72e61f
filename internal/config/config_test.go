package config

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func env(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	c, err := FromEnv(env(nil))
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	want := Config{
		LogLevel:   zerolog.InfoLevel,
		LogFormat:  DefaultLogFormat,
		DBPath:     DefaultDBPath,
		Address:    DefaultAddress,
		MaxUpload:  DefaultMaxUpload,
		MaxDecoded: DefaultMaxDecoded,
	}
	if c != want {
		t.Errorf("FromEnv() = %+v, want %+v", c, want)
	}
}

func TestFromEnv(t *testing.T) {
	c, err := FromEnv(env(map[string]string{
		"VAULT_LOG_LEVEL":   "DEBUG",
		"VAULT_LOG_FORMAT":  "json",
		"VAULT_DB_PATH":     `"/tmp/replays.db"`,
		"VAULT_ADDRESS":     ":8080",
		"VAULT_MAX_UPLOAD":  "1024",
		"VAULT_MAX_DECODED": "4096",
	}))
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if c.LogLevel != zerolog.DebugLevel || c.LogFormat != "json" || c.DBPath != "/tmp/replays.db" ||
		c.Address != ":8080" || c.MaxUpload != 1024 || c.MaxDecoded != 4096 {
		t.Errorf("FromEnv() = %+v", c)
	}
}

func TestFromEnvInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"VAULT_LOG_LEVEL", "loud"},
		{"VAULT_LOG_FORMAT", "xml"},
		{"VAULT_MAX_UPLOAD", "-1"},
		{"VAULT_MAX_UPLOAD", "big"},
		{"VAULT_MAX_DECODED", "0"},
	}
	for _, tt := range tests {
		_, err := FromEnv(env(map[string]string{tt.key: tt.value}))
		if err == nil || !strings.Contains(err.Error(), tt.key) {
			t.Errorf("FromEnv(%s=%s) error = %v", tt.key, tt.value, err)
		}
	}
}

func TestSetupLogger(t *testing.T) {
	defer func(l zerolog.Logger, lvl zerolog.Level) {
		log.Logger = l
		zerolog.SetGlobalLevel(lvl)
	}(log.Logger, zerolog.GlobalLevel())

	var buf bytes.Buffer
	c := Config{LogLevel: zerolog.WarnLevel, LogFormat: "json"}
	c.SetupLogger(&buf)

	log.Info().Msg("hidden")
	log.Warn().Str("file", "a.rec").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"file":"a.rec"`) {
		t.Errorf("log output = %q", out)
	}
}
