package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Backend struct {
		URL             string `yaml:"url"`
		Token           string `yaml:"token"`
		Timeout         string `yaml:"timeout"`
		RecheckInterval string `yaml:"recheck_interval"`
		MaxRecheck      string `yaml:"max_recheck_interval"`
	} `yaml:"backend"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Questions struct {
		// Source is one of remote, postgres or builtin; empty picks the first configured.
		Source string `yaml:"source"`
	} `yaml:"questions"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return fallback
}

// QuestionSource resolves which question source to use.
func (c Config) QuestionSource() string {
	switch strings.ToLower(c.Questions.Source) {
	case "remote", "postgres", "builtin":
		return strings.ToLower(c.Questions.Source)
	}
	switch {
	case c.Backend.URL != "":
		return "remote"
	case c.Postgres.URL != "":
		return "postgres"
	}
	return "builtin"
}

// NewLogger builds the process logger from the logging section.
func (c Config) NewLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(c.Logging.Format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
