// Package config provides the client's options. Values are resolved from
// defaults, an optional JSON or YAML file, MYCRAFT_* environment variables
// and command-line flags, later sources winning.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Token store kinds.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Options holds the configuration values for the client.
type Options struct {
	// BaseURL is the API root, e.g. http://localhost:8000/api.
	BaseURL string
	// TokenStore selects where the session token is kept: file, sqlite or memory.
	TokenStore string
	// TokenPath is the token file or SQLite database. Empty picks a default
	// under the user config directory.
	TokenPath      string
	PollInterval   time.Duration
	ToastDuration  time.Duration
	RequestTimeout time.Duration
	LogLevel       string
	// MetricsAddr exposes Prometheus metrics when set (e.g. 127.0.0.1:9100).
	MetricsAddr string
	// Config is the path to the config file.
	Config string
}

// fileOptions is the on-disk shape. Durations are strings like "5s".
type fileOptions struct {
	BaseURL        string `json:"api_url" yaml:"api_url"`
	TokenStore     string `json:"token_store" yaml:"token_store"`
	TokenPath      string `json:"token_path" yaml:"token_path"`
	PollInterval   string `json:"poll_interval" yaml:"poll_interval"`
	ToastDuration  string `json:"toast_duration" yaml:"toast_duration"`
	RequestTimeout string `json:"request_timeout" yaml:"request_timeout"`
	LogLevel       string `json:"log_level" yaml:"log_level"`
	MetricsAddr    string `json:"metrics_addr" yaml:"metrics_addr"`
}

// Default returns the built-in defaults.
func Default() *Options {
	return &Options{
		BaseURL:        "http://localhost:8000/api",
		TokenStore:     StoreFile,
		PollInterval:   5 * time.Second,
		ToastDuration:  3 * time.Second,
		RequestTimeout: 10 * time.Second,
		LogLevel:       "warn",
	}
}

// RegisterFlags binds the options to fs with the current values as defaults.
func (o *Options) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.BaseURL, "api-url", "a", o.BaseURL, "MyCraft API base URL")
	fs.StringVar(&o.TokenStore, "token-store", o.TokenStore, "token storage: file, sqlite or memory")
	fs.StringVar(&o.TokenPath, "token-path", o.TokenPath, "token file or database path")
	fs.DurationVar(&o.PollInterval, "poll-interval", o.PollInterval, "chat synchronization interval")
	fs.DurationVar(&o.ToastDuration, "toast-duration", o.ToastDuration, "how long notifications stay")
	fs.DurationVar(&o.RequestTimeout, "timeout", o.RequestTimeout, "HTTP request timeout")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&o.MetricsAddr, "metrics-addr", o.MetricsAddr, "serve Prometheus metrics on this address")
	fs.StringVarP(&o.Config, "config", "c", o.Config, "path to config file (JSON or YAML)")
}

// LoadDotEnv loads .env files into the environment without overriding
// variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Resolve fills o from defaults, the config file, the environment and the
// flags of fs that were set explicitly, in that order. fs may be nil.
func (o *Options) Resolve(fs *pflag.FlagSet, getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	flagged := *o
	changed := func(name string) bool { return fs != nil && fs.Changed(name) }

	*o = *Default()

	o.Config = getenv("CONFIG")
	if changed("config") {
		o.Config = flagged.Config
	}
	if o.Config != "" {
		if err := o.loadFile(o.Config); err != nil {
			return err
		}
	}

	if err := o.applyEnv(getenv); err != nil {
		return err
	}

	overrides := map[string]func(){
		"api-url":        func() { o.BaseURL = flagged.BaseURL },
		"token-store":    func() { o.TokenStore = flagged.TokenStore },
		"token-path":     func() { o.TokenPath = flagged.TokenPath },
		"poll-interval":  func() { o.PollInterval = flagged.PollInterval },
		"toast-duration": func() { o.ToastDuration = flagged.ToastDuration },
		"timeout":        func() { o.RequestTimeout = flagged.RequestTimeout },
		"log-level":      func() { o.LogLevel = flagged.LogLevel },
		"metrics-addr":   func() { o.MetricsAddr = flagged.MetricsAddr },
	}
	for name, apply := range overrides {
		if changed(name) {
			apply()
		}
	}

	if o.TokenPath == "" {
		o.TokenPath = DefaultTokenPath(o.TokenStore)
	}
	return o.Validate()
}

func (o *Options) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fo fileOptions
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fo)
	default:
		err = json.Unmarshal(data, &fo)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&o.BaseURL, fo.BaseURL)
	setString(&o.TokenStore, fo.TokenStore)
	setString(&o.TokenPath, fo.TokenPath)
	setString(&o.LogLevel, fo.LogLevel)
	setString(&o.MetricsAddr, fo.MetricsAddr)
	for _, d := range []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"poll_interval", fo.PollInterval, &o.PollInterval},
		{"toast_duration", fo.ToastDuration, &o.ToastDuration},
		{"request_timeout", fo.RequestTimeout, &o.RequestTimeout},
	} {
		if err := setDuration(d.dst, d.raw); err != nil {
			return fmt.Errorf("config file %s: %s: %w", path, d.key, err)
		}
	}
	return nil
}

func (o *Options) applyEnv(getenv func(string) string) error {
	setString(&o.BaseURL, getenv("MYCRAFT_API_URL"))
	setString(&o.TokenStore, getenv("MYCRAFT_TOKEN_STORE"))
	setString(&o.TokenPath, getenv("MYCRAFT_TOKEN_PATH"))
	setString(&o.LogLevel, getenv("MYCRAFT_LOG_LEVEL"))
	setString(&o.MetricsAddr, getenv("MYCRAFT_METRICS_ADDR"))
	if err := setDuration(&o.PollInterval, getenv("MYCRAFT_POLL_INTERVAL")); err != nil {
		return fmt.Errorf("MYCRAFT_POLL_INTERVAL: %w", err)
	}
	if err := setDuration(&o.RequestTimeout, getenv("MYCRAFT_TIMEOUT")); err != nil {
		return fmt.Errorf("MYCRAFT_TIMEOUT: %w", err)
	}
	return nil
}

// Validate reports the first invalid option.
func (o *Options) Validate() error {
	u, err := url.Parse(o.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api url %q", o.BaseURL)
	}
	switch o.TokenStore {
	case StoreFile, StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("invalid token store %q: want file, sqlite or memory", o.TokenStore)
	}
	if o.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", o.PollInterval)
	}
	if o.ToastDuration <= 0 {
		return fmt.Errorf("toast duration must be positive, got %s", o.ToastDuration)
	}
	if o.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", o.RequestTimeout)
	}
	return nil
}

// DefaultTokenPath is where a store of the given kind keeps the token when
// no path is configured.
func DefaultTokenPath(store string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	switch store {
	case StoreSQLite:
		return filepath.Join(dir, "mycraft", "mycraft.db")
	case StoreMemory:
		return ""
	default:
		return filepath.Join(dir, "mycraft", "token.json")
	}
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
