// Package config holds the backend's runtime configuration. All knobs
// are supplied externally (environment variables over defaults) and
// validated once at startup; nothing downstream re-defaults them.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the full configuration surface.
//
// Thread Safety: safe to read concurrently, not safe to modify after
// Load.
type Config struct {
	// Addr is the listen address for the HTTP/websocket server.
	Addr string `validate:"required"`

	// DebounceQuiet is the watcher quiet period: a change burst settles
	// once no event arrives for this long.
	DebounceQuiet time.Duration `validate:"gt=0"`

	// IdleTimeout is how long a subscriber may be silent before the
	// reaper disconnects it.
	IdleTimeout time.Duration `validate:"gt=0"`

	// ReapInterval is how often the idle reaper wakes.
	ReapInterval time.Duration `validate:"gt=0"`

	// CommandTimeout is the default deadline for host commands.
	CommandTimeout time.Duration `validate:"gt=0"`

	// PendingCap bounds the set of changed files awaiting a settle.
	PendingCap int `validate:"gt=0"`

	// SessionTTL is the delta-session snapshot lifetime.
	SessionTTL time.Duration `validate:"gt=0"`

	// SessionCap is the hard limit on concurrent delta sessions.
	SessionCap int `validate:"gt=0"`

	// DispatchQueue is the dispatcher's task buffer depth.
	DispatchQueue int `validate:"gt=0"`

	// WatchExtensions are the file suffixes the file watcher reindexes.
	WatchExtensions []string `validate:"min=1,dive,startswith=."`

	// IgnoreDirs are path segments the file watcher skips entirely.
	IgnoreDirs []string `validate:"min=1"`

	// Debug enables verbose logging and gin debug mode.
	Debug bool
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Addr:            "127.0.0.1:8005",
		DebounceQuiet:   500 * time.Millisecond,
		IdleTimeout:     300 * time.Second,
		ReapInterval:    30 * time.Second,
		CommandTimeout:  10 * time.Second,
		PendingCap:      1000,
		SessionTTL:      300 * time.Second,
		SessionCap:      1000,
		DispatchQueue:   256,
		WatchExtensions: []string{".gd", ".cs", ".cpp", ".h", ".hpp", ".tscn", ".tres"},
		IgnoreDirs:      []string{".git", "addons", ".godot", ".import", "node_modules"},
	}
}

// Load builds the configuration from defaults plus SCENEMINDS_*
// environment overrides, then validates it.
func Load() (Config, error) {
	cfg := Default()

	if v := os.Getenv("SCENEMINDS_ADDR"); v != "" {
		cfg.Addr = v
	}
	if err := durationEnv("SCENEMINDS_DEBOUNCE_QUIET", &cfg.DebounceQuiet); err != nil {
		return Config{}, err
	}
	if err := durationEnv("SCENEMINDS_IDLE_TIMEOUT", &cfg.IdleTimeout); err != nil {
		return Config{}, err
	}
	if err := durationEnv("SCENEMINDS_REAP_INTERVAL", &cfg.ReapInterval); err != nil {
		return Config{}, err
	}
	if err := durationEnv("SCENEMINDS_COMMAND_TIMEOUT", &cfg.CommandTimeout); err != nil {
		return Config{}, err
	}
	if err := durationEnv("SCENEMINDS_SESSION_TTL", &cfg.SessionTTL); err != nil {
		return Config{}, err
	}
	if err := intEnv("SCENEMINDS_PENDING_CAP", &cfg.PendingCap); err != nil {
		return Config{}, err
	}
	if err := intEnv("SCENEMINDS_SESSION_CAP", &cfg.SessionCap); err != nil {
		return Config{}, err
	}
	if err := intEnv("SCENEMINDS_DISPATCH_QUEUE", &cfg.DispatchQueue); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("SCENEMINDS_WATCH_EXTENSIONS"); v != "" {
		cfg.WatchExtensions = splitList(v)
	}
	if v := os.Getenv("SCENEMINDS_IGNORE_DIRS"); v != "" {
		cfg.IgnoreDirs = splitList(v)
	}
	if v := os.Getenv("SCENEMINDS_DEBUG"); v != "" {
		cfg.Debug = v == "1" || strings.EqualFold(v, "true")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration's structural constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func durationEnv(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func intEnv(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
