// Package config manages gopppd daemon configuration using koanf/v2.
//
// Supports YAML files and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete gopppd configuration.
type Config struct {
	Control  ControlConfig   `koanf:"control"`
	Metrics  MetricsConfig   `koanf:"metrics"`
	Log      LogConfig       `koanf:"log"`
	PPP      PPPConfig       `koanf:"ppp"`
	Units    []UnitConfig    `koanf:"units"`
}

// ControlConfig holds the go-chi control-plane HTTP server configuration
// used by cmd/pppd and queried by cmd/pppctl.
type ControlConfig struct {
	// Addr is the control API listen address (e.g., "127.0.0.1:9292").
	Addr string `koanf:"addr"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	// Addr is the HTTP listen address for the metrics endpoint (e.g., ":9100").
	Addr string `koanf:"addr"`
	// Path is the URL path for the metrics endpoint (e.g., "/metrics").
	Path string `koanf:"path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// PPPConfig holds the daemon-wide layer engine parameters.
type PPPConfig struct {
	// MRU is the default maximum receive unit offered to new sessions
	// before LCP negotiates a smaller value.
	MRU int `koanf:"mru"`

	// UnitCacheSize bounds how many released kernel PPP units are kept
	// around for reuse by the next Session.Establish call. Zero disables
	// the cache. Live-reloadable via SIGHUP.
	UnitCacheSize int `koanf:"unit_cache_size"`

	// Verbose enables per-frame demux logging when greater than 0.
	// Visible to, and consumed by, every Session the daemon establishes
	// (see ppp.Session.SetVerbose); live-reloadable via SIGHUP.
	Verbose int `koanf:"verbose"`

	// Layers lists the layer names to register with the daemon's
	// LayerRegistry, in the order cmd/pppd should register them. Must be
	// a subset of {"lcp", "auth", "ccp", "ipcp", "ipv6cp"}.
	Layers []string `koanf:"layers"`
}

// UnitConfig describes a statically provisioned PPP unit from the
// configuration file. Each entry binds a named transport descriptor
// source to a session on daemon startup; SIGHUP reload does not add or
// remove units.
type UnitConfig struct {
	// ID is the session identifier under which the Manager tracks this
	// unit.
	ID string `koanf:"id"`

	// Transport names the external transport the daemon should open for
	// this unit's channel fd (e.g., a PTY path or a L2TP session tag).
	// Interpretation is owned by cmd/pppd, not by this package.
	Transport string `koanf:"transport"`

	// MRU overrides PPP.MRU for this unit only. Zero means "use the
	// daemon default".
	MRU int `koanf:"mru"`
}

// UnitKey returns a unique identifier for the unit, used by Validate to
// reject duplicate unit entries.
func (uc UnitConfig) UnitKey() string {
	return uc.ID + "|" + uc.Transport
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Control: ControlConfig{
			Addr: "127.0.0.1:9292",
		},
		Metrics: MetricsConfig{
			Addr: ":9100",
			Path: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		PPP: PPPConfig{
			MRU:           1500,
			UnitCacheSize: 4,
			Verbose:       0,
			Layers:        []string{"lcp", "auth", "ipcp", "ipv6cp"},
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for gopppd configuration.
// Variables are named GOPPPD_<section>_<key>, e.g., GOPPPD_CONTROL_ADDR.
const envPrefix = "GOPPPD_"

// Load reads configuration from a YAML file at path, overlays environment
// variable overrides (GOPPPD_ prefix), and merges on top of
// DefaultConfig(). Missing fields inherit defaults.
//
// Environment variable mapping:
//
//	GOPPPD_CONTROL_ADDR       -> control.addr
//	GOPPPD_METRICS_ADDR       -> metrics.addr
//	GOPPPD_METRICS_PATH       -> metrics.path
//	GOPPPD_LOG_LEVEL          -> log.level
//	GOPPPD_LOG_FORMAT         -> log.format
//	GOPPPD_PPP_MRU            -> ppp.mru
//	GOPPPD_PPP_UNIT_CACHE_SIZE -> ppp.unit_cache_size
//	GOPPPD_PPP_VERBOSE        -> ppp.verbose
//
// Uses koanf/v2 with file + env providers and YAML parser.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

// envKeyMapper transforms GOPPPD_PPP_UNIT_CACHE_SIZE -> ppp.unit_cache_size.
// Strips the GOPPPD_ prefix, lowercases, and replaces the first _ with .
// (section boundary) while leaving remaining underscores intact.
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	if i := strings.Index(s, "_"); i >= 0 {
		s = s[:i] + "." + s[i+1:]
	}
	return s
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"control.addr":         defaults.Control.Addr,
		"metrics.addr":         defaults.Metrics.Addr,
		"metrics.path":         defaults.Metrics.Path,
		"log.level":            defaults.Log.Level,
		"log.format":           defaults.Log.Format,
		"ppp.mru":              defaults.PPP.MRU,
		"ppp.unit_cache_size":  defaults.PPP.UnitCacheSize,
		"ppp.verbose":          defaults.PPP.Verbose,
		"ppp.layers":           defaults.PPP.Layers,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	// ErrEmptyControlAddr indicates the control API listen address is empty.
	ErrEmptyControlAddr = errors.New("control.addr must not be empty")

	// ErrInvalidMRU indicates ppp.mru is not a usable frame size.
	ErrInvalidMRU = errors.New("ppp.mru must be >= 64")

	// ErrNegativeUnitCacheSize indicates ppp.unit_cache_size is negative.
	ErrNegativeUnitCacheSize = errors.New("ppp.unit_cache_size must be >= 0")

	// ErrNegativeVerbose indicates ppp.verbose is negative.
	ErrNegativeVerbose = errors.New("ppp.verbose must be >= 0")

	// ErrUnknownLayerName indicates ppp.layers names a layer outside the
	// fixed tier vocabulary.
	ErrUnknownLayerName = errors.New("ppp.layers entry is not a recognized layer name")

	// ErrEmptyUnitID indicates a units[] entry has no id.
	ErrEmptyUnitID = errors.New("unit id must not be empty")

	// ErrDuplicateUnitKey indicates two units share the same (id, transport) key.
	ErrDuplicateUnitKey = errors.New("duplicate unit key")
)

// validLayerNames mirrors the fixed tier vocabulary in internal/ppp.
var validLayerNames = map[string]bool{
	"lcp": true, "auth": true, "ccp": true, "ipcp": true, "ipv6cp": true,
}

// Validate checks the configuration for logical errors.
// Returns the first validation error encountered.
func Validate(cfg *Config) error {
	if cfg.Control.Addr == "" {
		return ErrEmptyControlAddr
	}

	if cfg.PPP.MRU < 64 {
		return ErrInvalidMRU
	}

	if cfg.PPP.UnitCacheSize < 0 {
		return ErrNegativeUnitCacheSize
	}

	if cfg.PPP.Verbose < 0 {
		return ErrNegativeVerbose
	}

	for _, name := range cfg.PPP.Layers {
		if !validLayerNames[name] {
			return fmt.Errorf("ppp.layers %q: %w", name, ErrUnknownLayerName)
		}
	}

	if err := validateUnits(cfg.Units); err != nil {
		return err
	}

	return nil
}

// validateUnits checks each declarative unit entry for correctness.
func validateUnits(units []UnitConfig) error {
	seen := make(map[string]struct{}, len(units))

	for i, uc := range units {
		if uc.ID == "" {
			return fmt.Errorf("units[%d]: %w", i, ErrEmptyUnitID)
		}

		key := uc.UnitKey()
		if _, dup := seen[key]; dup {
			return fmt.Errorf("units[%d] key %q: %w", i, key, ErrDuplicateUnitKey)
		}
		seen[key] = struct{}{}
	}

	return nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
//
// Recognized values: "debug", "info", "warn", "error" (case-insensitive).
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
