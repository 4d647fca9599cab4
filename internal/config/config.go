// Package config loads reconciler settings: defaults first, then a YAML
// file, then RECON_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"trade-reconciler/internal/index"
	"trade-reconciler/internal/matching"
	"trade-reconciler/internal/reconcile"
	"trade-reconciler/internal/timenorm"
)

// Environment overrides.
const (
	EnvPostgresDSN   = "RECON_POSTGRES_DSN"
	EnvClickhouseDSN = "RECON_CLICKHOUSE_DSN"
	EnvLogLevel      = "RECON_LOG_LEVEL"
	EnvHourOffset    = "RECON_HOUR_OFFSET"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the complete reconciler configuration.
type Config struct {
	Matching MatchingConfig           `yaml:"matching"`
	Time     TimeConfig               `yaml:"time"`
	Quality  reconcile.QualityWeights `yaml:"quality"`
	Profit   reconcile.ProfitTiers    `yaml:"profit"`
	Run      RunConfig                `yaml:"run"`
	Storage  StorageConfig            `yaml:"storage"`
	Log      LogConfig                `yaml:"log"`
}

// MatchingConfig holds identity matching and dedup thresholds.
type MatchingConfig struct {
	FallbackWindowMs      int64   `yaml:"fallback_window_ms"`
	PriceTolerance        float64 `yaml:"price_tolerance"`
	DedupWindowMs         int64   `yaml:"dedup_window_ms"`
	SignalLookbackMinutes int     `yaml:"signal_lookback_minutes"`
}

// TimeConfig holds the hour offset and session windows.
type TimeConfig struct {
	HourOffset int             `yaml:"hour_offset"`
	Sessions   []SessionConfig `yaml:"sessions"`
}

// SessionConfig is a session window with "HH:MM" bounds, end exclusive.
type SessionConfig struct {
	Name  string `yaml:"name"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// RunConfig holds run execution settings.
type RunConfig struct {
	Workers   int    `yaml:"workers"`
	OutputDir string `yaml:"output_dir"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend       string `yaml:"backend"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"` // optional analytics copy
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the production defaults.
func Default() Config {
	sessions := make([]SessionConfig, 0, len(timenorm.DefaultSessions))
	for _, w := range timenorm.DefaultSessions {
		sessions = append(sessions, SessionConfig{
			Name:  w.Name,
			Start: formatClock(w.Start),
			End:   formatClock(w.End),
		})
	}

	return Config{
		Matching: MatchingConfig{
			FallbackWindowMs:      matching.DefaultFallbackWindow.Milliseconds(),
			PriceTolerance:        matching.DefaultPriceTolerance,
			DedupWindowMs:         index.DefaultDedupWindow.Milliseconds(),
			SignalLookbackMinutes: int(matching.DefaultSignalLookback / time.Minute),
		},
		Time: TimeConfig{
			HourOffset: timenorm.DefaultHourOffset,
			Sessions:   sessions,
		},
		Quality: reconcile.DefaultQualityWeights(),
		Profit:  reconcile.DefaultProfitTiers(),
		Run: RunConfig{
			Workers:   1,
			OutputDir: "reports",
		},
		Storage: StorageConfig{Backend: BackendMemory},
		Log:     LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads path over the defaults (an empty path skips the file), loads a
// .env file from the working directory when present, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// A missing .env is normal; existing variables are not overridden.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvPostgresDSN); v != "" {
		c.Storage.PostgresDSN = v
		c.Storage.Backend = BackendPostgres
	}
	if v := os.Getenv(EnvClickhouseDSN); v != "" {
		c.Storage.ClickhouseDSN = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvHourOffset); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, EnvHourOffset, v, err)
		}
		c.Time.HourOffset = offset
	}
	return nil
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	m := c.Matching
	switch {
	case m.FallbackWindowMs < 0:
		return fmt.Errorf("%w: matching.fallback_window_ms must not be negative", ErrInvalidConfig)
	case m.DedupWindowMs < 0:
		return fmt.Errorf("%w: matching.dedup_window_ms must not be negative", ErrInvalidConfig)
	case m.SignalLookbackMinutes < 0:
		return fmt.Errorf("%w: matching.signal_lookback_minutes must not be negative", ErrInvalidConfig)
	case m.PriceTolerance <= 0:
		return fmt.Errorf("%w: matching.price_tolerance must be positive", ErrInvalidConfig)
	}

	if c.Time.HourOffset < -23 || c.Time.HourOffset > 23 {
		return fmt.Errorf("%w: time.hour_offset %d out of range", ErrInvalidConfig, c.Time.HourOffset)
	}
	if _, err := c.sessionWindows(); err != nil {
		return err
	}

	p := c.Profit
	if p.ExactMatch < 0 || p.CloseMatch < p.ExactMatch || p.AcceptablePct < 0 {
		return fmt.Errorf("%w: profit tiers must be non-negative and ordered", ErrInvalidConfig)
	}
	q := c.Quality
	if q.NoStrategyEntry < 0 || q.NoStrategyExit < 0 || q.NoEntrySignal < 0 ||
		q.NoExitSignal < 0 || q.Critical < 0 || q.Warning < 0 {
		return fmt.Errorf("%w: quality weights must not be negative", ErrInvalidConfig)
	}

	if c.Run.Workers < 1 {
		return fmt.Errorf("%w: run.workers must be at least 1", ErrInvalidConfig)
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("%w: storage.postgres_dsn is required for the postgres backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage.backend %q", ErrInvalidConfig, c.Storage.Backend)
	}
	return nil
}

// Engine converts the configuration into engine parameters.
func (c Config) Engine() (reconcile.Config, error) {
	sessions, err := c.sessionWindows()
	if err != nil {
		return reconcile.Config{}, err
	}
	return reconcile.Config{
		HourOffset: c.Time.HourOffset,
		Sessions:   sessions,
		Thresholds: matching.Thresholds{
			FallbackWindow: time.Duration(c.Matching.FallbackWindowMs) * time.Millisecond,
			PriceTolerance: c.Matching.PriceTolerance,
			SignalLookback: time.Duration(c.Matching.SignalLookbackMinutes) * time.Minute,
		},
		DedupWindow: time.Duration(c.Matching.DedupWindowMs) * time.Millisecond,
		Quality:     c.Quality,
		Profit:      c.Profit,
		Workers:     c.Run.Workers,
	}, nil
}

func (c Config) sessionWindows() ([]timenorm.SessionWindow, error) {
	windows := make([]timenorm.SessionWindow, 0, len(c.Time.Sessions))
	for _, s := range c.Time.Sessions {
		start, err := parseClock(s.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: session %s start: %v", ErrInvalidConfig, s.Name, err)
		}
		end, err := parseClock(s.End)
		if err != nil {
			return nil, fmt.Errorf("%w: session %s end: %v", ErrInvalidConfig, s.Name, err)
		}
		windows = append(windows, timenorm.SessionWindow{Name: s.Name, Start: start, End: end})
	}
	if err := timenorm.ValidateSessions(windows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return windows, nil
}

// parseClock converts "HH:MM" to minutes of day; "24:00" is accepted as an end bound.
func parseClock(s string) (int, error) {
	if s == "24:00" {
		return 24 * 60, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("want HH:MM, got %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
