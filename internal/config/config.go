// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"firestige.xyz/framepeek/internal/core"
)

// GlobalConfig represents the top-level configuration.
// Maps to the `framepeek:` root key in YAML.
type GlobalConfig struct {
	Log       LogConfig                 `mapstructure:"log"`
	Preview   PreviewConfig             `mapstructure:"preview"`
	Decode    DecodeConfig              `mapstructure:"decode"`
	Metrics   MetricsConfig             `mapstructure:"metrics"`
	Reporters map[string]map[string]any `mapstructure:"reporters"` // Per-reporter options, keyed by reporter name
}

// ─── Log ───

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string           `mapstructure:"level"`  // debug / info / warn / error
	Format  string           `mapstructure:"format"` // json / text
	Outputs LogOutputsConfig `mapstructure:"outputs"`
}

// LogOutputsConfig contains structured log output destinations.
type LogOutputsConfig struct {
	File FileOutputConfig `mapstructure:"file"`
}

// FileOutputConfig configures file log output.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Path     string         `mapstructure:"path"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups"`
	Compress   bool `mapstructure:"compress"`
}

// ─── Preview ───

// PreviewConfig controls the hex preview attached to every record.
type PreviewConfig struct {
	MaxBytes int `mapstructure:"max_bytes"`
}

// ─── Decode ───

// DecodeConfig holds defaults for the decode command. Flags override them.
type DecodeConfig struct {
	Output     string `mapstructure:"output"`      // text / json / yaml / protobuf
	Filter     string `mapstructure:"filter"`      // tcpdump expression, empty = all frames
	SnapLen    int    `mapstructure:"snaplen"`     // Used when compiling the filter
	BufferSize int    `mapstructure:"buffer_size"` // Capture -> decode channel capacity
}

// ─── Metrics ───

// MetricsConfig configures the Prometheus endpoint served while decoding.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
}

// Output formats understood by reporters.
var validOutputs = map[string]bool{"text": true, "json": true, "yaml": true, "protobuf": true}

// ─── Loading ───

// configRoot is the top-level wrapper matching the YAML structure `framepeek: ...`.
type configRoot struct {
	Framepeek GlobalConfig `mapstructure:"framepeek"`
}

// Load loads configuration from file. An empty path loads defaults and
// environment overrides only.
// Env vars map through the key replacer, e.g. FRAMEPEEK_LOG_LEVEL.
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Framepeek

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration.
// All keys use the "framepeek." prefix to match the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("framepeek.log.level", "info")
	v.SetDefault("framepeek.log.format", "text")
	v.SetDefault("framepeek.log.outputs.file.enabled", false)
	v.SetDefault("framepeek.log.outputs.file.path", "/var/log/framepeek/framepeek.log")
	v.SetDefault("framepeek.log.outputs.file.rotation.max_size_mb", 100)
	v.SetDefault("framepeek.log.outputs.file.rotation.max_age_days", 30)
	v.SetDefault("framepeek.log.outputs.file.rotation.max_backups", 5)
	v.SetDefault("framepeek.log.outputs.file.rotation.compress", true)

	// Preview defaults
	v.SetDefault("framepeek.preview.max_bytes", 64)

	// Decode defaults
	v.SetDefault("framepeek.decode.output", "text")
	v.SetDefault("framepeek.decode.filter", "")
	v.SetDefault("framepeek.decode.snaplen", 65535)
	v.SetDefault("framepeek.decode.buffer_size", 1024)

	// Metrics defaults
	v.SetDefault("framepeek.metrics.enabled", false)
	v.SetDefault("framepeek.metrics.addr", ":9091")
	v.SetDefault("framepeek.metrics.path", "/metrics")
}

// ValidateAndApplyDefaults validates configuration and applies runtime defaults.
func (cfg *GlobalConfig) ValidateAndApplyDefaults() error {
	// ── Log validation ──
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("%w: log level %q (must be debug/info/warn/error)", core.ErrConfigInvalid, cfg.Log.Level)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("%w: log format %q (must be json/text)", core.ErrConfigInvalid, cfg.Log.Format)
	}
	if cfg.Log.Outputs.File.Enabled && cfg.Log.Outputs.File.Path == "" {
		return fmt.Errorf("%w: log.outputs.file.path is required when file output is enabled", core.ErrConfigInvalid)
	}

	// ── Preview ──
	if cfg.Preview.MaxBytes < 0 {
		return fmt.Errorf("%w: preview.max_bytes %d must not be negative", core.ErrConfigInvalid, cfg.Preview.MaxBytes)
	}

	// ── Decode ──
	cfg.Decode.Output = strings.ToLower(cfg.Decode.Output)
	if !validOutputs[cfg.Decode.Output] {
		return fmt.Errorf("%w: decode.output %q (must be text/json/yaml/protobuf)", core.ErrConfigInvalid, cfg.Decode.Output)
	}
	if cfg.Decode.SnapLen <= 0 {
		return fmt.Errorf("%w: decode.snaplen %d must be positive", core.ErrConfigInvalid, cfg.Decode.SnapLen)
	}
	if cfg.Decode.BufferSize <= 0 {
		return fmt.Errorf("%w: decode.buffer_size %d must be positive", core.ErrConfigInvalid, cfg.Decode.BufferSize)
	}

	// ── Metrics ──
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		return fmt.Errorf("%w: metrics.addr is required when metrics are enabled", core.ErrConfigInvalid)
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("%w: metrics.path %q must start with /", core.ErrConfigInvalid, cfg.Metrics.Path)
	}

	if cfg.Reporters == nil {
		cfg.Reporters = map[string]map[string]any{}
	}

	return nil
}

// ValidOutput reports whether name is a known output format.
func ValidOutput(name string) bool {
	return validOutputs[strings.ToLower(name)]
}

// ReporterOptions returns the configured options for a reporter, never nil.
func (cfg *GlobalConfig) ReporterOptions(name string) map[string]any {
	if opts, ok := cfg.Reporters[name]; ok && opts != nil {
		return opts
	}
	return map[string]any{}
}
