// Package config loads BarCut configuration from a file, environment
// variables and built-in defaults.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/piwi3910/BarCut/internal/model"
)

// EnvPrefix prefixes every environment override, e.g. BARCUT_SOLVER_STRATEGY.
const EnvPrefix = "BARCUT"

type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Server  ServerConfig  `mapstructure:"server"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Solver  SolverConfig  `mapstructure:"solver"`
	Output  OutputConfig  `mapstructure:"output"`
	GCode   GCodeConfig   `mapstructure:"gcode"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"       validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format"      validate:"oneof=json text"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"    validate:"gte=0"` // MB
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAge     int    `mapstructure:"max_age"     validate:"gte=0"` // days
	Compress   bool   `mapstructure:"compress"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"             validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"     validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"    validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"   validate:"gt=0"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required,startswith=/"`
}

type SolverConfig struct {
	Strategy    string        `mapstructure:"strategy"     validate:"oneof=ip greedy divisor"`
	TimeLimit   time.Duration `mapstructure:"time_limit"   validate:"gt=0"`
	NodeLimit   int           `mapstructure:"node_limit"   validate:"gt=0"`
	Workers     int           `mapstructure:"workers"      validate:"gte=1,lte=256"`
	MaxPatterns int           `mapstructure:"max_patterns" validate:"gt=0"`
	Tolerance   float64       `mapstructure:"tolerance"    validate:"gt=0,lt=1"`
}

type OutputConfig struct {
	Unit      string  `mapstructure:"unit"       validate:"required"`
	MinOffcut float64 `mapstructure:"min_offcut" validate:"gte=0"`
	Warehouse string  `mapstructure:"warehouse"` // empty means ~/.barcut/warehouse.json
}

type GCodeConfig struct {
	Profile      string  `mapstructure:"profile"       validate:"required"`
	Profiles     string  `mapstructure:"profiles"` // custom profile file
	FeedRate     float64 `mapstructure:"feed_rate"     validate:"gt=0"`
	SafeZ        float64 `mapstructure:"safe_z"        validate:"gt=0"`
	BladeDepth   float64 `mapstructure:"blade_depth"   validate:"gt=0"`
	SpindleSpeed int     `mapstructure:"spindle_speed" validate:"gte=0"`
	UnitScale    float64 `mapstructure:"unit_scale"    validate:"gt=0"`
}

// Settings converts the solver, output and gcode sections into engine settings.
func (c *Config) Settings() model.Settings {
	return model.Settings{
		Strategy:    model.Strategy(c.Solver.Strategy),
		TimeLimit:   c.Solver.TimeLimit,
		NodeLimit:   c.Solver.NodeLimit,
		Tolerance:   c.Solver.Tolerance,
		Workers:     c.Solver.Workers,
		MaxPatterns: c.Solver.MaxPatterns,
		Unit:        c.Output.Unit,
		MinOffcut:   decimal.NewFromFloat(c.Output.MinOffcut),
		Saw: model.SawSettings{
			Profile:      c.GCode.Profile,
			FeedRate:     c.GCode.FeedRate,
			SafeZ:        c.GCode.SafeZ,
			BladeDepth:   c.GCode.BladeDepth,
			SpindleSpeed: c.GCode.SpindleSpeed,
			UnitScale:    c.GCode.UnitScale,
		},
	}
}

// setDefaults registers every key, which also lets AutomaticEnv see keys that
// no file sets.
func setDefaults(v *viper.Viper) {
	d := model.DefaultSettings()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", false)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", d.TimeLimit+15*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.max_body_bytes", int64(1<<20))

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("solver.strategy", string(d.Strategy))
	v.SetDefault("solver.time_limit", d.TimeLimit)
	v.SetDefault("solver.node_limit", d.NodeLimit)
	v.SetDefault("solver.workers", d.Workers)
	v.SetDefault("solver.max_patterns", d.MaxPatterns)
	v.SetDefault("solver.tolerance", d.Tolerance)

	minOffcut, _ := d.MinOffcut.Float64()
	v.SetDefault("output.unit", d.Unit)
	v.SetDefault("output.min_offcut", minOffcut)
	v.SetDefault("output.warehouse", "")

	v.SetDefault("gcode.profile", d.Saw.Profile)
	v.SetDefault("gcode.profiles", "")
	v.SetDefault("gcode.feed_rate", d.Saw.FeedRate)
	v.SetDefault("gcode.safe_z", d.Saw.SafeZ)
	v.SetDefault("gcode.blade_depth", d.Saw.BladeDepth)
	v.SetDefault("gcode.spindle_speed", d.Saw.SpindleSpeed)
	v.SetDefault("gcode.unit_scale", d.Saw.UnitScale)
}

// Loader reads and validates configuration and can watch the file for
// changes.
type Loader struct {
	v        *viper.Viper
	validate *validator.Validate
	logger   *slog.Logger

	mu      sync.RWMutex
	current *Config
}

// NewLoader returns a loader with defaults and environment overrides in
// place. A nil logger discards reload messages.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v, validate: validator.New(), logger: logger}
}

// Load reads path, whose format follows its extension (toml, yaml, json).
// An empty path uses defaults and environment variables only.
func (l *Loader) Load(path string) (*Config, error) {
	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	cfg, err := l.decode()
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.current = cfg
	l.mu.Unlock()
	return cfg, nil
}

func (l *Loader) decode() (*Config, error) {
	cfg := new(Config)
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := l.validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Current returns the last configuration that loaded and validated.
func (l *Loader) Current() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Watch reloads the file on every change and calls onChange with the new
// configuration. An invalid file is logged and the previous configuration
// stays current. Watch must follow a Load with a non-empty path.
func (l *Loader) Watch(onChange func(*Config)) {
	l.v.OnConfigChange(func(event fsnotify.Event) {
		l.logger.Info("config file changed", "file", event.Name)
		cfg, err := l.decode()
		if err != nil {
			l.logger.Error("config reload rejected", "error", err)
			return
		}
		l.mu.Lock()
		l.current = cfg
		l.mu.Unlock()
		l.logger.Info("config reloaded", "log_level", cfg.Log.Level)
		if onChange != nil {
			onChange(cfg)
		}
	})
	l.v.WatchConfig()
}

// Load is a shortcut for NewLoader(nil).Load(path).
func Load(path string) (*Config, error) {
	return NewLoader(nil).Load(path)
}
