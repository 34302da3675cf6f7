package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/vango-dev/statesvc/internal/errors"
	"github.com/vango-dev/statesvc/pkg/render"
	"github.com/vango-dev/statesvc/pkg/statesvc"
)

const (
	// ConfigName is the base name of the configuration file.
	ConfigName = "statesvc"

	// ConfigFileName is the file written by SaveTo when no path is known.
	ConfigFileName = ConfigName + ".json"

	// EnvPrefix prefixes environment overrides, e.g. STATESVC_EVICTION.
	EnvPrefix = "STATESVC"

	// DefaultEviction is the default eviction policy.
	DefaultEviction = "refcount"

	// DefaultMetricsNamespace is the default Prometheus namespace.
	DefaultMetricsNamespace = "statesvc"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"
)

// configExts are the file formats Load looks for, in order.
var configExts = []string{"json", "yaml", "yml", "toml"}

// Config is the statesvc runtime configuration.
type Config struct {
	// Eviction is the store eviction policy: "refcount" or "reset".
	Eviction string `json:"eviction,omitempty" mapstructure:"eviction"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`

	// Render contains render pipeline settings.
	Render RenderConfig `json:"render" mapstructure:"render"`

	// Log contains logging settings.
	Log LogConfig `json:"log" mapstructure:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled registers store metrics with the default registry.
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty" mapstructure:"namespace"`
}

// RenderConfig contains render pipeline settings.
type RenderConfig struct {
	// Doctype is prefixed to every rendered document.
	Doctype string `json:"doctype,omitempty" mapstructure:"doctype"`

	// PayloadVar is the global the bootstrap script assigns props to.
	PayloadVar string `json:"payloadVar,omitempty" mapstructure:"payloadVar"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" mapstructure:"level"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Eviction: DefaultEviction,
		Metrics: MetricsConfig{
			Enabled:   false,
			Namespace: DefaultMetricsNamespace,
		},
		Render: RenderConfig{
			Doctype:    render.DefaultDoctype,
			PayloadVar: render.DefaultPayloadVar,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// newViper returns a viper instance seeded with defaults and wired to
// STATESVC_* environment overrides.
func newViper() *viper.Viper {
	v := viper.New()

	defaults := New()
	v.SetDefault("eviction", defaults.Eviction)
	v.SetDefault("metrics.enabled", defaults.Metrics.Enabled)
	v.SetDefault("metrics.namespace", defaults.Metrics.Namespace)
	v.SetDefault("render.doctype", defaults.Render.Doctype)
	v.SetDefault("render.payloadVar", defaults.Render.PayloadVar)
	v.SetDefault("log.level", defaults.Log.Level)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration from the specified directory.
// It looks for statesvc.json, .yaml, .yml or .toml in the directory.
func Load(dir string) (*Config, error) {
	path, ok := find(dir)
	if !ok {
		return nil, errors.New("E141").
			WithDetail("No statesvc.{json,yaml,toml} found in " + dir).
			WithSuggestion("Run 'statesvc config init' to write a default configuration")
	}
	return LoadFile(path)
}

// LoadFile reads configuration from the specified file path.
// Environment variables override values from the file.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E141").
				WithDetail("No config file at " + path)
		}
		return nil, errors.New("E120").Wrap(err)
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse " + path + ": " + err.Error()).
			WithSuggestion("Check the file syntax matches its extension")
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	cfg.configPath = path
	return cfg, nil
}

// Resolve loads path when set, otherwise the config in dir if one exists,
// otherwise the defaults. Environment overrides apply in every case.
func Resolve(path, dir string) (*Config, error) {
	if path != "" {
		return LoadFile(path)
	}
	if found, ok := find(dir); ok {
		return LoadFile(found)
	}
	return decode(newViper())
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := New()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.New("E120").Wrap(err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// find returns the first config file present in dir.
func find(dir string) (string, bool) {
	for _, ext := range configExts {
		path := filepath.Join(dir, ConfigName+"."+ext)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, ok := find(dir)
	return ok
}

// SaveTo writes the configuration to the specified path as JSON.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E120").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Eviction == "" {
		c.Eviction = DefaultEviction
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}
	if c.Render.PayloadVar == "" {
		c.Render.PayloadVar = render.DefaultPayloadVar
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := statesvc.ParseEvictionPolicy(c.Eviction); err != nil {
		return err
	}
	if !render.ValidPayloadVar(c.Render.PayloadVar) {
		return errors.New("E120").
			WithDetailf("render.payloadVar %q is not a JavaScript identifier", c.Render.PayloadVar)
	}
	if _, err := c.LogLevel(); err != nil {
		return errors.New("E120").
			WithDetailf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}

// EvictionPolicy returns the parsed eviction policy.
func (c *Config) EvictionPolicy() statesvc.EvictionPolicy {
	p, err := statesvc.ParseEvictionPolicy(c.Eviction)
	if err != nil {
		return statesvc.EvictOnLastUnmount
	}
	return p
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.Log.Level))
	return level, err
}

// StoreOptions returns the store options this configuration selects.
// Metrics are registered with the default Prometheus registerer when
// enabled.
func (c *Config) StoreOptions(logger *slog.Logger) []statesvc.StoreOption {
	opts := []statesvc.StoreOption{
		statesvc.WithEvictionPolicy(c.EvictionPolicy()),
		statesvc.WithLogger(logger),
	}
	if c.Metrics.Enabled {
		opts = append(opts, statesvc.WithMetrics(
			statesvc.NewMetrics(statesvc.WithNamespace(c.Metrics.Namespace)),
		))
	}
	return opts
}

// PipelineOptions returns the render pipeline options this configuration
// selects for store.
func (c *Config) PipelineOptions(store *statesvc.Store, logger *slog.Logger) []render.Option {
	return []render.Option{
		render.WithStore(store),
		render.WithDoctype(c.Render.Doctype),
		render.WithPayloadVar(c.Render.PayloadVar),
		render.WithLogger(logger),
	}
}
