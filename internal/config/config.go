// Package config loads pyversion-gate settings from defaults, an optional
// YAML file, PYVERSION_GATE_* environment variables and command line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/getkawai/pyversion-gate/versiongate"
)

// EnvPrefix namespaces the tool's own environment variables.
const EnvPrefix = "PYVERSION_GATE"

// Config is the resolved configuration.
type Config struct {
	Format   string            `mapstructure:"format" validate:"oneof=cargo text"`
	LogLevel string            `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	EnvFile  string            `mapstructure:"env_file"`
	Gate     versiongate.Rules `mapstructure:"gate"`
	Probe    ProbeConfig       `mapstructure:"probe"`
}

// ProbeConfig configures the ChromaDB server probe.
type ProbeConfig struct {
	ServerURL     string        `mapstructure:"server_url" validate:"required,url"`
	PythonVersion string        `mapstructure:"python_version"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// NewViper returns a viper instance with defaults and environment binding set up.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// The CI pipeline exports these without the tool prefix.
	_ = v.BindEnv("probe.server_url", EnvPrefix+"_PROBE_SERVER_URL", "CHROMA_SERVER_URL")
	_ = v.BindEnv("probe.python_version", EnvPrefix+"_PROBE_PYTHON_VERSION", "CHROMA_SERVER_PYTHON_VERSION")

	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("format", "cargo")
	v.SetDefault("log_level", "warn")
	v.SetDefault("env_file", "")

	rules := versiongate.DefaultRules()
	v.SetDefault("gate.version_var", rules.VersionVar)
	v.SetDefault("gate.free_threaded_var", rules.FreeThreadedVar)
	v.SetDefault("gate.product", rules.Product)
	v.SetDefault("gate.interpreter", rules.Interpreter)
	v.SetDefault("gate.min_supported", rules.MinSupported)
	v.SetDefault("gate.advisory_from", rules.AdvisoryFrom)
	v.SetDefault("gate.binding_crate", rules.BindingCrate)
	v.SetDefault("gate.min_binding", rules.MinBinding)

	v.SetDefault("probe.server_url", "http://localhost:8000")
	v.SetDefault("probe.python_version", "unknown")
	v.SetDefault("probe.timeout", 10*time.Second)
}

// Load reads the optional config file at path and returns the validated configuration.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
