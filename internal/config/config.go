package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	OutputMemory   = "memory"
	OutputPostgres = "postgres"

	EnvPrefix = "MOCKCHAIN"
)

var (
	ErrInvalidConcurrency = errors.New("max-concurrency must be greater than 0")
	ErrInvalidRetries     = errors.New("max-retries must be greater than 0")
	ErrInvalidBlockTime   = errors.New("block-time must be greater than 0 in live mode")
	ErrEmptyAdmin         = errors.New("admin must not be empty")
	ErrUnknownOutput      = errors.New("unknown output kind")
	ErrMissingPostgresURL = errors.New("postgres-conn is required for postgres output")
	ErrMissingMetricsAddr = errors.New("prometheus-addr is required when prometheus is enabled")
)

// SimulateConfig controls how batches are mined and written.
type SimulateConfig struct {
	MaxConcurrency uint
	MaxRetries     uint
	BlockTime      uint
	Live           bool
	Resume         bool
	Admin          string
	Source         string
}

func (c SimulateConfig) Validate() error {
	if c.MaxConcurrency == 0 {
		return ErrInvalidConcurrency
	}
	if c.MaxRetries == 0 {
		return ErrInvalidRetries
	}
	if c.Live && c.BlockTime == 0 {
		return ErrInvalidBlockTime
	}
	if strings.TrimSpace(c.Admin) == "" {
		return ErrEmptyAdmin
	}
	return nil
}

// OutputConfig selects the output handler.
type OutputConfig struct {
	Kind         string
	PostgresConn string
}

func (c OutputConfig) Validate() error {
	switch c.Kind {
	case OutputMemory:
		return nil
	case OutputPostgres:
		if c.PostgresConn == "" {
			return ErrMissingPostgresURL
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutput, c.Kind)
	}
}

type MetricsConfig struct {
	Enabled bool
	Addr    string
}

func (c MetricsConfig) Validate() error {
	if c.Enabled && c.Addr == "" {
		return ErrMissingMetricsAddr
	}
	return nil
}

// Config is the full configuration of the simulate command.
type Config struct {
	Simulate SimulateConfig
	Output   OutputConfig
	Metrics  MetricsConfig
}

func (c Config) Validate() error {
	if err := c.Simulate.Validate(); err != nil {
		return fmt.Errorf("invalid simulate config: %w", err)
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("invalid output config: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}
	return nil
}

// LoadConfig reads the configuration from viper keys populated by flags, env vars or a config file.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		Simulate: SimulateConfig{
			MaxConcurrency: v.GetUint("max-concurrency"),
			MaxRetries:     v.GetUint("max-retries"),
			BlockTime:      v.GetUint("block-time"),
			Live:           v.GetBool("live"),
			Resume:         v.GetBool("resume"),
			Admin:          v.GetString("admin"),
			Source:         v.GetString("source"),
		},
		Output: OutputConfig{
			Kind:         v.GetString("output"),
			PostgresConn: v.GetString("postgres-conn"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("enable-prometheus"),
			Addr:    v.GetString("prometheus-addr"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewViper returns a viper instance reading MOCKCHAIN_* env vars, with dashes mapped to underscores.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}
