// Package config loads svrun defaults from a YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kolkov/svrun/internal/process"
)

type Config struct {
	Service ServiceConfig `yaml:"service"`
	Client  ClientConfig  `yaml:"client"`
	Log     LogConfig     `yaml:"log"`
}

type ServiceConfig struct {
	StopSignal string            `yaml:"stop_signal"`
	StopWait   Duration          `yaml:"stop_wait"`
	KillWait   Duration          `yaml:"kill_wait"`
	Directory  string            `yaml:"directory,omitempty"`
	Env        map[string]string `yaml:"env,omitempty"`
	Ready      ReadyConfig       `yaml:"ready"`
}

type ReadyConfig struct {
	Wait     Duration `yaml:"wait,omitempty"`
	TCP      string   `yaml:"tcp,omitempty"`
	GRPC     string   `yaml:"grpc,omitempty"`
	Command  []string `yaml:"command,omitempty"`
	Timeout  Duration `yaml:"timeout,omitempty"`
	Interval Duration `yaml:"interval,omitempty"`
}

type ClientConfig struct {
	Directory string            `yaml:"directory,omitempty"`
	Env       map[string]string `yaml:"env,omitempty"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration wraps time.Duration so YAML values like "5s" parse.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			StopSignal: "SIGTERM",
			StopWait:   Duration(5 * time.Second),
			KillWait:   Duration(2 * time.Second),
			Ready: ReadyConfig{
				Timeout:  Duration(10 * time.Second),
				Interval: Duration(100 * time.Millisecond),
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the config file, fills defaults, and validates.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if cfg.Service.Directory != "" {
		if abs, err := filepath.Abs(cfg.Service.Directory); err == nil {
			cfg.Service.Directory = abs
		}
	}
	if cfg.Client.Directory != "" {
		if abs, err := filepath.Abs(cfg.Client.Directory); err == nil {
			cfg.Client.Directory = abs
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := process.ParseSignal(c.Service.StopSignal); err != nil {
		return err
	}
	if c.Service.StopWait <= 0 {
		return fmt.Errorf("service stop_wait must be positive")
	}
	if c.Service.KillWait <= 0 {
		return fmt.Errorf("service kill_wait must be positive")
	}

	endpoints := 0
	if c.Service.Ready.TCP != "" {
		endpoints++
	}
	if c.Service.Ready.GRPC != "" {
		endpoints++
	}
	if len(c.Service.Ready.Command) > 0 {
		endpoints++
	}
	if endpoints > 1 {
		return fmt.Errorf("at most one of ready.tcp, ready.grpc, ready.command may be set")
	}

	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format: %q", c.Log.Format)
	}
	return nil
}
