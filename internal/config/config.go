package config

import (
	"fmt"
	"os"
	"time"

	"github.com/cjeanneret/StepBench/internal/params"
	"gopkg.in/yaml.v3"
)

// DriverConfig holds the wiring of the step/dir driver under test.
type DriverConfig struct {
	StepPin   int `yaml:"step_pin"`
	DirPin    int `yaml:"dir_pin"`
	EnablePin int `yaml:"enable_pin"` // A4988 ENABLE pin (BCM). 0 = not used. Active LOW.
}

// ConsoleConfig describes the control channel transport.
type ConsoleConfig struct {
	Device   string `yaml:"device"`    // empty or "stdio" = stdin/stdout; else serial device path
	BaudRate int    `yaml:"baud_rate"` // serial only
}

// DefaultsConfig contains the startup tuning values and generic parameters.
type DefaultsConfig struct {
	PulseWidthUs      uint `yaml:"pulse_width_us"`       // raw value, toggle overhead included
	InterPulseDelayUs uint `yaml:"inter_pulse_delay_us"` // low time between pulses
	NumberOfSteps     uint `yaml:"number_of_steps"`      // pulses per burst
	InterBurstPauseMs int  `yaml:"inter_burst_pause_ms"` // pause between bursts
	DebugLevel        int  `yaml:"debug_level"`          // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	MockGPIO          bool `yaml:"mock_gpio"`            // use mock GPIO (true=dev/test, false=real Raspberry Pi)
}

// Config aggregates all application configuration.
type Config struct {
	Driver   DriverConfig   `yaml:"driver"`
	Console  ConsoleConfig  `yaml:"console"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// Load reads a YAML file and returns the configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	// Basic validation
	if cfg.Driver.StepPin <= 0 {
		return nil, fmt.Errorf("driver.step_pin is required")
	}
	if cfg.Driver.DirPin <= 0 {
		return nil, fmt.Errorf("driver.dir_pin is required")
	}
	if cfg.Driver.StepPin == cfg.Driver.DirPin {
		return nil, fmt.Errorf("driver.step_pin and driver.dir_pin must differ, both are %d", cfg.Driver.StepPin)
	}
	if cfg.Defaults.DebugLevel < 0 || cfg.Defaults.DebugLevel > 4 {
		return nil, fmt.Errorf("debug_level must be between 0 and 4, got %d", cfg.Defaults.DebugLevel)
	}

	// Silent defaults for unusable values
	if cfg.Defaults.PulseWidthUs <= params.StepOverheadMicros {
		cfg.Defaults.PulseWidthUs = 24 // reasonable default (20 uSec effective)
	}
	if cfg.Defaults.InterPulseDelayUs == 0 {
		cfg.Defaults.InterPulseDelayUs = 72
	}
	if cfg.Defaults.NumberOfSteps == 0 {
		cfg.Defaults.NumberOfSteps = 1536
	}
	if cfg.Defaults.InterBurstPauseMs <= 0 {
		cfg.Defaults.InterBurstPauseMs = 500
	}
	if cfg.Console.BaudRate <= 0 {
		cfg.Console.BaudRate = 115200
	}

	return &cfg, nil
}

// InterBurstPause returns the pause between two bursts.
func (c *Config) InterBurstPause() time.Duration {
	return time.Duration(c.Defaults.InterBurstPauseMs) * time.Millisecond
}

// ParamDefaults returns the startup values for the parameter store.
func (c *Config) ParamDefaults() params.Defaults {
	return params.Defaults{
		PulseWidthMicros: c.Defaults.PulseWidthUs,
		InterPulseMicros: c.Defaults.InterPulseDelayUs,
		Steps:            c.Defaults.NumberOfSteps,
	}
}
