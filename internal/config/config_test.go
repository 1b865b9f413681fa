package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validConfig = `
driver:
  step_pin: 17
  dir_pin: 27
  enable_pin: 22
console:
  device: ""
  baud_rate: 115200
defaults:
  pulse_width_us: 24
  inter_pulse_delay_us: 72
  number_of_steps: 1536
  inter_burst_pause_ms: 500
  debug_level: 0
  mock_gpio: true
`

func TestLoad_Valid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Driver.StepPin != 17 || cfg.Driver.DirPin != 27 || cfg.Driver.EnablePin != 22 {
		t.Errorf("driver pins = %+v", cfg.Driver)
	}
	if cfg.Defaults.PulseWidthUs != 24 {
		t.Errorf("PulseWidthUs = %d, want 24", cfg.Defaults.PulseWidthUs)
	}
	if cfg.Defaults.NumberOfSteps != 1536 {
		t.Errorf("NumberOfSteps = %d, want 1536", cfg.Defaults.NumberOfSteps)
	}
	if !cfg.Defaults.MockGPIO {
		t.Error("MockGPIO should be true")
	}
	if got := cfg.InterBurstPause(); got != 500*time.Millisecond {
		t.Errorf("InterBurstPause = %v, want 500ms", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "driver: [not a map")); err == nil {
		t.Error("expected error for invalid yaml, got nil")
	}
}

func TestLoad_RequiredPins(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no_step_pin", "driver:\n  dir_pin: 27\n"},
		{"no_dir_pin", "driver:\n  step_pin: 17\n"},
		{"same_pins", "driver:\n  step_pin: 17\n  dir_pin: 17\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.body)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoad_SilentDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "driver:\n  step_pin: 17\n  dir_pin: 27\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Defaults.PulseWidthUs != 24 {
		t.Errorf("PulseWidthUs default = %d, want 24", cfg.Defaults.PulseWidthUs)
	}
	if cfg.Defaults.InterPulseDelayUs != 72 {
		t.Errorf("InterPulseDelayUs default = %d, want 72", cfg.Defaults.InterPulseDelayUs)
	}
	if cfg.Defaults.NumberOfSteps != 1536 {
		t.Errorf("NumberOfSteps default = %d, want 1536", cfg.Defaults.NumberOfSteps)
	}
	if cfg.Defaults.InterBurstPauseMs != 500 {
		t.Errorf("InterBurstPauseMs default = %d, want 500", cfg.Defaults.InterBurstPauseMs)
	}
	if cfg.Console.BaudRate != 115200 {
		t.Errorf("BaudRate default = %d, want 115200", cfg.Console.BaudRate)
	}
}

func TestLoad_PulseWidthBelowOverheadFallsBack(t *testing.T) {
	body := "driver:\n  step_pin: 17\n  dir_pin: 27\ndefaults:\n  pulse_width_us: 3\n"
	cfg, err := Load(writeConfig(t, body))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Defaults.PulseWidthUs != 24 {
		t.Errorf("PulseWidthUs = %d, want fallback 24", cfg.Defaults.PulseWidthUs)
	}
}

func TestLoad_DebugLevelBounds(t *testing.T) {
	for _, lvl := range []string{"-1", "5"} {
		body := "driver:\n  step_pin: 17\n  dir_pin: 27\ndefaults:\n  debug_level: " + lvl + "\n"
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Errorf("debug_level %s: expected error, got nil", lvl)
		}
	}
}

func TestParamDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	d := cfg.ParamDefaults()
	if d.PulseWidthMicros != 24 || d.InterPulseMicros != 72 || d.Steps != 1536 {
		t.Errorf("ParamDefaults = %+v", d)
	}
}
