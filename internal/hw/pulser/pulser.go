package pulser

import (
	"time"

	"github.com/cjeanneret/StepBench/internal/debug"
	"github.com/cjeanneret/StepBench/internal/hw/gpio"
	"github.com/cjeanneret/StepBench/internal/params"
)

// Config holds the hardware wiring for the driver under test.
type Config struct {
	StepPin   int
	DirPin    int
	EnablePin int // A4988 ENABLE pin (BCM). 0 = not used. Active LOW (LOW=enabled).
}

// Pulser emits timed step-pulse bursts from a parameter snapshot.
// It owns the enable/direction sequencing: enable is asserted for the whole
// pulse train and no longer, direction is fixed for the burst.
type Pulser struct {
	gpio gpio.Driver
	cfg  Config
}

// NewPulser creates a pulse sequencer. Pins are configured as outputs and
// the driver starts disabled (ENABLE high).
func NewPulser(g gpio.Driver, cfg Config) *Pulser {
	_ = g.SetupPin(cfg.StepPin, gpio.Output)
	_ = g.SetupPin(cfg.DirPin, gpio.Output)

	if cfg.EnablePin > 0 {
		_ = g.SetupPin(cfg.EnablePin, gpio.Output)
		_ = g.WritePin(cfg.EnablePin, gpio.High) // disabled until the first burst
	}

	return &Pulser{
		gpio: g,
		cfg:  cfg,
	}
}

// RunBurst drives one complete burst from the snapshot: enable the driver,
// set direction, emit Steps pulses with the configured high/low times, then
// disable. A started burst always runs to completion.
func (p *Pulser) RunBurst(s params.Snapshot) error {
	debug.Burst(s.Steps, s.PulseHighMicros, s.InterPulseMicros, s.Dir.String())

	if err := p.gpio.WritePin(p.cfg.DirPin, dirLevel(s.Dir)); err != nil {
		return err
	}

	if err := p.enable(); err != nil {
		return err
	}
	defer p.disable()

	for i := uint(0); i < s.Steps; i++ {
		if err := p.stepPulse(s.PulseHighMicros, s.InterPulseMicros); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pulser) stepPulse(highMicros, lowMicros uint) error {
	if err := p.gpio.WritePin(p.cfg.StepPin, gpio.High); err != nil {
		return err
	}
	busyWaitMicros(highMicros)
	if err := p.gpio.WritePin(p.cfg.StepPin, gpio.Low); err != nil {
		return err
	}
	busyWaitMicros(lowMicros)
	return nil
}

// dirLevel maps rotation direction to the DIR output level.
// Clockwise drives HIGH.
func dirLevel(d params.Direction) gpio.Level {
	if d == params.Clockwise {
		return gpio.High
	}
	return gpio.Low
}

// enable turns on the driver (A4988 ENABLE=LOW).
func (p *Pulser) enable() error {
	if p.cfg.EnablePin <= 0 {
		return nil
	}
	return p.gpio.WritePin(p.cfg.EnablePin, gpio.Low)
}

// disable turns off the driver (A4988 ENABLE=HIGH). Motor freewheels.
func (p *Pulser) disable() error {
	if p.cfg.EnablePin <= 0 {
		return nil
	}
	return p.gpio.WritePin(p.cfg.EnablePin, gpio.High)
}

// busyWaitMicros spins on the monotonic clock for d microseconds.
// time.Sleep is too coarse at this resolution; the scheduler can overshoot
// a microsecond sleep by tens of microseconds.
func busyWaitMicros(d uint) {
	deadline := time.Now().Add(time.Duration(d) * time.Microsecond)
	for time.Now().Before(deadline) {
	}
}
