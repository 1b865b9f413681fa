package params

import "fmt"

// Timing bounds for the tunable values.
const (
	// StepOverheadMicros compensates for the latency of toggling the STEP
	// output. It is subtracted from a raw pulse width at set time and
	// re-added when the value is displayed.
	StepOverheadMicros = 4

	// MinInterPulseMicros is the floor for the low time between pulses.
	// Values below it are clamped, not rejected.
	MinInterPulseMicros = 10

	// MinSteps is the floor for the per-burst step count.
	MinSteps = 1
)

// Direction selects the level driven on the DIR output.
type Direction bool

const (
	Clockwise        Direction = false
	CounterClockwise Direction = true
)

func (d Direction) String() string {
	if d == CounterClockwise {
		return "Counter Clockwise"
	}
	return "Clockwise"
}

// Store holds the tunable timing/count values plus the rotation direction.
// Writes come only from the command interpreter, reads only from the burst
// loop via Snapshot, all on the same goroutine, so no locking is needed.
type Store struct {
	pulseHigh  uint // effective STEP high time (µs), overhead already removed
	interPulse uint // STEP low time between pulses (µs)
	steps      uint // pulses per burst
	dir        Direction
}

// Defaults carries the startup values, raw as configured (pulse width still
// includes the overhead).
type Defaults struct {
	PulseWidthMicros uint
	InterPulseMicros uint
	Steps            uint
}

// NewStore creates a store from startup defaults, applying the same
// validation rules as the live setters. Direction starts Clockwise.
func NewStore(d Defaults) (*Store, error) {
	s := &Store{}
	if err := s.SetPulseWidth(d.PulseWidthMicros); err != nil {
		return nil, fmt.Errorf("default pulse width: %w", err)
	}
	s.SetInterPulseDelay(d.InterPulseMicros)
	s.SetSteps(d.Steps)
	return s, nil
}

// SetPulseWidth sets the STEP high time from a raw operand in µs. The raw
// value must exceed StepOverheadMicros; on rejection the store is unchanged.
func (s *Store) SetPulseWidth(raw uint) error {
	if raw <= StepOverheadMicros {
		return fmt.Errorf("%d uSec is the minimum", StepOverheadMicros+1)
	}
	s.pulseHigh = raw - StepOverheadMicros
	return nil
}

// SetInterPulseDelay sets the low time between pulses, clamped to
// MinInterPulseMicros. Returns the effective value.
func (s *Store) SetInterPulseDelay(v uint) uint {
	if v < MinInterPulseMicros {
		v = MinInterPulseMicros
	}
	s.interPulse = v
	return v
}

// SetSteps sets the pulses per burst, clamped to MinSteps. Returns the
// effective value.
func (s *Store) SetSteps(v uint) uint {
	if v < MinSteps {
		v = MinSteps
	}
	s.steps = v
	return v
}

// ToggleDirection flips the rotation direction and returns the new one.
func (s *Store) ToggleDirection() Direction {
	s.dir = !s.dir
	return s.dir
}

// PulseWidth returns the displayed pulse width (overhead re-added).
func (s *Store) PulseWidth() uint { return s.pulseHigh + StepOverheadMicros }

// InterPulseDelay returns the current low time between pulses in µs.
func (s *Store) InterPulseDelay() uint { return s.interPulse }

// Steps returns the current pulses per burst.
func (s *Store) Steps() uint { return s.steps }

// Dir returns the current rotation direction.
func (s *Store) Dir() Direction { return s.dir }

// Snapshot is the value set a single burst runs with. It is taken once at
// burst start and never re-read mid-burst.
type Snapshot struct {
	PulseHighMicros  uint
	InterPulseMicros uint
	Steps            uint
	Dir              Direction
}

// Snapshot captures the current values for one burst.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		PulseHighMicros:  s.pulseHigh,
		InterPulseMicros: s.interPulse,
		Steps:            s.steps,
		Dir:              s.dir,
	}
}
