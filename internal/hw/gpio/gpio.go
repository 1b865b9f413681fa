package gpio

import (
	"github.com/cjeanneret/StepBench/internal/debug"
)

// Level represents the logical state of a GPIO pin.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// PinMode indicates whether a GPIO is input or output.
type PinMode int

const (
	Input PinMode = iota
	Output
)

// Driver defines the abstract interface for controlling GPIOs.
// This allows plugging in a real Raspberry Pi implementation
// or a mock for development on PC.
type Driver interface {
	SetupPin(pin int, mode PinMode) error
	WritePin(pin int, level Level) error
	Close() error
}

// MockDriver is a test implementation that logs actions and counts writes,
// so a dry run still shows how many edges a burst produced.
type MockDriver struct {
	writes map[int]int
}

// NewDriver creates a GPIO driver based on the chosen mode.
// If mock is true, returns a MockDriver (for dev/test).
// If mock is false, returns a real RPiDriver (for Raspberry Pi).
func NewDriver(mock bool) (Driver, error) {
	if mock {
		debug.Info("Using MOCK GPIO driver (development mode)")
		return &MockDriver{writes: make(map[int]int)}, nil
	}
	return NewRPiRealDriver()
}

func (m *MockDriver) SetupPin(pin int, mode PinMode) error {
	debug.GPIO("SetupPin", pin, mode)
	return nil
}

func (m *MockDriver) WritePin(pin int, level Level) error {
	debug.GPIO("WritePin", pin, level)
	m.writes[pin]++
	return nil
}

// Writes returns how many times a pin was written. Mock only.
func (m *MockDriver) Writes(pin int) int {
	return m.writes[pin]
}

func (m *MockDriver) Close() error {
	debug.Trace("GPIO Close (mock)")
	for pin, n := range m.writes {
		debug.Verbose("Mock pin %d: %d writes", pin, n)
	}
	return nil
}
