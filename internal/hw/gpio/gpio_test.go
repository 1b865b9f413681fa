package gpio

import "testing"

func TestMockDriver_CountsWrites(t *testing.T) {
	d, err := NewDriver(true)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	mock, ok := d.(*MockDriver)
	if !ok {
		t.Fatalf("NewDriver(true) returned %T, want *MockDriver", d)
	}

	if err := mock.SetupPin(17, Output); err != nil {
		t.Fatalf("SetupPin: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := mock.WritePin(17, High); err != nil {
			t.Fatalf("WritePin: %v", err)
		}
	}
	if err := mock.WritePin(27, Low); err != nil {
		t.Fatalf("WritePin: %v", err)
	}

	if got := mock.Writes(17); got != 3 {
		t.Errorf("Writes(17) = %d, want 3", got)
	}
	if got := mock.Writes(27); got != 1 {
		t.Errorf("Writes(27) = %d, want 1", got)
	}
	if got := mock.Writes(5); got != 0 {
		t.Errorf("Writes(5) = %d, want 0", got)
	}

	if err := mock.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
