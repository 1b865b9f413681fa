package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cjeanneret/StepBench/internal/params"
)

func newTestInterpreter(t *testing.T) (*Interpreter, *params.Store, *bytes.Buffer) {
	t.Helper()
	store, err := params.NewStore(params.Defaults{
		PulseWidthMicros: 24,
		InterPulseMicros: 72,
		Steps:            1536,
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	out := &bytes.Buffer{}
	return NewInterpreter(store, out), store, out
}

// send runs one command and returns the reply with the output buffer reset.
func send(i *Interpreter, out *bytes.Buffer, line string) string {
	out.Reset()
	i.HandleLine(line)
	return out.String()
}

func TestInterpreter_CalibrationScenario(t *testing.T) {
	i, _, out := newTestInterpreter(t)

	cases := []struct {
		line string
		want string
	}{
		{"W24", "Pulse width set to 24 uSec\nok>\n"},
		{"P5", "Inter pulse delay set to 10 uSec\nok>\n"},
		{"N0", "Number of steps set to 1\nok>\n"},
		{"D", "Now rotating Counter Clockwise\nok>\n"},
		{"Z", "ERROR: Command not recognised - Z\nok>\n"},
	}
	for _, tc := range cases {
		if got := send(i, out, tc.line); got != tc.want {
			t.Errorf("command %q: reply = %q, want %q", tc.line, got, tc.want)
		}
	}
}

func TestInterpreter_PulseWidthTooSmall(t *testing.T) {
	i, store, out := newTestInterpreter(t)

	for _, line := range []string{"W0", "W4", "W"} {
		got := send(i, out, line)
		want := "ERROR: 5 uSec is the minimum\nok>\n"
		if got != want {
			t.Errorf("command %q: reply = %q, want %q", line, got, want)
		}
		if store.PulseWidth() != 24 {
			t.Errorf("command %q: pulse width changed to %d, want 24", line, store.PulseWidth())
		}
	}
}

func TestInterpreter_PulseWidthMinimumAccepted(t *testing.T) {
	i, store, out := newTestInterpreter(t)

	got := send(i, out, "W5")
	if want := "Pulse width set to 5 uSec\nok>\n"; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
	if store.PulseWidth() != 5 {
		t.Errorf("pulse width = %d, want 5", store.PulseWidth())
	}
}

func TestInterpreter_CaseInsensitive(t *testing.T) {
	i, _, out := newTestInterpreter(t)

	cases := []struct {
		line string
		want string
	}{
		{"w30", "Pulse width set to 30 uSec\nok>\n"},
		{"p20", "Inter pulse delay set to 20 uSec\nok>\n"},
		{"n8", "Number of steps set to 8\nok>\n"},
		{"d", "Now rotating Counter Clockwise\nok>\n"},
	}
	for _, tc := range cases {
		if got := send(i, out, tc.line); got != tc.want {
			t.Errorf("command %q: reply = %q, want %q", tc.line, got, tc.want)
		}
	}
}

func TestInterpreter_MissingOperandIsZero(t *testing.T) {
	i, store, out := newTestInterpreter(t)

	// P with no operand clamps 0 to the floor.
	if got, want := send(i, out, "P"), "Inter pulse delay set to 10 uSec\nok>\n"; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
	// N with no operand clamps 0 to 1.
	if got, want := send(i, out, "N"), "Number of steps set to 1\nok>\n"; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
	if store.Steps() != 1 {
		t.Errorf("steps = %d, want 1", store.Steps())
	}
}

func TestInterpreter_TrailingBytesDiscarded(t *testing.T) {
	i, store, out := newTestInterpreter(t)

	got := send(i, out, "N200abc junk")
	if want := "Number of steps set to 200\nok>\n"; got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
	if store.Steps() != 200 {
		t.Errorf("steps = %d, want 200", store.Steps())
	}
}

func TestInterpreter_ToggleInvolution(t *testing.T) {
	i, store, out := newTestInterpreter(t)

	send(i, out, "D")
	if got := send(i, out, "D"); got != "Now rotating Clockwise\nok>\n" {
		t.Errorf("second toggle reply = %q", got)
	}
	if store.Dir() != params.Clockwise {
		t.Errorf("direction after two toggles = %v, want Clockwise", store.Dir())
	}
}

func TestInterpreter_EmptyLinePromptOnly(t *testing.T) {
	i, _, out := newTestInterpreter(t)

	if got := send(i, out, ""); got != "ok>\n" {
		t.Errorf("empty line reply = %q, want prompt only", got)
	}
	if got := send(i, out, "   "); got != "ok>\n" {
		t.Errorf("blank line reply = %q, want prompt only", got)
	}
}

func TestInterpreter_Report(t *testing.T) {
	i, _, out := newTestInterpreter(t)

	send(i, out, "W24")
	got := send(i, out, "?")

	for _, want := range []string{
		"Pulse width:        24 uSec",
		"Inter pulse delay:  72 uSec",
		"Number of steps:    1536",
		"Direction:          Clockwise",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}

	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if first := lines[0]; !strings.HasPrefix(first, "+--") {
		t.Errorf("report should open with a border, got %q", first)
	}
	// The dump carries the prompt as its own footer, no separate ack line.
	if last := lines[len(lines)-1]; last != Prompt {
		t.Errorf("report footer = %q, want %q", last, Prompt)
	}
	if strings.Count(got, Prompt) != 1 {
		t.Errorf("report should contain exactly one prompt:\n%s", got)
	}
}

func TestInterpreter_ReportReflectsWidthRoundTrip(t *testing.T) {
	// W<n> then ? must report exactly n: overhead is subtracted on set and
	// re-added for display.
	i, _, out := newTestInterpreter(t)

	for _, n := range []string{"5", "6", "24", "100"} {
		send(i, out, "W"+n)
		got := send(i, out, "?")
		if !strings.Contains(got, "Pulse width:        "+n+" uSec") {
			t.Errorf("after W%s, report does not show %s uSec:\n%s", n, n, got)
		}
	}
}

func TestInterpreter_UnrecognisedKeepsRunning(t *testing.T) {
	i, _, out := newTestInterpreter(t)

	send(i, out, "X99")
	send(i, out, "!")
	// Interpreter must still accept valid commands afterwards.
	if got := send(i, out, "N12"); got != "Number of steps set to 12\nok>\n" {
		t.Errorf("reply after garbage = %q", got)
	}
}
