package console

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cjeanneret/StepBench/internal/debug"
	"github.com/cjeanneret/StepBench/internal/params"
)

// Prompt is the fixed terminator written after every reply.
const Prompt = "ok>"

// Interpreter turns command lines from the control channel into validated
// writes on the parameter store and emits textual replies. Malformed input
// never halts it; each command is evaluated independently.
type Interpreter struct {
	store *params.Store
	out   io.Writer
}

// NewInterpreter creates an interpreter writing replies to out.
func NewInterpreter(store *params.Store, out io.Writer) *Interpreter {
	return &Interpreter{
		store: store,
		out:   out,
	}
}

// HandleLine processes one command line: a single case-insensitive letter
// optionally followed by an unsigned decimal operand. Anything after the
// digits is discarded. A missing operand means 0. The reply (if any) is
// followed by the prompt; the ? dump ends with the prompt as its own footer.
func (i *Interpreter) HandleLine(line string) {
	line = strings.TrimSpace(line)
	debug.Command(line)

	if line != "" && line[0] == '?' {
		fmt.Fprint(i.out, i.report())
		return
	}

	if msg := i.exec(line); msg != "" {
		fmt.Fprintf(i.out, "%s\n", msg)
	}
	fmt.Fprintf(i.out, "%s\n", Prompt)
}

// exec dispatches one command and returns the reply line, empty for an
// empty input line.
func (i *Interpreter) exec(line string) string {
	if line == "" {
		return ""
	}

	cmd := line[0]
	operand := parseOperand(line[1:])

	switch cmd {
	case 'W', 'w':
		if err := i.store.SetPulseWidth(operand); err != nil {
			return fmt.Sprintf("ERROR: %v", err)
		}
		// Echo the raw operand, not the overhead-adjusted stored value.
		return fmt.Sprintf("Pulse width set to %d uSec", operand)

	case 'P', 'p':
		v := i.store.SetInterPulseDelay(operand)
		return fmt.Sprintf("Inter pulse delay set to %d uSec", v)

	case 'N', 'n':
		v := i.store.SetSteps(operand)
		return fmt.Sprintf("Number of steps set to %d", v)

	case 'D', 'd':
		dir := i.store.ToggleDirection()
		return fmt.Sprintf("Now rotating %s", dir)

	default:
		return fmt.Sprintf("ERROR: Command not recognised - %c", cmd)
	}
}

// report formats the bordered dump of all current values. Its last line is
// the prompt, so no separate acknowledgment follows.
func (i *Interpreter) report() string {
	var b strings.Builder
	border := "+----------------------------------------+\n"
	b.WriteString(border)
	fmt.Fprintf(&b, "  Pulse width:        %d uSec\n", i.store.PulseWidth())
	fmt.Fprintf(&b, "  Inter pulse delay:  %d uSec\n", i.store.InterPulseDelay())
	fmt.Fprintf(&b, "  Number of steps:    %d\n", i.store.Steps())
	fmt.Fprintf(&b, "  Direction:          %s\n", i.store.Dir())
	b.WriteString(border)
	b.WriteString(Prompt + "\n")
	return b.String()
}

// parseOperand reads the leading run of decimal digits; everything after is
// discarded so the channel is clean for the next command. No digits means 0.
func parseOperand(s string) uint {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	v, err := strconv.ParseUint(s[:end], 10, 64)
	if err != nil {
		// Digit run too long for uint64; treat as no operand.
		return 0
	}
	return uint(v)
}
