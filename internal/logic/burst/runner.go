package burst

import (
	"context"
	"time"

	"github.com/cjeanneret/StepBench/internal/console"
	"github.com/cjeanneret/StepBench/internal/debug"
	"github.com/cjeanneret/StepBench/internal/params"
)

// Burster runs one complete pulse burst from a parameter snapshot.
type Burster interface {
	RunBurst(params.Snapshot) error
}

// Runner drives the unbounded calibration cycle: snapshot the parameters,
// run a burst, pause, repeat. Console commands are handled only during the
// pause, so a parameter change takes effect no earlier than the next burst
// and a snapshot is never invalidated mid-burst.
type Runner struct {
	store      *params.Store
	burst      Burster
	interp     *console.Interpreter
	pause      time.Duration
	onSnapshot func(params.Snapshot)
}

// NewRunner creates the burst-cycle runner.
func NewRunner(store *params.Store, b Burster, interp *console.Interpreter, pause time.Duration) *Runner {
	return &Runner{
		store:  store,
		burst:  b,
		interp: interp,
		pause:  pause,
	}
}

// OnSnapshot registers a callback invoked with each snapshot just before
// its burst runs. Used to publish last-burst values to the web monitor.
// Must be set before Run.
func (r *Runner) OnSnapshot(fn func(params.Snapshot)) {
	r.onSnapshot = fn
}

// Run loops until ctx is cancelled. Cancellation is honoured only between
// bursts; a started burst always completes. A closed command channel (EOF on
// the control channel) stops command handling but not the burst cycle.
func (r *Runner) Run(ctx context.Context, commands <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		snap := r.store.Snapshot()
		if r.onSnapshot != nil {
			r.onSnapshot(snap)
		}
		if err := r.burst.RunBurst(snap); err != nil {
			return err
		}

		if err := r.idle(ctx, &commands); err != nil {
			return err
		}
	}
}

// idle waits out the inter-burst pause, handing buffered command lines to
// the interpreter as they arrive.
func (r *Runner) idle(ctx context.Context, commands *<-chan string) error {
	timer := time.NewTimer(r.pause)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		case line, ok := <-*commands:
			if !ok {
				debug.Live("Control channel closed, bursts continue")
				*commands = nil
				continue
			}
			r.interp.HandleLine(line)
		}
	}
}
