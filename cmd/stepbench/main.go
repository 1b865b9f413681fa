package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"syscall"

	"github.com/cjeanneret/StepBench/internal/config"
	"github.com/cjeanneret/StepBench/internal/console"
	"github.com/cjeanneret/StepBench/internal/debug"
	"github.com/cjeanneret/StepBench/internal/hw/gpio"
	"github.com/cjeanneret/StepBench/internal/hw/pulser"
	"github.com/cjeanneret/StepBench/internal/logic/burst"
	"github.com/cjeanneret/StepBench/internal/params"
	"github.com/cjeanneret/StepBench/internal/web"
)

func main() {
	// CLI flags
	webPort := &webPortFlag{defaultPort: 8080}
	flag.Var(webPort, "web", "start web monitor on port; -web= for default 8080, -web 8980 for custom port")
	cfgPath := flag.String("config", filepath.Join("configs", "default.yaml"), "path to config file")
	width := flag.Uint("width", 0, "override startup pulse width in uSec (raw, must be > 4)")
	delay := flag.Uint("delay", 0, "override startup inter pulse delay in uSec")
	steps := flag.Uint("steps", 0, "override startup number of steps per burst")
	mock := flag.Bool("mock", false, "force the mock GPIO driver")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	// Validate CLI overrides (only non-zero values are applied; zero means "use config default")
	if err := validateCLIOverrides(*width); err != nil {
		log.Fatalf("invalid CLI override: %v", err)
	}
	applyOverrides(cfg, *width, *delay, *steps, *mock)

	// Initialize debug system
	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", *cfgPath)
	debug.Value("Debug level", cfg.Defaults.DebugLevel)

	// Initialize GPIO driver
	debug.Value("Mock GPIO", cfg.Defaults.MockGPIO)
	gpioDriver, err := gpio.NewDriver(cfg.Defaults.MockGPIO)
	if err != nil {
		log.Fatalf("init GPIO failed: %v", err)
	}
	defer func() {
		if err := gpioDriver.Close(); err != nil {
			log.Printf("closing GPIO driver failed: %v", err)
		}
	}()

	// Parameter store with validated startup values
	store, err := params.NewStore(cfg.ParamDefaults())
	if err != nil {
		log.Fatalf("init parameters failed: %v", err)
	}
	debug.Value("Pulse width", fmt.Sprintf("%d uSec", store.PulseWidth()))
	debug.Value("Inter pulse delay", fmt.Sprintf("%d uSec", store.InterPulseDelay()))
	debug.Value("Number of steps", store.Steps())

	// Pulse sequencer on the configured pins
	seq := pulser.NewPulser(gpioDriver, pulser.Config{
		StepPin:   cfg.Driver.StepPin,
		DirPin:    cfg.Driver.DirPin,
		EnablePin: cfg.Driver.EnablePin,
	})

	// Control channel
	port, err := console.OpenPort(cfg.Console.Device, cfg.Console.BaudRate)
	if err != nil {
		log.Fatalf("open console failed: %v", err)
	}
	defer func() {
		if err := port.Close(); err != nil {
			log.Printf("closing console failed: %v", err)
		}
	}()

	cmds := make(chan string, 16)
	out := io.Writer(port)

	webEnabled := webPort.port() > 0
	var broadcaster *web.StatusBroadcaster
	if webEnabled {
		broadcaster = web.NewStatusBroadcaster()
		out = io.MultiWriter(port, web.BroadcastWriter(broadcaster))
	}

	interp := console.NewInterpreter(store, out)
	runner := burst.NewRunner(store, seq, interp, cfg.InterBurstPause())

	if webEnabled {
		// Last-burst snapshot, published atomically for the /params handler.
		var latest atomic.Value
		latest.Store(paramsView(store.Snapshot()))
		runner.OnSnapshot(func(s params.Snapshot) {
			latest.Store(paramsView(s))
		})

		submit := func(line string) error {
			select {
			case cmds <- line:
				return nil
			default:
				return errors.New("command buffer full")
			}
		}
		srv := web.NewServer(fmt.Sprintf(":%d", webPort.port()), broadcaster, submit, func() web.ParamsView {
			return latest.Load().(web.ParamsView)
		})
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.Printf("web monitor: %v", err)
			}
		}()
	}

	// Feed console lines into the shared command channel. With the web
	// monitor active the channel must stay open past console EOF.
	go func() {
		for line := range console.ReadLines(port) {
			cmds <- line
		}
		if !webEnabled {
			close(cmds)
		}
	}()

	// Banner and first prompt
	fmt.Fprintf(out, "StepBench - stepper driver pulse calibration\n")
	fmt.Fprintf(out, "Commands: W<uSec> P<uSec> N<steps> D ?\n")
	fmt.Fprintf(out, "%s\n", console.Prompt)

	if err := runner.Run(ctx, cmds); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("burst loop failed: %v", err)
	}
	debug.Info("Shutting down")
}

// validateCLIOverrides checks that a non-zero width override exceeds the
// toggle overhead, same rule as the W command. Zero means "use config".
func validateCLIOverrides(width uint) error {
	if width != 0 && width <= params.StepOverheadMicros {
		return fmt.Errorf("width must be greater than %d uSec, got %d", params.StepOverheadMicros, width)
	}
	return nil
}

// applyOverrides mutates cfg with CLI overrides. Only non-zero values are applied.
func applyOverrides(cfg *config.Config, width, delay, steps uint, mock bool) {
	if width > 0 {
		cfg.Defaults.PulseWidthUs = width
	}
	if delay > 0 {
		cfg.Defaults.InterPulseDelayUs = delay
	}
	if steps > 0 {
		cfg.Defaults.NumberOfSteps = steps
	}
	if mock {
		cfg.Defaults.MockGPIO = true
	}
}

// paramsView converts a burst snapshot to the web monitor's JSON view.
func paramsView(s params.Snapshot) web.ParamsView {
	return web.ParamsView{
		PulseWidthUs:      s.PulseHighMicros + params.StepOverheadMicros,
		InterPulseDelayUs: s.InterPulseMicros,
		NumberOfSteps:     s.Steps,
		Direction:         s.Dir.String(),
	}
}

// webPortFlag implements flag.Value for -web: 0 = disabled, -web= or -web 8080 → 8080, -web 8980 → 8980.
type webPortFlag struct {
	val         int
	defaultPort int
}

func (w *webPortFlag) String() string {
	if w.val == 0 {
		return "0"
	}
	return strconv.Itoa(w.val)
}

func (w *webPortFlag) Set(s string) error {
	if s == "" {
		w.val = w.defaultPort
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v <= 0 || v > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", v)
	}
	w.val = v
	return nil
}

func (w *webPortFlag) port() int { return w.val }
