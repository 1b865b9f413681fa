package debug

import (
	"io"
	"log"
	"os"
)

// Debug levels
const (
	LevelOff     = 0 // No output
	LevelInfo    = 1 // Important info (config, hardware setup)
	LevelLive    = 2 // Live info (bursts, commands handled)
	LevelVerbose = 3 // Verbose (timing details, clamping)
	LevelTrace   = 4 // Trace (GPIO, very low level)
)

var (
	level  int
	logger *log.Logger
)

// Init initializes the debug system with a level (0-4).
// 0 = no output
// 1 = important info (config, hardware setup)
// 2 = live info (bursts run, commands handled)
// 3 = verbose (timing details, clamped values)
// 4 = trace (GPIO, very low level)
func Init(debugLevel int) {
	level = debugLevel
	if level > LevelOff {
		logger = log.New(os.Stdout, "[StepBench] ", log.LstdFlags|log.Lmicroseconds)
	}
}

// SetOutput redirects debug output, e.g. to tee it into the web monitor.
func SetOutput(w io.Writer) {
	if logger != nil {
		logger.SetOutput(w)
	}
}

// Level returns the current debug level.
func Level() int {
	return level
}

// IsEnabled returns true if debug level is >= the requested level.
func IsEnabled(minLevel int) bool {
	return level >= minLevel
}

// --- Level 1 functions (Info): important info ---

// Info prints a level 1 message (important info).
func Info(format string, args ...interface{}) {
	if level >= LevelInfo && logger != nil {
		logger.Printf("[INFO] "+format, args...)
	}
}

// Value prints a named value in formatted form (level 1).
func Value(name string, value interface{}) {
	if level >= LevelInfo && logger != nil {
		logger.Printf("[INFO]   %s = %v", name, value)
	}
}

// --- Level 2 functions (Live): real-time info ---

// Live prints a level 2 message (live info).
func Live(format string, args ...interface{}) {
	if level >= LevelLive && logger != nil {
		logger.Printf("[LIVE] "+format, args...)
	}
}

// Burst prints a burst run (level 2).
func Burst(steps, highMicros, lowMicros uint, direction string) {
	if level >= LevelLive && logger != nil {
		logger.Printf("[LIVE] Burst: %d pulses, %d/%d uSec high/low, %s", steps, highMicros, lowMicros, direction)
	}
}

// Command prints a handled console command (level 2).
func Command(line string) {
	if level >= LevelLive && logger != nil {
		logger.Printf("[LIVE] Command: %q", line)
	}
}

// --- Level 3 functions (Verbose): everything ---

// Verbose prints a level 3 message (verbose).
func Verbose(format string, args ...interface{}) {
	if level >= LevelVerbose && logger != nil {
		logger.Printf("[VERBOSE] "+format, args...)
	}
}

// Section prints a section separator (level 3).
func Section(name string) {
	if level >= LevelVerbose && logger != nil {
		logger.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		logger.Printf("  %s", name)
		logger.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	}
}

// --- Level 4 functions (Trace): very low level ---

// Trace prints a level 4 message (trace, GPIO).
func Trace(format string, args ...interface{}) {
	if level >= LevelTrace && logger != nil {
		logger.Printf("[TRACE] "+format, args...)
	}
}

// GPIO prints a GPIO operation (level 4).
func GPIO(operation string, pin int, value interface{}) {
	if level >= LevelTrace && logger != nil {
		logger.Printf("[GPIO] %s pin=%d value=%v", operation, pin, value)
	}
}

// --- General functions ---

// Error prints a debug error (level 1+).
func Error(err error) {
	if level >= LevelInfo && logger != nil {
		logger.Printf("[ERROR] %v", err)
	}
}
