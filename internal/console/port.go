package console

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/cjeanneret/StepBench/internal/debug"
	"go.bug.st/serial"
)

// OpenPort opens the control channel. An empty device (or "stdio") uses
// stdin/stdout; anything else is opened as a serial device at the given
// baud rate, 8N1.
func OpenPort(device string, baudRate int) (io.ReadWriteCloser, error) {
	if device == "" || device == "stdio" {
		debug.Info("Console on stdin/stdout")
		return stdioPort{}, nil
	}

	debug.Info("Console on serial port %s @ %d baud", device, baudRate)
	port, err := serial.Open(device, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", device, err)
	}
	return port, nil
}

// stdioPort adapts stdin/stdout to the control-channel interface.
type stdioPort struct{}

func (stdioPort) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioPort) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdioPort) Close() error                { return nil }

// ReadLines feeds command lines from r into a buffered channel, closed when
// the reader reaches EOF or fails. Reading happens on its own goroutine; the
// interpreter consumes the lines on the burst-loop goroutine only.
func ReadLines(r io.Reader) <-chan string {
	ch := make(chan string, 16)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			ch <- sc.Text()
		}
		if err := sc.Err(); err != nil {
			debug.Error(fmt.Errorf("console read: %w", err))
		}
	}()
	return ch
}
