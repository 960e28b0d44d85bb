// Package panel reads push-button presses from a microcontroller on a serial port.
//
// The controller writes one line per press:
//
//	N  next move
//	S  select wagon
//	C  change wagon type
//	D  delete empty wagon
//	X  exit
package panel

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/albenik/go-serial/v2"
	"go.uber.org/zap"
	"nyiyui.ca/hato/stationmaster/yard"
)

const (
	baudrate = 9600
	// readTimeout is in milliseconds.
	readTimeout = 1000
)

var lineEvents = map[string]yard.Event{
	"N": yard.EventNextMove,
	"S": yard.EventSelect,
	"C": yard.EventChangeType,
	"D": yard.EventDelete,
	"X": yard.EventShutdown,
}

// ParseLine returns the event for a line written by the controller.
func ParseLine(line string) (yard.Event, bool) {
	e, ok := lineEvents[strings.ToUpper(strings.TrimSpace(line))]
	return e, ok
}

// Scan reads lines from r until EOF or ctx is done, and sends every press the debouncer allows.
func Scan(ctx context.Context, r io.Reader, d *Debouncer, send func(yard.Event)) error {
	reader := bufio.NewReader(r)
	var partial string
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := reader.ReadString('\n')
		partial += line
		if errors.Is(err, io.ErrNoProgress) {
			// read timeouts without data
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if err == nil || partial != "" {
			handleLine(partial, d, send)
			partial = ""
		}
		if err != nil {
			return nil
		}
	}
}

func handleLine(line string, d *Debouncer, send func(yard.Event)) {
	if strings.TrimSpace(line) == "" {
		return
	}
	e, ok := ParseLine(line)
	if !ok {
		zap.S().Debugf("panel: ignored line %q", line)
		return
	}
	if !d.Allow(e) {
		zap.S().Debugf("panel: %s too soon", e)
		return
	}
	send(e)
}

// Run reads the panel at path until ctx is done.
func Run(ctx context.Context, path string, send func(yard.Event)) error {
	zap.S().Infof("panel: connecting to %s", path)
	port, err := serial.Open(path,
		serial.WithBaudrate(baudrate),
		serial.WithReadTimeout(readTimeout),
	)
	if err != nil {
		return fmt.Errorf("panel %s: %w", path, err)
	}
	defer port.Close() // ignore error
	go func() {
		<-ctx.Done()
		port.Close()
	}()
	err = Scan(ctx, port, NewDebouncer(time.Now), send)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("panel %s: %w", path, err)
	}
	return nil
}
