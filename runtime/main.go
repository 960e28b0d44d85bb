// Package runtime runs the yard: one loop owns the Yard and applies operator events at a fixed tick.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"nyiyui.ca/hato/stationmaster/journal"
	"nyiyui.ca/hato/stationmaster/notify"
	"nyiyui.ca/hato/stationmaster/statefile"
	"nyiyui.ca/hato/stationmaster/yard"
)

const (
	DefaultTick = 200 * time.Millisecond
	eventBuffer = 16
)

// ErrShutdown is returned by Tick after an EventShutdown has saved the state.
var ErrShutdown = errors.New("shutdown")

type Conf struct {
	Yard *yard.Yard
	// StatePath is where the state is saved on shutdown. Empty disables saving.
	StatePath string
	// Journal is optional.
	Journal *journal.Journal
	Tick    time.Duration
}

type Instance struct {
	conf        Conf
	events      chan yard.Event
	yardLock    sync.Mutex
	SnapshotMux *notify.Multiplexer[yard.Snapshot]
}

func NewInstance(conf Conf) *Instance {
	if conf.Tick <= 0 {
		conf.Tick = DefaultTick
	}
	return &Instance{
		conf:        conf,
		events:      make(chan yard.Event, eventBuffer),
		SnapshotMux: notify.NewMultiplexer[yard.Snapshot]("snapshot"),
	}
}

// Send queues an event for a later tick. Events beyond the buffer are dropped.
func (i *Instance) Send(e yard.Event) {
	select {
	case i.events <- e:
	default:
		zap.S().Warnf("event queue full, dropped %s", e)
	}
}

// Snapshot returns the current view of the yard.
func (i *Instance) Snapshot() yard.Snapshot {
	i.yardLock.Lock()
	defer i.yardLock.Unlock()
	return i.conf.Yard.Snapshot()
}

// Save writes the yard state to StatePath.
func (i *Instance) Save() error {
	if i.conf.StatePath == "" {
		return nil
	}
	i.yardLock.Lock()
	st := i.conf.Yard.State()
	i.yardLock.Unlock()
	err := statefile.Save(i.conf.StatePath, st)
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	zap.S().Infow("saved state", "path", i.conf.StatePath, "move", st.MoveIndex)
	return nil
}

// Step applies e to the yard and journals any move it made.
// A *yard.NoAcceptingSidingError is returned as is; the caller must stop without saving.
// Other yard errors are logged and ignored.
func (i *Instance) Step(e yard.Event) error {
	if e == yard.EventShutdown {
		return ErrShutdown
	}
	i.yardLock.Lock()
	report, err := i.conf.Yard.HandleEvent(e)
	i.yardLock.Unlock()
	if err != nil {
		var nas *yard.NoAcceptingSidingError
		if errors.As(err, &nas) {
			return err
		}
		zap.S().Warnf("event %s: %s", e, err)
		return nil
	}
	if report == nil || i.conf.Journal == nil {
		return nil
	}
	_, err = i.conf.Journal.Record(*report)
	if err != nil {
		zap.S().Errorw("journal failed", "err", err)
	}
	return nil
}

// Tick applies at most one queued event, advances the clock and publishes a snapshot.
func (i *Instance) Tick() error {
	select {
	case e := <-i.events:
		err := i.Step(e)
		if err != nil {
			return err
		}
	default:
	}
	i.yardLock.Lock()
	i.conf.Yard.TickClock()
	s := i.conf.Yard.Snapshot()
	i.yardLock.Unlock()
	i.SnapshotMux.Send(s)
	return nil
}

// Run ticks until ctx is done or a shutdown event arrives, then saves the state.
// A fatal yard error stops the loop without saving.
func (i *Instance) Run(ctx context.Context) error {
	i.SnapshotMux.Send(i.Snapshot())
	ticker := time.NewTicker(i.conf.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return i.Save()
		case <-ticker.C:
			err := i.Tick()
			if errors.Is(err, ErrShutdown) {
				zap.S().Info("shutdown requested")
				return i.Save()
			}
			if err != nil {
				return fmt.Errorf("yard: %w", err)
			}
		}
	}
}
