package panel

import (
	"time"

	"nyiyui.ca/hato/stationmaster/yard"
)

// MinRepeat is the shortest time between two accepted presses of the same button.
var MinRepeat = map[yard.Event]time.Duration{
	yard.EventNextMove:   1000 * time.Millisecond,
	yard.EventSelect:     500 * time.Millisecond,
	yard.EventChangeType: 500 * time.Millisecond,
	yard.EventDelete:     500 * time.Millisecond,
	yard.EventShutdown:   0,
}

// Debouncer drops presses that repeat too quickly. The first press of each button is always accepted.
type Debouncer struct {
	now  func() time.Time
	last map[yard.Event]time.Time
}

func NewDebouncer(now func() time.Time) *Debouncer {
	return &Debouncer{
		now:  now,
		last: map[yard.Event]time.Time{},
	}
}

// Allow reports whether a press of e is accepted, and if so records it.
func (d *Debouncer) Allow(e yard.Event) bool {
	now := d.now()
	last, ok := d.last[e]
	if ok && now.Sub(last) <= MinRepeat[e] && MinRepeat[e] > 0 {
		return false
	}
	d.last[e] = now
	return true
}
