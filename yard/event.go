package yard

import "fmt"

// Event is a discrete operator input.
type Event int

const (
	EventNone Event = iota
	// EventNextMove advances the timetable.
	EventNextMove
	// EventTick advances the simulated clock.
	EventTick
	// EventSelect moves the wagon selection cursor.
	EventSelect
	// EventChangeType cycles the selected wagon's type.
	EventChangeType
	// EventDelete deletes the selected wagon if it is the empty type.
	EventDelete
	// EventShutdown asks the runtime to save and stop. The yard itself ignores it.
	EventShutdown
)

var eventNames = map[Event]string{
	EventNone:       "none",
	EventNextMove:   "next-move",
	EventTick:       "tick",
	EventSelect:     "select",
	EventChangeType: "change-type",
	EventDelete:     "delete",
	EventShutdown:   "shutdown",
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// HandleEvent applies a single event.
// The report is only non-nil for EventNextMove.
func (y *Yard) HandleEvent(e Event) (*MoveReport, error) {
	switch e {
	case EventNextMove:
		r, err := y.AdvanceMove()
		if err != nil {
			return nil, err
		}
		return &r, nil
	case EventTick:
		y.TickClock()
	case EventSelect:
		y.CycleSelection()
	case EventChangeType:
		y.CycleSelectedType()
	case EventDelete:
		y.DeleteSelectedIfSentinel()
	case EventNone, EventShutdown:
	default:
		return nil, fmt.Errorf("unknown event %s", e)
	}
	return nil, nil
}
