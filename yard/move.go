package yard

import (
	"fmt"

	"go.uber.org/zap"
	"nyiyui.ca/hato/stationmaster/stock"
	"nyiyui.ca/hato/stationmaster/timetable"
)

// MoveReport describes what one AdvanceMove did.
type MoveReport struct {
	// Left is the move the cursor moved away from.
	Left      timetable.Move `json:"left"`
	LeftIndex int            `json:"left-index"`
	// Entered is the move the cursor is now at.
	Entered      timetable.Move `json:"entered"`
	EnteredIndex int            `json:"entered-index"`
	// DepartRake is the rake slot filled by the departure, or -1.
	DepartRake int           `json:"depart-rake"`
	Departed   []stock.Wagon `json:"departed"`
	// ArriveRake is the rake slot emptied by the arrival, or -1.
	ArriveRake int           `json:"arrive-rake"`
	Arrived    []stock.Wagon `json:"arrived"`
	// Held is the empty wagons left in the arrival rake because no siding accepts them.
	Held      []stock.Wagon `json:"held"`
	Selected  []stock.Wagon `json:"selected"`
	Overflows int           `json:"overflows"`
	Wrapped   bool          `json:"wrapped"`
}

// arrivalRake returns the rake slot an arrival at the next move would empty.
func (y *Yard) arrivalRake(leaving timetable.Move) int {
	if len(y.rakes) == 0 {
		return -1
	}
	if leaving.Kind == timetable.Departure {
		return (y.nextRake + 1) % len(y.rakes)
	}
	return y.nextRake
}

// AdvanceMove steps the timetable to the next move.
//
// Leaving a departure moves the outgoing wagons onto the active rake and rotates the active rake.
// Every step ages the siding wagons.
// Entering an arrival selects the next outgoing wagons, then distributes the active rake over the sidings and empties it.
// Empty wagons no siding accepts stay in the rake.
// Wrapping past the last move restarts the clock at midnight.
//
// The only error is a *NoAcceptingSidingError from the arrival, for a wagon type missing from the layout.
// It is detected before anything changes.
func (y *Yard) AdvanceMove() (MoveReport, error) {
	left := y.timetable[y.moveIndex]
	enteredIndex := y.timetable.Next(y.moveIndex)
	entered := y.timetable[enteredIndex]
	r := MoveReport{
		Left:         left,
		LeftIndex:    y.moveIndex,
		Entered:      entered,
		EnteredIndex: enteredIndex,
		DepartRake:   -1,
		ArriveRake:   -1,
	}
	if entered.Kind == timetable.Arrival {
		if ri := y.arrivalRake(left); ri != -1 {
			if err := y.checkAccepted(y.rakes[ri].Wagons); err != nil {
				return r, fmt.Errorf("arrival %d (%s): %w", enteredIndex, entered.Description, err)
			}
		}
	}

	if left.Kind == timetable.Departure && len(y.rakes) > 0 {
		r.DepartRake = y.nextRake
		r.Departed = y.TransferOutgoing(y.nextRake)
		y.nextRake = (y.nextRake + 1) % len(y.rakes)
	}
	y.AgeAll()
	y.moveIndex = enteredIndex
	if y.moveIndex == 0 {
		y.clock = 0
		r.Wrapped = true
	}
	y.target = entered.Minute
	if entered.Kind == timetable.Arrival && len(y.rakes) > 0 {
		r.Selected = y.SelectOutgoing()
		rake := &y.rakes[y.nextRake]
		r.ArriveRake = y.nextRake
		overflows, placed, held := y.place(rake.Wagons)
		r.Arrived = placed
		r.Held = held
		r.Overflows = overflows
		rake.Wagons = held
		if len(held) > 0 {
			zap.S().Warnw("empty wagons held in rake, no siding accepts them",
				"rake", y.nextRake,
				"wagons", len(held))
		}
	}
	y.fixCursor()
	zap.S().Infow("move",
		"index", y.moveIndex,
		"kind", entered.Kind,
		"description", entered.Description,
		"departed", len(r.Departed),
		"arrived", len(r.Arrived),
		"overflows", r.Overflows)
	return r, nil
}

// TickClock advances the simulated clock by a minute until it reaches the current move's time.
func (y *Yard) TickClock() {
	if y.clock < y.target {
		y.clock++
	}
}
