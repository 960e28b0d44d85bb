package yard

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
	"nyiyui.ca/hato/stationmaster/stock"
)

// State is everything about a yard that survives a restart.
type State struct {
	MoveIndex int
	NextRake  int
	// Sidings holds each siding's wagons, in siding order.
	Sidings [][]stock.Wagon
	// Rakes holds each rake slot's wagons, in slot order (not rotated by NextRake).
	Rakes [][]stock.Wagon
}

// State returns a copy of the persistent part of the yard.
func (y *Yard) State() State {
	st := State{
		MoveIndex: y.moveIndex,
		NextRake:  y.nextRake,
		Sidings:   make([][]stock.Wagon, len(y.sidings)),
		Rakes:     make([][]stock.Wagon, len(y.rakes)),
	}
	for i := range y.sidings {
		st.Sidings[i] = slices.Clone(y.sidings[i].Wagons)
	}
	for i := range y.rakes {
		st.Rakes[i] = slices.Clone(y.rakes[i].Wagons)
	}
	return st
}

// Restore replaces the wagons, timetable cursor and active rake with st.
// st may have fewer sidings than the yard (the rest are emptied) but not more.
// st.Rakes replaces the rake pool entirely. The clock restarts from midnight.
func (y *Yard) Restore(st State) error {
	if st.MoveIndex < 0 || st.MoveIndex >= len(y.timetable) {
		return fmt.Errorf("move index %d out of range (timetable has %d moves)", st.MoveIndex, len(y.timetable))
	}
	if len(st.Sidings) > len(y.sidings) {
		return fmt.Errorf("state has %d sidings, layout has %d", len(st.Sidings), len(y.sidings))
	}
	if len(st.Rakes) == 0 {
		if y.hasTrainMoves() {
			return errors.New("state has no rake slots")
		}
	} else if st.NextRake < 0 || st.NextRake >= len(st.Rakes) {
		return fmt.Errorf("next rake %d out of range (%d rakes)", st.NextRake, len(st.Rakes))
	}
	for i := range y.sidings {
		if i < len(st.Sidings) {
			y.sidings[i].Wagons = slices.Clone(st.Sidings[i])
		} else {
			y.sidings[i].Wagons = nil
		}
	}
	y.rakes = make([]Rake, len(st.Rakes))
	for i := range st.Rakes {
		y.rakes[i] = Rake{Wagons: slices.Clone(st.Rakes[i])}
	}
	y.nextRake = st.NextRake
	y.moveIndex = st.MoveIndex
	y.clock = 0
	y.target = y.timetable[y.moveIndex].Minute
	y.cursor = Cursor{}
	return nil
}
