package yard

import (
	"golang.org/x/exp/slices"
	"nyiyui.ca/hato/stationmaster/stock"
	"nyiyui.ca/hato/stationmaster/timetable"
)

// Wagon colour classes, as drawn by renderers.
const (
	ClassFresh    = "fresh"
	ClassOutgoing = "outgoing"
	ClassResident = "resident"
	ClassSpare    = "spare"
)

type WagonView struct {
	Name     string `json:"name"`
	Type     int    `json:"type"`
	Age      uint   `json:"age"`
	Outgoing bool   `json:"outgoing"`
	Class    string `json:"class"`
	Selected bool   `json:"selected"`
}

type SidingView struct {
	Capacity      int         `json:"capacity"`
	Load          float64     `json:"load"`
	AcceptedTypes []int       `json:"accepted-types"`
	Vertices      []Point     `json:"vertices"`
	Wagons        []WagonView `json:"wagons"`
}

type RakeView struct {
	Active bool        `json:"active"`
	Wagons []WagonView `json:"wagons"`
}

// Snapshot is a read-only copy of the yard for renderers.
type Snapshot struct {
	MoveIndex  int             `json:"move-index"`
	MoveCount  int             `json:"move-count"`
	Previous   *timetable.Move `json:"previous"`
	Current    *timetable.Move `json:"current"`
	Next       *timetable.Move `json:"next"`
	Clock      int             `json:"clock"`
	ClockText  string          `json:"clock-text"`
	Target     int             `json:"target"`
	TargetText string          `json:"target-text"`

	TrainCapacity int    `json:"train-capacity"`
	Capacity      string `json:"capacity-policy"`
	Selection     string `json:"selection-policy"`

	Sidings   []SidingView `json:"sidings"`
	Rakes     []RakeView   `json:"rakes"`
	NextRake  int          `json:"next-rake"`
	Cursor    Cursor       `json:"cursor"`
	Overflows int          `json:"overflows"`
	Wagons    int          `json:"wagons"`
}

func (y *Yard) view(w stock.Wagon, class string) WagonView {
	return WagonView{
		Name:     y.catalog.Name(w.Type),
		Type:     w.Type,
		Age:      w.Age,
		Outgoing: w.Outgoing,
		Class:    class,
	}
}

func sidingClass(w stock.Wagon) string {
	switch {
	case w.Age == 0:
		return ClassFresh
	case w.Outgoing:
		return ClassOutgoing
	default:
		return ClassResident
	}
}

// Snapshot returns a copy of the yard for display.
func (y *Yard) Snapshot() Snapshot {
	prev, cur, next := y.timetable.Around(y.moveIndex)
	s := Snapshot{
		MoveIndex:     y.moveIndex,
		MoveCount:     len(y.timetable),
		Previous:      prev,
		Current:       cur,
		Next:          next,
		Clock:         y.clock,
		ClockText:     timetable.FormatMinute(y.clock),
		Target:        y.target,
		TargetText:    timetable.FormatMinute(y.target),
		TrainCapacity: y.trainCapacity,
		Capacity:      y.capacity.Name(),
		Selection:     y.selection.Name(),
		Sidings:       make([]SidingView, len(y.sidings)),
		Rakes:         make([]RakeView, len(y.rakes)),
		NextRake:      y.nextRake,
		Cursor:        y.cursor,
		Overflows:     y.overflows,
		Wagons:        y.WagonCount(),
	}
	for si := range y.sidings {
		sd := &y.sidings[si]
		sv := SidingView{
			Capacity:      sd.Capacity,
			Load:          sd.Load(y.catalog),
			AcceptedTypes: slices.Clone(sd.AcceptedTypes),
			Vertices:      slices.Clone(sd.Vertices),
			Wagons:        make([]WagonView, len(sd.Wagons)),
		}
		for wi, w := range sd.Wagons {
			sv.Wagons[wi] = y.view(w, sidingClass(w))
		}
		s.Sidings[si] = sv
	}
	for ri := range y.rakes {
		rv := RakeView{
			Active: ri == y.nextRake,
			Wagons: make([]WagonView, len(y.rakes[ri].Wagons)),
		}
		for wi, w := range y.rakes[ri].Wagons {
			rv.Wagons[wi] = y.view(w, ClassSpare)
			rv.Wagons[wi].Selected = y.cursor.Valid && y.cursor.Rake == ri && y.cursor.Wagon == wi
		}
		s.Rakes[ri] = rv
	}
	return s
}
