// Package yard is the yard scheduling and state engine.
//
// A Yard owns every siding, every rake slot, the timetable cursor and the simulated clock.
// It is not safe for concurrent use; the runtime package serialises all access.
package yard

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/exp/slices"
	"nyiyui.ca/hato/stationmaster/stock"
	"nyiyui.ca/hato/stationmaster/timetable"
)

// maxAgeStep is the largest age increment applied to a wagon per move.
const maxAgeStep = 5

// Rand is the only source of randomness used by the yard.
// *math/rand.Rand satisfies it.
type Rand interface {
	// Intn returns a uniformly random integer in [0, n).
	Intn(n int) int
}

// Conf holds what New needs to build a Yard.
type Conf struct {
	Catalog       *stock.Catalog
	Sidings       []Siding
	Timetable     timetable.Timetable
	TrainCapacity int
	// Rakes is the initial contents of each rake slot. Its length fixes the rake pool size.
	Rakes [][]stock.Wagon
	// Capacity defaults to CountCapacity.
	Capacity CapacityPolicy
	// Selection defaults to WeightSelection.
	Selection SelectionPolicy
	// Rand defaults to a time-seeded source.
	Rand Rand
}

// Yard is a goods yard: sidings, rake slots and the timetable cursor.
type Yard struct {
	catalog       *stock.Catalog
	sidings       []Siding
	rakes         []Rake
	nextRake      int
	timetable     timetable.Timetable
	moveIndex     int
	clock         int
	target        int
	trainCapacity int
	capacity      CapacityPolicy
	selection     SelectionPolicy
	rand          Rand
	cursor        Cursor
	overflows     int
}

// New checks conf and returns a yard positioned at the first move.
// The sidings and rakes in conf are copied.
func New(conf Conf) (*Yard, error) {
	if conf.Catalog == nil {
		return nil, errors.New("no wagon types")
	}
	if len(conf.Timetable) == 0 {
		return nil, errors.New("empty timetable")
	}
	if len(conf.Sidings) == 0 {
		return nil, errors.New("no sidings")
	}
	for si, s := range conf.Sidings {
		if s.Capacity < 0 {
			return nil, fmt.Errorf("siding %d: negative capacity", si)
		}
		for _, t := range s.AcceptedTypes {
			if !conf.Catalog.Valid(t) {
				return nil, fmt.Errorf("siding %d: accepts unknown wagon type %d", si, t)
			}
		}
	}
	if conf.TrainCapacity < 0 {
		return nil, errors.New("negative train capacity")
	}
	y := &Yard{
		catalog:       conf.Catalog,
		sidings:       make([]Siding, len(conf.Sidings)),
		rakes:         make([]Rake, len(conf.Rakes)),
		timetable:     conf.Timetable,
		trainCapacity: conf.TrainCapacity,
		capacity:      conf.Capacity,
		selection:     conf.Selection,
		rand:          conf.Rand,
	}
	for i := range conf.Sidings {
		y.sidings[i] = conf.Sidings[i].clone()
	}
	for i, r := range conf.Rakes {
		y.rakes[i] = Rake{Wagons: slices.Clone(r)}
	}
	if y.capacity == nil {
		y.capacity = CountCapacity{}
	}
	if y.selection == nil {
		y.selection = WeightSelection{}
	}
	if y.rand == nil {
		y.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	for t := 0; t < y.catalog.Len(); t++ {
		if t == y.catalog.Sentinel() {
			continue
		}
		if len(y.accepting(t)) == 0 {
			return nil, &NoAcceptingSidingError{Type: t, Name: y.catalog.Name(t)}
		}
	}
	if len(y.rakes) == 0 && y.hasTrainMoves() {
		return nil, errors.New("timetable has arrivals or departures but there are no rake slots")
	}
	y.target = y.timetable[0].Minute
	return y, nil
}

func (y *Yard) hasTrainMoves() bool {
	for _, m := range y.timetable {
		if m.Kind != timetable.Neutral {
			return true
		}
	}
	return false
}

// accepting returns the indices of sidings accepting type t, in siding order.
func (y *Yard) accepting(t int) []int {
	res := make([]int, 0, len(y.sidings))
	for i := range y.sidings {
		if y.sidings[i].Accepts(t) {
			res = append(res, i)
		}
	}
	return res
}

func (y *Yard) Catalog() *stock.Catalog          { return y.catalog }
func (y *Yard) Timetable() timetable.Timetable   { return y.timetable }
func (y *Yard) MoveIndex() int                   { return y.moveIndex }
func (y *Yard) CurrentMove() timetable.Move      { return y.timetable[y.moveIndex] }
func (y *Yard) Clock() int                       { return y.clock }
func (y *Yard) Target() int                      { return y.target }
func (y *Yard) TrainCapacity() int               { return y.trainCapacity }
func (y *Yard) NextRake() int                    { return y.nextRake }
func (y *Yard) SidingCount() int                 { return len(y.sidings) }
func (y *Yard) RakeCount() int                   { return len(y.rakes) }
func (y *Yard) CapacityPolicy() CapacityPolicy   { return y.capacity }
func (y *Yard) SelectionPolicy() SelectionPolicy { return y.selection }
func (y *Yard) Cursor() Cursor                   { return y.cursor }

// Overflows is the number of wagons force-placed beyond capacity since the yard was created.
func (y *Yard) Overflows() int { return y.overflows }

// Siding returns a copy of siding i.
func (y *Yard) Siding(i int) Siding { return y.sidings[i].clone() }

// Rake returns a copy of rake slot i.
func (y *Yard) Rake(i int) Rake { return y.rakes[i].clone() }

// WagonCount counts every wagon in every siding and rake.
func (y *Yard) WagonCount() int {
	n := 0
	for i := range y.sidings {
		n += len(y.sidings[i].Wagons)
	}
	for i := range y.rakes {
		n += len(y.rakes[i].Wagons)
	}
	return n
}

// AgeAll ages every wagon standing in a siding by a random 1 to 5.
func (y *Yard) AgeAll() {
	for i := range y.sidings {
		y.sidings[i].age(y.rand)
	}
}

// SelectOutgoing marks the wagons making up the next departure, as chosen by the selection policy.
// Sidings are scanned in order, and wagons within a siding in placement order.
func (y *Yard) SelectOutgoing() []stock.Wagon {
	cands := make([]Candidate, 0)
	for si := range y.sidings {
		for wi, w := range y.sidings[si].Wagons {
			cands = append(cands, Candidate{
				Siding: si,
				Index:  wi,
				Age:    w.Age,
				Weight: w.Weight(y.catalog),
			})
		}
	}
	chosen := y.selection.Select(cands, y.trainCapacity)
	marked := make([]stock.Wagon, 0, len(chosen))
	for _, pos := range chosen {
		c := cands[pos]
		w := &y.sidings[c.Siding].Wagons[c.Index]
		w.Outgoing = true
		marked = append(marked, *w)
	}
	return marked
}

// TransferOutgoing moves every outgoing wagon from the sidings onto rake slot ri.
// Moved wagons are reset (age 0, not outgoing). Returns the moved wagons.
func (y *Yard) TransferOutgoing(ri int) []stock.Wagon {
	rake := &y.rakes[ri]
	moved := make([]stock.Wagon, 0)
	for si := range y.sidings {
		for _, w := range y.sidings[si].takeOutgoing() {
			w.Reset()
			moved = append(moved, w)
		}
	}
	rake.Wagons = append(rake.Wagons, moved...)
	y.fixCursor()
	return moved
}
