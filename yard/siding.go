package yard

import (
	"fmt"

	"golang.org/x/exp/slices"
	"nyiyui.ca/hato/stationmaster/stock"
)

// Point is a vertex of a siding's drawn track, in screen units.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Siding is a storage track holding wagons.
type Siding struct {
	Capacity int
	// AcceptedTypes restricts which wagon types may be placed here. Empty accepts all.
	AcceptedTypes []int
	// Vertices is only used for drawing.
	Vertices []Point
	// Wagons is in placement order.
	Wagons []stock.Wagon
}

func (s *Siding) String() string {
	return fmt.Sprintf("siding(cap%d accepts%v %d wagons)", s.Capacity, s.AcceptedTypes, len(s.Wagons))
}

// Accepts reports whether wagons of type t may be placed here.
func (s *Siding) Accepts(t int) bool {
	return len(s.AcceptedTypes) == 0 || slices.Contains(s.AcceptedTypes, t)
}

// Load is the summed weight of the wagons on this siding.
func (s *Siding) Load(c *stock.Catalog) float64 {
	var sum float64
	for _, w := range s.Wagons {
		sum += w.Weight(c)
	}
	return sum
}

func (s *Siding) age(rnd Rand) {
	for i := range s.Wagons {
		s.Wagons[i].Age += uint(1 + rnd.Intn(maxAgeStep))
	}
}

// takeOutgoing removes the outgoing wagons, keeping the order of both the removed and the remaining wagons.
func (s *Siding) takeOutgoing() (outgoing []stock.Wagon) {
	remaining := s.Wagons[:0:0]
	for _, w := range s.Wagons {
		if w.Outgoing {
			outgoing = append(outgoing, w)
		} else {
			remaining = append(remaining, w)
		}
	}
	s.Wagons = remaining
	return outgoing
}

func (s *Siding) clone() Siding {
	s2 := *s
	s2.AcceptedTypes = slices.Clone(s.AcceptedTypes)
	s2.Vertices = slices.Clone(s.Vertices)
	s2.Wagons = slices.Clone(s.Wagons)
	return s2
}

// Rake is one train's consist, either waiting to arrive or just departed.
type Rake struct {
	Wagons []stock.Wagon
}

func (r *Rake) clone() Rake {
	return Rake{Wagons: slices.Clone(r.Wagons)}
}
