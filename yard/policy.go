package yard

import (
	"fmt"

	"golang.org/x/exp/slices"
	"nyiyui.ca/hato/stationmaster/stock"
)

const (
	PolicyCount  = "count"
	PolicyWeight = "weight"
)

// CapacityPolicy decides whether a siding has room for another wagon.
type CapacityPolicy interface {
	Name() string
	HasRoom(s *Siding, w stock.Wagon, c *stock.Catalog) bool
	// Within reports whether the siding's contents respect its capacity.
	Within(s *Siding, c *stock.Catalog) bool
}

// CountCapacity limits a siding to Capacity wagons regardless of type.
type CountCapacity struct{}

func (CountCapacity) Name() string { return PolicyCount }

func (CountCapacity) HasRoom(s *Siding, _ stock.Wagon, _ *stock.Catalog) bool {
	return len(s.Wagons) < s.Capacity
}

func (CountCapacity) Within(s *Siding, _ *stock.Catalog) bool {
	return len(s.Wagons) <= s.Capacity
}

// WeightCapacity limits the summed wagon weight on a siding to Capacity.
type WeightCapacity struct{}

func (WeightCapacity) Name() string { return PolicyWeight }

func (WeightCapacity) HasRoom(s *Siding, w stock.Wagon, c *stock.Catalog) bool {
	return s.Load(c)+w.Weight(c) <= float64(s.Capacity)
}

func (WeightCapacity) Within(s *Siding, c *stock.Catalog) bool {
	return s.Load(c) <= float64(s.Capacity)
}

// ParseCapacityPolicy returns the capacity policy named count or weight.
func ParseCapacityPolicy(name string) (CapacityPolicy, error) {
	switch name {
	case PolicyCount:
		return CountCapacity{}, nil
	case PolicyWeight:
		return WeightCapacity{}, nil
	default:
		return nil, fmt.Errorf("unknown capacity policy %q", name)
	}
}

// Candidate is a siding-resident wagon considered for departure, in scan order.
type Candidate struct {
	Siding int
	Index  int
	Age    uint
	Weight float64
}

// SelectionPolicy picks the wagons forming the next departing train.
// It returns positions into cands.
type SelectionPolicy interface {
	Name() string
	Select(cands []Candidate, trainCapacity int) []int
}

// CountSelection keeps the trainCapacity oldest wagons.
type CountSelection struct{}

func (CountSelection) Name() string { return PolicyCount }

func (CountSelection) Select(cands []Candidate, trainCapacity int) []int {
	if trainCapacity <= 0 {
		return nil
	}
	oldest := make([]int, 0, trainCapacity)
	for pos, cand := range cands {
		if len(oldest) < trainCapacity {
			oldest = append(oldest, pos)
			continue
		}
		yi := youngest(cands, oldest)
		if cand.Age > cands[oldest[yi]].Age {
			oldest[yi] = pos
		}
	}
	return oldest
}

// WeightSelection keeps the oldest wagons whose summed weight fits in trainCapacity.
type WeightSelection struct{}

func (WeightSelection) Name() string { return PolicyWeight }

func (WeightSelection) Select(cands []Candidate, trainCapacity int) []int {
	limit := float64(trainCapacity)
	oldest := make([]int, 0)
	var sum float64
	for pos, cand := range cands {
		oldest = append(oldest, pos)
		sum += cand.Weight
		for sum > limit && len(oldest) > 0 {
			yi := youngest(cands, oldest)
			sum -= cands[oldest[yi]].Weight
			oldest = slices.Delete(oldest, yi, yi+1)
		}
	}
	return oldest
}

// youngest returns the index into oldest of the minimum-age member.
// Of equal ages, the one scanned last is chosen, so earlier wagons win ties.
func youngest(cands []Candidate, oldest []int) int {
	res := 0
	for i, pos := range oldest {
		best := cands[oldest[res]]
		c := cands[pos]
		if c.Age < best.Age || (c.Age == best.Age && pos > oldest[res]) {
			res = i
		}
	}
	return res
}

// ParseSelectionPolicy returns the selection policy named count or weight.
func ParseSelectionPolicy(name string) (SelectionPolicy, error) {
	switch name {
	case PolicyCount:
		return CountSelection{}, nil
	case PolicyWeight:
		return WeightSelection{}, nil
	default:
		return nil, fmt.Errorf("unknown selection policy %q", name)
	}
}
