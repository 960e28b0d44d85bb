package yard

import (
	"fmt"

	"go.uber.org/zap"
	"nyiyui.ca/hato/stationmaster/stock"
)

// NoAcceptingSidingError means no siding accepts a wagon type at all.
// This is a configuration error.
type NoAcceptingSidingError struct {
	Type int
	Name string
}

func (e *NoAcceptingSidingError) Error() string {
	return fmt.Sprintf("no siding accepts wagon type %d (%q)", e.Type, e.Name)
}

// heldBack reports whether w is an empty wagon no siding accepts.
// Such wagons stay in their rake instead of being allocated.
func (y *Yard) heldBack(w stock.Wagon) bool {
	return w.Type == y.catalog.Sentinel() && len(y.accepting(w.Type)) == 0
}

// checkAccepted returns an error if any wagon in train, other than held back ones, has no accepting siding.
func (y *Yard) checkAccepted(train []stock.Wagon) error {
	for _, w := range train {
		if y.heldBack(w) {
			continue
		}
		if len(y.accepting(w.Type)) == 0 {
			return &NoAcceptingSidingError{Type: w.Type, Name: y.catalog.Name(w.Type)}
		}
	}
	return nil
}

// Allocate places every wagon of train onto a siding, in train order.
//
// Each wagon goes to a random accepting siding with room under the capacity policy.
// If none has room, it is forced onto the first accepting siding; this counts as an overflow.
// Empty wagons that no siding accepts are left out and logged.
// If some other wagon has no accepting siding at all, nothing is placed and a *NoAcceptingSidingError is returned.
func (y *Yard) Allocate(train []stock.Wagon) (overflows int, err error) {
	err = y.checkAccepted(train)
	if err != nil {
		return 0, err
	}
	overflows, _, held := y.place(train)
	if len(held) > 0 {
		zap.S().Warnw("empty wagons not placed, no siding accepts them", "wagons", held)
	}
	return overflows, nil
}

// place allocates train after checkAccepted, returning the placed and held back wagons.
func (y *Yard) place(train []stock.Wagon) (overflows int, placed, held []stock.Wagon) {
	for _, w := range train {
		if y.heldBack(w) {
			held = append(held, w)
			continue
		}
		accepting := y.accepting(w.Type)
		roomy := accepting[:0:0]
		for _, si := range accepting {
			if y.capacity.HasRoom(&y.sidings[si], w, y.catalog) {
				roomy = append(roomy, si)
			}
		}
		var si int
		if len(roomy) > 0 {
			si = roomy[y.rand.Intn(len(roomy))]
		} else {
			si = accepting[0]
			overflows++
			y.overflows++
			zap.S().Warnw("siding overflow",
				"siding", si,
				"wagon", w,
				"type", y.catalog.Name(w.Type),
				"overflows", y.overflows)
		}
		y.sidings[si].Wagons = append(y.sidings[si].Wagons, w)
		placed = append(placed, w)
	}
	return overflows, placed, held
}
