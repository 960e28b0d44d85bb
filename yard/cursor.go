package yard

import (
	"fmt"

	"golang.org/x/exp/slices"
	"nyiyui.ca/hato/stationmaster/stock"
)

// Cursor selects a single wagon in the rake pool, for an operator to inspect or change it.
// The zero value selects nothing.
type Cursor struct {
	Valid bool `json:"valid"`
	Rake  int  `json:"rake"`
	Wagon int  `json:"wagon"`
}

func (c Cursor) String() string {
	if !c.Valid {
		return "cursor(none)"
	}
	return fmt.Sprintf("cursor(%d/%d)", c.Rake, c.Wagon)
}

func (y *Yard) inBounds(c Cursor) bool {
	return c.Valid && c.Rake >= 0 && c.Rake < len(y.rakes) && c.Wagon >= 0 && c.Wagon < len(y.rakes[c.Rake].Wagons)
}

// fixCursor clears the cursor if the wagon it pointed at no longer exists.
func (y *Yard) fixCursor() {
	if y.cursor.Valid && !y.inBounds(y.cursor) {
		y.cursor = Cursor{}
	}
}

// Selected returns the wagon under the cursor.
func (y *Yard) Selected() (stock.Wagon, bool) {
	if !y.inBounds(y.cursor) {
		return stock.Wagon{}, false
	}
	return y.rakes[y.cursor.Rake].Wagons[y.cursor.Wagon], true
}

// CycleSelection moves the cursor to the next wagon, going through the rakes in order.
// From no selection it goes to the first wagon; past the last wagon it clears the selection.
// Empty rakes are skipped.
func (y *Yard) CycleSelection() {
	ri, wi := 0, 0
	if y.cursor.Valid {
		ri, wi = y.cursor.Rake, y.cursor.Wagon+1
	}
	for ; ri < len(y.rakes); ri, wi = ri+1, 0 {
		if wi < len(y.rakes[ri].Wagons) {
			y.cursor = Cursor{Valid: true, Rake: ri, Wagon: wi}
			return
		}
	}
	y.cursor = Cursor{}
}

// CycleSelectedType changes the selected wagon to the next type in the catalog (including the sentinel).
func (y *Yard) CycleSelectedType() {
	if !y.inBounds(y.cursor) {
		return
	}
	w := &y.rakes[y.cursor.Rake].Wagons[y.cursor.Wagon]
	w.Type = y.catalog.Next(w.Type)
}

// DeleteSelectedIfSentinel removes the selected wagon if it is of the sentinel (empty) type, and clears the cursor.
// Other wagons are left alone.
func (y *Yard) DeleteSelectedIfSentinel() bool {
	w, ok := y.Selected()
	if !ok || w.Type != y.catalog.Sentinel() {
		return false
	}
	rake := &y.rakes[y.cursor.Rake]
	rake.Wagons = slices.Delete(rake.Wagons, y.cursor.Wagon, y.cursor.Wagon+1)
	y.cursor = Cursor{}
	return true
}
