// Package stock holds the rolling stock model: the wagon type catalog and individual wagons.
package stock

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Wagon is a single cargo unit.
// A Wagon value is owned by exactly one siding or rake at a time; ID tells instances apart.
type Wagon struct {
	// ID identifies this instance for the lifetime of the process. It is not persisted.
	ID       uuid.UUID `json:"id"`
	Type     int       `json:"type"`
	Age      uint      `json:"age"`
	Outgoing bool      `json:"outgoing"`
}

// New returns a fresh wagon of type t.
func New(t int) Wagon {
	return Wagon{ID: uuid.New(), Type: t}
}

// Reset readies a departed wagon for reuse.
func (w *Wagon) Reset() {
	w.Age = 0
	w.Outgoing = false
}

func (w Wagon) Weight(c *Catalog) float64 { return c.Weight(w.Type) }

func (w Wagon) Name(c *Catalog) string { return c.Name(w.Type) }

// Record returns the persisted form "type,age,outgoing".
func (w Wagon) Record() string {
	outgoing := "False"
	if w.Outgoing {
		outgoing = "True"
	}
	return fmt.Sprintf("%d,%d,%s", w.Type, w.Age, outgoing)
}

func (w Wagon) String() string {
	return fmt.Sprintf("wagon(%s)", w.Record())
}

// ParseWagon parses "type[,age[,outgoing]]".
// Missing fields default to age 0 and not outgoing; the wagon gets a new ID.
func ParseWagon(s string) (Wagon, error) {
	fields := strings.Split(strings.TrimSpace(s), ",")
	if len(fields) > 3 {
		return Wagon{}, fmt.Errorf("wagon %q: too many fields", s)
	}
	t, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return Wagon{}, fmt.Errorf("wagon %q: type: %w", s, err)
	}
	if t < 0 {
		return Wagon{}, fmt.Errorf("wagon %q: negative type", s)
	}
	w := New(t)
	if len(fields) > 1 {
		age, err := strconv.ParseUint(strings.TrimSpace(fields[1]), 10, 0)
		if err != nil {
			return Wagon{}, fmt.Errorf("wagon %q: age: %w", s, err)
		}
		w.Age = uint(age)
	}
	if len(fields) > 2 {
		switch strings.TrimSpace(fields[2]) {
		case "True":
			w.Outgoing = true
		case "False":
		default:
			return Wagon{}, fmt.Errorf("wagon %q: outgoing must be True or False", s)
		}
	}
	return w, nil
}

// ParseWagons parses each record with ParseWagon.
func ParseWagons(records []string) ([]Wagon, error) {
	res := make([]Wagon, 0, len(records))
	for i, r := range records {
		w, err := ParseWagon(r)
		if err != nil {
			return nil, fmt.Errorf("wagon %d: %w", i, err)
		}
		res = append(res, w)
	}
	return res, nil
}
