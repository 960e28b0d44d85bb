package stock

import (
	"fmt"
	"strconv"
	"strings"
)

// unknownName is shown for a wagon whose type is not in the catalog.
const unknownName = "?"

// Type is a kind of cargo wagon.
type Type struct {
	Name string `json:"name"`
	// Weight is how much of a siding's (or a train's) capacity one wagon of this type uses.
	Weight float64 `json:"weight"`
}

// ParseType parses a "name,weight" definition.
func ParseType(defn string) (Type, error) {
	fields := strings.Split(defn, ",")
	if len(fields) != 2 {
		return Type{}, fmt.Errorf("wagon type %q: expected name,weight", defn)
	}
	weight, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return Type{}, fmt.Errorf("wagon type %q: weight: %w", defn, err)
	}
	if weight < 0 {
		return Type{}, fmt.Errorf("wagon type %q: negative weight", defn)
	}
	return Type{Name: strings.TrimSpace(fields[0]), Weight: weight}, nil
}

// Catalog is the ordered list of wagon types.
// A wagon refers to its type by index, so the catalog is never reordered once built.
// The last entry is always the sentinel "empty" type.
type Catalog struct {
	types []Type
}

// NewCatalog builds a catalog from types and appends the sentinel.
func NewCatalog(types []Type) *Catalog {
	c := &Catalog{types: make([]Type, 0, len(types)+1)}
	c.types = append(c.types, types...)
	c.types = append(c.types, Type{Name: "", Weight: 0})
	return c
}

// Len returns the number of types including the sentinel.
func (c *Catalog) Len() int { return len(c.types) }

// Sentinel returns the index of the empty type.
func (c *Catalog) Sentinel() int { return len(c.types) - 1 }

func (c *Catalog) Valid(i int) bool { return i >= 0 && i < len(c.types) }

// Type returns the type at i. ok is false if i is out of range.
func (c *Catalog) Type(i int) (t Type, ok bool) {
	if !c.Valid(i) {
		return Type{}, false
	}
	return c.types[i], true
}

// Name returns the display name of type i, or "?" when unknown.
func (c *Catalog) Name(i int) string {
	t, ok := c.Type(i)
	if !ok {
		return unknownName
	}
	return t.Name
}

// Weight returns the capacity weight of type i.
// Unknown types weigh 1 so that they still occupy a slot.
func (c *Catalog) Weight(i int) float64 {
	t, ok := c.Type(i)
	if !ok {
		return 1
	}
	return t.Weight
}

// Types returns a copy of all types, sentinel included.
func (c *Catalog) Types() []Type {
	res := make([]Type, len(c.types))
	copy(res, c.types)
	return res
}

// Next returns the type index following i, wrapping to 0 after the sentinel.
func (c *Catalog) Next(i int) int {
	i++
	if i >= len(c.types) || i < 0 {
		return 0
	}
	return i
}
