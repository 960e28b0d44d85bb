// Package config reads the yard's configuration files.
//
// A yard is described by files sharing a base name:
//
//	<base>.wtt     working timetable, one move per line
//	<base>.layout  sidings, one per line
//	<base>.config  train capacity, wagon types, initial rakes and inventory
//	<base>.state   saved state (optional)
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"nyiyui.ca/hato/stationmaster/stock"
	"nyiyui.ca/hato/stationmaster/timetable"
	"nyiyui.ca/hato/stationmaster/yard"
)

// ParseError identifies the file and line of a bad record.
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s", e.File, e.Err)
	}
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// scanRecords calls fn for every line that is neither blank nor a # comment.
func scanRecords(r io.Reader, name string, fn func(line string) error) error {
	return scanLines(r, name, false, fn)
}

// scanLines calls fn for every line that is not a # comment.
// Blank lines are passed to fn as "" if keepBlank is set, and skipped otherwise.
func scanLines(r io.Reader, name string, keepBlank bool, fn func(line string) error) error {
	sc := bufio.NewScanner(r)
	lineI := 0
	for sc.Scan() {
		lineI++
		line := strings.TrimSpace(sc.Text())
		if (line == "" && !keepBlank) || strings.HasPrefix(line, "#") {
			continue
		}
		err := fn(line)
		if err != nil {
			return &ParseError{File: name, Line: lineI, Err: err}
		}
	}
	if err := sc.Err(); err != nil {
		return &ParseError{File: name, Err: err}
	}
	return nil
}

func readFile[T any](path string, parse func(io.Reader, string) (T, error)) (T, error) {
	f, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, err
	}
	defer f.Close()
	return parse(f, path)
}

// ParseTimetable reads a WTT. Each record is kind/h:mm/am_or_pm/description,
// with kind + for an arrival, - for a departure, or empty.
// A blank line is a neutral move with no time of its own; it keeps the previous move's time.
func ParseTimetable(r io.Reader, name string) (timetable.Timetable, error) {
	tt := timetable.Timetable{}
	err := scanLines(r, name, true, func(line string) error {
		if line == "" {
			m := timetable.Move{Kind: timetable.Neutral}
			if len(tt) > 0 {
				m.Minute = tt[len(tt)-1].Minute
			}
			tt = append(tt, m)
			return nil
		}
		m, err := timetable.ParseMove(line)
		if err != nil {
			return err
		}
		tt = append(tt, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(tt) == 0 {
		return nil, &ParseError{File: name, Err: fmt.Errorf("no moves")}
	}
	return tt, nil
}

func parseInts(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	res := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, nil
}

func parseVertices(s string) ([]yard.Point, error) {
	parts := strings.Split(s, ";")
	res := make([]yard.Point, 0, len(parts))
	for _, p := range parts {
		xy, err := parseInts(p)
		if err != nil {
			return nil, fmt.Errorf("vertex %q: %w", p, err)
		}
		if len(xy) != 2 {
			return nil, fmt.Errorf("vertex %q: expected x,y", p)
		}
		res = append(res, yard.Point{X: xy[0], Y: xy[1]})
	}
	if len(res) < 2 {
		return nil, fmt.Errorf("siding needs at least 2 vertices, got %d", len(res))
	}
	return res, nil
}

// ParseLayout reads sidings. Each record is capacity/acceptedTypes/vertices,
// or capacity/vertices for a siding accepting every type.
// acceptedTypes is a comma-separated list of type indices, vertices is x,y;x,y;...
func ParseLayout(r io.Reader, name string) ([]yard.Siding, error) {
	sidings := []yard.Siding{}
	err := scanRecords(r, name, func(line string) error {
		fields := strings.Split(line, "/")
		var capacityRaw, typesRaw, verticesRaw string
		switch len(fields) {
		case 2:
			capacityRaw, verticesRaw = fields[0], fields[1]
		case 3:
			capacityRaw, typesRaw, verticesRaw = fields[0], fields[1], fields[2]
		default:
			return fmt.Errorf("expected capacity/types/vertices, got %d fields", len(fields))
		}
		capacity, err := strconv.Atoi(strings.TrimSpace(capacityRaw))
		if err != nil {
			return fmt.Errorf("capacity: %w", err)
		}
		if capacity < 0 {
			return fmt.Errorf("negative capacity %d", capacity)
		}
		types, err := parseInts(typesRaw)
		if err != nil {
			return fmt.Errorf("accepted types: %w", err)
		}
		vertices, err := parseVertices(verticesRaw)
		if err != nil {
			return err
		}
		sidings = append(sidings, yard.Siding{
			Capacity:      capacity,
			AcceptedTypes: types,
			Vertices:      vertices,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(sidings) == 0 {
		return nil, &ParseError{File: name, Err: fmt.Errorf("no sidings")}
	}
	return sidings, nil
}

// Conf is the contents of a .config file.
type Conf struct {
	TrainCapacity int
	// Types excludes the sentinel; stock.NewCatalog appends it.
	Types []stock.Type
	// Rakes and Inventory are only used when there is no saved state.
	Rakes     [][]stock.Wagon
	Inventory []stock.Wagon
	// Allocation and Selection name the capacity and selection policies.
	Allocation string
	Selection  string
}

// Default policies: wagons count against siding capacity, but trains are made up by weight.
const (
	DefaultAllocation = yard.PolicyCount
	DefaultSelection  = yard.PolicyWeight
)

func parseWagonFields(fields []string) ([]stock.Wagon, error) {
	if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
		return nil, nil
	}
	return stock.ParseWagons(fields)
}

// ParseConfig reads a .config file. Records are:
//
//	n/<trainCapacity>
//	w/<name,weight>/<name,weight>/...
//	r/<wagon>/<wagon>/...     one rake slot
//	i/<wagon>/<wagon>/...     wagons to distribute over the sidings
//	p/<allocation>[/<selection>]  count or weight
func ParseConfig(r io.Reader, name string) (Conf, error) {
	conf := Conf{
		TrainCapacity: 1,
		Allocation:    DefaultAllocation,
		Selection:     DefaultSelection,
	}
	seenW := false
	err := scanRecords(r, name, func(line string) error {
		fields := strings.Split(line, "/")
		if len(fields) < 2 {
			return fmt.Errorf("record %q has no fields", line)
		}
		switch fields[0] {
		case "n":
			v, err := strconv.Atoi(strings.TrimSpace(fields[1]))
			if err != nil {
				return fmt.Errorf("train capacity: %w", err)
			}
			if v < 0 {
				return fmt.Errorf("negative train capacity %d", v)
			}
			conf.TrainCapacity = v
		case "w":
			if seenW {
				return fmt.Errorf("wagon types defined twice")
			}
			seenW = true
			for _, defn := range fields[1:] {
				t, err := stock.ParseType(defn)
				if err != nil {
					return err
				}
				conf.Types = append(conf.Types, t)
			}
		case "r":
			ws, err := parseWagonFields(fields[1:])
			if err != nil {
				return fmt.Errorf("rake: %w", err)
			}
			conf.Rakes = append(conf.Rakes, ws)
		case "i":
			ws, err := parseWagonFields(fields[1:])
			if err != nil {
				return fmt.Errorf("inventory: %w", err)
			}
			conf.Inventory = append(conf.Inventory, ws...)
		case "p":
			if len(fields) > 3 {
				return fmt.Errorf("expected p/allocation[/selection]")
			}
			if _, err := yard.ParseCapacityPolicy(fields[1]); err != nil {
				return err
			}
			conf.Allocation = fields[1]
			conf.Selection = fields[1]
			if len(fields) == 3 {
				if _, err := yard.ParseSelectionPolicy(fields[2]); err != nil {
					return err
				}
				conf.Selection = fields[2]
			}
		default:
			return fmt.Errorf("unknown tag %q", fields[0])
		}
		return nil
	})
	if err != nil {
		return Conf{}, err
	}
	if !seenW {
		return Conf{}, &ParseError{File: name, Err: fmt.Errorf("no wagon types (w record)")}
	}
	// the sentinel is appended after the configured types
	maxType := len(conf.Types)
	check := func(what string, ws []stock.Wagon) error {
		for _, w := range ws {
			if w.Type > maxType {
				return &ParseError{File: name, Err: fmt.Errorf("%s: unknown wagon type %d", what, w.Type)}
			}
		}
		return nil
	}
	for i, r := range conf.Rakes {
		if err := check(fmt.Sprintf("rake %d", i), r); err != nil {
			return Conf{}, err
		}
	}
	if err := check("inventory", conf.Inventory); err != nil {
		return Conf{}, err
	}
	return conf, nil
}
