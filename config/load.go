package config

import (
	"errors"
	"fmt"
	"io/fs"

	"go.uber.org/zap"
	"nyiyui.ca/hato/stationmaster/statefile"
	"nyiyui.ca/hato/stationmaster/stock"
	"nyiyui.ca/hato/stationmaster/yard"
)

// Options override what the files say.
type Options struct {
	// Allocation and Selection override the p record when non-empty.
	Allocation string
	Selection  string
	Rand       yard.Rand
}

// TimetablePath returns the working timetable path for base.
func TimetablePath(base string) string { return base + ".wtt" }

// LayoutPath returns the siding layout path for base.
func LayoutPath(base string) string { return base + ".layout" }

// ConfigPath returns the .config path for base.
func ConfigPath(base string) string { return base + ".config" }

// StatePath returns the saved state path for base.
func StatePath(base string) string { return base + ".state" }

// Load builds the yard described by the files at base.
//
// If a state file exists it supplies the wagons, rakes and timetable position,
// and the r and i records of the .config file are ignored.
// Otherwise the rakes come from the r records and the i wagons are allocated to sidings.
func Load(base string, opts Options) (*yard.Yard, error) {
	tt, err := readFile(TimetablePath(base), ParseTimetable)
	if err != nil {
		return nil, fmt.Errorf("timetable: %w", err)
	}
	sidings, err := readFile(LayoutPath(base), ParseLayout)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	conf, err := readFile(ConfigPath(base), ParseConfig)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if opts.Allocation != "" {
		conf.Allocation = opts.Allocation
	}
	if opts.Selection != "" {
		conf.Selection = opts.Selection
	}
	capacity, err := yard.ParseCapacityPolicy(conf.Allocation)
	if err != nil {
		return nil, err
	}
	selection, err := yard.ParseSelectionPolicy(conf.Selection)
	if err != nil {
		return nil, err
	}

	st, err := statefile.Load(StatePath(base))
	haveState := err == nil
	switch {
	case haveState:
		zap.S().Infow("read state", "path", StatePath(base), "move", st.MoveIndex, "rakes", len(st.Rakes))
	case errors.Is(err, fs.ErrNotExist):
		zap.S().Infow("no state, using initial rakes and inventory", "path", StatePath(base))
	default:
		return nil, fmt.Errorf("state: %w", err)
	}

	yc := yard.Conf{
		Catalog:       stock.NewCatalog(conf.Types),
		Sidings:       sidings,
		Timetable:     tt,
		TrainCapacity: conf.TrainCapacity,
		Rakes:         conf.Rakes,
		Capacity:      capacity,
		Selection:     selection,
		Rand:          opts.Rand,
	}
	if haveState {
		yc.Rakes = st.Rakes
	}
	y, err := yard.New(yc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", base, err)
	}
	if haveState {
		err = y.Restore(st)
		if err != nil {
			return nil, fmt.Errorf("state: %w", err)
		}
		return y, nil
	}
	overflows, err := y.Allocate(conf.Inventory)
	if err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}
	if overflows > 0 {
		zap.S().Warnf("initial inventory overflowed sidings %d times", overflows)
	}
	return y, nil
}
