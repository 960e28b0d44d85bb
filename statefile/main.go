// Package statefile reads and writes the yard state file.
//
// The file is line-oriented; each record is a tag followed by /-separated fields:
//
//	m/<moveIndex>
//	p/<nextRake>
//	s/<wagon>/<wagon>/...   one per siding, in layout order
//	r/<wagon>/<wagon>/...   one per rake slot, starting at nextRake
//
// A wagon is "type,age,outgoing" with outgoing True or False.
// Files without a p record are read with nextRake 0.
package statefile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"nyiyui.ca/hato/stationmaster/stock"
	"nyiyui.ca/hato/stationmaster/yard"
)

// ErrNoState is returned by Load when there is no state file.
// errors.Is(err, fs.ErrNotExist) also holds.
var ErrNoState = fmt.Errorf("no state file: %w", fs.ErrNotExist)

// LineError is a malformed record.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Err) }

func (e *LineError) Unwrap() error { return e.Err }

func writeWagons(w *bufio.Writer, tag string, wagons []stock.Wagon) {
	w.WriteString(tag)
	w.WriteString("/")
	for i, wagon := range wagons {
		if i > 0 {
			w.WriteString("/")
		}
		w.WriteString(wagon.Record())
	}
	w.WriteString("\n")
}

// Encode writes st.
func Encode(dst io.Writer, st yard.State) error {
	w := bufio.NewWriter(dst)
	fmt.Fprintf(w, "m/%d\n", st.MoveIndex)
	fmt.Fprintf(w, "p/%d\n", st.NextRake)
	for _, s := range st.Sidings {
		writeWagons(w, "s", s)
	}
	n := len(st.Rakes)
	for i := 0; i < n; i++ {
		writeWagons(w, "r", st.Rakes[(st.NextRake+i)%n])
	}
	return w.Flush()
}

func parseWagons(fields []string) ([]stock.Wagon, error) {
	if len(fields) == 1 && fields[0] == "" {
		return nil, nil
	}
	return stock.ParseWagons(fields)
}

// Decode reads a state written by Encode (or by the older format without a p record).
func Decode(src io.Reader) (yard.State, error) {
	var st yard.State
	var rakes [][]stock.Wagon
	seenM := false
	seenP := false
	sc := bufio.NewScanner(src)
	lineI := 0
	for sc.Scan() {
		lineI++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "/")
		if len(fields) < 2 {
			return yard.State{}, &LineError{lineI, fmt.Errorf("record %q has no fields", line)}
		}
		switch fields[0] {
		case "m":
			v, err := strconv.Atoi(fields[1])
			if err != nil {
				return yard.State{}, &LineError{lineI, fmt.Errorf("move index: %w", err)}
			}
			if seenM {
				return yard.State{}, &LineError{lineI, errors.New("duplicate m record")}
			}
			seenM = true
			st.MoveIndex = v
		case "p":
			v, err := strconv.Atoi(fields[1])
			if err != nil {
				return yard.State{}, &LineError{lineI, fmt.Errorf("next rake: %w", err)}
			}
			seenP = true
			st.NextRake = v
		case "s":
			ws, err := parseWagons(fields[1:])
			if err != nil {
				return yard.State{}, &LineError{lineI, err}
			}
			st.Sidings = append(st.Sidings, ws)
		case "r":
			ws, err := parseWagons(fields[1:])
			if err != nil {
				return yard.State{}, &LineError{lineI, err}
			}
			rakes = append(rakes, ws)
		default:
			return yard.State{}, &LineError{lineI, fmt.Errorf("unknown tag %q", fields[0])}
		}
	}
	if err := sc.Err(); err != nil {
		return yard.State{}, err
	}
	if !seenM {
		return yard.State{}, errors.New("missing m record")
	}
	if !seenP {
		st.NextRake = 0
	}
	n := len(rakes)
	if n > 0 && (st.NextRake < 0 || st.NextRake >= n) {
		return yard.State{}, fmt.Errorf("next rake %d out of range (%d rakes)", st.NextRake, n)
	}
	// rake records start at the next rake
	st.Rakes = make([][]stock.Wagon, n)
	for i, ws := range rakes {
		st.Rakes[(st.NextRake+i)%n] = ws
	}
	return st, nil
}

// Load reads the state file at path.
func Load(path string) (yard.State, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return yard.State{}, ErrNoState
	}
	if err != nil {
		return yard.State{}, err
	}
	defer f.Close()
	st, err := Decode(f)
	if err != nil {
		return yard.State{}, fmt.Errorf("%s: %w", path, err)
	}
	return st, nil
}

// Save atomically replaces the state file at path with st.
func Save(path string, st yard.State) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op after rename
	err = Encode(tmp, st)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("encode: %w", err)
	}
	err = tmp.Sync()
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
