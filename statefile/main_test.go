package statefile

import (
	"bytes"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"nyiyui.ca/hato/stationmaster/stock"
	"nyiyui.ca/hato/stationmaster/yard"
)

var ignoreID = cmpopts.IgnoreFields(stock.Wagon{}, "ID")

func w(t int, age uint, outgoing bool) stock.Wagon {
	res := stock.New(t)
	res.Age = age
	res.Outgoing = outgoing
	return res
}

func testState() yard.State {
	return yard.State{
		MoveIndex: 4,
		NextRake:  1,
		Sidings: [][]stock.Wagon{
			{w(0, 3, false), w(2, 11, true)},
			nil,
			{w(1, 0, false)},
		},
		Rakes: [][]stock.Wagon{
			{w(0, 0, false)},
			nil,
			{w(2, 0, false), w(3, 0, false)},
		},
	}
}

func TestEncode(t *testing.T) {
	buf := new(bytes.Buffer)
	err := Encode(buf, testState())
	if err != nil {
		t.Fatal(err)
	}
	expected := strings.Join([]string{
		"m/4",
		"p/1",
		"s/0,3,False/2,11,True",
		"s/",
		"s/1,0,False",
		"r/",
		"r/2,0,False/3,0,False",
		"r/0,0,False",
		"",
	}, "\n")
	if got := buf.String(); got != expected {
		t.Fatalf("diff: %s", cmp.Diff(expected, got))
	}
}

func TestRoundTrip(t *testing.T) {
	st := testState()
	buf := new(bytes.Buffer)
	if err := Encode(buf, st); err != nil {
		t.Fatal(err)
	}
	got, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(st, got, ignoreID, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("diff: %s", diff)
	}
}

func TestDecodeLegacy(t *testing.T) {
	src := "m/2\ns/1,4,True\ns/\nr/0,0,False\nr/\n"
	st, err := Decode(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	expected := yard.State{
		MoveIndex: 2,
		NextRake:  0,
		Sidings:   [][]stock.Wagon{{w(1, 4, true)}, nil},
		Rakes:     [][]stock.Wagon{{w(0, 0, false)}, nil},
	}
	if diff := cmp.Diff(expected, st, ignoreID, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("diff: %s", diff)
	}
}

func TestDecodeInvalid(t *testing.T) {
	cases := map[string]string{
		"no move":       "s/\n",
		"bad move":      "m/x\n",
		"two moves":     "m/1\nm/2\n",
		"bad wagon":     "m/0\ns/1,x\n",
		"unknown tag":   "m/0\nq/1\n",
		"rake pointer":  "m/0\np/3\nr/\nr/\n",
		"no separator":  "m\n",
		"empty between": "m/0\ns/1//2\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(src)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	_, err := Decode(strings.NewReader("m/0\ns/1,2,maybe\n"))
	var le *LineError
	if !errors.As(err, &le) || le.Line != 2 {
		t.Fatalf("expected error on line 2, got %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yard.state")
	_, err := Load(path)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not exist, got %v", err)
	}
	st := testState()
	if err := Save(path, st); err != nil {
		t.Fatal(err)
	}
	st.MoveIndex = 5
	if err := Save(path, st); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(st, got, ignoreID, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("diff: %s", diff)
	}
	matches, _ := filepath.Glob(path + ".*")
	if len(matches) != 0 {
		t.Fatalf("temporary files left behind: %v", matches)
	}
}
