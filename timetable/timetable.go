// Package timetable is the working timetable (WTT): the daily cycle of moves driving the yard.
package timetable

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	MinutesPerDay     = 24 * 60
	minutesPerHalfDay = 12 * 60
)

type Kind int

const (
	Neutral Kind = iota
	Arrival
	Departure
)

func (k Kind) String() string {
	switch k {
	case Arrival:
		return "arrival"
	case Departure:
		return "departure"
	default:
		return "neutral"
	}
}

// Symbol is the kind as written in a WTT record.
func (k Kind) Symbol() string {
	switch k {
	case Arrival:
		return "+"
	case Departure:
		return "-"
	default:
		return ""
	}
}

func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "arrival":
		*k = Arrival
	case "departure":
		*k = Departure
	case "neutral":
		*k = Neutral
	default:
		return fmt.Errorf("unknown move kind %q", s)
	}
	return nil
}

func ParseKind(s string) (Kind, error) {
	switch strings.TrimSpace(s) {
	case "+":
		return Arrival, nil
	case "-":
		return Departure, nil
	case "":
		return Neutral, nil
	default:
		return Neutral, fmt.Errorf("unknown move kind %q", s)
	}
}

// Move is a single timetable entry.
type Move struct {
	Kind Kind `json:"kind"`
	// Clock and Meridiem are kept as written for display ("10:15", "am").
	Clock    string `json:"clock"`
	Meridiem string `json:"meridiem"`
	// Minute is minutes since midnight.
	Minute      int    `json:"minute"`
	Description string `json:"description"`
}

func (m Move) String() string {
	return fmt.Sprintf("%s %s%s %s", m.Kind.Symbol(), m.Clock, m.Meridiem, m.Description)
}

// ParseMove parses a "kind/h:mm/am_or_pm/description" record.
// The description may itself contain slashes.
func ParseMove(record string) (Move, error) {
	fields := strings.SplitN(record, "/", 4)
	if len(fields) != 4 {
		return Move{}, fmt.Errorf("expected kind/time/am_or_pm/description, got %d fields", len(fields))
	}
	kind, err := ParseKind(fields[0])
	if err != nil {
		return Move{}, err
	}
	clock := strings.TrimSpace(fields[1])
	meridiem := strings.ToLower(strings.TrimSpace(fields[2]))
	minute, err := ParseTimeOfDay(clock, meridiem)
	if err != nil {
		return Move{}, err
	}
	return Move{
		Kind:        kind,
		Clock:       clock,
		Meridiem:    meridiem,
		Minute:      minute,
		Description: strings.TrimSpace(fields[3]),
	}, nil
}

// ParseTimeOfDay converts a 12-hour "h:mm" plus "am"/"pm" into minutes since midnight.
// 12:xx am is minute xx and 12:xx pm is 720+xx.
func ParseTimeOfDay(clock, meridiem string) (int, error) {
	hm := strings.Split(clock, ":")
	if len(hm) != 2 {
		return 0, fmt.Errorf("time %q: expected h:mm", clock)
	}
	hour, err := strconv.Atoi(hm[0])
	if err != nil {
		return 0, fmt.Errorf("time %q: hour: %w", clock, err)
	}
	minute, err := strconv.Atoi(hm[1])
	if err != nil {
		return 0, fmt.Errorf("time %q: minute: %w", clock, err)
	}
	if hour < 1 || hour > 12 {
		return 0, fmt.Errorf("time %q: hour out of range", clock)
	}
	if minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time %q: minute out of range", clock)
	}
	if hour == 12 {
		hour = 0
	}
	res := hour*60 + minute
	switch strings.ToLower(meridiem) {
	case "am":
	case "pm":
		res += minutesPerHalfDay
	default:
		return 0, fmt.Errorf("time %q: expected am or pm, got %q", clock, meridiem)
	}
	return res, nil
}

// FormatMinute renders minutes since midnight as a 12-hour clock.
func FormatMinute(m int) string {
	m = ((m % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	meridiem := "am"
	if m >= minutesPerHalfDay {
		meridiem = "pm"
		m -= minutesPerHalfDay
	}
	hour := m / 60
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%02d%s", hour, m%60, meridiem)
}

// Timetable is the fixed, ordered list of moves for one day.
type Timetable []Move

// Next returns the index after i, wrapping to 0.
func (t Timetable) Next(i int) int {
	i++
	if i >= len(t) {
		return 0
	}
	return i
}

// Around returns the moves before, at and after i for display.
// prev/next are nil at the ends of the day.
func (t Timetable) Around(i int) (prev, cur, next *Move) {
	if i < 0 || i >= len(t) {
		return nil, nil, nil
	}
	if i > 0 {
		m := t[i-1]
		prev = &m
	}
	c := t[i]
	cur = &c
	if i+1 < len(t) {
		m := t[i+1]
		next = &m
	}
	return
}
