package panel

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"nyiyui.ca/hato/stationmaster/yard"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestParseLine(t *testing.T) {
	e, ok := ParseLine(" n\r\n")
	require.True(t, ok)
	require.Equal(t, yard.EventNextMove, e)
	e, ok = ParseLine("X")
	require.True(t, ok)
	require.Equal(t, yard.EventShutdown, e)
	_, ok = ParseLine("hello")
	require.False(t, ok)
}

func TestDebouncer(t *testing.T) {
	c := &fakeClock{t: time.Date(2023, 7, 1, 6, 0, 0, 0, time.UTC)}
	d := NewDebouncer(c.now)

	require.True(t, d.Allow(yard.EventNextMove))
	c.advance(999 * time.Millisecond)
	require.False(t, d.Allow(yard.EventNextMove))
	// a rejected press does not restart the interval
	c.advance(2 * time.Millisecond)
	require.True(t, d.Allow(yard.EventNextMove))

	require.True(t, d.Allow(yard.EventSelect))
	c.advance(500 * time.Millisecond)
	require.False(t, d.Allow(yard.EventSelect))
	c.advance(time.Millisecond)
	require.True(t, d.Allow(yard.EventSelect))

	require.True(t, d.Allow(yard.EventShutdown))
	require.True(t, d.Allow(yard.EventShutdown))
}

func TestScan(t *testing.T) {
	c := &fakeClock{t: time.Date(2023, 7, 1, 6, 0, 0, 0, time.UTC)}
	d := NewDebouncer(c.now)
	got := []yard.Event{}
	send := func(e yard.Event) {
		got = append(got, e)
		c.advance(100 * time.Millisecond)
	}
	input := "N\r\nN\r\nS\r\n\r\nbogus\r\nC\r\nD\r\nX"
	err := Scan(context.Background(), strings.NewReader(input), d, send)
	require.NoError(t, err)
	// the second N is within a second of the first
	require.Equal(t, []yard.Event{yard.EventNextMove, yard.EventSelect, yard.EventChangeType, yard.EventDelete, yard.EventShutdown}, got)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("unplugged") }

func TestScanError(t *testing.T) {
	d := NewDebouncer(time.Now)
	err := Scan(context.Background(), errReader{}, d, func(yard.Event) {})
	require.EqualError(t, err, "unplugged")
}

func TestScanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := Scan(ctx, strings.NewReader("N\n"), NewDebouncer(time.Now), func(yard.Event) { called = true })
	require.NoError(t, err)
	require.False(t, called)
}
