// Package ui draws the yard on a terminal and turns key presses into yard events.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	"nyiyui.ca/hato/stationmaster/notify"
	"nyiyui.ca/hato/stationmaster/timetable"
	"nyiyui.ca/hato/stationmaster/yard"
)

var keyEvents = map[string]yard.Event{
	"n":       yard.EventNextMove,
	"<Space>": yard.EventNextMove,
	"s":       yard.EventSelect,
	"c":       yard.EventChangeType,
	"d":       yard.EventDelete,
	"q":       yard.EventShutdown,
	"<C-c>":   yard.EventShutdown,
}

// KeyEvent maps a termui key ID to a yard event.
func KeyEvent(id string) (yard.Event, bool) {
	e, ok := keyEvents[id]
	return e, ok
}

var classColors = map[string]string{
	yard.ClassFresh:    "green",
	yard.ClassOutgoing: "yellow",
	yard.ClassResident: "white",
	yard.ClassSpare:    "cyan",
}

// wagonText renders a wagon in termui's [text](style) markup.
func wagonText(w yard.WagonView) string {
	fg, ok := classColors[w.Class]
	if !ok {
		fg = "white"
	}
	style := "fg:" + fg
	if w.Selected {
		style += ",bg:red"
	}
	return fmt.Sprintf("[%s](%s)", w.Name, style)
}

func moveText(m *timetable.Move) string {
	if m == nil {
		return "-"
	}
	symbol := m.Kind.Symbol()
	if symbol == "" {
		symbol = " "
	}
	return fmt.Sprintf("%s %7s %s", symbol, m.Clock+m.Meridiem, m.Description)
}

// HeaderText shows the clock and the moves around the current one.
func HeaderText(ys yard.Snapshot) string {
	b := new(strings.Builder)
	fmt.Fprintf(b, "%s -> %s  move %d/%d  %d wagons", ys.ClockText, ys.TargetText, ys.MoveIndex+1, ys.MoveCount, ys.Wagons)
	if ys.Overflows > 0 {
		fmt.Fprintf(b, "  [%d overflows](fg:red)", ys.Overflows)
	}
	fmt.Fprintf(b, "\n  %s\n> %s\n  %s", moveText(ys.Previous), moveText(ys.Current), moveText(ys.Next))
	return b.String()
}

func SidingsText(ys yard.Snapshot) string {
	b := new(strings.Builder)
	for si, s := range ys.Sidings {
		fmt.Fprintf(b, "%2d %4.1f/%-2d", si, s.Load, s.Capacity)
		for _, w := range s.Wagons {
			b.WriteString(" ")
			b.WriteString(wagonText(w))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func RakesText(ys yard.Snapshot) string {
	b := new(strings.Builder)
	for ri, r := range ys.Rakes {
		marker := " "
		if r.Active {
			marker = "*"
		}
		fmt.Fprintf(b, "%s%d", marker, ri)
		if len(r.Wagons) == 0 {
			b.WriteString(" (empty)")
		}
		for _, w := range r.Wagons {
			b.WriteString(" ")
			b.WriteString(wagonText(w))
		}
		b.WriteString("\n")
	}
	return b.String()
}

type board struct {
	header  *widgets.Paragraph
	sidings *widgets.Paragraph
	rakes   *widgets.Paragraph
	help    *widgets.Paragraph
}

func newBoard() *board {
	b := &board{
		header:  widgets.NewParagraph(),
		sidings: widgets.NewParagraph(),
		rakes:   widgets.NewParagraph(),
		help:    widgets.NewParagraph(),
	}
	b.header.Title = "timetable"
	b.sidings.Title = "sidings"
	b.rakes.Title = "rakes"
	b.help.Text = "n next move  s select  c change type  d delete empty  q quit"
	b.help.Border = false
	b.header.Text = "waiting for the yard"
	return b
}

func (b *board) layout(width, height int) {
	b.header.SetRect(0, 0, width, 5)
	rest := height - 6
	b.sidings.SetRect(0, 5, width, 5+rest/2)
	b.rakes.SetRect(0, 5+rest/2, width, height-1)
	b.help.SetRect(0, height-1, width, height)
}

func (b *board) update(ys yard.Snapshot) {
	b.header.Text = HeaderText(ys)
	b.sidings.Text = SidingsText(ys)
	b.rakes.Text = RakesText(ys)
}

func (b *board) render() {
	termui.Render(b.header, b.sidings, b.rakes, b.help)
}

// Run draws every snapshot and sends key presses to send until ctx is done.
func Run(ctx context.Context, snapshots *notify.Multiplexer[yard.Snapshot], send func(yard.Event)) error {
	err := termui.Init()
	if err != nil {
		return fmt.Errorf("termui init: %w", err)
	}
	defer termui.Close()

	b := newBoard()
	b.layout(termui.TerminalDimensions())
	if ys, ok := snapshots.Latest(); ok {
		b.update(ys)
	}
	b.render()

	ch := make(chan yard.Snapshot, 1)
	snapshots.Subscribe("ui", ch)
	defer snapshots.Unsubscribe(ch)
	uiEvents := termui.PollEvents()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ys := <-ch:
			b.update(ys)
			b.render()
		case e := <-uiEvents:
			if e.ID == "<Resize>" {
				payload := e.Payload.(termui.Resize)
				b.layout(payload.Width, payload.Height)
				termui.Clear()
				b.render()
				continue
			}
			if ye, ok := KeyEvent(e.ID); ok {
				send(ye)
			}
		}
	}
}
