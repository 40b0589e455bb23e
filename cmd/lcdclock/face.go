// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"strings"
	"time"

	"periph.io/x/conn/v3/display"

	"github.com/GermanBionicSystems/charlcd/glyph"
)

// screen is the display surface the clock draws on. Both *hd44780.Dev
// and *termlcd.Dev satisfy it.
type screen interface {
	display.TextDisplay
	Backlight(intensity display.Intensity) error
	CreateChar(slot int, pattern [8]byte) error
	Halt() error
}

// CGRAM slots loaded at startup.
const (
	slotBell      = 0
	slotArrow     = 1
	slotHourglass = 2
)

// loadGlyphs programs the symbols the face uses.
func loadGlyphs(dev screen) error {
	for slot, pattern := range map[int][8]byte{
		slotBell:      glyph.Bell,
		slotArrow:     glyph.ArrowRight,
		slotHourglass: glyph.Hourglass,
	} {
		if err := dev.CreateChar(slot, pattern); err != nil {
			return err
		}
	}
	return nil
}

// splash shows a startup banner while the first calendar read runs.
func splash(dev screen) error {
	if err := dev.Clear(); err != nil {
		return err
	}
	msg := "lcdclock " + string(rune(slotHourglass))
	row := dev.MinRow() + (dev.Rows()-1)/2
	col := dev.MinCol() + max((dev.Cols()-len(msg))/2, 0)
	if err := dev.MoveTo(row, col); err != nil {
		return err
	}
	_, err := dev.WriteString(msg)
	return err
}

// renderFace paints every row: the centered time, the centered date
// and, when one is due, the next event.
//
// Two row displays hand their second row to the event while it lasts.
// Taller displays keep the date and show the event on the last row.
// Rows are rewritten whole so stale text disappears without a Clear.
func renderFace(dev screen, cfg *ClockConfig, now time.Time, occ *occurrence) error {
	rows := dev.Rows()
	cols := dev.Cols()
	lines := make([]string, rows)
	lines[0] = center(now.Format(cfg.TimeLayout), cols)
	if rows >= 2 {
		lines[1] = center(now.Format(cfg.DateLayout), cols)
	}
	if occ != nil {
		switch {
		case rows >= 3:
			lines[rows-1] = fit(eventRow(*occ, now), cols)
		case rows == 2:
			lines[1] = fit(eventRow(*occ, now), cols)
		}
	}
	for i, line := range lines {
		if err := dev.MoveTo(dev.MinRow()+i, dev.MinCol()); err != nil {
			return err
		}
		if line == "" {
			line = strings.Repeat(" ", cols)
		}
		if _, err := dev.WriteString(line); err != nil {
			return err
		}
	}
	return nil
}

// eventRow formats the next event as "#HH:MM Summary" where # is the
// bell, or the arrow once the event is running. All day events show
// the date instead of a start time.
func eventRow(occ occurrence, now time.Time) string {
	marker := string(rune(slotBell))
	if occ.start.Before(now) {
		marker = string(rune(slotArrow))
	}
	when := occ.start.Format("15:04")
	if occ.allDay {
		when = occ.start.Format("Jan 2")
	}
	return marker + when + " " + occ.summary
}

// center pads s on both sides to cols, truncating when too long.
func center(s string, cols int) string {
	if len(s) >= cols {
		return s[:cols]
	}
	left := (cols - len(s)) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", cols-left-len(s))
}

// fit left aligns s into cols.
func fit(s string, cols int) string {
	if len(s) >= cols {
		return s[:cols]
	}
	return s + strings.Repeat(" ", cols-len(s))
}
