// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package termlcd emulates a character LCD at the terminal using ANSI
// escape codes.
//
// Dev implements display.TextDisplay with the same row and column
// semantics as a real character module, so display code can be developed
// and demoed without hardware. Backpack goes one layer lower: it is an
// i2c.Bus that decodes the PCF8574 backpack wire protocol, for exercising
// driver code down to the register writes.
package termlcd

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"strings"
	"sync"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
)

const packageName = "termlcd"

// Opts holds the emulated display geometry and looks.
type Opts struct {
	Rows int
	Cols int
	// Backlight tints the frame around the cells while the backlight is
	// on.
	Backlight color.NRGBA
	Palette   *ansi256.Palette
	// W receives the rendered frames. Defaults to the colorable stdout.
	W io.Writer

	_ struct{}
}

// DefaultOpts renders the common 16x2 module with a blue backlight.
var DefaultOpts = Opts{
	Rows:      2,
	Cols:      16,
	Backlight: color.NRGBA{R: 0x30, G: 0x68, B: 0xff, A: 0xff},
}

// Dev is a terminal backed character display.
type Dev struct {
	rows int
	cols int

	mu        sync.Mutex
	w         io.Writer
	palette   ansi256.Palette
	blColor   color.NRGBA
	cells     [][]byte
	glyphs    [8][8]byte
	row       int
	col       int
	on        bool
	backlight bool
	cursor    bool
	autoFill  bool
	rtl       bool
	drawn     bool
	buf       bytes.Buffer
}

func wrap(err error) error {
	if err == nil || strings.HasPrefix(err.Error(), packageName) {
		return err
	}
	return fmt.Errorf("%s: %w", packageName, err)
}

// New returns an initialized emulated display. opts selects the geometry
// and rendering, nil means DefaultOpts.
func New(opts *Opts) (*Dev, error) {
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}
	if opts.Rows < 1 || opts.Rows > 4 {
		return nil, fmt.Errorf("%s: invalid row count %d, valid range is 1..4", packageName, opts.Rows)
	}
	if opts.Cols < 1 || opts.Cols > 40 {
		return nil, fmt.Errorf("%s: invalid column count %d, valid range is 1..40", packageName, opts.Cols)
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	blc := opts.Backlight
	if blc == (color.NRGBA{}) {
		blc = DefaultOpts.Backlight
	}
	dev := &Dev{
		rows:      opts.Rows,
		cols:      opts.Cols,
		w:         w,
		palette:   *p,
		blColor:   blc,
		row:       1,
		col:       1,
		on:        true,
		backlight: true,
	}
	dev.cells = make([][]byte, opts.Rows)
	for i := range dev.cells {
		dev.cells[i] = bytes.Repeat([]byte{' '}, opts.Cols)
	}
	if err := dev.redraw(); err != nil {
		return nil, err
	}
	return dev, nil
}

// redraw repaints the full frame in place. Callers hold the lock.
func (dev *Dev) redraw() error {
	dev.buf.Reset()
	if dev.drawn {
		fmt.Fprintf(&dev.buf, "\033[%dA", dev.rows+2)
	}
	dev.drawn = true
	edge := "|"
	if dev.backlight {
		edge = dev.palette.Block(dev.blColor) + "\033[0m"
	}
	border := "+" + strings.Repeat("-", dev.cols) + "+"
	dev.buf.WriteString("\r\033[0m" + border + "\n")
	for r := range dev.cells {
		dev.buf.WriteString("\r" + edge)
		for c := range dev.cells[r] {
			b := dev.cells[r][c]
			if b < 0x20 {
				// Custom glyph slots render as a filled cell.
				b = '#'
			}
			if !dev.on {
				b = ' '
			}
			if dev.cursor && dev.on && r == dev.row-1 && c == dev.col-1 {
				dev.buf.WriteString("\033[7m")
				dev.buf.WriteByte(b)
				dev.buf.WriteString("\033[0m")
			} else {
				dev.buf.WriteByte(b)
			}
		}
		dev.buf.WriteString(edge + "\n")
	}
	dev.buf.WriteString("\r\033[0m" + border + "\n")
	_, err := dev.buf.WriteTo(dev.w)
	return wrap(err)
}

// AutoScroll shifts the current row left on writes past the last column
// instead of wrapping to the next row.
func (dev *Dev) AutoScroll(enabled bool) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.autoFill = enabled
	return nil
}

// TextDirection sets whether writes advance left to right or right to
// left.
func (dev *Dev) TextDirection(leftToRight bool) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.rtl = !leftToRight
	return nil
}

// Clear blanks the cells and moves the cursor to the first one.
func (dev *Dev) Clear() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	for i := range dev.cells {
		for j := range dev.cells[i] {
			dev.cells[i][j] = ' '
		}
	}
	dev.row, dev.col = 1, 1
	return dev.redraw()
}

// Return the number of columns the display supports.
func (dev *Dev) Cols() int {
	return dev.cols
}

// Set the cursor mode. The emulation renders any visible mode as a
// reverse video cell.
func (dev *Dev) Cursor(modes ...display.CursorMode) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.cursor = false
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
		case display.CursorUnderline, display.CursorBlink, display.CursorBlock:
			dev.cursor = true
		default:
			return fmt.Errorf("%s: unexpected cursor mode: %d", packageName, mode)
		}
	}
	return dev.redraw()
}

// Turn the display on / off. The cells keep their content, only the
// rendering blanks.
func (dev *Dev) Display(on bool) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.on = on
	return dev.redraw()
}

// Turn the display's backlight on or off.
func (dev *Dev) Backlight(intensity display.Intensity) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.backlight = intensity > 0
	return dev.redraw()
}

// Move the cursor home.
func (dev *Dev) Home() error {
	return dev.MoveTo(1, 1)
}

// Return the min column position.
func (dev *Dev) MinCol() int {
	return 1
}

// Return the min row position.
func (dev *Dev) MinRow() int {
	return 1
}

// Move the cursor one step.
func (dev *Dev) Move(dir display.CursorDirection) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	switch dir {
	case display.Forward:
		if dev.col < dev.cols {
			dev.col++
		}
	case display.Backward:
		if dev.col > 1 {
			dev.col--
		}
	case display.Up:
		if dev.row <= 1 {
			return fmt.Errorf("%s: Move(Up) from the first row", packageName)
		}
		dev.row--
	case display.Down:
		if dev.row >= dev.rows {
			return fmt.Errorf("%s: Move(Down) from the last row", packageName)
		}
		dev.row++
	default:
		return fmt.Errorf("%s: unexpected cursor direction: %d", packageName, dir)
	}
	return dev.redraw()
}

// Move the cursor to an arbitrary position. Row and column are 1 based.
func (dev *Dev) MoveTo(row, col int) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if row < 1 || row > dev.rows || col < 1 || col > dev.cols {
		return fmt.Errorf("%s: MoveTo(%d,%d) out of range for %dx%d", packageName, row, col, dev.rows, dev.cols)
	}
	dev.row, dev.col = row, col
	return dev.redraw()
}

// Return the number of rows the display supports.
func (dev *Dev) Rows() int {
	return dev.rows
}

// ScrollLeft shifts all rows one cell to the left.
func (dev *Dev) ScrollLeft() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	for i := range dev.cells {
		copy(dev.cells[i], dev.cells[i][1:])
		dev.cells[i][dev.cols-1] = ' '
	}
	return dev.redraw()
}

// ScrollRight shifts all rows one cell to the right.
func (dev *Dev) ScrollRight() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	for i := range dev.cells {
		copy(dev.cells[i][1:], dev.cells[i][:dev.cols-1])
		dev.cells[i][0] = ' '
	}
	return dev.redraw()
}

// CreateChar stores a 5x8 glyph for one of the 8 character generator
// slots. Writing byte values 0..7 renders a filled cell in the emulation.
func (dev *Dev) CreateChar(slot int, pattern [8]byte) error {
	if slot < 0 || slot > 7 {
		return fmt.Errorf("%s: CreateChar slot %d out of range 0..7", packageName, slot)
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.glyphs[slot] = pattern
	return nil
}

// Glyph returns the pattern stored for a custom character slot.
func (dev *Dev) Glyph(slot int) [8]byte {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if slot < 0 || slot > 7 {
		return [8]byte{}
	}
	return dev.glyphs[slot]
}

// Write stores data bytes at the cursor position with the same advance
// rules as the hardware driver: rows fill in turn and wrap back to the
// first cell, '\n' moves to the next row, '\r' to the start of the
// current one.
func (dev *Dev) Write(p []byte) (int, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	for _, b := range p {
		switch b {
		case '\n':
			dev.row++
			if dev.row > dev.rows {
				dev.row = 1
			}
			dev.col = 1
		case '\r':
			dev.col = 1
		default:
			if dev.col > dev.cols {
				if dev.autoFill {
					r := dev.cells[dev.row-1]
					copy(r, r[1:])
					dev.col = dev.cols
				} else {
					dev.row++
					if dev.row > dev.rows {
						dev.row = 1
					}
					dev.col = 1
				}
			}
			dev.cells[dev.row-1][dev.col-1] = b
			if dev.rtl {
				if dev.col > 1 {
					dev.col--
				}
			} else {
				dev.col++
			}
		}
	}
	if err := dev.redraw(); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Write a string output to the display.
func (dev *Dev) WriteString(text string) (int, error) {
	return dev.Write([]byte(text))
}

// Line returns the content of a 1 based row as a string.
func (dev *Dev) Line(row int) string {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if row < 1 || row > dev.rows {
		return ""
	}
	return string(dev.cells[row-1])
}

// Halt blanks the display, turns the backlight off and resets the
// terminal attributes.
func (dev *Dev) Halt() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	for i := range dev.cells {
		for j := range dev.cells[i] {
			dev.cells[i][j] = ' '
		}
	}
	dev.row, dev.col = 1, 1
	dev.on = false
	dev.backlight = false
	if err := dev.redraw(); err != nil {
		return err
	}
	_, err := io.WriteString(dev.w, "\033[0m")
	return wrap(err)
}

// Return info about the display.
func (dev *Dev) String() string {
	return fmt.Sprintf("%s %dx%d", packageName, dev.cols, dev.rows)
}

var _ display.TextDisplay = &Dev{}
var _ display.DisplayBacklight = &Dev{}
var _ conn.Resource = &Dev{}
