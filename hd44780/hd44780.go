// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hd44780 controls character LCD modules built around the Hitachi
// HD44780 display controller, connected either through an I²C GPIO expander
// backpack (PCF8574 style) or directly through GPIO pins.
//
// The controller is driven in 4 bit mode. Each command or data byte is split
// into two nibbles and clocked into the controller with a pulse on the E
// line. On a backpack, the nibble, the control lines, and the backlight all
// share the expander's single 8 bit register, so every transition is one
// register write on the I²C bus.
//
// Implements periph.io/x/conn/v3/display.TextDisplay and
// display.DisplayBacklight.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
package hd44780

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
)

// HD44780 instruction set. The high bit selects the instruction, the low
// bits carry its flags.
const (
	cmdClear       byte = 0x01
	cmdHome        byte = 0x02
	cmdEntryMode   byte = 0x04
	cmdDisplayCtrl byte = 0x08
	cmdShift       byte = 0x10
	cmdFunction    byte = 0x20
	cmdSetCGRAM    byte = 0x40
	cmdSetDDRAM    byte = 0x80

	// Entry mode flags.
	entryIncrement byte = 0x02
	entryShift     byte = 0x01

	// Display control flags.
	ctrlDisplayOn byte = 0x04
	ctrlCursorOn  byte = 0x02
	ctrlBlinkOn   byte = 0x01

	// Cursor/display shift flags.
	shiftDisplay byte = 0x08
	shiftRight   byte = 0x04

	// Function set flags.
	fn8Bit  byte = 0x10
	fn2Line byte = 0x08
	fn5x10  byte = 0x04

	packageName = "hd44780"
)

// Delays between bus transitions. The controller has no handshake on the
// write path, so the pacing below is what keeps it in step. Values are the
// datasheet minimums with margin, as fixed sleeps.
const (
	delayPowerOn  = 50 * time.Millisecond
	delayInit     = 4500 * time.Microsecond
	delayInitLast = 150 * time.Microsecond
	delayPulse    = 2 * time.Microsecond
	delaySettle   = 50 * time.Microsecond
	delayClear    = 2 * time.Millisecond
)

// port moves nibbles and the control lines to the controller. The two
// implementations are the expander register path and the direct GPIO path.
type port interface {
	// writeNibble puts the low 4 bits of nib on D4..D7 with the register
	// select line set for data or command, and pulses E.
	writeNibble(nib byte, rs bool) error
	// setBacklight drives the backlight line. The expander port also uses
	// this to refresh the register so the new state takes effect
	// immediately.
	setBacklight(on bool) error
	halt() error
	String() string
}

// Opts holds the device geometry and backpack configuration.
type Opts struct {
	// Addr is the I²C address of the expander. Ignored for the GPIO
	// transport.
	Addr uint16
	// Rows and Cols describe the display geometry, from 1x8 up to 4x20.
	Rows int
	Cols int
	// Pinout maps the LCD lines onto the expander register bits.
	Pinout Pinout
	// Backlight is the initial backlight state.
	Backlight bool
	// Font5x10 selects the tall font. Only valid on single row displays.
	Font5x10 bool
}

// DefaultOpts is the common 16x2 backpack sold as LCD1602: a PCF8574 at
// 0x27 with the backlight on.
var DefaultOpts = Opts{
	Addr:      0x27,
	Rows:      2,
	Cols:      16,
	Pinout:    PinoutPCF8574,
	Backlight: true,
}

// Dev is a handle to an initialized display. Beyond the tracked cursor
// position, the only state kept are the three controller flag bytes that
// must be rewritten whole on every change.
type Dev struct {
	rows int
	cols int

	mu        sync.Mutex
	port      port
	control   byte
	mode      byte
	function  byte
	backlight bool
	row       int
	col       int
}

func wrap(err error) error {
	if err == nil || strings.HasPrefix(err.Error(), packageName) {
		return err
	}
	return fmt.Errorf("%s: %w", packageName, err)
}

func checkGeometry(opts *Opts) error {
	if opts.Rows < 1 || opts.Rows > 4 {
		return fmt.Errorf("%s: invalid row count %d, valid range is 1..4", packageName, opts.Rows)
	}
	if opts.Cols < 1 || opts.Cols > 40 {
		return fmt.Errorf("%s: invalid column count %d, valid range is 1..40", packageName, opts.Cols)
	}
	if opts.Rows*opts.Cols > 80 {
		return fmt.Errorf("%s: %dx%d exceeds the 80 character display RAM", packageName, opts.Rows, opts.Cols)
	}
	if opts.Font5x10 && opts.Rows != 1 {
		return fmt.Errorf("%s: the 5x10 font is limited to single row displays", packageName)
	}
	return nil
}

// init runs the wake-up dance that forces the controller into a known 8 bit
// state and then drops it to 4 bit mode, regardless of what mode it was in
// before. Datasheet figure 24.
func (dev *Dev) init(opts *Opts) error {
	time.Sleep(delayPowerOn)
	if err := dev.port.setBacklight(opts.Backlight); err != nil {
		return wrap(err)
	}
	dev.backlight = opts.Backlight

	for _, w := range []struct {
		nib   byte
		delay time.Duration
	}{
		{0x03, delayInit},
		{0x03, delayInit},
		{0x03, delayInitLast},
		{0x02, 0},
	} {
		if err := dev.port.writeNibble(w.nib, false); err != nil {
			return wrap(err)
		}
		time.Sleep(w.delay)
	}

	dev.function = 0
	if dev.rows > 1 {
		dev.function |= fn2Line
	}
	if opts.Font5x10 {
		dev.function |= fn5x10
	}
	if err := dev.writeByte(cmdFunction|dev.function, false); err != nil {
		return wrap(err)
	}

	dev.control = ctrlDisplayOn
	if err := dev.writeByte(cmdDisplayCtrl|dev.control, false); err != nil {
		return wrap(err)
	}

	dev.mode = entryIncrement
	if err := dev.writeByte(cmdEntryMode|dev.mode, false); err != nil {
		return wrap(err)
	}

	if err := dev.Clear(); err != nil {
		return err
	}
	return dev.Home()
}

// writeByte clocks one full byte into the controller, high nibble first.
// Callers hold the lock or run before the device is shared.
func (dev *Dev) writeByte(b byte, rs bool) error {
	if err := dev.port.writeNibble(b>>4, rs); err != nil {
		return err
	}
	return dev.port.writeNibble(b&0x0f, rs)
}

// command sends a single instruction byte.
func (dev *Dev) command(b byte) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return wrap(dev.writeByte(b, false))
}

// ddramAddress returns the display RAM address for a 1 based row/column.
// Rows interleave in DDRAM: odd rows start at 0x00, even rows at 0x40, and
// on 4 row units the third and fourth rows continue the first and second
// after Cols characters.
func (dev *Dev) ddramAddress(row, col int) byte {
	return byte(((row-1)%2)*0x40 + ((row-1)/2)*dev.cols + col - 1)
}

// AutoScroll shifts the display on every write so the cursor stays put and
// the text moves instead.
func (dev *Dev) AutoScroll(enabled bool) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if enabled {
		dev.mode |= entryShift
	} else {
		dev.mode &^= entryShift
	}
	return wrap(dev.writeByte(cmdEntryMode|dev.mode, false))
}

// TextDirection sets whether writes advance the cursor left to right or
// right to left.
func (dev *Dev) TextDirection(leftToRight bool) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if leftToRight {
		dev.mode |= entryIncrement
	} else {
		dev.mode &^= entryIncrement
	}
	return wrap(dev.writeByte(cmdEntryMode|dev.mode, false))
}

// Clear blanks the display and moves the cursor to the first cell.
func (dev *Dev) Clear() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.writeByte(cmdClear, false); err != nil {
		return wrap(err)
	}
	time.Sleep(delayClear)
	dev.row, dev.col = 1, 1
	return nil
}

// Return the number of columns the display supports.
func (dev *Dev) Cols() int {
	return dev.cols
}

// Set the cursor mode. You can pass multiple arguments.
// Cursor(CursorOff, CursorUnderline)
func (dev *Dev) Cursor(modes ...display.CursorMode) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.control &^= ctrlCursorOn | ctrlBlinkOn
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
		case display.CursorUnderline:
			dev.control |= ctrlCursorOn
		case display.CursorBlink:
			dev.control |= ctrlBlinkOn
		case display.CursorBlock:
			// The controller has no solid block cursor. Blink is the
			// closest it offers.
			dev.control |= ctrlCursorOn | ctrlBlinkOn
		default:
			return fmt.Errorf("%s: unexpected cursor mode: %d", packageName, mode)
		}
	}
	return wrap(dev.writeByte(cmdDisplayCtrl|dev.control, false))
}

// Turn the display on / off. The content and the backlight are not
// affected, only the pixels.
func (dev *Dev) Display(on bool) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if on {
		dev.control |= ctrlDisplayOn
	} else {
		dev.control &^= ctrlDisplayOn
	}
	return wrap(dev.writeByte(cmdDisplayCtrl|dev.control, false))
}

// Turn the display's backlight on or off.
func (dev *Dev) Backlight(intensity display.Intensity) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.backlight = intensity > 0
	return wrap(dev.port.setBacklight(dev.backlight))
}

// Move the cursor home (MinRow(),MinCol()) and undo any display shift.
func (dev *Dev) Home() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.writeByte(cmdHome, false); err != nil {
		return wrap(err)
	}
	time.Sleep(delayClear)
	dev.row, dev.col = 1, 1
	return nil
}

// Return the min column position.
func (dev *Dev) MinCol() int {
	return 1
}

// Return the min row position.
func (dev *Dev) MinRow() int {
	return 1
}

// Move the cursor one step. Forward and Backward use the controller's
// cursor shift, Up and Down reposition through the tracked location.
func (dev *Dev) Move(dir display.CursorDirection) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	switch dir {
	case display.Forward:
		if err := dev.writeByte(cmdShift|shiftRight, false); err != nil {
			return wrap(err)
		}
		if dev.col < dev.cols {
			dev.col++
		}
		return nil
	case display.Backward:
		if err := dev.writeByte(cmdShift, false); err != nil {
			return wrap(err)
		}
		if dev.col > 1 {
			dev.col--
		}
		return nil
	case display.Up:
		return dev.moveTo(dev.row-1, dev.col)
	case display.Down:
		return dev.moveTo(dev.row+1, dev.col)
	default:
		return fmt.Errorf("%s: unexpected cursor direction: %d", packageName, dir)
	}
}

// Move the cursor to an arbitrary position. Row and column are 1 based.
func (dev *Dev) MoveTo(row, col int) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.moveTo(row, col)
}

func (dev *Dev) moveTo(row, col int) error {
	if row < dev.MinRow() || row > dev.rows || col < dev.MinCol() || col > dev.cols {
		return fmt.Errorf("%s: MoveTo(%d,%d) out of range for %dx%d", packageName, row, col, dev.rows, dev.cols)
	}
	if err := dev.writeByte(cmdSetDDRAM|dev.ddramAddress(row, col), false); err != nil {
		return wrap(err)
	}
	dev.row, dev.col = row, col
	return nil
}

// Return the number of rows the display supports.
func (dev *Dev) Rows() int {
	return dev.rows
}

// ScrollLeft shifts the whole display one cell to the left without
// changing the display RAM.
func (dev *Dev) ScrollLeft() error {
	return dev.command(cmdShift | shiftDisplay)
}

// ScrollRight shifts the whole display one cell to the right.
func (dev *Dev) ScrollRight() error {
	return dev.command(cmdShift | shiftDisplay | shiftRight)
}

// CreateChar loads a 5x8 glyph into one of the 8 character generator
// slots. The glyph rows are the low 5 bits of each byte, bit 4 leftmost.
// Writing byte values 0..7 afterwards displays the slot's glyph. The
// cursor position is preserved.
func (dev *Dev) CreateChar(slot int, pattern [8]byte) error {
	if slot < 0 || slot > 7 {
		return fmt.Errorf("%s: CreateChar slot %d out of range 0..7", packageName, slot)
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.writeByte(cmdSetCGRAM|byte(slot)<<3, false); err != nil {
		return wrap(err)
	}
	for _, row := range pattern {
		if err := dev.writeByte(row&0x1f, true); err != nil {
			return wrap(err)
		}
	}
	// The address counter is left pointing at CGRAM. Point it back at the
	// tracked cursor cell so the next Write lands where expected.
	return wrap(dev.writeByte(cmdSetDDRAM|dev.ddramAddress(dev.row, dev.col), false))
}

// nextRow moves the cursor to the start of the following row, wrapping
// back to the first row past the last one, and re-addresses DDRAM.
func (dev *Dev) nextRow() error {
	dev.row++
	if dev.row > dev.rows {
		dev.row = 1
	}
	dev.col = 1
	return dev.writeByte(cmdSetDDRAM|dev.ddramAddress(dev.row, dev.col), false)
}

// Write sends data bytes to the display at the current cursor position.
// The write advances through the display row by row and wraps back to the
// first cell after the last one. '\n' moves to the start of the next row,
// '\r' to the start of the current one. Byte values 0..7 select the
// custom glyphs loaded with CreateChar.
func (dev *Dev) Write(p []byte) (int, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	n := 0
	for _, b := range p {
		switch b {
		case '\n':
			if err := dev.nextRow(); err != nil {
				return n, wrap(err)
			}
		case '\r':
			dev.col = 1
			if err := dev.writeByte(cmdSetDDRAM|dev.ddramAddress(dev.row, dev.col), false); err != nil {
				return n, wrap(err)
			}
		default:
			if dev.col > dev.cols {
				if err := dev.nextRow(); err != nil {
					return n, wrap(err)
				}
			}
			if err := dev.writeByte(b, true); err != nil {
				return n, wrap(err)
			}
			dev.col++
		}
		n++
	}
	return n, nil
}

// Write a string output to the display.
func (dev *Dev) WriteString(text string) (int, error) {
	return dev.Write([]byte(text))
}

// Halt clears the display, turns the backlight off, and turns the display
// off. The controller stays powered and can be reused without a new init.
func (dev *Dev) Halt() error {
	_ = dev.Clear()
	_ = dev.Backlight(0)
	_ = dev.Display(false)
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return wrap(dev.port.halt())
}

// Return info about the display.
func (dev *Dev) String() string {
	return fmt.Sprintf("%s.%s Rows: %d Cols: %d", packageName, dev.port, dev.rows, dev.cols)
}

var _ display.TextDisplay = &Dev{}
var _ display.DisplayBacklight = &Dev{}
var _ conn.Resource = &Dev{}
