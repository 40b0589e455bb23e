// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package termlcd

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/charlcd/hd44780"
)

// Backpack is a software model of a PCF8574 LCD backpack and the display
// controller behind it. It implements i2c.Bus: every register write is
// decoded through the expander pinout, enable strobes latch nibbles, and
// latched bytes run the controller state machine with its display RAM,
// character generator RAM, address counter and display shift. Driver code
// can run against it unmodified and tests can then assert on the decoded
// screen content.
//
// The controller starts in 8 bit mode and follows the function set
// instructions through the 4 bit switch, the same way the silicon does.
type Backpack struct {
	addr   uint16
	pinout hd44780.Pinout
	rows   int
	cols   int

	mu       sync.Mutex
	prevE    bool
	lit      bool
	eightBit bool
	haveHigh bool
	high     byte
	ddram    [128]byte
	cgram    [64]byte
	ac       byte
	inCG     bool
	shift    int
	control  byte
	mode     byte
	function byte
	speed    physic.Frequency
}

// NewBackpack returns a backpack model listening at addr with the given
// display geometry and pinout.
func NewBackpack(addr uint16, rows, cols int, pinout hd44780.Pinout) (*Backpack, error) {
	if rows < 1 || rows > 4 || cols < 1 || cols > 40 {
		return nil, fmt.Errorf("%s: invalid geometry %dx%d", packageName, rows, cols)
	}
	bp := &Backpack{
		addr:     addr,
		pinout:   pinout,
		rows:     rows,
		cols:     cols,
		eightBit: true,
	}
	for i := range bp.ddram {
		bp.ddram[i] = ' '
	}
	return bp, nil
}

func (bp *Backpack) String() string {
	return fmt.Sprintf("backpack(%#02x)", bp.addr)
}

// SetSpeed records the requested bus speed.
func (bp *Backpack) SetSpeed(f physic.Frequency) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	bp.speed = f
	return nil
}

// Tx accepts register writes for the expander. Reads are not modeled.
func (bp *Backpack) Tx(addr uint16, w, r []byte) error {
	if addr != bp.addr {
		return fmt.Errorf("%s: no device at address %#02x", packageName, addr)
	}
	if len(r) != 0 {
		return fmt.Errorf("%s: the backpack model is write only", packageName)
	}
	bp.mu.Lock()
	defer bp.mu.Unlock()
	for _, b := range w {
		bp.writeReg(b)
	}
	return nil
}

func (bp *Backpack) writeReg(b byte) {
	e := b&(1<<bp.pinout.E) != 0
	if bp.prevE && !e {
		// The controller latches on the falling enable edge. The data
		// and register select lines carry the same levels as during the
		// high phase.
		bp.latch(b)
	}
	bp.prevE = e
	bp.lit = (b&(1<<bp.pinout.Backlight) != 0) != bp.pinout.BacklightActiveLow
}

func (bp *Backpack) latch(b byte) {
	nib := byte(0)
	for i, bit := range [4]uint8{bp.pinout.D4, bp.pinout.D5, bp.pinout.D6, bp.pinout.D7} {
		if b&(1<<bit) != 0 {
			nib |= 1 << i
		}
	}
	rs := b&(1<<bp.pinout.RS) != 0
	if bp.eightBit {
		// Only the high half of the data bus is wired, the low bits
		// float.
		bp.execute(nib<<4, rs)
		return
	}
	if !bp.haveHigh {
		bp.high = nib
		bp.haveHigh = true
		return
	}
	bp.haveHigh = false
	bp.execute(bp.high<<4|nib, rs)
}

func (bp *Backpack) execute(b byte, rs bool) {
	if rs {
		bp.writeData(b)
		return
	}
	switch {
	case b&0x80 != 0:
		bp.ac = b & 0x7f
		bp.inCG = false
	case b&0x40 != 0:
		bp.ac = b & 0x3f
		bp.inCG = true
	case b&0x20 != 0:
		bp.function = b & 0x1f
		bp.eightBit = bp.function&0x10 != 0
		bp.haveHigh = false
	case b&0x10 != 0:
		if b&0x08 != 0 {
			// Display shift moves the window over the RAM.
			if b&0x04 != 0 {
				bp.shift = (bp.shift + 39) % 40
			} else {
				bp.shift = (bp.shift + 1) % 40
			}
		} else if b&0x04 != 0 {
			bp.advance(1)
		} else {
			bp.advance(-1)
		}
	case b&0x08 != 0:
		bp.control = b & 0x07
	case b&0x04 != 0:
		bp.mode = b & 0x03
	case b&0x02 != 0:
		bp.ac = 0
		bp.inCG = false
		bp.shift = 0
	case b&0x01 != 0:
		for i := range bp.ddram {
			bp.ddram[i] = ' '
		}
		bp.ac = 0
		bp.inCG = false
		bp.shift = 0
		// Clear also resets the entry mode to increment.
		bp.mode |= 0x02
	}
}

func (bp *Backpack) writeData(b byte) {
	if bp.inCG {
		bp.cgram[bp.ac&0x3f] = b
		if bp.mode&0x02 != 0 {
			bp.ac = (bp.ac + 1) & 0x3f
		} else {
			bp.ac = (bp.ac - 1) & 0x3f
		}
		return
	}
	bp.ddram[bp.ac&0x7f] = b
	step := 1
	if bp.mode&0x02 == 0 {
		step = -1
	}
	bp.advance(step)
	if bp.mode&0x01 != 0 {
		// Shift accompanies the write so the cursor appears to stay
		// put.
		if step > 0 {
			bp.shift = (bp.shift + 1) % 40
		} else {
			bp.shift = (bp.shift + 39) % 40
		}
	}
}

// advance moves the DDRAM address counter one position, following the two
// line address map when the display is configured for two lines.
func (bp *Backpack) advance(step int) {
	if bp.inCG {
		bp.ac = byte(int(bp.ac)+step) & 0x3f
		return
	}
	if bp.function&0x08 == 0 {
		// Single line: 80 consecutive cells.
		if step > 0 {
			if bp.ac >= 0x4f {
				bp.ac = 0
			} else {
				bp.ac++
			}
		} else {
			if bp.ac == 0 {
				bp.ac = 0x4f
			} else {
				bp.ac--
			}
		}
		return
	}
	if step > 0 {
		switch bp.ac {
		case 0x27:
			bp.ac = 0x40
		case 0x67:
			bp.ac = 0
		default:
			bp.ac = (bp.ac + 1) & 0x7f
		}
	} else {
		switch bp.ac {
		case 0x40:
			bp.ac = 0x27
		case 0x00:
			bp.ac = 0x67
		default:
			bp.ac = (bp.ac - 1) & 0x7f
		}
	}
}

// rowBase returns the DDRAM address of the first cell of a 1 based row.
func (bp *Backpack) rowBase(row int) byte {
	return byte(((row-1)%2)*0x40 + ((row-1)/2)*bp.cols)
}

// Line returns the visible content of a 1 based row, with the display
// shift applied.
func (bp *Backpack) Line(row int) string {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if row < 1 || row > bp.rows {
		return ""
	}
	base := bp.rowBase(row)
	line := base & 0x40
	off := int(base & 0x3f)
	cells := make([]byte, bp.cols)
	for c := 0; c < bp.cols; c++ {
		cells[c] = bp.ddram[line|byte((off+c+bp.shift)%40)]
	}
	return string(cells)
}

// Screen returns all visible rows joined with newlines.
func (bp *Backpack) Screen() string {
	lines := make([]string, bp.rows)
	for r := 1; r <= bp.rows; r++ {
		lines[r-1] = bp.Line(r)
	}
	s := lines[0]
	for _, l := range lines[1:] {
		s += "\n" + l
	}
	return s
}

// Glyph returns the pattern latched into a character generator slot.
func (bp *Backpack) Glyph(slot int) [8]byte {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	var p [8]byte
	if slot < 0 || slot > 7 {
		return p
	}
	for i := range p {
		p[i] = bp.cgram[slot*8+i] & 0x1f
	}
	return p
}

// BacklightOn reports the state of the backlight line.
func (bp *Backpack) BacklightOn() bool {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.lit
}

// DisplayOn reports the display on/off control bit.
func (bp *Backpack) DisplayOn() bool {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.control&0x04 != 0
}

// CursorOn reports the cursor visibility control bit.
func (bp *Backpack) CursorOn() bool {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.control&0x02 != 0
}

// BlinkOn reports the cursor blink control bit.
func (bp *Backpack) BlinkOn() bool {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.control&0x01 != 0
}

// AddressCounter returns the current RAM address.
func (bp *Backpack) AddressCounter() byte {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.ac
}

var _ i2c.Bus = &Backpack{}
