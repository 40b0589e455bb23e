// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
)

// Pinout maps the LCD control and data lines onto the bits of the
// backpack's expander register. The stock PCF8574 backpack wiring is
// PinoutPCF8574; boards from other vendors route the lines differently.
type Pinout struct {
	// RS, RW and E are the register select, read/write and enable strobe
	// bit positions. RW is held low, the driver never reads back.
	RS uint8
	RW uint8
	E  uint8
	// Backlight is the bit driving the backlight transistor.
	Backlight uint8
	// D4..D7 carry the data nibble.
	D4 uint8
	D5 uint8
	D6 uint8
	D7 uint8
	// BacklightActiveLow is set on boards that switch the backlight with
	// a cleared bit.
	BacklightActiveLow bool
}

// PinoutPCF8574 is the wiring of the ubiquitous PCF8574 backpack sold
// with LCD1602 and LCD2004 modules.
var PinoutPCF8574 = Pinout{
	RS:        0,
	RW:        1,
	E:         2,
	Backlight: 3,
	D4:        4,
	D5:        5,
	D6:        6,
	D7:        7,
}

// PinoutMJKDZ is the wiring of the MJKDZ backpack, with the nibble on the
// low bits and an active low backlight.
var PinoutMJKDZ = Pinout{
	D4:                 0,
	D5:                 1,
	D6:                 2,
	D7:                 3,
	E:                  4,
	RW:                 5,
	RS:                 6,
	Backlight:          7,
	BacklightActiveLow: true,
}

func (p *Pinout) validate() error {
	var seen uint16
	for _, bit := range []uint8{p.RS, p.RW, p.E, p.Backlight, p.D4, p.D5, p.D6, p.D7} {
		if bit > 7 {
			return fmt.Errorf("%s: pinout bit %d outside the 8 bit expander register", packageName, bit)
		}
		if seen&(1<<bit) != 0 {
			return fmt.Errorf("%s: pinout maps two lines to expander bit %d", packageName, bit)
		}
		seen |= 1 << bit
	}
	return nil
}

// i2cPort drives the LCD through an expander register behind a single I²C
// address. Every line transition is one register write.
type i2cPort struct {
	c         *i2c.Dev
	pinout    Pinout
	backlight bool
}

// compose builds the register image for a nibble with the strobe low. The
// backlight bit rides along on every write since the register has no
// bit-level access.
func (p *i2cPort) compose(nib byte, rs bool) byte {
	v := byte(0)
	for i, bit := range [4]uint8{p.pinout.D4, p.pinout.D5, p.pinout.D6, p.pinout.D7} {
		if nib&(1<<i) != 0 {
			v |= 1 << bit
		}
	}
	if rs {
		v |= 1 << p.pinout.RS
	}
	if p.backlight != p.pinout.BacklightActiveLow {
		v |= 1 << p.pinout.Backlight
	}
	return v
}

func (p *i2cPort) writeNibble(nib byte, rs bool) error {
	v := p.compose(nib, rs)
	e := byte(1) << p.pinout.E
	// Set up the nibble, raise E, then lower it again. The controller
	// latches on the falling edge.
	if err := p.tx(v); err != nil {
		return err
	}
	if err := p.tx(v | e); err != nil {
		return err
	}
	time.Sleep(delayPulse)
	if err := p.tx(v); err != nil {
		return err
	}
	time.Sleep(delaySettle)
	return nil
}

func (p *i2cPort) setBacklight(on bool) error {
	p.backlight = on
	// Rewrite the register with idle lines so the change is immediate.
	return p.tx(p.compose(0, false))
}

func (p *i2cPort) halt() error {
	return nil
}

func (p *i2cPort) tx(b byte) error {
	return p.c.Tx([]byte{b}, nil)
}

func (p *i2cPort) String() string {
	return p.c.String()
}

func checkAddr(addr uint16) error {
	if (addr < 0x20 || addr > 0x27) && (addr < 0x38 || addr > 0x3f) {
		return fmt.Errorf("%s: invalid I²C address 0x%02x, PCF8574 responds at 0x20..0x27 and PCF8574A at 0x38..0x3f", packageName, addr)
	}
	return nil
}

// NewI2C creates and initializes an LCD behind an I²C expander backpack.
// opts selects the address, geometry and pinout; nil means DefaultOpts.
//
// The expander is a PCF8574 at 0x20..0x27 or a PCF8574A at 0x38..0x3F.
func NewI2C(bus i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}
	if err := checkAddr(opts.Addr); err != nil {
		return nil, err
	}
	if err := checkGeometry(opts); err != nil {
		return nil, err
	}
	if err := opts.Pinout.validate(); err != nil {
		return nil, err
	}
	dev := &Dev{
		rows: opts.Rows,
		cols: opts.Cols,
		port: &i2cPort{
			c:      &i2c.Dev{Bus: bus, Addr: opts.Addr},
			pinout: opts.Pinout,
		},
	}
	if err := dev.init(opts); err != nil {
		return nil, err
	}
	return dev, nil
}
