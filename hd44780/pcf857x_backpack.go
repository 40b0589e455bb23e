// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"

	"github.com/GermanBionicSystems/charlcd/pcf857x"
)

// NewPCF857xBackpack creates a display driven through the pcf857x package,
// with the expander's pins registered as host GPIO. It talks to the same
// backpack hardware as NewI2C but each line transition is its own register
// write, so NewI2C is the faster choice when the pins are not needed
// elsewhere.
//
// # Product Information
//
// https://www.handsontec.com/dataspecs/I2C_2004_LCD.pdf
func NewPCF857xBackpack(bus i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}
	if err := checkAddr(opts.Addr); err != nil {
		return nil, err
	}
	if err := opts.Pinout.validate(); err != nil {
		return nil, err
	}
	pcf, err := pcf857x.New(bus, opts.Addr, pcf857x.PCF8574)
	if err != nil {
		return nil, wrap(err)
	}
	pinout := opts.Pinout
	// R/W is wired through on this backpack. Hold it low, the driver
	// never reads.
	if err := pcf.Pins[pinout.RW].Out(gpio.Low); err != nil {
		return nil, wrap(err)
	}
	data, err := pcf.Group(int(pinout.D4), int(pinout.D5), int(pinout.D6), int(pinout.D7))
	if err != nil {
		return nil, wrap(err)
	}
	rs := pcf.Pins[pinout.RS]
	e := pcf.Pins[pinout.E]
	bl := pcf.Pins[pinout.Backlight]
	return newGPIO(data, rs, e, bl, pinout.BacklightActiveLow, opts)
}
