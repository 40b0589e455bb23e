// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// gpioPort drives the LCD lines as real GPIO: the data nibble as a
// gpio.Group plus discrete RS and E pins. The pins can belong to the host
// or to an expander chip that exposes its register as pins, like pcf857x
// or nxp74hc595.
type gpioPort struct {
	data     gpio.Group
	rs       gpio.PinOut
	e        gpio.PinOut
	bl       gpio.PinOut
	blInvert bool
}

func (p *gpioPort) writeNibble(nib byte, rs bool) error {
	if err := p.rs.Out(gpio.Level(rs)); err != nil {
		return err
	}
	if err := p.data.Out(gpio.GPIOValue(nib), 0x0f); err != nil {
		return err
	}
	if err := p.e.Out(gpio.High); err != nil {
		return err
	}
	time.Sleep(delayPulse)
	if err := p.e.Out(gpio.Low); err != nil {
		return err
	}
	time.Sleep(delaySettle)
	return nil
}

func (p *gpioPort) setBacklight(on bool) error {
	if p.bl == nil {
		return nil
	}
	return p.bl.Out(gpio.Level(on != p.blInvert))
}

func (p *gpioPort) halt() error {
	return p.data.Halt()
}

func (p *gpioPort) String() string {
	return p.data.String()
}

// NewGPIO creates and initializes an LCD wired directly to GPIO pins in 4
// bit mode. data holds the four pins D4..D7 in order, backlight may be nil
// when the backlight is hardwired. Opts.Addr and Opts.Pinout are not used
// by this transport.
func NewGPIO(data gpio.Group, rs, e, backlight gpio.PinOut, opts *Opts) (*Dev, error) {
	return newGPIO(data, rs, e, backlight, false, opts)
}

func newGPIO(data gpio.Group, rs, e, backlight gpio.PinOut, blInvert bool, opts *Opts) (*Dev, error) {
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}
	if err := checkGeometry(opts); err != nil {
		return nil, err
	}
	if len(data.Pins()) != 4 {
		return nil, fmt.Errorf("%s: the data group must hold exactly the four pins D4..D7, got %d", packageName, len(data.Pins()))
	}
	if rs == nil || e == nil {
		return nil, fmt.Errorf("%s: the RS and E pins are required", packageName)
	}
	// Park the control lines so the first strobe starts from a known
	// level.
	if err := rs.Out(gpio.Low); err != nil {
		return nil, wrap(err)
	}
	if err := e.Out(gpio.Low); err != nil {
		return nil, wrap(err)
	}
	dev := &Dev{
		rows: opts.Rows,
		cols: opts.Cols,
		port: &gpioPort{
			data:     data,
			rs:       rs,
			e:        e,
			bl:       backlight,
			blInvert: blInvert,
		},
	}
	if err := dev.init(opts); err != nil {
		return nil, err
	}
	return dev, nil
}
