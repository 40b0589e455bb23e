// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"periph.io/x/conn/v3/spi"

	"github.com/GermanBionicSystems/charlcd/nxp74hc595"
)

// NewAdafruitSPIBackpack creates a display driven through the SPI side of
// the Adafruit I2C/SPI LCD backpack, which shifts the LCD lines out of a
// 74HC595 serial to parallel register. Opts.Addr and Opts.Pinout are not
// used, the board wiring is fixed.
//
// # Product Information
//
// https://www.adafruit.com/product/292
func NewAdafruitSPIBackpack(conn spi.Conn, opts *Opts) (*Dev, error) {
	chip, err := nxp74hc595.New(conn)
	if err != nil {
		return nil, wrap(err)
	}
	// The register outputs run D4..D7 on Q6..Q3, mirroring the MCP23008
	// on the I2C side of the board.
	data, err := chip.Group(6, 5, 4, 3)
	if err != nil {
		return nil, wrap(err)
	}
	return newGPIO(data, chip.Pins[1], chip.Pins[2], chip.Pins[7], false, opts)
}
