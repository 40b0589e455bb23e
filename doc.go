// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package charlcd is a container for HD44780 character LCD drivers and
// tooling.
//
// Package hd44780 drives the controller in 4 bit mode behind a PCF8574
// I²C backpack. Package termlcd draws the same display surface in a
// terminal and decodes the backpack protocol, so programs and tests run
// without hardware. Package glyph builds 5x8 CGRAM patterns from images
// and fonts. Packages pcf857x and nxp74hc595 drive the expander chips
// the backpacks are built from.
//
// cmd/lcdclock runs a display as a desk clock with an optional calendar
// row and cmd/lcdglyph turns a character into a CGRAM pattern literal.
package charlcd
