// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package glyph

// Ready made patterns for common symbols missing from the HD44780
// character ROM. Load one with CreateChar and print the slot number.
var (
	Heart = [8]byte{
		0b00000,
		0b01010,
		0b11111,
		0b11111,
		0b01110,
		0b00100,
		0b00000,
		0b00000,
	}

	Bell = [8]byte{
		0b00100,
		0b01110,
		0b01110,
		0b01110,
		0b11111,
		0b00000,
		0b00100,
		0b00000,
	}

	Degree = [8]byte{
		0b01100,
		0b10010,
		0b10010,
		0b01100,
		0b00000,
		0b00000,
		0b00000,
		0b00000,
	}

	ArrowRight = [8]byte{
		0b00000,
		0b00100,
		0b00010,
		0b11111,
		0b00010,
		0b00100,
		0b00000,
		0b00000,
	}

	ArrowLeft = [8]byte{
		0b00000,
		0b00100,
		0b01000,
		0b11111,
		0b01000,
		0b00100,
		0b00000,
		0b00000,
	}

	Hourglass = [8]byte{
		0b11111,
		0b10001,
		0b01010,
		0b00100,
		0b01010,
		0b10001,
		0b11111,
		0b00000,
	}

	Battery = [8]byte{
		0b01110,
		0b11111,
		0b10001,
		0b10001,
		0b10001,
		0b10001,
		0b10001,
		0b11111,
	}

	Note = [8]byte{
		0b00010,
		0b00011,
		0b00010,
		0b01110,
		0b11110,
		0b01100,
		0b00000,
		0b00000,
	}
)
