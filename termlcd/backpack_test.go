// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package termlcd

import (
	"strings"
	"testing"

	"periph.io/x/conn/v3/display"

	"github.com/GermanBionicSystems/charlcd/hd44780"
)

// newBackpackDev wires a real driver to the backpack model, so the
// assertions below run on screen content decoded from the register
// writes.
func newBackpackDev(t *testing.T, rows, cols int) (*Backpack, *hd44780.Dev) {
	t.Helper()
	bp, err := NewBackpack(0x27, rows, cols, hd44780.PinoutPCF8574)
	if err != nil {
		t.Fatal(err)
	}
	dev, err := hd44780.NewI2C(bp, &hd44780.Opts{
		Addr:      0x27,
		Rows:      rows,
		Cols:      cols,
		Pinout:    hd44780.PinoutPCF8574,
		Backlight: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	return bp, dev
}

func TestBackpackInit(t *testing.T) {
	bp, dev := newBackpackDev(t, 2, 16)
	if !bp.DisplayOn() {
		t.Error("expected the display on after init")
	}
	if bp.CursorOn() || bp.BlinkOn() {
		t.Error("expected the cursor off after init")
	}
	if !bp.BacklightOn() {
		t.Error("expected the backlight on after init")
	}
	if ac := bp.AddressCounter(); ac != 0 {
		t.Errorf("expected the address counter home, got %#02x", ac)
	}
	if l := bp.Line(1); l != strings.Repeat(" ", 16) {
		t.Errorf("expected a blank row, got %q", l)
	}
	if !strings.HasPrefix(dev.String(), "hd44780.backpack") {
		t.Errorf("unexpected String() %q", dev.String())
	}
}

func TestBackpackWrite(t *testing.T) {
	bp, dev := newBackpackDev(t, 2, 16)
	n, err := dev.WriteString("Hello\nworld")
	if err != nil {
		t.Fatal(err)
	}
	if n != 11 {
		t.Errorf("expected n=11, got %d", n)
	}
	if l := bp.Line(1); l != "Hello           " {
		t.Errorf("unexpected row 1 %q", l)
	}
	if l := bp.Line(2); l != "world           " {
		t.Errorf("unexpected row 2 %q", l)
	}
	if s := bp.Screen(); s != bp.Line(1)+"\n"+bp.Line(2) {
		t.Errorf("unexpected Screen() %q", s)
	}
}

func TestBackpackWrap(t *testing.T) {
	bp, dev := newBackpackDev(t, 1, 8)
	if _, err := dev.WriteString("ABCDEFGHIJ"); err != nil {
		t.Fatal(err)
	}
	if l := bp.Line(1); l != "IJCDEFGH" {
		t.Errorf("expected the write to wrap to the first cell, got %q", l)
	}
}

func TestBackpackFourRows(t *testing.T) {
	bp, dev := newBackpackDev(t, 4, 20)
	for row := 1; row <= 4; row++ {
		if err := dev.MoveTo(row, 1); err != nil {
			t.Fatal(err)
		}
		if _, err := dev.WriteString(strings.Repeat(string(rune('0'+row)), 3)); err != nil {
			t.Fatal(err)
		}
	}
	for row := 1; row <= 4; row++ {
		want := strings.Repeat(string(rune('0'+row)), 3) + strings.Repeat(" ", 17)
		if l := bp.Line(row); l != want {
			t.Errorf("row %d: expected %q, got %q", row, want, l)
		}
	}
}

func TestBackpackClearHome(t *testing.T) {
	bp, dev := newBackpackDev(t, 2, 16)
	if _, err := dev.WriteString("junk"); err != nil {
		t.Fatal(err)
	}
	if err := dev.ScrollLeft(); err != nil {
		t.Fatal(err)
	}
	if err := dev.Home(); err != nil {
		t.Fatal(err)
	}
	if l := bp.Line(1); l != "junk            " {
		t.Errorf("expected Home to undo the shift, got %q", l)
	}
	if err := dev.Clear(); err != nil {
		t.Fatal(err)
	}
	if l := bp.Line(1); l != strings.Repeat(" ", 16) {
		t.Errorf("expected a blank row after Clear, got %q", l)
	}
	if ac := bp.AddressCounter(); ac != 0 {
		t.Errorf("expected the address counter home, got %#02x", ac)
	}
}

func TestBackpackScroll(t *testing.T) {
	bp, dev := newBackpackDev(t, 2, 16)
	if _, err := dev.WriteString("A"); err != nil {
		t.Fatal(err)
	}
	if err := dev.ScrollRight(); err != nil {
		t.Fatal(err)
	}
	if l := bp.Line(1); l[1] != 'A' {
		t.Errorf("expected A shifted right, got %q", l)
	}
	if err := dev.ScrollLeft(); err != nil {
		t.Fatal(err)
	}
	if err := dev.ScrollLeft(); err != nil {
		t.Fatal(err)
	}
	if l := bp.Line(1); strings.ContainsRune(l, 'A') {
		t.Errorf("expected A shifted off screen, got %q", l)
	}
}

func TestBackpackAutoScroll(t *testing.T) {
	bp, dev := newBackpackDev(t, 1, 8)
	if err := dev.AutoScroll(true); err != nil {
		t.Fatal(err)
	}
	if err := dev.MoveTo(1, 4); err != nil {
		t.Fatal(err)
	}
	if _, err := dev.WriteString("AB"); err != nil {
		t.Fatal(err)
	}
	if l := bp.Line(1); l != " AB     " {
		t.Errorf("expected the text to slide left, got %q", l)
	}
}

func TestBackpackTextDirection(t *testing.T) {
	bp, dev := newBackpackDev(t, 1, 8)
	if err := dev.TextDirection(false); err != nil {
		t.Fatal(err)
	}
	if err := dev.MoveTo(1, 4); err != nil {
		t.Fatal(err)
	}
	if _, err := dev.WriteString("AB"); err != nil {
		t.Fatal(err)
	}
	if l := bp.Line(1); l != "  BA    " {
		t.Errorf("expected right to left text, got %q", l)
	}
}

func TestBackpackCursor(t *testing.T) {
	bp, dev := newBackpackDev(t, 2, 16)
	if err := dev.Cursor(display.CursorUnderline); err != nil {
		t.Fatal(err)
	}
	if !bp.CursorOn() || bp.BlinkOn() {
		t.Error("expected underline only")
	}
	if err := dev.Cursor(display.CursorBlink); err != nil {
		t.Fatal(err)
	}
	if bp.CursorOn() || !bp.BlinkOn() {
		t.Error("expected blink only")
	}
	if err := dev.Cursor(display.CursorOff); err != nil {
		t.Fatal(err)
	}
	if bp.CursorOn() || bp.BlinkOn() {
		t.Error("expected the cursor off")
	}
	if err := dev.Display(false); err != nil {
		t.Fatal(err)
	}
	if bp.DisplayOn() {
		t.Error("expected the display off")
	}
}

func TestBackpackGlyph(t *testing.T) {
	bp, dev := newBackpackDev(t, 2, 16)
	bell := [8]byte{0x04, 0x0e, 0x0e, 0x0e, 0x1f, 0x00, 0x04, 0x00}
	if err := dev.CreateChar(3, bell); err != nil {
		t.Fatal(err)
	}
	if bp.Glyph(3) != bell {
		t.Errorf("expected the glyph latched, got %v", bp.Glyph(3))
	}
	if ac := bp.AddressCounter(); ac != 0 {
		t.Errorf("expected the address counter restored, got %#02x", ac)
	}
	if _, err := dev.Write([]byte{3}); err != nil {
		t.Fatal(err)
	}
	if l := bp.Line(1); l[0] != 3 {
		t.Errorf("expected the glyph cell written, got %q", l)
	}
}

func TestBackpackBacklight(t *testing.T) {
	bp, dev := newBackpackDev(t, 2, 16)
	if err := dev.Backlight(0); err != nil {
		t.Fatal(err)
	}
	if bp.BacklightOn() {
		t.Error("expected the backlight off")
	}
	if err := dev.Backlight(display.Intensity(255)); err != nil {
		t.Fatal(err)
	}
	if !bp.BacklightOn() {
		t.Error("expected the backlight on")
	}
}

func TestBackpackMJKDZ(t *testing.T) {
	bp, err := NewBackpack(0x38, 2, 16, hd44780.PinoutMJKDZ)
	if err != nil {
		t.Fatal(err)
	}
	dev, err := hd44780.NewI2C(bp, &hd44780.Opts{
		Addr:      0x38,
		Rows:      2,
		Cols:      16,
		Pinout:    hd44780.PinoutMJKDZ,
		Backlight: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !bp.BacklightOn() {
		t.Error("expected the active low backlight decoded as on")
	}
	if _, err := dev.WriteString("ok"); err != nil {
		t.Fatal(err)
	}
	if l := bp.Line(1); !strings.HasPrefix(l, "ok") {
		t.Errorf("unexpected row 1 %q", l)
	}
}

func TestBackpackErrors(t *testing.T) {
	if _, err := NewBackpack(0x27, 0, 16, hd44780.PinoutPCF8574); err == nil {
		t.Error("expected an error for 0 rows")
	}
	bp, err := NewBackpack(0x27, 2, 16, hd44780.PinoutPCF8574)
	if err != nil {
		t.Fatal(err)
	}
	if err := bp.Tx(0x10, []byte{0}, nil); err == nil {
		t.Error("expected an error for an unknown address")
	}
	if err := bp.Tx(0x27, nil, make([]byte, 1)); err == nil {
		t.Error("expected an error for a read request")
	}
}
