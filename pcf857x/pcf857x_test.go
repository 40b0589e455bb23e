// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcf857x

import (
	"errors"
	"strings"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func getDev(t *testing.T, chip Variant, ops []i2ctest.IO) (*Dev, *i2ctest.Playback) {
	t.Helper()
	bus := &i2ctest.Playback{Ops: ops, DontPanic: true}
	dev, err := New(bus, DefaultAddress, chip)
	if err != nil {
		t.Fatal(err)
	}
	return dev, bus
}

// Test basic dev and pin functions. None of these touch the bus.
func TestBasic(t *testing.T) {
	dev, bus := getDev(t, PCF8574, nil)
	if s := dev.String(); s != "PCF8574_20" {
		t.Errorf("unexpected String() %q", s)
	}
	if len(dev.Pins) != 8 {
		t.Errorf("expected 8 GPIO pins, found %d", len(dev.Pins))
	}
	pin := dev.Pins[1]
	if err := pin.PWM(10, 10); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("PWM() expected ErrNotImplemented, received %v", err)
	}
	if pin.Halt() != nil {
		t.Error("expected nil on pin.Halt()")
	}
	if pin.Name() != pin.String() {
		t.Error("pin.Name()!=pin.String()")
	}
	if !strings.HasPrefix(pin.Name(), dev.String()) {
		t.Errorf("expected pin.Name()=%s to start with dev.String()=%s", pin.Name(), dev.String())
	}
	if err := dev.Halt(); err != nil {
		t.Error(err)
	}
	if err := bus.Close(); err != nil {
		t.Error(err)
	}
}

// Test that the pins are registered in gpioreg as expected.
func TestGPIOReg(t *testing.T) {
	dev, _ := getDev(t, PCF8574, nil)
	for ix := range dev.width {
		p := dev.Pins[ix]
		if p.Number() != ix {
			t.Errorf("pin.Number() does not match ordinal position %d! Found %d", ix, p.Number())
		}
		if gpioreg.ByName(p.Name()) == nil {
			t.Errorf("pin %s not found in gpioreg", p.Name())
		}
	}
}

// Writes that don't change the register state must be skipped on the bus.
func TestPinOut(t *testing.T) {
	dev, bus := getDev(t, PCF8574, []i2ctest.IO{
		{Addr: DefaultAddress, W: []byte{0x08}},
		{Addr: DefaultAddress, W: []byte{0x09}},
		{Addr: DefaultAddress, W: []byte{0x01}},
	})
	if err := dev.Pins[3].Out(gpio.High); err != nil {
		t.Fatal(err)
	}
	// Same value again, no bus traffic.
	if err := dev.Pins[3].Out(gpio.High); err != nil {
		t.Fatal(err)
	}
	if err := dev.Pins[0].Out(gpio.High); err != nil {
		t.Fatal(err)
	}
	if err := dev.Pins[3].Out(gpio.Low); err != nil {
		t.Fatal(err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("unconsumed playback ops: %v", err)
	}
}

// Reading a pin writes it high first, then reads the register back.
func TestPinRead(t *testing.T) {
	dev, bus := getDev(t, PCF8574, []i2ctest.IO{
		{Addr: DefaultAddress, W: []byte{0x04}},
		{Addr: DefaultAddress, R: []byte{0x04}},
		{Addr: DefaultAddress, R: []byte{0x00}},
	})
	pin := dev.Pins[2]
	if err := pin.In(gpio.Float, gpio.NoEdge); err != nil {
		t.Fatal(err)
	}
	if l := pin.Read(); l != gpio.High {
		t.Errorf("expected High, got %s", l)
	}
	// The external device pulls the line down.
	if l := pin.Read(); l != gpio.Low {
		t.Errorf("expected Low, got %s", l)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("unconsumed playback ops: %v", err)
	}
}

func TestGroup(t *testing.T) {
	dev, bus := getDev(t, PCF8574, []i2ctest.IO{
		{Addr: DefaultAddress, W: []byte{0xf0}},
		{Addr: DefaultAddress, W: []byte{0x50}},
		{Addr: DefaultAddress, W: []byte{0x53}},
		{Addr: DefaultAddress, W: []byte{0x5f}},
		{Addr: DefaultAddress, R: []byte{0x5a}},
	})
	defer func() { _ = dev.Halt() }()
	gr1, err := dev.Group(4, 5, 6, 7)
	if err != nil {
		t.Fatal(err)
	}
	gr2, err := dev.Group(0, 1, 2, 3)
	if err != nil {
		t.Fatal(err)
	}

	for offset, pin := range gr1.Pins() {
		if x := gr1.ByNumber(pin.Number()); x == nil {
			t.Errorf("group.ByNumber() returned nil for pin %d", pin.Number())
		}
		if x := gr1.ByOffset(offset); x == nil || x.Number() != pin.Number() {
			t.Errorf("group.ByOffset(%d) didn't return pin %d", offset, pin.Number())
		}
		if x := gr1.ByName(pin.Name()); x == nil || x.Name() != pin.Name() {
			t.Error("group.ByName() didn't find a pin or returned the wrong pin!")
		}
	}
	if s := gr2.String(); s != "PCF8574_20[ 0 1 2 3 ]" {
		t.Errorf("unexpected group String() %q", s)
	}

	if err := gr1.Out(0x0f, 0); err != nil {
		t.Fatal(err)
	}
	if err := gr1.Out(0x05, 0); err != nil {
		t.Fatal(err)
	}
	if err := gr2.Out(0x03, 0x03); err != nil {
		t.Fatal(err)
	}
	v, err := gr2.Read(0)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x0a {
		t.Errorf("expected group read 0x0a, got %#02x", v)
	}

	if _, _, err := gr1.WaitForEdge(0); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("WaitForEdge() expected ErrNotImplemented, received %v", err)
	}
	if err := gr1.Halt(); err != nil {
		t.Error(err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("unconsumed playback ops: %v", err)
	}
}

func TestGroupRange(t *testing.T) {
	dev, _ := getDev(t, PCF8574, nil)
	if _, err := dev.Group(0, 8); err == nil {
		t.Error("expected an error for a pin number past the register width")
	}
	if _, err := dev.Group(-1); err == nil {
		t.Error("expected an error for a negative pin number")
	}
}

// The PCF8575 carries 16 pins and transfers two bytes, low byte first.
func TestPCF8575(t *testing.T) {
	dev, bus := getDev(t, PCF8575, []i2ctest.IO{
		{Addr: DefaultAddress, W: []byte{0x00, 0x01}},
		{Addr: DefaultAddress, W: []byte{0x00, 0x81}},
	})
	if len(dev.Pins) != 16 {
		t.Errorf("expected 16 GPIO pins, found %d", len(dev.Pins))
	}
	gr, err := dev.Group(8, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := gr.Out(0x01, 0); err != nil {
		t.Fatal(err)
	}
	if err := dev.Pins[15].Out(gpio.High); err != nil {
		t.Fatal(err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("unconsumed playback ops: %v", err)
	}
}
