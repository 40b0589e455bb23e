// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package nxp74hc595

import (
	"bytes"
	"errors"
	"testing"

	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spitest"
)

func getDev(t *testing.T) (*Dev, *spitest.Record) {
	t.Helper()
	pb := &spitest.Record{Ops: make([]conntest.IO, 0)}
	conn, err := pb.Connect(physic.MegaHertz, spi.Mode1, 8)
	if err != nil {
		t.Fatal(err)
	}
	dev, err := New(conn)
	if err != nil {
		t.Fatal(err)
	}
	return dev, pb
}

func TestBasic(t *testing.T) {
	dev, pb := getDev(t)
	defer pb.Close()

	gr, err := dev.Group(6, 5, 4, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i := range 16 {
		if err := gr.Out(gpio.GPIOValue(i), 0); err != nil {
			t.Error(err)
		}
	}
	singlePin := dev.Pins[7]
	for i := range 20 {
		if err := singlePin.Out(gpio.Level(i%2 == 0)); err != nil {
			t.Error(err)
		}
		if err := dev.Pins[0].Out(i%2 != 0); err != nil {
			t.Error(err)
		}
	}
	if err := dev.Pins[0].Out(gpio.Low); err != nil {
		t.Error(err)
	}
	if err := singlePin.Out(gpio.High); err != nil {
		t.Error(err)
	}
	if s := dev.String(); s != devName {
		t.Errorf("unexpected String() %q", s)
	}
	if err := dev.Halt(); err != nil {
		t.Error(err)
	}
}

// The register is written whole. Writes that leave it unchanged must be
// skipped, and the very first write must happen even when it writes zero.
func TestWriteBytes(t *testing.T) {
	dev, pb := getDev(t)
	defer pb.Close()

	if err := dev.Pins[2].Out(gpio.Low); err != nil {
		t.Fatal(err)
	}
	if err := dev.Pins[2].Out(gpio.High); err != nil {
		t.Fatal(err)
	}
	// Unchanged, no transfer.
	if err := dev.Pins[2].Out(gpio.High); err != nil {
		t.Fatal(err)
	}
	if err := dev.Pins[2].Out(gpio.Low); err != nil {
		t.Fatal(err)
	}
	want := [][]byte{{0x00}, {0x04}, {0x00}}
	if len(pb.Ops) != len(want) {
		t.Fatalf("expected %d transfers, got %d", len(want), len(pb.Ops))
	}
	for ix, op := range pb.Ops {
		if !bytes.Equal(op.W, want[ix]) {
			t.Errorf("transfer %d: expected % x, got % x", ix, want[ix], op.W)
		}
	}
}

// A group write maps group offsets onto register bits. The offsets 6,5,4,3
// are the wiring the Adafruit SPI backpack uses for an LCD data bus.
func TestGroupMapping(t *testing.T) {
	dev, pb := getDev(t)
	defer pb.Close()

	gr, err := dev.Group(6, 5, 4, 3)
	if err != nil {
		t.Fatal(err)
	}
	if err := gr.Out(0x0a, 0x0f); err != nil {
		t.Fatal(err)
	}
	if len(pb.Ops) != 1 || !bytes.Equal(pb.Ops[0].W, []byte{0x28}) {
		t.Fatalf("expected the single transfer 0x28, got %v", pb.Ops)
	}
	if s := gr.String(); s != "74HC595[ 6 5 4 3 ]" {
		t.Errorf("unexpected group String() %q", s)
	}
	for offset, p := range gr.Pins() {
		if x := gr.ByOffset(offset); x == nil || x.Number() != p.Number() {
			t.Errorf("group.ByOffset(%d) didn't return pin %d", offset, p.Number())
		}
		if x := gr.ByNumber(p.Number()); x == nil {
			t.Errorf("group.ByNumber(%d) returned nil", p.Number())
		}
		if x := gr.ByName(p.Name()); x == nil || x.Name() != p.Name() {
			t.Error("group.ByName() didn't find a pin or returned the wrong pin!")
		}
	}
	if err := gr.Halt(); err != nil {
		t.Error(err)
	}
}

func TestNotImplemented(t *testing.T) {
	dev, pb := getDev(t)
	defer pb.Close()

	if _, err := dev.Group(8); err == nil {
		t.Error("expected an error for a pin number past the register width")
	}
	gr, err := dev.Group(0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := gr.Read(0); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("Read() expected ErrNotImplemented, received %v", err)
	}
	if _, _, err := gr.WaitForEdge(0); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("WaitForEdge() expected ErrNotImplemented, received %v", err)
	}
	if err := dev.Pins[0].PWM(10, 10); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("PWM() expected ErrNotImplemented, received %v", err)
	}
}
