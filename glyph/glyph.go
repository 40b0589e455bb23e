// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package glyph builds 5x8 character cell patterns for the programmable
// CGRAM slots of HD44780 style displays.
//
// A pattern is an [8]byte, one byte per pixel row from top to bottom.
// Only the low five bits of a row are used and bit 4 is the leftmost
// column, the layout hd44780.Dev.CreateChar expects.
package glyph

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Cell geometry of a character on the display.
const (
	Width  = 5
	Height = 8
)

// DefaultThreshold is the luma level below which a pixel is considered
// lit after scaling.
const DefaultThreshold = 128

// FromImage scales img down to one character cell and converts it to a
// pattern using DefaultThreshold.
func FromImage(img image.Image) ([8]byte, error) {
	return FromImageThreshold(img, DefaultThreshold)
}

// FromImageThreshold scales img down to one character cell. Pixels whose
// luma falls below threshold are lit. Transparent pixels count as
// background.
func FromImageThreshold(img image.Image, threshold uint8) ([8]byte, error) {
	var cell [8]byte
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return cell, errors.New("glyph: empty image")
	}

	// Flatten over white first so alpha does not read as ink.
	flat := image.NewRGBA(b)
	draw.Draw(flat, b, image.White, image.Point{}, draw.Src)
	draw.Draw(flat, b, img, b.Min, draw.Over)

	cellImg := image.NewGray(image.Rect(0, 0, Width, Height))
	draw.CatmullRom.Scale(cellImg, cellImg.Bounds(), flat, b, draw.Src, nil)

	for y := range Height {
		var row byte
		for x := range Width {
			if cellImg.GrayAt(x, y).Y < threshold {
				row |= 1 << (Width - 1 - x)
			}
		}
		cell[y] = row
	}
	return cell, nil
}

// Render draws r with face on a white canvas sized from the face metrics
// and converts the result with FromImage.
func Render(face font.Face, r rune) ([8]byte, error) {
	var cell [8]byte
	if face == nil {
		return cell, errors.New("glyph: nil font face")
	}
	bounds, advance, ok := face.GlyphBounds(r)
	if !ok {
		return cell, fmt.Errorf("glyph: face has no glyph for %q", r)
	}
	m := face.Metrics()
	w := advance.Ceil()
	if w <= 0 {
		w = (bounds.Max.X - bounds.Min.X).Ceil()
	}
	h := (m.Ascent + m.Descent).Ceil()
	if w <= 0 || h <= 0 {
		return cell, fmt.Errorf("glyph: face reports empty box for %q", r)
	}

	canvas := image.NewGray(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	d := font.Drawer{
		Dst:  canvas,
		Src:  image.Black,
		Face: face,
		Dot:  fixed.P(0, m.Ascent.Ceil()),
	}
	d.DrawString(string(r))
	return FromImage(canvas)
}
