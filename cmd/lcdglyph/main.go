// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// lcdglyph converts a character into a 5x8 CGRAM pattern for HD44780
// style displays and prints it as a Go literal, with an ASCII preview.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/GermanBionicSystems/charlcd/glyph"
)

func main() {
	char := flag.String("char", "", "character to convert")
	fontPath := flag.String("font", "", "TTF font file, empty for the embedded Go Regular")
	size := flag.Float64("size", 12, "font size in points")
	threshold := flag.Uint("threshold", glyph.DefaultThreshold, "luma level below which a pixel is lit, 0..255")
	name := flag.String("name", "Pattern", "variable name for the printed literal")
	flag.Parse()

	if *char == "" {
		fmt.Fprintln(os.Stderr, "lcdglyph: -char is required")
		flag.Usage()
		os.Exit(2)
	}
	r, _ := utf8.DecodeRuneInString(*char)
	if r == utf8.RuneError {
		log.Fatalf("-char %q is not valid UTF-8", *char)
	}
	if *threshold > 255 {
		log.Fatalf("-threshold %d out of range 0..255", *threshold)
	}

	ttf := goregular.TTF
	if *fontPath != "" {
		var err error
		if ttf, err = os.ReadFile(*fontPath); err != nil {
			log.Fatal(err)
		}
	}
	ft, err := truetype.Parse(ttf)
	if err != nil {
		log.Fatal(err)
	}
	face := truetype.NewFace(ft, &truetype.Options{Size: *size})
	defer face.Close()

	pattern, err := render(face, r, uint8(*threshold))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%q at %gpt, threshold %d:\n\n", r, *size, *threshold)
	for _, row := range pattern {
		line := make([]byte, glyph.Width)
		for x := range glyph.Width {
			if row&(1<<(glyph.Width-1-x)) != 0 {
				line[x] = '#'
			} else {
				line[x] = '.'
			}
		}
		fmt.Printf("  %s\n", line)
	}
	fmt.Printf("\nvar %s = [8]byte{\n", *name)
	for _, row := range pattern {
		fmt.Printf("\t0b%05b,\n", row)
	}
	fmt.Println("}")
}

// render draws r black on white at the natural glyph size, then
// downsamples to one cell.
func render(face font.Face, r rune, threshold uint8) ([8]byte, error) {
	adv, ok := face.GlyphAdvance(r)
	if !ok {
		return [8]byte{}, fmt.Errorf("the font has no glyph for %q", r)
	}
	m := face.Metrics()
	w := adv.Ceil()
	h := (m.Ascent + m.Descent).Ceil()
	if w <= 0 || h <= 0 {
		return [8]byte{}, fmt.Errorf("degenerate glyph box %dx%d for %q", w, h, r)
	}
	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)
	dc.SetFontFace(face)
	dc.DrawString(string(r), 0, float64(m.Ascent.Ceil()))
	return glyph.FromImageThreshold(dc.Image(), threshold)
}
