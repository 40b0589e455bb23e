// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// lcdclock drives a character LCD as a desk clock, with an optional
// next event row fed from an ICS calendar.
//
// Without hardware, -term draws on the terminal instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/charlcd/hd44780"
	"github.com/GermanBionicSystems/charlcd/termlcd"
)

// logf is replaced with the configured logger at startup.
var logf = zap.NewNop().Sugar()

type flags struct {
	configPath string
	term       bool
	once       bool
}

func parseFlags() flags {
	var fl flags
	flag.StringVar(&fl.configPath, "config", "/etc/lcdclock/config.yaml", "path to the config file, created when missing")
	flag.BoolVar(&fl.term, "term", false, "draw on the terminal instead of a real display")
	flag.BoolVar(&fl.once, "once", false, "render a single frame and exit")
	flag.Parse()
	return fl
}

func main() {
	fl := parseFlags()

	cfg, err := loadConfig(fl.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lcdclock:", err)
		os.Exit(1)
	}
	if fl.term {
		cfg.Device.Driver = driverTerm
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lcdclock:", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logf = logger.Sugar()

	dev, closer, err := openDevice(&cfg.Device)
	if err != nil {
		logf.Fatalw("open display", "err", err)
	}
	if closer != nil {
		defer closer.Close()
	}
	logf.Infow("display ready", "dev", dev.String(), "rows", dev.Rows(), "cols", dev.Cols())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logf.Infow("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	a := &app{cfg: cfg, dev: dev}
	if err := loadGlyphs(dev); err != nil {
		logf.Fatalw("load glyphs", "err", err)
	}
	if cfg.Calendar.Source != "" {
		if err := splash(dev); err != nil {
			logf.Fatalw("draw splash", "err", err)
		}
		a.reloadCalendar(ctx)
	}
	a.refreshFace()

	if fl.once {
		return
	}

	c := cron.New()
	add := func(spec string, job func()) {
		if _, err := c.AddFunc(spec, job); err != nil {
			logf.Fatalw("bad cron spec", "spec", spec, "err", err)
		}
	}
	add("* * * * *", a.refreshFace)
	if cfg.Calendar.Source != "" && cfg.Calendar.Refresh != "" {
		add(cfg.Calendar.Refresh, func() { a.reloadCalendar(ctx) })
	}
	if cfg.Backlight.Off != "" {
		add(cfg.Backlight.Off, func() { a.setBacklight(false) })
	}
	if cfg.Backlight.On != "" {
		add(cfg.Backlight.On, func() { a.setBacklight(true) })
	}
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	if err := dev.Halt(); err != nil {
		logf.Errorw("halt display", "err", err)
	}
	logf.Infow("lcdclock exiting")
}

// app ties the device, config and calendar snapshot together for the
// cron jobs.
type app struct {
	cfg *Config
	dev screen

	mu     sync.Mutex
	events []calEvent
}

// refreshFace redraws the clock. Runs from cron once a minute.
func (a *app) refreshFace() {
	now := time.Now()
	a.mu.Lock()
	events := a.events
	a.mu.Unlock()
	var occ *occurrence
	if o, ok := nextOccurrence(events, now, a.cfg.Calendar.HorizonDays); ok {
		occ = &o
	}
	if err := renderFace(a.dev, &a.cfg.Clock, now, occ); err != nil {
		logf.Errorw("render face", "err", err)
	}
}

// reloadCalendar re-reads the ICS source, keeping the previous events
// when the read fails.
func (a *app) reloadCalendar(ctx context.Context) {
	events, err := readCalendar(ctx, a.cfg.Calendar.Source)
	if err != nil {
		logf.Errorw("read calendar", "source", a.cfg.Calendar.Source, "err", err)
		return
	}
	a.mu.Lock()
	a.events = events
	a.mu.Unlock()
	logf.Infow("calendar loaded", "source", a.cfg.Calendar.Source, "events", len(events))
}

func (a *app) setBacklight(on bool) {
	var level display.Intensity
	if on {
		level = 255
	}
	if err := a.dev.Backlight(level); err != nil {
		logf.Errorw("set backlight", "on", on, "err", err)
	}
}

// openDevice builds the configured display. The returned closer is nil
// for the terminal emulation.
func openDevice(dc *DeviceConfig) (screen, io.Closer, error) {
	switch dc.Driver {
	case driverTerm:
		dev, err := termlcd.New(&termlcd.Opts{Rows: dc.Rows, Cols: dc.Cols})
		if err != nil {
			return nil, nil, err
		}
		if !dc.Backlight {
			if err := dev.Backlight(0); err != nil {
				return nil, nil, err
			}
		}
		return dev, nil, nil
	case driverI2C:
		if _, err := host.Init(); err != nil {
			return nil, nil, err
		}
		pinout, err := pinoutByName(dc.Pinout)
		if err != nil {
			return nil, nil, err
		}
		bus, err := i2creg.Open(dc.Bus)
		if err != nil {
			return nil, nil, err
		}
		dev, err := hd44780.NewI2C(bus, &hd44780.Opts{
			Addr:      dc.Addr,
			Rows:      dc.Rows,
			Cols:      dc.Cols,
			Pinout:    pinout,
			Backlight: dc.Backlight,
		})
		if err != nil {
			bus.Close()
			return nil, nil, err
		}
		return dev, bus, nil
	}
	return nil, nil, fmt.Errorf("unknown device driver %q", dc.Driver)
}

// pinoutByName maps the config wiring names.
func pinoutByName(name string) (hd44780.Pinout, error) {
	switch name {
	case "pcf8574", "":
		return hd44780.PinoutPCF8574, nil
	case "mjkdz":
		return hd44780.PinoutMJKDZ, nil
	}
	return hd44780.Pinout{}, fmt.Errorf("unknown pinout %q, valid values are pcf8574 and mjkdz", name)
}
