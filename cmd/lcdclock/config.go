// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Driver values for DeviceConfig.
const (
	driverI2C  = "i2c"
	driverTerm = "term"
)

// DeviceConfig selects and describes the display.
type DeviceConfig struct {
	// Driver is "i2c" for a display behind a PCF8574 backpack or "term"
	// for the terminal emulation.
	Driver string `yaml:"driver"`
	// Bus names the I²C bus for i2creg.Open. Empty selects the first
	// available bus.
	Bus string `yaml:"bus"`
	// Addr is the expander address.
	Addr uint16 `yaml:"addr"`
	Rows int    `yaml:"rows"`
	Cols int    `yaml:"cols"`
	// Pinout is the backpack wiring, "pcf8574" or "mjkdz".
	Pinout string `yaml:"pinout"`
	// Backlight is the state at startup.
	Backlight bool `yaml:"backlight"`
}

// ClockConfig holds the time.Format layouts for the two face rows.
type ClockConfig struct {
	TimeLayout string `yaml:"time_layout"`
	DateLayout string `yaml:"date_layout"`
}

// CalendarConfig describes the optional next event row.
type CalendarConfig struct {
	// Source is an ICS file path or http(s) URL. Empty disables the
	// event row.
	Source string `yaml:"source"`
	// HorizonDays bounds how far ahead recurrences are expanded.
	HorizonDays int `yaml:"horizon_days"`
	// Refresh is a cron spec for re-reading the source.
	Refresh string `yaml:"refresh"`
}

// BacklightConfig holds optional cron specs that switch the backlight
// for a nightly curfew. Empty specs disable the curfew.
type BacklightConfig struct {
	Off string `yaml:"off"`
	On  string `yaml:"on"`
}

// LogConfig configures the console level and the rotated log file.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
	// File is the log file path. Empty logs to the console only.
	File string `yaml:"file"`
	// MaxSize is the size in MiB past which the file rotates.
	MaxSize    int `yaml:"max_size"`
	MaxBackups int `yaml:"max_backups"`
	// MaxAge is the rotated file retention in days.
	MaxAge   int  `yaml:"max_age"`
	Compress bool `yaml:"compress"`
}

// Config is the top level lcdclock configuration.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Clock     ClockConfig     `yaml:"clock"`
	Calendar  CalendarConfig  `yaml:"calendar"`
	Backlight BacklightConfig `yaml:"backlight"`
	Log       LogConfig       `yaml:"log"`
}

// defaultConfig returns the stock setup, a 16x2 module behind a PCF8574
// at 0x27.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Driver:    driverI2C,
			Addr:      0x27,
			Rows:      2,
			Cols:      16,
			Pinout:    "pcf8574",
			Backlight: true,
		},
		Clock: ClockConfig{
			TimeLayout: "15:04",
			DateLayout: "Mon Jan 2",
		},
		Calendar: CalendarConfig{
			HorizonDays: 7,
			Refresh:     "*/15 * * * *",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		},
	}
}

// normalize fills missing values so configs written by older versions
// keep working.
func (c *Config) normalize() {
	def := defaultConfig()
	if c.Device.Driver == "" {
		c.Device.Driver = def.Device.Driver
	}
	if c.Device.Addr == 0 {
		c.Device.Addr = def.Device.Addr
	}
	if c.Device.Rows == 0 {
		c.Device.Rows = def.Device.Rows
	}
	if c.Device.Cols == 0 {
		c.Device.Cols = def.Device.Cols
	}
	if c.Device.Pinout == "" {
		c.Device.Pinout = def.Device.Pinout
	}
	if c.Clock.TimeLayout == "" {
		c.Clock.TimeLayout = def.Clock.TimeLayout
	}
	if c.Clock.DateLayout == "" {
		c.Clock.DateLayout = def.Clock.DateLayout
	}
	if c.Calendar.HorizonDays <= 0 {
		c.Calendar.HorizonDays = def.Calendar.HorizonDays
	}
	if c.Calendar.Refresh == "" {
		c.Calendar.Refresh = def.Calendar.Refresh
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.MaxSize <= 0 {
		c.Log.MaxSize = def.Log.MaxSize
	}
	if c.Log.MaxBackups <= 0 {
		c.Log.MaxBackups = def.Log.MaxBackups
	}
	if c.Log.MaxAge <= 0 {
		c.Log.MaxAge = def.Log.MaxAge
	}
}

// loadConfig reads path, writing and returning the defaults on first
// run.
func loadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := defaultConfig()
			if err := saveConfig(path, cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.normalize()
	return &cfg, nil
}

// saveConfig writes cfg with 0600 permissions, atomically via a temp
// file in the same directory.
func saveConfig(path string, cfg *Config) error {
	cfg.normalize()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".lcdclock-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
