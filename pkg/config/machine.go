// Typed machine configuration
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package config

import "os"

// Line ending choices for [output] line_ending.
const (
	LineEndingCRLF = "crlf"
	LineEndingLF   = "lf"
)

// Feed unit choices for [feed] units.
const (
	FeedMMPerMin = "mm/min"
	FeedMMPerSec = "mm/s"
)

// OutputConfig holds [output] options.
type OutputConfig struct {
	DecimalPlaces int
	LineEnding    string
}

// FeedConfig holds [feed] options.
type FeedConfig struct {
	Units string
}

// WearConfig holds [wear] options for the compensation pass.
type WearConfig struct {
	TravelFeed         float64
	RetractFeed        float64
	SubdivideThreshold float64
	CarryWear          bool
}

// ServerConfig holds [server] options for wirecam-server.
type ServerConfig struct {
	Address  string
	Database string
}

// LogConfig holds [log] options.
type LogConfig struct {
	Level  string
	Format string
	File   string
}

// MachineConfig is the typed view of a machine configuration file.
type MachineConfig struct {
	Output OutputConfig
	Feed   FeedConfig
	Wear   WearConfig
	Server ServerConfig
	Log    LogConfig
}

// DefaultMachine returns the configuration used when no file is given.
func DefaultMachine() *MachineConfig {
	return &MachineConfig{
		Output: OutputConfig{DecimalPlaces: 3, LineEnding: LineEndingCRLF},
		Feed:   FeedConfig{Units: FeedMMPerMin},
		Wear: WearConfig{
			TravelFeed:         100,
			RetractFeed:        10,
			SubdivideThreshold: 0.4,
		},
		Server: ServerConfig{Address: ":7130", Database: "wirecam.db"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// LoadMachine reads a machine configuration file. An empty path, or a
// path that does not exist when optional is set, yields the defaults.
func LoadMachine(path string, optional bool) (*MachineConfig, error) {
	if path == "" {
		return DefaultMachine(), nil
	}
	if optional {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return DefaultMachine(), nil
		}
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return MachineFromConfig(cfg)
}

// MachineFromConfig builds a MachineConfig from parsed sections, applying
// defaults for anything missing and rejecting unknown options.
func MachineFromConfig(cfg *Config) (*MachineConfig, error) {
	m := DefaultMachine()
	var err error

	out := cfg.Section("output")
	if m.Output.DecimalPlaces, err = out.GetIntWithBounds("decimal_places", 1, 6, m.Output.DecimalPlaces); err != nil {
		return nil, err
	}
	if m.Output.LineEnding, err = out.GetChoice("line_ending", []string{LineEndingCRLF, LineEndingLF}, m.Output.LineEnding); err != nil {
		return nil, err
	}

	feed := cfg.Section("feed")
	if m.Feed.Units, err = feed.GetChoice("units", []string{FeedMMPerMin, FeedMMPerSec}, m.Feed.Units); err != nil {
		return nil, err
	}

	wear := cfg.Section("wear")
	if m.Wear.TravelFeed, err = wear.GetFloatWithBounds("travel_feed", Above(0), m.Wear.TravelFeed); err != nil {
		return nil, err
	}
	if m.Wear.RetractFeed, err = wear.GetFloatWithBounds("retract_feed", Above(0), m.Wear.RetractFeed); err != nil {
		return nil, err
	}
	if m.Wear.SubdivideThreshold, err = wear.GetFloatWithBounds("subdivide_threshold", Above(0), m.Wear.SubdivideThreshold); err != nil {
		return nil, err
	}
	if m.Wear.CarryWear, err = wear.GetBool("carry_wear", m.Wear.CarryWear); err != nil {
		return nil, err
	}

	srv := cfg.Section("server")
	if m.Server.Address, err = srv.Get("address", m.Server.Address); err != nil {
		return nil, err
	}
	if m.Server.Database, err = srv.Get("database", m.Server.Database); err != nil {
		return nil, err
	}

	lg := cfg.Section("log")
	if m.Log.Level, err = lg.GetChoice("level", []string{"debug", "info", "warn", "error"}, m.Log.Level); err != nil {
		return nil, err
	}
	if m.Log.Format, err = lg.GetChoice("format", []string{"text", "json"}, m.Log.Format); err != nil {
		return nil, err
	}
	if m.Log.File, err = lg.Get("file", m.Log.File); err != nil {
		return nil, err
	}

	if err := cfg.CheckUnused(); err != nil {
		return nil, err
	}
	return m, nil
}

// LineTerminator returns the byte sequence that ends each program line.
func (o OutputConfig) LineTerminator() string {
	if o.LineEnding == LineEndingLF {
		return "\n"
	}
	return "\r\n"
}

// FeedScale returns the multiplier that converts configured feed rates
// to the units/minute the program is written in.
func (f FeedConfig) FeedScale() float64 {
	if f.Units == FeedMMPerSec {
		return 60
	}
	return 1
}
