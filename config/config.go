// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config holds the TOML configuration of the dso tools.
package config // import "github.com/go-lpc/dso/config"

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-lpc/dso/hw"
	"github.com/go-lpc/dso/hw/sim"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

const SchemaVersion = 1

// Back-ends of the acquisition front end.
const (
	BackendSim  = "sim"
	BackendMmap = "mmap"
)

// Values is the configuration of a dso tool.
type Values struct {
	ConfigSchema int    `toml:"config_schema"`
	LogLevel     string `toml:"log_level"`
	Backend      string `toml:"backend"`

	// Settings is the path of the persistent settings block.
	Settings string `toml:"settings"`
	// Output is the directory where frames are written.
	Output string `toml:"output"`
	// TickMs is the idle period of the scheduler loop, in milliseconds.
	TickMs int `toml:"tick_ms"`

	Device Device `toml:"device"`
	Sim    Sim    `toml:"sim"`
}

// Device describes the register window of the mmap back-end.
type Device struct {
	Mem  string `toml:"mem"`
	Base int64  `toml:"base"`
}

// Sim describes the input signals of the simulator back-end.
type Sim struct {
	Channels []Channel `toml:"channel"`
}

// Channel is the simulated signal and front end of one channel.
type Channel struct {
	Shape     string  `toml:"shape"`
	Freq      float64 `toml:"freq"`
	Amplitude float64 `toml:"amplitude"` // mV
	Offset    float64 `toml:"offset"`    // mV
	Duty      float64 `toml:"duty,omitempty"`
	Mismatch  int     `toml:"mismatch,omitempty"` // ADC2 offset, in codes
}

// Defaults returns the default configuration.
func Defaults() Values {
	return Values{
		ConfigSchema: SchemaVersion,
		LogLevel:     "info",
		Backend:      BackendSim,
		Settings:     "dso-settings.bin",
		Output:       ".",
		TickMs:       20,
		Device: Device{
			Mem:  "/dev/mem",
			Base: 0xff200000,
		},
		Sim: Sim{
			Channels: []Channel{
				{Shape: "square", Freq: 1000, Amplitude: 200},
				{Shape: "sine", Freq: 5000, Amplitude: 500},
			},
		},
	}
}

// Load reads the configuration file fname, writing the default one when
// it does not exist yet. Keys missing from the file keep their default
// values.
func Load(fsys afero.Fs, fname string) (Values, error) {
	vals := Defaults()
	raw, err := afero.ReadFile(fsys, fname)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		err = Save(fsys, fname, vals)
		if err != nil {
			return vals, err
		}
		return vals, nil
	case err != nil:
		return vals, fmt.Errorf("config: could not read %q: %w", fname, err)
	}

	// simulated channels are replaced, not merged, by the file ones.
	vals.Sim.Channels = nil
	err = toml.Unmarshal(raw, &vals)
	if err != nil {
		return vals, fmt.Errorf("config: could not decode %q: %w", fname, err)
	}
	if vals.Sim.Channels == nil {
		vals.Sim.Channels = Defaults().Sim.Channels
	}
	if vals.ConfigSchema != SchemaVersion {
		return vals, fmt.Errorf(
			"config: schema version mismatch in %q: got=%d, want=%d",
			fname, vals.ConfigSchema, SchemaVersion,
		)
	}

	err = vals.Validate()
	if err != nil {
		return vals, fmt.Errorf("config: invalid configuration %q: %w", fname, err)
	}
	return vals, nil
}

// Save writes the configuration to fname.
func Save(fsys afero.Fs, fname string, vals Values) error {
	vals.ConfigSchema = SchemaVersion
	raw, err := toml.Marshal(vals)
	if err != nil {
		return fmt.Errorf("config: could not encode configuration: %w", err)
	}

	if dir := filepath.Dir(fname); dir != "." {
		err = fsys.MkdirAll(dir, 0o750)
		if err != nil {
			return fmt.Errorf("config: could not create directory %q: %w", dir, err)
		}
	}

	err = afero.WriteFile(fsys, fname, raw, 0o644)
	if err != nil {
		return fmt.Errorf("config: could not write %q: %w", fname, err)
	}
	return nil
}

// Validate checks the configuration values.
func (vals Values) Validate() error {
	if _, err := vals.Level(); err != nil {
		return err
	}
	switch vals.Backend {
	case BackendSim, BackendMmap:
	default:
		return fmt.Errorf("config: invalid back-end %q", vals.Backend)
	}
	if vals.TickMs <= 0 {
		return fmt.Errorf("config: invalid scheduler tick %dms", vals.TickMs)
	}
	if len(vals.Sim.Channels) > hw.NumChannels {
		return fmt.Errorf("config: too many simulated channels (%d)", len(vals.Sim.Channels))
	}
	for i, ch := range vals.Sim.Channels {
		_, err := ch.Signal()
		if err != nil {
			return fmt.Errorf("config: invalid simulated channel %d: %w", i+1, err)
		}
	}
	return nil
}

// Level returns the logging level.
func (vals Values) Level() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(vals.LogLevel))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("config: invalid log level %q: %w", vals.LogLevel, err)
	}
	return lvl, nil
}

// Tick returns the idle period of the scheduler loop.
func (vals Values) Tick() time.Duration {
	return time.Duration(vals.TickMs) * time.Millisecond
}

var shapes = map[string]sim.Shape{
	"flat":     sim.Flat,
	"square":   sim.Square,
	"sine":     sim.Sine,
	"triangle": sim.Triangle,
}

// Signal returns the simulated input signal.
func (ch Channel) Signal() (sim.Signal, error) {
	shape, ok := shapes[strings.ToLower(ch.Shape)]
	if !ok {
		return sim.Signal{}, fmt.Errorf("invalid signal shape %q", ch.Shape)
	}
	if ch.Freq < 0 || ch.Amplitude < 0 {
		return sim.Signal{}, fmt.Errorf("invalid signal (freq=%v, amplitude=%v)", ch.Freq, ch.Amplitude)
	}
	if ch.Duty < 0 || ch.Duty >= 1 {
		return sim.Signal{}, fmt.Errorf("invalid duty cycle %v", ch.Duty)
	}
	return sim.Signal{
		Shape:     shape,
		Freq:      ch.Freq,
		Amplitude: ch.Amplitude,
		Offset:    ch.Offset,
		Duty:      ch.Duty,
	}, nil
}

// Frontend returns the simulated front end of the channel.
func (ch Channel) Frontend() sim.Frontend {
	fe := sim.DefaultFrontend()
	fe.Mismatch[hw.ADC2] = ch.Mismatch
	return fe
}

// NewSim returns a simulator configured with the simulated channels.
func (vals Values) NewSim() (*sim.Device, error) {
	dev := sim.New()
	for i, ch := range vals.Sim.Channels {
		sig, err := ch.Signal()
		if err != nil {
			return nil, fmt.Errorf("config: invalid simulated channel %d: %w", i+1, err)
		}
		dev.SetSignal(i, sig)
		dev.SetFrontend(i, ch.Frontend())
	}
	return dev, nil
}
