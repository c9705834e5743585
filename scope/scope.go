// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scope implements the acquisition core of a digital storage
// oscilloscope: capture, triggering, calibration, auto-setup and the
// projection of sample buffers onto the screen.
package scope // import "github.com/go-lpc/dso/scope"

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/go-lpc/dso/hw"
)

var (
	ErrBusy             = errors.New("scope: busy")
	ErrCalibrationFault = errors.New("scope: calibration hardware fault")
)

// Store persists the settings of the instrument.
type Store interface {
	Save(set *Settings) error
}

type mode uint8

const (
	idle mode = iota
	acquiring
	calibrating
	autosetup
	rendering
)

func (m mode) String() string {
	switch m {
	case idle:
		return "idle"
	case acquiring:
		return "acquiring"
	case calibrating:
		return "calibrating"
	case autosetup:
		return "autosetup"
	case rendering:
		return "rendering"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

type config struct {
	msg    zerolog.Logger
	clock  clockwork.Clock
	in     hw.Input
	store  Store
	notify func(set *Settings)
	tick   time.Duration
}

func newConfig() config {
	return config{
		msg:   zerolog.Nop(),
		clock: clockwork.NewRealClock(),
		in:    noInput{},
		tick:  20 * time.Millisecond,
	}
}

// Option configures a Scope.
type Option func(*config)

// WithLogger sets the logger of the scope.
func WithLogger(msg zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.msg = msg
	}
}

// WithClock sets the clock used for settle delays and conversion polls.
func WithClock(clock clockwork.Clock) Option {
	return func(cfg *config) {
		cfg.clock = clock
	}
}

// WithInput sets the input collaborator polled to pre-empt conversions.
func WithInput(in hw.Input) Option {
	return func(cfg *config) {
		if in == nil {
			in = noInput{}
		}
		cfg.in = in
	}
}

// WithStore sets the store used by the save-settings command.
func WithStore(store Store) Option {
	return func(cfg *config) {
		cfg.store = store
	}
}

// WithNotify registers a function called whenever the run state is
// changed by the scope itself (end of a single-shot capture).
func WithNotify(f func(set *Settings)) Option {
	return func(cfg *config) {
		cfg.notify = f
	}
}

// WithTick sets the period of the scheduler loop while acquisition is
// stopped.
func WithTick(d time.Duration) Option {
	return func(cfg *config) {
		cfg.tick = d
	}
}

type noInput struct{}

func (noInput) Pending() bool { return false }

// Scope is the acquisition core of the instrument.
//
// Scope owns its settings: acquisition, calibration and auto-setup are
// its only writers and they never overlap. A Scope is not safe for
// concurrent use.
type Scope struct {
	dev hw.Hardware
	cfg config
	msg zerolog.Logger

	set    *Settings
	mode   mode
	target Target

	// scratch buffers for one capture.
	adc   [hw.NumADCs][hw.HalfSamples]byte
	buf   [hw.NumChannels][SampleCount]byte
	stats [hw.NumChannels]Stats

	trig struct {
		idx   int
		found bool
	}

	rnd renderer
}

// New returns a scope driving dev, with the provided settings.
// A nil set selects DefaultSettings.
func New(dev hw.Hardware, set *Settings, opts ...Option) *Scope {
	if set == nil {
		def := DefaultSettings()
		set = &def
	}
	sc := &Scope{
		dev: dev,
		cfg: newConfig(),
		set: set,
	}
	for _, opt := range opts {
		opt(&sc.cfg)
	}
	sc.msg = sc.cfg.msg
	return sc
}

// Settings returns the settings of the scope.
//
// The returned value must not be modified while an operation of the
// scope is in progress.
func (sc *Scope) Settings() *Settings { return sc.set }

// Trigger returns the trigger index found by the last capture.
func (sc *Scope) Trigger() (int, bool) { return sc.trig.idx, sc.trig.found }

// enter switches the scope into mode m, failing when another operation
// is in progress.
func (sc *Scope) enter(m mode) error {
	if sc.mode != idle {
		return fmt.Errorf("%w: %v requested while %v", ErrBusy, m, sc.mode)
	}
	sc.mode = m
	return nil
}

func (sc *Scope) leave() { sc.mode = idle }

// Configure pushes the channel, time base and trigger settings into
// the hardware.
func (sc *Scope) Configure() error {
	set := sc.set
	for i := range set.Channels {
		ch := &set.Channels[i]
		if err := sc.pushChannel(i); err != nil {
			return err
		}
		if err := sc.dev.SetChannelCoupling(i, ch.Coupling); err != nil {
			return fmt.Errorf("scope: could not set channel %d coupling: %w", i+1, err)
		}
	}
	if err := sc.pushTimeBase(); err != nil {
		return err
	}
	if err := sc.dev.SetTriggerMode(set.Trigger.Mode); err != nil {
		return fmt.Errorf("scope: could not set trigger mode: %w", err)
	}
	if err := sc.dev.SetTriggerEdge(set.Trigger.Edge); err != nil {
		return fmt.Errorf("scope: could not set trigger edge: %w", err)
	}
	if err := sc.dev.SetTriggerChannel(set.Trigger.Channel); err != nil {
		return fmt.Errorf("scope: could not set trigger channel: %w", err)
	}
	if err := sc.dev.SetTriggerLevel(set.Trigger.Level); err != nil {
		return fmt.Errorf("scope: could not set trigger level: %w", err)
	}
	return nil
}

// pushChannel programs enable, volt/div and DC offset of channel i.
func (sc *Scope) pushChannel(i int) error {
	ch := &sc.set.Channels[i]
	if err := sc.dev.SetChannelEnable(i, ch.Enabled); err != nil {
		return fmt.Errorf("scope: could not enable channel %d: %w", i+1, err)
	}
	if err := sc.dev.SetChannelVoltPerDiv(i, ch.SampleVPD); err != nil {
		return fmt.Errorf("scope: could not set channel %d volt/div: %w", i+1, err)
	}
	if err := sc.dev.SetChannelOffset(i, ch.offset()); err != nil {
		return fmt.Errorf("scope: could not set channel %d offset: %w", i+1, err)
	}
	return nil
}

func (sc *Scope) pushTimeBase() error {
	if err := sc.dev.SetSampleRate(sc.set.SampleRate); err != nil {
		return fmt.Errorf("scope: could not set sample rate: %w", err)
	}
	if err := sc.dev.SetTimeBase(sc.set.TimePerDiv); err != nil {
		return fmt.Errorf("scope: could not set time base: %w", err)
	}
	return nil
}
