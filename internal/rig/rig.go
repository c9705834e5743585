// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rig assembles an instrument from a configuration: back-end,
// persistent settings, scope and command queue.
package rig // import "github.com/go-lpc/dso/internal/rig"

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/go-lpc/dso/cfgstore"
	"github.com/go-lpc/dso/config"
	"github.com/go-lpc/dso/fpga"
	"github.com/go-lpc/dso/hw"
	"github.com/go-lpc/dso/internal/cmdq"
	"github.com/go-lpc/dso/scope"
)

// Rig is an assembled instrument.
type Rig struct {
	Dev   hw.Hardware
	Store *cfgstore.FileStore
	Scope *scope.Scope
	Queue cmdq.Queue

	msg zerolog.Logger
}

// Open builds the back-end described by vals, restores the persisted
// settings and pushes them into the hardware.
// Extra options are applied after the ones derived from vals.
func Open(fsys afero.Fs, vals config.Values, msg zerolog.Logger, opts ...scope.Option) (*Rig, error) {
	dev, err := openDevice(vals, msg)
	if err != nil {
		return nil, err
	}

	rig := &Rig{
		Dev:   dev,
		Store: cfgstore.NewFileStore(fsys, vals.Settings, msg.With().Str("pkg", "cfgstore").Logger()),
		msg:   msg,
	}

	set, err := rig.Store.Load()
	if err != nil {
		_ = rig.Close()
		return nil, fmt.Errorf("rig: could not load settings: %w", err)
	}

	opts = append([]scope.Option{
		scope.WithLogger(msg.With().Str("pkg", "scope").Logger()),
		scope.WithStore(rig.Store),
		scope.WithTick(vals.Tick()),
	}, opts...)
	rig.Scope = scope.New(dev, &set, opts...)

	err = rig.Scope.Configure()
	if err != nil {
		_ = rig.Close()
		return nil, fmt.Errorf("rig: could not configure hardware: %w", err)
	}

	msg.Info().
		Str("backend", vals.Backend).
		Str("settings", vals.Settings).
		Bool("running", set.Running).
		Msg("instrument ready")
	return rig, nil
}

func openDevice(vals config.Values, msg zerolog.Logger) (hw.Hardware, error) {
	switch vals.Backend {
	case config.BackendSim:
		dev, err := vals.NewSim()
		if err != nil {
			return nil, fmt.Errorf("rig: could not create simulator: %w", err)
		}
		return dev, nil
	case config.BackendMmap:
		dev, err := fpga.Open(vals.Device.Mem, vals.Device.Base,
			fpga.WithLogger(msg.With().Str("pkg", "fpga").Logger()),
		)
		if err != nil {
			return nil, fmt.Errorf("rig: could not open FPGA bridge: %w", err)
		}
		return dev, nil
	}
	return nil, fmt.Errorf("rig: unknown back-end %q", vals.Backend)
}

// Close releases the back-end.
func (rig *Rig) Close() error {
	c, ok := rig.Dev.(io.Closer)
	if !ok {
		return nil
	}
	err := c.Close()
	if err != nil {
		return fmt.Errorf("rig: could not close back-end: %w", err)
	}
	return nil
}
