// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rig

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/go-lpc/dso/cfgstore"
	"github.com/go-lpc/dso/config"
	"github.com/go-lpc/dso/hw/sim"
	"github.com/go-lpc/dso/scope"
)

func TestOpenSim(t *testing.T) {
	fsys := afero.NewMemMapFs()
	vals := config.Defaults()
	vals.Settings = "/var/dso/settings.bin"
	require.NoError(t, fsys.MkdirAll("/var/dso", 0755))

	rig, err := Open(fsys, vals, zerolog.Nop())
	require.NoError(t, err)
	defer rig.Close()

	dev, ok := rig.Dev.(*sim.Device)
	require.True(t, ok, "invalid back-end %T", rig.Dev)

	def := scope.DefaultSettings()
	require.Equal(t, def.Channels[0].SampleVPD, dev.VoltPerDiv(0))

	raw, err := afero.ReadFile(fsys, vals.Settings)
	require.NoError(t, err, "default settings not persisted")
	require.Len(t, raw, cfgstore.BlockSize)

	st, err := rig.Scope.Acquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, scope.Captured, st)

	rig.Scope.Settings().XY = true
	rig.Queue.Push(scope.Command{Code: scope.CmdSave})
	cmd, ok := rig.Queue.Next()
	require.True(t, ok)
	require.NoError(t, rig.Scope.Apply(context.Background(), cmd))

	re, err := Open(fsys, vals, zerolog.Nop())
	require.NoError(t, err)
	defer re.Close()
	require.True(t, re.Scope.Settings().XY, "saved settings not restored")
}

func TestOpenErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		vals func(vals *config.Values)
		fsys afero.Fs
	}{
		{
			name: "backend",
			vals: func(vals *config.Values) { vals.Backend = "usb" },
			fsys: afero.NewMemMapFs(),
		},
		{
			name: "sim-shape",
			vals: func(vals *config.Values) { vals.Sim.Channels[0].Shape = "sawtooth" },
			fsys: afero.NewMemMapFs(),
		},
		{
			name: "mmap",
			vals: func(vals *config.Values) {
				vals.Backend = config.BackendMmap
				vals.Device.Mem = "/does/not/exist"
			},
			fsys: afero.NewMemMapFs(),
		},
		{
			name: "read-only-settings",
			vals: func(vals *config.Values) {},
			fsys: afero.NewReadOnlyFs(afero.NewMemMapFs()),
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			vals := config.Defaults()
			tc.vals(&vals)
			_, err := Open(tc.fsys, vals, zerolog.Nop())
			require.Error(t, err)
		})
	}
}
