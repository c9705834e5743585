// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dso holds the acquisition core of a two-channel digital storage
// oscilloscope: triggering, calibration, auto-ranging and trace rendering
// of the 8-bit sample stream delivered by the FPGA front end.
//
// The instrument logic lives in package scope. Package hw describes the
// FPGA collaborator, implemented by package fpga (memory-mapped
// registers) and package hw/sim (a deterministic simulator).
// Package cfgstore persists the instrument settings and package display
// turns rendered traces into pixels.
//
// The dso-sim (interactive console), dso-view (desktop window) and
// dso-daq (TDAQ process, see package daq) commands drive the instrument
// from a TOML configuration (package config).
package dso // import "github.com/go-lpc/dso"

import (
	"runtime/debug"
)

// Version returns the module version of dso and the VCS revision it was
// built from.
// The returned values are only valid in binaries built with module support.
func Version() (version, revision string) {
	b, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	return versionOf(b)
}

func versionOf(b *debug.BuildInfo) (version, revision string) {
	if b == nil {
		return "", ""
	}

	const root = "github.com/go-lpc/dso"
	switch {
	case b.Main.Path == root:
		version = b.Main.Version
	default:
		for _, m := range b.Deps {
			if m.Path != root {
				continue
			}
			version = m.Version
			if m.Replace != nil && m.Replace.Version != "" {
				version = m.Replace.Version
			}
		}
	}

	for _, kv := range b.Settings {
		if kv.Key == "vcs.revision" {
			revision = kv.Value
		}
	}
	return version, revision
}
