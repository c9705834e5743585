// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dso

import (
	"runtime/debug"
	"testing"
)

func TestVersionOf(t *testing.T) {
	for _, tc := range []struct {
		name string
		info *debug.BuildInfo
		vers string
		rev  string
	}{
		{
			name: "nil",
		},
		{
			name: "main",
			info: &debug.BuildInfo{
				Main: debug.Module{Path: "github.com/go-lpc/dso", Version: "v0.3.0"},
				Settings: []debug.BuildSetting{
					{Key: "vcs", Value: "git"},
					{Key: "vcs.revision", Value: "cafe"},
				},
			},
			vers: "v0.3.0",
			rev:  "cafe",
		},
		{
			name: "dep",
			info: &debug.BuildInfo{
				Main: debug.Module{Path: "example.org/bench"},
				Deps: []*debug.Module{
					{Path: "golang.org/x/sys", Version: "v0.20.0"},
					{Path: "github.com/go-lpc/dso", Version: "v0.2.1"},
				},
			},
			vers: "v0.2.1",
		},
		{
			name: "dep-replaced",
			info: &debug.BuildInfo{
				Main: debug.Module{Path: "example.org/bench"},
				Deps: []*debug.Module{
					{
						Path:    "github.com/go-lpc/dso",
						Version: "v0.2.1",
						Replace: &debug.Module{Path: "../dso", Version: "v0.2.2"},
					},
				},
			},
			vers: "v0.2.2",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			vers, rev := versionOf(tc.info)
			if got, want := vers, tc.vers; got != want {
				t.Fatalf("invalid version: got=%q, want=%q", got, want)
			}
			if got, want := rev, tc.rev; got != want {
				t.Fatalf("invalid revision: got=%q, want=%q", got, want)
			}
		})
	}
}
