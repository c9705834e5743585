// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command dso-daq starts a TDAQ server driving the oscilloscope.
//
// The configuration file is read from the DSO_CONFIG environment
// variable (default: dso.toml).
package main // import "github.com/go-lpc/dso/cmd/dso-daq"

import (
	"context"
	"log"
	"os"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
	"github.com/spf13/afero"

	"github.com/go-lpc/dso/config"
	"github.com/go-lpc/dso/daq"
	"github.com/go-lpc/dso/internal/xlog"
)

func main() {
	log.SetPrefix("dso-daq: ")
	log.SetFlags(0)

	cmd := flags.New()

	fname := os.Getenv("DSO_CONFIG")
	if fname == "" {
		fname = "dso.toml"
	}

	fsys := afero.NewOsFs()
	vals, err := config.Load(fsys, fname)
	if err != nil {
		log.Fatalf("could not load configuration: %+v", err)
	}
	lvl, err := vals.Level()
	if err != nil {
		log.Fatalf("%+v", err)
	}

	dev := daq.New(fsys, vals, xlog.New(os.Stderr, "dso-daq", lvl))

	srv := tdaq.New(cmd, os.Stdout)
	srv.CmdHandle("/config", dev.OnConfig)
	srv.CmdHandle("/init", dev.OnInit)
	srv.CmdHandle("/reset", dev.OnReset)
	srv.CmdHandle("/start", dev.OnStart)
	srv.CmdHandle("/stop", dev.OnStop)
	srv.CmdHandle("/quit", dev.OnQuit)
	srv.CmdHandle("/cmd", dev.OnCmd)

	srv.OutputHandle("/trace", dev.Trace)

	srv.RunHandle(dev.Run)

	err = srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}
