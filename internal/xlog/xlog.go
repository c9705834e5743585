// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xlog builds the loggers of the dso tools.
package xlog // import "github.com/go-lpc/dso/internal/xlog"

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New returns a human-readable logger writing to w, tagged with the
// name of the tool.
func New(w io.Writer, name string, lvl zerolog.Level) zerolog.Logger {
	out := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.TimeOnly,
		NoColor:    true,
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Str("tool", name).Logger()
}
