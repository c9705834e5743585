// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scope

import (
	"github.com/go-lpc/dso/hw"
)

const (
	locateBack  = 10 // samples scanned before the expected index
	locatePairs = 20 // consecutive sample pairs scanned
)

// Locate scans buf for a crossing of level with the given edge,
// starting 10 samples before expected and over 20 consecutive pairs.
// It returns the index of the first sample of the first matching pair.
//
// Rising matches buf[i] < level <= buf[i+1].
// Falling matches buf[i] >= level > buf[i+1].
func Locate(buf []byte, level uint16, edge hw.Edge, expected int) (int, bool) {
	lvl := int(level)
	beg := expected - locateBack
	for i := beg; i < beg+locatePairs; i++ {
		if i < 0 || i+1 >= len(buf) {
			continue
		}
		var (
			s0 = int(buf[i])
			s1 = int(buf[i+1])
		)
		switch edge {
		case hw.Rising:
			if s0 < lvl && s1 >= lvl {
				return i, true
			}
		case hw.Falling:
			if s0 >= lvl && s1 < lvl {
				return i, true
			}
		}
	}
	return 0, false
}

// triggerIndex returns the trigger index of the last capture, or the
// buffer midpoint when no crossing was found.
func (sc *Scope) triggerIndex() int {
	if sc.trig.found {
		return sc.trig.idx
	}
	return SampleCount / 2
}
