// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scope

import (
	"fmt"
	"testing"

	"github.com/go-lpc/dso/hw"
)

// step returns a buffer switching from lo to hi after index at.
func step(at int, lo, hi byte) []byte {
	buf := make([]byte, SampleCount)
	for i := range buf {
		buf[i] = lo
		if i > at {
			buf[i] = hi
		}
	}
	return buf
}

func TestLocate(t *testing.T) {
	const (
		expected = SampleCount / 2
		level    = 128
	)
	for k := -10; k <= 9; k++ {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			at := expected + k

			rising := step(at, 100, 160)
			got, ok := Locate(rising, level, hw.Rising, expected)
			if !ok || got != at {
				t.Fatalf("invalid rising edge: got=(%d, %v), want=(%d, true)", got, ok, at)
			}
			_, ok = Locate(rising, level, hw.Falling, expected)
			if ok {
				t.Fatalf("found a falling edge on a rising transition")
			}

			falling := step(at, 160, 100)
			got, ok = Locate(falling, level, hw.Falling, expected)
			if !ok || got != at {
				t.Fatalf("invalid falling edge: got=(%d, %v), want=(%d, true)", got, ok, at)
			}
			_, ok = Locate(falling, level, hw.Rising, expected)
			if ok {
				t.Fatalf("found a rising edge on a falling transition")
			}
		})
	}
}

func TestLocateOutsideWindow(t *testing.T) {
	const expected = SampleCount / 2
	for _, tc := range []struct {
		name string
		buf  []byte
		edge hw.Edge
	}{
		{"flat", step(0, 128, 128), hw.Rising},
		{"flat-low", step(0, 10, 10), hw.Falling},
		{"before", step(expected-11, 100, 160), hw.Rising},
		{"after", step(expected+10, 100, 160), hw.Rising},
		{"after-falling", step(expected+10, 160, 100), hw.Falling},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Locate(tc.buf, 128, tc.edge, expected)
			if ok {
				t.Fatalf("unexpected edge at %d", got)
			}
		})
	}
}

func TestLocateBounds(t *testing.T) {
	buf := []byte{0, 0, 200, 200}
	for _, expected := range []int{-100, 0, 1, 3, 4, 100} {
		got, ok := Locate(buf, 128, hw.Rising, expected)
		switch {
		case expected >= -8 && expected <= 11:
			if !ok || got != 1 {
				t.Fatalf("expected=%d: invalid edge: got=(%d, %v), want=(1, true)", expected, got, ok)
			}
		default:
			if ok {
				t.Fatalf("expected=%d: unexpected edge at %d", expected, got)
			}
		}
	}
}

func TestLocateFirstMatch(t *testing.T) {
	const expected = SampleCount / 2
	buf := step(0, 100, 100)
	// two rising edges inside the window: the first one wins.
	buf[expected-5] = 100
	buf[expected-4] = 150
	buf[expected-3] = 100
	buf[expected+2] = 100
	buf[expected+3] = 150

	got, ok := Locate(buf, 128, hw.Rising, expected)
	if !ok || got != expected-5 {
		t.Fatalf("invalid edge: got=(%d, %v), want=(%d, true)", got, ok, expected-5)
	}
	got, ok = Locate(buf, 128, hw.Falling, expected)
	if !ok || got != expected-4 {
		t.Fatalf("invalid edge: got=(%d, %v), want=(%d, true)", got, ok, expected-4)
	}
}
