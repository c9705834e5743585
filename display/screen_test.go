// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package display

import (
	"bytes"
	"image"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-lpc/dso/scope"
)

func TestScreen(t *testing.T) {
	scr := NewScreen()
	require.Equal(t, 0, scr.Frames())

	top, bottom := scr.Readouts()
	require.Empty(t, top)
	require.Empty(t, bottom)

	set := scope.DefaultSettings()
	frm := &scope.Frame{
		Traces: []scope.Trace{
			{Channel: 0, Points: []scope.Point{{X: 10, Y: 300}, {X: 40, Y: 300}}},
		},
		TriggerX: 362,
		TriggerY: 200,
	}

	var (
		wg  sync.WaitGroup
		dst = image.NewRGBA(image.Rect(0, 0, Width, Height))
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			scr.CopyTo(dst)
			_, _ = scr.Readouts()
		}
	}()
	require.NoError(t, scr.Show(frm, &set))
	wg.Wait()

	require.Equal(t, 1, scr.Frames())
	scr.CopyTo(dst)
	require.Equal(t, colorChannel[0], dst.RGBAAt(25, 300))

	top, bottom = scr.Readouts()
	want, wantBottom := Readouts(&set)
	require.Equal(t, want, top)
	require.Equal(t, wantBottom, bottom)

	// readouts are copies.
	top[0] = "modified"
	top, _ = scr.Readouts()
	require.Equal(t, want[0], top[0])

	var buf bytes.Buffer
	require.NoError(t, scr.EncodePNG(&buf))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, Width, Height), img.Bounds())
}
