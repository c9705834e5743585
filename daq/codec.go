// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package daq

import (
	"bytes"
	"fmt"

	"github.com/go-daq/tdaq"

	"github.com/go-lpc/dso/scope"
)

// Record is the decoded form of a frame published on the trace output.
type Record struct {
	Seq      uint32
	Readout  string
	XY       bool
	TriggerX int
	TriggerY int
	Found    bool
	Traces   []scope.Trace
}

const maxPoints = 1 << 16

// encodeFrame serializes a rendered frame:
//
//	u32 seq
//	str readout
//	u32 flags (bit 0: X-Y, bit 1: trigger found)
//	i32 trigger-x
//	i32 trigger-y
//	u32 number of traces
//	  i32 channel (-1 for X-Y)
//	  u32 number of points
//	    i32 x, i32 y
func encodeFrame(seq uint32, readout string, frm *scope.Frame) ([]byte, error) {
	var (
		buf   = new(bytes.Buffer)
		enc   = tdaq.NewEncoder(buf)
		flags uint32
	)
	if frm.XY {
		flags |= 1 << 0
	}
	if frm.Found {
		flags |= 1 << 1
	}

	enc.WriteU32(seq)
	enc.WriteStr(readout)
	enc.WriteU32(flags)
	enc.WriteI32(int32(frm.TriggerX))
	enc.WriteI32(int32(frm.TriggerY))
	enc.WriteU32(uint32(len(frm.Traces)))
	for _, tr := range frm.Traces {
		enc.WriteI32(int32(tr.Channel))
		enc.WriteU32(uint32(len(tr.Points)))
		for _, pt := range tr.Points {
			enc.WriteI32(int32(pt.X))
			enc.WriteI32(int32(pt.Y))
		}
	}
	if err := enc.Err(); err != nil {
		return nil, fmt.Errorf("daq: could not encode frame %d: %w", seq, err)
	}
	return buf.Bytes(), nil
}

// DecodeRecord decodes the body of a trace output frame.
func DecodeRecord(raw []byte) (Record, error) {
	var (
		tr  Record
		dec = tdaq.NewDecoder(bytes.NewReader(raw))
	)
	tr.Seq = dec.ReadU32()
	tr.Readout = dec.ReadStr()
	flags := dec.ReadU32()
	tr.XY = flags&(1<<0) != 0
	tr.Found = flags&(1<<1) != 0
	tr.TriggerX = int(dec.ReadI32())
	tr.TriggerY = int(dec.ReadI32())
	n := dec.ReadU32()
	if err := dec.Err(); err != nil {
		return tr, fmt.Errorf("daq: could not decode trace header: %w", err)
	}
	if n > 3 {
		return tr, fmt.Errorf("daq: invalid number of traces (%d)", n)
	}
	tr.Traces = make([]scope.Trace, n)
	for i := range tr.Traces {
		t := &tr.Traces[i]
		t.Channel = int(dec.ReadI32())
		np := dec.ReadU32()
		if err := dec.Err(); err != nil {
			return tr, fmt.Errorf("daq: could not decode trace %d: %w", i, err)
		}
		if np > maxPoints {
			return tr, fmt.Errorf("daq: invalid number of points (%d) in trace %d", np, i)
		}
		t.Points = make([]scope.Point, np)
		for j := range t.Points {
			t.Points[j].X = int16(dec.ReadI32())
			t.Points[j].Y = int16(dec.ReadI32())
		}
	}
	if err := dec.Err(); err != nil {
		return tr, fmt.Errorf("daq: could not decode trace points: %w", err)
	}
	return tr, nil
}
