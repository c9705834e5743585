// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scope

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-lpc/dso/hw/sim"
)

type queue struct {
	cmds []Command
}

func (q *queue) Pending() bool { return len(q.cmds) > 0 }

func (q *queue) Next() (Command, bool) {
	if len(q.cmds) == 0 {
		return Command{}, false
	}
	cmd := q.cmds[0]
	q.cmds = q.cmds[1:]
	return cmd, true
}

type sinkFunc func(frm *Frame, set *Settings) error

func (f sinkFunc) Show(frm *Frame, set *Settings) error { return f(frm, set) }

func TestRun(t *testing.T) {
	sc, dev, _ := newTestScope(t)
	dev.SetSignal(0, sim.Signal{Shape: sim.Square, Freq: 10_000, Amplitude: 300})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		q = &queue{cmds: []Command{
			{Code: CmdTimePerDiv, Arg: +1},
			{Code: CmdPosition, Ch: 0, Arg: -1000}, // clamped
			{Code: CmdPosition, Ch: 5},             // invalid: logged and skipped
		}}
		frames []int
	)
	sink := sinkFunc(func(frm *Frame, set *Settings) error {
		n := 0
		for _, tr := range frm.Traces {
			n += len(tr.Points)
		}
		frames = append(frames, n)
		switch len(frames) {
		case 3:
			q.cmds = append(q.cmds, Command{Code: CmdStop})
		case 5:
			cancel()
		}
		return nil
	})

	err := sc.Run(ctx, q, sink)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("invalid error: got=%v, want=%v", err, context.Canceled)
	}

	set := sc.Settings()
	if got, want := len(frames), 5; got != want {
		t.Fatalf("invalid number of frames: got=%d, want=%d", got, want)
	}
	if frames[0] != 0 {
		t.Fatalf("first capture should have been preempted by the queued commands")
	}
	if frames[1] == 0 {
		t.Fatalf("no trace rendered after a capture")
	}
	if set.TimePerDiv != 13 {
		t.Fatalf("invalid time/div: got=%d, want=13", set.TimePerDiv)
	}
	if set.Channels[0].Position != MinPosition {
		t.Fatalf("invalid position: got=%d, want=%d", set.Channels[0].Position, MinPosition)
	}
	if set.Running {
		t.Fatalf("scope still running")
	}
}

func TestRunSinkError(t *testing.T) {
	sc, _, _ := newTestScope(t)
	want := fmt.Errorf("display unplugged")
	err := sc.Run(context.Background(), &queue{}, sinkFunc(func(*Frame, *Settings) error {
		return want
	}))
	if !errors.Is(err, want) {
		t.Fatalf("invalid error: got=%v, want=%v", err, want)
	}
}
