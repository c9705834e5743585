// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scope

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-lpc/dso/hw"
)

type memStore struct {
	n   int
	set Settings
	err error
}

func (st *memStore) Save(set *Settings) error {
	if st.err != nil {
		return st.err
	}
	st.n++
	st.set = *set
	return nil
}

func TestApply(t *testing.T) {
	ctx := context.Background()

	t.Run("run-stop", func(t *testing.T) {
		sc, _, _ := newTestScope(t)
		set := sc.Settings()
		for _, tc := range []struct {
			cmd  Command
			want bool
		}{
			{Command{Code: CmdRunStop}, false},
			{Command{Code: CmdRunStop}, true},
			{Command{Code: CmdStop}, false},
			{Command{Code: CmdRun}, true},
		} {
			err := sc.Apply(ctx, tc.cmd)
			if err != nil {
				t.Fatalf("could not apply %v: %+v", tc.cmd.Code, err)
			}
			if set.Running != tc.want {
				t.Fatalf("invalid run state after %v: got=%v, want=%v", tc.cmd.Code, set.Running, tc.want)
			}
		}
	})

	t.Run("vdiv-running", func(t *testing.T) {
		sc, dev, _ := newTestScope(t)
		set := sc.Settings()
		err := sc.Apply(ctx, Command{Code: CmdVoltPerDiv, Ch: 0, Arg: +1})
		if err != nil {
			t.Fatalf("could not apply: %+v", err)
		}
		ch := &set.Channels[0]
		if ch.SampleVPD != 4 || ch.DisplayVPD != 4 {
			t.Fatalf("invalid volt/div: got=%d/%d, want=4/4", ch.SampleVPD, ch.DisplayVPD)
		}
		if got := dev.VoltPerDiv(0); got != 4 {
			t.Fatalf("invalid volt/div register: got=%d, want=4", got)
		}
		if got, want := dev.Offset(0), ch.Cal.DCOffset[4]; got != want {
			t.Fatalf("invalid offset register: got=%d, want=%d", got, want)
		}
	})

	t.Run("vdiv-stopped", func(t *testing.T) {
		sc, dev, _ := newTestScope(t)
		set := sc.Settings()
		set.Running = false
		for i := 0; i < 10; i++ {
			err := sc.Apply(ctx, Command{Code: CmdVoltPerDiv, Ch: 0, Arg: -1})
			if err != nil {
				t.Fatalf("could not apply: %+v", err)
			}
		}
		ch := &set.Channels[0]
		if ch.SampleVPD != 3 || ch.DisplayVPD != 0 {
			t.Fatalf("invalid volt/div: got=%d/%d, want=3/0", ch.SampleVPD, ch.DisplayVPD)
		}
		if got := dev.VoltPerDiv(0); got != 3 {
			t.Fatalf("invalid volt/div register: got=%d, want=3", got)
		}
	})

	t.Run("tdiv", func(t *testing.T) {
		sc, _, _ := newTestScope(t)
		set := sc.Settings()
		err := sc.Apply(ctx, Command{Code: CmdTimePerDiv, Arg: +2})
		if err != nil {
			t.Fatalf("could not apply: %+v", err)
		}
		if set.TimePerDiv != 14 || set.SampleRate != SampleRateFor(14) {
			t.Fatalf("invalid time base: tdiv=%d, rate=%d", set.TimePerDiv, set.SampleRate)
		}

		set.Running = false
		err = sc.Apply(ctx, Command{Code: CmdTimePerDiv, Arg: +100})
		if err != nil {
			t.Fatalf("could not apply: %+v", err)
		}
		if set.TimePerDiv != hw.NumTimePerDiv-1 || set.SampleRate != SampleRateFor(14) {
			t.Fatalf("invalid time base: tdiv=%d, rate=%d", set.TimePerDiv, set.SampleRate)
		}
	})

	t.Run("resume", func(t *testing.T) {
		for _, resume := range []Command{
			{Code: CmdRun},
			{Code: CmdRunStop},
			{Code: CmdTriggerMode, Arg: int(hw.Single)},
		} {
			t.Run(resume.Code.String(), func(t *testing.T) {
				sc, dev, _ := newTestScope(t)
				set := sc.Settings()
				for _, cmd := range []Command{
					{Code: CmdStop},
					{Code: CmdTimePerDiv, Arg: +2},
					{Code: CmdVoltPerDiv, Ch: 0, Arg: +1},
					resume,
				} {
					err := sc.Apply(ctx, cmd)
					if err != nil {
						t.Fatalf("could not apply %v: %+v", cmd.Code, err)
					}
				}
				if !set.Running {
					t.Fatalf("scope not running")
				}

				st, err := sc.Acquire(ctx)
				if err != nil {
					t.Fatalf("could not acquire: %+v", err)
				}
				if st != Captured {
					t.Fatalf("invalid status: got=%v, want=%v", st, Captured)
				}

				if got, want := set.SampleRate, SampleRateFor(14); got != want {
					t.Fatalf("invalid sample rate: got=%d, want=%d", got, want)
				}
				if got, want := dev.SampleRate(), SampleRateFor(14); got != want {
					t.Fatalf("invalid sample rate register: got=%d, want=%d", got, want)
				}
				if got := dev.TimeBase(); got != 14 {
					t.Fatalf("invalid time base register: got=%d, want=14", got)
				}
				ch := &set.Channels[0]
				if ch.SampleVPD != 4 || ch.DisplayVPD != 4 {
					t.Fatalf("invalid volt/div: got=%d/%d, want=4/4", ch.SampleVPD, ch.DisplayVPD)
				}
				if got := dev.VoltPerDiv(0); got != 4 {
					t.Fatalf("invalid volt/div register: got=%d, want=4", got)
				}
				if got, want := dev.Offset(0), ch.Cal.DCOffset[4]; got != want {
					t.Fatalf("invalid offset register: got=%d, want=%d", got, want)
				}
			})
		}
	})

	t.Run("position", func(t *testing.T) {
		sc, _, _ := newTestScope(t)
		set := sc.Settings()
		for _, tc := range []struct {
			arg  int
			want int
		}{
			{-1000, MinPosition},
			{+50, MinPosition + 50},
			{+1000, MaxPosition},
		} {
			err := sc.Apply(ctx, Command{Code: CmdPosition, Ch: 1, Arg: tc.arg})
			if err != nil {
				t.Fatalf("could not apply: %+v", err)
			}
			if got := set.Channels[1].Position; got != tc.want {
				t.Fatalf("invalid position: got=%d, want=%d", got, tc.want)
			}
		}
	})

	t.Run("trigger-level", func(t *testing.T) {
		sc, _, _ := newTestScope(t)
		set := sc.Settings()
		ch := &set.Channels[0]
		ch.SampleVPD, ch.DisplayVPD = 6, 6
		set.Trigger.VPos = ch.Position

		err := sc.Apply(ctx, Command{Code: CmdTriggerLevel, Arg: +40})
		if err != nil {
			t.Fatalf("could not apply: %+v", err)
		}
		// 4px per code.
		if got, want := set.Trigger.Level, uint16(128+10); got != want {
			t.Fatalf("invalid trigger level: got=%d, want=%d", got, want)
		}

		err = sc.Apply(ctx, Command{Code: CmdTriggerLevel, Arg: +10000})
		if err != nil {
			t.Fatalf("could not apply: %+v", err)
		}
		if got := set.Trigger.VPos; got != TraceHeight {
			t.Fatalf("invalid trigger pointer: got=%d, want=%d", got, TraceHeight)
		}
		if got := set.Trigger.Level; got > 255 {
			t.Fatalf("invalid trigger level: got=%d", got)
		}
	})

	t.Run("trigger-source", func(t *testing.T) {
		sc, _, _ := newTestScope(t)
		for _, cmd := range []Command{
			{Code: CmdTriggerMode, Arg: int(hw.Normal)},
			{Code: CmdTriggerEdge, Arg: int(hw.Falling)},
			{Code: CmdTriggerChannel, Ch: 1},
			{Code: CmdTriggerPos, Arg: -1000},
		} {
			err := sc.Apply(ctx, cmd)
			if err != nil {
				t.Fatalf("could not apply %v: %+v", cmd.Code, err)
			}
		}
		trg := sc.Settings().Trigger
		if trg.Mode != hw.Normal || trg.Edge != hw.Falling || trg.Channel != 1 || trg.HPos != TraceLeft {
			t.Fatalf("invalid trigger: %+v", trg)
		}
	})

	t.Run("save", func(t *testing.T) {
		var store memStore
		sc, _, _ := newTestScope(t, WithStore(&store))
		sc.Settings().XY = true
		err := sc.Apply(ctx, Command{Code: CmdSave})
		if err != nil {
			t.Fatalf("could not save: %+v", err)
		}
		if store.n != 1 || !store.set.XY {
			t.Fatalf("settings not saved")
		}

		store.err = fmt.Errorf("disk full")
		err = sc.Apply(ctx, Command{Code: CmdSave})
		if err == nil {
			t.Fatalf("expected an error")
		}
	})

	t.Run("invalid", func(t *testing.T) {
		sc, _, _ := newTestScope(t)
		for _, cmd := range []Command{
			{Code: numCodes},
			{Code: CmdPosition, Ch: 2},
			{Code: CmdVoltPerDiv, Ch: -1},
			{Code: CmdTriggerMode, Arg: 3},
			{Code: CmdTriggerEdge, Arg: -1},
			{Code: CmdTriggerChannel, Ch: 2},
			{Code: CmdCoupling, Ch: 0, Arg: 2},
			{Code: CmdMagnification, Ch: 0, Arg: 3},
			{Code: CmdSelect, Arg: int(numTargets)},
			{Code: CmdSave},
		} {
			err := sc.Apply(ctx, cmd)
			if err == nil {
				t.Fatalf("%v: expected an error", cmd.Code)
			}
		}
	})
}

func TestNav(t *testing.T) {
	ctx := context.Background()
	sc, _, _ := newTestScope(t)
	set := sc.Settings()

	if got := sc.Target(); got != TargetTriggerLevel {
		t.Fatalf("invalid initial target: got=%v", got)
	}
	err := sc.Apply(ctx, Command{Code: CmdNav, Nav: Left})
	if err != nil {
		t.Fatalf("could not navigate: %+v", err)
	}
	if got := sc.Target(); got != TargetVoltCursor2 {
		t.Fatalf("invalid target: got=%v, want=%v", got, TargetVoltCursor2)
	}

	for _, tc := range []struct {
		target Target
		cmd    Command
		check  func() error
	}{
		{
			target: TargetTriggerPos,
			cmd:    Command{Code: CmdNav, Nav: Dial, Arg: -12},
			check: func() error {
				if got, want := set.Trigger.HPos, TraceLeft+TraceWidth/2-12; got != want {
					return fmt.Errorf("invalid trigger position: got=%d, want=%d", got, want)
				}
				return nil
			},
		},
		{
			target: TargetPosition2,
			cmd:    Command{Code: CmdNav, Nav: Up},
			check: func() error {
				if got, want := set.Channels[1].Position, 101; got != want {
					return fmt.Errorf("invalid position: got=%d, want=%d", got, want)
				}
				return nil
			},
		},
		{
			target: TargetTimeCursor1,
			cmd:    Command{Code: CmdNav, Nav: OK},
			check: func() error {
				if !set.Cursors.TimeOn {
					return fmt.Errorf("time cursors not enabled")
				}
				return nil
			},
		},
		{
			target: TargetVoltCursor2,
			cmd:    Command{Code: CmdNav, Nav: Down},
			check: func() error {
				if got, want := set.Cursors.V2, 99; got != want {
					return fmt.Errorf("invalid cursor: got=%d, want=%d", got, want)
				}
				return nil
			},
		},
		{
			target: TargetVoltDiv2,
			cmd:    Command{Code: CmdNav, Nav: OK},
			check: func() error {
				if !set.Channels[1].Enabled {
					return fmt.Errorf("channel 2 not enabled")
				}
				return nil
			},
		},
	} {
		t.Run(tc.target.String(), func(t *testing.T) {
			err := sc.Apply(ctx, Command{Code: CmdSelect, Arg: int(tc.target)})
			if err != nil {
				t.Fatalf("could not select target: %+v", err)
			}
			err = sc.Apply(ctx, tc.cmd)
			if err != nil {
				t.Fatalf("could not navigate: %+v", err)
			}
			if err := tc.check(); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestCursorDelta(t *testing.T) {
	set := DefaultSettings()
	set.TimePerDiv = 8 // 1ms/div
	set.Cursors.T1 = 100
	set.Cursors.T2 = 200
	set.Cursors.V1 = 50
	set.Cursors.V2 = 150
	set.Channels[0].DisplayVPD = 2 // 1V/div
	set.Channels[0].Magnification = X10

	dt, dv := set.CursorDelta()
	if got, want := dt.Milliseconds(), int64(2); got != want {
		t.Fatalf("invalid time delta: got=%dms, want=%dms", got, want)
	}
	if got, want := dv, 20.0; got != want {
		t.Fatalf("invalid voltage delta: got=%v, want=%v", got, want)
	}
}

func TestParseTarget(t *testing.T) {
	for tgt := TargetTriggerLevel; tgt < numTargets; tgt++ {
		got, err := ParseTarget(tgt.String())
		if err != nil {
			t.Fatalf("could not parse %v: %+v", tgt, err)
		}
		if got != tgt {
			t.Fatalf("invalid target: got=%v, want=%v", got, tgt)
		}
	}
	_, err := ParseTarget("menu")
	if err == nil {
		t.Fatalf("expected an error")
	}
}
