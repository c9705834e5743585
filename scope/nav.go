// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scope

import (
	"context"
	"fmt"
)

// Target is the on-screen item the navigation keys act upon.
type Target uint8

const (
	TargetTriggerLevel Target = iota
	TargetTriggerPos
	TargetPosition1
	TargetPosition2
	TargetVoltDiv1
	TargetVoltDiv2
	TargetTimeDiv
	TargetTimeCursor1
	TargetTimeCursor2
	TargetVoltCursor1
	TargetVoltCursor2

	numTargets
)

var targetNames = [numTargets]string{
	TargetTriggerLevel: "trigger-level",
	TargetTriggerPos:   "trigger-pos",
	TargetPosition1:    "position-1",
	TargetPosition2:    "position-2",
	TargetVoltDiv1:     "vdiv-1",
	TargetVoltDiv2:     "vdiv-2",
	TargetTimeDiv:      "tdiv",
	TargetTimeCursor1:  "time-cursor-1",
	TargetTimeCursor2:  "time-cursor-2",
	TargetVoltCursor1:  "volt-cursor-1",
	TargetVoltCursor2:  "volt-cursor-2",
}

func (t Target) String() string {
	if t < numTargets {
		return targetNames[t]
	}
	return fmt.Sprintf("Target(%d)", uint8(t))
}

// ParseTarget returns the target with the provided name.
func ParseTarget(name string) (Target, error) {
	for i, v := range targetNames {
		if v == name {
			return Target(i), nil
		}
	}
	return 0, fmt.Errorf("scope: unknown target %q", name)
}

// Action is a navigation key.
type Action uint8

const (
	Left Action = iota
	Right
	Up
	Down
	OK
	Dial // rotary encoder, by Command.Arg steps
)

// Target returns the item currently selected for navigation.
func (sc *Scope) Target() Target { return sc.target }

// nav applies a navigation action to the selected target.
// Left and Right cycle through the targets. Up, Down and Dial move the
// target value. OK runs the target's shortcut.
func (sc *Scope) nav(ctx context.Context, act Action, steps int) error {
	var delta int
	switch act {
	case Left:
		sc.target = (sc.target + numTargets - 1) % numTargets
		return nil
	case Right:
		sc.target = (sc.target + 1) % numTargets
		return nil
	case Up:
		delta = +1
	case Down:
		delta = -1
	case Dial:
		delta = steps
	case OK:
		return sc.navOK(ctx)
	default:
		return fmt.Errorf("scope: invalid navigation action %d", act)
	}

	set := sc.set
	cur := &set.Cursors
	switch sc.target {
	case TargetTriggerLevel:
		set.SetTriggerVPos(set.Trigger.VPos + delta)
	case TargetTriggerPos:
		set.SetTriggerHPos(set.Trigger.HPos + delta)
	case TargetPosition1:
		set.SetPosition(0, set.Channels[0].Position+delta)
	case TargetPosition2:
		set.SetPosition(1, set.Channels[1].Position+delta)
	case TargetVoltDiv1, TargetVoltDiv2:
		ch := int(sc.target - TargetVoltDiv1)
		if set.StepVoltPerDiv(ch, delta) {
			return sc.pushChannel(ch)
		}
	case TargetTimeDiv:
		set.StepTimePerDiv(delta)
	case TargetTimeCursor1:
		cur.T1 = clamp(cur.T1+delta, TraceLeft, TraceRight)
	case TargetTimeCursor2:
		cur.T2 = clamp(cur.T2+delta, TraceLeft, TraceRight)
	case TargetVoltCursor1:
		cur.V1 = clamp(cur.V1+delta, 0, TraceHeight)
	case TargetVoltCursor2:
		cur.V2 = clamp(cur.V2+delta, 0, TraceHeight)
	}
	return nil
}

func (sc *Scope) navOK(ctx context.Context) error {
	set := sc.set
	switch sc.target {
	case TargetTriggerLevel:
		set.fifty()
	case TargetTriggerPos:
		set.SetTriggerHPos(TraceLeft + TraceWidth/2)
	case TargetPosition1, TargetPosition2:
		set.SetPosition(int(sc.target-TargetPosition1), 200)
	case TargetVoltDiv1, TargetVoltDiv2:
		ch := int(sc.target - TargetVoltDiv1)
		set.Channels[ch].Enabled = !set.Channels[ch].Enabled
		return sc.pushChannel(ch)
	case TargetTimeDiv:
		return sc.AutoSetup(ctx)
	case TargetTimeCursor1, TargetTimeCursor2:
		set.Cursors.TimeOn = !set.Cursors.TimeOn
	case TargetVoltCursor1, TargetVoltCursor2:
		set.Cursors.VoltOn = !set.Cursors.VoltOn
	}
	return nil
}
