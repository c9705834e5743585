// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scope

import (
	"context"
	"fmt"

	"github.com/go-lpc/dso/hw"
)

// Code is the code of a user command.
type Code uint8

const (
	CmdRunStop        Code = iota // toggle run state
	CmdRun                        // start acquisition
	CmdStop                       // stop acquisition
	CmdTriggerMode                // Arg: hw.TriggerMode
	CmdTriggerEdge                // Arg: hw.Edge
	CmdTriggerChannel             // Ch: trigger source
	CmdTriggerLevel               // Arg: move of the trigger level pointer, in pixels
	CmdTriggerPos                 // Arg: move of the trigger pointer, in pixels
	CmdFifty                      // center the trigger level on the trigger channel
	CmdAlwaysFifty                // Arg: 0 or 1
	CmdChannel                    // Ch, Arg: 0 or 1
	CmdCoupling                   // Ch, Arg: hw.Coupling
	CmdMagnification              // Ch, Arg: Magnification
	CmdPosition                   // Ch, Arg: move of the trace, in pixels
	CmdVoltPerDiv                 // Ch, Arg: +1 (more sensitive) or -1
	CmdTimePerDiv                 // Arg: +1 (faster) or -1
	CmdXY                         // toggle X-Y mode
	CmdAutoSetup
	CmdCalibrate
	CmdSave
	CmdSelect // Arg: Target
	CmdNav    // Nav, Arg: dial steps

	numCodes
)

var codeNames = [numCodes]string{
	CmdRunStop:        "run-stop",
	CmdRun:            "run",
	CmdStop:           "stop",
	CmdTriggerMode:    "trigger-mode",
	CmdTriggerEdge:    "trigger-edge",
	CmdTriggerChannel: "trigger-channel",
	CmdTriggerLevel:   "trigger-level",
	CmdTriggerPos:     "trigger-pos",
	CmdFifty:          "fifty",
	CmdAlwaysFifty:    "always-fifty",
	CmdChannel:        "channel",
	CmdCoupling:       "coupling",
	CmdMagnification:  "magnification",
	CmdPosition:       "position",
	CmdVoltPerDiv:     "vdiv",
	CmdTimePerDiv:     "tdiv",
	CmdXY:             "xy",
	CmdAutoSetup:      "auto-setup",
	CmdCalibrate:      "calibrate",
	CmdSave:           "save",
	CmdSelect:         "select",
	CmdNav:            "nav",
}

func (c Code) String() string {
	if c < numCodes {
		return codeNames[c]
	}
	return fmt.Sprintf("Code(%d)", uint8(c))
}

// Command is a discrete user command.
type Command struct {
	Code Code
	Ch   int
	Arg  int
	Nav  Action
}

// Apply executes a user command.
func (sc *Scope) Apply(ctx context.Context, cmd Command) error {
	if sc.mode != idle {
		return fmt.Errorf("%w: command %v while %v", ErrBusy, cmd.Code, sc.mode)
	}
	switch cmd.Code {
	case CmdCoupling, CmdChannel, CmdMagnification, CmdPosition, CmdVoltPerDiv:
		if cmd.Ch < 0 || cmd.Ch >= hw.NumChannels {
			return fmt.Errorf("scope: invalid channel %d for %v", cmd.Ch, cmd.Code)
		}
	}

	set := sc.set
	switch cmd.Code {
	case CmdRunStop:
		if set.Running {
			set.Running = false
			break
		}
		return sc.resume()
	case CmdRun:
		return sc.resume()
	case CmdStop:
		set.Running = false
	case CmdTriggerMode:
		if cmd.Arg < 0 || cmd.Arg > int(hw.Normal) {
			return fmt.Errorf("scope: invalid trigger mode %d", cmd.Arg)
		}
		set.Trigger.Mode = hw.TriggerMode(cmd.Arg)
		err := sc.dev.SetTriggerMode(set.Trigger.Mode)
		if err != nil {
			return fmt.Errorf("scope: could not set trigger mode: %w", err)
		}
		if set.Trigger.Mode == hw.Single {
			return sc.resume()
		}
	case CmdTriggerEdge:
		if cmd.Arg < 0 || cmd.Arg > int(hw.Falling) {
			return fmt.Errorf("scope: invalid trigger edge %d", cmd.Arg)
		}
		set.Trigger.Edge = hw.Edge(cmd.Arg)
		return sc.dev.SetTriggerEdge(set.Trigger.Edge)
	case CmdTriggerChannel:
		if cmd.Ch < 0 || cmd.Ch >= hw.NumChannels {
			return fmt.Errorf("scope: invalid trigger channel %d", cmd.Ch)
		}
		set.Trigger.Channel = cmd.Ch
		set.SetTriggerVPos(set.Trigger.VPos)
		return sc.dev.SetTriggerChannel(cmd.Ch)
	case CmdTriggerLevel:
		set.SetTriggerVPos(set.Trigger.VPos + cmd.Arg)
	case CmdTriggerPos:
		set.SetTriggerHPos(set.Trigger.HPos + cmd.Arg)
	case CmdFifty:
		set.fifty()
	case CmdAlwaysFifty:
		set.AlwaysFifty = cmd.Arg != 0
	case CmdChannel:
		set.Channels[cmd.Ch].Enabled = cmd.Arg != 0
		return sc.pushChannel(cmd.Ch)
	case CmdCoupling:
		if cmd.Arg < 0 || cmd.Arg > int(hw.AC) {
			return fmt.Errorf("scope: invalid coupling %d", cmd.Arg)
		}
		set.Channels[cmd.Ch].Coupling = hw.Coupling(cmd.Arg)
		return sc.dev.SetChannelCoupling(cmd.Ch, hw.Coupling(cmd.Arg))
	case CmdMagnification:
		if cmd.Arg < 0 || cmd.Arg > int(X100) {
			return fmt.Errorf("scope: invalid magnification %d", cmd.Arg)
		}
		set.Channels[cmd.Ch].Magnification = Magnification(cmd.Arg)
	case CmdPosition:
		set.SetPosition(cmd.Ch, set.Channels[cmd.Ch].Position+cmd.Arg)
	case CmdVoltPerDiv:
		if set.StepVoltPerDiv(cmd.Ch, cmd.Arg) {
			return sc.pushChannel(cmd.Ch)
		}
	case CmdTimePerDiv:
		set.StepTimePerDiv(cmd.Arg)
	case CmdXY:
		set.XY = !set.XY
	case CmdAutoSetup:
		return sc.AutoSetup(ctx)
	case CmdCalibrate:
		ok, err := sc.Calibrate(ctx)
		if err != nil {
			return err
		}
		if !ok {
			sc.msg.Warn().Msg("calibration failed, previous calibration kept")
		}
	case CmdSave:
		if sc.cfg.store == nil {
			return fmt.Errorf("scope: no settings store")
		}
		err := sc.cfg.store.Save(set)
		if err != nil {
			return fmt.Errorf("scope: could not save settings: %w", err)
		}
	case CmdSelect:
		if cmd.Arg < 0 || cmd.Arg >= int(numTargets) {
			return fmt.Errorf("scope: invalid target %d", cmd.Arg)
		}
		sc.target = Target(cmd.Arg)
	case CmdNav:
		return sc.nav(ctx, cmd.Nav, cmd.Arg)
	default:
		return fmt.Errorf("scope: unknown command %v", cmd.Code)
	}
	return nil
}

// resume restarts the acquisition. The sample volt/div and sample rate
// follow the display settings changed while stopped.
func (sc *Scope) resume() error {
	set := sc.set
	set.Running = true
	set.SampleRate = SampleRateFor(set.TimePerDiv)
	for i := range set.Channels {
		ch := &set.Channels[i]
		ch.SampleVPD = ch.DisplayVPD
		err := sc.pushChannel(i)
		if err != nil {
			return err
		}
	}
	return nil
}

// SetTriggerVPos moves the trigger level pointer, in pixels above the
// bottom of the trace area, and updates the trigger level.
func (set *Settings) SetTriggerVPos(vpos int) {
	trg := &set.Trigger
	trg.VPos = clamp(vpos, 0, TraceHeight)
	trg.Level = levelOf(&set.Channels[trg.Channel], trg.VPos)
}

// SetTriggerHPos moves the trigger pointer to screen column x.
func (set *Settings) SetTriggerHPos(x int) {
	set.Trigger.HPos = clamp(x, TraceLeft, TraceRight)
}

// SetPosition moves the trace of channel ch. The trigger pointer follows
// the trace of the trigger channel.
func (set *Settings) SetPosition(ch, pos int) {
	c := &set.Channels[ch]
	c.setPosition(pos)
	if ch == set.Trigger.Channel {
		set.Trigger.VPos = c.height(int(set.Trigger.Level))
	}
}

// StepVoltPerDiv moves the volt/div of channel ch by delta, positive
// towards the more sensitive settings. While stopped only the display
// volt/div changes, rescaling the last capture. StepVoltPerDiv reports
// whether the hardware needs to be updated.
func (set *Settings) StepVoltPerDiv(ch, delta int) bool {
	c := &set.Channels[ch]
	v := uint8(clamp(int(c.DisplayVPD)+delta, 0, hw.NumVoltPerDiv-1))
	c.DisplayVPD = v
	if !set.Running {
		return false
	}
	c.SampleVPD = v
	return true
}

// StepTimePerDiv moves the time/div by delta, positive towards the
// faster settings. While stopped only the display sweep changes.
func (set *Settings) StepTimePerDiv(delta int) {
	set.TimePerDiv = uint8(clamp(int(set.TimePerDiv)+delta, 0, hw.NumTimePerDiv-1))
	if set.Running {
		set.SampleRate = SampleRateFor(set.TimePerDiv)
	}
}
