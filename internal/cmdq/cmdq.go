// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cmdq queues the user commands of the dso tools and parses
// their textual form.
package cmdq // import "github.com/go-lpc/dso/internal/cmdq"

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-lpc/dso/hw"
	"github.com/go-lpc/dso/scope"
)

// Queue is a FIFO of commands, safe for concurrent use.
// It implements scope.Commands.
type Queue struct {
	mu   sync.Mutex
	cmds []scope.Command
}

var _ scope.Commands = (*Queue)(nil)

func (q *Queue) Push(cmds ...scope.Command) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cmds = append(q.cmds, cmds...)
}

func (q *Queue) Pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.cmds) > 0
}

func (q *Queue) Next() (scope.Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.cmds) == 0 {
		return scope.Command{}, false
	}
	cmd := q.cmds[0]
	q.cmds = q.cmds[1:]
	return cmd, true
}

// Usage describes the textual commands understood by Parse.
const Usage = `commands:
  run | stop | runstop          start, stop or toggle acquisition
  auto                          auto-setup
  cal                           calibrate both channels
  save                          persist the settings
  xy                            toggle X-Y mode
  fifty [on|off]                50% trigger, once or on every capture
  vdiv <ch> <+n|-n>             step volt/div (+: more sensitive)
  tdiv <+n|-n>                  step time/div (+: faster)
  pos <ch> <+px|-px>            move a trace
  ch <ch> on|off                enable or disable a channel
  coupling <ch> dc|ac
  mag <ch> 1|10|100             probe magnification
  trig mode auto|single|normal
  trig edge rising|falling
  trig ch <ch>
  trig level <+px|-px>
  trig pos <+px|-px>
  select <target>               select the navigation target
  nav left|right|up|down|ok     navigation key
  dial <n>                      rotate the navigation dial`

// Parse parses the textual form of a command.
// Channels are numbered from 1.
func Parse(line string) (scope.Command, error) {
	var (
		cmd  scope.Command
		args = strings.Fields(strings.ToLower(line))
	)
	if len(args) == 0 {
		return cmd, fmt.Errorf("cmdq: empty command")
	}
	name, args := args[0], args[1:]

	nargs := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("cmdq: %q expects %d argument(s), got %d", name, n, len(args))
		}
		return nil
	}

	var err error
	switch name {
	case "run", "stop", "runstop", "auto", "cal", "save", "xy":
		if err = nargs(0); err != nil {
			return cmd, err
		}
		cmd.Code = map[string]scope.Code{
			"run":     scope.CmdRun,
			"stop":    scope.CmdStop,
			"runstop": scope.CmdRunStop,
			"auto":    scope.CmdAutoSetup,
			"cal":     scope.CmdCalibrate,
			"save":    scope.CmdSave,
			"xy":      scope.CmdXY,
		}[name]

	case "fifty":
		switch len(args) {
		case 0:
			cmd.Code = scope.CmdFifty
		case 1:
			cmd.Code = scope.CmdAlwaysFifty
			cmd.Arg, err = parseEnum(args[0], "off", "on")
		default:
			err = nargs(1)
		}

	case "vdiv", "pos":
		if err = nargs(2); err != nil {
			return cmd, err
		}
		cmd.Code = scope.CmdVoltPerDiv
		if name == "pos" {
			cmd.Code = scope.CmdPosition
		}
		cmd.Ch, err = parseChannel(args[0])
		if err == nil {
			cmd.Arg, err = strconv.Atoi(args[1])
		}

	case "tdiv", "dial":
		if err = nargs(1); err != nil {
			return cmd, err
		}
		cmd.Code = scope.CmdTimePerDiv
		if name == "dial" {
			cmd.Code = scope.CmdNav
			cmd.Nav = scope.Dial
		}
		cmd.Arg, err = strconv.Atoi(args[0])

	case "ch", "coupling", "mag":
		if err = nargs(2); err != nil {
			return cmd, err
		}
		cmd.Ch, err = parseChannel(args[0])
		if err != nil {
			break
		}
		switch name {
		case "ch":
			cmd.Code = scope.CmdChannel
			cmd.Arg, err = parseEnum(args[1], "off", "on")
		case "coupling":
			cmd.Code = scope.CmdCoupling
			cmd.Arg, err = parseEnum(args[1], "dc", "ac")
		case "mag":
			cmd.Code = scope.CmdMagnification
			cmd.Arg, err = parseEnum(args[1], "1", "10", "100")
		}

	case "trig":
		if err = nargs(2); err != nil {
			return cmd, err
		}
		switch args[0] {
		case "mode":
			cmd.Code = scope.CmdTriggerMode
			cmd.Arg, err = parseEnum(args[1], "auto", "single", "normal")
		case "edge":
			cmd.Code = scope.CmdTriggerEdge
			cmd.Arg, err = parseEnum(args[1], "rising", "falling")
		case "ch":
			cmd.Code = scope.CmdTriggerChannel
			cmd.Ch, err = parseChannel(args[1])
		case "level":
			cmd.Code = scope.CmdTriggerLevel
			cmd.Arg, err = strconv.Atoi(args[1])
		case "pos":
			cmd.Code = scope.CmdTriggerPos
			cmd.Arg, err = strconv.Atoi(args[1])
		default:
			err = fmt.Errorf("cmdq: unknown trigger setting %q", args[0])
		}

	case "select":
		if err = nargs(1); err != nil {
			return cmd, err
		}
		var tgt scope.Target
		tgt, err = scope.ParseTarget(args[0])
		cmd.Code = scope.CmdSelect
		cmd.Arg = int(tgt)

	case "nav":
		if err = nargs(1); err != nil {
			return cmd, err
		}
		var act int
		act, err = parseEnum(args[0], "left", "right", "up", "down", "ok")
		cmd.Code = scope.CmdNav
		cmd.Nav = scope.Action(act)

	default:
		return cmd, fmt.Errorf("cmdq: unknown command %q", name)
	}

	if err != nil {
		return cmd, fmt.Errorf("cmdq: invalid %q command: %w", name, err)
	}
	return cmd, nil
}

func parseChannel(s string) (int, error) {
	ch, err := strconv.Atoi(s)
	if err != nil || ch < 1 || ch > hw.NumChannels {
		return 0, fmt.Errorf("invalid channel %q", s)
	}
	return ch - 1, nil
}

func parseEnum(s string, vs ...string) (int, error) {
	for i, v := range vs {
		if s == v {
			return i, nil
		}
	}
	return 0, fmt.Errorf("invalid value %q (want one of %s)", s, strings.Join(vs, "|"))
}
