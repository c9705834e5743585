// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scope

import (
	"context"
	"errors"
	"fmt"
)

// Commands is the queue of user commands consumed by the scheduler.
type Commands interface {
	// Pending reports whether a command is waiting.
	Pending() bool
	// Next pops the next command.
	Next() (Command, bool)
}

// Sink consumes the rendered frames.
type Sink interface {
	Show(frm *Frame, set *Settings) error
}

// Run is the scheduler loop of the instrument: it acquires, drains the
// pending commands, renders and hands the frame to the sink, until ctx
// is done.
//
// Commands also pre-empt in-flight conversions. Hardware failures are
// logged and the last good capture is shown again.
func (sc *Scope) Run(ctx context.Context, cmds Commands, sink Sink) error {
	sc.cfg.in = cmds

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		st, err := sc.Acquire(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			sc.msg.Error().Err(err).Msg("acquisition failed")
		}

		for cmds.Pending() {
			cmd, ok := cmds.Next()
			if !ok {
				break
			}
			err := sc.Apply(ctx, cmd)
			switch {
			case err == nil:
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return err
			default:
				sc.msg.Warn().Err(err).Stringer("cmd", cmd.Code).Msg("command failed")
			}
		}

		frm, err := sc.Render()
		if err != nil {
			return err
		}
		err = sink.Show(frm, sc.set)
		if err != nil {
			return fmt.Errorf("scope: could not show frame: %w", err)
		}

		if st == Captured || st == Preempted {
			continue
		}
		err = sc.sleep(ctx, sc.cfg.tick)
		if err != nil {
			return err
		}
	}
}
