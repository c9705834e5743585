// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scope

import (
	"context"
	"fmt"
	"time"

	"github.com/go-lpc/dso/hw"
)

const (
	autoProbeVPD  = hw.NumHWRanges - 1 // most sensitive hardware range
	autoSettle    = 50 * time.Millisecond
	autoMaxScreen = 3900 // range budget of a lone trace
	autoDualMax   = 1900 // range budget of each of two stacked traces
)

// autoCoarse is the volt/div tried on each refinement pass by channels
// whose trace does not fit.
var autoCoarse = [3]uint8{3, 1, 0}

// AutoSetup selects the time base and the volt/div of the enabled
// channels so that the captured signals fit the screen.
//
// AutoSetup is a no-op when no channel is enabled.
func (sc *Scope) AutoSetup(ctx context.Context) error {
	err := sc.enter(autosetup)
	if err != nil {
		return err
	}
	defer sc.leave()

	set := sc.set
	var enabled []int
	for i := range set.Channels {
		if set.Channels[i].Enabled {
			enabled = append(enabled, i)
		}
	}
	if len(enabled) == 0 {
		return nil
	}

	set.Trigger.Mode = hw.Auto
	set.Running = true
	err = sc.dev.SetTriggerMode(hw.Auto)
	if err != nil {
		return fmt.Errorf("scope: could not set trigger mode: %w", err)
	}

	for _, i := range enabled {
		ch := &set.Channels[i]
		ch.SampleVPD = autoProbeVPD
		ch.DisplayVPD = autoProbeVPD
		err = sc.pushChannel(i)
		if err != nil {
			return err
		}
	}
	set.Trigger.Level = 0
	err = sc.dev.SetTriggerLevel(0)
	if err != nil {
		return fmt.Errorf("scope: could not clear trigger level: %w", err)
	}

	probe := set.Trigger.Channel
	if !set.Channels[probe].Enabled {
		probe = enabled[0]
		set.Trigger.Channel = probe
		err = sc.dev.SetTriggerChannel(probe)
		if err != nil {
			return fmt.Errorf("scope: could not set trigger channel: %w", err)
		}
	}

	tdiv, err := sc.autoTimeBase(ctx, probe)
	if err != nil {
		return err
	}
	set.TimePerDiv = tdiv
	set.SampleRate = SampleRateFor(tdiv)
	err = sc.pushTimeBase()
	if err != nil {
		return err
	}

	maxScreen := autoMaxScreen
	if len(enabled) == hw.NumChannels && !set.XY {
		maxScreen = autoDualMax
		set.Channels[0].setPosition(300)
		set.Channels[1].setPosition(100)
	} else {
		for i := range set.Channels {
			set.Channels[i].setPosition(200)
		}
	}

	err = sc.autoRange(ctx, enabled, maxScreen)
	if err != nil {
		return err
	}

	for _, i := range enabled {
		ch := &set.Channels[i]
		ch.DisplayVPD = ch.SampleVPD
		err = sc.pushChannel(i)
		if err != nil {
			return err
		}
	}
	_, err = sc.acquire(ctx, false)
	if err != nil {
		return err
	}
	set.fifty()

	sc.msg.Debug().
		Uint8("tdiv", set.TimePerDiv).
		Uint8("vpd1", set.Channels[0].SampleVPD).
		Uint8("vpd2", set.Channels[1].SampleVPD).
		Uint16("level", set.Trigger.Level).
		Msg("auto-setup done")
	return nil
}

// autoTimeBase probes the candidate sample rates, fastest first, and
// returns the time/div showing about three periods of the probe channel.
func (sc *Scope) autoTimeBase(ctx context.Context, probe int) (uint8, error) {
	set := sc.set
	for i, rate := range autoRates {
		set.SampleRate = rate
		set.TimePerDiv = hw.NumSampleRates - 1 - rate
		_, err := sc.acquire(ctx, false)
		if err != nil {
			return 0, err
		}
		st := &set.Channels[probe].Stats
		if !st.FreqValid {
			continue
		}

		screenTime := uint64(st.PeriodX256) * autoTimeFactor[i] >> 8
		tdiv := uint8(hw.NumTimePerDiv - 1)
		for j, thr := range autoThresholds {
			if screenTime > thr {
				tdiv = uint8(j)
				if j > 0 {
					tdiv = uint8(j - 1)
				}
				break
			}
		}
		sc.msg.Debug().
			Uint32("freq", st.Freq).Uint64("screen-time", screenTime).Uint8("tdiv", tdiv).
			Msg("auto-setup time base")
		return tdiv, nil
	}
	sc.msg.Debug().Msg("auto-setup found no frequency")
	return autoDefaultTimePerDiv, nil
}

// autoRange runs the range-check passes over the enabled channels.
func (sc *Scope) autoRange(ctx context.Context, enabled []int, maxScreen int) error {
	set := sc.set
	var done [hw.NumChannels]bool
	for i := range done {
		done[i] = !set.Channels[i].Enabled
	}

	_, err := sc.acquire(ctx, false)
	if err != nil {
		return err
	}

	for pass, coarse := range autoCoarse {
		retry := false
		for _, i := range enabled {
			if done[i] {
				continue
			}
			ch := &set.Channels[i]
			vpd, ok := rangeCheck(ch.Stats.PeakPeak, ch.SampleVPD, maxScreen)
			sc.msg.Debug().
				Int("channel", i+1).Int("pass", pass).Int("pp", ch.Stats.PeakPeak).
				Uint8("vpd", vpd).Bool("done", ok).
				Msg("auto-setup range")
			if ok {
				ch.SampleVPD = vpd
				done[i] = true
				continue
			}
			ch.SampleVPD = coarse
			retry = true
			err = sc.pushChannel(i)
			if err != nil {
				return err
			}
		}
		if !retry {
			return nil
		}
		err = sc.sleep(ctx, autoSettle)
		if err != nil {
			return err
		}
		_, err = sc.acquire(ctx, false)
		if err != nil {
			return err
		}
	}
	return nil
}

// rangeCheck returns the volt/div fitting a trace of pp codes, measured
// at volt/div vpd, within maxScreen. It reports false when the trace
// does not fit at vpd.
func rangeCheck(pp int, vpd uint8, maxScreen int) (uint8, bool) {
	pixels := (pp * gainQ21[vpd]) >> 21
	if pixels == 0 {
		return hw.NumVoltPerDiv - 1, true
	}
	v := int(vpd)
	switch r := maxScreen / pixels; {
	case r >= 100:
		v += 3
	case r >= 50:
		v += 2
	case r >= 25:
		v++
	case r < 10:
		return vpd, false
	}
	if v > hw.NumVoltPerDiv-1 {
		v = hw.NumVoltPerDiv - 1
	}
	return uint8(v), true
}
