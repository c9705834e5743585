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

// CaptureStatus is the outcome of one acquisition cycle.
type CaptureStatus uint8

const (
	Captured  CaptureStatus = iota // channel buffers hold a new capture
	Stopped                        // scope not running, nothing done
	Preempted                      // a pending command abandoned the capture
)

func (st CaptureStatus) String() string {
	switch st {
	case Captured:
		return "captured"
	case Stopped:
		return "stopped"
	case Preempted:
		return "preempted"
	}
	return fmt.Sprintf("CaptureStatus(%d)", uint8(st))
}

const pollInterval = time.Millisecond

// captureOffset converts the free-running trigger-position counter into
// the sample RAM offset of the 1500-sample window read back per ADC.
func captureOffset(raw uint16) int {
	const (
		window = 750
		wrap   = hw.TriggerPointMax - window // 3345
	)
	if raw < window {
		return int(raw) + wrap
	}
	return int(raw) - window
}

// Acquire runs one capture cycle.
//
// Acquire returns Stopped when the scope is not running and Preempted,
// leaving the channels untouched, when a command became pending during
// the conversion. On a hardware failure the previous capture is kept.
func (sc *Scope) Acquire(ctx context.Context) (CaptureStatus, error) {
	if err := sc.enter(acquiring); err != nil {
		return Stopped, err
	}
	defer sc.leave()
	return sc.acquire(ctx, true)
}

func (sc *Scope) acquire(ctx context.Context, preemptible bool) (CaptureStatus, error) {
	set := sc.set
	if !set.Running {
		return Stopped, nil
	}

	err := sc.dev.SetTriggerLevel(set.Trigger.Level)
	if err != nil {
		return Stopped, fmt.Errorf("scope: could not set trigger level: %w", err)
	}
	err = sc.pushTimeBase()
	if err != nil {
		return Stopped, err
	}
	err = sc.dev.SetSampleMode(hw.Triggered)
	if err != nil {
		return Stopped, fmt.Errorf("scope: could not enable trigger circuit: %w", err)
	}

	st, err := sc.convert(ctx, preemptible)
	if err != nil || st != Captured {
		if st == Preempted {
			sc.msg.Debug().Msg("capture preempted")
		}
		return st, err
	}

	raw, err := sc.dev.ReadTriggerPoint()
	if err != nil {
		sc.msg.Error().Err(err).Msg("could not read trigger point")
		return Stopped, fmt.Errorf("scope: could not read trigger point: %w", err)
	}

	err = sc.readChannels(captureOffset(raw))
	if err != nil {
		sc.msg.Error().Err(err).Msg("could not read samples")
		return Stopped, err
	}

	if set.Trigger.Mode == hw.Single {
		set.Running = false
		if sc.cfg.notify != nil {
			sc.cfg.notify(set)
		}
	}

	trg := &set.Trigger
	if set.AlwaysFifty && set.Channels[trg.Channel].Enabled {
		set.fifty()
	}

	sc.locate()
	return Captured, nil
}

// convert starts a conversion and waits for its completion.
// A preemptible conversion is abandoned as soon as a command is pending.
func (sc *Scope) convert(ctx context.Context, preemptible bool) (CaptureStatus, error) {
	err := sc.dev.StartConversion()
	if err != nil {
		return Stopped, fmt.Errorf("scope: could not start conversion: %w", err)
	}
	for {
		if preemptible && sc.cfg.in.Pending() {
			return Preempted, nil
		}
		done, err := sc.dev.ConversionDone()
		if err != nil {
			return Stopped, fmt.Errorf("scope: could not poll conversion: %w", err)
		}
		if done {
			break
		}
		err = sc.sleep(ctx, pollInterval)
		if err != nil {
			return Stopped, err
		}
	}
	if preemptible && sc.cfg.in.Pending() {
		return Preempted, nil
	}
	return Captured, nil
}

// readChannels reads both ADCs of every enabled channel at the provided
// sample RAM offset. Channels are only updated when all reads succeed.
func (sc *Scope) readChannels(offset int) error {
	set := sc.set
	for i := range set.Channels {
		ch := &set.Channels[i]
		if !ch.Enabled {
			continue
		}
		for adc := range sc.adc {
			err := sc.dev.ReadADC(i, hw.ADC(adc), offset, sc.adc[adc][:])
			if err != nil {
				return fmt.Errorf("scope: could not read channel %d ADC%d: %w", i+1, adc+1, err)
			}
		}
		interleave(&sc.buf[i], &sc.adc, ch.Cal.ADC1Comp, ch.Cal.ADC2Comp)
		computeStats(&sc.stats[i], sc.buf[i][:], set.SampleRate)
	}

	for i := range set.Channels {
		ch := &set.Channels[i]
		if !ch.Enabled {
			continue
		}
		ch.Samples = sc.buf[i]
		ch.Stats = sc.stats[i]
	}
	set.NumSamples = SampleCount
	return nil
}

// interleave merges the two ADC halves into dst, ADC1 at even and ADC2
// at odd indices, applying the inter-ADC compensation.
func interleave(dst *[SampleCount]byte, adc *[hw.NumADCs][hw.HalfSamples]byte, comp1, comp2 int16) {
	for i := 0; i < hw.HalfSamples; i++ {
		dst[2*i+0] = clampCode(int(adc[0][i]) + int(comp1))
		dst[2*i+1] = clampCode(int(adc[1][i]) + int(comp2))
	}
}

// locate refines the trigger index on the trigger channel.
func (sc *Scope) locate() {
	var (
		trg = &sc.set.Trigger
		ch  = &sc.set.Channels[trg.Channel]
	)
	sc.trig.idx, sc.trig.found = 0, false
	if !ch.Enabled {
		return
	}
	sc.trig.idx, sc.trig.found = Locate(ch.Samples[:], trg.Level, trg.Edge, SampleCount/2)
}

// sleep waits for d on the scope clock.
func (sc *Scope) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-sc.cfg.clock.After(d):
		return nil
	}
}
