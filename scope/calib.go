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
	calHighOffset = 500  // DC offset injected for the high reading
	calLowOffset  = 1200 // DC offset injected for the low reading
	calSpan       = calLowOffset - calHighOffset

	calSamples = 100 // samples averaged per reading

	calSettle       = 25 * time.Millisecond
	calVerifySettle = 50 * time.Millisecond

	calTolLow  = 125 // verified ADC1 average must lie in [calTolLow, calTolHigh]
	calTolHigh = 131
	calCompMax = 20 // maximum inter-ADC compensation, in codes
)

// calWorkingSet holds the intermediate results of the calibration of
// one channel. It is copied into the channel only when the whole
// calibration succeeds.
type calWorkingSet struct {
	avg  [len(calSweep)][hw.NumHWRanges]int // recentered offset, per sweep pair and range
	step [len(calSweep)][hw.NumHWRanges]int // offset steps per code, Q20

	cal Calibration
}

// Calibrate runs the two-point DC calibration of both channels.
//
// Calibrate reports whether both channels were calibrated within
// tolerance. Calibration tables are only updated on success.
// A reading that does not respond to the DC offset is reported as an
// ErrCalibrationFault error. Hardware registers are restored from the
// settings in all cases.
func (sc *Scope) Calibrate(ctx context.Context) (ok bool, err error) {
	err = sc.enter(calibrating)
	if err != nil {
		return false, err
	}
	defer sc.leave()

	defer func() {
		e := sc.Configure()
		if e != nil && err == nil {
			ok = false
			err = fmt.Errorf("scope: could not restore settings after calibration: %w", e)
		}
	}()

	err = sc.dev.SetSampleMode(hw.FreeRun)
	if err != nil {
		return false, fmt.Errorf("scope: could not disable trigger circuit: %w", err)
	}

	var res [hw.NumChannels]Calibration
	ok = true
	for i := range res {
		var ws calWorkingSet
		good, err := sc.calibrateChannel(ctx, i, &ws)
		if err != nil {
			sc.msg.Warn().Err(err).Int("channel", i+1).Msg("calibration aborted")
			return false, err
		}
		if !good {
			sc.msg.Warn().Int("channel", i+1).Msg("calibration out of tolerance")
		}
		ok = ok && good
		res[i] = ws.cal
	}

	if !ok {
		return false, nil
	}
	for i := range res {
		sc.set.Channels[i].Cal = res[i]
	}
	return true, nil
}

func (sc *Scope) calibrateChannel(ctx context.Context, ch int, ws *calWorkingSet) (bool, error) {
	err := sc.dev.SetChannelEnable(ch, true)
	if err != nil {
		return false, fmt.Errorf("scope: could not enable channel %d: %w", ch+1, err)
	}
	err = sc.dev.SetChannelCoupling(ch, hw.DC)
	if err != nil {
		return false, fmt.Errorf("scope: could not set channel %d coupling: %w", ch+1, err)
	}

	// two-point sweep.
	for r := 0; r < hw.NumHWRanges; r++ {
		err = sc.dev.SetChannelVoltPerDiv(ch, uint8(r))
		if err != nil {
			return false, fmt.Errorf("scope: could not set channel %d volt/div: %w", ch+1, err)
		}
		for i, tdiv := range calSweep {
			err = sc.setCalTimeBase(tdiv)
			if err != nil {
				return false, err
			}
			hi, _, err := sc.dcReading(ctx, ch, calHighOffset, calSettle)
			if err != nil {
				return false, err
			}
			lo, _, err := sc.dcReading(ctx, ch, calLowOffset, calSettle)
			if err != nil {
				return false, err
			}
			if hi == lo {
				return false, fmt.Errorf(
					"%w: channel %d range %d does not respond to DC offset (avg=%d)",
					ErrCalibrationFault, ch+1, r, hi,
				)
			}
			step := (calSpan << 20) / (hi - lo)
			h := calHighOffset + (((hi - midCode) * step) >> 20)
			l := calLowOffset - (((midCode - lo) * step) >> 20)
			ws.avg[i][r] = (h + l) / 2
			ws.step[i][r] = step
			sc.msg.Debug().
				Int("channel", ch+1).Int("range", r).Int("pair", i).
				Int("high", hi).Int("low", lo).Int("offset", ws.avg[i][r]).
				Msg("calibration sweep")
		}
	}

	var offsets [hw.NumHWRanges]int
	for r := range offsets {
		offsets[r] = (ws.avg[0][r] + ws.avg[1][r]) / 2
	}

	// verification.
	err = sc.setCalTimeBase(calVerify)
	if err != nil {
		return false, err
	}
	ok := true
	comp := 0
	for r := range offsets {
		err = sc.dev.SetChannelVoltPerDiv(ch, uint8(r))
		if err != nil {
			return false, fmt.Errorf("scope: could not set channel %d volt/div: %w", ch+1, err)
		}
		a1, a2, err := sc.dcReading(ctx, ch, offsetReg(offsets[r]), calVerifySettle)
		if err != nil {
			return false, err
		}
		if a1 < calTolLow || a1 > calTolHigh {
			sc.msg.Warn().Int("channel", ch+1).Int("range", r).Int("avg", a1).
				Msg("calibration verification out of tolerance")
			ok = false
		}
		comp += a2 - a1
	}
	comp /= hw.NumHWRanges

	var (
		adc1 = comp / 2
		adc2 = -(comp - adc1)
	)
	if comp < -calCompMax || comp > calCompMax {
		sc.msg.Warn().Int("channel", ch+1).Int("compensation", comp).
			Msg("inter-ADC compensation out of range")
		ok = false
	}

	for r, off := range offsets {
		avgStep := (ws.step[0][r] + ws.step[1][r]) / 2
		ws.cal.DCOffset[r] = offsetReg(off + ((adc1 * avgStep) >> 20))
	}
	ws.cal.DCOffset[hw.NumVoltPerDiv-1] = ws.cal.DCOffset[hw.NumHWRanges-1]
	ws.cal.ADC1Comp = int16(adc1)
	ws.cal.ADC2Comp = int16(adc2)

	return ok, nil
}

func (sc *Scope) setCalTimeBase(tdiv uint8) error {
	err := sc.dev.SetSampleRate(SampleRateFor(tdiv))
	if err != nil {
		return fmt.Errorf("scope: could not set sample rate: %w", err)
	}
	err = sc.dev.SetTimeBase(tdiv)
	if err != nil {
		return fmt.Errorf("scope: could not set time base: %w", err)
	}
	return nil
}

// dcReading programs a DC offset, waits for the front end to settle and
// returns the average code of both ADCs over calSamples samples.
func (sc *Scope) dcReading(ctx context.Context, ch int, offset uint16, settle time.Duration) (a1, a2 int, err error) {
	err = sc.dev.SetChannelOffset(ch, offset)
	if err != nil {
		return 0, 0, fmt.Errorf("scope: could not set channel %d offset: %w", ch+1, err)
	}
	err = sc.sleep(ctx, settle)
	if err != nil {
		return 0, 0, err
	}
	_, err = sc.convert(ctx, false)
	if err != nil {
		return 0, 0, err
	}
	raw, err := sc.dev.ReadTriggerPoint()
	if err != nil {
		return 0, 0, fmt.Errorf("scope: could not read trigger point: %w", err)
	}
	off := captureOffset(raw)

	var sum [hw.NumADCs]int
	for adc := range sum {
		dst := sc.adc[adc][:calSamples]
		err = sc.dev.ReadADC(ch, hw.ADC(adc), off, dst)
		if err != nil {
			return 0, 0, fmt.Errorf("scope: could not read channel %d ADC%d: %w", ch+1, adc+1, err)
		}
		for _, v := range dst {
			sum[adc] += int(v)
		}
	}
	return sum[0] / calSamples, sum[1] / calSamples, nil
}

func offsetReg(v int) uint16 {
	return uint16(clamp(v, 0, 0xffff))
}
