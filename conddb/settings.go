// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package conddb

import "time"

// ADCSettings describes the acquisition settings of an ADC board.
type ADCSettings struct {
	Name        string
	SampleDepth int
	TrigCount   int
	WindowStart int
	WindowWidth int
	DemodFreq   float64 // Hz
	Demod       bool
	GainI       uint8
	GainQ       uint8
}

// DACSettings describes the settings of a DAC board.
type DACSettings struct {
	Name         string
	Addr         string
	Blocking     bool
	DefaultVolts [4]uint16 // default voltage code of each channel
}

// Temperature is a chip temperature measurement of a DAC board.
type Temperature struct {
	Board   string
	Chip    int
	Celsius float64
	Time    time.Time
}
