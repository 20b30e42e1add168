// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package adc implements the control protocol of the USTC waveform
// digitizer (ADC) board.
//
// An ADC board is reached with raw Ethernet frames, addressed by the MAC
// address of the controlling PC (src) and of the board (dst).
// Configuration and control commands are short instruction frames
// (see Instruction); acquired data is received either as raw I/Q samples
// or, in demodulation mode, as integrated I/Q values.
//
// A Device must not be used concurrently without external serialization.
package adc // import "github.com/go-lpc/adda/adc"

const (
	NumChannels = 2      // I and Q
	SampleRate  = 1e9    // samples per second
	EtherType   = 0xAAAA // ether type of the frames exchanged with the board
)
