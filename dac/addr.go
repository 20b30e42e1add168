// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dac

import (
	"github.com/go-lpc/adda/instr"
)

// Each channel owns two 1<<18 sub-windows of the DAC memory:
// the even one holds wave samples (2 bytes each), the odd one
// sequence descriptors (8 bytes each).

// WaveAddress returns the memory address of the wave sample at offset
// for channel ch.
func WaveAddress(ch int, off uint32) uint32 {
	return uint32(ch*2-2)<<chanWindow + off<<1
}

// SeqAddress returns the memory address of the sequence descriptor at
// offset for channel ch.
func SeqAddress(ch int, off uint32) uint32 {
	return uint32(ch*2-1)<<chanWindow + off<<3
}

func checkChannel(op string, ch int) error {
	if ch < 1 || ch > NumChannels {
		return instr.Configf(op, "channel %d not in [1, %d]", ch, NumChannels)
	}
	return nil
}

func checkChip(op string, chip int) error {
	if chip < 1 || chip > NumChips {
		return instr.Configf(op, "chip %d not in [1, %d]", chip, NumChips)
	}
	return nil
}
