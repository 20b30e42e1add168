// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adc

import (
	"fmt"
	"math"
	"net"

	"github.com/go-lpc/adda/instr"
)

// Instruction is a command frame sent to the ADC board.
//
// Parameterized instructions are 4 bytes long: a 16-bit opcode followed
// by two parameter bytes. Mode and control instructions are 8 bytes long:
// a 16-bit opcode followed by a data byte repeated 6 times.
// The MAC address instruction carries the 6 address bytes.
type Instruction []byte

// Opcodes of the ADC instructions.
const (
	OpForceTrigger uint16 = 0x0001
	OpEnable       uint16 = 0x0003
	OpMACAddr      uint16 = 0x0011
	OpSampleDepth  uint16 = 0x0012
	OpTrigCount    uint16 = 0x0013
	OpWindowWidth  uint16 = 0x0014
	OpWindowStart  uint16 = 0x0015
	OpDemodFreq    uint16 = 0x0016
	OpGain         uint16 = 0x0017
	OpMode         uint16 = 0x0101
)

const (
	modeDemod   byte = 0x22
	modeWave    byte = 0x11
	ctrlPattern byte = 0xee

	maxParam        = 0xffff
	maxSampleDepth  = 20000 // board memory per channel and trigger
	demodFreqPeriod = 65536 // DDS phase steps per sample clock period
)

// Fixed instructions.
var (
	DemodMode    = fixed(OpMode, modeDemod)
	WaveMode     = fixed(OpMode, modeWave)
	ForceTrigger = fixed(OpForceTrigger, ctrlPattern)
	EnableADC    = fixed(OpEnable, ctrlPattern)
)

func fixed(op uint16, v byte) Instruction {
	return Instruction{byte(op >> 8), byte(op), v, v, v, v, v, v}
}

func param(op, v uint16) Instruction {
	return Instruction{byte(op >> 8), byte(op), byte(v >> 8), byte(v)}
}

// Op returns the opcode of the instruction.
func (inst Instruction) Op() uint16 {
	if len(inst) < 2 {
		return 0
	}
	return uint16(inst[0])<<8 | uint16(inst[1])
}

func (inst Instruction) String() string {
	if len(inst) < 2 {
		return fmt.Sprintf("Instruction{% x}", []byte(inst))
	}
	return fmt.Sprintf("Instruction{op=0x%04x, data=% x}", inst.Op(), []byte(inst[2:]))
}

// SetMACAddr returns the instruction registering mac as the address the
// board sends its data to.
func SetMACAddr(mac net.HardwareAddr) (Instruction, error) {
	if len(mac) != 6 {
		return nil, instr.Configf("mac-addr", "invalid MAC address %q", mac)
	}
	inst := make(Instruction, 2, 8)
	inst[0] = byte(OpMACAddr >> 8)
	inst[1] = byte(OpMACAddr)
	return append(inst, mac...), nil
}

// SetSampleDepth returns the instruction setting the number of samples
// acquired per trigger, at most 20000.
func SetSampleDepth(n int) (Instruction, error) {
	if n < 1 || n > maxSampleDepth {
		return nil, instr.Configf("sample-depth", "sample depth %d not in [1, %d]", n, maxSampleDepth)
	}
	return param(OpSampleDepth, uint16(n)), nil
}

// SetTrigCount returns the instruction setting the number of triggers
// of an acquisition.
func SetTrigCount(n int) (Instruction, error) {
	if n < 1 || n > maxParam {
		return nil, instr.Configf("trig-count", "trigger count %d not in [1, %d]", n, maxParam)
	}
	return param(OpTrigCount, uint16(n)), nil
}

// SetWindowWidth returns the instruction setting the width, in samples,
// of the demodulation window.
func SetWindowWidth(n int) (Instruction, error) {
	if n < 0 || n > maxParam {
		return nil, instr.Configf("window-width", "window width %d not in [0, %d]", n, maxParam)
	}
	return param(OpWindowWidth, uint16(n)), nil
}

// SetWindowStart returns the instruction setting the start, in samples,
// of the demodulation window.
func SetWindowStart(n int) (Instruction, error) {
	if n < 0 || n > maxParam {
		return nil, instr.Configf("window-start", "window start %d not in [0, %d]", n, maxParam)
	}
	return param(OpWindowStart, uint16(n)), nil
}

// SetDemodFreq returns the instruction setting the demodulation
// frequency, in Hz.
// The frequency is sent as the DDS step round(f/SampleRate*65536).
func SetDemodFreq(f float64) (Instruction, error) {
	step := demodStep(f)
	if math.IsNaN(step) || step < 0 || step > maxParam {
		return nil, instr.Configf("demod-freq", "demodulation frequency %g Hz not in [0, %g) Hz", f, SampleRate)
	}
	return param(OpDemodFreq, uint16(step)), nil
}

func demodStep(f float64) float64 {
	return math.Round(f / SampleRate * demodFreqPeriod)
}

// SetGain returns the instruction setting the gains of the I and Q
// channels.
func SetGain(gI, gQ uint8) Instruction {
	return Instruction{byte(OpGain >> 8), byte(OpGain), gI, gQ}
}

// SetMode returns the instruction selecting the demodulation mode (demod
// is true) or the raw wave mode.
func SetMode(demod bool) Instruction {
	if demod {
		return DemodMode
	}
	return WaveMode
}
