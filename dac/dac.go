// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dac implements the control protocol of the USTC waveform
// generator (DAC) board.
//
// A DAC board keeps a stack of the functions (instructions and memory
// transfers) it was asked to run. Functions are issued with
// WriteInstruction, WriteMemory or ReadMemory and their results are
// pulled back with Return, by offset from the top of that stack
// (1 is the most recently issued function).
//
// The function stack lives on the instrument: a Device does not cache
// anything and offsets are only meaningful when a single writer drives
// the board. A Device must not be used concurrently without external
// serialization.
package dac // import "github.com/go-lpc/adda/dac"

import (
	"fmt"
	"time"
)

const (
	NumChannels = 4            // number of output channels
	NumChips    = 2            // number of AD9136 chips
	SampleRate  = 2e9          // samples per second
	DefaultPort = 80           // default TCP port of a DAC board
	chanWindow  = 18           // log2 of the size of a channel memory sub-window
	padWord     = 32768 & 0xff // wave padding word, 0x00
	waveAlign   = 8            // wave length alignment, in samples
)

// Instruction codes understood by the DAC firmware.
const (
	MemInst          uint32 = 0x00000004
	StartStopInst    uint32 = 0x00000405
	SetLoopInst      uint32 = 0x00000905
	SetBroadcastInst uint32 = 0x00001305
	SendCmdInst      uint32 = 0x00001805
	InitBoardInst    uint32 = 0x00001A05
	SetDefVoltInst   uint32 = 0x00001B05
	ReadAD9136C1Inst uint32 = 0x00001C05
	ReadAD9136C2Inst uint32 = 0x00001D05
	PowerOnDACInst   uint32 = 0x00001E05
	ClearTrigInst    uint32 = 0x00001F05
	ConfigEEPROMInst uint32 = 0x00002005
)

// Sub-commands of SendCmdInst (and InitBoardInst).
const (
	cmdTotalCount  uint32 = 1
	cmdDACStart    uint32 = 2
	cmdDACStop     uint32 = 3
	cmdTrigStart   uint32 = 4
	cmdTrigStop    uint32 = 5
	cmdIsMaster    uint32 = 6
	cmdTrigSel     uint32 = 7
	cmdSendIntTrig uint32 = 8
	cmdTrigInt     uint32 = 9
	cmdTrigCount   uint32 = 10
	cmdInitBoard   uint32 = 11
)

// AD9136 registers holding the die temperature.
const (
	regTempLo = 0x132
	regTempHi = 0x133
)

// FuncType is the category of a function issued to the board.
type FuncType uint32

const (
	FuncInstruction FuncType = 1 // plain instruction, scalar result only
	FuncWriteMemory FuncType = 2 // memory write
	FuncReadMemory  FuncType = 3 // memory read, result carries a payload
)

func (ft FuncType) String() string {
	switch ft {
	case FuncInstruction:
		return "instruction"
	case FuncWriteMemory:
		return "write-memory"
	case FuncReadMemory:
		return "read-memory"
	default:
		return fmt.Sprintf("FuncType(%d)", uint32(ft))
	}
}

// Command describes a function held in the board function stack.
// For memory functions, Para1 is the start address and Para2 the length
// of the transfer in bytes.
type Command struct {
	Func  FuncType
	Code  uint32
	Para1 uint32
	Para2 uint32
}

// Result is the answer of the board for a Command.
type Result struct {
	State   int32  // completion state
	Data    uint32 // scalar result (register value, ...)
	Payload []byte // memory read payload, FuncReadMemory only
}

// Direction selects the transport timeout to configure.
type Direction int

const (
	Recv Direction = 0
	Send Direction = 1
)

func (dir Direction) String() string {
	switch dir {
	case Recv:
		return "recv"
	case Send:
		return "send"
	default:
		return fmt.Sprintf("Direction(%d)", int(dir))
	}
}

// millis converts a duration to the millisecond resolution of the board.
func millis(d time.Duration) uint32 {
	if d < 0 {
		return 0
	}
	return uint32(d / time.Millisecond)
}
