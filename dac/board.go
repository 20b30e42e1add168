// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dac

import (
	"fmt"
	"math"

	"github.com/go-lpc/adda/instr"
)

const (
	maxWaveLen = 1 << (chanWindow - 1) // samples per channel window
	maxSeqLen  = 1 << (chanWindow - 3) // descriptors per channel window
)

// WriteWave writes samples to the wave memory of channel ch,
// starting at sample offset off.
func (dev *Device) WriteWave(ch int, off uint32, samples []int32) error {
	const op = "write-wave"
	if err := checkChannel(op, ch); err != nil {
		return err
	}
	words := EncodeWave(samples)
	if uint64(off)+uint64(len(words)) > maxWaveLen {
		return instr.Configf(op, "wave [%d, %d) exceeds channel window of %d samples", off, int(off)+len(words), maxWaveLen)
	}

	err := dev.WriteMemory(MemInst, WaveAddress(ch, off), words)
	if err != nil {
		return fmt.Errorf("dac: could not write wave to channel %d: %w", ch, err)
	}
	return nil
}

// WriteSeq writes sequence descriptors to the sequence memory of
// channel ch, starting at descriptor offset off.
func (dev *Device) WriteSeq(ch int, off uint32, seq []uint64) error {
	const op = "write-seq"
	if err := checkChannel(op, ch); err != nil {
		return err
	}
	if uint64(off)+uint64(len(seq)) > maxSeqLen {
		return instr.Configf(op, "sequence [%d, %d) exceeds channel window of %d descriptors", off, int(off)+len(seq), maxSeqLen)
	}

	err := dev.WriteMemory(MemInst, SeqAddress(ch, off), EncodeSequence(seq))
	if err != nil {
		return fmt.Errorf("dac: could not write sequence to channel %d: %w", ch, err)
	}
	return nil
}

// ReadWave reads back n samples from the wave memory of channel ch,
// starting at sample offset off.
func (dev *Device) ReadWave(ch int, off uint32, n int) ([]int32, error) {
	const op = "read-wave"
	if err := checkChannel(op, ch); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, instr.Configf(op, "negative wave length %d", n)
	}
	size := len(EncodeWave(make([]int32, n)))
	if uint64(off)+uint64(size) > maxWaveLen {
		return nil, instr.Configf(op, "wave [%d, %d) exceeds channel window of %d samples", off, int(off)+n, maxWaveLen)
	}

	buf, err := dev.readMemory(op, WaveAddress(ch, off), uint32(2*size))
	if err != nil {
		return nil, fmt.Errorf("dac: could not read wave from channel %d: %w", ch, err)
	}
	return DecodeWave(wireWords(buf), n), nil
}

// ReadSeq reads back n sequence descriptors from the sequence memory of
// channel ch, starting at descriptor offset off.
func (dev *Device) ReadSeq(ch int, off uint32, n int) ([]uint64, error) {
	const op = "read-seq"
	if err := checkChannel(op, ch); err != nil {
		return nil, err
	}
	if n < 0 || uint64(off)+uint64(n) > maxSeqLen {
		return nil, instr.Configf(op, "sequence [%d, %d) exceeds channel window of %d descriptors", off, int(off)+n, maxSeqLen)
	}

	buf, err := dev.readMemory(op, SeqAddress(ch, off), uint32(8*n))
	if err != nil {
		return nil, fmt.Errorf("dac: could not read sequence from channel %d: %w", ch, err)
	}
	return DecodeSequence(wireWords(buf))
}

func (dev *Device) readMemory(op string, start, n uint32) ([]byte, error) {
	err := dev.ReadMemory(MemInst, start, n)
	if err != nil {
		return nil, err
	}
	res, err := dev.Return(1)
	if err != nil {
		return nil, err
	}
	if len(res.Payload) != int(n) {
		return nil, fmt.Errorf("dac: %s: got %d bytes, want %d", op, len(res.Payload), n)
	}
	return res.Payload, nil
}

// command issues a board control instruction, subject to the session policy.
func (dev *Device) command(code, p1, p2 uint32) error {
	return dev.control(dev.WriteInstruction(code, p1, p2))
}

// query issues an instruction and returns the scalar result of the board.
func (dev *Device) query(code, p1, p2 uint32) (uint32, error) {
	err := dev.WriteInstruction(code, p1, p2)
	if err != nil {
		return 0, err
	}
	res, err := dev.Return(1)
	if err != nil {
		return 0, err
	}
	return res.Data, nil
}

func (dev *Device) regCmd(bank, op uint32) uint32 {
	if dev.cfg.legacy {
		return bank << (8 + op)
	}
	return bank<<8 | op
}

// WriteReg writes v to the register addr of the given bank.
func (dev *Device) WriteReg(bank, addr, v uint32) error {
	return dev.command(dev.regCmd(bank, 2), addr, v)
}

// ReadReg reads the register addr of the given bank.
func (dev *Device) ReadReg(bank, addr uint32) (uint32, error) {
	return dev.query(dev.regCmd(bank, 1), addr, 0)
}

// ReadAD9136 reads the register addr of the AD9136 chip (1 or 2).
func (dev *Device) ReadAD9136(chip int, addr uint32) (uint32, error) {
	if err := checkChip("ad9136 chip", chip); err != nil {
		return 0, err
	}
	code := ReadAD9136C1Inst
	if chip == 2 {
		code = ReadAD9136C2Inst
	}
	return dev.query(code, addr, 0)
}

// ChipTemperature returns the die temperature, in Celsius, of the
// AD9136 chip (1 or 2).
func (dev *Device) ChipTemperature(chip int) (float64, error) {
	if err := checkChip("temperature chip", chip); err != nil {
		return 0, err
	}
	lo, err := dev.ReadAD9136(chip, regTempLo)
	if err != nil {
		return 0, fmt.Errorf("dac: could not read chip %d temperature: %w", chip, err)
	}
	hi, err := dev.ReadAD9136(chip, regTempHi)
	if err != nil {
		return 0, fmt.Errorf("dac: could not read chip %d temperature: %w", chip, err)
	}
	return chipTemperature(lo&0xff, hi&0xff), nil
}

func chipTemperature(lo, hi uint32) float64 {
	return 30 + 7.3*float64(int(hi<<8)+int(lo)-39200)/1000.0
}

// InitBoard initializes the DAC chips.
func (dev *Device) InitBoard() error {
	return dev.command(InitBoardInst, cmdInitBoard, 1<<16)
}

// PowerOnDAC powers the AD9136 chip (1 or 2) on or off.
func (dev *Device) PowerOnDAC(chip int, on bool) error {
	if err := checkChip("power chip", chip); err != nil {
		return err
	}
	return dev.command(PowerOnDACInst, uint32(chip), b2u(on))
}

// StartStop starts or stops channel outputs.
// Bits 0-3 start channels 1-4, bits 4-7 stop them.
func (dev *Device) StartStop(mask uint32) error {
	return dev.command(StartStopInst, mask, 0)
}

// SetLoop sets the loop counts of the 4 channels.
func (dev *Device) SetLoop(c1, c2, c3, c4 uint16) error {
	var p1, p2 uint32
	switch {
	case dev.cfg.legacy:
		p1 = uint32(sext16(c1)<<8) & uint32(sext16(c2))
		p2 = uint32(sext16(c3)<<8) & uint32(sext16(c4))
	default:
		p1 = uint32(c1)<<16 | uint32(c2)
		p2 = uint32(c3)<<16 | uint32(c4)
	}
	return dev.command(SetLoopInst, p1, p2)
}

// SetTotalCount sets the total count of the synchronization system.
func (dev *Device) SetTotalCount(n uint32) error {
	return dev.command(SendCmdInst, cmdTotalCount, n<<16)
}

// SetDACStart sets the DAC start count of the synchronization system.
func (dev *Device) SetDACStart(n uint32) error {
	return dev.command(SendCmdInst, cmdDACStart, n<<16)
}

// SetDACStop sets the DAC stop count of the synchronization system.
func (dev *Device) SetDACStop(n uint32) error {
	return dev.command(SendCmdInst, cmdDACStop, n<<16)
}

// SetTrigStart sets the trigger start count of the synchronization system.
func (dev *Device) SetTrigStart(n uint32) error {
	return dev.command(SendCmdInst, cmdTrigStart, n<<16)
}

// SetTrigStop sets the trigger stop count of the synchronization system.
func (dev *Device) SetTrigStop(n uint32) error {
	return dev.command(SendCmdInst, cmdTrigStop, n<<16)
}

// SetIsMaster selects whether the board is the master board.
func (dev *Device) SetIsMaster(v bool) error {
	return dev.command(SendCmdInst, cmdIsMaster, b2u(v)<<16)
}

// SetTrigSel selects the internal trigger source (3: SMA, 0: UTP).
func (dev *Device) SetTrigSel(src uint32) error {
	return dev.command(SendCmdInst, cmdTrigSel, src<<16)
}

// SetTrigInterval sets the trigger interval, in periods of 4ns.
func (dev *Device) SetTrigInterval(n uint32) error {
	return dev.command(SendCmdInst, cmdTrigInt, n<<12)
}

// SetTrigCount sets the number of output triggers.
func (dev *Device) SetTrigCount(n uint32) error {
	return dev.command(SendCmdInst, cmdTrigCount, n<<12)
}

// ClearTrigCount clears the internal trigger counter.
func (dev *Device) ClearTrigCount() error {
	return dev.command(ClearTrigInst, 0, 0)
}

// SetDefaultVolt sets the default output voltage code of channel ch.
func (dev *Device) SetDefaultVolt(ch int, code uint16) error {
	if err := checkChannel("default volt channel", ch); err != nil {
		return err
	}
	return dev.command(SetDefVoltInst, uint32(ch-1), uint32(sext16(code)))
}

// SetBroadcast enables or disables broadcasting, with the given period
// in seconds.
// The period count, in units of 0.2s, is sent as a signed byte.
func (dev *Device) SetBroadcast(on bool, period float64) error {
	n := int8(satInt32(period * 5))
	return dev.command(SetBroadcastInst, b2u(on), uint32(int32(n)))
}

// ConfigEEPROM configures the board EEPROM.
func (dev *Device) ConfigEEPROM() error {
	return dev.command(ConfigEEPROMInst, 0, 0)
}

func b2u(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

// sext16 sign-extends a 16-bit parameter, as the board firmware expects
// for its short parameters.
func sext16(v uint16) int32 { return int32(int16(v)) }

// satInt32 converts f to an int32, saturating out of range values.
// NaN converts to 0.
func satInt32(f float64) int32 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	default:
		return int32(f)
	}
}
