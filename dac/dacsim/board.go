// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dacsim emulates a DAC board and serves it over the DAC TCP
// control protocol.
package dacsim // import "github.com/go-lpc/adda/dac/dacsim"

import (
	"math"
	"sync"
	"time"

	"github.com/go-lpc/adda/dac"
	"github.com/go-lpc/adda/instr"
)

const (
	memSize = 2 * dac.NumChannels << 18 // bytes

	regTempLo = 0x132
	regTempHi = 0x133
)

const (
	stateDone   int32 = 1
	stateFailed int32 = -1
)

type entry struct {
	cmd dac.Command
	res dac.Result
}

// Board is an emulated DAC board.
//
// Functions are executed in order on arrival. A Board is safe for
// concurrent use.
type Board struct {
	mu sync.Mutex

	stack []entry // issued functions, most recent last
	mem   []byte
	chips [dac.NumChips]map[uint32]uint8 // AD9136 register files
	regs  map[uint32]uint32              // board registers, by bank<<16|addr

	cmds    map[uint32]uint32 // last values of synchronization sub-commands
	running uint8             // running channels mask
	loops   [dac.NumChannels]uint16
	volts   [dac.NumChannels]uint16
	master  bool
	bcast   struct {
		on     bool
		period uint8
	}
	powered [dac.NumChips]bool

	latency time.Duration // execution time of a function
	busy    time.Time     // end of the current execution
}

// NewBoard returns an emulated board at rest, with both AD9136 chips
// at 30 Celsius.
func NewBoard() *Board {
	brd := &Board{
		mem:  make([]byte, memSize),
		regs: make(map[uint32]uint32),
		cmds: make(map[uint32]uint32),
	}
	for i := range brd.chips {
		brd.chips[i] = make(map[uint32]uint8)
		brd.setTemperature(i, 30)
	}
	return brd
}

// SetLatency sets the time the board needs to execute a function.
func (brd *Board) SetLatency(d time.Duration) {
	brd.mu.Lock()
	defer brd.mu.Unlock()
	brd.latency = d
}

// SetTemperature sets the die temperature, in Celsius, of the AD9136
// chip (1 or 2).
func (brd *Board) SetTemperature(chip int, celsius float64) error {
	if chip < 1 || chip > dac.NumChips {
		return instr.Configf("chip", "chip %d not in [1, %d]", chip, dac.NumChips)
	}
	brd.mu.Lock()
	defer brd.mu.Unlock()
	brd.setTemperature(chip-1, celsius)
	return nil
}

func (brd *Board) setTemperature(i int, celsius float64) {
	code := uint16(math.Round((celsius-30)*1000/7.3 + 39200))
	brd.chips[i][regTempLo] = uint8(code)
	brd.chips[i][regTempHi] = uint8(code >> 8)
}

// State is a snapshot of the output configuration of a board.
type State struct {
	Running   uint8 // running channels mask
	Loops     [dac.NumChannels]uint16
	Volts     [dac.NumChannels]uint16 // default voltage codes
	Master    bool
	Broadcast bool
	Period    uint8 // broadcast period, in units of 0.2s
	Powered   [dac.NumChips]bool
}

// State returns the output configuration of the board.
func (brd *Board) State() State {
	brd.mu.Lock()
	defer brd.mu.Unlock()
	return State{
		Running:   brd.running,
		Loops:     brd.loops,
		Volts:     brd.volts,
		Master:    brd.master,
		Broadcast: brd.bcast.on,
		Period:    brd.bcast.period,
		Powered:   brd.powered,
	}
}

// Command returns the last value of a synchronization sub-command.
func (brd *Board) Command(sub uint32) uint32 {
	brd.mu.Lock()
	defer brd.mu.Unlock()
	return brd.cmds[sub]
}

// Register returns the value of a board register.
func (brd *Board) Register(bank, addr uint32) uint32 {
	brd.mu.Lock()
	defer brd.mu.Unlock()
	return brd.regs[bank<<16|addr]
}

// Memory returns a copy of n bytes of the board memory at start.
func (brd *Board) Memory(start, n uint32) ([]byte, error) {
	brd.mu.Lock()
	defer brd.mu.Unlock()
	if !inMem(start, n) {
		return nil, dac.StatusBadAddress
	}
	return append([]byte(nil), brd.mem[start:start+n]...), nil
}

func inMem(start, n uint32) bool {
	return uint64(start)+uint64(n) <= memSize
}

func (brd *Board) push(cmd dac.Command, res dac.Result) {
	brd.stack = append(brd.stack, entry{cmd: cmd, res: res})
	now := time.Now()
	if brd.busy.Before(now) {
		brd.busy = now
	}
	brd.busy = brd.busy.Add(brd.latency)
}

// WriteInstruction executes an instruction.
// Unknown instructions are accepted and marked as failed.
func (brd *Board) WriteInstruction(code, p1, p2 uint32) error {
	brd.mu.Lock()
	defer brd.mu.Unlock()

	cmd := dac.Command{Func: dac.FuncInstruction, Code: code, Para1: p1, Para2: p2}
	res := dac.Result{State: stateDone}
	switch code {
	case dac.StartStopInst:
		brd.running |= uint8(p1) & 0x0f
		brd.running &^= uint8(p1>>4) & 0x0f
	case dac.SetLoopInst:
		brd.loops = [dac.NumChannels]uint16{
			uint16(p1 >> 16), uint16(p1),
			uint16(p2 >> 16), uint16(p2),
		}
	case dac.SetBroadcastInst:
		brd.bcast.on = p1 == 1
		brd.bcast.period = uint8(p2)
	case dac.SendCmdInst:
		brd.cmds[p1] = p2
		if p1 == 6 {
			brd.master = p2 != 0
		}
	case dac.InitBoardInst:
		brd.cmds[p1] = p2
		brd.running = 0
		brd.powered = [dac.NumChips]bool{true, true}
	case dac.SetDefVoltInst:
		if p1 >= dac.NumChannels {
			res.State = stateFailed
			break
		}
		brd.volts[p1] = uint16(p2)
	case dac.ReadAD9136C1Inst:
		res.Data = uint32(brd.chips[0][p1])
	case dac.ReadAD9136C2Inst:
		res.Data = uint32(brd.chips[1][p1])
	case dac.PowerOnDACInst:
		if p1 < 1 || p1 > dac.NumChips {
			res.State = stateFailed
			break
		}
		brd.powered[p1-1] = p2 != 0
	case dac.ClearTrigInst:
		delete(brd.cmds, 10)
	case dac.ConfigEEPROMInst:
		// no-op.
	default:
		bank := code >> 8
		switch code & 0xff {
		case 1:
			res.Data = brd.regs[bank<<16|p1]
		case 2:
			brd.regs[bank<<16|p1] = p2
		default:
			res.State = stateFailed
		}
	}
	brd.push(cmd, res)
	return nil
}

// WriteMemory writes data to the board memory at start.
func (brd *Board) WriteMemory(code, start uint32, data []byte) error {
	brd.mu.Lock()
	defer brd.mu.Unlock()

	n := uint32(len(data))
	if !inMem(start, n) {
		return dac.StatusBadAddress
	}
	copy(brd.mem[start:], data)
	brd.push(
		dac.Command{Func: dac.FuncWriteMemory, Code: code, Para1: start, Para2: n},
		dac.Result{State: stateDone, Data: n},
	)
	return nil
}

// ReadMemory reads n bytes of the board memory at start.
// The data is returned as the payload of the function result.
func (brd *Board) ReadMemory(code, start, n uint32) error {
	brd.mu.Lock()
	defer brd.mu.Unlock()

	if !inMem(start, n) {
		return dac.StatusBadAddress
	}
	brd.push(
		dac.Command{Func: dac.FuncReadMemory, Code: code, Para1: start, Para2: n},
		dac.Result{
			State:   stateDone,
			Data:    n,
			Payload: append([]byte(nil), brd.mem[start:start+n]...),
		},
	)
	return nil
}

func (brd *Board) at(offset int) (entry, error) {
	i := len(brd.stack) - offset
	if offset < 1 || i < 0 {
		return entry{}, dac.StatusBadOffset
	}
	return brd.stack[i], nil
}

// Instruction returns the function at offset from the top of the stack.
func (brd *Board) Instruction(offset int) (dac.Command, error) {
	brd.mu.Lock()
	defer brd.mu.Unlock()

	e, err := brd.at(offset)
	if err != nil {
		return dac.Command{}, err
	}
	return e.cmd, nil
}

// Return returns the result of the function at offset from the top of
// the stack, with n bytes of payload.
// n can not exceed the board memory size.
func (brd *Board) Return(offset int, n int) (dac.Result, error) {
	brd.mu.Lock()
	defer brd.mu.Unlock()

	e, err := brd.at(offset)
	if err != nil {
		return dac.Result{}, err
	}
	if n < 0 || n > memSize {
		return dac.Result{}, dac.StatusBadAddress
	}
	res := e.res
	res.Payload = make([]byte, n)
	copy(res.Payload, e.res.Payload)
	return res, nil
}

// Len returns the number of issued functions.
func (brd *Board) Len() int {
	brd.mu.Lock()
	defer brd.mu.Unlock()
	return len(brd.stack)
}

// CheckFinished returns whether all issued functions were executed.
func (brd *Board) CheckFinished() bool {
	brd.mu.Lock()
	defer brd.mu.Unlock()
	return !time.Now().Before(brd.busy)
}

// WaitUntilFinished waits for all issued functions to be executed,
// for at most timeout.
func (brd *Board) WaitUntilFinished(timeout time.Duration) error {
	brd.mu.Lock()
	left := time.Until(brd.busy)
	brd.mu.Unlock()

	switch {
	case left <= 0:
		return nil
	case left > timeout:
		time.Sleep(timeout)
		return dac.StatusTimeout
	default:
		time.Sleep(left)
		return nil
	}
}

// CheckSucceeded returns whether all issued functions succeeded and,
// if not, the offset from the top of the stack of the most recent
// failed one.
func (brd *Board) CheckSucceeded() (bool, int) {
	brd.mu.Lock()
	defer brd.mu.Unlock()

	for i := len(brd.stack) - 1; i >= 0; i-- {
		if brd.stack[i].res.State == stateFailed {
			return false, len(brd.stack) - i
		}
	}
	return true, 0
}
