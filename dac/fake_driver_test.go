// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dac

import (
	"time"

	"github.com/go-lpc/adda/instr"
)

// fakeDriver emulates a DAC board and records every driver call.
// It serves as both the Driver and the Conn of a session.
type fakeDriver struct {
	opens  int
	closes int
	calls  []string

	stack []Command         // issued functions, most recent last
	regs  map[uint32]uint32 // AD9136 registers
	mem   map[uint32][]byte // memory writes, by start address
	fail  map[string]instr.Status
	busy  bool // WaitUntilFinished times out
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		regs: make(map[uint32]uint32),
		mem:  make(map[uint32][]byte),
		fail: make(map[string]instr.Status),
	}
}

func (drv *fakeDriver) call(name string) error {
	drv.calls = append(drv.calls, name)
	if st, ok := drv.fail[name]; ok {
		return st
	}
	return nil
}

func (drv *fakeDriver) Open(addr string) (Conn, error) {
	drv.opens++
	if err := drv.call("open"); err != nil {
		return nil, err
	}
	return drv, nil
}

func (drv *fakeDriver) Info() (string, error) { return "fake dac driver", nil }

func (drv *fakeDriver) ErrorMessage(code instr.Status) string { return ErrorMessage(code) }

func (drv *fakeDriver) WriteInstruction(code, p1, p2 uint32) error {
	if err := drv.call("write-instruction"); err != nil {
		return err
	}
	drv.stack = append(drv.stack, Command{Func: FuncInstruction, Code: code, Para1: p1, Para2: p2})
	return nil
}

func (drv *fakeDriver) WriteMemory(code, start uint32, data []byte) error {
	if err := drv.call("write-memory"); err != nil {
		return err
	}
	drv.stack = append(drv.stack, Command{Func: FuncWriteMemory, Code: code, Para1: start, Para2: uint32(len(data))})
	drv.mem[start] = append([]byte(nil), data...)
	return nil
}

func (drv *fakeDriver) ReadMemory(code, start, n uint32) error {
	if err := drv.call("read-memory"); err != nil {
		return err
	}
	drv.stack = append(drv.stack, Command{Func: FuncReadMemory, Code: code, Para1: start, Para2: n})
	return nil
}

func (drv *fakeDriver) at(offset int) (int, error) {
	i := len(drv.stack) - offset
	if offset < 1 || i < 0 {
		return 0, StatusBadOffset
	}
	return i, nil
}

func (drv *fakeDriver) Instruction(offset int) (Command, error) {
	if err := drv.call("function-type"); err != nil {
		return Command{}, err
	}
	i, err := drv.at(offset)
	if err != nil {
		return Command{}, err
	}
	return drv.stack[i], nil
}

func (drv *fakeDriver) Return(offset int, n int) (Result, error) {
	if err := drv.call("get-return"); err != nil {
		return Result{}, err
	}
	i, err := drv.at(offset)
	if err != nil {
		return Result{}, err
	}

	cmd := drv.stack[i]
	res := Result{State: 1, Data: uint32(i + 1)}
	switch cmd.Func {
	case FuncInstruction:
		switch cmd.Code {
		case ReadAD9136C1Inst, ReadAD9136C2Inst:
			res.Data = drv.regs[cmd.Para1]
		}
	case FuncReadMemory:
		res.Payload = make([]byte, n)
		copy(res.Payload, drv.mem[cmd.Para1])
	}
	return res, nil
}

func (drv *fakeDriver) CheckFinished() (bool, error) {
	if err := drv.call("check-finished"); err != nil {
		return false, err
	}
	return !drv.busy, nil
}

func (drv *fakeDriver) WaitUntilFinished(timeout time.Duration) error {
	if err := drv.call("wait-finished"); err != nil {
		return err
	}
	if drv.busy {
		return StatusTimeout
	}
	return nil
}

func (drv *fakeDriver) CheckSucceeded() (bool, int, error) {
	if err := drv.call("check-succeeded"); err != nil {
		return false, 0, err
	}
	return true, 0, nil
}

func (drv *fakeDriver) SetTimeout(dir Direction, d time.Duration) error {
	return drv.call("set-timeout")
}

func (drv *fakeDriver) Close() error {
	drv.closes++
	return drv.call("close")
}

var (
	_ Driver = (*fakeDriver)(nil)
	_ Conn   = (*fakeDriver)(nil)
)
