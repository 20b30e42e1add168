// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dac

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-lpc/adda/instr"
)

// WriteInstruction issues an instruction to the board.
// In blocking mode, WriteInstruction waits for its completion.
func (dev *Device) WriteInstruction(code, p1, p2 uint32) error {
	const op = "write-instruction"
	if err := dev.checkOpen(op); err != nil {
		return err
	}

	err := dev.conn.WriteInstruction(code, p1, p2)
	if err != nil {
		return dev.translate(op, err)
	}
	return dev.block()
}

// WriteMemory writes words to the board memory, starting at address start.
// In blocking mode, WriteMemory waits for its completion.
func (dev *Device) WriteMemory(code, start uint32, words []uint16) error {
	const op = "write-memory"
	if err := dev.checkOpen(op); err != nil {
		return err
	}

	err := dev.conn.WriteMemory(code, start, wireBytes(words))
	if err != nil {
		return dev.translate(op, err)
	}
	return dev.block()
}

// ReadMemory issues a read of n bytes of the board memory, starting at
// address start.
// The read data is retrieved as the payload of the corresponding Return.
func (dev *Device) ReadMemory(code, start, n uint32) error {
	const op = "read-memory"
	if err := dev.checkOpen(op); err != nil {
		return err
	}

	err := dev.conn.ReadMemory(code, start, n)
	if err != nil {
		return dev.translate(op, err)
	}
	return dev.block()
}

func checkOffset(op string, offset int) error {
	if offset < 1 {
		return instr.Configf(op, "function stack offset %d < 1", offset)
	}
	return nil
}

// Instruction returns the function at offset from the top of the board
// function stack. Offset 1 is the most recently issued function.
func (dev *Device) Instruction(offset int) (Command, error) {
	const op = "get-instruction"
	if err := dev.checkOpen(op); err != nil {
		return Command{}, err
	}
	if err := checkOffset(op, offset); err != nil {
		return Command{}, err
	}

	cmd, err := dev.conn.Instruction(offset)
	if err != nil {
		return Command{}, dev.translate(op, err)
	}
	return cmd, nil
}

// Return returns the result of the function at offset from the top of
// the board function stack. Offset 1 is the most recently issued function.
//
// Return waits for the completion of that function.
// Memory reads carry their data in the result payload.
func (dev *Device) Return(offset int) (Result, error) {
	const op = "get-return"
	cmd, err := dev.Instruction(offset)
	if err != nil {
		return Result{}, err
	}

	n := 0
	if cmd.Func == FuncReadMemory {
		n = int(cmd.Para2)
	}

	res, err := dev.conn.Return(offset, n)
	if err != nil {
		return Result{}, dev.translate(op, err)
	}
	return res, nil
}

// block waits for the most recent function when in blocking mode.
func (dev *Device) block() error {
	if !dev.cfg.blocking {
		return nil
	}
	_, err := dev.Return(1)
	return err
}

// CheckFinished returns whether the board retired all issued functions.
func (dev *Device) CheckFinished() (bool, error) {
	const op = "check-finished"
	if err := dev.checkOpen(op); err != nil {
		return false, err
	}

	ok, err := dev.conn.CheckFinished()
	if err != nil {
		return false, dev.translate(op, err)
	}
	return ok, nil
}

// WaitUntilFinished waits for the board to retire all issued functions.
// WaitUntilFinished returns an error wrapping instr.ErrTimeout when
// the board is still busy after timeout. Callers may wait again.
func (dev *Device) WaitUntilFinished(timeout time.Duration) error {
	const op = "wait-until-finished"
	if err := dev.checkOpen(op); err != nil {
		return err
	}

	err := dev.conn.WaitUntilFinished(timeout)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, StatusTimeout):
		return fmt.Errorf("dac: %q still busy after %v: %w", dev.addr, timeout, instr.ErrTimeout)
	default:
		return dev.translate(op, err)
	}
}

// CheckSucceeded returns whether all retired functions succeeded and,
// if not, the position of the first failing one.
func (dev *Device) CheckSucceeded() (bool, int, error) {
	const op = "check-succeeded"
	if err := dev.checkOpen(op); err != nil {
		return false, 0, err
	}

	ok, pos, err := dev.conn.CheckSucceeded()
	if err != nil {
		return false, 0, dev.translate(op, err)
	}
	return ok, pos, nil
}

// SetTimeout sets the send or receive timeout of the connection.
func (dev *Device) SetTimeout(dir Direction, d time.Duration) error {
	const op = "set-timeout"
	if err := dev.checkOpen(op); err != nil {
		return err
	}

	err := dev.conn.SetTimeout(dir, d)
	if err != nil {
		return dev.translate(op, err)
	}
	return nil
}
