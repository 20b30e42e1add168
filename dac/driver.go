// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dac

import (
	"fmt"
	"time"

	"github.com/go-lpc/adda/instr"
)

// Driver opens connections to DAC boards.
//
// Device-side failures are reported by Driver and Conn methods as a
// non-zero instr.Status error value. Any other error is a transport
// error.
type Driver interface {
	// Open opens a connection to the board at addr (host:port).
	Open(addr string) (Conn, error)

	// Info returns a description of the driver.
	Info() (string, error)

	// ErrorMessage returns the human-readable message of a status code.
	ErrorMessage(code instr.Status) string
}

// Conn is an opened connection to a DAC board.
type Conn interface {
	WriteInstruction(code, p1, p2 uint32) error
	WriteMemory(code, start uint32, data []byte) error
	ReadMemory(code, start, n uint32) error

	// Instruction returns the function at offset from the top of the
	// board function stack.
	Instruction(offset int) (Command, error)

	// Return returns the result of the function at offset from the top
	// of the board function stack, fetching n bytes of payload.
	Return(offset int, n int) (Result, error)

	CheckFinished() (bool, error)
	WaitUntilFinished(timeout time.Duration) error
	CheckSucceeded() (ok bool, pos int, err error)
	SetTimeout(dir Direction, d time.Duration) error

	Close() error
}

// Status codes reported by DAC boards.
const (
	StatusBadFrame       instr.Status = 1
	StatusBadOffset      instr.Status = 2
	StatusBadAddress     instr.Status = 3
	StatusBadInstruction instr.Status = 4
	StatusTimeout        instr.Status = 5
	StatusNotOpen        instr.Status = 6
)

// ErrorMessage returns the message associated with a DAC status code.
func ErrorMessage(code instr.Status) string {
	switch code {
	case instr.StatusOK:
		return "ok"
	case StatusBadFrame:
		return "malformed request frame"
	case StatusBadOffset:
		return "invalid function stack offset"
	case StatusBadAddress:
		return "invalid memory address"
	case StatusBadInstruction:
		return "unknown instruction"
	case StatusTimeout:
		return "operation timed out"
	case StatusNotOpen:
		return "connection not opened"
	default:
		return fmt.Sprintf("unknown status code %d", int32(code))
	}
}

// DriverInfo returns the description of drv.
// It does not need an opened session.
func DriverInfo(drv Driver) (string, error) {
	info, err := drv.Info()
	if err != nil {
		return "", fmt.Errorf("dac: could not retrieve driver information: %w", err)
	}
	return info, nil
}
