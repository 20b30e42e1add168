// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adc

import (
	"fmt"
	"net"

	"github.com/go-lpc/adda/instr"
)

// Driver opens connections to ADC boards.
//
// Device-side failures are reported by Driver and Conn methods as a
// non-zero instr.Status error value. Any other error is a transport
// error.
type Driver interface {
	// Open opens a connection between the PC network interface with
	// address src and the board with address dst.
	Open(src, dst net.HardwareAddr) (Conn, error)

	// Info returns a description of the driver.
	Info() (string, error)

	// ErrorMessage returns the human-readable message of a status code.
	ErrorMessage(code instr.Status) string
}

// Conn is an opened connection to an ADC board.
type Conn interface {
	// Send sends an instruction frame to the board.
	Send(inst Instruction) error

	// RecvData receives trig raw acquisitions of depth samples each,
	// split into the I and Q channels (trig*depth bytes each).
	RecvData(trig, depth int) (i, q []byte, err error)

	// RecvDemo receives trig demodulated results, as trig little-endian
	// (I, Q) pairs of int32.
	RecvDemo(trig int) ([]byte, error)

	// MACAddr returns the MAC address of the board (dst is true) or of
	// the PC end of the connection.
	MACAddr(dst bool) (net.HardwareAddr, error)

	Close() error
}

// Status codes reported by ADC drivers.
const (
	StatusTimeout     instr.Status = 1
	StatusBadSequence instr.Status = 2
	StatusBadFrame    instr.Status = 3
	StatusNotOpen     instr.Status = 4
)

// ErrorMessage returns the message associated with an ADC status code.
func ErrorMessage(code instr.Status) string {
	switch code {
	case instr.StatusOK:
		return "ok"
	case StatusTimeout:
		return "receive timed out"
	case StatusBadSequence:
		return "data frame lost or out of order"
	case StatusBadFrame:
		return "malformed data frame"
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
		return "", fmt.Errorf("adc: could not retrieve driver information: %w", err)
	}
	return info, nil
}
