// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package instr holds the error taxonomy and the error-reporting policies
// shared by the ADC and DAC control sessions.
package instr // import "github.com/go-lpc/adda/instr"

import (
	"errors"
	"fmt"
	"log"
)

var (
	// ErrNotOpen is returned by control operations invoked on a closed session.
	ErrNotOpen = errors.New("instr: session not open")

	// ErrTimeout is returned when an instrument did not complete its
	// pending work within the requested budget.
	// The condition is recoverable: callers may poll or wait again.
	ErrTimeout = errors.New("instr: operation timed out")
)

// Status is a status code returned by an instrument driver.
// Zero means success.
//
// Drivers report a device-side failure by returning a non-zero Status
// as an error value. Any other error returned by a driver is a transport
// error.
type Status int32

const StatusOK Status = 0

func (st Status) Error() string {
	return fmt.Sprintf("instr: device status %d", int32(st))
}

// ConfigError describes an invalid parameter or session state, detected
// before anything was sent to the instrument.
type ConfigError struct {
	Op  string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("instr: invalid %s: %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Configf returns a ConfigError for operation op.
func Configf(op, format string, args ...interface{}) error {
	return &ConfigError{Op: op, Err: fmt.Errorf(format, args...)}
}

// ProtocolError describes a transfer that reached the instrument but
// completed with a non-zero status code.
type ProtocolError struct {
	Op   string
	Code Status
	Msg  string // decoded message, if available
}

func (e *ProtocolError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("instr: %s failed with status %d", e.Op, int32(e.Code))
	}
	return fmt.Sprintf("instr: %s failed with status %d: %s", e.Op, int32(e.Code), e.Msg)
}

func (e *ProtocolError) Unwrap() error { return e.Code }

// IsConfigError reports whether err is, or wraps, a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsProtocolError reports whether err is, or wraps, a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// Translate converts a driver error for operation op into the session
// error taxonomy.
// A Status becomes a ProtocolError, decoded with msg when msg is not nil.
// Other errors are transport errors and are returned wrapped.
func Translate(op string, err error, msg func(Status) string) error {
	if err == nil {
		return nil
	}
	var st Status
	if errors.As(err, &st) {
		if st == StatusOK {
			return nil
		}
		pe := &ProtocolError{Op: op, Code: st}
		if msg != nil {
			pe.Msg = msg(st)
		}
		return pe
	}
	return fmt.Errorf("instr: %s: %w", op, err)
}

// Policy selects what a session does with a ProtocolError raised by a
// configuration or control command.
type Policy int

const (
	// Propagate returns protocol errors to the caller.
	Propagate Policy = iota
	// Report logs protocol errors and lets the command succeed,
	// as the vendor bindings did.
	Report
)

func (p Policy) String() string {
	switch p {
	case Propagate:
		return "propagate"
	case Report:
		return "report"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Apply applies the policy to err.
// Only protocol errors are subject to the policy: configuration and
// transport errors are always returned.
func (p Policy) Apply(msg *log.Logger, err error) error {
	if err == nil {
		return nil
	}
	if p == Report && IsProtocolError(err) {
		if msg != nil {
			msg.Printf("%+v", err)
		}
		return nil
	}
	return err
}
