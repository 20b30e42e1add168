// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dac

import (
	"log"
	"time"

	"github.com/go-lpc/adda/instr"
)

type config struct {
	port     int
	blocking bool
	policy   instr.Policy
	msg      *log.Logger
	drv      Driver
	legacy   bool          // legacy register and loop encoding
	timeout  time.Duration // transport timeout, applied on open
}

func newConfig() config {
	return config{
		port:   DefaultPort,
		policy: instr.Propagate,
	}
}

// Option configures a DAC Device.
type Option func(*config)

// WithPort sets the TCP port used when the board address has none.
func WithPort(port int) Option {
	return func(cfg *config) {
		cfg.port = port
	}
}

// WithBlocking sets the initial blocking mode of the device.
func WithBlocking(v bool) Option {
	return func(cfg *config) {
		cfg.blocking = v
	}
}

// WithPolicy sets how protocol errors of control commands are handled.
func WithPolicy(p instr.Policy) Option {
	return func(cfg *config) {
		cfg.policy = p
	}
}

// WithLogger sets the logger of the device.
func WithLogger(msg *log.Logger) Option {
	return func(cfg *config) {
		cfg.msg = msg
	}
}

// WithDriver sets the driver used to reach the board.
// The default is the TCP driver.
func WithDriver(drv Driver) Option {
	return func(cfg *config) {
		cfg.drv = drv
	}
}

// WithTimeout sets the send and receive timeouts of the connection.
func WithTimeout(d time.Duration) Option {
	return func(cfg *config) {
		cfg.timeout = d
	}
}

// WithLegacyRegisterEncoding selects the register and loop command
// encodings of the deployed firmware:
//   - register commands are built as bank<<(8+op),
//   - loop counts are built as c1<<8 & c2.
func WithLegacyRegisterEncoding() Option {
	return func(cfg *config) {
		cfg.legacy = true
	}
}
