// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adc

import (
	"log"

	"github.com/go-lpc/adda/instr"
)

type config struct {
	policy instr.Policy
	msg    *log.Logger
	drv    Driver
}

func newConfig() config {
	return config{
		policy: instr.Propagate,
	}
}

// Option configures an ADC Device.
type Option func(*config)

// WithPolicy sets how protocol errors of configuration and control
// instructions are handled.
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
// The default is the raw Ethernet driver.
func WithDriver(drv Driver) Option {
	return func(cfg *config) {
		cfg.drv = drv
	}
}
