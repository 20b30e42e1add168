// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dac

import (
	"fmt"
	"log"
	"net"
	"os"
	"strconv"

	"github.com/go-lpc/adda/instr"
)

// Device is a control session to a DAC board.
//
// Device is not safe for concurrent use: offsets into the board function
// stack only make sense when a single writer issues functions.
type Device struct {
	addr string
	msg  *log.Logger
	cfg  config
	conn Conn // nil when closed
}

// New creates a closed session to the DAC board at addr.
// The port from WithPort (80 by default) is used when addr has none.
func New(addr string, opts ...Option) *Device {
	cfg := newConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.msg == nil {
		cfg.msg = log.New(os.Stdout, "dac: ", 0)
	}
	if cfg.drv == nil {
		cfg.drv = TCP{}
	}

	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, strconv.Itoa(cfg.port))
	}

	return &Device{
		addr: addr,
		msg:  cfg.msg,
		cfg:  cfg,
	}
}

// Addr returns the host:port address of the board.
func (dev *Device) Addr() string { return dev.addr }

// IsOpen returns whether the session is opened.
func (dev *Device) IsOpen() bool { return dev.conn != nil }

// Blocking returns whether the session runs in blocking mode.
func (dev *Device) Blocking() bool { return dev.cfg.blocking }

// SetBlocking sets the blocking mode of the session.
// In blocking mode, every issued function is waited upon before
// returning.
func (dev *Device) SetBlocking(v bool) { dev.cfg.blocking = v }

// Open opens the session. Opening an opened session is a no-op.
func (dev *Device) Open() error {
	if dev.conn != nil {
		return nil
	}

	conn, err := dev.cfg.drv.Open(dev.addr)
	if err != nil {
		return fmt.Errorf("dac: could not open %q: %w", dev.addr, dev.translate("open", err))
	}

	if d := dev.cfg.timeout; d > 0 {
		for _, dir := range []Direction{Send, Recv} {
			err = conn.SetTimeout(dir, d)
			if err != nil {
				_ = conn.Close()
				return fmt.Errorf("dac: could not set %v timeout of %q: %w", dir, dev.addr, dev.translate("set-timeout", err))
			}
		}
	}

	dev.conn = conn
	return nil
}

// Close closes the session. Closing a closed session is a no-op.
func (dev *Device) Close() error {
	if dev.conn == nil {
		return nil
	}
	conn := dev.conn
	dev.conn = nil

	err := conn.Close()
	if err != nil {
		return fmt.Errorf("dac: could not close %q: %w", dev.addr, dev.translate("close", err))
	}
	return nil
}

func (dev *Device) checkOpen(op string) error {
	if dev.conn == nil {
		return fmt.Errorf("dac: could not %s on %q: %w", op, dev.addr, instr.ErrNotOpen)
	}
	return nil
}

func (dev *Device) translate(op string, err error) error {
	return instr.Translate(op, err, dev.cfg.drv.ErrorMessage)
}

// control applies the session policy to the outcome of a control command.
func (dev *Device) control(err error) error {
	return dev.cfg.policy.Apply(dev.msg, err)
}
