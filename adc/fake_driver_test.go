// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adc

import (
	"net"

	"github.com/go-lpc/adda/instr"
)

// fakeDriver emulates an ADC board and records every driver call.
// It serves as both the Driver and the Conn of a session.
type fakeDriver struct {
	opens  int
	closes int
	calls  []string

	pc   net.HardwareAddr
	sent []Instruction
	i, q []byte // raw data served by RecvData
	demo []byte // demodulated data served by RecvDemo
	fail map[string]error
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		pc:   net.HardwareAddr{0x00, 0x0c, 0x29, 0xaa, 0xbb, 0xcc},
		fail: make(map[string]error),
	}
}

func (drv *fakeDriver) call(name string) error {
	drv.calls = append(drv.calls, name)
	return drv.fail[name]
}

func (drv *fakeDriver) Open(src, dst net.HardwareAddr) (Conn, error) {
	drv.opens++
	if err := drv.call("open"); err != nil {
		return nil, err
	}
	return drv, nil
}

func (drv *fakeDriver) Info() (string, error) { return "fake adc driver", nil }

func (drv *fakeDriver) ErrorMessage(code instr.Status) string { return ErrorMessage(code) }

func (drv *fakeDriver) Send(inst Instruction) error {
	if err := drv.call("send"); err != nil {
		return err
	}
	drv.sent = append(drv.sent, append(Instruction(nil), inst...))
	return nil
}

func (drv *fakeDriver) RecvData(trig, depth int) ([]byte, []byte, error) {
	if err := drv.call("recv-data"); err != nil {
		return nil, nil, err
	}
	return drv.i, drv.q, nil
}

func (drv *fakeDriver) RecvDemo(trig int) ([]byte, error) {
	if err := drv.call("recv-demo"); err != nil {
		return nil, err
	}
	return drv.demo, nil
}

func (drv *fakeDriver) MACAddr(dst bool) (net.HardwareAddr, error) {
	if err := drv.call("mac-addr"); err != nil {
		return nil, err
	}
	return drv.pc, nil
}

func (drv *fakeDriver) Close() error {
	drv.closes++
	return drv.call("close")
}

var (
	_ Driver = (*fakeDriver)(nil)
	_ Conn   = (*fakeDriver)(nil)
)
