// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dac

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"github.com/go-lpc/adda/dac/internal/wire"
	"github.com/go-lpc/adda/instr"
)

// TCP is the driver reaching DAC boards over TCP.
type TCP struct {
	// Dial is the dial timeout. Zero means no timeout.
	Dial time.Duration
}

// Info returns a description of the TCP driver.
func (TCP) Info() (string, error) {
	return fmt.Sprintf("adda/dac tcp driver (wire magic 0x%04x)", wire.Magic), nil
}

// ErrorMessage returns the message associated with a DAC status code.
func (TCP) ErrorMessage(code instr.Status) string {
	return ErrorMessage(code)
}

// Open dials the board at addr and performs the open handshake.
func (drv TCP) Open(addr string) (Conn, error) {
	sck, err := net.DialTimeout("tcp", addr, drv.Dial)
	if err != nil {
		return nil, fmt.Errorf("dac: could not dial %q: %w", addr, err)
	}

	conn := newTCPConn(sck)
	_, err = conn.roundTrip(wire.Request{Kind: wire.KindOpen})
	if err != nil {
		_ = sck.Close()
		return nil, err
	}
	return conn, nil
}

type tcpConn struct {
	sck net.Conn
	enc *wire.Encoder
	dec *wire.Decoder

	send time.Duration // send timeout
	recv time.Duration // receive timeout
}

func newTCPConn(sck net.Conn) *tcpConn {
	return &tcpConn{
		sck: sck,
		enc: wire.NewEncoder(sck),
		dec: wire.NewDecoder(bufio.NewReader(sck)),
	}
}

func (conn *tcpConn) roundTrip(req wire.Request) (wire.Reply, error) {
	var rep wire.Reply

	if conn.send > 0 {
		_ = conn.sck.SetWriteDeadline(time.Now().Add(conn.send))
	}
	err := conn.enc.EncodeRequest(req)
	if err != nil {
		return rep, fmt.Errorf("dac: could not send %v request: %w", req.Kind, err)
	}

	switch {
	case req.Kind == wire.KindWaitFinished:
		// the board answers once finished or after the requested timeout.
		_ = conn.sck.SetReadDeadline(time.Time{})
	case conn.recv > 0:
		_ = conn.sck.SetReadDeadline(time.Now().Add(conn.recv))
	}
	err = conn.dec.DecodeReply(&rep)
	if err != nil {
		return rep, fmt.Errorf("dac: could not receive %v reply: %w", req.Kind, err)
	}
	if rep.Kind != req.Kind {
		return rep, fmt.Errorf("dac: got %v reply to %v request", rep.Kind, req.Kind)
	}
	if rep.Status != 0 {
		return rep, instr.Status(rep.Status)
	}
	return rep, nil
}

func (conn *tcpConn) WriteInstruction(code, p1, p2 uint32) error {
	_, err := conn.roundTrip(wire.Request{
		Kind: wire.KindWriteInstruction,
		Code: code, P1: p1, P2: p2,
	})
	return err
}

func (conn *tcpConn) WriteMemory(code, start uint32, data []byte) error {
	_, err := conn.roundTrip(wire.Request{
		Kind: wire.KindWriteMemory,
		Code: code, P1: start, P2: uint32(len(data)),
		Payload: data,
	})
	return err
}

func (conn *tcpConn) ReadMemory(code, start, n uint32) error {
	_, err := conn.roundTrip(wire.Request{
		Kind: wire.KindReadMemory,
		Code: code, P1: start, P2: n,
	})
	return err
}

func (conn *tcpConn) Instruction(offset int) (Command, error) {
	rep, err := conn.roundTrip(wire.Request{
		Kind: wire.KindFunctionType,
		P1:   uint32(offset),
	})
	if err != nil {
		return Command{}, err
	}
	if len(rep.Payload) != 8 {
		return Command{}, fmt.Errorf("dac: invalid function-type payload size %d", len(rep.Payload))
	}
	return Command{
		Func:  FuncType(rep.State),
		Code:  rep.Data,
		Para1: binary.BigEndian.Uint32(rep.Payload[0:]),
		Para2: binary.BigEndian.Uint32(rep.Payload[4:]),
	}, nil
}

func (conn *tcpConn) Return(offset int, n int) (Result, error) {
	rep, err := conn.roundTrip(wire.Request{
		Kind: wire.KindReturn,
		P1:   uint32(offset),
		P2:   uint32(n),
	})
	if err != nil {
		return Result{}, err
	}
	if len(rep.Payload) != n {
		return Result{}, fmt.Errorf("dac: got %d bytes of return payload, want %d", len(rep.Payload), n)
	}
	return Result{
		State:   rep.State,
		Data:    rep.Data,
		Payload: rep.Payload,
	}, nil
}

func (conn *tcpConn) CheckFinished() (bool, error) {
	rep, err := conn.roundTrip(wire.Request{Kind: wire.KindCheckFinished})
	if err != nil {
		return false, err
	}
	return rep.Data == 1, nil
}

func (conn *tcpConn) WaitUntilFinished(timeout time.Duration) error {
	_, err := conn.roundTrip(wire.Request{
		Kind: wire.KindWaitFinished,
		P1:   millis(timeout),
	})
	return err
}

func (conn *tcpConn) CheckSucceeded() (bool, int, error) {
	rep, err := conn.roundTrip(wire.Request{Kind: wire.KindCheckSucceeded})
	if err != nil {
		return false, 0, err
	}
	return rep.Data == 1, int(rep.State), nil
}

func (conn *tcpConn) SetTimeout(dir Direction, d time.Duration) error {
	_, err := conn.roundTrip(wire.Request{
		Kind: wire.KindSetTimeout,
		P1:   uint32(dir),
		P2:   millis(d),
	})
	if err != nil {
		return err
	}
	switch dir {
	case Send:
		conn.send = d
	case Recv:
		conn.recv = d
	}
	return nil
}

func (conn *tcpConn) Close() error {
	_, err := conn.roundTrip(wire.Request{Kind: wire.KindClose})
	if e := conn.sck.Close(); e != nil && err == nil {
		err = fmt.Errorf("dac: could not close connection: %w", e)
	}
	return err
}

var (
	_ Driver = (*TCP)(nil)
	_ Conn   = (*tcpConn)(nil)
)
