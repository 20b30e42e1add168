// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-lpc/adda/instr"
	"github.com/go-lpc/adda/internal/rawnet"
)

// DefaultTimeout is the default receive timeout of the Ether driver.
const DefaultTimeout = 1 * time.Second

// Ether is the driver reaching ADC boards with raw Ethernet frames.
//
// Instructions are sent as the payload of a single frame.
// Data frames sent by the board start with a big-endian 16-bit sequence
// number, counted from zero for each transfer, followed by the data bytes.
// Raw acquisitions are sent trigger after trigger, the depth I samples of
// a trigger followed by its depth Q samples.
//
// Opening a raw Ethernet link usually requires the CAP_NET_RAW capability.
type Ether struct {
	// Timeout is the receive timeout. Zero means DefaultTimeout.
	Timeout time.Duration

	dial func(src net.HardwareAddr) (rawnet.Conn, error)
}

// Info returns a description of the raw Ethernet driver.
func (*Ether) Info() (string, error) {
	return fmt.Sprintf("adda/adc raw ethernet driver (ether type 0x%04x)", EtherType), nil
}

// ErrorMessage returns the message associated with an ADC status code.
func (*Ether) ErrorMessage(code instr.Status) string {
	return ErrorMessage(code)
}

// Open opens a raw link on the network interface with address src.
func (drv *Ether) Open(src, dst net.HardwareAddr) (Conn, error) {
	dial := drv.dial
	if dial == nil {
		dial = listen
	}

	link, err := dial(src)
	if err != nil {
		return nil, fmt.Errorf("adc: could not open raw link on %v: %w", src, err)
	}

	timeout := drv.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	err = link.SetReadTimeout(timeout)
	if err != nil {
		_ = link.Close()
		return nil, fmt.Errorf("adc: could not set receive timeout: %w", err)
	}

	if len(src) == 0 {
		src = link.HardwareAddr()
	}
	return &etherConn{
		link: link,
		src:  src,
		dst:  dst,
		buf:  make([]byte, rawnet.HeaderSize+rawnet.MaxPayload),
	}, nil
}

func listen(src net.HardwareAddr) (rawnet.Conn, error) {
	ifi, err := rawnet.InterfaceByAddr(src)
	if err != nil {
		return nil, err
	}
	link, err := rawnet.Listen(ifi, EtherType)
	if err != nil {
		return nil, err
	}
	return link, nil
}

type etherConn struct {
	link rawnet.Conn
	src  net.HardwareAddr
	dst  net.HardwareAddr
	buf  []byte
}

func (conn *etherConn) Send(inst Instruction) error {
	frame, err := rawnet.Frame{
		Dst:     conn.dst,
		Src:     conn.src,
		Type:    EtherType,
		Payload: inst,
	}.MarshalBinary()
	if err != nil {
		return fmt.Errorf("adc: could not encode %v: %w", inst, err)
	}

	err = conn.link.WriteFrame(frame)
	if err != nil {
		return fmt.Errorf("adc: could not send %v: %w", inst, err)
	}
	return nil
}

func (conn *etherConn) RecvData(trig, depth int) (i, q []byte, err error) {
	buf, err := conn.recv(2 * trig * depth)
	if err != nil {
		return nil, nil, err
	}

	i = make([]byte, 0, trig*depth)
	q = make([]byte, 0, trig*depth)
	for beg := 0; beg < len(buf); beg += 2 * depth {
		i = append(i, buf[beg:beg+depth]...)
		q = append(q, buf[beg+depth:beg+2*depth]...)
	}
	return i, q, nil
}

func (conn *etherConn) RecvDemo(trig int) ([]byte, error) {
	return conn.recv(2 * trig * 4)
}

// recv receives n bytes of data frames from the board.
// Frames from other sources are ignored.
func (conn *etherConn) recv(n int) ([]byte, error) {
	var (
		out = make([]byte, 0, n)
		seq uint16
	)
	for len(out) < n {
		sz, err := conn.link.ReadFrame(conn.buf)
		if err != nil {
			if errors.Is(err, rawnet.ErrTimeout) {
				return nil, StatusTimeout
			}
			return nil, fmt.Errorf("adc: could not receive frame: %w", err)
		}

		var f rawnet.Frame
		err = f.UnmarshalBinary(conn.buf[:sz])
		if err != nil {
			return nil, StatusBadFrame
		}
		if f.Type != EtherType || !bytes.Equal(f.Src, conn.dst) {
			continue
		}
		if len(f.Payload) < 2 {
			return nil, StatusBadFrame
		}
		if binary.BigEndian.Uint16(f.Payload) != seq {
			return nil, StatusBadSequence
		}
		seq++

		data := f.Payload[2:]
		if rem := n - len(out); len(data) > rem {
			data = data[:rem] // padding
		}
		out = append(out, data...)
	}
	return out, nil
}

func (conn *etherConn) MACAddr(dst bool) (net.HardwareAddr, error) {
	if dst {
		return conn.dst, nil
	}
	return conn.src, nil
}

func (conn *etherConn) Close() error {
	return conn.link.Close()
}

var (
	_ Driver = (*Ether)(nil)
	_ Conn   = (*etherConn)(nil)
)
