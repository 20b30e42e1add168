// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rawnet exchanges raw Ethernet II frames with devices that do
// not speak IP.
package rawnet // import "github.com/go-lpc/adda/internal/rawnet"

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"time"
)

const (
	HeaderSize = 14   // dst, src, ether type
	MinPayload = 46   // payloads are zero-padded to this size
	MaxPayload = 1500 // MTU of a standard Ethernet link
	addrLen    = 6
)

var (
	// ErrTimeout is returned by ReadFrame when no frame was received
	// within the read timeout.
	ErrTimeout = errors.New("rawnet: read timeout")

	errClosed = errors.New("rawnet: link closed")
)

// Conn is a raw Ethernet link.
type Conn interface {
	// ReadFrame reads a complete frame into buf.
	ReadFrame(buf []byte) (int, error)

	// WriteFrame writes a complete frame, as built by Frame.MarshalBinary.
	WriteFrame(frame []byte) error

	// SetReadTimeout sets the maximum duration ReadFrame waits for a frame.
	// Zero means no timeout.
	SetReadTimeout(d time.Duration) error

	// HardwareAddr returns the MAC address of the local end of the link.
	HardwareAddr() net.HardwareAddr

	Close() error
}

// Frame is an Ethernet II frame.
type Frame struct {
	Dst     net.HardwareAddr
	Src     net.HardwareAddr
	Type    uint16
	Payload []byte
}

// MarshalBinary encodes the frame, padding short payloads with zeros.
func (f Frame) MarshalBinary() ([]byte, error) {
	if len(f.Dst) != addrLen || len(f.Src) != addrLen {
		return nil, fmt.Errorf("rawnet: invalid frame addresses (dst=%v, src=%v)", f.Dst, f.Src)
	}
	if len(f.Payload) > MaxPayload {
		return nil, fmt.Errorf("rawnet: payload too large (%d > %d)", len(f.Payload), MaxPayload)
	}

	n := len(f.Payload)
	if n < MinPayload {
		n = MinPayload
	}
	buf := make([]byte, HeaderSize+n)
	copy(buf[0:6], f.Dst)
	copy(buf[6:12], f.Src)
	binary.BigEndian.PutUint16(buf[12:14], f.Type)
	copy(buf[HeaderSize:], f.Payload)
	return buf, nil
}

// UnmarshalBinary decodes a frame.
// Padding bytes, if any, are kept in the payload.
func (f *Frame) UnmarshalBinary(p []byte) error {
	if len(p) < HeaderSize {
		return fmt.Errorf("rawnet: frame too short (%d bytes)", len(p))
	}
	f.Dst = append(net.HardwareAddr(nil), p[0:6]...)
	f.Src = append(net.HardwareAddr(nil), p[6:12]...)
	f.Type = binary.BigEndian.Uint16(p[12:14])
	f.Payload = append([]byte(nil), p[HeaderSize:]...)
	return nil
}

// InterfaceByAddr returns the network interface with the MAC address mac.
func InterfaceByAddr(mac net.HardwareAddr) (*net.Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("rawnet: could not list interfaces: %w", err)
	}
	for i := range ifaces {
		if ifaces[i].HardwareAddr.String() == mac.String() {
			return &ifaces[i], nil
		}
	}
	return nil, fmt.Errorf("rawnet: no interface with address %v", mac)
}
