// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package rawnet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Link is a raw AF_PACKET socket bound to a network interface,
// receiving the frames of a single ether type.
// Opening a Link requires the CAP_NET_RAW capability.
type Link struct {
	fd  int
	ifi *net.Interface
}

// Listen opens a raw link on ifi for frames of the given ether type.
func Listen(ifi *net.Interface, etype uint16) (*Link, error) {
	proto := htons(etype)
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW|unix.SOCK_CLOEXEC, int(proto))
	if err != nil {
		return nil, fmt.Errorf("rawnet: could not open raw socket: %w", err)
	}

	err = unix.Bind(fd, &unix.SockaddrLinklayer{
		Protocol: proto,
		Ifindex:  ifi.Index,
	})
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("rawnet: could not bind raw socket to %q: %w", ifi.Name, err)
	}

	return &Link{fd: fd, ifi: ifi}, nil
}

func (l *Link) ReadFrame(buf []byte) (int, error) {
	for {
		n, _, err := unix.Recvfrom(l.fd, buf, 0)
		switch {
		case err == nil:
			return n, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EWOULDBLOCK):
			return 0, ErrTimeout
		default:
			return 0, fmt.Errorf("rawnet: could not read frame: %w", err)
		}
	}
}

func (l *Link) WriteFrame(frame []byte) error {
	if len(frame) < HeaderSize {
		return fmt.Errorf("rawnet: frame too short (%d bytes)", len(frame))
	}
	sa := &unix.SockaddrLinklayer{
		Ifindex: l.ifi.Index,
		Halen:   addrLen,
	}
	copy(sa.Addr[:], frame[:addrLen])

	err := unix.Sendto(l.fd, frame, 0, sa)
	if err != nil {
		return fmt.Errorf("rawnet: could not write frame: %w", err)
	}
	return nil
}

func (l *Link) SetReadTimeout(d time.Duration) error {
	tv := unix.NsecToTimeval(d.Nanoseconds())
	err := unix.SetsockoptTimeval(l.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv)
	if err != nil {
		return fmt.Errorf("rawnet: could not set read timeout: %w", err)
	}
	return nil
}

func (l *Link) HardwareAddr() net.HardwareAddr { return l.ifi.HardwareAddr }

func (l *Link) Close() error {
	if l.fd < 0 {
		return nil
	}
	fd := l.fd
	l.fd = -1
	return unix.Close(fd)
}

// htons converts v to network byte order.
func htons(v uint16) uint16 {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return *(*uint16)(unsafe.Pointer(&b[0]))
}

var _ Conn = (*Link)(nil)
