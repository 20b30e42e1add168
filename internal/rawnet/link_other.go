// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package rawnet

import (
	"fmt"
	"net"
	"runtime"
	"time"
)

// Link is a raw Ethernet link. It is only available on linux.
type Link struct{}

// Listen returns an error: raw links are only available on linux.
func Listen(ifi *net.Interface, etype uint16) (*Link, error) {
	return nil, fmt.Errorf("rawnet: raw links not supported on %s", runtime.GOOS)
}

func (*Link) ReadFrame(buf []byte) (int, error) { return 0, errClosed }
func (*Link) WriteFrame(frame []byte) error { return errClosed }
func (*Link) SetReadTimeout(d time.Duration) error { return errClosed }
func (*Link) HardwareAddr() net.HardwareAddr { return nil }
func (*Link) Close() error { return nil }

var _ Conn = (*Link)(nil)
