// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rawnet

import (
	"io"
	"net"
	"sync"
	"time"
)

// Pipe creates an in-memory, full duplex, Ethernet link between two
// endpoints with MAC addresses a and b.
// Frames are delivered as written; no filtering on addresses is done.
func Pipe(a, b net.HardwareAddr) (Conn, Conn) {
	var (
		ab   = make(chan []byte, 64)
		ba   = make(chan []byte, 64)
		done = make(chan struct{})
		once = new(sync.Once)
	)
	p1 := &pipe{addr: a, rx: ba, tx: ab, done: done, once: once}
	p2 := &pipe{addr: b, rx: ab, tx: ba, done: done, once: once}
	return p1, p2
}

type pipe struct {
	addr net.HardwareAddr
	rx   <-chan []byte
	tx   chan<- []byte

	mu      sync.Mutex
	timeout time.Duration

	done chan struct{}
	once *sync.Once
}

func (p *pipe) ReadFrame(buf []byte) (int, error) {
	p.mu.Lock()
	timeout := p.timeout
	p.mu.Unlock()

	var expired <-chan time.Time
	if timeout > 0 {
		tmr := time.NewTimer(timeout)
		defer tmr.Stop()
		expired = tmr.C
	}

	select {
	case frame := <-p.rx:
		return copy(buf, frame), nil
	case <-p.done:
		return 0, io.EOF
	case <-expired:
		return 0, ErrTimeout
	}
}

func (p *pipe) WriteFrame(frame []byte) error {
	frame = append([]byte(nil), frame...)
	select {
	case <-p.done:
		return errClosed
	default:
	}
	select {
	case p.tx <- frame:
		return nil
	case <-p.done:
		return errClosed
	}
}

func (p *pipe) SetReadTimeout(d time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timeout = d
	return nil
}

func (p *pipe) HardwareAddr() net.HardwareAddr { return p.addr }

func (p *pipe) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}

var _ Conn = (*pipe)(nil)
