// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package acqfmt describes and handles ADC acquisitions stored on disk.
//
// A file starts with a header:
//   - the "ADDA" magic,
//   - the format version (u8),
//   - the acquisition mode (u8),
//   - the trigger count (u16) and the sample depth (u16),
//   - the MAC address of the ADC board (6 bytes).
//
// The header is followed by events, each made of:
//   - an event header marker (0xe0),
//   - the event ID (u32) and the acquisition time in Unix nanoseconds (i64),
//   - in raw mode, the I then Q samples of each trigger (trig*depth bytes per channel),
//   - in demodulation mode, the (I, Q) values of each trigger (2 i32 per trigger),
//   - an event trailer marker (0xe1),
//   - the CRC-16 checksum of the event, from its header marker to its trailer marker.
//
// All integers are big-endian.
package acqfmt // import "github.com/go-lpc/adda/internal/acqfmt"

import (
	"fmt"
	"net"
)

const (
	Magic   = "ADDA"
	Version = 1

	evHeader  = 0xe0 // event header marker
	evTrailer = 0xe1 // event trailer marker
)

// Mode is the acquisition mode of an ADC board.
type Mode uint8

const (
	Raw   Mode = 0 // raw I/Q samples
	Demod Mode = 1 // demodulated I/Q values
)

func (m Mode) String() string {
	switch m {
	case Raw:
		return "raw"
	case Demod:
		return "demod"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Header describes the acquisitions held in a file.
type Header struct {
	Version uint8
	Mode    Mode
	Trig    uint16 // triggers per event
	Depth   uint16 // samples per trigger, in raw mode
	Board   [6]byte
}

// BoardAddr returns the MAC address of the ADC board.
func (hdr Header) BoardAddr() net.HardwareAddr {
	return append(net.HardwareAddr(nil), hdr.Board[:]...)
}

// Event is a single acquisition.
type Event struct {
	ID   uint32
	Time int64 // acquisition time, in Unix nanoseconds

	Raw   [2][][]uint8 // [channel][trigger][sample], raw mode only
	Demod [2][]int32   // [channel][trigger], demodulation mode only
}

func (hdr Header) check(evt *Event) error {
	switch hdr.Mode {
	case Raw:
		for ch := range evt.Raw {
			if got, want := len(evt.Raw[ch]), int(hdr.Trig); got != want {
				return fmt.Errorf("acqfmt: event %d: invalid number of triggers for channel %d (got=%d, want=%d)", evt.ID, ch, got, want)
			}
			for i, smp := range evt.Raw[ch] {
				if got, want := len(smp), int(hdr.Depth); got != want {
					return fmt.Errorf("acqfmt: event %d: invalid depth for channel %d, trigger %d (got=%d, want=%d)", evt.ID, ch, i, got, want)
				}
			}
		}
	case Demod:
		for ch := range evt.Demod {
			if got, want := len(evt.Demod[ch]), int(hdr.Trig); got != want {
				return fmt.Errorf("acqfmt: event %d: invalid number of triggers for channel %d (got=%d, want=%d)", evt.ID, ch, got, want)
			}
		}
	default:
		return fmt.Errorf("acqfmt: invalid acquisition mode %v", hdr.Mode)
	}
	return nil
}
