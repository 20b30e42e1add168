// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package acqfmt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-lpc/adda/internal/crc16"
)

// Decoder reads (and validates) acquisitions from an underlying data
// source.
type Decoder struct {
	r   io.Reader
	hdr *Header
	buf []byte
	err error
	crc crc16.Hash16
}

// NewDecoder creates a decoder that reads and validates data from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:   r,
		buf: make([]byte, 8),
		crc: crc16.New(nil),
	}
}

// ReadHeader reads the file header.
// It must be called once, before any call to Decode.
func (dec *Decoder) ReadHeader() (Header, error) {
	var hdr Header
	if dec.hdr != nil {
		return hdr, fmt.Errorf("acqfmt: header already read")
	}

	magic := make([]byte, len(Magic))
	dec.read(magic)
	if dec.err != nil {
		return hdr, fmt.Errorf("acqfmt: could not read magic: %w", dec.err)
	}
	if string(magic) != Magic {
		return hdr, fmt.Errorf("acqfmt: invalid magic %q", magic)
	}

	hdr.Version = dec.readU8()
	hdr.Mode = Mode(dec.readU8())
	hdr.Trig = dec.readU16()
	hdr.Depth = dec.readU16()
	dec.read(hdr.Board[:])
	if dec.err != nil {
		return hdr, fmt.Errorf("acqfmt: could not read header: %w", dec.unexpected())
	}

	if hdr.Version != Version {
		return hdr, fmt.Errorf("acqfmt: invalid version %d (want=%d)", hdr.Version, Version)
	}
	switch hdr.Mode {
	case Raw, Demod:
	default:
		return hdr, fmt.Errorf("acqfmt: invalid acquisition mode %v", hdr.Mode)
	}

	dec.hdr = &hdr
	return hdr, nil
}

// Decode reads the next event from the stream.
// Decode returns io.EOF when no more events are available.
func (dec *Decoder) Decode(evt *Event) error {
	if dec.hdr == nil {
		return fmt.Errorf("acqfmt: header not read")
	}

	dec.crc.Reset()
	v := dec.readU8()
	if dec.err != nil {
		if errors.Is(dec.err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("acqfmt: could not read event header marker: %w", dec.err)
	}
	if v != evHeader {
		return fmt.Errorf("acqfmt: invalid event header marker (got=0x%x, want=0x%x)", v, evHeader)
	}

	evt.ID = dec.readU32()
	evt.Time = int64(dec.readU64())

	var (
		trig  = int(dec.hdr.Trig)
		depth = int(dec.hdr.Depth)
	)
	evt.Raw = [2][][]uint8{}
	evt.Demod = [2][]int32{}
	switch dec.hdr.Mode {
	case Raw:
		for ch := range evt.Raw {
			evt.Raw[ch] = make([][]uint8, trig)
		}
		for i := 0; i < trig; i++ {
			for ch := range evt.Raw {
				evt.Raw[ch][i] = make([]uint8, depth)
				dec.read(evt.Raw[ch][i])
			}
		}
	case Demod:
		for ch := range evt.Demod {
			evt.Demod[ch] = make([]int32, trig)
		}
		for i := 0; i < trig; i++ {
			for ch := range evt.Demod {
				evt.Demod[ch][i] = int32(dec.readU32())
			}
		}
	}

	v = dec.readU8()
	if dec.err != nil {
		return fmt.Errorf("acqfmt: could not read event %d: %w", evt.ID, dec.unexpected())
	}
	if v != evTrailer {
		return fmt.Errorf("acqfmt: event %d: invalid event trailer marker (got=0x%x, want=0x%x)", evt.ID, v, evTrailer)
	}

	want := dec.crc.Sum16()
	got := dec.readU16()
	if dec.err != nil {
		return fmt.Errorf("acqfmt: could not read event %d checksum: %w", evt.ID, dec.unexpected())
	}
	if got != want {
		return fmt.Errorf("acqfmt: event %d: invalid checksum (got=0x%04x, want=0x%04x)", evt.ID, got, want)
	}
	return nil
}

func (dec *Decoder) unexpected() error {
	if errors.Is(dec.err, io.EOF) {
		dec.err = io.ErrUnexpectedEOF
	}
	return dec.err
}

func (dec *Decoder) read(p []byte) {
	if dec.err != nil {
		return
	}
	_, dec.err = io.ReadFull(dec.r, p)
	if dec.err == nil {
		_, _ = dec.crc.Write(p) // can not fail.
	}
}

func (dec *Decoder) readU8() uint8 {
	const n = 1
	dec.read(dec.buf[:n])
	return dec.buf[0]
}

func (dec *Decoder) readU16() uint16 {
	const n = 2
	dec.read(dec.buf[:n])
	return binary.BigEndian.Uint16(dec.buf[:n])
}

func (dec *Decoder) readU32() uint32 {
	const n = 4
	dec.read(dec.buf[:n])
	return binary.BigEndian.Uint32(dec.buf[:n])
}

func (dec *Decoder) readU64() uint64 {
	const n = 8
	dec.read(dec.buf[:n])
	return binary.BigEndian.Uint64(dec.buf[:n])
}
