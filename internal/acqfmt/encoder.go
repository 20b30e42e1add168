// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package acqfmt

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-lpc/adda/internal/crc16"
)

// Encoder writes acquisitions to an output stream.
// Encoder computes the CRC-16 checksum of each event on the fly and
// appends it to the event.
type Encoder struct {
	w   io.Writer
	hdr *Header
	buf []byte
	err error
	crc crc16.Hash16
}

// NewEncoder returns a new Encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		w:   w,
		buf: make([]byte, 8),
		crc: crc16.New(nil),
	}
}

// WriteHeader writes the file header.
// It must be called once, before any call to Encode.
func (enc *Encoder) WriteHeader(hdr Header) error {
	if enc.hdr != nil {
		return fmt.Errorf("acqfmt: header already written")
	}
	if hdr.Version == 0 {
		hdr.Version = Version
	}
	switch hdr.Mode {
	case Raw, Demod:
	default:
		return fmt.Errorf("acqfmt: invalid acquisition mode %v", hdr.Mode)
	}

	enc.write([]byte(Magic))
	enc.writeU8(hdr.Version)
	enc.writeU8(uint8(hdr.Mode))
	enc.writeU16(hdr.Trig)
	enc.writeU16(hdr.Depth)
	enc.write(hdr.Board[:])
	if enc.err != nil {
		return fmt.Errorf("acqfmt: could not write header: %w", enc.err)
	}

	enc.hdr = &hdr
	return nil
}

// Encode writes an event to the stream, computes the corresponding
// CRC-16 checksum on the fly and appends it to the stream.
func (enc *Encoder) Encode(evt *Event) error {
	if enc.hdr == nil {
		return fmt.Errorf("acqfmt: header not written")
	}
	if evt == nil {
		return nil
	}
	err := enc.hdr.check(evt)
	if err != nil {
		return err
	}

	enc.crc.Reset()
	enc.writeU8(evHeader)
	enc.writeU32(evt.ID)
	enc.writeU64(uint64(evt.Time))
	switch enc.hdr.Mode {
	case Raw:
		for i := range evt.Raw[0] {
			enc.write(evt.Raw[0][i])
			enc.write(evt.Raw[1][i])
		}
	case Demod:
		for i := range evt.Demod[0] {
			enc.writeU32(uint32(evt.Demod[0][i]))
			enc.writeU32(uint32(evt.Demod[1][i]))
		}
	}
	enc.writeU8(evTrailer)
	enc.writeU16(enc.crc.Sum16())

	if enc.err != nil {
		return fmt.Errorf("acqfmt: could not write event %d: %w", evt.ID, enc.err)
	}
	return nil
}

func (enc *Encoder) write(p []byte) {
	if enc.err != nil {
		return
	}
	_, enc.err = enc.w.Write(p)
	_, _ = enc.crc.Write(p) // can not fail.
}

func (enc *Encoder) writeU8(v uint8) {
	const n = 1
	enc.buf[0] = v
	enc.write(enc.buf[:n])
}

func (enc *Encoder) writeU16(v uint16) {
	const n = 2
	binary.BigEndian.PutUint16(enc.buf[:n], v)
	enc.write(enc.buf[:n])
}

func (enc *Encoder) writeU32(v uint32) {
	const n = 4
	binary.BigEndian.PutUint32(enc.buf[:n], v)
	enc.write(enc.buf[:n])
}

func (enc *Encoder) writeU64(v uint64) {
	const n = 8
	binary.BigEndian.PutUint64(enc.buf[:n], v)
	enc.write(enc.buf[:n])
}
