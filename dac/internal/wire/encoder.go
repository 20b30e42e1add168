// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-lpc/adda/internal/crc16"
)

// Encoder writes frames to an output stream.
// Each frame is written with a single call to the underlying writer.
type Encoder struct {
	w   io.Writer
	buf []byte
	crc crc16.Hash16
}

// NewEncoder returns a new Encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		w:   w,
		buf: make([]byte, 0, hdrLen+crcLen),
		crc: crc16.New(nil),
	}
}

// EncodeRequest writes req to the stream.
func (enc *Encoder) EncodeRequest(req Request) error {
	if len(req.Payload) > MaxPayload {
		return fmt.Errorf("wire: could not encode %v request: %w", req.Kind, ErrPayload)
	}
	enc.reset(req.Kind)
	enc.writeU32(req.Code)
	enc.writeU32(req.P1)
	enc.writeU32(req.P2)
	enc.writeU32(uint32(len(req.Payload)))
	enc.write(req.Payload)
	return enc.flush()
}

// EncodeReply writes rep to the stream.
func (enc *Encoder) EncodeReply(rep Reply) error {
	if len(rep.Payload) > MaxPayload {
		return fmt.Errorf("wire: could not encode %v reply: %w", rep.Kind, ErrPayload)
	}
	enc.reset(rep.Kind)
	enc.writeU32(uint32(rep.Status))
	enc.writeU32(uint32(rep.State))
	enc.writeU32(rep.Data)
	enc.writeU32(uint32(len(rep.Payload)))
	enc.write(rep.Payload)
	return enc.flush()
}

func (enc *Encoder) reset(kind Kind) {
	enc.buf = enc.buf[:0]
	enc.writeU16(Magic)
	enc.writeU8(uint8(kind))
	enc.writeU8(0)
}

func (enc *Encoder) flush() error {
	enc.crc.Reset()
	_, _ = enc.crc.Write(enc.buf) // can not fail.
	enc.writeU16(enc.crc.Sum16())

	_, err := enc.w.Write(enc.buf)
	if err != nil {
		return fmt.Errorf("wire: could not write frame: %w", err)
	}
	return nil
}

func (enc *Encoder) write(p []byte) {
	enc.buf = append(enc.buf, p...)
}

func (enc *Encoder) writeU8(v uint8) {
	enc.buf = append(enc.buf, v)
}

func (enc *Encoder) writeU16(v uint16) {
	enc.buf = binary.BigEndian.AppendUint16(enc.buf, v)
}

func (enc *Encoder) writeU32(v uint32) {
	enc.buf = binary.BigEndian.AppendUint32(enc.buf, v)
}
