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

// Decoder reads and validates frames from an input stream.
type Decoder struct {
	r   io.Reader
	hdr [hdrLen]byte
	buf [crcLen]byte
	crc crc16.Hash16
}

// NewDecoder returns a new Decoder that reads from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:   r,
		crc: crc16.New(nil),
	}
}

// DecodeRequest reads the next request frame.
// DecodeRequest returns io.EOF when the stream ended cleanly between frames.
func (dec *Decoder) DecodeRequest(req *Request) error {
	kind, payload, err := dec.decode()
	if err != nil {
		return err
	}
	req.Kind = kind
	req.Code = binary.BigEndian.Uint32(dec.hdr[4:])
	req.P1 = binary.BigEndian.Uint32(dec.hdr[8:])
	req.P2 = binary.BigEndian.Uint32(dec.hdr[12:])
	req.Payload = payload
	return nil
}

// DecodeReply reads the next reply frame.
func (dec *Decoder) DecodeReply(rep *Reply) error {
	kind, payload, err := dec.decode()
	if err != nil {
		return err
	}
	rep.Kind = kind
	rep.Status = int32(binary.BigEndian.Uint32(dec.hdr[4:]))
	rep.State = int32(binary.BigEndian.Uint32(dec.hdr[8:]))
	rep.Data = binary.BigEndian.Uint32(dec.hdr[12:])
	rep.Payload = payload
	return nil
}

func (dec *Decoder) decode() (Kind, []byte, error) {
	_, err := io.ReadFull(dec.r, dec.hdr[:])
	if err != nil {
		if err == io.EOF {
			return 0, nil, err
		}
		return 0, nil, fmt.Errorf("wire: could not read frame header: %w", err)
	}

	if v := binary.BigEndian.Uint16(dec.hdr[0:]); v != Magic {
		return 0, nil, fmt.Errorf("wire: got magic 0x%04x: %w", v, ErrMagic)
	}
	kind := Kind(dec.hdr[2])

	n := binary.BigEndian.Uint32(dec.hdr[16:])
	if n > MaxPayload {
		return kind, nil, fmt.Errorf("wire: could not read %v frame of %d bytes: %w", kind, n, ErrPayload)
	}

	var payload []byte
	if n > 0 {
		payload = make([]byte, n)
		_, err = io.ReadFull(dec.r, payload)
		if err != nil {
			return kind, nil, fmt.Errorf("wire: could not read %v payload: %w", kind, noEOF(err))
		}
	}

	_, err = io.ReadFull(dec.r, dec.buf[:])
	if err != nil {
		return kind, nil, fmt.Errorf("wire: could not read %v checksum: %w", kind, noEOF(err))
	}

	dec.crc.Reset()
	_, _ = dec.crc.Write(dec.hdr[:])
	_, _ = dec.crc.Write(payload)
	var (
		got  = binary.BigEndian.Uint16(dec.buf[:])
		want = dec.crc.Sum16()
	)
	if got != want {
		return kind, nil, fmt.Errorf("wire: %v frame checksum 0x%04x (want=0x%04x): %w", kind, got, want, ErrCRC)
	}

	return kind, payload, nil
}

func noEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
