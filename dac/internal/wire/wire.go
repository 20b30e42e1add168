// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package wire implements the framing of the DAC control protocol over TCP.
//
// A request frame is laid out as:
//
//	u16 magic | u8 kind | u8 0 | u32 code | u32 p1 | u32 p2 | u32 len | payload | u16 crc
//
// and a reply frame as:
//
//	u16 magic | u8 kind | u8 0 | i32 status | i32 state | u32 data | u32 len | payload | u16 crc
//
// All fields are big-endian. The CRC-16 (CCITT-FALSE) covers every byte
// of the frame before it.
package wire // import "github.com/go-lpc/adda/dac/internal/wire"

import (
	"errors"
	"fmt"
)

const (
	Magic = 0xDA7A

	// MaxPayload is the largest payload accepted in a frame.
	MaxPayload = 1 << 24

	hdrLen = 20
	crcLen = 2
)

var (
	ErrMagic   = errors.New("wire: invalid frame magic")
	ErrCRC     = errors.New("wire: invalid frame checksum")
	ErrPayload = errors.New("wire: payload too large")
)

// Kind identifies a request and its reply.
type Kind uint8

const (
	KindOpen Kind = iota + 1
	KindClose
	KindWriteInstruction
	KindWriteMemory
	KindReadMemory
	KindFunctionType
	KindReturn
	KindCheckFinished
	KindWaitFinished
	KindCheckSucceeded
	KindSetTimeout
	KindInfo
)

var kindNames = [...]string{
	KindOpen:             "open",
	KindClose:            "close",
	KindWriteInstruction: "write-instruction",
	KindWriteMemory:      "write-memory",
	KindReadMemory:       "read-memory",
	KindFunctionType:     "function-type",
	KindReturn:           "get-return",
	KindCheckFinished:    "check-finished",
	KindWaitFinished:     "wait-finished",
	KindCheckSucceeded:   "check-succeeded",
	KindSetTimeout:       "set-timeout",
	KindInfo:             "info",
}

func (k Kind) String() string {
	if k == 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// Request is a command sent to a DAC board.
//
// Field usage per kind:
//   - write-instruction: Code, P1, P2.
//   - write-memory: Code, P1 (start address), Payload.
//   - read-memory: Code, P1 (start address), P2 (length in bytes).
//   - function-type: P1 (offset).
//   - get-return: P1 (offset), P2 (payload length to fetch).
//   - wait-finished: P1 (timeout in ms).
//   - set-timeout: P1 (direction), P2 (timeout in ms).
type Request struct {
	Kind    Kind
	Code    uint32
	P1      uint32
	P2      uint32
	Payload []byte
}

// Reply is the answer of a DAC board to a Request.
//
// Field usage per kind:
//   - function-type: State (function type), Data (code), Payload (p1, p2 as u32).
//   - get-return: State, Data, Payload.
//   - check-finished: Data (1 when finished).
//   - check-succeeded: Data (1 on success), State (failing position).
//   - info: Payload (text).
type Reply struct {
	Kind    Kind
	Status  int32
	State   int32
	Data    uint32
	Payload []byte
}
