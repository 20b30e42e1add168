// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dac

import (
	"encoding/binary"
	"fmt"
)

// EncodeWave converts samples into the memory word order of the DAC.
//
// The output is padded to a multiple of 8 words.
// Within each complete pair of samples, the two words are swapped.
// An unpaired last sample is not stored: its slot holds the pad word.
// Samples are truncated to their low 16 bits.
func EncodeWave(samples []int32) []uint16 {
	n := len(samples)
	if n%waveAlign != 0 {
		n = ((n >> 3) + 1) << 3
	}
	out := make([]uint16, n)
	for i := range out {
		out[i] = padWord
	}
	for i := 1; i < len(samples); i += 2 {
		out[i-1], out[i] = uint16(samples[i]), uint16(samples[i-1])
	}
	return out
}

// DecodeWave reverses EncodeWave, returning the first n samples.
// The unpaired last sample of an odd n reads back as the pad word.
func DecodeWave(words []uint16, n int) []int32 {
	if n > len(words) {
		n = len(words)
	}
	out := make([]int32, n)
	for i := 1; i < n; i += 2 {
		out[i-1], out[i] = int32(words[i]), int32(words[i-1])
	}
	if n%2 != 0 {
		out[n-1] = padWord
	}
	return out
}

// EncodeSequence converts sequence descriptors into the memory word order
// of the DAC sequencer: bits [32:48), [48:64), [0:16) then [16:32).
func EncodeSequence(seq []uint64) []uint16 {
	out := make([]uint16, 4*len(seq))
	for i, v := range seq {
		w := out[4*i : 4*i+4]
		w[0] = uint16(v >> 32)
		w[1] = uint16(v >> 48)
		w[2] = uint16(v >> 0)
		w[3] = uint16(v >> 16)
	}
	return out
}

// DecodeSequence reverses EncodeSequence.
func DecodeSequence(words []uint16) ([]uint64, error) {
	if len(words)%4 != 0 {
		return nil, fmt.Errorf("dac: sequence memory size %d not a multiple of 4 words", len(words))
	}
	out := make([]uint64, len(words)/4)
	for i := range out {
		w := words[4*i : 4*i+4]
		out[i] = uint64(w[0])<<32 | uint64(w[1])<<48 | uint64(w[2]) | uint64(w[3])<<16
	}
	return out, nil
}

// wireBytes serializes words as little-endian 16-bit values,
// the byte order of the DAC memory.
func wireBytes(words []uint16) []byte {
	buf := make([]byte, 2*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint16(buf[2*i:], w)
	}
	return buf
}

// wireWords reverses wireBytes. A trailing odd byte is dropped.
func wireWords(buf []byte) []uint16 {
	out := make([]uint16, len(buf)/2)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(buf[2*i:])
	}
	return out
}
