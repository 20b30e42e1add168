// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xcnv provides tools to convert ADC acquisitions to/from LCIO.
//
// Each acquisition becomes an LCIO event holding a single collection of
// generic objects, with one element per trigger:
//   - ADC_RAW: the depth I samples followed by the depth Q samples,
//   - ADC_DEMOD: the demodulated I and Q values.
//
// The acquisition header is stored in the LCIO run header parameters.
package xcnv // import "github.com/go-lpc/adda/internal/xcnv"

import (
	"fmt"
	"net"

	"github.com/go-lpc/adda/internal/acqfmt"
	"go-hep.org/x/hep/lcio"
)

const (
	Detector = "USTC-ADC"

	RawCollection   = "ADC_RAW"
	DemodCollection = "ADC_DEMOD"
)

func runParams(hdr acqfmt.Header) lcio.Params {
	return lcio.Params{
		Ints: map[string][]int32{
			"Version":     {int32(hdr.Version)},
			"Mode":        {int32(hdr.Mode)},
			"TrigCount":   {int32(hdr.Trig)},
			"SampleDepth": {int32(hdr.Depth)},
		},
		Strings: map[string][]string{
			"Board": {hdr.BoardAddr().String()},
		},
	}
}

func headerFrom(rhdr lcio.RunHeader) (acqfmt.Header, error) {
	var hdr acqfmt.Header
	get := func(name string) (int32, error) {
		v := rhdr.Params.Ints[name]
		if len(v) != 1 {
			return 0, fmt.Errorf("xcnv: missing run parameter %q", name)
		}
		return v[0], nil
	}

	for _, p := range []struct {
		name string
		set  func(v int32)
	}{
		{"Version", func(v int32) { hdr.Version = uint8(v) }},
		{"Mode", func(v int32) { hdr.Mode = acqfmt.Mode(v) }},
		{"TrigCount", func(v int32) { hdr.Trig = uint16(v) }},
		{"SampleDepth", func(v int32) { hdr.Depth = uint16(v) }},
	} {
		v, err := get(p.name)
		if err != nil {
			return hdr, err
		}
		p.set(v)
	}

	board := rhdr.Params.Strings["Board"]
	if len(board) != 1 {
		return hdr, fmt.Errorf("xcnv: missing run parameter %q", "Board")
	}
	mac, err := net.ParseMAC(board[0])
	if err != nil || len(mac) != len(hdr.Board) {
		return hdr, fmt.Errorf("xcnv: invalid board address %q", board[0])
	}
	copy(hdr.Board[:], mac)

	return hdr, nil
}
