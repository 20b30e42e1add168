// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package adda holds code to control the USTC waveform digitizer (ADC)
// and waveform generator (DAC) boards.
//
// The instrument command protocols live in the sub-packages:
//
//   - adc: instruction frames sent over raw Ethernet to the digitizer,
//   - dac: wave/sequence memory encoding and the asynchronous
//     instruction/return queue of the generator,
//   - instr: errors and policies shared by both.
package adda // import "github.com/go-lpc/adda"

import (
	"fmt"
	"runtime/debug"
)

// Version returns the version of adda and its checksum.
// The returned values are only valid in binaries built with module support.
func Version() (version, sum string) {
	b, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	return versionOf(b)
}

func versionOf(b *debug.BuildInfo) (version, sum string) {
	if b == nil {
		return "", ""
	}

	const root = "github.com/go-lpc/adda"
	for _, m := range b.Deps {
		if m.Path != root {
			continue
		}
		if m.Replace != nil {
			switch {
			case m.Replace.Version != "" && m.Replace.Path != "":
				return fmt.Sprintf("%s %s", m.Replace.Path, m.Replace.Version), m.Replace.Sum
			case m.Replace.Version != "":
				return m.Replace.Version, m.Replace.Sum
			case m.Replace.Path != "":
				return m.Replace.Path, m.Replace.Sum
			default:
				return m.Version + "*", ""
			}
		}
		return m.Version, m.Sum
	}
	return "", ""
}
