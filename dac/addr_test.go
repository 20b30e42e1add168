// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dac

import (
	"testing"

	"github.com/go-lpc/adda/instr"
)

func TestAddress(t *testing.T) {
	for _, tc := range []struct {
		name string
		got  uint32
		want uint32
	}{
		{"wave-1-0", WaveAddress(1, 0), 0},
		{"seq-1-0", SeqAddress(1, 0), 1 << 18},
		{"wave-2-0", WaveAddress(2, 0), 2 << 18},
		{"wave-1-3", WaveAddress(1, 3), 6},
		{"seq-4-2", SeqAddress(4, 2), 7<<18 + 16},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Fatalf("got=%#x, want=%#x", tc.got, tc.want)
			}
		})
	}
}

func TestAddressRegions(t *testing.T) {
	type region struct {
		name     string
		beg, end uint32 // [beg, end)
	}

	// each region spans a 1<<18-byte sub-window.
	const last = 1<<18 - 1
	var regions []region
	for ch := 1; ch <= NumChannels; ch++ {
		regions = append(regions,
			region{"wave", WaveAddress(ch, 0), WaveAddress(ch, 0) + 1<<chanWindow},
			region{"seq", SeqAddress(ch, 0), SeqAddress(ch, 0) + 1<<chanWindow},
		)
		if beg, end := WaveAddress(ch, 0), WaveAddress(ch, last/2); end < beg || end >= beg+1<<chanWindow {
			t.Fatalf("channel %d: wave window overflow: [%#x, %#x]", ch, beg, end)
		}
		if beg, end := SeqAddress(ch, 0), SeqAddress(ch, last/8); end < beg || end >= beg+1<<chanWindow {
			t.Fatalf("channel %d: seq window overflow: [%#x, %#x]", ch, beg, end)
		}
	}

	for i, a := range regions {
		for j, b := range regions {
			if i == j {
				continue
			}
			if a.beg < b.end && b.beg < a.end {
				t.Fatalf("regions %d (%s) and %d (%s) overlap: [%#x, %#x) [%#x, %#x)",
					i, a.name, j, b.name, a.beg, a.end, b.beg, b.end,
				)
			}
		}
	}
}

func TestCheckChannel(t *testing.T) {
	for _, ch := range []int{-1, 0, 5} {
		err := checkChannel("wave", ch)
		if !instr.IsConfigError(err) {
			t.Fatalf("channel %d: expected a config error, got %+v", ch, err)
		}
	}
	for ch := 1; ch <= NumChannels; ch++ {
		if err := checkChannel("wave", ch); err != nil {
			t.Fatalf("channel %d: %+v", ch, err)
		}
	}
}
