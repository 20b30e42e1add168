// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"compress/flate"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-lpc/adda/internal/acqfmt"
	"go-hep.org/x/hep/lcio"
)

func TestRunNbrFrom(t *testing.T) {
	for _, tc := range []struct {
		fname string
		run   int32
	}{
		{
			fname: "./adc_063.acq",
			run:   63,
		},
		{
			fname: "/some/dir/adc_663.acq",
			run:   663,
		},
		{
			fname: "../some/dir/adc_009.acq",
			run:   9,
		},
	} {
		t.Run(tc.fname, func(t *testing.T) {
			got, err := runNbrFrom(tc.fname)
			if err != nil {
				t.Fatalf("could not infer run-nbr: %+v", err)
			}
			if got != tc.run {
				t.Fatalf("invalid run: got=%d, want=%d", got, tc.run)
			}
		})
	}

	_, err := runNbrFrom("run.acq")
	if err == nil {
		t.Fatalf("expected an error")
	}
}

func TestADC2LCIO(t *testing.T) {
	tmp := t.TempDir()

	fname := filepath.Join(tmp, "adc_063.acq")
	f, err := os.Create(fname)
	if err != nil {
		t.Fatalf("could not create ADC file: %+v", err)
	}
	defer f.Close()

	enc := acqfmt.NewEncoder(f)
	err = enc.WriteHeader(acqfmt.Header{
		Mode:  acqfmt.Demod,
		Trig:  2,
		Board: [6]byte{0, 0, 0, 0, 0, 1},
	})
	if err != nil {
		t.Fatalf("could not write ADC header: %+v", err)
	}
	for i := 0; i < 3; i++ {
		err = enc.Encode(&acqfmt.Event{
			ID:    uint32(i),
			Time:  int64(1000 + i),
			Demod: [2][]int32{{1, 2}, {-1, -2}},
		})
		if err != nil {
			t.Fatalf("could not encode event %d: %+v", i, err)
		}
	}

	err = f.Close()
	if err != nil {
		t.Fatalf("could not close ADC file: %+v", err)
	}

	oname := fname + ".lcio"
	err = process(oname, flate.DefaultCompression, fname, -1)
	if err != nil {
		t.Fatalf("could not convert ADC file: %+v", err)
	}

	r, err := lcio.Open(oname)
	if err != nil {
		t.Fatalf("could not open LCIO file: %+v", err)
	}
	defer r.Close()

	n := 0
	for r.Next() {
		evt := r.Event()
		if got, want := evt.RunNumber, int32(63); got != want {
			t.Fatalf("invalid run number: got=%d, want=%d", got, want)
		}
		if got, want := evt.EventNumber, int32(n); got != want {
			t.Fatalf("invalid event number: got=%d, want=%d", got, want)
		}
		n++
	}
	if err := r.Err(); err != nil && !errors.Is(err, io.EOF) {
		t.Fatalf("could not read LCIO file: %+v", err)
	}
	if got, want := n, 3; got != want {
		t.Fatalf("invalid number of events: got=%d, want=%d", got, want)
	}
}
