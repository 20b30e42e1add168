// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-lpc/adda/internal/acqfmt"
	"github.com/go-lpc/adda/internal/xcnv"
	"go-hep.org/x/hep/lcio"
)

func TestLCIO2ACQ(t *testing.T) {
	tmp := t.TempDir()

	ref := new(bytes.Buffer)
	enc := acqfmt.NewEncoder(ref)
	err := enc.WriteHeader(acqfmt.Header{
		Mode:  acqfmt.Raw,
		Trig:  2,
		Depth: 3,
		Board: [6]byte{0, 0, 0, 0, 0, 1},
	})
	if err != nil {
		t.Fatalf("could not write ADC header: %+v", err)
	}
	for i := 0; i < 4; i++ {
		err = enc.Encode(&acqfmt.Event{
			ID:   uint32(i),
			Time: int64(1000 + i),
			Raw: [2][][]uint8{
				{{1, 2, 3}, {4, 5, 6}},
				{{7, 8, 9}, {10, 11, uint8(i)}},
			},
		})
		if err != nil {
			t.Fatalf("could not encode event %d: %+v", i, err)
		}
	}

	fname := filepath.Join(tmp, "ref.lcio")
	w, err := lcio.Create(fname)
	if err != nil {
		t.Fatalf("could not create LCIO file: %+v", err)
	}
	defer w.Close()

	msg := log.New(io.Discard, "", 0)
	err = xcnv.ACQ2LCIO(w, acqfmt.NewDecoder(bytes.NewReader(ref.Bytes())), 42, msg)
	if err != nil {
		t.Fatalf("could not convert to LCIO: %+v", err)
	}

	err = w.Close()
	if err != nil {
		t.Fatalf("could not close LCIO file: %+v", err)
	}

	n, err := numEvents(fname)
	if err != nil {
		t.Fatalf("could not count events: %+v", err)
	}
	if got, want := n, int64(4); got != want {
		t.Fatalf("invalid number of events: got=%d, want=%d", got, want)
	}

	oname := filepath.Join(tmp, "out.acq")
	err = process(oname, fname, int(n/10))
	if err != nil {
		t.Fatalf("could not convert LCIO file: %+v", err)
	}

	got, err := os.ReadFile(oname)
	if err != nil {
		t.Fatalf("could not read ADC file: %+v", err)
	}

	if !bytes.Equal(got, ref.Bytes()) {
		t.Fatalf("ADC files differ")
	}
}
