// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcnv

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/go-lpc/adda/internal/acqfmt"
	"go-hep.org/x/hep/lcio"
)

// RewriteRun copies the ADC acquisitions read from r to w, assigning
// them to the given run.
// The previous run number is kept in the SourceRun run parameter.
// RewriteRun returns the number of copied events.
func RewriteRun(w *lcio.Writer, r *lcio.Reader, run int32, msg *log.Logger) (int, error) {
	var (
		n    = 0
		name string
	)
	for r.Next() {
		if n == 0 {
			rhdr := r.RunHeader()
			if rhdr.Detector != Detector {
				return n, fmt.Errorf("xcnv: invalid detector %q (want=%q)", rhdr.Detector, Detector)
			}
			hdr, err := headerFrom(rhdr)
			if err != nil {
				return n, fmt.Errorf("could not decode run header: %w", err)
			}
			switch hdr.Mode {
			case acqfmt.Raw:
				name = RawCollection
			case acqfmt.Demod:
				name = DemodCollection
			default:
				return n, fmt.Errorf("xcnv: invalid acquisition mode %d", hdr.Mode)
			}

			params := runParams(hdr)
			params.Ints["SourceRun"] = []int32{rhdr.RunNumber}
			err = w.WriteRunHeader(&lcio.RunHeader{
				RunNumber: run,
				Detector:  Detector,
				Descr:     rhdr.Descr,
				Params:    params,
			})
			if err != nil {
				return n, fmt.Errorf("could not write run header: %w", err)
			}
		}

		evt := r.Event()
		if _, err := collection(evt, name); err != nil {
			return n, fmt.Errorf("could not rewrite event %d: %w", evt.EventNumber, err)
		}
		if n%10 == 0 {
			msg.Printf("processing event %d...", evt.EventNumber)
		}

		evt.RunNumber = run
		err := w.WriteEvent(&evt)
		if err != nil {
			return n, fmt.Errorf("could not write event %d: %w", evt.EventNumber, err)
		}
		n++
	}

	err := r.Err()
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("could not read LCIO file: %w", err)
	}
	return n, nil
}
