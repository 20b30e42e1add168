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

// LCIO2ACQ converts the LCIO events read from r into acquisitions
// written to w.
// Nothing is written when r holds no event.
func LCIO2ACQ(w io.Writer, r *lcio.Reader, freq int, msg *log.Logger) error {
	var (
		enc = acqfmt.NewEncoder(w)
		hdr acqfmt.Header
		i   = 0
	)

	for r.Next() {
		if i == 0 {
			var err error
			hdr, err = headerFrom(r.RunHeader())
			if err != nil {
				return fmt.Errorf("could not decode run header: %w", err)
			}
			err = enc.WriteHeader(hdr)
			if err != nil {
				return fmt.Errorf("could not write acquisition header: %w", err)
			}
		}
		if i%freq == 0 {
			msg.Printf("processing evt %d...", i)
		}

		evt := r.Event()
		acq := acqfmt.Event{
			ID:   uint32(evt.EventNumber),
			Time: evt.TimeStamp,
		}
		var err error
		switch hdr.Mode {
		case acqfmt.Raw:
			err = fromRaw(&acq, evt, int(hdr.Depth))
		case acqfmt.Demod:
			err = fromDemod(&acq, evt)
		}
		if err != nil {
			return fmt.Errorf("could not decode event %d: %w", evt.EventNumber, err)
		}

		err = enc.Encode(&acq)
		if err != nil {
			return fmt.Errorf("could not encode acquisition: %w", err)
		}
		i++
	}

	err := r.Err()
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("could not read LCIO file: %w", err)
	}
	return nil
}

func collection(evt lcio.Event, name string) (*lcio.GenericObject, error) {
	obj, ok := evt.Get(name).(*lcio.GenericObject)
	if !ok || obj == nil {
		return nil, fmt.Errorf("xcnv: missing generic object collection %q", name)
	}
	return obj, nil
}

func fromRaw(acq *acqfmt.Event, evt lcio.Event, depth int) error {
	obj, err := collection(evt, RawCollection)
	if err != nil {
		return err
	}
	for ch := range acq.Raw {
		acq.Raw[ch] = make([][]uint8, len(obj.Data))
	}
	for i, data := range obj.Data {
		if got, want := len(data.I32s), 2*depth; got != want {
			return fmt.Errorf("xcnv: invalid number of samples for trigger %d (got=%d, want=%d)", i, got, want)
		}
		for ch := range acq.Raw {
			smp := make([]uint8, depth)
			for j, v := range data.I32s[ch*depth : (ch+1)*depth] {
				smp[j] = uint8(v)
			}
			acq.Raw[ch][i] = smp
		}
	}
	return nil
}

func fromDemod(acq *acqfmt.Event, evt lcio.Event) error {
	obj, err := collection(evt, DemodCollection)
	if err != nil {
		return err
	}
	for ch := range acq.Demod {
		acq.Demod[ch] = make([]int32, len(obj.Data))
	}
	for i, data := range obj.Data {
		if got, want := len(data.I32s), 2; got != want {
			return fmt.Errorf("xcnv: invalid demodulated values for trigger %d (got=%d, want=%d)", i, got, want)
		}
		acq.Demod[0][i] = data.I32s[0]
		acq.Demod[1][i] = data.I32s[1]
	}
	return nil
}
