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

// ACQ2LCIO converts the acquisitions read from dec into LCIO events of
// the given run.
func ACQ2LCIO(w *lcio.Writer, dec *acqfmt.Decoder, run int32, msg *log.Logger) error {
	hdr, err := dec.ReadHeader()
	if err != nil {
		return fmt.Errorf("could not read acquisition header: %w", err)
	}

	err = w.WriteRunHeader(&lcio.RunHeader{
		RunNumber: run,
		Detector:  Detector,
		Descr:     fmt.Sprintf("%v acquisitions of ADC %v", hdr.Mode, hdr.BoardAddr()),
		Params:    runParams(hdr),
	})
	if err != nil {
		return fmt.Errorf("could not write run header: %w", err)
	}

loop:
	for i := 0; ; i++ {
		if i%100 == 0 {
			msg.Printf("processing evt %d...", i)
		}
		var acq acqfmt.Event
		err := dec.Decode(&acq)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break loop
			}
			return fmt.Errorf("could not decode acquisition: %w", err)
		}

		evt := lcio.Event{
			RunNumber:   run,
			EventNumber: int32(acq.ID),
			TimeStamp:   acq.Time,
			Detector:    Detector,
		}
		switch hdr.Mode {
		case acqfmt.Raw:
			evt.Add(RawCollection, rawObject(&acq))
		case acqfmt.Demod:
			evt.Add(DemodCollection, demodObject(&acq))
		}

		err = w.WriteEvent(&evt)
		if err != nil {
			return fmt.Errorf("could not write event %d: %w", acq.ID, err)
		}
	}

	return nil
}

func rawObject(acq *acqfmt.Event) *lcio.GenericObject {
	obj := &lcio.GenericObject{
		Data: make([]lcio.GenericObjectData, len(acq.Raw[0])),
	}
	for i := range obj.Data {
		var (
			smpI = acq.Raw[0][i]
			smpQ = acq.Raw[1][i]
			vs   = make([]int32, 0, len(smpI)+len(smpQ))
		)
		for _, v := range smpI {
			vs = append(vs, int32(v))
		}
		for _, v := range smpQ {
			vs = append(vs, int32(v))
		}
		obj.Data[i].I32s = vs
	}
	return obj
}

func demodObject(acq *acqfmt.Event) *lcio.GenericObject {
	obj := &lcio.GenericObject{
		Data: make([]lcio.GenericObjectData, len(acq.Demod[0])),
	}
	for i := range obj.Data {
		obj.Data[i].I32s = []int32{acq.Demod[0][i], acq.Demod[1][i]}
	}
	return obj
}
