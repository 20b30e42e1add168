// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// acq-dump decodes and displays ADC acquisition files.
//
// Usage: acq-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> acq-dump ./adc_042.acq
//	=== ADC 00:00:00:00:00:01 ===
//	Version:  1
//	Mode:     demod
//	Triggers: 2
//	Depth:    0
//	--- event 0 (2020-09-13T12:26:40Z) ---
//	  trig=   0 I=      1000 Q=     -1000
//	  trig=   1 I=      2000 Q=     -2000
//	[...]
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/go-lpc/adda/internal/acqfmt"
)

func main() {
	log.SetPrefix("acq-dump: ")
	log.SetFlags(0)

	samples := flag.Bool("samples", false, "display raw samples")

	flag.Usage = func() {
		fmt.Printf(`acq-dump decodes and displays ADC acquisition files.

Usage: acq-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> acq-dump ./adc_042.acq
 === ADC 00:00:00:00:00:01 ===
 Version:  1
 Mode:     demod
 Triggers: 2
 Depth:    0
 --- event 0 (2020-09-13T12:26:40Z) ---
   trig=   0 I=      1000 Q=     -1000
   trig=   1 I=      2000 Q=     -2000
 [...]

options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		log.Fatalf("missing path to input ADC file")
	}

	for _, fname := range flag.Args() {
		err := process(os.Stdout, fname, *samples)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}
}

func process(w io.Writer, fname string, samples bool) error {
	f, err := os.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer f.Close()

	return dump(w, acqfmt.NewDecoder(bufio.NewReader(f)), samples)
}

func dump(w io.Writer, dec *acqfmt.Decoder, samples bool) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	hdr, err := dec.ReadHeader()
	if err != nil {
		return fmt.Errorf("could not decode header: %w", err)
	}
	fmt.Fprintf(wbuf, "=== ADC %v ===\n", hdr.BoardAddr())
	fmt.Fprintf(wbuf, "Version:  %d\n", hdr.Version)
	fmt.Fprintf(wbuf, "Mode:     %v\n", hdr.Mode)
	fmt.Fprintf(wbuf, "Triggers: %d\n", hdr.Trig)
	fmt.Fprintf(wbuf, "Depth:    %d\n", hdr.Depth)

loop:
	for {
		var evt acqfmt.Event
		err := dec.Decode(&evt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break loop
			}
			return fmt.Errorf("could not decode event: %w", err)
		}
		fmt.Fprintf(wbuf, "--- event %d (%s) ---\n",
			evt.ID, time.Unix(0, evt.Time).UTC().Format(time.RFC3339Nano),
		)

		switch hdr.Mode {
		case acqfmt.Demod:
			for i := range evt.Demod[0] {
				fmt.Fprintf(wbuf, "  trig=% 4d I=% 10d Q=% 10d\n",
					i, evt.Demod[0][i], evt.Demod[1][i],
				)
			}
		default:
			for i := range evt.Raw[0] {
				var (
					smpI = evt.Raw[0][i]
					smpQ = evt.Raw[1][i]
				)
				if !samples {
					fmt.Fprintf(wbuf, "  trig=% 4d I=[%d samples] Q=[%d samples]\n",
						i, len(smpI), len(smpQ),
					)
					continue
				}
				fmt.Fprintf(wbuf, "  trig=% 4d I=%x\n", i, smpI)
				fmt.Fprintf(wbuf, "  trig=% 4d Q=%x\n", i, smpQ)
			}
		}
	}

	return nil
}
