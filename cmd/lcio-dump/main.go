// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// lcio-dump decodes and displays ADC acquisitions embedded in LCIO files.
//
// Usage: lcio-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> lcio-dump ./adc_042.lcio
//	=== ADC 00:00:00:00:00:01 ===
//	Mode:     demod
//	Triggers: 2
//	Depth:    0
//	--- event 0 ---
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

	"github.com/go-lpc/adda/internal/acqfmt"
	"github.com/go-lpc/adda/internal/xcnv"
	"go-hep.org/x/hep/lcio"
)

const usage = `lcio-dump decodes and displays ADC acquisitions embedded in LCIO files.

Usage: lcio-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> lcio-dump ./adc_042.lcio
 === ADC 00:00:00:00:00:01 ===
 Mode:     demod
 Triggers: 2
 Depth:    0
 --- event 0 ---
   trig=   0 I=      1000 Q=     -1000
   trig=   1 I=      2000 Q=     -2000
 [...]

`

func main() {
	xmain(os.Stdout, os.Args[1:])
}

func xmain(w io.Writer, args []string) {
	log.SetPrefix("lcio-dump: ")
	log.SetFlags(0)

	var (
		fset = flag.NewFlagSet("lcio", flag.ExitOnError)

		nevts = fset.Int("n", -1, "number of events to display (-1: all)")
	)

	fset.Usage = func() {
		fmt.Print(usage)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	if fset.NArg() == 0 {
		fset.Usage()
		log.Fatalf("missing path to input LCIO file")
	}

	for _, fname := range fset.Args() {
		err := process(w, fname, *nevts)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}
}

func process(w io.Writer, fname string, nevts int) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	r, err := lcio.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open LCIO file: %w", err)
	}
	defer r.Close()

	rp, wp := io.Pipe()
	defer rp.Close()

	msg := log.New(io.Discard, "", 0)
	ch := make(chan error, 1)
	go func() {
		err := xcnv.LCIO2ACQ(wp, r, 100, msg)
		_ = wp.CloseWithError(err)
		ch <- err
	}()

	dec := acqfmt.NewDecoder(rp)
	hdr, err := dec.ReadHeader()
	if err != nil {
		if errors.Is(err, io.EOF) {
			// no event.
			return <-ch
		}
		_ = rp.CloseWithError(err)
		<-ch
		return fmt.Errorf("could not decode acquisition header: %w", err)
	}
	fmt.Fprintf(wbuf, "=== ADC %v ===\n", hdr.BoardAddr())
	fmt.Fprintf(wbuf, "Mode:     %v\n", hdr.Mode)
	fmt.Fprintf(wbuf, "Triggers: %d\n", hdr.Trig)
	fmt.Fprintf(wbuf, "Depth:    %d\n", hdr.Depth)

loop:
	for i := 0; nevts < 0 || i < nevts; i++ {
		var evt acqfmt.Event
		err := dec.Decode(&evt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break loop
			}
			_ = rp.CloseWithError(err)
			<-ch
			return fmt.Errorf("could not decode acquisition: %w", err)
		}
		fmt.Fprintf(wbuf, "--- event %d ---\n", evt.ID)

		switch hdr.Mode {
		case acqfmt.Demod:
			for i := range evt.Demod[0] {
				fmt.Fprintf(wbuf, "  trig=% 4d I=% 10d Q=% 10d\n",
					i, evt.Demod[0][i], evt.Demod[1][i],
				)
			}
		default:
			for i := range evt.Raw[0] {
				fmt.Fprintf(wbuf, "  trig=% 4d I=%x\n", i, evt.Raw[0][i])
				fmt.Fprintf(wbuf, "  trig=% 4d Q=%x\n", i, evt.Raw[1][i])
			}
		}
	}

	// unblock the converter when not all events were displayed.
	_ = rp.Close()

	err = <-ch
	if err != nil && !errors.Is(err, io.ErrClosedPipe) {
		return fmt.Errorf("could not convert LCIO events: %w", err)
	}

	return nil
}
