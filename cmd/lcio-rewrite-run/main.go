// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// lcio-rewrite-run assigns the ADC acquisitions of a LCIO file to
// another run.
//
// Usage: lcio-rewrite-run [OPTIONS] -run=N FILE.lcio
//
// Example:
//
//	$> lcio-rewrite-run -o output.lcio -run=1234 ./adc_042.lcio
//	lcio-rewrite: processing event 0...
//	lcio-rewrite: processing event 10...
//	lcio-rewrite: run 42 -> 1234: 12 events
package main // import "github.com/go-lpc/adda/cmd/lcio-rewrite-run"

import (
	"compress/flate"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-lpc/adda/internal/xcnv"
	"go-hep.org/x/hep/lcio"
)

const usage = `lcio-rewrite-run assigns the ADC acquisitions of a LCIO file to another run.

Usage: lcio-rewrite-run [OPTIONS] -run=N FILE.lcio

Example:

 $> lcio-rewrite-run -o output.lcio -run=1234 ./adc_042.lcio

`

var msg = log.New(os.Stderr, "lcio-rewrite: ", 0)

func main() {
	var (
		fset = flag.NewFlagSet("lcio-rewrite-run", flag.ExitOnError)

		run   = fset.Int("run", -1, "run number of the rewritten acquisitions")
		oname = fset.String("o", "out.lcio", "path to the output LCIO file")
		lvl   = fset.Int("lvl", flate.BestCompression, "compression level of the output LCIO file")
	)

	fset.Usage = func() {
		fmt.Print(usage)
		fset.PrintDefaults()
	}

	err := fset.Parse(os.Args[1:])
	if err != nil {
		msg.Fatalf("could not parse input arguments: %+v", err)
	}

	switch {
	case fset.NArg() != 1:
		fset.Usage()
		msg.Fatalf("missing input LCIO file to rewrite")
	case *run < 0:
		fset.Usage()
		msg.Fatalf("missing or invalid run number (%d)", *run)
	}

	err = process(*oname, *lvl, fset.Arg(0), int32(*run))
	if err != nil {
		msg.Fatalf("could not rewrite %q: %+v", fset.Arg(0), err)
	}
}

func process(oname string, lvl int, fname string, run int32) error {
	r, err := lcio.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open input LCIO file: %w", err)
	}
	defer r.Close()

	w, err := lcio.Create(oname)
	if err != nil {
		return fmt.Errorf("could not create output LCIO file: %w", err)
	}
	defer w.Close()
	w.SetCompressionLevel(lvl)

	n, err := xcnv.RewriteRun(w, r, run, msg)
	if err != nil {
		return err
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("could not close output LCIO file: %w", err)
	}

	msg.Printf("run %d -> %d: %d events", r.RunHeader().RunNumber, run, n)
	return nil
}
