// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command lcio2acq converts a LCIO file into an ADC acquisition file.
package main // import "github.com/go-lpc/adda/cmd/lcio2acq"

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/adda/internal/xcnv"
	"go-hep.org/x/hep/lcio"
)

func main() {
	log.SetPrefix("lcio2acq: ")
	log.SetFlags(0)

	var (
		oname = flag.String("o", "out.acq", "path to output ADC acquisition file")
	)

	flag.Usage = func() {
		fmt.Printf(`Usage: lcio2acq [OPTIONS] file.lcio

ex:
 $> lcio2acq -o out.acq ./input.lcio

options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		log.Fatalf("missing input LCIO file")
	}

	if *oname == "" {
		flag.Usage()
		log.Fatalf("invalid output ADC file name")
	}

	n, err := numEvents(flag.Arg(0))
	if err != nil {
		log.Fatalf("could not assess number of events: %+v", err)
	}
	log.Printf("input:  %s", flag.Arg(0))
	log.Printf("events: %d", n)

	err = process(*oname, flag.Arg(0), int(n/10))
	if err != nil {
		log.Fatalf("could not convert LCIO file: %+v", err)
	}
}

func numEvents(fname string) (int64, error) {
	r, err := lcio.Open(fname)
	if err != nil {
		return 0, fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer r.Close()

	var n int64
	for r.Next() {
		n++
	}

	err = r.Err()
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("could not assess number of events in %q: %w", fname, err)
	}

	return n, nil
}

func process(oname, fname string, freq int) error {
	if freq < 1 {
		freq = 1
	}

	r, err := lcio.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open LCIO file: %w", err)
	}
	defer r.Close()

	f, err := os.Create(oname)
	if err != nil {
		return fmt.Errorf("could not create output ADC file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	err = xcnv.LCIO2ACQ(w, r, freq, log.Default())
	if err != nil {
		return fmt.Errorf("could not convert LCIO to ADC: %w", err)
	}

	err = w.Flush()
	if err != nil {
		return fmt.Errorf("could not flush output ADC file: %w", err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("could not close output ADC file: %w", err)
	}
	return nil
}
