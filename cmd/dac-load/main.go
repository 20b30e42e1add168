// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command dac-load loads wave and sequence files into DAC boards.
//
// Usage: dac-load [options] bench.yaml [dac-name...]
//
// Boards are described by the bench configuration file. All the DAC
// boards of the bench are loaded, concurrently, unless some names are
// given on the command line.
//
// Wave files hold little-endian int32 samples, sequence files hold
// little-endian uint64 descriptors. Relative file names are resolved
// with respect to the directory of the configuration file.
package main // import "github.com/go-lpc/adda/cmd/dac-load"

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/go-lpc/adda/dac"
	"github.com/go-lpc/adda/internal/config"
	"github.com/go-lpc/adda/internal/mmap"
	"golang.org/x/sync/errgroup"
)

func main() {
	log.SetPrefix("dac-load: ")
	log.SetFlags(0)

	var (
		start = flag.Bool("start", true, "start the loaded channels")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: dac-load [options] bench.yaml [dac-name...]

ex:
 $> dac-load ./bench.yaml
 $> dac-load -start=false ./bench.yaml dac-01

options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		log.Fatalf("missing bench configuration file")
	}

	err := process(flag.Arg(0), flag.Args()[1:], *start)
	if err != nil {
		log.Fatalf("could not load DAC boards: %+v", err)
	}
}

func process(fname string, names []string, start bool, opts ...dac.Option) error {
	cfg, err := config.Load(fname)
	if err != nil {
		return err
	}

	boards := cfg.DACs
	if len(names) > 0 {
		boards = boards[:0:0]
		for _, name := range names {
			board, ok := cfg.DAC(name)
			if !ok {
				return fmt.Errorf("no DAC %q in %q", name, fname)
			}
			boards = append(boards, board)
		}
	}

	dir := filepath.Dir(fname)

	var grp errgroup.Group
	for i := range boards {
		board := boards[i]
		grp.Go(func() error {
			err := load(board, dir, start, opts...)
			if err != nil {
				return fmt.Errorf("could not load DAC %q: %w", board.Name, err)
			}
			return nil
		})
	}
	return grp.Wait()
}

func load(board config.DAC, dir string, start bool, opts ...dac.Option) error {
	opts = append([]dac.Option{
		dac.WithBlocking(board.Blocking),
		dac.WithLogger(log.New(os.Stdout, "dac-load: "+board.Name+": ", 0)),
	}, opts...)
	if board.Legacy {
		opts = append(opts, dac.WithLegacyRegisterEncoding())
	}

	dev := dac.New(board.Addr, opts...)
	err := dev.Open()
	if err != nil {
		return err
	}
	defer dev.Close()

	log.Printf("loading %q (%s)...", board.Name, dev.Addr())

	err = dev.InitBoard()
	if err != nil {
		return err
	}

	for i, v := range board.Volts {
		err = dev.SetDefaultVolt(i+1, v)
		if err != nil {
			return err
		}
	}

	var (
		loops [4]uint16
		mask  uint32
	)
	for _, ch := range board.Channels {
		if ch.Wave != "" {
			wave, err := readWave(path(dir, ch.Wave))
			if err != nil {
				return err
			}
			err = dev.WriteWave(ch.ID, 0, wave)
			if err != nil {
				return err
			}
		}

		if ch.Seq != "" {
			seq, err := readSeq(path(dir, ch.Seq))
			if err != nil {
				return err
			}
			err = dev.WriteSeq(ch.ID, 0, seq)
			if err != nil {
				return err
			}
		}

		loops[ch.ID-1] = ch.Loop
		mask |= 1 << (ch.ID - 1)
	}

	err = dev.SetLoop(loops[0], loops[1], loops[2], loops[3])
	if err != nil {
		return err
	}

	if start && mask != 0 {
		err = dev.StartStop(mask)
		if err != nil {
			return err
		}
	}

	ok, pos, err := dev.CheckSucceeded()
	if err != nil {
		return err
	}
	if !ok {
		cmd, err := dev.Instruction(pos)
		if err != nil {
			return fmt.Errorf("function at offset %d failed", pos)
		}
		return fmt.Errorf("function %+v at offset %d failed", cmd, pos)
	}

	log.Printf("loading %q (%s)... [done]", board.Name, dev.Addr())
	return dev.Close()
}

func path(dir, fname string) string {
	if filepath.IsAbs(fname) {
		return fname
	}
	return filepath.Join(dir, fname)
}

func readWave(fname string) ([]int32, error) {
	raw, err := readFile(fname, 4)
	if err != nil {
		return nil, err
	}
	wave := make([]int32, len(raw)/4)
	for i := range wave {
		wave[i] = int32(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return wave, nil
}

func readSeq(fname string) ([]uint64, error) {
	raw, err := readFile(fname, 8)
	if err != nil {
		return nil, err
	}
	seq := make([]uint64, len(raw)/8)
	for i := range seq {
		seq[i] = binary.LittleEndian.Uint64(raw[8*i:])
	}
	return seq, nil
}

// readFile returns a copy of the content of fname, a sequence of
// size-byte values.
func readFile(fname string, size int) ([]byte, error) {
	f, err := mmap.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer f.Close()

	if n := f.Len(); n%size != 0 {
		return nil, fmt.Errorf("invalid size of %q (%d bytes, not a multiple of %d)", fname, n, size)
	}
	return append([]byte(nil), f.Bytes()...), nil
}
