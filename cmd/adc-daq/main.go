// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command adc-daq starts a TDAQ process driving an ADC board.
//
// Usage: adc-daq [tdaq-options] bench.yaml adc-name
//
// Each acquisition is published on the /adc output stream, as a
// self-contained acquisition file holding a single event.
package main // import "github.com/go-lpc/adda/cmd/adc-daq"

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
	"github.com/go-lpc/adda/adc"
	"github.com/go-lpc/adda/internal/acqfmt"
	"github.com/go-lpc/adda/internal/config"
)

func main() {
	cmd := flags.New()
	if len(cmd.Args) != 2 {
		log.Fatalf("adc-daq: missing bench configuration file and ADC name")
	}

	dev := newDAQ(cmd.Args[0], cmd.Args[1])

	srv := tdaq.New(cmd, os.Stdout)
	srv.CmdHandle("/config", dev.OnConfig)
	srv.CmdHandle("/init", dev.OnInit)
	srv.CmdHandle("/reset", dev.OnReset)
	srv.CmdHandle("/start", dev.OnStart)
	srv.CmdHandle("/stop", dev.OnStop)
	srv.CmdHandle("/quit", dev.OnQuit)

	srv.OutputHandle("/adc", dev.adc)

	srv.RunHandle(dev.run)

	err := srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}

type daq struct {
	fname string // bench configuration file
	name  string // ADC board name
	opts  []adc.Option

	data chan []byte // encoded acquisitions, created once

	mu  sync.Mutex // guards the fields below against the run loop
	dev *adc.Device
	hdr acqfmt.Header
	n   uint32 // number of acquisitions
}

func newDAQ(fname, name string, opts ...adc.Option) *daq {
	return &daq{
		fname: fname,
		name:  name,
		opts:  opts,
		data:  make(chan []byte, 1024),
	}
}

func (dev *daq) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")

	cfg, err := config.Load(dev.fname)
	if err != nil {
		ctx.Msg.Errorf("could not load bench configuration: %+v", err)
		return err
	}

	board, ok := cfg.ADC(dev.name)
	if !ok {
		err = fmt.Errorf("adc-daq: no ADC %q in %q", dev.name, dev.fname)
		ctx.Msg.Errorf("%+v", err)
		return err
	}

	err = dev.configure(board)
	if err != nil {
		ctx.Msg.Errorf("could not configure ADC %q: %+v", dev.name, err)
		return err
	}

	return nil
}

func (dev *daq) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	dev.reset()
	return nil
}

func (dev *daq) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	dev.reset()
	return nil
}

func (dev *daq) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.dev == nil {
		return fmt.Errorf("adc-daq: ADC %q not configured", dev.name)
	}
	return dev.dev.Enable()
}

func (dev *daq) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /stop command... -> n=%d", dev.count())
	return nil
}

func (dev *daq) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.dev == nil {
		return nil
	}
	return dev.dev.Close()
}

func (dev *daq) adc(ctx tdaq.Context, dst *tdaq.Frame) error {
	select {
	case <-ctx.Ctx.Done():
		dst.Body = nil
		return nil
	case data := <-dev.data:
		dst.Body = data
	}
	return nil
}

func (dev *daq) run(ctx tdaq.Context) error {
	for {
		select {
		case <-ctx.Ctx.Done():
			return nil
		default:
			raw, err := dev.acquire()
			switch {
			case err == nil:
				select {
				case dev.data <- raw:
				default:
					ctx.Msg.Infof("output queue full: dropping acquisition")
				}
			case errors.Is(err, adc.StatusTimeout):
				// no trigger.
			default:
				ctx.Msg.Errorf("could not acquire data: %+v", err)
				return err
			}
		}
	}
}

// configure opens the ADC board and applies its acquisition settings.
func (dev *daq) configure(board config.ADC) error {
	src, dst, err := board.HardwareAddrs()
	if err != nil {
		return err
	}

	dev.mu.Lock()
	defer dev.mu.Unlock()

	if dev.dev != nil {
		_ = dev.dev.Close()
	}
	dev.dev = adc.New(src, dst, dev.opts...)
	err = dev.dev.Open()
	if err != nil {
		return err
	}

	for _, f := range []func() error{
		func() error { return dev.dev.SetDemodMode(board.Demod) },
		func() error { return dev.dev.SetSampleDepth(board.SampleDepth) },
		func() error { return dev.dev.SetTrigCount(board.TrigCount) },
		func() error { return dev.dev.SetWindowStart(board.WindowStart) },
		func() error { return dev.dev.SetWindowWidth(board.WindowWidth) },
		func() error { return dev.dev.SetDemodFreq(board.DemodFreq) },
		func() error { return dev.dev.SetGain(board.GainI, board.GainQ) },
	} {
		err = f()
		if err != nil {
			return err
		}
	}

	dev.hdr = acqfmt.Header{
		Version: acqfmt.Version,
		Mode:    acqfmt.Raw,
		Trig:    uint16(board.TrigCount),
		Depth:   uint16(board.SampleDepth),
	}
	if board.Demod {
		dev.hdr.Mode = acqfmt.Demod
	}
	copy(dev.hdr.Board[:], dst)

	dev.clear()
	return nil
}

// reset drops the pending acquisitions and restarts the acquisition count.
func (dev *daq) reset() {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.clear()
}

func (dev *daq) clear() {
	dev.n = 0
	for {
		select {
		case <-dev.data:
		default:
			return
		}
	}
}

func (dev *daq) count() uint32 {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.n
}

// acquire receives an acquisition from the board and encodes it as a
// single-event acquisition file.
func (dev *daq) acquire() ([]byte, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	if dev.dev == nil {
		return nil, fmt.Errorf("adc-daq: ADC %q not configured", dev.name)
	}

	evt := acqfmt.Event{
		ID:   dev.n,
		Time: time.Now().UTC().UnixNano(),
	}

	var err error
	switch dev.hdr.Mode {
	case acqfmt.Demod:
		evt.Demod, err = dev.dev.RecvDemo()
	default:
		evt.Raw, err = dev.dev.RecvData()
	}
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	enc := acqfmt.NewEncoder(buf)
	err = enc.WriteHeader(dev.hdr)
	if err != nil {
		return nil, fmt.Errorf("adc-daq: could not write acquisition header: %w", err)
	}
	err = enc.Encode(&evt)
	if err != nil {
		return nil, fmt.Errorf("adc-daq: could not encode acquisition %d: %w", evt.ID, err)
	}
	dev.n++

	return buf.Bytes(), nil
}
