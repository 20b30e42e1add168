// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dacsim

import (
	"errors"
	"io"
	"log"
	"math"
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/go-lpc/adda/dac"
	"github.com/go-lpc/adda/dac/internal/wire"
	"github.com/go-lpc/adda/instr"
	"github.com/prometheus/client_golang/prometheus"
)

type testBench struct {
	brd *Board
	srv *Server
	reg *prometheus.Registry
	dev *dac.Device

	done chan error
}

func newTestBench(t *testing.T, opts ...dac.Option) *testBench {
	t.Helper()

	tb := &testBench{
		brd:  NewBoard(),
		reg:  prometheus.NewRegistry(),
		done: make(chan error, 1),
	}

	srv, err := NewServer("localhost:0", tb.brd,
		WithLogger(log.New(io.Discard, "dacsim: ", 0)),
		WithRegisterer(tb.reg),
	)
	if err != nil {
		t.Fatalf("could not create server: %+v", err)
	}
	tb.srv = srv
	go func() {
		tb.done <- srv.Serve()
	}()

	opts = append([]dac.Option{
		dac.WithDriver(dac.TCP{Dial: time.Second}),
		dac.WithLogger(log.New(io.Discard, "dac: ", 0)),
		dac.WithTimeout(5 * time.Second),
	}, opts...)
	tb.dev = dac.New(srv.Addr().String(), opts...)

	err = tb.dev.Open()
	if err != nil {
		_ = srv.Close()
		t.Fatalf("could not open device: %+v", err)
	}
	return tb
}

func (tb *testBench) close(t *testing.T) {
	t.Helper()
	err := tb.dev.Close()
	if err != nil {
		t.Fatalf("could not close device: %+v", err)
	}
	err = tb.srv.Close()
	if err != nil {
		t.Fatalf("could not close server: %+v", err)
	}
	err = <-tb.done
	if err != nil {
		t.Fatalf("could not run server: %+v", err)
	}
}

func (tb *testBench) counter(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	mfs, err := tb.reg.Gather()
	if err != nil {
		t.Fatalf("could not gather metrics: %+v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	loop:
		for _, m := range mf.GetMetric() {
			for _, lbl := range m.GetLabel() {
				if labels[lbl.GetName()] != lbl.GetValue() {
					continue loop
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestServerFail(t *testing.T) {
	err := Serve(":invalid", NewBoard())
	if err == nil {
		t.Fatalf("expected an error")
	}
}

func TestWaveAndSequence(t *testing.T) {
	tb := newTestBench(t)
	defer tb.close(t)

	wave := make([]int32, 1000+4)
	for i := range wave {
		wave[i] = int32(32768 + 1000*math.Sin(float64(i)/10))
	}
	for ch := 1; ch <= dac.NumChannels; ch++ {
		err := tb.dev.WriteWave(ch, uint32(8*ch), wave)
		if err != nil {
			t.Fatalf("could not write wave to channel %d: %+v", ch, err)
		}
	}
	for ch := 1; ch <= dac.NumChannels; ch++ {
		got, err := tb.dev.ReadWave(ch, uint32(8*ch), len(wave))
		if err != nil {
			t.Fatalf("could not read wave from channel %d: %+v", ch, err)
		}
		if !reflect.DeepEqual(got, wave) {
			t.Fatalf("channel %d: invalid wave read-back", ch)
		}
	}

	raw, err := tb.brd.Memory(dac.WaveAddress(1, 8), 4)
	if err != nil {
		t.Fatalf("could not inspect board memory: %+v", err)
	}
	if got, want := raw, []byte{byte(wave[1]), byte(wave[1] >> 8), byte(wave[0]), byte(wave[0] >> 8)}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid memory layout: got=%#x, want=%#x", got, want)
	}

	seq := []uint64{0x0000_0400_0000_0001, 0x8000_0800_0010_0002}
	err = tb.dev.WriteSeq(2, 0, seq)
	if err != nil {
		t.Fatalf("could not write sequence: %+v", err)
	}
	got, err := tb.dev.ReadSeq(2, 0, len(seq))
	if err != nil {
		t.Fatalf("could not read sequence: %+v", err)
	}
	if !reflect.DeepEqual(got, seq) {
		t.Fatalf("invalid sequence read-back:\ngot= %#x\nwant=%#x", got, seq)
	}

	if got, want := tb.counter(t, "dacsim_memory_bytes_total", map[string]string{"dir": "write"}), float64(4*2*1008+16); got != want {
		t.Fatalf("invalid written bytes: got=%v, want=%v", got, want)
	}
}

func TestBoardCommands(t *testing.T) {
	tb := newTestBench(t, dac.WithBlocking(true))
	defer tb.close(t)

	for _, tc := range []struct {
		name string
		fct  func() error
	}{
		{"init", tb.dev.InitBoard},
		{"power-off", func() error { return tb.dev.PowerOnDAC(2, false) }},
		{"loop", func() error { return tb.dev.SetLoop(1, 2, 3, 4) }},
		{"volt", func() error { return tb.dev.SetDefaultVolt(3, 0x7fff) }},
		{"master", func() error { return tb.dev.SetIsMaster(true) }},
		{"broadcast", func() error { return tb.dev.SetBroadcast(true, 1) }},
		{"trig-count", func() error { return tb.dev.SetTrigCount(42) }},
		{"start", func() error { return tb.dev.StartStop(0x0f) }},
		{"stop", func() error { return tb.dev.StartStop(0x20) }},
		{"eeprom", tb.dev.ConfigEEPROM},
	} {
		err := tc.fct()
		if err != nil {
			t.Fatalf("could not run %s: %+v", tc.name, err)
		}
	}

	want := State{
		Running:   0x0d,
		Loops:     [dac.NumChannels]uint16{1, 2, 3, 4},
		Volts:     [dac.NumChannels]uint16{0, 0, 0x7fff, 0},
		Master:    true,
		Broadcast: true,
		Period:    5,
		Powered:   [dac.NumChips]bool{true, false},
	}
	if got := tb.brd.State(); got != want {
		t.Fatalf("invalid board state:\ngot= %+v\nwant=%+v", got, want)
	}
	if got, want := tb.brd.Command(10), uint32(42<<12); got != want {
		t.Fatalf("invalid trigger count: got=%#x, want=%#x", got, want)
	}

	err := tb.dev.ClearTrigCount()
	if err != nil {
		t.Fatalf("could not clear trigger count: %+v", err)
	}
	if got := tb.brd.Command(10); got != 0 {
		t.Fatalf("trigger count not cleared: %#x", got)
	}

	err = tb.dev.WriteReg(2, 0x10, 0xcafe)
	if err != nil {
		t.Fatalf("could not write register: %+v", err)
	}
	if got, want := tb.brd.Register(2, 0x10), uint32(0xcafe); got != want {
		t.Fatalf("invalid register: got=%#x, want=%#x", got, want)
	}
	v, err := tb.dev.ReadReg(2, 0x10)
	if err != nil {
		t.Fatalf("could not read register: %+v", err)
	}
	if v != 0xcafe {
		t.Fatalf("invalid register read-back: got=%#x, want=%#x", v, 0xcafe)
	}

	ok, pos, err := tb.dev.CheckSucceeded()
	if err != nil || !ok || pos != 0 {
		t.Fatalf("invalid check-succeeded: ok=%v, pos=%d, err=%+v", ok, pos, err)
	}

	err = tb.dev.WriteInstruction(0x1234, 0, 0)
	if err != nil {
		t.Fatalf("could not write unknown instruction: %+v", err)
	}
	err = tb.dev.StartStop(0)
	if err != nil {
		t.Fatalf("could not write instruction: %+v", err)
	}
	ok, pos, err = tb.dev.CheckSucceeded()
	if err != nil || ok || pos != 2 {
		t.Fatalf("invalid check-succeeded: ok=%v, pos=%d, err=%+v", ok, pos, err)
	}
}

func TestTemperature(t *testing.T) {
	tb := newTestBench(t)
	defer tb.close(t)

	for _, tc := range []struct {
		chip int
		want float64
	}{
		{1, 30},
		{2, 45.2},
	} {
		err := tb.brd.SetTemperature(tc.chip, tc.want)
		if err != nil {
			t.Fatalf("could not set temperature: %+v", err)
		}
		got, err := tb.dev.ChipTemperature(tc.chip)
		if err != nil {
			t.Fatalf("could not read temperature of chip %d: %+v", tc.chip, err)
		}
		if math.Abs(got-tc.want) > 0.01 {
			t.Fatalf("invalid temperature of chip %d: got=%v, want=%v", tc.chip, got, tc.want)
		}
	}

	if err := tb.brd.SetTemperature(3, 20); !instr.IsConfigError(err) {
		t.Fatalf("expected a config error, got %+v", err)
	}
}

func TestQueue(t *testing.T) {
	tb := newTestBench(t)
	defer tb.close(t)

	for i := uint32(1); i <= 3; i++ {
		err := tb.dev.WriteReg(1, i, 10*i)
		if err != nil {
			t.Fatalf("could not write register %d: %+v", i, err)
		}
	}
	for offset := 1; offset <= 3; offset++ {
		cmd, err := tb.dev.Instruction(offset)
		if err != nil {
			t.Fatalf("could not get instruction %d: %+v", offset, err)
		}
		want := dac.Command{
			Func:  dac.FuncInstruction,
			Code:  1<<8 | 2,
			Para1: uint32(4 - offset),
			Para2: uint32(10 * (4 - offset)),
		}
		if cmd != want {
			t.Fatalf("invalid instruction at offset %d:\ngot= %+v\nwant=%+v", offset, cmd, want)
		}
	}

	_, err := tb.dev.Return(10)
	var perr *instr.ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("expected a protocol error, got %+v", err)
	}
	if got, want := perr.Error(), "instr: get-instruction failed with status 2: invalid function stack offset"; got != want {
		t.Fatalf("invalid error:\ngot= %q\nwant=%q", got, want)
	}

	err = tb.dev.WriteMemory(dac.MemInst, memSize-2, []uint16{1, 2})
	if !errors.Is(err, dac.StatusBadAddress) {
		t.Fatalf("expected a bad-address error, got %+v", err)
	}

	if got, want := tb.counter(t, "dacsim_errors_total", map[string]string{"status": "2"}), 1.0; got != want {
		t.Fatalf("invalid error count: got=%v, want=%v", got, want)
	}
	if got, want := tb.counter(t, "dacsim_requests_total", map[string]string{"kind": "write-instruction"}), 3.0; got != want {
		t.Fatalf("invalid request count: got=%v, want=%v", got, want)
	}
}

func TestBoardReturnSize(t *testing.T) {
	brd := NewBoard()
	err := brd.WriteMemory(dac.MemInst, 0, []byte{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("could not write memory: %+v", err)
	}

	for _, n := range []int{-1, memSize + 1, 4 * memSize} {
		_, err := brd.Return(1, n)
		if !errors.Is(err, dac.StatusBadAddress) {
			t.Fatalf("n=%d: expected a bad-address error, got %+v", n, err)
		}
	}

	res, err := brd.Return(1, 8)
	if err != nil {
		t.Fatalf("could not get return: %+v", err)
	}
	if got, want := len(res.Payload), 8; got != want {
		t.Fatalf("invalid payload size: got=%d, want=%d", got, want)
	}
}

func TestWaitUntilFinished(t *testing.T) {
	tb := newTestBench(t)
	defer tb.close(t)

	tb.brd.SetLatency(200 * time.Millisecond)
	err := tb.dev.StartStop(0x01)
	if err != nil {
		t.Fatalf("could not start channel: %+v", err)
	}

	ok, err := tb.dev.CheckFinished()
	if err != nil {
		t.Fatalf("could not check finished: %+v", err)
	}
	if ok {
		t.Fatalf("board should be busy")
	}

	err = tb.dev.WaitUntilFinished(10 * time.Millisecond)
	if !errors.Is(err, instr.ErrTimeout) {
		t.Fatalf("expected a timeout, got %+v", err)
	}

	err = tb.dev.WaitUntilFinished(5 * time.Second)
	if err != nil {
		t.Fatalf("could not wait until finished: %+v", err)
	}

	ok, err = tb.dev.CheckFinished()
	if err != nil || !ok {
		t.Fatalf("board should be finished: ok=%v, err=%+v", ok, err)
	}
}

func TestNotOpened(t *testing.T) {
	srv, err := NewServer("localhost:0", NewBoard(), WithLogger(log.New(io.Discard, "", 0)))
	if err != nil {
		t.Fatalf("could not create server: %+v", err)
	}
	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()
	defer func() {
		_ = srv.Close()
		<-done
	}()

	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("could not dial server: %+v", err)
	}
	defer conn.Close()

	var (
		enc = wire.NewEncoder(conn)
		dec = wire.NewDecoder(conn)
		rep wire.Reply
	)

	for _, tc := range []struct {
		req  wire.Request
		want int32
	}{
		{wire.Request{Kind: wire.KindWriteInstruction}, int32(dac.StatusNotOpen)},
		{wire.Request{Kind: wire.KindInfo}, 0},
		{wire.Request{Kind: wire.KindOpen}, 0},
		{wire.Request{Kind: wire.KindSetTimeout, P1: 5}, int32(dac.StatusBadFrame)},
		{wire.Request{Kind: wire.KindWriteMemory, P2: 4}, int32(dac.StatusBadFrame)},
		{wire.Request{Kind: 42}, int32(dac.StatusBadFrame)},
	} {
		err = enc.EncodeRequest(tc.req)
		if err != nil {
			t.Fatalf("could not send %v request: %+v", tc.req.Kind, err)
		}
		err = dec.DecodeReply(&rep)
		if err != nil {
			t.Fatalf("could not read %v reply: %+v", tc.req.Kind, err)
		}
		if got := rep.Status; got != tc.want {
			t.Fatalf("invalid %v status: got=%d, want=%d", tc.req.Kind, got, tc.want)
		}
	}
}

func TestDriverInfo(t *testing.T) {
	info, err := dac.DriverInfo(dac.TCP{})
	if err != nil {
		t.Fatalf("could not get driver info: %+v", err)
	}
	if info == "" {
		t.Fatalf("empty driver info")
	}
}
