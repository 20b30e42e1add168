// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"log"
	"net"
	"reflect"
	"strings"
	"testing"

	"github.com/go-lpc/adda/instr"
)

var (
	pcMAC  = net.HardwareAddr{0x00, 0x0c, 0x29, 0xaa, 0xbb, 0xcc}
	adcMAC = net.HardwareAddr{0x00, 0x00, 0x00, 0x00, 0x00, 0x01}
)

func newTestDevice(t *testing.T, opts ...Option) (*Device, *fakeDriver) {
	t.Helper()
	drv := newFakeDriver()
	opts = append([]Option{
		WithDriver(drv),
		WithLogger(log.New(io.Discard, "adc: ", 0)),
	}, opts...)
	dev := New(pcMAC, adcMAC, opts...)
	return dev, drv
}

func TestOpenClose(t *testing.T) {
	dev, drv := newTestDevice(t)

	if got, want := dev.MACAddr(true).String(), adcMAC.String(); got != want {
		t.Fatalf("invalid dst address: got=%s, want=%s", got, want)
	}
	if got, want := dev.MACAddr(false).String(), pcMAC.String(); got != want {
		t.Fatalf("invalid src address: got=%s, want=%s", got, want)
	}

	err := dev.Close()
	if err != nil {
		t.Fatalf("could not close closed device: %+v", err)
	}
	if len(drv.calls) != 0 {
		t.Fatalf("closing a closed device should not call the driver: %v", drv.calls)
	}

	for i := 0; i < 2; i++ {
		err = dev.Open()
		if err != nil {
			t.Fatalf("could not open device (iter=%d): %+v", i, err)
		}
	}
	if got, want := drv.opens, 1; got != want {
		t.Fatalf("invalid number of driver open calls: got=%d, want=%d", got, want)
	}
	if !dev.IsOpen() {
		t.Fatalf("device should be opened")
	}

	// handshake: the PC address is registered with the board.
	want := []Instruction{mustInst(SetMACAddr(drv.pc))}
	if got := drv.sent; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid handshake:\ngot= %v\nwant=%v", got, want)
	}

	for i := 0; i < 2; i++ {
		err = dev.Close()
		if err != nil {
			t.Fatalf("could not close device (iter=%d): %+v", i, err)
		}
	}
	if got, want := drv.closes, 1; got != want {
		t.Fatalf("invalid number of driver close calls: got=%d, want=%d", got, want)
	}
	if got, want := drv.calls, []string{"open", "mac-addr", "send", "close"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid driver calls:\ngot= %v\nwant=%v", got, want)
	}
}

func TestOpenHandshakeFail(t *testing.T) {
	for _, tc := range []struct {
		name string
		call string
		err  error
		want string
	}{
		{
			name: "mac-addr",
			call: "mac-addr",
			err:  StatusNotOpen,
			want: "adc: could not register PC address with 00:00:00:00:00:01: instr: get-mac-addr failed with status 4: connection not opened",
		},
		{
			name: "send",
			call: "send",
			err:  io.ErrClosedPipe,
			want: "adc: could not register PC address with 00:00:00:00:00:01: instr: set-mac-addr: io: read/write on closed pipe",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// the handshake failure is returned whatever the policy.
			dev, drv := newTestDevice(t, WithPolicy(instr.Report))
			drv.fail[tc.call] = tc.err

			err := dev.Open()
			if err == nil {
				t.Fatalf("expected an error")
			}
			if got, want := err.Error(), tc.want; got != want {
				t.Fatalf("invalid error:\ngot= %s\nwant=%s", got, want)
			}
			if !errors.Is(err, tc.err) {
				t.Fatalf("error should wrap %v", tc.err)
			}
			if dev.IsOpen() {
				t.Fatalf("device should be closed after a failed handshake")
			}
			if got, want := drv.closes, 1; got != want {
				t.Fatalf("connection not released: got=%d, want=%d", got, want)
			}
		})
	}
}

func TestOpenFail(t *testing.T) {
	dev, drv := newTestDevice(t)
	drv.fail["open"] = StatusTimeout

	err := dev.Open()
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !instr.IsProtocolError(err) {
		t.Fatalf("invalid error type: %+v", err)
	}
	if got, want := err.Error(), "adc: could not open 00:00:00:00:00:01: instr: open failed with status 1: receive timed out"; got != want {
		t.Fatalf("invalid error:\ngot= %s\nwant=%s", got, want)
	}
	if dev.IsOpen() {
		t.Fatalf("device should be closed")
	}
}

func TestNotOpen(t *testing.T) {
	dev, drv := newTestDevice(t)

	for _, tc := range []struct {
		name string
		fct  func() error
	}{
		{"set-sample-depth", func() error { return dev.SetSampleDepth(10) }},
		{"set-trig-count", func() error { return dev.SetTrigCount(10) }},
		{"set-window-width", func() error { return dev.SetWindowWidth(10) }},
		{"set-window-start", func() error { return dev.SetWindowStart(10) }},
		{"set-demod-freq", func() error { return dev.SetDemodFreq(1e6) }},
		{"set-gain", func() error { return dev.SetGain(1, 2) }},
		{"set-demod-mode", func() error { return dev.SetDemodMode(true) }},
		{"force-trigger", dev.ForceTrigger},
		{"enable", dev.Enable},
		{"recv-data", func() error { _, err := dev.RecvData(); return err }},
		{"recv-demo", func() error { _, err := dev.RecvDemo(); return err }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.fct()
			if !errors.Is(err, instr.ErrNotOpen) {
				t.Fatalf("invalid error: got=%v, want=%v", err, instr.ErrNotOpen)
			}
			if !strings.Contains(err.Error(), tc.name) {
				t.Fatalf("error should name the operation: %v", err)
			}
		})
	}

	if len(drv.calls) != 0 {
		t.Fatalf("closed device should not call the driver: %v", drv.calls)
	}
}

func TestSetters(t *testing.T) {
	dev, drv := newTestDevice(t)
	err := dev.Open()
	if err != nil {
		t.Fatalf("could not open device: %+v", err)
	}
	defer dev.Close()
	drv.sent = nil

	for _, f := range []func() error{
		func() error { return dev.SetSampleDepth(2000) },
		func() error { return dev.SetTrigCount(100) },
		func() error { return dev.SetWindowStart(16) },
		func() error { return dev.SetWindowWidth(1000) },
		func() error { return dev.SetDemodFreq(100e6) },
		func() error { return dev.SetGain(3, 4) },
		func() error { return dev.SetDemodMode(true) },
		dev.Enable,
		dev.ForceTrigger,
	} {
		err := f()
		if err != nil {
			t.Fatalf("could not configure device: %+v", err)
		}
	}

	want := []Instruction{
		{0x00, 0x12, 0x07, 0xd0},
		{0x00, 0x13, 0x00, 0x64},
		{0x00, 0x15, 0x00, 0x10},
		{0x00, 0x14, 0x03, 0xe8},
		{0x00, 0x16, 0x19, 0x9a},
		{0x00, 0x17, 0x03, 0x04},
		DemodMode,
		EnableADC,
		ForceTrigger,
	}
	if got := drv.sent; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid instructions:\ngot= %v\nwant=%v", got, want)
	}

	for _, tc := range []struct {
		name      string
		got, want interface{}
	}{
		{"sample-depth", dev.SampleDepth(), 2000},
		{"trig-count", dev.TrigCount(), 100},
		{"window-start", dev.WindowStart(), 16},
		{"window-width", dev.WindowWidth(), 1000},
		{"demod-freq", dev.DemodFreq(), 100e6},
		{"demod-mode", dev.DemodMode(), true},
	} {
		if !reflect.DeepEqual(tc.got, tc.want) {
			t.Fatalf("invalid %s: got=%v, want=%v", tc.name, tc.got, tc.want)
		}
	}
	if gI, gQ := dev.Gain(); gI != 3 || gQ != 4 {
		t.Fatalf("invalid gains: got=(%d, %d), want=(3, 4)", gI, gQ)
	}
}

func TestSetterConfigError(t *testing.T) {
	dev, drv := newTestDevice(t)
	err := dev.Open()
	if err != nil {
		t.Fatalf("could not open device: %+v", err)
	}
	defer dev.Close()
	drv.calls = nil

	err = dev.SetSampleDepth(0)
	if !instr.IsConfigError(err) {
		t.Fatalf("invalid error: %+v", err)
	}
	if len(drv.calls) != 0 {
		t.Fatalf("invalid parameters should not reach the driver: %v", drv.calls)
	}
}

func TestPolicy(t *testing.T) {
	for _, tc := range []struct {
		name   string
		policy instr.Policy
		err    error
		fail   bool
		depth  int
	}{
		{name: "propagate", policy: instr.Propagate, err: StatusBadFrame, fail: true, depth: 0},
		{name: "report", policy: instr.Report, err: StatusBadFrame, fail: false, depth: 42},
		{name: "report-transport", policy: instr.Report, err: io.ErrUnexpectedEOF, fail: true, depth: 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out := new(bytes.Buffer)
			dev, drv := newTestDevice(t, WithPolicy(tc.policy), WithLogger(log.New(out, "adc: ", 0)))
			err := dev.Open()
			if err != nil {
				t.Fatalf("could not open device: %+v", err)
			}
			defer dev.Close()

			drv.fail["send"] = tc.err
			err = dev.SetSampleDepth(42)
			switch {
			case tc.fail && err == nil:
				t.Fatalf("expected an error")
			case !tc.fail && err != nil:
				t.Fatalf("unexpected error: %+v", err)
			}
			if got, want := dev.SampleDepth(), tc.depth; got != want {
				t.Fatalf("invalid sample depth: got=%d, want=%d", got, want)
			}
			if tc.policy == instr.Report && !tc.fail {
				if got, want := out.String(), "adc: instr: set-sample-depth failed with status 3: malformed data frame\n"; got != want {
					t.Fatalf("invalid log:\ngot= %q\nwant=%q", got, want)
				}
			}
		})
	}
}

func TestRecvData(t *testing.T) {
	const (
		trig  = 3
		depth = 4
	)
	dev, drv := newTestDevice(t)
	err := dev.Open()
	if err != nil {
		t.Fatalf("could not open device: %+v", err)
	}
	defer dev.Close()

	_, err = dev.RecvData()
	if !instr.IsConfigError(err) {
		t.Fatalf("receiving before configuration should fail: %+v", err)
	}

	for _, f := range []func() error{
		func() error { return dev.SetTrigCount(trig) },
		func() error { return dev.SetSampleDepth(depth) },
	} {
		if err := f(); err != nil {
			t.Fatalf("could not configure device: %+v", err)
		}
	}

	drv.i = make([]byte, trig*depth)
	drv.q = make([]byte, trig*depth)
	for i := range drv.i {
		drv.i[i] = uint8(i)
		drv.q[i] = uint8(0x80 + i)
	}

	data, err := dev.RecvData()
	if err != nil {
		t.Fatalf("could not receive data: %+v", err)
	}
	for ch := range data {
		if got, want := len(data[ch]), trig; got != want {
			t.Fatalf("invalid number of triggers for channel %d: got=%d, want=%d", ch, got, want)
		}
		for i := range data[ch] {
			if got, want := len(data[ch][i]), depth; got != want {
				t.Fatalf("invalid depth (ch=%d, trig=%d): got=%d, want=%d", ch, i, got, want)
			}
		}
	}
	if got, want := data[0][1], []uint8{4, 5, 6, 7}; !bytes.Equal(got, want) {
		t.Fatalf("invalid I samples of trigger 1: got=%v, want=%v", got, want)
	}
	if got, want := data[1][2], []uint8{0x88, 0x89, 0x8a, 0x8b}; !bytes.Equal(got, want) {
		t.Fatalf("invalid Q samples of trigger 2: got=%v, want=%v", got, want)
	}

	drv.q = drv.q[:5]
	_, err = dev.RecvData()
	if err == nil {
		t.Fatalf("expected an error on short data")
	}
	if got, want := err.Error(), "adc: invalid data size from 00:00:00:00:00:01 (I=12, Q=5, want=12)"; got != want {
		t.Fatalf("invalid error:\ngot= %s\nwant=%s", got, want)
	}
}

func TestRecvDemo(t *testing.T) {
	const trig = 3
	dev, drv := newTestDevice(t)
	err := dev.Open()
	if err != nil {
		t.Fatalf("could not open device: %+v", err)
	}
	defer dev.Close()

	err = dev.SetTrigCount(trig)
	if err != nil {
		t.Fatalf("could not set trigger count: %+v", err)
	}

	var (
		wantI = []int32{1, -2, 1 << 30}
		wantQ = []int32{-1, 2, -1 << 30}
	)
	drv.demo = make([]byte, 2*trig*4)
	for i := 0; i < trig; i++ {
		binary.LittleEndian.PutUint32(drv.demo[i*8:], uint32(wantI[i]))
		binary.LittleEndian.PutUint32(drv.demo[i*8+4:], uint32(wantQ[i]))
	}

	data, err := dev.RecvDemo()
	if err != nil {
		t.Fatalf("could not receive demodulated data: %+v", err)
	}
	if got, want := data[0], wantI; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid I values: got=%v, want=%v", got, want)
	}
	if got, want := data[1], wantQ; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid Q values: got=%v, want=%v", got, want)
	}

	// bulk transfers always propagate protocol errors.
	dev.cfg.policy = instr.Report
	drv.fail["recv-demo"] = StatusTimeout
	_, err = dev.RecvDemo()
	if !instr.IsProtocolError(err) {
		t.Fatalf("invalid error: %+v", err)
	}
	var pe *instr.ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("could not extract protocol error")
	}
	if got, want := pe.Msg, "receive timed out"; got != want {
		t.Fatalf("invalid message: got=%q, want=%q", got, want)
	}
}

func TestDriverInfo(t *testing.T) {
	info, err := DriverInfo(newFakeDriver())
	if err != nil {
		t.Fatalf("could not get driver info: %+v", err)
	}
	if got, want := info, "fake adc driver"; got != want {
		t.Fatalf("invalid driver info: got=%q, want=%q", got, want)
	}

	info, err = DriverInfo(&Ether{})
	if err != nil {
		t.Fatalf("could not get driver info: %+v", err)
	}
	if got, want := info, "adda/adc raw ethernet driver (ether type 0xaaaa)"; got != want {
		t.Fatalf("invalid driver info: got=%q, want=%q", got, want)
	}
}
