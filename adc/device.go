// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adc

import (
	"encoding/binary"
	"fmt"
	"log"
	"net"
	"os"

	"github.com/go-lpc/adda/instr"
)

// Device is a control session to an ADC board.
type Device struct {
	src  net.HardwareAddr
	dst  net.HardwareAddr
	msg  *log.Logger
	cfg  config
	conn Conn // nil when closed

	depth  int     // samples per trigger
	trig   int     // triggers per acquisition
	wstart int     // demodulation window start
	wwidth int     // demodulation window width
	freq   float64 // demodulation frequency, in Hz
	gain   [NumChannels]uint8
	demod  bool
}

// New creates a closed session between the PC network interface with
// address src and the ADC board with address dst.
func New(src, dst net.HardwareAddr, opts ...Option) *Device {
	cfg := newConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.msg == nil {
		cfg.msg = log.New(os.Stdout, "adc: ", 0)
	}
	if cfg.drv == nil {
		cfg.drv = &Ether{}
	}

	return &Device{
		src: append(net.HardwareAddr(nil), src...),
		dst: append(net.HardwareAddr(nil), dst...),
		msg: cfg.msg,
		cfg: cfg,
	}
}

// MACAddr returns the MAC address of the board (dst is true) or of the
// PC end of the session.
func (dev *Device) MACAddr(dst bool) net.HardwareAddr {
	if dst {
		return dev.dst
	}
	return dev.src
}

// IsOpen returns whether the session is opened.
func (dev *Device) IsOpen() bool { return dev.conn != nil }

// Open opens the session and registers the PC address with the board.
// Opening an opened session is a no-op.
func (dev *Device) Open() error {
	if dev.conn != nil {
		return nil
	}

	conn, err := dev.cfg.drv.Open(dev.src, dev.dst)
	if err != nil {
		return fmt.Errorf("adc: could not open %v: %w", dev.dst, dev.translate("open", err))
	}

	err = dev.handshake(conn)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("adc: could not register PC address with %v: %w", dev.dst, err)
	}

	dev.conn = conn
	return nil
}

// handshake tells the board where to send its data.
// The board ignores any other instruction until then.
func (dev *Device) handshake(conn Conn) error {
	mac, err := conn.MACAddr(false)
	if err != nil {
		return dev.translate("get-mac-addr", err)
	}
	inst, err := SetMACAddr(mac)
	if err != nil {
		return err
	}
	return dev.translate("set-mac-addr", conn.Send(inst))
}

// Close closes the session. Closing a closed session is a no-op.
func (dev *Device) Close() error {
	if dev.conn == nil {
		return nil
	}
	conn := dev.conn
	dev.conn = nil

	err := conn.Close()
	if err != nil {
		return fmt.Errorf("adc: could not close %v: %w", dev.dst, dev.translate("close", err))
	}
	return nil
}

func (dev *Device) checkOpen(op string) error {
	if dev.conn == nil {
		return fmt.Errorf("adc: could not %s on %v: %w", op, dev.dst, instr.ErrNotOpen)
	}
	return nil
}

func (dev *Device) translate(op string, err error) error {
	return instr.Translate(op, err, dev.cfg.drv.ErrorMessage)
}

// send sends a configuration or control instruction, subject to the
// session policy.
func (dev *Device) send(op string, inst Instruction, err error) error {
	if err != nil {
		return err
	}
	if err := dev.checkOpen(op); err != nil {
		return err
	}

	err = dev.cfg.policy.Apply(dev.msg, dev.translate(op, dev.conn.Send(inst)))
	if err != nil {
		return fmt.Errorf("adc: could not %s on %v: %w", op, dev.dst, err)
	}
	return nil
}

// SampleDepth returns the number of samples acquired per trigger.
func (dev *Device) SampleDepth() int { return dev.depth }

// TrigCount returns the number of triggers per acquisition.
func (dev *Device) TrigCount() int { return dev.trig }

// WindowStart returns the start of the demodulation window.
func (dev *Device) WindowStart() int { return dev.wstart }

// WindowWidth returns the width of the demodulation window.
func (dev *Device) WindowWidth() int { return dev.wwidth }

// DemodFreq returns the demodulation frequency, in Hz.
func (dev *Device) DemodFreq() float64 { return dev.freq }

// Gain returns the gains of the I and Q channels.
func (dev *Device) Gain() (gI, gQ uint8) { return dev.gain[0], dev.gain[1] }

// DemodMode returns whether the board runs in demodulation mode.
func (dev *Device) DemodMode() bool { return dev.demod }

// SetSampleDepth sets the number of samples acquired per trigger.
func (dev *Device) SetSampleDepth(n int) error {
	inst, err := SetSampleDepth(n)
	err = dev.send("set-sample-depth", inst, err)
	if err != nil {
		return err
	}
	dev.depth = n
	return nil
}

// SetTrigCount sets the number of triggers per acquisition.
func (dev *Device) SetTrigCount(n int) error {
	inst, err := SetTrigCount(n)
	err = dev.send("set-trig-count", inst, err)
	if err != nil {
		return err
	}
	dev.trig = n
	return nil
}

// SetWindowWidth sets the width, in samples, of the demodulation window.
func (dev *Device) SetWindowWidth(n int) error {
	inst, err := SetWindowWidth(n)
	err = dev.send("set-window-width", inst, err)
	if err != nil {
		return err
	}
	dev.wwidth = n
	return nil
}

// SetWindowStart sets the start, in samples, of the demodulation window.
func (dev *Device) SetWindowStart(n int) error {
	inst, err := SetWindowStart(n)
	err = dev.send("set-window-start", inst, err)
	if err != nil {
		return err
	}
	dev.wstart = n
	return nil
}

// SetDemodFreq sets the demodulation frequency, in Hz.
func (dev *Device) SetDemodFreq(f float64) error {
	inst, err := SetDemodFreq(f)
	err = dev.send("set-demod-freq", inst, err)
	if err != nil {
		return err
	}
	dev.freq = f
	return nil
}

// SetGain sets the gains of the I and Q channels.
func (dev *Device) SetGain(gI, gQ uint8) error {
	err := dev.send("set-gain", SetGain(gI, gQ), nil)
	if err != nil {
		return err
	}
	dev.gain = [NumChannels]uint8{gI, gQ}
	return nil
}

// SetDemodMode selects the demodulation mode (v is true) or the raw
// wave mode.
func (dev *Device) SetDemodMode(v bool) error {
	err := dev.send("set-demod-mode", SetMode(v), nil)
	if err != nil {
		return err
	}
	dev.demod = v
	return nil
}

// ForceTrigger triggers an acquisition.
func (dev *Device) ForceTrigger() error {
	return dev.send("force-trigger", ForceTrigger, nil)
}

// Enable enables the acquisition of the board.
func (dev *Device) Enable() error {
	return dev.send("enable", EnableADC, nil)
}

// RecvData receives a raw acquisition, indexed as
// data[channel][trigger][sample].
// Channel 0 holds the I samples and channel 1 the Q samples.
func (dev *Device) RecvData() ([NumChannels][][]uint8, error) {
	const op = "recv-data"
	var data [NumChannels][][]uint8
	if err := dev.checkOpen(op); err != nil {
		return data, err
	}
	if dev.trig < 1 || dev.depth < 1 {
		return data, instr.Configf(op, "trigger count (%d) and sample depth (%d) must be set", dev.trig, dev.depth)
	}

	var (
		trig  = dev.trig
		depth = dev.depth
		size  = trig * depth
	)
	bi, bq, err := dev.conn.RecvData(trig, depth)
	if err != nil {
		return data, fmt.Errorf("adc: could not receive data from %v: %w", dev.dst, dev.translate(op, err))
	}
	if len(bi) != size || len(bq) != size {
		return data, fmt.Errorf("adc: invalid data size from %v (I=%d, Q=%d, want=%d)", dev.dst, len(bi), len(bq), size)
	}

	for ch, buf := range [NumChannels][]byte{bi, bq} {
		data[ch] = make([][]uint8, trig)
		for i := range data[ch] {
			beg := i * depth
			end := beg + depth
			data[ch][i] = buf[beg:end:end]
		}
	}
	return data, nil
}

// RecvDemo receives a demodulated acquisition, indexed as
// data[channel][trigger].
// Channel 0 holds the I values and channel 1 the Q values.
func (dev *Device) RecvDemo() ([NumChannels][]int32, error) {
	const op = "recv-demo"
	var data [NumChannels][]int32
	if err := dev.checkOpen(op); err != nil {
		return data, err
	}
	if dev.trig < 1 {
		return data, instr.Configf(op, "trigger count (%d) must be set", dev.trig)
	}

	trig := dev.trig
	buf, err := dev.conn.RecvDemo(trig)
	if err != nil {
		return data, fmt.Errorf("adc: could not receive demodulated data from %v: %w", dev.dst, dev.translate(op, err))
	}
	if got, want := len(buf), 2*trig*4; got != want {
		return data, fmt.Errorf("adc: invalid demodulated data size from %v (got=%d, want=%d)", dev.dst, got, want)
	}

	data[0] = make([]int32, trig)
	data[1] = make([]int32, trig)
	for i := 0; i < trig; i++ {
		data[0][i] = int32(binary.LittleEndian.Uint32(buf[i*8:]))
		data[1][i] = int32(binary.LittleEndian.Uint32(buf[i*8+4:]))
	}
	return data, nil
}
