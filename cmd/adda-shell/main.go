// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command adda-shell is an interactive shell to drive ADC and DAC boards.
//
// Example:
//
//	$> adda-shell
//	adda> dac-open 192.168.1.10
//	adda> init
//	adda> temp 1
//	chip 1: 31.2 C
//	adda> quit
package main // import "github.com/go-lpc/adda/cmd/adda-shell"

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-lpc/adda"
	"github.com/go-lpc/adda/adc"
	"github.com/go-lpc/adda/dac"
	"github.com/peterh/liner"
)

func main() {
	log.SetPrefix("adda-shell: ")
	log.SetFlags(0)

	var (
		hist = flag.String("history", filepath.Join(os.TempDir(), ".adda-shell.history"), "path to the history file")
	)

	flag.Parse()

	err := run(*hist)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(hist string) error {
	sh := newShell()
	defer sh.close()

	term := liner.NewLiner()
	defer term.Close()

	term.SetCtrlCAborts(true)
	term.SetCompleter(sh.complete)

	if f, err := os.Open(hist); err == nil {
		_, _ = term.ReadHistory(f)
		f.Close()
	}
	defer func() {
		f, err := os.Create(hist)
		if err != nil {
			log.Printf("could not save history: %+v", err)
			return
		}
		defer f.Close()
		_, _ = term.WriteHistory(f)
	}()

	for {
		line, err := term.Prompt("adda> ")
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				return nil
			}
			return fmt.Errorf("could not read command: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		term.AppendHistory(line)

		err = sh.exec(os.Stdout, line)
		switch {
		case errors.Is(err, errQuit):
			return nil
		case err != nil:
			fmt.Fprintf(os.Stdout, "error: %+v\n", err)
		}
	}
}

var errQuit = errors.New("adda-shell: quit")

type command struct {
	args string
	help string
	narg int
	fn   func(sh *shell, w io.Writer, args []string) error
}

type shell struct {
	dac *dac.Device
	adc *adc.Device

	dopts []dac.Option
	aopts []adc.Option
	cmds  map[string]command
}

func newShell() *shell {
	sh := &shell{}
	sh.cmds = map[string]command{
		"help":    {help: "print this help message", fn: (*shell).help},
		"quit":    {help: "quit the shell", fn: func(*shell, io.Writer, []string) error { return errQuit }},
		"version": {help: "print the adda version", fn: (*shell).version},

		"dac-open":  {args: "addr", narg: 1, help: "open a session to the DAC board at addr", fn: (*shell).dacOpen},
		"dac-close": {help: "close the DAC session", fn: (*shell).dacClose},
		"init":      {help: "initialize the DAC chips", fn: (*shell).dacInit},
		"power":     {args: "chip on|off", narg: 2, help: "power an AD9136 chip on or off", fn: (*shell).dacPower},
		"start":     {args: "mask", narg: 1, help: "start (bits 0-3) or stop (bits 4-7) DAC channels", fn: (*shell).dacStart},
		"loop":      {args: "c1 c2 c3 c4", narg: 4, help: "set the loop counts of the DAC channels", fn: (*shell).dacLoop},
		"volt":      {args: "ch code", narg: 2, help: "set the default voltage code of a DAC channel", fn: (*shell).dacVolt},
		"temp":      {args: "chip", narg: 1, help: "read the temperature of an AD9136 chip", fn: (*shell).dacTemp},
		"reg-read":  {args: "bank addr", narg: 2, help: "read a DAC board register", fn: (*shell).dacRegRead},
		"reg-write": {args: "bank addr value", narg: 3, help: "write a DAC board register", fn: (*shell).dacRegWrite},
		"wait":      {args: "timeout", narg: 1, help: "wait for the DAC board to execute all its functions", fn: (*shell).dacWait},
		"check":     {help: "check whether all DAC board functions succeeded", fn: (*shell).dacCheck},

		"adc-open":    {args: "src-mac dst-mac", narg: 2, help: "open a session to an ADC board", fn: (*shell).adcOpen},
		"adc-close":   {help: "close the ADC session", fn: (*shell).adcClose},
		"adc-depth":   {args: "n", narg: 1, help: "set the ADC sample depth", fn: (*shell).adcDepth},
		"adc-trig":    {args: "n", narg: 1, help: "set the ADC trigger count", fn: (*shell).adcTrig},
		"adc-mode":    {args: "demod|wave", narg: 1, help: "select the ADC acquisition mode", fn: (*shell).adcMode},
		"adc-trigger": {help: "force an ADC trigger", fn: (*shell).adcTrigger},
		"adc-enable":  {help: "enable the ADC acquisition", fn: (*shell).adcEnable},
	}
	return sh
}

func (sh *shell) close() {
	if sh.dac != nil {
		_ = sh.dac.Close()
	}
	if sh.adc != nil {
		_ = sh.adc.Close()
	}
}

func (sh *shell) names() []string {
	names := make([]string, 0, len(sh.cmds))
	for name := range sh.cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (sh *shell) complete(line string) []string {
	var out []string
	for _, name := range sh.names() {
		if strings.HasPrefix(name, line) {
			out = append(out, name)
		}
	}
	return out
}

func (sh *shell) exec(w io.Writer, line string) error {
	toks := strings.Fields(line)
	if len(toks) == 0 {
		return nil
	}
	name, args := toks[0], toks[1:]
	if name == "exit" {
		name = "quit"
	}
	cmd, ok := sh.cmds[name]
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}
	if len(args) != cmd.narg {
		return fmt.Errorf("invalid number of arguments for %q (got=%d, want=%d)", name, len(args), cmd.narg)
	}
	return cmd.fn(sh, w, args)
}

func (sh *shell) help(w io.Writer, args []string) error {
	for _, name := range sh.names() {
		cmd := sh.cmds[name]
		fmt.Fprintf(w, "%-24s %s\n", strings.TrimSpace(name+" "+cmd.args), cmd.help)
	}
	return nil
}

func (sh *shell) version(w io.Writer, args []string) error {
	v, sum := adda.Version()
	if v == "" {
		v = "(devel)"
	}
	fmt.Fprintf(w, "adda %s %s\n", v, sum)
	return nil
}

func parseU32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", s, err)
	}
	return uint32(v), nil
}

func parseU16(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", s, err)
	}
	return uint16(v), nil
}

func parseInt(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", s, err)
	}
	return v, nil
}

func (sh *shell) dacDev() (*dac.Device, error) {
	if sh.dac == nil {
		return nil, fmt.Errorf("no DAC session (use dac-open)")
	}
	return sh.dac, nil
}

func (sh *shell) dacOpen(w io.Writer, args []string) error {
	if sh.dac != nil {
		_ = sh.dac.Close()
		sh.dac = nil
	}
	dev := dac.New(args[0], sh.dopts...)
	err := dev.Open()
	if err != nil {
		return err
	}
	sh.dac = dev
	fmt.Fprintf(w, "opened DAC %s\n", dev.Addr())
	return nil
}

func (sh *shell) dacClose(w io.Writer, args []string) error {
	dev, err := sh.dacDev()
	if err != nil {
		return err
	}
	sh.dac = nil
	return dev.Close()
}

func (sh *shell) dacInit(w io.Writer, args []string) error {
	dev, err := sh.dacDev()
	if err != nil {
		return err
	}
	return dev.InitBoard()
}

func (sh *shell) dacPower(w io.Writer, args []string) error {
	dev, err := sh.dacDev()
	if err != nil {
		return err
	}
	chip, err := parseInt(args[0])
	if err != nil {
		return err
	}
	var on bool
	switch args[1] {
	case "on":
		on = true
	case "off":
		on = false
	default:
		return fmt.Errorf("invalid power state %q", args[1])
	}
	return dev.PowerOnDAC(chip, on)
}

func (sh *shell) dacStart(w io.Writer, args []string) error {
	dev, err := sh.dacDev()
	if err != nil {
		return err
	}
	mask, err := parseU32(args[0])
	if err != nil {
		return err
	}
	return dev.StartStop(mask)
}

func (sh *shell) dacLoop(w io.Writer, args []string) error {
	dev, err := sh.dacDev()
	if err != nil {
		return err
	}
	var cs [4]uint16
	for i := range cs {
		cs[i], err = parseU16(args[i])
		if err != nil {
			return err
		}
	}
	return dev.SetLoop(cs[0], cs[1], cs[2], cs[3])
}

func (sh *shell) dacVolt(w io.Writer, args []string) error {
	dev, err := sh.dacDev()
	if err != nil {
		return err
	}
	ch, err := parseInt(args[0])
	if err != nil {
		return err
	}
	code, err := parseU16(args[1])
	if err != nil {
		return err
	}
	return dev.SetDefaultVolt(ch, code)
}

func (sh *shell) dacTemp(w io.Writer, args []string) error {
	dev, err := sh.dacDev()
	if err != nil {
		return err
	}
	chip, err := parseInt(args[0])
	if err != nil {
		return err
	}
	celsius, err := dev.ChipTemperature(chip)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "chip %d: %.1f C\n", chip, celsius)
	return nil
}

func (sh *shell) dacRegRead(w io.Writer, args []string) error {
	dev, err := sh.dacDev()
	if err != nil {
		return err
	}
	bank, err := parseU32(args[0])
	if err != nil {
		return err
	}
	addr, err := parseU32(args[1])
	if err != nil {
		return err
	}
	v, err := dev.ReadReg(bank, addr)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "reg[0x%x][0x%x] = 0x%x\n", bank, addr, v)
	return nil
}

func (sh *shell) dacRegWrite(w io.Writer, args []string) error {
	dev, err := sh.dacDev()
	if err != nil {
		return err
	}
	var vs [3]uint32
	for i := range vs {
		vs[i], err = parseU32(args[i])
		if err != nil {
			return err
		}
	}
	return dev.WriteReg(vs[0], vs[1], vs[2])
}

func (sh *shell) dacWait(w io.Writer, args []string) error {
	dev, err := sh.dacDev()
	if err != nil {
		return err
	}
	timeout, err := time.ParseDuration(args[0])
	if err != nil {
		return fmt.Errorf("invalid timeout %q: %w", args[0], err)
	}
	return dev.WaitUntilFinished(timeout)
}

func (sh *shell) dacCheck(w io.Writer, args []string) error {
	dev, err := sh.dacDev()
	if err != nil {
		return err
	}
	ok, pos, err := dev.CheckSucceeded()
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintf(w, "ok\n")
		return nil
	}
	cmd, err := dev.Instruction(pos)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "function at offset %d failed: %+v\n", pos, cmd)
	return nil
}

func (sh *shell) adcDev() (*adc.Device, error) {
	if sh.adc == nil {
		return nil, fmt.Errorf("no ADC session (use adc-open)")
	}
	return sh.adc, nil
}

func (sh *shell) adcOpen(w io.Writer, args []string) error {
	src, err := net.ParseMAC(args[0])
	if err != nil {
		return fmt.Errorf("invalid source address %q: %w", args[0], err)
	}
	dst, err := net.ParseMAC(args[1])
	if err != nil {
		return fmt.Errorf("invalid destination address %q: %w", args[1], err)
	}
	if sh.adc != nil {
		_ = sh.adc.Close()
		sh.adc = nil
	}
	dev := adc.New(src, dst, sh.aopts...)
	err = dev.Open()
	if err != nil {
		return err
	}
	sh.adc = dev
	fmt.Fprintf(w, "opened ADC %s\n", dev.MACAddr(true))
	return nil
}

func (sh *shell) adcClose(w io.Writer, args []string) error {
	dev, err := sh.adcDev()
	if err != nil {
		return err
	}
	sh.adc = nil
	return dev.Close()
}

func (sh *shell) adcDepth(w io.Writer, args []string) error {
	dev, err := sh.adcDev()
	if err != nil {
		return err
	}
	n, err := parseInt(args[0])
	if err != nil {
		return err
	}
	return dev.SetSampleDepth(n)
}

func (sh *shell) adcTrig(w io.Writer, args []string) error {
	dev, err := sh.adcDev()
	if err != nil {
		return err
	}
	n, err := parseInt(args[0])
	if err != nil {
		return err
	}
	return dev.SetTrigCount(n)
}

func (sh *shell) adcMode(w io.Writer, args []string) error {
	dev, err := sh.adcDev()
	if err != nil {
		return err
	}
	switch args[0] {
	case "demod":
		return dev.SetDemodMode(true)
	case "wave":
		return dev.SetDemodMode(false)
	default:
		return fmt.Errorf("invalid ADC mode %q", args[0])
	}
}

func (sh *shell) adcTrigger(w io.Writer, args []string) error {
	dev, err := sh.adcDev()
	if err != nil {
		return err
	}
	return dev.ForceTrigger()
}

func (sh *shell) adcEnable(w io.Writer, args []string) error {
	dev, err := sh.adcDev()
	if err != nil {
		return err
	}
	return dev.Enable()
}
