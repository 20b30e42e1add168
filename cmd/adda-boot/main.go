// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command adda-boot (re)starts the processes of an ADC/DAC bench.
//
// Usage: adda-boot [options] "cmd1 [args...]" ["cmd2 [args...]" ...]
//
// ex:
//
//	$> adda-boot -pmon "dac-sim -addr :8080" "dac-mon /etc/adda/bench.yaml"
//
// Running instances of the processes are killed first. Each process logs
// into $ADDALOGDIR/<name>.log (/var/log/adda by default).
package main // import "github.com/go-lpc/adda/cmd/adda-boot"

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/sbinet/pmon"
	"golang.org/x/sync/errgroup"
)

var (
	dir = os.Getenv("ADDALOGDIR")

	doMon  = flag.Bool("pmon", false, "enable pmon monitoring")
	doFreq = flag.Duration("freq", 1*time.Second, "pmon frequency")

	stop = make(chan os.Signal, 1)
)

func main() {
	flag.Parse()

	log.SetPrefix("adda-boot: ")
	log.SetFlags(0)

	if flag.NArg() == 0 {
		flag.Usage()
		log.Fatalf("missing commands to boot")
	}

	cmds := make([]*exec.Cmd, 0, flag.NArg())
	for _, arg := range flag.Args() {
		toks := strings.Fields(arg)
		if len(toks) == 0 {
			continue
		}
		cmds = append(cmds, exec.Command(toks[0], toks[1:]...))
	}

	err := run(*doMon, *doFreq, cmds, dir, stop)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(doMon bool, freq time.Duration, cmds []*exec.Cmd, dir string, stop chan os.Signal) error {
	signal.Notify(stop, os.Interrupt)
	defer signal.Stop(stop)

	killRunning(cmds)

	if dir == "" {
		dir = "/var/log/adda"
	}

	var (
		grp   errgroup.Group
		kill  = make(chan int)
		names = logNames(cmds)
	)
	for i := range cmds {
		cmd, name := cmds[i], names[i]
		grp.Go(func() error {
			return start(cmd, filepath.Join(dir, name), kill, doMon, freq)
		})
	}

	go func() {
		<-stop
		close(kill)
	}()

	err := grp.Wait()
	if err != nil {
		return fmt.Errorf("could not boot bench: %w", err)
	}
	return nil
}

// killRunning kills the running instances of the bench programs.
func killRunning(cmds []*exec.Cmd) {
	done := make(map[string]bool, len(cmds))
	for _, cmd := range cmds {
		name := filepath.Base(cmd.Path)
		if done[name] {
			continue
		}
		done[name] = true

		kill := exec.Command("killall", "-q", name)
		kill.Stderr = os.Stderr
		kill.Stdout = os.Stdout
		err := kill.Run()
		if err != nil {
			log.Printf("could not kill %q: %+v", name, err)
		}
	}
}

// logNames returns the log file name of each command.
// Repeated program names get the index of the repetition appended.
func logNames(cmds []*exec.Cmd) []string {
	var (
		seen  = make(map[string]int, len(cmds))
		names = make([]string, len(cmds))
	)
	for i, cmd := range cmds {
		prog := filepath.Base(cmd.Path)
		names[i] = prog
		if n := seen[prog]; n > 0 {
			names[i] = fmt.Sprintf("%s-%d", prog, n)
		}
		seen[prog]++
	}
	return names
}

// start runs cmd until it exits or kill is closed.
// Outputs go to logs+".log", pmon data to logs+"-pmon.log".
func start(cmd *exec.Cmd, logs string, kill chan int, doMon bool, freq time.Duration) error {
	name := filepath.Base(logs)
	out, err := os.Create(logs + ".log")
	if err != nil {
		return fmt.Errorf("could not create output log file for %q: %w", name, err)
	}
	defer out.Close()

	cmd.Stdout = out
	cmd.Stderr = out

	log.Printf("starting %q...", name)
	err = cmd.Start()
	if err != nil {
		return fmt.Errorf("could not start %q: %w", name, err)
	}

	if doMon {
		p, err := pmon.Monitor(cmd.Process.Pid)
		if err != nil {
			return fmt.Errorf("could not start monitoring %q (pid=%d): %w", name, cmd.Process.Pid, err)
		}
		f, err := os.Create(logs + "-pmon.log")
		if err != nil {
			return fmt.Errorf("could not create pmon log file for command %q: %w", name, err)
		}
		defer f.Close()
		p.W = f
		p.Freq = freq

		go func() {
			log.Printf("run pmon %q...", name)
			err := p.Run()
			if err != nil {
				log.Printf("could not start monitoring %q: %+v", name, err)
			}
		}()

		defer func() {
			err := p.Kill()
			if err != nil {
				log.Printf("could not stop monitoring %q: %+v", name, err)
			}
		}()
	}

	errch := make(chan error, 1)
	go func() {
		errch <- cmd.Wait()
	}()

	select {
	case <-kill:
		err = cmd.Process.Kill()
		if err != nil {
			return fmt.Errorf("could not kill %q: %w", name, err)
		}
		<-errch
	case err = <-errch:
		if err != nil {
			return fmt.Errorf("could not run %q: %w", name, err)
		}
	}

	return nil
}
