// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestMain(m *testing.M) {
	// run as a test program to boot.
	if v := os.Getenv("ADDA_BOOT_SLEEP"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			os.Exit(2)
		}
		time.Sleep(d)
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func TestRun(t *testing.T) {
	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("could not locate test executable: %+v", err)
	}
	prog := filepath.Join(t.TempDir(), "adda-sleep")
	err = os.Symlink(exe, prog)
	if err != nil {
		t.Fatalf("could not create test program: %+v", err)
	}

	for _, tc := range []struct {
		name string
		mon  bool
		stop bool
		dur  string
	}{
		{name: "simple", dur: "1s"},
		{name: "simple-pmon", dur: "2s", mon: true},
		{name: "simple-stop", dur: "30s", stop: true},
		{name: "simple-stop-pmon", dur: "30s", stop: true, mon: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			cmds := make([]*exec.Cmd, 2)
			for i := range cmds {
				cmds[i] = exec.Command(prog)
				cmds[i].Env = append(os.Environ(), "ADDA_BOOT_SLEEP="+tc.dur)
			}

			stop := make(chan os.Signal, 1)
			if tc.stop {
				go func() {
					time.Sleep(1 * time.Second)
					stop <- os.Interrupt
				}()
			}
			err := run(tc.mon, 100*time.Millisecond, cmds, dir, stop)
			if err != nil {
				t.Fatalf("could not run processes: %+v", err)
			}

			for _, name := range []string{"adda-sleep.log", "adda-sleep-1.log"} {
				if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
					t.Fatalf("could not find process log: %+v", err)
				}
			}
			if tc.mon {
				if _, err := os.Stat(filepath.Join(dir, "adda-sleep-pmon.log")); err != nil {
					t.Fatalf("could not find pmon log: %+v", err)
				}
			}
		})
	}
}

func TestLogNames(t *testing.T) {
	cmds := []*exec.Cmd{
		{Path: "/usr/bin/dac-sim"},
		{Path: "/usr/bin/dac-mon"},
		{Path: "/opt/bin/dac-sim"},
		{Path: "dac-sim"},
	}
	got := logNames(cmds)
	want := []string{"dac-sim", "dac-mon", "dac-sim-1", "dac-sim-2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid log names:\ngot= %q\nwant=%q", got, want)
	}
}
