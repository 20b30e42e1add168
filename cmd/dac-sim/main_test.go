// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestRun(t *testing.T) {
	stop := make(chan os.Signal, 1)
	go func() {
		time.Sleep(500 * time.Millisecond)
		stop <- os.Interrupt
	}()

	err := run("localhost:0", "localhost:0", time.Millisecond, [2]float64{30, 40}, stop)
	if err != nil {
		t.Fatalf("could not run DAC emulator: %+v", err)
	}
}

func TestRunInvalidAddr(t *testing.T) {
	err := run("localhost:-1", "", 0, [2]float64{30, 30}, nil)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if got, want := err.Error(), `dacsim: could not listen on "localhost:-1"`; !strings.HasPrefix(got, want) {
		t.Fatalf("invalid error:\ngot= %q\nwant=%q", got, want)
	}
}
