// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"io"
	"log"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/go-lpc/adda/conddb"
	"github.com/go-lpc/adda/dac"
	"github.com/go-lpc/adda/dac/dacsim"
	"github.com/go-lpc/adda/internal/config"
)

type fakeDB struct {
	temps []conddb.Temperature
}

func (db *fakeDB) LogTemperature(ctx context.Context, temp conddb.Temperature) error {
	db.temps = append(db.temps, temp)
	return nil
}

func TestMonitor(t *testing.T) {
	brd := dacsim.NewBoard()
	srv, err := dacsim.NewServer("localhost:0", brd,
		dacsim.WithLogger(log.New(io.Discard, "dacsim: ", 0)),
	)
	if err != nil {
		t.Fatalf("could not create DAC emulator: %+v", err)
	}
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve()
	}()
	defer func() {
		_ = srv.Close()
		<-done
	}()

	err = brd.SetTemperature(2, 80)
	if err != nil {
		t.Fatalf("could not set chip temperature: %+v", err)
	}

	cfg := config.Default()
	cfg.Monitor.Threshold = 70
	cfg.DACs = []config.DAC{{Name: "dac-01", Addr: srv.Addr().String()}}

	var (
		db     fakeDB
		alerts []string
	)
	mon := newMonitor(cfg, &db,
		dac.WithDriver(dac.TCP{Dial: time.Second}),
		dac.WithLogger(log.New(io.Discard, "dac: ", 0)),
	)
	mon.alert = func(subject, body string) error {
		alerts = append(alerts, subject)
		return nil
	}

	const nprobes = maxAlerts + 2
	for i := 0; i < nprobes; i++ {
		mon.probe(context.Background())
	}
	mon.close()

	if got, want := len(db.temps), nprobes*dac.NumChips; got != want {
		t.Fatalf("invalid number of logged temperatures: got=%d, want=%d", got, want)
	}

	for i, temp := range db.temps {
		if got, want := temp.Board, "dac-01"; got != want {
			t.Fatalf("temp[%d]: invalid board: got=%q, want=%q", i, got, want)
		}
		if got, want := temp.Chip, i%dac.NumChips+1; got != want {
			t.Fatalf("temp[%d]: invalid chip: got=%d, want=%d", i, got, want)
		}
		want := 30.0
		if temp.Chip == 2 {
			want = 80
		}
		if got := temp.Celsius; math.Abs(got-want) > 0.01 {
			t.Fatalf("temp[%d]: invalid temperature: got=%v, want=%v", i, got, want)
		}
	}

	if got, want := len(alerts), maxAlerts; got != want {
		t.Fatalf("invalid number of alerts: got=%d, want=%d", got, want)
	}
	if got, want := alerts[0], "[dac-mon] temperature alert: dac-01 chip 2"; got != want {
		t.Fatalf("invalid alert:\ngot= %q\nwant=%q", got, want)
	}
}

func TestMonitorUnreachable(t *testing.T) {
	cfg := config.Default()
	cfg.DACs = []config.DAC{{Name: "dac-01", Addr: "localhost:1"}}

	var db fakeDB
	mon := newMonitor(cfg, &db,
		dac.WithDriver(dac.TCP{Dial: 100 * time.Millisecond}),
		dac.WithLogger(log.New(io.Discard, "dac: ", 0)),
	)

	err := mon.probeBoard(context.Background(), cfg.DACs[0])
	if err == nil {
		t.Fatalf("expected an error")
	}
	if got, want := err.Error(), "dac: could not open"; !strings.HasPrefix(got, want) {
		t.Fatalf("invalid error:\ngot= %q\nwant=%q", got, want)
	}
	if len(db.temps) != 0 {
		t.Fatalf("no temperature should have been logged")
	}
}

func TestMailer(t *testing.T) {
	if mailer(config.Mail{}) != nil {
		t.Fatalf("mail alerts should be disabled")
	}
	if mailer(config.Mail{Server: "smtp.example.org", To: []string{"a@example.org"}}) == nil {
		t.Fatalf("mail alerts should be enabled")
	}
}
