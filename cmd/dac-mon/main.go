// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command dac-mon monitors the chip temperatures of DAC boards.
//
// Temperatures are logged into the condition database and mail alerts
// are sent when a chip gets hotter than the configured threshold.
// Mail credentials are read from the MAIL_USERNAME and MAIL_PASSWORD
// environment variables when the configuration file has none.
package main // import "github.com/go-lpc/adda/cmd/dac-mon"

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-lpc/adda/conddb"
	"github.com/go-lpc/adda/dac"
	"github.com/go-lpc/adda/internal/config"
	mail "gopkg.in/gomail.v2"
)

func main() {
	log.SetPrefix("dac-mon: ")
	log.SetFlags(0)

	var (
		nodb = flag.Bool("no-db", false, "disable temperature logging into the condition database")
	)

	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("missing bench configuration file")
	}

	cfg, err := config.Load(flag.Arg(0))
	if err != nil {
		log.Fatalf("could not load bench configuration: %+v", err)
	}

	var db logger
	if !*nodb {
		cdb, err := conddb.Open(cfg.DB)
		if err != nil {
			log.Fatalf("could not open condition database: %+v", err)
		}
		defer cdb.Close()
		db = cdb
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	mon := newMonitor(cfg, db)
	mon.alert = mailer(cfg.Mail)

	err = mon.run(ctx)
	if err != nil {
		log.Fatalf("could not monitor DAC boards: %+v", err)
	}
}

type logger interface {
	LogTemperature(ctx context.Context, temp conddb.Temperature) error
}

const maxAlerts = 5 // maximum number of alerts per chip

type monitor struct {
	freq   time.Duration
	thresh float64 // Celsius
	db     logger

	boards []config.DAC
	devs   map[string]*dac.Device
	opts   []dac.Option

	alert  func(subject, body string) error
	alerts map[string]int // number of alerts sent per chip
}

func newMonitor(cfg *config.Config, db logger, opts ...dac.Option) *monitor {
	return &monitor{
		freq:   cfg.Monitor.Period,
		thresh: cfg.Monitor.Threshold,
		db:     db,
		boards: cfg.DACs,
		devs:   make(map[string]*dac.Device, len(cfg.DACs)),
		opts:   opts,
		alerts: make(map[string]int),
	}
}

func (mon *monitor) run(ctx context.Context) error {
	defer mon.close()

	tick := time.NewTicker(mon.freq)
	defer tick.Stop()

	for {
		mon.probe(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
		}
	}
}

func (mon *monitor) close() {
	for name, dev := range mon.devs {
		err := dev.Close()
		if err != nil {
			log.Printf("could not close DAC %q: %+v", name, err)
		}
	}
}

// probe reads and logs the chip temperatures of all the boards.
func (mon *monitor) probe(ctx context.Context) {
	for _, board := range mon.boards {
		err := mon.probeBoard(ctx, board)
		if err != nil {
			log.Printf("could not probe DAC %q: %+v", board.Name, err)
		}
	}
}

func (mon *monitor) probeBoard(ctx context.Context, board config.DAC) error {
	dev, ok := mon.devs[board.Name]
	if !ok {
		opts := append([]dac.Option{dac.WithBlocking(true)}, mon.opts...)
		if board.Legacy {
			opts = append(opts, dac.WithLegacyRegisterEncoding())
		}
		dev = dac.New(board.Addr, opts...)
		mon.devs[board.Name] = dev
	}

	err := dev.Open()
	if err != nil {
		return err
	}

	for chip := 1; chip <= dac.NumChips; chip++ {
		celsius, err := dev.ChipTemperature(chip)
		if err != nil {
			// the session may be broken: reopen it on the next probe.
			_ = dev.Close()
			return err
		}

		temp := conddb.Temperature{
			Board:   board.Name,
			Chip:    chip,
			Celsius: celsius,
			Time:    time.Now().UTC(),
		}

		if mon.db != nil {
			err = mon.db.LogTemperature(ctx, temp)
			if err != nil {
				log.Printf("could not log temperature: %+v", err)
			}
		}

		if celsius > mon.thresh {
			mon.overheat(temp)
		}
	}

	return nil
}

func (mon *monitor) overheat(temp conddb.Temperature) {
	log.Printf("DAC %q chip %d too hot (%.1f C > %.1f C)",
		temp.Board, temp.Chip, temp.Celsius, mon.thresh,
	)

	key := fmt.Sprintf("%s/%d", temp.Board, temp.Chip)
	mon.alerts[key]++
	if mon.alerts[key] > maxAlerts || mon.alert == nil {
		return
	}

	err := mon.alert(
		fmt.Sprintf("[dac-mon] temperature alert: %s chip %d", temp.Board, temp.Chip),
		fmt.Sprintf("board: %q\nchip: %d\ntemperature: %.1f C\nthreshold: %.1f C\ntime: %v",
			temp.Board, temp.Chip, temp.Celsius, mon.thresh, temp.Time.Format(time.RFC3339),
		),
	)
	if err != nil {
		log.Printf("could not send mail alert: %+v", err)
	}
}

func mailer(cfg config.Mail) func(subject, body string) error {
	if !cfg.Enabled() {
		return nil
	}

	usr := cfg.User
	if usr == "" {
		usr = os.Getenv("MAIL_USERNAME")
	}
	pwd := cfg.Password
	if pwd == "" {
		pwd = os.Getenv("MAIL_PASSWORD")
	}
	from := cfg.From
	if from == "" {
		from = usr
	}

	return func(subject, body string) error {
		msg := mail.NewMessage()
		msg.SetHeader("From", from)
		msg.SetHeader("Bcc", cfg.To...)
		msg.SetHeader("Subject", subject)
		msg.SetBody("text/plain", body)

		dial := mail.NewDialer(cfg.Server, cfg.Port, usr, pwd)
		dial.TLSConfig = &tls.Config{
			ServerName: cfg.Server,
		}
		err := dial.DialAndSend(msg)
		if err != nil {
			return fmt.Errorf("could not send mail to %s: %w", strings.Join(cfg.To, ", "), err)
		}
		return nil
	}
}
