// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// adda-sql inspects the settings and temperature logs stored in the
// conditions database.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/go-lpc/adda/conddb"
	_ "github.com/go-sql-driver/mysql"
)

func main() {
	log.SetPrefix("adda-sql: ")
	log.SetFlags(0)

	var (
		dbname = flag.String("db", "adda", "name of the conditions database")
		adc    = flag.String("adc", "", "ADC board to inspect")
		dac    = flag.String("dac", "", "DAC board to inspect")
		since  = flag.Duration("since", 24*time.Hour, "time window of DAC temperatures to display")
	)

	flag.Parse()

	if *adc == "" && *dac == "" {
		flag.Usage()
		log.Fatalf("missing board to inspect")
	}

	db, err := conddb.Open(*dbname)
	if err != nil {
		log.Fatalf("could not open conditions db: %+v", err)
	}
	defer db.Close()

	err = doQuery(db, *adc, *dac, *since)
	if err != nil {
		log.Fatalf("could not do query: %+v", err)
	}
}

func doQuery(db *conddb.DB, adc, dac string, since time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if adc != "" {
		cfg, err := db.ADCSettings(ctx, adc)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			log.Printf("adc=%q: no settings", adc)
		case err != nil:
			return fmt.Errorf("could not get ADC settings (adc=%q): %w", adc, err)
		default:
			log.Printf("adc=%q: depth=%d, trig=%d, window=[%d, +%d)",
				adc, cfg.SampleDepth, cfg.TrigCount, cfg.WindowStart, cfg.WindowWidth,
			)
			log.Printf("adc=%q: demod=%v, freq=%g Hz, gain=(%d, %d)",
				adc, cfg.Demod, cfg.DemodFreq, cfg.GainI, cfg.GainQ,
			)
		}
	}

	if dac == "" {
		return nil
	}

	cfg, err := db.DACSettings(ctx, dac)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		log.Printf("dac=%q: no settings", dac)
	case err != nil:
		return fmt.Errorf("could not get DAC settings (dac=%q): %w", dac, err)
	default:
		log.Printf("dac=%q: addr=%q, blocking=%v, volts=%v",
			dac, cfg.Addr, cfg.Blocking, cfg.DefaultVolts,
		)
	}

	temps, err := db.Temperatures(ctx, dac, time.Now().Add(-since))
	if err != nil {
		return fmt.Errorf("could not get DAC temperatures (dac=%q): %w", dac, err)
	}
	log.Printf("dac=%q: temperatures: %d", dac, len(temps))
	for _, temp := range temps {
		log.Printf(">>> %s chip=%d T=%.1fC",
			temp.Time.UTC().Format(time.RFC3339), temp.Chip, temp.Celsius,
		)
	}

	return nil
}
