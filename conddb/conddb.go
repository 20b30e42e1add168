// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package conddb holds types to describe the condition and configuration
// database of the ADC/DAC bench.
package conddb // import "github.com/go-lpc/adda/conddb"

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

const (
	host = "localhost"
)

var (
	usr = "username"
	pwd = "s3cr3t"

	drvName = "mysql"
)

// DB exposes convenience methods to easily retrieve board settings
// from, and log board conditions to, the bench database.
type DB struct {
	db   *sql.DB
	name string // name of the bench database
}

// Open opens a connection to the bench database dbname.
func Open(dbname string) (*DB, error) {
	db, err := sql.Open(drvName, dsn(dbname))
	if err != nil {
		return nil, fmt.Errorf("conddb: could not open %q db: %w", dbname, err)
	}

	err = ping(db, dbname)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DB{db: db, name: dbname}, nil
}

func dsn(db string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true", usr, pwd, host, db)
}

func ping(db *sql.DB, dbname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("conddb: could not ping %q db: %w", dbname, err)
	}

	return nil
}

// Name returns the name of the bench database.
func (db *DB) Name() string { return db.name }

func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// ADCSettings returns the last settings recorded for the ADC board name.
func (db *DB) ADCSettings(ctx context.Context, name string) (ADCSettings, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cfg := ADCSettings{Name: name}
	rows, err := db.db.QueryContext(
		ctx,
		`
SELECT sample_depth, trig_count, window_start, window_width,
	demod_freq, demod, gain_i, gain_q
FROM adc_settings
WHERE name=?
ORDER BY datetime DESC LIMIT 1
`,
		name,
	)
	if err != nil {
		return cfg, fmt.Errorf("conddb: could not query ADC settings of %q: %w", name, err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		err = rows.Scan(
			&cfg.SampleDepth, &cfg.TrigCount,
			&cfg.WindowStart, &cfg.WindowWidth,
			&cfg.DemodFreq, &cfg.Demod,
			&cfg.GainI, &cfg.GainQ,
		)
		if err != nil {
			return cfg, fmt.Errorf("conddb: could not get ADC settings of %q: %w", name, err)
		}
		n++
	}

	if err := rows.Err(); err != nil {
		return cfg, fmt.Errorf("conddb: could not scan db for ADC settings of %q: %w", name, err)
	}

	if err := ctx.Err(); err != nil {
		return cfg, fmt.Errorf("conddb: context error while retrieving ADC settings of %q: %w", name, err)
	}

	if n == 0 {
		return cfg, fmt.Errorf("conddb: no ADC settings for %q: %w", name, sql.ErrNoRows)
	}

	return cfg, nil
}

// DACSettings returns the last settings recorded for the DAC board name.
func (db *DB) DACSettings(ctx context.Context, name string) (DACSettings, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cfg := DACSettings{Name: name}
	rows, err := db.db.QueryContext(
		ctx,
		`
SELECT addr, blocking, volt1, volt2, volt3, volt4
FROM dac_settings
WHERE name=?
ORDER BY datetime DESC LIMIT 1
`,
		name,
	)
	if err != nil {
		return cfg, fmt.Errorf("conddb: could not query DAC settings of %q: %w", name, err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		err = rows.Scan(
			&cfg.Addr, &cfg.Blocking,
			&cfg.DefaultVolts[0], &cfg.DefaultVolts[1],
			&cfg.DefaultVolts[2], &cfg.DefaultVolts[3],
		)
		if err != nil {
			return cfg, fmt.Errorf("conddb: could not get DAC settings of %q: %w", name, err)
		}
		n++
	}

	if err := rows.Err(); err != nil {
		return cfg, fmt.Errorf("conddb: could not scan db for DAC settings of %q: %w", name, err)
	}

	if err := ctx.Err(); err != nil {
		return cfg, fmt.Errorf("conddb: context error while retrieving DAC settings of %q: %w", name, err)
	}

	if n == 0 {
		return cfg, fmt.Errorf("conddb: no DAC settings for %q: %w", name, sql.ErrNoRows)
	}

	return cfg, nil
}

// LogTemperature records a chip temperature measurement of a DAC board.
func (db *DB) LogTemperature(ctx context.Context, temp Temperature) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := db.db.ExecContext(
		ctx,
		"INSERT INTO dac_temperatures (board, chip, celsius, datetime) VALUES (?, ?, ?, ?)",
		temp.Board, temp.Chip, temp.Celsius, temp.Time.UTC(),
	)
	if err != nil {
		return fmt.Errorf(
			"conddb: could not log temperature of %q (chip=%d): %w",
			temp.Board, temp.Chip, err,
		)
	}
	return nil
}

// Temperatures returns the chip temperatures of the DAC board recorded
// since the given time, oldest first.
func (db *DB) Temperatures(ctx context.Context, board string, since time.Time) ([]Temperature, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var temps []Temperature
	rows, err := db.db.QueryContext(
		ctx,
		`
SELECT chip, celsius, datetime
FROM dac_temperatures
WHERE board=? AND datetime>=?
ORDER BY datetime ASC
`,
		board, since.UTC(),
	)
	if err != nil {
		return temps, fmt.Errorf(
			"conddb: could not run temperatures query: %w",
			err,
		)
	}
	defer rows.Close()

	for rows.Next() {
		temp := Temperature{Board: board}
		err = rows.Scan(&temp.Chip, &temp.Celsius, &temp.Time)
		if err != nil {
			return temps, fmt.Errorf(
				"conddb: could not scan temperatures: %w",
				err,
			)
		}
		temps = append(temps, temp)
	}

	if err := rows.Err(); err != nil {
		return temps, fmt.Errorf(
			"conddb: could not scan db for temperatures: %w",
			err,
		)
	}

	if err := ctx.Err(); err != nil {
		return temps, fmt.Errorf(
			"conddb: context error while retrieving temperatures: %w",
			err,
		)
	}

	return temps, nil
}
