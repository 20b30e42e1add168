// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command dac-sim runs an emulated DAC board.
//
// The board serves the DAC TCP control protocol and exposes Prometheus
// metrics over HTTP.
package main // import "github.com/go-lpc/adda/cmd/dac-sim"

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-lpc/adda/dac/dacsim"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	log.SetPrefix("dac-sim: ")
	log.SetFlags(0)

	var (
		addr    = flag.String("addr", ":8080", "[ip]:port to serve the DAC control protocol on")
		metrics = flag.String("metrics", ":9090", "[ip]:port to serve metrics on (empty to disable)")
		latency = flag.Duration("latency", 0, "execution time of a board function")
		temp1   = flag.Float64("temp1", 30, "temperature of the first AD9136 chip (Celsius)")
		temp2   = flag.Float64("temp2", 30, "temperature of the second AD9136 chip (Celsius)")
	)

	flag.Parse()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	defer signal.Stop(stop)

	err := run(*addr, *metrics, *latency, [2]float64{*temp1, *temp2}, stop)
	if err != nil {
		log.Fatalf("could not run DAC emulator: %+v", err)
	}
}

func run(addr, maddr string, latency time.Duration, temps [2]float64, stop chan os.Signal) error {
	brd := dacsim.NewBoard()
	brd.SetLatency(latency)
	for i, v := range temps {
		err := brd.SetTemperature(i+1, v)
		if err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv, err := dacsim.NewServer(addr, brd,
		dacsim.WithLogger(log.New(os.Stdout, "dac-sim: ", 0)),
		dacsim.WithRegisterer(reg),
	)
	if err != nil {
		return err
	}
	log.Printf("serving DAC emulator on %q...", srv.Addr())

	var web *http.Server
	if maddr != "" {
		lis, err := net.Listen("tcp", maddr)
		if err != nil {
			_ = srv.Close()
			return fmt.Errorf("could not listen on %q: %w", maddr, err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		web = &http.Server{Handler: mux}
		go func() {
			err := web.Serve(lis)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("could not serve metrics: %+v", err)
			}
		}()
		log.Printf("serving metrics on %q...", lis.Addr())
	}

	go func() {
		<-stop
		if web != nil {
			_ = web.Close()
		}
		_ = srv.Close()
	}()

	err = srv.Serve()
	if err != nil {
		return fmt.Errorf("could not serve DAC emulator: %w", err)
	}
	return nil
}
