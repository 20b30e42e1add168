// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config describes the configuration of an ADC/DAC bench.
package config // import "github.com/go-lpc/adda/internal/config"

import (
	"fmt"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the configuration of a bench.
type Config struct {
	DB      string  `yaml:"db"` // name of the condition database
	ADCs    []ADC   `yaml:"adcs"`
	DACs    []DAC   `yaml:"dacs"`
	Mail    Mail    `yaml:"mail"`
	Monitor Monitor `yaml:"monitor"`
}

// ADC describes an ADC board and its acquisition settings.
type ADC struct {
	Name        string  `yaml:"name"`
	Src         string  `yaml:"src"` // MAC address of the PC interface
	Dst         string  `yaml:"dst"` // MAC address of the board
	SampleDepth int     `yaml:"sample_depth"`
	TrigCount   int     `yaml:"trig_count"`
	WindowStart int     `yaml:"window_start"`
	WindowWidth int     `yaml:"window_width"`
	DemodFreq   float64 `yaml:"demod_freq"` // Hz
	Demod       bool    `yaml:"demod"`
	GainI       uint8   `yaml:"gain_i"`
	GainQ       uint8   `yaml:"gain_q"`
}

// HardwareAddrs returns the parsed PC and board MAC addresses.
// An empty PC address is returned as nil.
func (adc ADC) HardwareAddrs() (src, dst net.HardwareAddr, err error) {
	if adc.Src != "" {
		src, err = net.ParseMAC(adc.Src)
		if err != nil {
			return nil, nil, fmt.Errorf("config: invalid source address of ADC %q: %w", adc.Name, err)
		}
	}
	dst, err = net.ParseMAC(adc.Dst)
	if err != nil {
		return nil, nil, fmt.Errorf("config: invalid destination address of ADC %q: %w", adc.Name, err)
	}
	return src, dst, nil
}

// DAC describes a DAC board and the files to load into its channels.
type DAC struct {
	Name     string    `yaml:"name"`
	Addr     string    `yaml:"addr"`
	Blocking bool      `yaml:"blocking"`
	Legacy   bool      `yaml:"legacy"` // legacy register and loop encoding
	Volts    []uint16  `yaml:"volts"`  // default voltage code of each channel
	Channels []Channel `yaml:"channels"`
}

// Channel describes the wave and sequence files of a DAC channel.
type Channel struct {
	ID   int    `yaml:"id"`
	Wave string `yaml:"wave"`
	Seq  string `yaml:"seq"`
	Loop uint16 `yaml:"loop"`
}

// Mail configures the alerts sent by the bench monitor.
type Mail struct {
	Server   string   `yaml:"server"`
	Port     int      `yaml:"port"`
	User     string   `yaml:"user"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

// Enabled returns whether alerts should be sent.
func (m Mail) Enabled() bool {
	return m.Server != "" && len(m.To) > 0
}

// Monitor configures the DAC temperature monitor.
type Monitor struct {
	Period    time.Duration `yaml:"period"`
	Threshold float64       `yaml:"threshold"` // Celsius
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DB: "adda",
		Mail: Mail{
			Port: 587,
		},
		Monitor: Monitor{
			Period:    30 * time.Second,
			Threshold: 70,
		},
	}
}

// Load loads the configuration file at path, on top of the default
// configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: could not read %q: %w", path, err)
	}

	cfg := Default()
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: could not decode %q: %w", path, err)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("config: invalid %q: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the consistency of the configuration.
func (cfg *Config) Validate() error {
	names := make(map[string]struct{})
	unique := func(kind, name string) error {
		if name == "" {
			return fmt.Errorf("%s with no name", kind)
		}
		if _, dup := names[name]; dup {
			return fmt.Errorf("duplicate board name %q", name)
		}
		names[name] = struct{}{}
		return nil
	}

	for _, adc := range cfg.ADCs {
		if err := unique("ADC", adc.Name); err != nil {
			return err
		}
		if _, _, err := adc.HardwareAddrs(); err != nil {
			return err
		}
	}

	for _, dac := range cfg.DACs {
		if err := unique("DAC", dac.Name); err != nil {
			return err
		}
		if dac.Addr == "" {
			return fmt.Errorf("DAC %q with no address", dac.Name)
		}
		if len(dac.Volts) > 4 {
			return fmt.Errorf("DAC %q: too many default voltages (%d > 4)", dac.Name, len(dac.Volts))
		}
		chans := make(map[int]struct{})
		for _, ch := range dac.Channels {
			if ch.ID < 1 || ch.ID > 4 {
				return fmt.Errorf("DAC %q: channel %d not in [1, 4]", dac.Name, ch.ID)
			}
			if _, dup := chans[ch.ID]; dup {
				return fmt.Errorf("DAC %q: duplicate channel %d", dac.Name, ch.ID)
			}
			chans[ch.ID] = struct{}{}
		}
	}

	if cfg.Monitor.Period <= 0 {
		return fmt.Errorf("invalid monitor period %v", cfg.Monitor.Period)
	}

	return nil
}

// ADC returns the configuration of the named ADC board.
func (cfg *Config) ADC(name string) (ADC, bool) {
	for _, adc := range cfg.ADCs {
		if adc.Name == name {
			return adc, true
		}
	}
	return ADC{}, false
}

// DAC returns the configuration of the named DAC board.
func (cfg *Config) DAC(name string) (DAC, bool) {
	for _, dac := range cfg.DACs {
		if dac.Name == name {
			return dac, true
		}
	}
	return DAC{}, false
}
