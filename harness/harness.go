// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package harness wires the neopixel and twi decoders, the status pin counter
// and the scripted bus transaction to a simulation.
//
package harness

import (
	"fmt"
	"io"
	"time"

	"github.com/db47h/mcusim"
	"github.com/db47h/mcusim/internal/conn"
	"github.com/db47h/mcusim/neopixel"
	"github.com/db47h/mcusim/probe"
	"github.com/db47h/mcusim/twi"
	"github.com/pkg/errors"
)

// Logical signal names used in wiring strings.
//
const (
	SigNeopixel = "neopixel"
	SigStatus   = "status"
)

// DefaultWiring connects the neopixel data line to PB0 and the status LED to
// PC7.
//
const DefaultWiring = SigNeopixel + "=PB0, " + SigStatus + "=PC7"

// Config is the harness configuration.
//
type Config struct {
	PixelOut          io.Writer // frame dumps, nil discards them
	TWILogPath        string    // bus log file, empty disables bus logging
	DisableNeopixel   bool
	DisableStatistics bool
	LogLevel          mcusim.Level
	Wiring            string // defaults to DefaultWiring
	TWIBus            int
	StartDelay        uint64 // cycle of the scripted START, defaults to twi.DefaultStartDelay
	SlaveAddr         uint8  // 7 bits address of the scripted transaction, defaults to twi.SlaveAddr
}

// Logger returns a logger at the configured level.
//
func (c *Config) Logger(out, err io.Writer) *mcusim.Logger {
	return mcusim.NewLogger(c.LogLevel, out, err)
}

// Harness is a set of observers attached to a simulation.
//
type Harness struct {
	s   *mcusim.Sim
	cfg Config

	pixels    *neopixel.Decoder
	status    *probe.Toggle
	bus       *twi.Decoder
	initiator *twi.Initiator
}

// New attaches a harness to s.
//
func New(s *mcusim.Sim, cfg Config) (*Harness, error) {
	if cfg.Wiring == "" {
		cfg.Wiring = DefaultWiring
	}
	as, err := conn.Parse(cfg.Wiring)
	if err != nil {
		return nil, errors.Wrap(err, "wiring")
	}
	wired := make(map[string]bool)
	for _, a := range as {
		switch a.Name {
		case SigNeopixel, SigStatus:
		default:
			return nil, errors.Errorf("wiring: unknown signal %q", a.Name)
		}
		pin, err := s.Pin(a.Target)
		if err != nil {
			return nil, errors.Wrapf(err, "wiring: signal %s", a.Name)
		}
		pin.Connect(s.IRQ(a.Name))
		wired[a.Name] = true
		s.Log().Logf(mcusim.LevelTrace, "%s connected to %s\n", a.Name, a.Target)
	}

	h := &Harness{s: s, cfg: cfg}
	if !cfg.DisableNeopixel {
		if !wired[SigNeopixel] {
			return nil, errors.New("wiring: neopixel signal not connected")
		}
		h.pixels = neopixel.NewDecoder(cfg.PixelOut, s.Log())
		h.pixels.Attach(s, s.IRQ(SigNeopixel))
	}
	if !cfg.DisableStatistics {
		if !wired[SigStatus] {
			return nil, errors.New("wiring: status signal not connected")
		}
		h.status = new(probe.Toggle)
		h.status.Attach(s.IRQ(SigStatus))
	}

	bus := s.TWI(cfg.TWIBus)
	h.bus = twi.NewDecoder(s, bus, cfg.TWILogPath)
	h.bus.Attach()
	h.initiator = twi.NewInitiator(bus)
	if cfg.StartDelay > 0 {
		h.initiator.Delay = cfg.StartDelay
	}
	if cfg.SlaveAddr > 0 {
		h.initiator.Addr = cfg.SlaveAddr
	}
	h.initiator.Attach(s)
	return h, nil
}

// Pixels returns the neopixel decoder, nil if disabled.
//
func (h *Harness) Pixels() *neopixel.Decoder { return h.pixels }

// Bus returns the bus decoder.
//
func (h *Harness) Bus() *twi.Decoder { return h.bus }

// Initiator returns the scripted bus transaction.
//
func (h *Harness) Initiator() *twi.Initiator { return h.initiator }

// StatusCount returns the number of status pin changes.
//
func (h *Harness) StatusCount() int {
	if h.status == nil {
		return 0
	}
	return h.status.Count()
}

// Report writes run statistics to w. It does nothing if statistics are
// disabled.
//
func (h *Harness) Report(w io.Writer, steps uint64, elapsed time.Duration) error {
	if h.cfg.DisableStatistics {
		return nil
	}
	_, err := fmt.Fprintf(w, "simulation terminated after %d cycles, %d steps, %d.%06d real seconds\nled_flipped_count: %d\n",
		h.s.Cycle(), steps, int64(elapsed/time.Second), int64(elapsed%time.Second/time.Microsecond), h.StatusCount())
	return errors.Wrap(err, "report")
}

// Close closes the bus log.
//
func (h *Harness) Close() error {
	return h.bus.Close()
}
