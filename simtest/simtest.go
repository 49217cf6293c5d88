// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package simtest provides utility functions for testing simulation
// observers.
//
package simtest

import (
	"bytes"
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/db47h/mcusim"
	"github.com/db47h/mcusim/neopixel"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Frequency is the clock frequency used for test simulations.
//
const Frequency = 16000000

type logWriter struct {
	t testing.TB
}

func (w logWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

// Logger returns a logger that forwards messages up to level lvl to t.Log.
//
func Logger(t testing.TB, lvl mcusim.Level) *mcusim.Logger {
	w := logWriter{t}
	return mcusim.NewLogger(lvl, w, w)
}

// Drive schedules the given edges on pin. Edges must be sorted by cycle.
//
func Drive(s *mcusim.Sim, pin *mcusim.IRQ, edges []neopixel.Edge) {
	if len(edges) == 0 {
		return
	}
	var delay uint64
	if now := s.Cycle(); edges[0].Cycle > now {
		delay = edges[0].Cycle - now
	}
	s.Timer(delay, func(_ *mcusim.Sim, cycle uint64) uint64 {
		for len(edges) > 0 && edges[0].Cycle <= cycle {
			pin.Set(edges[0].High)
			edges = edges[1:]
		}
		if len(edges) == 0 {
			return 0
		}
		return edges[0].Cycle - cycle
	})
}

// RandomFrame returns a frame filled with random data.
//
func RandomFrame(r *rand.Rand) *neopixel.Frame {
	var f neopixel.Frame
	for p := range f {
		for c := range f[p] {
			f[p][c] = byte(r.Intn(256))
		}
	}
	return &f
}

// CheckFrames sends n random frames generated from seed to a neopixel decoder
// and checks that every frame is dumped exactly once with the right content.
// log may be nil.
//
func CheckFrames(seed int64, n int, log *mcusim.Logger) error {
	r := rand.New(rand.NewSource(seed))
	s := mcusim.NewSim(Frequency, log)
	pin, err := s.Pin("PB0")
	if err != nil {
		return err
	}
	var out bytes.Buffer
	d := neopixel.NewDecoder(&out, log)
	d.Attach(s, pin)

	frames := make([]*neopixel.Frame, n)
	var edges []neopixel.Edge
	start := uint64(1000 + r.Intn(1000))
	for i := range frames {
		frames[i] = RandomFrame(r)
		e := neopixel.Encode(start, frames[i])
		edges = append(edges, e...)
		// any gap above neopixel.IdleGap starts a new frame.
		start = e[len(e)-1].Cycle + neopixel.IdleGap + 1 + uint64(r.Intn(1000))
	}
	Drive(s, pin, edges)
	if _, err = s.Run(start); err != nil {
		return err
	}

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if n == 0 {
		lines = nil
	}
	if len(lines) != n || d.Dumps() != n {
		return errors.Errorf("seed %d: expected %d dumps, got %d lines and %d dumps", seed, n, len(lines), d.Dumps())
	}
	for i, l := range lines {
		if !strings.HasSuffix(l, ": "+frames[i].String()) {
			return errors.Errorf("seed %d: frame %d: expected %q, got %q", seed, i, frames[i].String(), l)
		}
	}
	return nil
}

// Parallel runs fn(ctx, i) for i in [0, n) concurrently, each in its own
// goroutine. It returns the first error.
//
func Parallel(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error { return fn(ctx, i) })
	}
	return g.Wait()
}
