// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package neopixel decodes WS2812 style single wire pixel data from the pin
// transitions of a simulated MCU.
//
// A frame is sent as 240 bit slots of 10 cycles each. The line goes high at
// the start of every slot and goes low 2 cycles later for a 0 bit or 8 cycles
// later for a 1 bit. Frames are separated by at least 100 idle cycles.
//
package neopixel

import (
	"fmt"
	"io"

	"github.com/db47h/mcusim"
)

// Decoder rebuilds frames from pulse timing. Frames are dumped as text to its
// output once the last bit slot is reached.
//
type Decoder struct {
	out io.Writer
	log *mcusim.Logger

	frame  Frame
	start  uint64 // cycle of the first rising edge of the current frame
	last   uint64 // cycle of the last transition
	seen   bool   // any transition seen
	active bool   // a frame has been started
	dumps  int
}

// NewDecoder returns a new decoder dumping frames to out. Warnings about
// malformed signals go to log.
//
func NewDecoder(out io.Writer, log *mcusim.Logger) *Decoder {
	return &Decoder{out: out, log: log}
}

// Attach registers the decoder as an observer of pin.
//
func (d *Decoder) Attach(s *mcusim.Sim, pin *mcusim.IRQ) {
	pin.Notify(func(_ *mcusim.IRQ, v uint32) {
		d.Edge(s.Cycle(), v != 0)
	})
}

// Frame returns the current frame.
//
func (d *Decoder) Frame() Frame { return d.frame }

// Dumps returns the number of frame dumps written so far.
//
func (d *Decoder) Dumps() int { return d.dumps }

// Edge processes a transition of the data line at the given cycle. high is
// the new line level.
//
func (d *Decoder) Edge(cycle uint64, high bool) {
	first := !d.seen
	d.seen = true

	if !d.active || cycle > d.last+IdleGap {
		if !high {
			if !first {
				d.log.Logf(mcusim.LevelWarning, "unexpected high to low transition on neopixel pin, %d cycles after low to high\n", cycle-d.last)
			}
			// else this is the initial setup of the pin as a low output.
			return
		}
		d.start = cycle
		d.active = true
		d.frame = Frame{}
	}
	d.last = cycle
	pos := cycle - d.start

	if pos > FrameCycles {
		d.log.Logf(mcusim.LevelWarning, "lost sync with neopixel signal at cycle %d, %d cycles into the frame\n", cycle, pos)
		return
	}

	// rising edges are on slot boundaries, falling edges at ZeroHigh carry no
	// information since the frame starts zeroed.
	if slot := pos % BitCycles; slot != 0 && slot != ZeroHigh {
		if bit := int(pos / BitCycles); bit < Bits {
			d.frame.SetBit(bit)
		}
	}

	if pos > FrameCycles-BitCycles {
		d.dump(cycle)
	}
}

func (d *Decoder) dump(cycle uint64) {
	d.dumps++
	if d.out == nil {
		return
	}
	if _, err := fmt.Fprintf(d.out, "pixel dump at cycle %d: %s\n", cycle, d.frame.String()); err != nil {
		d.log.Logf(mcusim.LevelError, "neopixel dump: %v\n", err)
	}
}
