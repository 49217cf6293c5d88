// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package probe provides observers that record what happens on IRQs.
//
package probe

import "github.com/db47h/mcusim"

// Toggle counts the changes of a binary signal. The signal is assumed to be
// off before the first change.
//
type Toggle struct {
	on    bool
	count int
}

// Attach registers t as an observer of irq.
//
func (t *Toggle) Attach(irq *mcusim.IRQ) {
	irq.Notify(func(_ *mcusim.IRQ, v uint32) { t.Change(v != 0) })
}

// Change records a new signal value.
//
func (t *Toggle) Change(on bool) {
	if on != t.on {
		t.count++
	}
	t.on = on
}

// Count returns the number of changes seen so far.
//
func (t *Toggle) Count() int { return t.count }

// Sample is a value raised on an IRQ at a given cycle.
//
type Sample struct {
	Cycle uint64
	Value uint32
}

// Recorder records every value raised on the IRQs it is attached to.
//
type Recorder struct {
	s       *mcusim.Sim
	Samples []Sample
}

// NewRecorder returns a recorder that timestamps samples with the cycle
// counter of s.
//
func NewRecorder(s *mcusim.Sim) *Recorder {
	return &Recorder{s: s}
}

// Attach registers r as an observer of irq.
//
func (r *Recorder) Attach(irq *mcusim.IRQ) {
	irq.Notify(func(_ *mcusim.IRQ, v uint32) {
		r.Samples = append(r.Samples, Sample{r.s.Cycle(), v})
	})
}

// TWI returns the recorded samples decoded as TWI messages.
//
func (r *Recorder) TWI() []mcusim.TWIMsg {
	ms := make([]mcusim.TWIMsg, len(r.Samples))
	for i, s := range r.Samples {
		ms[i] = mcusim.DecodeTWIMsg(s.Value)
	}
	return ms
}

// Reset clears recorded samples.
//
func (r *Recorder) Reset() { r.Samples = r.Samples[:0] }
