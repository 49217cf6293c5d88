// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package stimulus drives the pins and buses of a simulation with cycle
// timed actions. A Program stands in for the firmware of the simulated MCU:
// instead of running instructions, it replays the signal changes the firmware
// would produce.
//
package stimulus

import (
	"sort"

	"github.com/db47h/mcusim"
	"github.com/db47h/mcusim/neopixel"
	"github.com/pkg/errors"
)

// Op is the operation performed by an Action.
//
type Op int

// Operations.
//
const (
	OpSet Op = iota
	OpToggle
	OpBus
	OpStop
)

// An Action is a signal change at a given cycle.
//
type Action struct {
	Cycle uint64
	Op    Op
	Pin   string // OpSet, OpToggle
	High  bool   // OpSet
	Bus   int    // OpBus
	Value uint32 // OpBus, raw message word
}

// Program is a list of actions. Actions are added at the program cursor, which
// starts at cycle 0 and only moves with Delay and At.
//
type Program struct {
	cursor  uint64
	actions []Action
}

// Cursor returns the cycle at which the next action will be added.
//
func (p *Program) Cursor() uint64 { return p.cursor }

// Actions returns the program's actions in the order they were added.
//
func (p *Program) Actions() []Action { return p.actions }

// Delay moves the cursor n cycles forward.
//
func (p *Program) Delay(n uint64) *Program {
	p.cursor += n
	return p
}

// At moves the cursor to the given cycle.
//
func (p *Program) At(cycle uint64) *Program {
	p.cursor = cycle
	return p
}

func (p *Program) add(a Action) *Program {
	a.Cycle = p.cursor
	p.actions = append(p.actions, a)
	return p
}

// Set sets the level of a pin.
//
func (p *Program) Set(pin string, high bool) *Program {
	return p.add(Action{Op: OpSet, Pin: pin, High: high})
}

// Toggle inverts the level of a pin.
//
func (p *Program) Toggle(pin string) *Program {
	return p.add(Action{Op: OpToggle, Pin: pin})
}

// Send sends a message on TWI bus n, from the MCU.
//
func (p *Program) Send(n int, m mcusim.TWIMsg) *Program {
	return p.Raw(n, m.Value())
}

// Raw sends a raw message word on TWI bus n, from the MCU.
//
func (p *Program) Raw(n int, v uint32) *Program {
	return p.add(Action{Op: OpBus, Bus: n, Value: v})
}

// Pixels sends frame f on pin as a WS2812 waveform. The cursor is left on
// the last falling edge.
//
func (p *Program) Pixels(pin string, f *neopixel.Frame) *Program {
	start := p.cursor
	for _, e := range neopixel.Encode(start, f) {
		p.At(e.Cycle).Set(pin, e.High)
	}
	return p
}

// Stop stops the simulation.
//
func (p *Program) Stop() *Program {
	return p.add(Action{Op: OpStop})
}

type target struct {
	Action
	pin *mcusim.IRQ
	bus *mcusim.TWI
}

// Load schedules the program in s. Actions are run in cycle order; actions on
// the same cycle run in the order they were added. Actions scheduled before
// the current cycle of s run on the first step.
//
func (p *Program) Load(s *mcusim.Sim) error {
	ts := make([]target, len(p.actions))
	for i, a := range p.actions {
		ts[i].Action = a
		switch a.Op {
		case OpSet, OpToggle:
			irq, err := s.Pin(a.Pin)
			if err != nil {
				return errors.Wrapf(err, "action %d", i)
			}
			ts[i].pin = irq
		case OpBus:
			ts[i].bus = s.TWI(a.Bus)
		}
	}
	if len(ts) == 0 {
		return nil
	}
	sort.SliceStable(ts, func(i, j int) bool { return ts[i].Cycle < ts[j].Cycle })

	var delay uint64
	if now := s.Cycle(); ts[0].Cycle > now {
		delay = ts[0].Cycle - now
	}
	s.Timer(delay, func(s *mcusim.Sim, cycle uint64) uint64 {
		for len(ts) > 0 && ts[0].Cycle <= cycle {
			t := ts[0]
			ts = ts[1:]
			switch t.Op {
			case OpSet:
				t.pin.Set(t.High)
			case OpToggle:
				t.pin.Set(t.pin.Value() == 0)
			case OpBus:
				t.bus.Out.Raise(t.Value)
			case OpStop:
				s.Stop()
			}
		}
		if len(ts) == 0 {
			return 0
		}
		return ts[0].Cycle - cycle
	})
	return nil
}
