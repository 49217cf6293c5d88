// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package mcusim

import (
	"strconv"

	"github.com/pkg/errors"
)

// A Hook is called with the new value every time an IRQ is raised.
//
type Hook func(irq *IRQ, value uint32)

// An IRQ is a named signal in a simulation. Simulated peripherals raise IRQs
// with a new value and observers registered with Notify get called
// synchronously.
//
// A filtered IRQ only notifies its observers when its value changes. Pin IRQs
// are filtered, bus IRQs are not since the same message may legitimately be
// sent twice in a row.
//
type IRQ struct {
	name     string
	value    uint32
	filtered bool
	hooks    []Hook
	chain    []*IRQ
}

// Name returns the IRQ name.
//
func (i *IRQ) Name() string { return i.name }

// Value returns the last value the IRQ was raised with.
//
func (i *IRQ) Value() uint32 { return i.value }

// Notify registers h to be called every time i is raised.
//
func (i *IRQ) Notify(h Hook) {
	i.hooks = append(i.hooks, h)
}

// Connect chains dst to i: raising i raises dst with the same value, after
// all of i's own hooks have been called.
//
func (i *IRQ) Connect(dst *IRQ) {
	i.chain = append(i.chain, dst)
}

// Raise sets the IRQ value and notifies observers.
//
func (i *IRQ) Raise(value uint32) {
	if i.filtered && value == i.value {
		return
	}
	i.value = value
	for _, h := range i.hooks {
		h(i, value)
	}
	for _, c := range i.chain {
		c.Raise(value)
	}
}

// Set raises the IRQ with 1 if v is true, 0 otherwise.
//
func (i *IRQ) Set(v bool) {
	if v {
		i.Raise(1)
	} else {
		i.Raise(0)
	}
}

// IRQ returns the IRQ with the given name, allocating a new unfiltered IRQ if
// none exists.
//
func (s *Sim) IRQ(name string) *IRQ {
	irq, ok := s.irqs[name]
	if !ok {
		irq = &IRQ{name: name}
		s.irqs[name] = irq
	}
	return irq
}

// Lookup returns the IRQ with the given name. It fails if no such IRQ has
// been allocated.
//
func (s *Sim) Lookup(name string) (*IRQ, error) {
	irq, ok := s.irqs[name]
	if !ok {
		return nil, errors.New("irq " + name + " does not exist")
	}
	return irq, nil
}

// Pin returns the IRQ for a port pin. Pin names follow the AVR convention:
// 'P', a port letter and a bit number, like PB0 or PC7. Pin IRQs are
// filtered.
//
func (s *Sim) Pin(name string) (*IRQ, error) {
	if _, _, err := ParsePin(name); err != nil {
		return nil, err
	}
	irq, ok := s.irqs[name]
	if !ok {
		irq = &IRQ{name: name, filtered: true}
		s.irqs[name] = irq
	}
	return irq, nil
}

// ParsePin splits a pin name like "PB0" into its port letter and bit number.
//
func ParsePin(name string) (port byte, bit int, err error) {
	if len(name) != 3 || name[0] != 'P' {
		return 0, 0, errors.Errorf("invalid pin name %q", name)
	}
	port = name[1]
	if port < 'A' || port > 'L' {
		return 0, 0, errors.Errorf("invalid port %q in pin name %q", port, name)
	}
	bit, err = strconv.Atoi(name[2:])
	if err != nil || bit > 7 {
		return 0, 0, errors.Errorf("invalid bit number in pin name %q", name)
	}
	return port, bit, nil
}

// PinName returns the name of bit in port.
//
func PinName(port byte, bit int) string {
	return "P" + string(port) + strconv.Itoa(bit)
}
