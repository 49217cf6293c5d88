// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package mcusim

import (
	"strconv"
	"strings"
)

// Cond is a set of TWI bus conditions carried by a TWI message.
//
type Cond uint8

// TWI bus conditions.
//
const (
	CondStart Cond = 1 << iota
	CondStop
	CondAddr
	CondAck
	CondWrite
	CondRead
)

var condNames = [...]string{"START", "STOP", "ADDR", "ACK", "WRITE", "READ"}

// Has returns true if all the conditions in c2 are set in c.
//
func (c Cond) Has(c2 Cond) bool { return c&c2 == c2 }

func (c Cond) String() string {
	if c == 0 {
		return "0"
	}
	var b strings.Builder
	for i, n := range condNames {
		if c&(1<<uint(i)) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('|')
		}
		b.WriteString(n)
	}
	if rest := c &^ (1<<uint(len(condNames)) - 1); rest != 0 {
		if b.Len() > 0 {
			b.WriteByte('|')
		}
		b.WriteString("0x" + strconv.FormatUint(uint64(rest), 16))
	}
	return b.String()
}

// TWIMsg is a message exchanged on a TWI bus. On the wire, i.e. as an IRQ
// value, it is packed into a 32 bits word:
//
//	bits  0..7: unused
//	bits  8..15: Cond
//	bits 16..23: Addr
//	bits 24..31: Data
//
// Addr is the address as it appears in the TWDR register, shifted left by one.
//
type TWIMsg struct {
	Cond Cond
	Addr uint8
	Data uint8
}

// Value returns the message packed as an IRQ value.
//
func (m TWIMsg) Value() uint32 {
	return uint32(m.Cond)<<8 | uint32(m.Addr)<<16 | uint32(m.Data)<<24
}

// Address returns the 7 bits device address.
//
func (m TWIMsg) Address() uint8 { return m.Addr >> 1 }

// DecodeTWIMsg unpacks an IRQ value into a TWIMsg.
//
func DecodeTWIMsg(v uint32) TWIMsg {
	return TWIMsg{
		Cond: Cond(v >> 8),
		Addr: uint8(v >> 16),
		Data: uint8(v >> 24),
	}
}

// TWI is a TWI (I2C) bus attached to the simulated MCU. Messages sent by the
// MCU are raised on Out, messages sent to the MCU by other devices on the bus
// must be raised on In.
//
type TWI struct {
	In  *IRQ
	Out *IRQ
}

// Send raises m on the bus input, i.e. sends it to the MCU.
//
func (t *TWI) Send(m TWIMsg) {
	t.In.Raise(m.Value())
}

// TWI returns the TWI bus number n, allocating its IRQs on first use. The IRQs
// are named "twiN.in" and "twiN.out".
//
func (s *Sim) TWI(n int) *TWI {
	t, ok := s.twi[n]
	if !ok {
		p := "twi" + strconv.Itoa(n)
		t = &TWI{In: s.IRQ(p + ".in"), Out: s.IRQ(p + ".out")}
		s.twi[n] = t
	}
	return t
}
