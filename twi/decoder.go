// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package twi decodes the TWI (I2C) bus traffic of a simulated MCU, acts as
// the slave side of write transactions and drives a scripted master
// transaction.
//
package twi

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/db47h/mcusim"
	"github.com/pkg/errors"
)

// An Opener opens a bus log for writing.
//
type Opener func(name string) (io.WriteCloser, error)

func create(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

// Decoder logs bus transactions and acknowledges START and WRITE messages.
//
// The log is opened on the first message. If no log path is configured,
// transactions are not logged at all. A log that cannot be opened crashes the
// simulation.
//
type Decoder struct {
	s    *mcusim.Sim
	bus  *mcusim.TWI
	path string
	// Open is used to open the log. It defaults to os.Create.
	Open Opener

	f    io.WriteCloser
	w    *bufio.Writer
	err  error // open error
	werr error // first write error

	acks     int
	injected int
}

// NewDecoder returns a decoder for the given bus. logPath is the bus log file
// name, an empty string disables logging.
//
func NewDecoder(s *mcusim.Sim, bus *mcusim.TWI, logPath string) *Decoder {
	return &Decoder{s: s, bus: bus, path: logPath, Open: create}
}

// Attach registers d as an observer of messages sent by the MCU.
//
func (d *Decoder) Attach() {
	d.bus.Out.Notify(func(_ *mcusim.IRQ, v uint32) {
		d.Message(v)
	})
}

// Acks returns the number of ACK messages sent to the MCU.
//
func (d *Decoder) Acks() int { return d.acks }

// Injected returns the number of scripted responses sent to the MCU.
//
func (d *Decoder) Injected() int { return d.injected }

func (d *Decoder) open() bool {
	if d.w != nil {
		return true
	}
	if d.path == "" || d.err != nil {
		return false
	}
	f, err := d.Open(d.path)
	if err != nil {
		d.err = errors.Wrapf(err, "unable to open %s for writing", d.path)
		d.s.Crash(d.err)
		return false
	}
	d.f = f
	d.w = bufio.NewWriter(f)
	return true
}

func (d *Decoder) logf(format string, args ...interface{}) {
	if d.w == nil {
		return
	}
	d.s.Log().Logf(mcusim.LevelDebug, format, args...)
	fmt.Fprintf(d.w, format, args...)
	if err := d.w.Flush(); err != nil && d.werr == nil {
		d.werr = errors.Wrapf(err, "write %s", d.path)
		d.s.Log().Logf(mcusim.LevelError, "twi log: %v\n", d.werr)
	}
}

// Message processes a raw message word sent by the MCU.
//
func (d *Decoder) Message(v uint32) {
	if !d.open() && d.err != nil {
		return
	}
	m := mcusim.DecodeTWIMsg(v)
	c, addr := d.s.Cycle(), m.Address()

	switch {
	case m.Cond&mcusim.CondStop != 0:
		d.logf("%d twi STOP %d %d %d\n", c, m.Cond, addr, m.Data)
	case m.Cond&mcusim.CondStart != 0:
		d.logf("%d twi START %d %d %d\n", c, m.Cond, addr, m.Data)
		d.ack(m.Addr)
	case m.Cond&mcusim.CondWrite != 0:
		d.logf("%d twi WRITE %d %d\n", c, addr, m.Data)
		d.ack(m.Addr)
	case m.Cond&mcusim.CondRead != 0:
		// reads are not acknowledged: there is no data to send back.
		d.logf("%d twi READ %x %d %d\n", c, v, addr, m.Data)
		if r, ok := readResponses[v]; ok {
			d.s.Log().Logf(mcusim.LevelTrace, "twi: sending data byte start after read\n")
			d.inject(r)
		}
	default:
		if r, ok := rawResponses[v]; ok {
			d.s.Log().Logf(mcusim.LevelTrace, "twi: sending %v response to %#x\n", r.Cond, v)
			d.inject(r)
		}
	}
	if m.Cond&mcusim.CondAck != 0 {
		d.logf("%d twi ACK %d %d %d\n", c, m.Cond, addr, m.Data)
	}
}

// ack sends an ACK back to the MCU. addr is the shifted address.
//
func (d *Decoder) ack(addr uint8) {
	d.acks++
	d.bus.Send(mcusim.TWIMsg{Cond: mcusim.CondAck, Addr: addr, Data: 1})
}

func (d *Decoder) inject(m mcusim.TWIMsg) {
	d.injected++
	d.bus.Send(m)
}

// Close flushes and closes the log.
//
func (d *Decoder) Close() error {
	if d.f == nil {
		return nil
	}
	err := d.w.Flush()
	if cerr := d.f.Close(); err == nil {
		err = cerr
	}
	d.f, d.w = nil, nil
	if err != nil && d.werr == nil {
		return errors.Wrapf(err, "close %s", d.path)
	}
	return d.werr
}
