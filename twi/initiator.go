// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package twi

import "github.com/db47h/mcusim"

// DefaultStartDelay is the cycle at which the scripted transaction starts by
// default.
//
const DefaultStartDelay = 150000

// Initiator acts as a bus master: once its delay expires, it sends a START
// WRITE condition to a slave. The bus Decoder takes over from there.
//
type Initiator struct {
	Delay uint64 // cycles from attachment to the START condition
	Addr  uint8  // 7 bits slave address
	Data  uint8

	bus   *mcusim.TWI
	fired int
}

// NewInitiator returns an Initiator for the given bus with the default delay
// and slave address.
//
func NewInitiator(bus *mcusim.TWI) *Initiator {
	return &Initiator{Delay: DefaultStartDelay, Addr: SlaveAddr, Data: 1, bus: bus}
}

// Attach schedules the transaction.
//
func (i *Initiator) Attach(s *mcusim.Sim) {
	s.Timer(i.Delay, i.fire)
}

// Fired returns the number of times the transaction was started.
//
func (i *Initiator) Fired() int { return i.fired }

func (i *Initiator) fire(s *mcusim.Sim, cycle uint64) uint64 {
	s.Log().Logf(mcusim.LevelTrace, "i2c start at cycle %d\n", cycle)
	i.fired++
	i.bus.Send(mcusim.TWIMsg{
		Cond: mcusim.CondStart | mcusim.CondWrite | mcusim.CondAddr,
		Addr: i.Addr << 1,
		Data: i.Data,
	})
	// TODO: follow up with the data byte and a STOP once the ACK from the
	// slave can be waited for.
	return 0
}
