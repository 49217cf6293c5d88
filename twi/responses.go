// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package twi

import "github.com/db47h/mcusim"

// Raw returns the raw message word for the given 7 bits address and
// condition/data payload, as seen on the bus. The payload holds the
// condition in bits 8..15 and the data byte in bits 24..31.
//
func Raw(addr uint8, payload uint32) uint32 {
	return uint32(addr)<<17 | payload
}

// SlaveAddr is the address of the slave probed by the scripted transaction.
//
const SlaveAddr = 12

var (
	sendData = mcusim.TWIMsg{Cond: mcusim.CondWrite | mcusim.CondAddr, Addr: SlaveAddr << 1, Data: 66}
	sendStop = mcusim.TWIMsg{Cond: mcusim.CondStop | mcusim.CondWrite | mcusim.CondAddr, Addr: SlaveAddr << 1, Data: 1}
)

// readResponses maps raw READ messages from the MCU to the message sent back
// to it.
//
var readResponses = map[uint32]mcusim.TWIMsg{
	Raw(SlaveAddr, 0x2400): sendData,
}

// rawResponses maps raw messages with no START, STOP, WRITE or READ condition
// to the message sent back to the MCU. These are the replies the test
// firmware expects while it talks to the slave.
//
var rawResponses = map[uint32]mcusim.TWIMsg{
	Raw(SlaveAddr, 0x2400):     sendData,
	Raw(SlaveAddr, 0x1000c00):  sendData,
	Raw(SlaveAddr, 0x42002800): sendStop,
	Raw(SlaveAddr, 0x42000c00): sendStop,
}
