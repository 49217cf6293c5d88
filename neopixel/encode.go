// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package neopixel

// An Edge is a transition of the data line.
//
type Edge struct {
	Cycle uint64
	High  bool
}

// Encode returns the transitions a WS2812 driver produces when sending f,
// starting at cycle start. The line is expected to be low before start and is
// left low after the last edge.
//
func Encode(start uint64, f *Frame) []Edge {
	edges := make([]Edge, 0, Bits*2)
	for bit := 0; bit < Bits; bit++ {
		c := start + uint64(bit*BitCycles)
		high := uint64(ZeroHigh)
		if f.Bit(bit) {
			high = OneHigh
		}
		edges = append(edges, Edge{c, true}, Edge{c + high, false})
	}
	return edges
}
