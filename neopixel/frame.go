// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package neopixel

import (
	"encoding/hex"
	"image"
	"image/color"
)

// Frame geometry and timing.
//
const (
	Pixels   = 10 // pixels in a frame
	Channels = 3  // color channels per pixel
	Bits     = Pixels * Channels * 8

	BitCycles   = 10 // cycles per bit slot
	ZeroHigh    = 2  // cycles the line stays high for a 0 bit
	OneHigh     = 8  // cycles the line stays high for a 1 bit
	FrameCycles = Bits * BitCycles

	// IdleGap is the number of cycles without transitions after which the
	// next rising edge starts a new frame.
	IdleGap = 100
)

// A Frame holds the color channel values of every pixel, in wire order (GRB
// for WS2812 parts).
//
type Frame [Pixels][Channels]byte

// Bit returns the value of bit n of f, bit 0 being the first bit sent on the
// wire, i.e. the msb of channel 0 of pixel 0.
//
func (f *Frame) Bit(n int) bool {
	return f[n/24][(n%24)/8]&(1<<uint(7-n%8)) != 0
}

// SetBit sets bit n of f.
//
func (f *Frame) SetBit(n int) {
	f[n/24][(n%24)/8] |= 1 << uint(7-n%8)
}

// String returns the frame as hex digits, one group of 6 digits per pixel,
// each group followed by a space.
//
func (f *Frame) String() string {
	b := make([]byte, 0, Pixels*(Channels*2+1))
	var buf [Channels * 2]byte
	for p := range f {
		hex.Encode(buf[:], f[p][:])
		b = append(b, buf[:]...)
		b = append(b, ' ')
	}
	return string(b)
}

// Image renders f as a Pixels x 1 image. Channels are read in GRB order.
//
func (f *Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Pixels, 1))
	for p := range f {
		img.SetRGBA(p, 0, color.RGBA{R: f[p][1], G: f[p][0], B: f[p][2], A: 0xff})
	}
	return img
}
