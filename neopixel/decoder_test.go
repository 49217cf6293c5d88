package neopixel_test

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/db47h/mcusim"
	"github.com/db47h/mcusim/neopixel"
	"github.com/db47h/mcusim/simtest"
	"github.com/stretchr/testify/require"
)

func newDecoder() (*neopixel.Decoder, *bytes.Buffer, *bytes.Buffer) {
	var out, errs bytes.Buffer
	return neopixel.NewDecoder(&out, mcusim.NewLogger(mcusim.LevelWarning, &out, &errs)), &out, &errs
}

func feed(d *neopixel.Decoder, edges []neopixel.Edge) {
	for _, e := range edges {
		d.Edge(e.Cycle, e.High)
	}
}

func TestDecoder_bits(t *testing.T) {
	d, _, errs := newDecoder()
	// 0 bit in slot 0, 1 bit in slot 1.
	feed(d, []neopixel.Edge{
		{1000, true}, {1002, false},
		{1010, true}, {1018, false},
		{1020, true}, {1022, false},
	})
	f := d.Frame()
	require.Equal(t, byte(0x40), f[0][0])
	for p := range f {
		for c := range f[p] {
			if p == 0 && c == 0 {
				continue
			}
			require.Zero(t, f[p][c], "pixel %d channel %d", p, c)
		}
	}
	require.Empty(t, errs.String())
}

func TestDecoder_roundTrip(t *testing.T) {
	var f neopixel.Frame
	for p := range f {
		f[p] = [neopixel.Channels]byte{byte(p * 17), byte(0xff - p), byte(1 << uint(p%8))}
	}
	d, out, errs := newDecoder()
	feed(d, neopixel.Encode(500, &f))
	require.Equal(t, f, d.Frame())
	require.Equal(t, 1, d.Dumps())
	edges := neopixel.Encode(500, &f)
	last := strconv.FormatUint(edges[len(edges)-1].Cycle, 10)
	require.Equal(t, "pixel dump at cycle "+last+": "+f.String()+"\n", out.String())
	require.Empty(t, errs.String())
}

func TestDecoder_allOnes(t *testing.T) {
	var f neopixel.Frame
	for p := range f {
		for c := range f[p] {
			f[p][c] = 0xff
		}
	}
	d, out, _ := newDecoder()
	edges := neopixel.Encode(200, &f)
	require.Equal(t, uint64(neopixel.FrameCycles), edges[len(edges)-1].Cycle-200+2)
	feed(d, edges)
	require.Equal(t, "pixel dump at cycle 2598: "+strings.Repeat("ffffff ", neopixel.Pixels)+"\n", out.String())
}

func TestDecoder_newFrameResets(t *testing.T) {
	var f1, f2 neopixel.Frame
	for p := range f1 {
		f1[p] = [neopixel.Channels]byte{0xff, 0xff, 0xff}
	}
	f2[3][1] = 0x81
	d, out, errs := newDecoder()
	edges := neopixel.Encode(150, &f1)
	feed(d, edges)
	next := edges[len(edges)-1].Cycle + neopixel.IdleGap + 1
	feed(d, neopixel.Encode(next, &f2))
	require.Equal(t, f2, d.Frame())
	require.Equal(t, 2, d.Dumps())
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasSuffix(lines[1], f2.String()))
	require.Empty(t, errs.String())

	// a rising edge after a long gap always starts from a zeroed frame.
	d.Edge(next+10*neopixel.FrameCycles, true)
	require.Equal(t, neopixel.Frame{}, d.Frame())
}

func TestDecoder_initialLow(t *testing.T) {
	d, _, errs := newDecoder()
	d.Edge(255, false)
	require.Empty(t, errs.String())
	require.Equal(t, 0, d.Dumps())
}

func TestDecoder_unexpectedFall(t *testing.T) {
	d, _, errs := newDecoder()
	d.Edge(1000, true)
	d.Edge(1002, false)
	d.Edge(1500, false)
	require.Contains(t, errs.String(), "unexpected high to low transition on neopixel pin, 498 cycles after low to high")
	// the dropped edge did not move the frame start.
	d.Edge(1510, true)
	require.Equal(t, neopixel.Frame{}, d.Frame())
}

func TestDecoder_lostSync(t *testing.T) {
	var f1 neopixel.Frame
	f1[9][2] = 0x01
	d, out, errs := newDecoder()
	feed(d, neopixel.Encode(0, &f1))
	require.Equal(t, 1, d.Dumps())
	// extra pulses keep the frame alive past its end. The rising edge at
	// 2400 is still in the last slot and dumps again.
	for c := uint64(2400); c < 2500; c += 10 {
		d.Edge(c, true)
		d.Edge(c+5, false)
	}
	require.Equal(t, 2, d.Dumps())
	errs.Reset()
	out.Reset()
	d.Edge(2500, true)
	d.Edge(2505, false)
	require.Contains(t, errs.String(), "lost sync with neopixel signal at cycle 2500, 2500 cycles into the frame")
	// dropped edges neither dump nor restart the frame.
	require.Equal(t, 2, d.Dumps())
	require.Empty(t, out.String())
	require.Equal(t, f1, d.Frame())

	// the idle gap re-arms frame start.
	var f2 neopixel.Frame
	f2[0][0] = 0x80
	errs.Reset()
	feed(d, neopixel.Encode(3000, &f2))
	require.Equal(t, f2, d.Frame())
	require.Empty(t, errs.String())
	require.Equal(t, 3, d.Dumps())
	require.True(t, strings.HasPrefix(out.String(), "pixel dump at cycle 5392: 800000 "))
}

func TestDecoder_attach(t *testing.T) {
	var out bytes.Buffer
	s := mcusim.NewSim(8000000, nil)
	pin, err := s.Pin("PB0")
	require.NoError(t, err)
	d := neopixel.NewDecoder(&out, nil)
	d.Attach(s, pin)

	var f neopixel.Frame
	f[9][2] = 0x01
	simtest.Drive(s, pin, neopixel.Encode(300, &f))
	_, err = s.Run(10000)
	require.NoError(t, err)
	require.Equal(t, f, d.Frame())
	require.Equal(t, 1, d.Dumps())
}

func TestFrame_Image(t *testing.T) {
	var f neopixel.Frame
	f[2] = [neopixel.Channels]byte{0x10, 0x20, 0x30}
	img := f.Image()
	require.Equal(t, neopixel.Pixels, img.Bounds().Dx())
	c := img.RGBAAt(2, 0)
	require.Equal(t, [4]uint8{0x20, 0x10, 0x30, 0xff}, [4]uint8{c.R, c.G, c.B, c.A})
}

func TestDecoder_random(t *testing.T) {
	for seed := int64(0); seed < 4; seed++ {
		require.NoError(t, simtest.CheckFrames(seed, 3, simtest.Logger(t, mcusim.LevelWarning)))
	}
}
