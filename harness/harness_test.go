package harness_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/db47h/mcusim"
	"github.com/db47h/mcusim/harness"
	"github.com/db47h/mcusim/probe"
	"github.com/db47h/mcusim/simtest"
	"github.com/db47h/mcusim/stimulus"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const script = `
set("PB0", false)
at(1000)
for i = 1, 5 do
	toggle("PC7")
	delay(100)
end
at(2000)
pixels("PB0", {0x10, 0x20, 0x30})
at(10000)
send(START + WRITE + ADDR, 12, 0)
send(WRITE, 12, 42)
send(STOP, 12, 0)
at(200000)
stop()
`

type result struct {
	pixels string
	twiLog string
	report string
	acks   int
	fired  int
	in     []mcusim.TWIMsg
}

func run(t testing.TB, dir string, cfg harness.Config) (*result, error) {
	p, err := stimulus.LoadLuaString("e2e.lua", script)
	if err != nil {
		return nil, err
	}
	var pixels bytes.Buffer
	cfg.PixelOut = &pixels
	cfg.TWILogPath = filepath.Join(dir, "twi.log")

	s := mcusim.NewSim(simtest.Frequency, simtest.Logger(t, mcusim.LevelWarning))
	h, err := harness.New(s, cfg)
	if err != nil {
		return nil, err
	}
	rec := probe.NewRecorder(s)
	rec.Attach(s.TWI(cfg.TWIBus).In)
	if err = p.Load(s); err != nil {
		return nil, err
	}
	steps, err := s.Run(1000000)
	if err != nil {
		return nil, err
	}
	if err = h.Close(); err != nil {
		return nil, err
	}
	var report bytes.Buffer
	if err = h.Report(&report, steps, 1500*time.Millisecond); err != nil {
		return nil, err
	}
	log, err := os.ReadFile(cfg.TWILogPath)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &result{
		pixels: pixels.String(),
		twiLog: string(log),
		report: report.String(),
		acks:   h.Bus().Acks(),
		fired:  h.Initiator().Fired(),
		in:     rec.TWI(),
	}, nil
}

func TestHarness(t *testing.T) {
	r, err := run(t, t.TempDir(), harness.Config{})
	require.NoError(t, err)

	require.Equal(t, "pixel dump at cycle 4392: 102030 "+strings.Repeat("000000 ", 9)+"\n", r.pixels)
	require.Equal(t,
		"10000 twi START 21 12 0\n"+
			"10000 twi WRITE 12 42\n"+
			"10000 twi STOP 2 12 0\n",
		r.twiLog)
	require.Equal(t, 2, r.acks)
	require.Equal(t, 1, r.fired)

	ack := mcusim.TWIMsg{Cond: mcusim.CondAck, Addr: 24, Data: 1}
	start := mcusim.TWIMsg{Cond: mcusim.CondStart | mcusim.CondWrite | mcusim.CondAddr, Addr: 24, Data: 1}
	require.Equal(t, []mcusim.TWIMsg{ack, ack, start}, r.in)

	require.True(t, strings.HasPrefix(r.report, "simulation terminated after 200000 cycles, "), r.report)
	require.True(t, strings.HasSuffix(r.report, " steps, 1.500000 real seconds\nled_flipped_count: 5\n"), r.report)
}

func TestHarness_options(t *testing.T) {
	r, err := run(t, t.TempDir(), harness.Config{
		DisableNeopixel:   true,
		DisableStatistics: true,
		Wiring:            "status = PD[1..1]",
		StartDelay:        100,
		SlaveAddr:         0x21,
	})
	require.NoError(t, err)
	require.Empty(t, r.pixels)
	require.Empty(t, r.report)
	require.Equal(t, mcusim.TWIMsg{Cond: mcusim.CondStart | mcusim.CondWrite | mcusim.CondAddr, Addr: 0x42, Data: 1}, r.in[0])
}

func TestHarness_status(t *testing.T) {
	// PC7 is not wired.
	s := mcusim.NewSim(simtest.Frequency, nil)
	h, err := harness.New(s, harness.Config{Wiring: "neopixel=PB0, status=PC6"})
	require.NoError(t, err)
	pc6, _ := s.Pin("PC6")
	pc7, _ := s.Pin("PC7")
	for i := 0; i < 3; i++ {
		pc7.Set(i&1 == 0)
		pc6.Set(i&1 == 0)
		pc6.Set(i&1 == 0)
	}
	require.Equal(t, 3, h.StatusCount())
}

func TestHarness_wiringErrors(t *testing.T) {
	td := []struct {
		cfg harness.Config
		err string
	}{
		{harness.Config{Wiring: "neopixel=PX0, status=PC7"}, `wiring: signal neopixel: invalid port 'X' in pin name "PX0"`},
		{harness.Config{Wiring: "led=PB0"}, `wiring: unknown signal "led"`},
		{harness.Config{Wiring: "status=PC7"}, "wiring: neopixel signal not connected"},
		{harness.Config{Wiring: "neopixel=PB0"}, "wiring: status signal not connected"},
		{harness.Config{Wiring: "neopixel="}, "wiring"},
	}
	for i, d := range td {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			_, err := harness.New(mcusim.NewSim(simtest.Frequency, nil), d.cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), d.err)
		})
	}
	_, err := harness.New(mcusim.NewSim(simtest.Frequency, nil), harness.Config{Wiring: "neopixel=PB0", DisableStatistics: true})
	require.NoError(t, err)
}

func TestHarness_logFailure(t *testing.T) {
	_, err := run(t, filepath.Join(t.TempDir(), "missing"), harness.Config{})
	require.Error(t, err)
	require.True(t, os.IsNotExist(errors.Cause(err)), "%v", err)
}

func TestHarness_parallel(t *testing.T) {
	const n = 8
	dir := t.TempDir()
	rs := make([]*result, n)
	err := simtest.Parallel(context.Background(), n, func(_ context.Context, i int) error {
		d := filepath.Join(dir, strconv.Itoa(i))
		if err := os.Mkdir(d, 0755); err != nil {
			return err
		}
		r, err := run(t, d, harness.Config{})
		rs[i] = r
		return err
	})
	require.NoError(t, err)
	for i := 1; i < n; i++ {
		require.Equal(t, rs[0], rs[i], "run %d", i)
	}
}
