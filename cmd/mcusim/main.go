// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command mcusim runs a stimulus script against the firmware test harness and
// reports what the neopixel, status LED and TWI observers saw.
//
package main

import (
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"time"

	"github.com/db47h/mcusim"
	"github.com/db47h/mcusim/harness"
	"github.com/db47h/mcusim/stimulus"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/image/bmp"
	"golang.org/x/term"
)

const (
	version   = "0.1.1"
	frequency = 8000000
)

type options struct {
	cfg          harness.Config
	neopixelFile string
	logLevel     int
	steps        uint64
	snapshot     string
	cpuprofile   string
	version      bool
}

var levelColors = map[mcusim.Level]string{
	mcusim.LevelError:   "\x1b[31m",
	mcusim.LevelWarning: "\x1b[33m",
	mcusim.LevelTrace:   "\x1b[36m",
	mcusim.LevelDebug:   "\x1b[90m",
}

func colorPrefix(l mcusim.Level) string {
	return levelColors[l] + l.String() + "\x1b[0m: "
}

func newRootCmd() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:   "mcusim [flags] stimulus.lua",
		Short: "Firmware test harness",
		Long: `mcusim replays a Lua stimulus script through the firmware test harness.
It decodes WS2812 frames on the neopixel pin, counts status LED changes and
logs and answers TWI bus transactions.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.version {
				fmt.Fprintf(cmd.OutOrStdout(), "mcusim version %s\n", version)
				return nil
			}
			if len(args) == 0 {
				return errors.New("need stimulus script as last argument")
			}
			return run(&o, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	fs := cmd.Flags()
	fs.BoolVarP(&o.cfg.DisableNeopixel, "disable-neopixel", "N", false, "Disable neopixel printing")
	fs.BoolVarP(&o.cfg.DisableStatistics, "disable-statistics", "S", false, "Disable statistics (cycles taken, led flip count)")
	fs.StringVarP(&o.neopixelFile, "neopixel-file", "n", "", "Dump neopixel trace to file named by argument")
	fs.IntVarP(&o.logLevel, "log-level", "l", int(mcusim.LevelWarning), "Set log level, 0 is none, 4 is max")
	fs.StringVarP(&o.cfg.TWILogPath, "i2c-file", "2", "", "Dump i2c write trace to file named by argument")
	fs.BoolVarP(&o.version, "version", "V", false, "Show version")
	fs.StringVar(&o.cfg.Wiring, "wire", harness.DefaultWiring, "Connect logical signals to MCU pins")
	fs.Uint64Var(&o.steps, "steps", frequency*15, "Maximum number of simulation steps")
	fs.Uint64Var(&o.cfg.StartDelay, "start-delay", 150000, "Cycle of the scripted i2c START")
	fs.Uint8Var(&o.cfg.SlaveAddr, "slave", 12, "Address of the scripted i2c transaction")
	fs.StringVar(&o.snapshot, "snapshot", "", "Write the last neopixel frame to a BMP file")
	fs.StringVar(&o.cpuprofile, "cpuprofile", "", "Write a CPU profile of the run loop to `file`")
	return cmd
}

func run(o *options, script string, stdout, stderr io.Writer) (err error) {
	o.cfg.LogLevel = mcusim.Level(o.logLevel)
	log := o.cfg.Logger(stdout, stderr)
	if f, ok := stderr.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		log.Prefix = colorPrefix
	}

	o.cfg.PixelOut = stdout
	if o.neopixelFile != "" {
		f, err := os.Create(o.neopixelFile)
		if err != nil {
			fmt.Fprintf(stderr, "unable to open %s as neopixel log; reverting to stdout\n", o.neopixelFile)
		} else {
			defer f.Close()
			o.cfg.PixelOut = f
		}
	}

	p, err := stimulus.LoadLuaFile(script)
	if err != nil {
		return err
	}
	s := mcusim.NewSim(frequency, log)
	h, err := harness.New(s, o.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := h.Close(); err == nil {
			err = cerr
		}
	}()
	if err = p.Load(s); err != nil {
		return err
	}

	if o.cpuprofile != "" {
		f, err := os.Create(o.cpuprofile)
		if err != nil {
			return errors.Wrap(err, "could not create CPU profile")
		}
		defer f.Close()
		if err = pprof.StartCPUProfile(f); err != nil {
			return errors.Wrap(err, "could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
	}

	start := time.Now()
	var steps uint64
	for ; steps < o.steps && s.State() == mcusim.Running; steps++ {
		s.Step()
	}
	elapsed := time.Since(start)
	if err = s.Err(); err != nil {
		return err
	}
	log.Logf(mcusim.LevelTrace, "simulation %v at cycle %d, %.6f simulated seconds\n",
		s.State(), s.Cycle(), float64(s.Cycle())/float64(s.Frequency()))

	if err = h.Report(stderr, steps, elapsed); err != nil {
		return err
	}
	if o.snapshot != "" && h.Pixels() != nil {
		return writeSnapshot(o.snapshot, h)
	}
	return nil
}

func writeSnapshot(name string, h *harness.Harness) error {
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrap(err, "snapshot")
	}
	fr := h.Pixels().Frame()
	if err = bmp.Encode(f, fr.Image()); err != nil {
		f.Close()
		return errors.Wrapf(err, "encode %s", name)
	}
	return errors.Wrapf(f.Close(), "close %s", name)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mcusim:", err)
		os.Exit(1)
	}
}
