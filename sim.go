// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package mcusim

import (
	"sort"

	"github.com/pkg/errors"
)

// A Component is a piece of simulated hardware that is updated once every
// cycle.
//
type Component func(s *Sim)

// A TimerFn is called when a cycle timer expires. It returns the delay, in
// cycles, after which it wants to be called again. A zero delay cancels the
// timer.
//
type TimerFn func(s *Sim, cycle uint64) uint64

// State is the run state of a simulation.
//
type State int

// Simulation states.
//
const (
	Running State = iota
	Done
	Crashed
)

func (st State) String() string {
	switch st {
	case Running:
		return "running"
	case Done:
		return "done"
	case Crashed:
		return "crashed"
	}
	return "unknown"
}

type timer struct {
	when uint64
	seq  uint64 // registration order, breaks ties between timers due on the same cycle
	fn   TimerFn
}

// Sim is a cycle based event source. It advances a monotonic cycle counter and
// notifies observers registered on its IRQs whenever a simulated signal
// changes.
//
// A Sim is not safe for concurrent use: all components, timers and IRQ hooks
// run synchronously from Step. Independent Sim instances share no state.
//
type Sim struct {
	freq  uint32
	cycle uint64
	steps uint64
	state State
	err   error

	cs     []Component
	timers []timer // sorted by (when, seq)
	seq    uint64

	irqs map[string]*IRQ
	twi  map[int]*TWI
	log  *Logger
}

// NewSim returns a new simulation clocked at frequency Hz. The frequency is
// informative only: the simulation itself counts cycles, not seconds.
//
// log may be nil, in which case all log messages are discarded.
//
func NewSim(frequency uint32, log *Logger, cs ...Component) *Sim {
	return &Sim{
		freq: frequency,
		cs:   cs,
		irqs: make(map[string]*IRQ),
		twi:  make(map[int]*TWI),
		log:  log,
	}
}

// Add adds per-cycle components to the simulation.
//
func (s *Sim) Add(cs ...Component) {
	s.cs = append(s.cs, cs...)
}

// Cycle returns the current value of the cycle counter.
//
func (s *Sim) Cycle() uint64 { return s.cycle }

// Steps returns the number of steps run so far.
//
func (s *Sim) Steps() uint64 { return s.steps }

// Frequency returns the clock frequency given to NewSim.
//
func (s *Sim) Frequency() uint32 { return s.freq }

// State returns the simulation state.
//
func (s *Sim) State() State { return s.state }

// Err returns the error that crashed the simulation, if any.
//
func (s *Sim) Err() error { return s.err }

// Log returns the simulation logger. The returned value may be nil, which is
// a valid Logger that discards everything.
//
func (s *Sim) Log() *Logger { return s.log }

// Stop puts the simulation in the Done state. The current step completes
// normally but the cycle counter is not advanced.
//
func (s *Sim) Stop() {
	if s.state == Running {
		s.state = Done
	}
}

// Crash puts the simulation in the Crashed state. Run will return err.
//
func (s *Sim) Crash(err error) {
	if s.state == Crashed {
		return
	}
	if err == nil {
		err = errors.New("simulation crashed")
	}
	s.state = Crashed
	s.err = err
	s.log.Logf(LevelError, "crashed at cycle %d: %v\n", s.cycle, err)
}

// Timer registers fn to be called delay cycles from now. A zero delay fires
// on the current cycle if it has not been processed yet, on the next one
// otherwise.
//
func (s *Sim) Timer(delay uint64, fn TimerFn) {
	s.schedule(s.cycle+delay, fn)
}

func (s *Sim) schedule(when uint64, fn TimerFn) {
	t := timer{when: when, seq: s.seq, fn: fn}
	s.seq++
	i := sort.Search(len(s.timers), func(i int) bool {
		tt := &s.timers[i]
		return tt.when > t.when || tt.when == t.when && tt.seq > t.seq
	})
	s.timers = append(s.timers, timer{})
	copy(s.timers[i+1:], s.timers[i:])
	s.timers[i] = t
}

// Pending returns the number of pending timers.
//
func (s *Sim) Pending() int { return len(s.timers) }

func (s *Sim) fireTimers() {
	for len(s.timers) > 0 && s.timers[0].when <= s.cycle && s.state == Running {
		t := s.timers[0]
		s.timers = s.timers[1:]
		if next := t.fn(s, s.cycle); next > 0 {
			s.schedule(s.cycle+next, t.fn)
		}
	}
}

// Step advances the simulation by one cycle: expired timers fire first, then
// every component is updated. When the simulation has no components, the
// cycle counter skips ahead to the next pending timer, if any.
//
// Step returns the simulation state after the step.
//
func (s *Sim) Step() State {
	if s.state == Running {
		s.step(^uint64(0))
	}
	return s.state
}

func (s *Sim) step(limit uint64) {
	s.steps++
	s.fireTimers()
	for _, c := range s.cs {
		if s.state != Running {
			break
		}
		c(s)
	}
	if s.state == Running {
		s.advance(limit)
	}
}

func (s *Sim) advance(limit uint64) {
	next := s.cycle + 1
	if len(s.cs) == 0 {
		switch {
		case len(s.timers) > 0:
			if w := s.timers[0].when; w > next {
				next = w
			}
		case limit != ^uint64(0):
			// nothing left to simulate.
			next = limit
		}
	}
	if next > limit {
		next = limit
	}
	if next > s.cycle {
		s.cycle = next
	}
}

// Run runs the simulation until the cycle counter reaches limit or the
// simulation reaches a terminal state. It returns the number of steps run
// and, if the simulation crashed, the crash error.
//
// With no components and no pending timers, the cycle counter skips directly
// to limit.
//
func (s *Sim) Run(limit uint64) (uint64, error) {
	start := s.steps
	for s.state == Running && s.cycle < limit {
		s.step(limit)
	}
	if s.state == Crashed {
		return s.steps - start, s.err
	}
	return s.steps - start, nil
}
