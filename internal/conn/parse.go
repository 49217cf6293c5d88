// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package conn parses connection strings like "neopixel=PB0, led[0..2]=PC[5..7]".
//
package conn

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// Assignment connects a logical signal name (Name) to a physical signal
// (Target).
//
type Assignment struct {
	Name   string
	Target string
}

// pin is a pin name optionally followed by an index or range.
type pin struct {
	name  string
	pos   int
	start int
	end   int // -1 for single pins
}

func (p *pin) names() []string {
	if p.end < 0 {
		return []string{p.name}
	}
	step := 1
	if p.end < p.start {
		step = -1
	}
	r := make([]string, 0, (p.end-p.start)*step+1)
	for i := p.start; ; i += step {
		r = append(r, Name(p.name, i))
		if i == p.end {
			break
		}
	}
	return r
}

// Name returns the name of signal i in group name. Ranges expand by
// appending the index to the group name: PB[0..1] expands to PB0, PB1.
//
func Name(name string, i int) string {
	return name + strconv.Itoa(i)
}

type parser struct {
	input string
	l     *lexer
	i     Item
}

// Parse parses a connection string. Connections are separated by commas.
// Both sides of a connection may be a signal name, an indexed signal name
// like PB[3], or a range like PB[0..3].
//
// If both sides expand to the same number of signals, they are connected one
// to one. If only one side has a single signal, it is connected to every
// signal on the other side.
//
func Parse(input string) ([]Assignment, error) {
	p := &parser{input: input, l: newLexer(input)}
	var r []Assignment

	p.i = p.l.lex()
	if p.i.Type == EOF {
		return nil, nil
	}
	for {
		lhs, err := p.pin()
		if err != nil {
			return nil, err
		}
		if p.i.Type != Equal {
			return nil, p.errorf("expected '=', got %v", p.i)
		}
		p.i = p.l.lex()
		rhs, err := p.pin()
		if err != nil {
			return nil, err
		}
		as, err := expand(lhs, rhs)
		if err != nil {
			return nil, p.errorAt(lhs.pos, err.Error())
		}
		r = append(r, as...)

		switch p.i.Type {
		case EOF:
			return r, nil
		case Comma:
			p.i = p.l.lex()
		default:
			return nil, p.errorf("expected ',' or end of input, got %v", p.i)
		}
	}
}

func expand(lhs, rhs *pin) ([]Assignment, error) {
	ls, rs := lhs.names(), rhs.names()
	var r []Assignment
	switch {
	case len(ls) == len(rs):
		for i := range ls {
			r = append(r, Assignment{ls[i], rs[i]})
		}
	case len(ls) == 1:
		for _, t := range rs {
			r = append(r, Assignment{ls[0], t})
		}
	case len(rs) == 1:
		for _, n := range ls {
			r = append(r, Assignment{n, rs[0]})
		}
	default:
		return nil, errors.Errorf("pin count mismatch: %d signals connected to %d", len(ls), len(rs))
	}
	return r, nil
}

func (p *parser) pin() (*pin, error) {
	if p.i.Type != Ident {
		return nil, p.errorf("expected pin name, got %v", p.i)
	}
	pn := &pin{name: p.i.Value.(string), pos: p.i.Pos, end: -1}
	p.i = p.l.lex()
	if p.i.Type != BracketOpen {
		return pn, nil
	}
	p.i = p.l.lex()
	if p.i.Type != Int {
		return nil, p.errorf("integer value expected after '['")
	}
	pn.start = p.i.Value.(int)
	p.i = p.l.lex()
	end := pn.start
	if p.i.Type == Range {
		p.i = p.l.lex()
		if p.i.Type != Int {
			return nil, p.errorf("integer value expected after '..'")
		}
		end = p.i.Value.(int)
		p.i = p.l.lex()
	}
	if p.i.Type != BracketClose {
		return nil, p.errorf("closing ']' expected after index or range")
	}
	p.i = p.l.lex()
	pn.end = end
	return pn, nil
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return p.errorAt(p.i.Pos, fmt.Sprintf(format, args...))
}

func (p *parser) errorAt(pos int, msg string) error {
	return errors.Errorf("in %q at pos %d: %s", p.input, pos+1, msg)
}
