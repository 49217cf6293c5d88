// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package conn

import (
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Type is a token type.
//
type Type int

// Tokens
const (
	EOF Type = iota
	Raw
	Ident
	BracketOpen
	BracketClose
	Comma
	Int
	Range
	Equal
)

var typeNames = [...]string{"end of input", "raw", "identifier", "'['", "']'", "','", "integer", "'..'", "'='"}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "token(" + strconv.Itoa(int(t)) + ")"
}

// Item is a lexed token.
//
type Item struct {
	Type  Type
	Pos   int
	Value interface{}
}

func (i Item) String() string {
	switch i.Type {
	case Ident:
		return "identifier " + strconv.Quote(i.Value.(string))
	case Int:
		return "integer " + strconv.Itoa(i.Value.(int))
	case Raw:
		return "character " + strconv.QuoteRune(i.Value.(rune))
	}
	return i.Type.String()
}

type stateFn func(l *lexer) stateFn

type lexer struct {
	input string
	pos   int // next read position
	start int // start of current token
	cur   rune
	items []Item
	state stateFn
}

func newLexer(input string) *lexer {
	return &lexer{input: input, state: lexInit}
}

const eof = -1

func (l *lexer) next() rune {
	if l.pos >= len(l.input) {
		l.cur = eof
		l.pos++ // keep backup symmetric
		return eof
	}
	r, n := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += n
	l.cur = r
	return r
}

func (l *lexer) backup() {
	if l.cur == eof {
		l.pos--
		return
	}
	l.pos -= utf8.RuneLen(l.cur)
}

func (l *lexer) emit(t Type, v interface{}) {
	l.items = append(l.items, Item{Type: t, Pos: l.start, Value: v})
}

// lex returns the next item in the input.
//
func (l *lexer) lex() Item {
	for len(l.items) == 0 {
		l.start = l.pos
		st := l.state(l)
		if st == nil {
			st = lexInit
		}
		l.state = st
	}
	i := l.items[0]
	l.items = l.items[1:]
	return i
}

func lexInit(l *lexer) stateFn {
	r := l.next()
	switch {
	case r == eof:
		return lexEOF
	case unicode.IsSpace(r):
		for r = l.next(); r != eof && unicode.IsSpace(r); r = l.next() {
		}
		l.backup()
	case unicode.IsLetter(r) || r == '_':
		return lexIdent
	case r == '[':
		l.emit(BracketOpen, "[")
	case r == ']':
		l.emit(BracketClose, "]")
	case r == ',':
		l.emit(Comma, ",")
	case '0' <= r && r <= '9':
		return lexNumber
	case r == '=':
		l.emit(Equal, "=")
	case r == '.':
		if l.next() == '.' {
			l.emit(Range, "..")
			break
		}
		l.backup()
		fallthrough
	default:
		l.emit(Raw, r)
		return lexEOF
	}
	return nil
}

func lexNumber(l *lexer) stateFn {
	i := int(l.cur - '0')
	r := l.next()
	for '0' <= r && r <= '9' {
		i = i*10 + int(r-'0')
		r = l.next()
	}
	l.backup()
	l.emit(Int, i)
	return nil
}

func lexIdent(l *lexer) stateFn {
	start := l.pos - utf8.RuneLen(l.cur)
	r := l.next()
	for unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.' {
		r = l.next()
	}
	l.backup()
	l.emit(Ident, l.input[start:l.pos])
	return nil
}

// lexEOF places the lexer in End-Of-File state.
// Once in this state, the lexer will only emit EOF.
//
func lexEOF(l *lexer) stateFn {
	l.emit(EOF, "end of input")
	return lexEOF
}
