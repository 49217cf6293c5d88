// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package mcusim

import (
	"fmt"
	"io"
	"log"
)

// Level is a log level.
//
type Level int

// Log levels. LevelOutput messages are regular program output and go to the
// output writer, all others go to the error writer.
//
const (
	LevelOutput Level = iota
	LevelError
	LevelWarning
	LevelTrace
	LevelDebug
)

var levelNames = [...]string{"", "error", "warning", "trace", "debug"}

func (l Level) String() string {
	if l >= 0 && int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Logger is a leveled logger. A nil *Logger is valid and discards everything.
//
type Logger struct {
	level Level
	out   *log.Logger
	err   *log.Logger
	// Prefix, if set, returns the prefix written before messages of the given
	// level on the error writer.
	Prefix func(l Level) string
}

// NewLogger returns a logger that drops messages above level.
//
func NewLogger(level Level, out, err io.Writer) *Logger {
	return &Logger{
		level: level,
		out:   log.New(out, "", 0),
		err:   log.New(err, "", 0),
	}
}

// Level returns the logger's level.
//
func (l *Logger) Level() Level {
	if l == nil {
		return -1
	}
	return l.level
}

// Enabled returns true if messages at level lvl would be logged.
//
func (l *Logger) Enabled(lvl Level) bool {
	return l != nil && lvl <= l.level
}

// Logf logs a message at level lvl. A new line is appended if missing.
//
func (l *Logger) Logf(lvl Level, format string, args ...interface{}) {
	if !l.Enabled(lvl) {
		return
	}
	if lvl == LevelOutput {
		l.out.Printf(format, args...)
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.Prefix != nil {
		msg = l.Prefix(lvl) + msg
	}
	l.err.Print(msg)
}
