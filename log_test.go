package mcusim_test

import (
	"bytes"
	"testing"

	hw "github.com/db47h/mcusim"
)

func TestLogger(t *testing.T) {
	var out, errs bytes.Buffer
	l := hw.NewLogger(hw.LevelWarning, &out, &errs)
	l.Prefix = func(lvl hw.Level) string { return lvl.String() + ": " }
	l.Logf(hw.LevelOutput, "out %d", 0)
	l.Logf(hw.LevelError, "err %d\n", 1)
	l.Logf(hw.LevelWarning, "warn %d\n", 2)
	l.Logf(hw.LevelTrace, "trace %d\n", 3)
	if out.String() != "out 0\n" {
		t.Errorf("bad output %q", out.String())
	}
	if errs.String() != "error: err 1\nwarning: warn 2\n" {
		t.Errorf("bad error output %q", errs.String())
	}
	if !l.Enabled(hw.LevelWarning) || l.Enabled(hw.LevelDebug) {
		t.Error("Enabled failed")
	}

	var nl *hw.Logger
	nl.Logf(hw.LevelError, "dropped")
	if nl.Enabled(hw.LevelOutput) || nl.Level() != -1 {
		t.Error("nil logger should discard everything")
	}
}
