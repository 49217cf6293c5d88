package stimulus_test

import (
	"testing"

	"github.com/db47h/mcusim"
	"github.com/db47h/mcusim/stimulus"
	"github.com/stretchr/testify/require"
)

func TestLoadLua(t *testing.T) {
	p, err := stimulus.LoadLuaString("test.lua", `
set("PB0", false)
delay(100)
for i = 1, 3 do
	toggle("PC7")
	delay(10)
end
send(START + WRITE + ADDR, 12, 1)
raw(0x182400, 1)
at(5000)
pixels("PB0", {0xff, 0, 0x80})
assert(cycle() > 5000)
stop()
`)
	require.NoError(t, err)
	as := p.Actions()
	require.Equal(t, stimulus.Action{Cycle: 0, Op: stimulus.OpSet, Pin: "PB0"}, as[0])
	require.Equal(t, stimulus.Action{Cycle: 100, Op: stimulus.OpToggle, Pin: "PC7"}, as[1])
	require.Equal(t, stimulus.Action{Cycle: 120, Op: stimulus.OpToggle, Pin: "PC7"}, as[3])
	require.Equal(t, stimulus.Action{
		Cycle: 130,
		Op:    stimulus.OpBus,
		Value: mcusim.TWIMsg{Cond: mcusim.CondStart | mcusim.CondWrite | mcusim.CondAddr, Addr: 24, Data: 1}.Value(),
	}, as[4])
	require.Equal(t, stimulus.Action{Cycle: 130, Op: stimulus.OpBus, Bus: 1, Value: 0x182400}, as[5])
	require.Equal(t, stimulus.Action{Cycle: 5000, Op: stimulus.OpSet, Pin: "PB0", High: true}, as[6])
	require.Equal(t, stimulus.OpStop, as[len(as)-1].Op)
	// 240 bits, 2 edges each.
	require.Len(t, as, 1+3+2+480+1)
}

func TestLoadLua_errors(t *testing.T) {
	for _, src := range []string{
		`set("XB0", 1)`,
		`set("PB0", "high")`,
		`delay(-1)`,
		`send(START, 200, 0)`,
		`send(START, 12, 256)`,
		`pixels("PB0", {1, 2, "x"})`,
		`raw(-5)`,
		`this is not lua`,
		`error("boom")`,
	} {
		t.Run(src, func(t *testing.T) {
			_, err := stimulus.LoadLuaString("bad.lua", src)
			require.Error(t, err)
			require.Contains(t, err.Error(), "bad.lua")
		})
	}
}
