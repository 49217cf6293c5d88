// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package stimulus

import (
	"io"
	"os"
	"strings"

	"github.com/db47h/mcusim"
	"github.com/db47h/mcusim/neopixel"
	"github.com/pkg/errors"
	lua "github.com/yuin/gopher-lua"
)

// LoadLua builds a Program by running a Lua script. The script describes the
// program with the following functions, which add actions at the program
// cursor:
//
//	delay(n)                  move the cursor n cycles forward
//	at(c)                     move the cursor to cycle c
//	cycle()                   return the cursor
//	set(pin, level)           set a pin, level is a boolean or a number
//	toggle(pin)               invert a pin
//	send(cond, addr, data[, bus])
//	                          send a TWI message from the MCU, addr is the
//	                          7 bits address
//	raw(word[, bus])          send a raw TWI message word
//	pixels(pin, {b0, b1, ...})
//	                          send up to 30 color bytes as a WS2812 frame
//	stop()                    stop the simulation
//
// The TWI conditions are available as the globals START, STOP, ADDR, ACK,
// WRITE and READ. Combine them with +.
//
// name is used in error messages.
//
func LoadLua(name string, r io.Reader) (*Program, error) {
	L := lua.NewState()
	defer L.Close()

	p := new(Program)
	for k, c := range map[string]mcusim.Cond{
		"START": mcusim.CondStart,
		"STOP":  mcusim.CondStop,
		"ADDR":  mcusim.CondAddr,
		"ACK":   mcusim.CondAck,
		"WRITE": mcusim.CondWrite,
		"READ":  mcusim.CondRead,
	} {
		L.SetGlobal(k, lua.LNumber(c))
	}
	for k, fn := range map[string]lua.LGFunction{
		"delay":  p.luaDelay,
		"at":     p.luaAt,
		"cycle":  p.luaCycle,
		"set":    p.luaSet,
		"toggle": p.luaToggle,
		"send":   p.luaSend,
		"raw":    p.luaRaw,
		"pixels": p.luaPixels,
		"stop":   p.luaStop,
	} {
		L.SetGlobal(k, L.NewFunction(fn))
	}

	fn, err := L.Load(r, name)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", name)
	}
	L.Push(fn)
	if err = L.PCall(0, lua.MultRet, nil); err != nil {
		return nil, errors.Wrapf(err, "run %s", name)
	}
	return p, nil
}

// LoadLuaFile is like LoadLua but reads the script from a file.
//
func LoadLuaFile(name string) (*Program, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "open stimulus")
	}
	defer f.Close()
	return LoadLua(name, f)
}

// LoadLuaString is like LoadLua but reads the script from a string.
//
func LoadLuaString(name, src string) (*Program, error) {
	return LoadLua(name, strings.NewReader(src))
}

func checkCycles(L *lua.LState, n int) uint64 {
	v := L.CheckInt64(n)
	if v < 0 {
		L.ArgError(n, "negative cycle count")
	}
	return uint64(v)
}

func checkPin(L *lua.LState, n int) string {
	pin := L.CheckString(n)
	if _, _, err := mcusim.ParsePin(pin); err != nil {
		L.ArgError(n, err.Error())
	}
	return pin
}

func checkByte(L *lua.LState, n int, v lua.LValue) uint8 {
	num, ok := v.(lua.LNumber)
	if !ok || num < 0 || num > 255 {
		L.ArgError(n, "byte value expected, got "+v.String())
	}
	return uint8(num)
}

func (p *Program) luaDelay(L *lua.LState) int {
	p.Delay(checkCycles(L, 1))
	return 0
}

func (p *Program) luaAt(L *lua.LState) int {
	p.At(checkCycles(L, 1))
	return 0
}

func (p *Program) luaCycle(L *lua.LState) int {
	L.Push(lua.LNumber(p.cursor))
	return 1
}

func (p *Program) luaSet(L *lua.LState) int {
	pin := checkPin(L, 1)
	var high bool
	switch v := L.CheckAny(2).(type) {
	case lua.LBool:
		high = bool(v)
	case lua.LNumber:
		high = v != 0
	default:
		L.ArgError(2, "boolean or number expected")
	}
	p.Set(pin, high)
	return 0
}

func (p *Program) luaToggle(L *lua.LState) int {
	p.Toggle(checkPin(L, 1))
	return 0
}

func (p *Program) luaSend(L *lua.LState) int {
	cond := L.CheckInt(1)
	if cond < 0 || cond > 255 {
		L.ArgError(1, "invalid condition")
	}
	addr := L.CheckInt(2)
	if addr < 0 || addr > 127 {
		L.ArgError(2, "7 bits address expected")
	}
	data := checkByte(L, 3, L.CheckAny(3))
	p.Send(L.OptInt(4, 0), mcusim.TWIMsg{Cond: mcusim.Cond(cond), Addr: uint8(addr) << 1, Data: data})
	return 0
}

func (p *Program) luaRaw(L *lua.LState) int {
	v := L.CheckInt64(1)
	if v < 0 || v > 0xffffffff {
		L.ArgError(1, "32 bits word expected")
	}
	p.Raw(L.OptInt(2, 0), uint32(v))
	return 0
}

func (p *Program) luaPixels(L *lua.LState) int {
	pin := checkPin(L, 1)
	t := L.CheckTable(2)
	n := t.Len()
	if n > neopixel.Pixels*neopixel.Channels {
		L.ArgError(2, "too many color bytes")
	}
	var f neopixel.Frame
	for i := 0; i < n; i++ {
		f[i/neopixel.Channels][i%neopixel.Channels] = checkByte(L, 2, t.RawGetInt(i+1))
	}
	p.Pixels(pin, &f)
	return 0
}

func (p *Program) luaStop(L *lua.LState) int {
	p.Stop()
	return 0
}
