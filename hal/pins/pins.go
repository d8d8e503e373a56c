// Package pins binds board roles to physical pins.
//
// A board declares its roles as an array literal indexed by the chip's
// physical pin constant. A physical pin named twice is a duplicate index and a
// pin the chip variant lacks is an out-of-range index, so both fail to build.
// Table is the runtime view of that literal.
package pins

import (
	"slices"
	"strconv"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/pin"
)

// Logical is a board-unique role number.
type Logical uint16

// Port is a GPIO bank letter ('A', 'B', ...).
type Port byte

// Bankless is the port of chips that number GPIOs without banks.
const Bankless Port = '#'

// Physical identifies one pad. The zero value is no pad.
type Physical struct {
	Port Port
	Bit  uint8
}

func (p Physical) String() string {
	switch p.Port {
	case 0:
		return "NC"
	case Bankless:
		return "GP" + strconv.Itoa(int(p.Bit))
	}
	return "P" + string(rune(p.Port)) + strconv.Itoa(int(p.Bit))
}

// Role is what a board puts in its physical-pin array.
type Role struct {
	Logical Logical
	Name    string
	// Aliases are further roles deliberately sharing the pad, for modes that
	// never coexist.
	Aliases []Alias
}

type Alias struct {
	Logical Logical
	Name    string
}

// Used reports whether the slot holds a role.
func (r Role) Used() bool { return r.Name != "" }

// Entry is one resolved role.
type Entry struct {
	Logical  Logical
	Name     string
	Physical Physical
	Funcs    []pin.Func
	Shared   bool
}

// Supports reports whether the pad offers f.
func (e Entry) Supports(f pin.Func) bool { return slices.Contains(e.Funcs, f) }

// GPIO personalities every pad has.
var GPIO = []pin.Func{gpio.IN, gpio.OUT}

// Func names a peripheral signal, e.g. Func("USART", 0, "TX") is "USART0_TX".
func Func(block string, index int, signal string) pin.Func {
	s := block
	if index >= 0 {
		s += strconv.Itoa(index)
	}
	if signal != "" {
		s += "_" + signal
	}
	return pin.Func(s)
}

// Collect turns a physical-indexed role array into entries. phys describes
// the pad at each index.
func Collect(roles []Role, phys func(i int) (Physical, []pin.Func)) []Entry {
	var out []Entry
	for i, r := range roles {
		if !r.Used() {
			continue
		}
		p, funcs := phys(i)
		shared := len(r.Aliases) > 0
		out = append(out, Entry{Logical: r.Logical, Name: r.Name, Physical: p, Funcs: funcs, Shared: shared})
		for _, a := range r.Aliases {
			out = append(out, Entry{Logical: a.Logical, Name: a.Name, Physical: p, Funcs: funcs, Shared: true})
		}
	}
	return out
}
