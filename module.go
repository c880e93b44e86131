// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pulsenet

import (
	"slices"
	"strconv"
)

// Level is the level of a pulse.
//
type Level uint8

// Pulse levels.
//
const (
	Low Level = iota
	High
)

func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

// Kind identifies the behavior of a module.
//
type Kind uint8

// Module kinds. The zero value Unknown is not a valid kind for a ModuleSpec.
//
const (
	Unknown Kind = iota
	Broadcaster
	FlipFlop
	Conjunction
)

var kindNames = [...]string{
	Unknown:     "unknown",
	Broadcaster: "broadcaster",
	FlipFlop:    "flip-flop",
	Conjunction: "conjunction",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Valid returns true if k is one of Broadcaster, FlipFlop or Conjunction.
//
func (k Kind) Valid() bool {
	return k == Broadcaster || k == FlipFlop || k == Conjunction
}

// A ModuleSpec describes a module: its name, kind and the names of the
// modules it sends pulses to, in order.
//
type ModuleSpec struct {
	Name    string
	Kind    Kind
	Outputs []string
}

// Pulse is a single pulse traveling from one module to another.
// From and To are module ids, see Network.ID and Network.Name.
//
type Pulse struct {
	From  int
	To    int
	Level Level
}

// module is a closed tagged union over the three module kinds. Fields not
// used by a given kind are left to their zero value.
//
type module struct {
	kind Kind
	outs []int

	// flip-flop
	on bool

	// conjunction: ins is sorted, mem[i] is the last level received from ins[i].
	ins   []int
	mem   []Level
	highs int
}

// handle processes a pulse received from module from and returns the level
// sent to every output, if any.
//
func (m *module) handle(from int, l Level) (Level, bool) {
	switch m.kind {
	case Broadcaster:
		return l, true
	case FlipFlop:
		if l == High {
			return Low, false
		}
		m.on = !m.on
		if m.on {
			return High, true
		}
		return Low, true
	case Conjunction:
		i, ok := slices.BinarySearch(m.ins, from)
		if !ok {
			// the network never routes pulses from non-inputs.
			panic("conjunction received a pulse from a module that is not one of its inputs")
		}
		if prev := m.mem[i]; prev != l {
			if l == High {
				m.highs++
			} else {
				m.highs--
			}
			m.mem[i] = l
		}
		if m.highs == len(m.ins) {
			return Low, true
		}
		return High, true
	}
	panic("invalid module kind " + m.kind.String())
}

func (m *module) reset() {
	m.on = false
	for i := range m.mem {
		m.mem[i] = Low
	}
	m.highs = 0
}
