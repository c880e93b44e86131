// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package netlib provides a library of reusable sub-networks for pulsenet.
//
package netlib

import (
	"math/bits"
	"strconv"

	"github.com/db47h/pulsenet"
)

// Broadcaster is the name of the broadcaster module built by this package.
//
const Broadcaster = "broadcaster"

func flipFlop(name string, outs ...string) pulsenet.ModuleSpec {
	return pulsenet.ModuleSpec{Name: name, Kind: pulsenet.FlipFlop, Outputs: outs}
}

func conjunction(name string, outs ...string) pulsenet.ModuleSpec {
	return pulsenet.ModuleSpec{Name: name, Kind: pulsenet.Conjunction, Outputs: outs}
}

// CounterInput returns the name of the module that must receive the button
// pulses of the counter with the given prefix.
//
func CounterInput(prefix string) string { return prefix + "0" }

// CounterOutput returns the name of the module that sends High pulses to the
// gate of the counter with the given prefix.
//
func CounterOutput(prefix string) string { return prefix + "inv" }

// Counter returns a binary counter that sends a High pulse to gate every
// period presses.
//
// The counter is a chain of flip-flops prefix0, prefix1, ... (prefix0 is the
// least significant bit and must receive the broadcaster pulses). The
// flip-flops whose bit is set in period feed the conjunction prefix+"hub",
// which sends Low once the count reaches period. This Low pulse resets the
// count to 0 by setting the bits that are clear in period and then
// incrementing prefix0. It also goes through the inverter prefix+"inv" which
// then sends High to gate.
//
//	Inputs: prefix0
//	Outputs: gate
//	Function: gate receives High at presses k*period, k > 0
//
// Counter panics if period is less than 1.
//
func Counter(prefix string, period int, gate string) []pulsenet.ModuleSpec {
	if period < 1 {
		panic("invalid counter period " + strconv.Itoa(period))
	}
	hub, inv := prefix+"hub", CounterOutput(prefix)
	n := bits.Len(uint(period))
	specs := make([]pulsenet.ModuleSpec, 0, n+2)
	hubOuts := []string{CounterInput(prefix)}
	for i := 0; i < n; i++ {
		var outs []string
		if i+1 < n {
			outs = append(outs, prefix+strconv.Itoa(i+1))
		}
		if period&(1<<uint(i)) != 0 {
			outs = append(outs, hub)
		} else {
			hubOuts = append(hubOuts, prefix+strconv.Itoa(i))
		}
		specs = append(specs, flipFlop(prefix+strconv.Itoa(i), outs...))
	}
	hubOuts = append(hubOuts, inv)
	return append(specs,
		conjunction(hub, hubOuts...),
		conjunction(inv, gate))
}

// CounterPrefix returns the prefix used by Machine for its i-th counter:
// "a" to "z", then "aa", "ab", and so on.
//
func CounterPrefix(i int) string {
	var b []byte
	for i++; i > 0; i = (i - 1) / 26 {
		b = append([]byte{byte('a' + (i-1)%26)}, b...)
	}
	return string(b)
}

// Machine returns a network with one counter per period, all driven by the
// broadcaster. The counter outputs are the inputs of the conjunction gate,
// which feeds output.
//
// The first press during which output receives a Low pulse is usually the
// least common multiple of the periods. This depends on the order in which
// the counter outputs reach gate: with periods 3, 4 and 5, they are never all
// High at the same time and output never receives Low.
//
func Machine(periods []int, gate, output string) []pulsenet.ModuleSpec {
	b := pulsenet.ModuleSpec{Name: Broadcaster, Kind: pulsenet.Broadcaster}
	specs := []pulsenet.ModuleSpec{b}
	for i, p := range periods {
		prefix := CounterPrefix(i)
		specs[0].Outputs = append(specs[0].Outputs, CounterInput(prefix))
		specs = append(specs, Counter(prefix, p, gate)...)
	}
	return append(specs, conjunction(gate, output))
}

// Ring returns a network where the broadcaster feeds all the given
// flip-flops, each flip-flop feeds the next one, and the last one feeds the
// inverter inv which feeds the first flip-flop.
//
// Ring("inv", "a", "b", "c") is the network:
//
//	broadcaster -> a, b, c
//	%a -> b
//	%b -> c
//	%c -> inv
//	&inv -> a
//
func Ring(inv string, names ...string) []pulsenet.ModuleSpec {
	if len(names) == 0 {
		panic("empty ring")
	}
	specs := []pulsenet.ModuleSpec{{Name: Broadcaster, Kind: pulsenet.Broadcaster, Outputs: names}}
	for i, n := range names {
		next := inv
		if i+1 < len(names) {
			next = names[i+1]
		}
		specs = append(specs, flipFlop(n, next))
	}
	return append(specs, conjunction(inv, names[0]))
}
