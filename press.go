// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pulsenet

import "github.com/pkg/errors"

// Counts holds the number of Low and High pulses sent during one or more
// button presses.
//
type Counts struct {
	Low  uint64
	High uint64
}

// Add returns c + o.
//
func (c Counts) Add(o Counts) Counts {
	return Counts{c.Low + o.Low, c.High + o.High}
}

// Total returns Low + High.
//
func (c Counts) Total() uint64 { return c.Low + c.High }

// Product returns Low * High.
//
func (c Counts) Product() uint64 { return c.Low * c.High }

func (c *Counts) count(l Level, n int) {
	if l == High {
		c.High += uint64(n)
	} else {
		c.Low += uint64(n)
	}
}

// probeFn is called every time module id sends a pulse of level l to its
// outputs.
//
type probeFn func(id int, l Level)

// send delivers the seed pulse and every pulse it causes in first-in
// first-out order. If trace is not nil, every delivered pulse is appended to
// it, in delivery order.
//
func (n *Network) send(seed Pulse, trace *[]Pulse, probe probeFn) Counts {
	var c Counts
	q := append(n.queue[:0], seed)
	c.count(seed.Level, 1)
	for head := 0; head < len(q); head++ {
		p := q[head]
		if trace != nil {
			*trace = append(*trace, p)
		}
		m := &n.mods[p.To]
		if m.kind == Unknown {
			// sink
			continue
		}
		l, ok := m.handle(p.From, p.Level)
		if !ok {
			continue
		}
		if probe != nil {
			probe(p.To, l)
		}
		c.count(l, len(m.outs))
		for _, o := range m.outs {
			q = append(q, Pulse{From: p.To, To: o, Level: l})
		}
	}
	// keep the backing array for the next press
	n.queue = q[:0]
	return c
}

// Seed returns the seed pulse of a button press: a Low pulse from Button to
// the broadcaster.
//
func (n *Network) Seed() Pulse {
	return Pulse{From: buttonID, To: n.bcast, Level: Low}
}

// Press simulates one button press and returns the number of Low and High
// pulses sent, including the seed pulse.
//
func (n *Network) Press() Counts {
	n.presses++
	return n.send(n.Seed(), nil, nil)
}

// PressTrace is like Press but also appends every pulse delivered during the
// press to trace and returns the resulting slice.
//
func (n *Network) PressTrace(trace []Pulse) (Counts, []Pulse) {
	n.presses++
	c := n.send(n.Seed(), &trace, nil)
	return c, trace
}

// Send delivers the seed pulse and every pulse it causes, in first-in
// first-out order, and returns the number of Low and High pulses sent,
// including the seed. If trace is not nil, every delivered pulse is appended
// to it. Send does not count as a button press.
//
// The seed is not validated: seed.To must be a valid id and seed.From must be
// an input of seed.To if it is a conjunction. See Inject for a checked
// version.
//
func (n *Network) Send(seed Pulse, trace []Pulse) (Counts, []Pulse) {
	if trace == nil {
		return n.send(seed, nil, nil), nil
	}
	c := n.send(seed, &trace, nil)
	return c, trace
}

// Presses returns the number of button presses since the network was built
// or last reset.
//
func (n *Network) Presses() uint64 {
	return n.presses
}

// Inject delivers a single pulse from module from to module to, then every
// pulse it causes. Unlike Press, it does not count as a button press. The
// source must be Button or a module listing to as an output.
//
func (n *Network) Inject(from, to string, l Level, trace []Pulse) (Counts, []Pulse, error) {
	fid, ok := n.ns.m[from]
	if !ok {
		return Counts{}, trace, errors.Errorf("unknown module %q", from)
	}
	tid, ok := n.ns.m[to]
	if !ok {
		return Counts{}, trace, errors.Errorf("unknown module %q", to)
	}
	if fid != buttonID && !n.isInput(fid, tid) {
		return Counts{}, trace, errors.Errorf("%q is not an input of %q", from, to)
	}
	if fid == buttonID && n.mods[tid].kind == Conjunction {
		return Counts{}, trace, errors.Errorf("button cannot send pulses to conjunction %q", to)
	}
	c := n.send(Pulse{From: fid, To: tid, Level: l}, &trace, nil)
	return c, trace, nil
}

func (n *Network) isInput(from, to int) bool {
	for _, id := range n.ins[to] {
		if id == from {
			return true
		}
	}
	return false
}
