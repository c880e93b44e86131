// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pulsenet

import "github.com/pkg/errors"

func (n *Network) module(name string, k Kind) (*module, error) {
	id, ok := n.ns.m[name]
	if !ok {
		return nil, errors.Errorf("unknown module %q", name)
	}
	m := &n.mods[id]
	if m.kind != k {
		return nil, errors.Errorf("module %q is a %v, not a %v", name, m.kind, k)
	}
	return m, nil
}

// FlipFlopOn returns the current state of the named flip-flop.
//
func (n *Network) FlipFlopOn(name string) (bool, error) {
	m, err := n.module(name, FlipFlop)
	if err != nil {
		return false, err
	}
	return m.on, nil
}

// Memory returns a copy of the levels remembered by the named conjunction,
// keyed by input name.
//
func (n *Network) Memory(name string) (map[string]Level, error) {
	m, err := n.module(name, Conjunction)
	if err != nil {
		return nil, err
	}
	mem := make(map[string]Level, len(m.ins))
	for i, id := range m.ins {
		mem[n.ns.names[id]] = m.mem[i]
	}
	return mem, nil
}
