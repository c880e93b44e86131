// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pulsetest

import (
	"github.com/db47h/pulsenet"
)

// NamedPulse is a pulse between two named modules.
//
type NamedPulse struct {
	From  string
	To    string
	Level pulsenet.Level
}

// Reference is a naive simulator used to check the results of a
// pulsenet.Network. It works on module names directly and recomputes the
// output of conjunctions from their whole memory on every pulse.
//
type Reference struct {
	specs map[string]pulsenet.ModuleSpec
	bcast string
	on    map[string]bool
	mem   map[string]map[string]pulsenet.Level
}

// NewReference returns a Reference simulator for the given modules. The specs
// are assumed to be valid.
//
func NewReference(specs []pulsenet.ModuleSpec) *Reference {
	r := &Reference{
		specs: make(map[string]pulsenet.ModuleSpec, len(specs)),
		on:    make(map[string]bool),
		mem:   make(map[string]map[string]pulsenet.Level),
	}
	for _, s := range specs {
		r.specs[s.Name] = s
		switch s.Kind {
		case pulsenet.Broadcaster:
			r.bcast = s.Name
		case pulsenet.Conjunction:
			r.mem[s.Name] = make(map[string]pulsenet.Level)
		}
	}
	for _, s := range specs {
		for _, o := range s.Outputs {
			if m, ok := r.mem[o]; ok {
				m[s.Name] = pulsenet.Low
			}
		}
	}
	return r
}

// Press simulates a button press and returns the pulse counts and every pulse
// delivered, in order.
//
func (r *Reference) Press() (pulsenet.Counts, []NamedPulse) {
	var (
		c     pulsenet.Counts
		queue = []NamedPulse{{pulsenet.Button, r.bcast, pulsenet.Low}}
	)
	for i := 0; i < len(queue); i++ {
		p := queue[i]
		if p.Level == pulsenet.High {
			c.High++
		} else {
			c.Low++
		}
		s, ok := r.specs[p.To]
		if !ok {
			continue
		}
		var out pulsenet.Level
		switch s.Kind {
		case pulsenet.Broadcaster:
			out = p.Level
		case pulsenet.FlipFlop:
			if p.Level == pulsenet.High {
				continue
			}
			r.on[s.Name] = !r.on[s.Name]
			if r.on[s.Name] {
				out = pulsenet.High
			}
		case pulsenet.Conjunction:
			m := r.mem[s.Name]
			m[p.From] = p.Level
			out = pulsenet.Low
			for _, l := range m {
				if l == pulsenet.Low {
					out = pulsenet.High
					break
				}
			}
		}
		for _, o := range s.Outputs {
			queue = append(queue, NamedPulse{s.Name, o, out})
		}
	}
	return c, queue
}

// On returns the state of the named flip-flop.
//
func (r *Reference) On(name string) bool {
	return r.on[name]
}
