// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pulsenet

import (
	"slices"

	"github.com/pkg/errors"
)

// Button is the name of the implicit module that sends the seed pulse of a
// button press. It cannot be used as a module name.
//
const Button = "button"

// buttonID is the id reserved for Button.
const buttonID = 0

// Errors returned by New and the period detector. Returned errors wrap one of
// these and should be checked with errors.Is.
//
var (
	ErrConstruction  = errors.New("invalid network")
	ErrNotApplicable = errors.New("period detection not applicable")
	ErrNoPeriod      = errors.New("no period found")
)

// namespace interns module names to dense ids.
//
type namespace struct {
	m     map[string]int
	names []string
}

func newNamespace(size int) namespace {
	ns := namespace{
		m:     make(map[string]int, size+1),
		names: make([]string, 0, size+1),
	}
	ns.idOrNew(Button)
	return ns
}

// idOrNew returns the id allocated to the given name.
// If no such id exists a new one is allocated.
//
func (ns *namespace) idOrNew(name string) int {
	id, ok := ns.m[name]
	if !ok {
		id = len(ns.names)
		ns.m[name] = id
		ns.names = append(ns.names, name)
	}
	return id
}

// Network is a wiring graph of modules together with the state of every
// module. It is built once with New and then mutated by button presses.
//
// A Network is not safe for concurrent use.
//
type Network struct {
	ns    namespace
	mods  []module // indexed by id. Sinks and the button have kind Unknown.
	ins   [][]int  // sorted input ids of every id
	bcast int

	presses uint64
	queue   []Pulse
}

// New builds a network from the given module specifications.
//
// Output names that do not match any module are sinks: they receive pulses
// but never send any. New fails if a spec has an invalid kind or an empty
// name, if a name is declared twice or is Button, or if the network does not
// have exactly one Broadcaster.
//
func New(specs []ModuleSpec) (*Network, error) {
	n := &Network{ns: newNamespace(len(specs)), bcast: -1}

	// declare modules first so that their ids do not depend on output lists.
	for _, s := range specs {
		if s.Name == "" {
			return nil, errors.Wrap(ErrConstruction, "empty module name")
		}
		if s.Name == Button {
			return nil, errors.Wrapf(ErrConstruction, "module name %q is reserved", s.Name)
		}
		if !s.Kind.Valid() {
			return nil, errors.Wrapf(ErrConstruction, "module %q: %v module kind", s.Name, s.Kind)
		}
		count := len(n.ns.names)
		id := n.ns.idOrNew(s.Name)
		if id < count {
			return nil, errors.Wrapf(ErrConstruction, "module %q declared more than once", s.Name)
		}
		if s.Kind == Broadcaster {
			if n.bcast >= 0 {
				return nil, errors.Wrapf(ErrConstruction, "module %q: more than one broadcaster (%q)", s.Name, n.ns.names[n.bcast])
			}
			n.bcast = id
		}
	}
	if n.bcast < 0 {
		return nil, errors.Wrap(ErrConstruction, "no broadcaster")
	}

	n.mods = make([]module, len(n.ns.names))
	for _, s := range specs {
		id := n.ns.m[s.Name]
		m := &n.mods[id]
		m.kind = s.Kind
		m.outs = make([]int, len(s.Outputs))
		for i, o := range s.Outputs {
			m.outs[i] = n.ns.idOrNew(o)
		}
	}
	// sinks discovered in output lists.
	for len(n.mods) < len(n.ns.names) {
		n.mods = append(n.mods, module{})
	}

	n.ins = make([][]int, len(n.mods))
	for id := range n.mods {
		for _, o := range n.mods[id].outs {
			if l := n.ins[o]; len(l) == 0 || l[len(l)-1] != id {
				n.ins[o] = append(l, id)
			}
		}
	}
	for id := range n.mods {
		m := &n.mods[id]
		if m.kind != Conjunction {
			continue
		}
		// ids are visited in increasing order above, ins is sorted already.
		m.ins = n.ins[id]
		m.mem = make([]Level, len(m.ins))
	}
	return n, nil
}

// Reset restores the initial state of every module: all flip-flops off and
// all conjunctions remembering Low for each input. The press counter is
// reset to 0.
//
func (n *Network) Reset() {
	for i := range n.mods {
		n.mods[i].reset()
	}
	n.presses = 0
}

// Len returns the number of ids in the network: declared modules, sinks and
// the button.
//
func (n *Network) Len() int { return len(n.ns.names) }

// ID returns the id of the given module or sink name.
//
func (n *Network) ID(name string) (int, bool) {
	id, ok := n.ns.m[name]
	return id, ok
}

// Name returns the name for the given id.
//
func (n *Network) Name(id int) string {
	return n.ns.names[id]
}

// Broadcaster returns the name of the broadcaster module.
//
func (n *Network) Broadcaster() string {
	return n.ns.names[n.bcast]
}

// Kind returns the kind of the named module. It returns Unknown for sinks,
// the button and names not present in the network.
//
func (n *Network) Kind(name string) Kind {
	id, ok := n.ns.m[name]
	if !ok {
		return Unknown
	}
	return n.mods[id].kind
}

// Outputs returns the output names of the named module, in order.
//
func (n *Network) Outputs(name string) []string {
	id, ok := n.ns.m[name]
	if !ok {
		return nil
	}
	return n.names(n.mods[id].outs)
}

// Inputs returns the names of the modules that list the named module or sink
// as an output. The order is the order of declaration.
//
func (n *Network) Inputs(name string) []string {
	id, ok := n.ns.m[name]
	if !ok {
		return nil
	}
	return n.names(n.ins[id])
}

func (n *Network) names(ids []int) []string {
	if len(ids) == 0 {
		return nil
	}
	r := make([]string, len(ids))
	for i, id := range ids {
		r[i] = n.ns.names[id]
	}
	return r
}

// Specs returns the specifications of the declared modules in declaration
// order.
//
func (n *Network) Specs() []ModuleSpec {
	var specs []ModuleSpec
	for id := range n.mods {
		m := &n.mods[id]
		if m.kind == Unknown {
			continue
		}
		specs = append(specs, ModuleSpec{
			Name:    n.ns.names[id],
			Kind:    m.kind,
			Outputs: n.names(m.outs),
		})
	}
	return specs
}

// Sinks returns the names of outputs that are not declared modules, sorted.
//
func (n *Network) Sinks() []string {
	var sinks []string
	for id := buttonID + 1; id < len(n.mods); id++ {
		if n.mods[id].kind == Unknown {
			sinks = append(sinks, n.ns.names[id])
		}
	}
	slices.Sort(sinks)
	return sinks
}
