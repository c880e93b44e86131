// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pulsenet

import (
	"log/slog"
	"math/big"
	"math/bits"
	"strings"

	"github.com/pkg/errors"
)

// DefaultMinCycles is the default number of consecutive equal intervals
// required to establish the period of a feeder.
//
const DefaultMinCycles = 2

// PeriodOptions configures the period detector. The zero value is ready to
// use.
//
type PeriodOptions struct {
	// MaxPresses caps the number of presses simulated while looking for
	// periods. If 0, DefaultMaxPresses(n) is used.
	MaxPresses uint64
	// MinCycles is the number of consecutive equal intervals between High
	// pulses of a feeder needed to accept their length as its period.
	// Values below 1 mean DefaultMinCycles.
	MinCycles int
	// Logger receives debug traces of period discoveries. May be nil.
	Logger *slog.Logger
}

// DefaultMaxPresses returns the default press cap for the period detector:
// 4096 presses per id in the network, at least 65536.
//
func DefaultMaxPresses(n *Network) uint64 {
	return max(1<<16, 4096*uint64(n.Len()))
}

// Method tells how the period detector obtained its answer.
//
type Method int

// Detection methods.
//
const (
	// Direct: the condition was observed while looking for periods.
	Direct Method = iota
	// LCM: all feeders fire first at their period; the answer is the least
	// common multiple of the periods.
	LCM
	// CRT: some feeder fires first at an offset from its period; the answer
	// is the smallest press solving every feeder's congruence.
	CRT
)

func (m Method) String() string {
	switch m {
	case Direct:
		return "direct"
	case LCM:
		return "lcm"
	case CRT:
		return "crt"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
//
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// A Feeder is an input of the gate watched by the period detector.
//
type Feeder struct {
	Name string
	// Presses lists the presses during which the feeder sent a High pulse to
	// the gate, up to the point where its period was established.
	Presses []uint64
	// Period is 0 if unknown.
	Period uint64
}

// Offset returns the press of the first High pulse or 0 if there is none.
//
func (f *Feeder) Offset() uint64 {
	if len(f.Presses) == 0 {
		return 0
	}
	return f.Presses[0]
}

func (f *Feeder) record(press uint64, minCycles int) bool {
	if f.Period != 0 {
		return false
	}
	if l := len(f.Presses); l > 0 && f.Presses[l-1] == press {
		return false
	}
	f.Presses = append(f.Presses, press)
	l := len(f.Presses)
	if l < minCycles+1 {
		return false
	}
	d := f.Presses[l-1] - f.Presses[l-2]
	for i := l - 2; i > l-1-minCycles; i-- {
		if f.Presses[i]-f.Presses[i-1] != d {
			return false
		}
	}
	f.Period = d
	return true
}

// PeriodReport describes a run of the period detector.
//
type PeriodReport struct {
	Target string
	// Gate is the conjunction whose Low pulse triggers the target.
	Gate    string
	Feeders []Feeder
	// Press is the first press during which the gate sends a Low pulse.
	Press  uint64
	Method Method
	// Simulated is the number of presses actually simulated.
	Simulated uint64
}

// gate returns the id of the conjunction gating target.
//
func (n *Network) gate(target string) (int, error) {
	id, ok := n.ns.m[target]
	if !ok || id == buttonID {
		return 0, errors.Wrapf(ErrNotApplicable, "unknown target %q", target)
	}
	if n.mods[id].kind == Conjunction {
		return id, nil
	}
	ins := n.ins[id]
	if len(ins) != 1 {
		return 0, errors.Wrapf(ErrNotApplicable, "target %q has %d inputs, expected 1", target, len(ins))
	}
	if g := ins[0]; n.mods[g].kind != Conjunction {
		return 0, errors.Wrapf(ErrNotApplicable, "target %q is fed by %v %q, expected a conjunction", target, n.mods[g].kind, n.ns.names[g])
	}
	return ins[0], nil
}

// FirstLow returns the first button press during which target receives a Low
// pulse or, if target is a conjunction, during which it sends one. See
// DetectPeriods.
//
func (n *Network) FirstLow(target string, opts *PeriodOptions) (uint64, error) {
	r, err := n.DetectPeriods(target, opts)
	if err != nil {
		return 0, err
	}
	return r.Press, nil
}

// DetectPeriods resets the network, then simulates button presses while
// recording when each input of the gating conjunction (the feeders) sends it a
// High pulse. The gate sends Low once all feeders have sent High, so once the
// period of every feeder is known, the answer is computed from the periods
// instead of simulated.
//
// The result is exact if the gate sends Low while periods are being
// detected. Otherwise it assumes that feeders fire exactly at their period
// and that feeders firing during the same press make the gate send Low. This
// holds for networks made of independent binary counters, like the ones built
// by netlib.Machine, but not in general.
//
// DetectPeriods fails with ErrNotApplicable if target is not a conjunction
// and is not fed by a single conjunction, or if the computed press has
// already been simulated without the gate sending Low. It fails with
// ErrNoPeriod if some feeder has no period after opts.MaxPresses presses.
//
func (n *Network) DetectPeriods(target string, opts *PeriodOptions) (*PeriodReport, error) {
	if opts == nil {
		opts = &PeriodOptions{}
	}
	maxPresses := opts.MaxPresses
	if maxPresses == 0 {
		maxPresses = DefaultMaxPresses(n)
	}
	minCycles := opts.MinCycles
	if minCycles < 1 {
		minCycles = DefaultMinCycles
	}
	log := opts.Logger

	g, err := n.gate(target)
	if err != nil {
		return nil, err
	}
	if len(n.ins[g]) == 0 {
		return nil, errors.Wrapf(ErrNotApplicable, "gate %q has no inputs", n.ns.names[g])
	}
	r := &PeriodReport{
		Target:  target,
		Gate:    n.ns.names[g],
		Feeders: make([]Feeder, len(n.ins[g])),
	}
	feeders := make(map[int]*Feeder, len(n.ins[g]))
	for i, id := range n.ins[g] {
		r.Feeders[i].Name = n.ns.names[id]
		feeders[id] = &r.Feeders[i]
	}
	if log != nil {
		log.Debug("detecting periods", "target", target, "gate", r.Gate, "feeders", len(r.Feeders), "max_presses", maxPresses)
	}

	n.Reset()
	var (
		press   uint64
		hit     bool
		pending = len(r.Feeders)
	)
	probe := func(id int, l Level) {
		if id == g {
			hit = hit || l == Low
			return
		}
		if l != High {
			return
		}
		if f := feeders[id]; f != nil && f.record(press, minCycles) {
			pending--
			if log != nil {
				log.Debug("period found", "feeder", f.Name, "period", f.Period, "offset", f.Offset(), "press", press)
			}
		}
	}
	for pending > 0 {
		if press >= maxPresses {
			var missing []string
			for i := range r.Feeders {
				if r.Feeders[i].Period == 0 {
					missing = append(missing, r.Feeders[i].Name)
				}
			}
			return nil, errors.Wrapf(ErrNoPeriod, "after %d presses: %s", press, strings.Join(missing, ", "))
		}
		press++
		n.presses++
		n.send(n.Seed(), nil, probe)
		if hit {
			r.Press, r.Method, r.Simulated = press, Direct, press
			return r, nil
		}
	}
	r.Simulated = press

	r.Method = LCM
	for i := range r.Feeders {
		if f := &r.Feeders[i]; f.Offset() != f.Period {
			r.Method = CRT
			break
		}
	}
	switch r.Method {
	case LCM:
		var ok bool
		r.Press = 1
		for i := range r.Feeders {
			if r.Press, ok = lcm(r.Press, r.Feeders[i].Period); !ok {
				return nil, errors.Errorf("least common multiple of feeder periods of %q overflows", r.Gate)
			}
		}
	case CRT:
		r.Press, err = solveCRT(r.Feeders)
		if err != nil {
			return nil, errors.WithMessagef(err, "gate %q", r.Gate)
		}
	}
	if r.Press <= r.Simulated {
		// that press was simulated and the gate did not send Low.
		return nil, errors.Wrapf(ErrNotApplicable, "feeders of %q fire together at press %d without triggering it", r.Gate, r.Press)
	}
	if log != nil {
		log.Debug("extrapolated", "target", target, "press", r.Press, "method", r.Method, "simulated", r.Simulated)
	}
	return r, nil
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// lcm returns the least common multiple of a and b and false on overflow.
//
func lcm(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a/gcd(a, b), b)
	return lo, hi == 0
}

// solveCRT returns the smallest press, not before any feeder's first High
// pulse, at which every feeder sends High, given that feeder f sends High at
// presses f.Offset() + k*f.Period.
//
func solveCRT(fs []Feeder) (uint64, error) {
	// x is the solution for fs[:i], modulo m.
	var (
		x     = new(big.Int)
		m     = big.NewInt(1)
		g     = new(big.Int)
		u     = new(big.Int)
		t     = new(big.Int)
		first uint64
	)
	for i := range fs {
		f := &fs[i]
		first = max(first, f.Offset())
		a := new(big.Int).SetUint64(f.Offset() % f.Period)
		p := new(big.Int).SetUint64(f.Period)
		// solve x + m*k = a (mod p)
		g.GCD(u, nil, m, p)
		t.Sub(a, x)
		if new(big.Int).Mod(t, g).Sign() != 0 {
			return 0, errors.Wrapf(ErrNotApplicable, "feeder %q never fires together with previous feeders", f.Name)
		}
		pg := new(big.Int).Quo(p, g)
		t.Quo(t, g)
		t.Mul(t, u)
		t.Mod(t, pg)
		x.Add(x, t.Mul(t, m))
		m.Mul(m, pg)
		x.Mod(x, m)
	}
	// smallest x' >= max(first, 1) with x' = x (mod m)
	lo := new(big.Int).SetUint64(max(first, 1))
	if x.Cmp(lo) < 0 {
		t.Sub(lo, x)
		t.Add(t, m)
		t.Sub(t, big.NewInt(1))
		t.Quo(t, m)
		x.Add(x, t.Mul(t, m))
	}
	if !x.IsUint64() {
		return 0, errors.New("press number overflows")
	}
	return x.Uint64(), nil
}
