// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pulsetest

import (
	"math/rand"
	"strconv"

	"github.com/db47h/pulsenet"
)

// Random returns a random network with the given number of flip-flops and
// conjunctions, plus a broadcaster.
//
// Modules only send pulses to modules declared after them and to the sink
// "out", so that button presses always terminate. Outputs may list the same
// module more than once.
//
func Random(r *rand.Rand, size int) []pulsenet.ModuleSpec {
	specs := make([]pulsenet.ModuleSpec, 0, size+1)
	name := func(i int) string { return "m" + strconv.Itoa(i) }
	outputs := func(from int) []string {
		var outs []string
		for n := 1 + r.Intn(3); n > 0; n-- {
			if to := from + 1 + r.Intn(size-from); to < size && r.Intn(8) != 0 {
				outs = append(outs, name(to))
			} else {
				outs = append(outs, "out")
			}
		}
		return outs
	}

	specs = append(specs, pulsenet.ModuleSpec{Name: "broadcaster", Kind: pulsenet.Broadcaster, Outputs: outputs(-1)})
	for i := 0; i < size; i++ {
		k := pulsenet.FlipFlop
		if r.Intn(3) == 0 {
			k = pulsenet.Conjunction
		}
		specs = append(specs, pulsenet.ModuleSpec{Name: name(i), Kind: k, Outputs: outputs(i)})
	}
	// shuffle declarations, declaration order must not matter
	r.Shuffle(len(specs), func(i, j int) { specs[i], specs[j] = specs[j], specs[i] })
	return specs
}
