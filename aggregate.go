// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package pulsenet

// DefaultPresses is the number of button presses of a bulk count.
//
const DefaultPresses = 1000

// BulkCount presses the button of n the given number of times, starting from
// its current state, and returns the total pulse counts. The answer of a bulk
// count is BulkCount(n, DefaultPresses).Product().
//
func BulkCount(n *Network, presses int) Counts {
	var c Counts
	for i := 0; i < presses; i++ {
		c = c.Add(n.Press())
	}
	return c
}

// Extrapolate returns the first press during which target receives a Low
// pulse, using the period detector. See Network.DetectPeriods.
//
func Extrapolate(n *Network, target string, opts *PeriodOptions) (uint64, error) {
	return n.FirstLow(target, opts)
}
