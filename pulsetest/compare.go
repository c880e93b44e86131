// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package pulsetest provides utility functions for testing pulse networks.
//
package pulsetest

import (
	"testing"
	"time"

	"github.com/db47h/pulsenet"
)

// CompareNetwork builds a pulsenet.Network and a Reference from the same
// specs, presses their buttons the given number of times and checks that
// they deliver the same pulses in the same order.
//
func CompareNetwork(t *testing.T, specs []pulsenet.ModuleSpec, presses int) {
	t.Helper()

	n, err := pulsenet.New(specs)
	if err != nil {
		t.Fatal(err)
	}
	ref := NewReference(specs)

	var (
		trace []pulsenet.Pulse
		total pulsenet.Counts
		start = time.Now()
	)
	for i := 1; i <= presses; i++ {
		var c pulsenet.Counts
		c, trace = n.PressTrace(trace[:0])
		rc, rtrace := ref.Press()
		if c != rc {
			t.Fatalf("press %d: counts = %+v, reference = %+v", i, c, rc)
		}
		if c.Total() != uint64(len(trace)) {
			t.Fatalf("press %d: %d pulses counted, %d delivered", i, c.Total(), len(trace))
		}
		if len(trace) != len(rtrace) {
			t.Fatalf("press %d: %d pulses delivered, reference = %d", i, len(trace), len(rtrace))
		}
		for j, p := range trace {
			got := NamedPulse{n.Name(p.From), n.Name(p.To), p.Level}
			if got != rtrace[j] {
				t.Fatalf("press %d, pulse %d: got %v, reference %v", i, j, got, rtrace[j])
			}
		}
		total = total.Add(c)
	}
	elapsed := time.Since(start)
	t.Logf("%d modules. %d presses in %v. %d pulses => %.2f pulses/s", len(specs), presses, elapsed, total.Total(), float64(total.Total())/elapsed.Seconds())
}
