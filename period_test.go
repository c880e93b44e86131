package pulsenet_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"testing"

	pn "github.com/db47h/pulsenet"
	"github.com/db47h/pulsenet/netlib"
	"github.com/pkg/errors"
)

func newMachine(t *testing.T, periods ...int) *pn.Network {
	t.Helper()
	n, err := pn.New(netlib.Machine(periods, "gate", "rx"))
	if err != nil {
		t.Fatal(err)
	}
	return n
}

// firstLow simulates n until target receives a Low pulse.
func firstLow(n *pn.Network, target string, limit uint64) uint64 {
	id, _ := n.ID(target)
	n.Reset()
	var tr []pn.Pulse
	for press := uint64(1); press <= limit; press++ {
		_, tr = n.PressTrace(tr[:0])
		for _, p := range tr {
			if p.To == id && p.Level == pn.Low {
				return press
			}
		}
	}
	return 0
}

func TestFirstLow_machine(t *testing.T) {
	tests := []struct {
		periods []int
		want    uint64
		method  pn.Method
	}{
		{[]int{1, 1}, 1, pn.Direct},
		{[]int{2, 3}, 6, pn.Direct},
		{[]int{4, 6}, 12, pn.Direct},
		{[]int{3, 5}, 15, pn.Direct},
		{[]int{8, 12}, 24, pn.Direct},
		{[]int{9, 15}, 45, pn.Direct},
		{[]int{5, 7}, 35, pn.LCM},
		{[]int{11, 13}, 143, pn.LCM},
		{[]int{5, 6, 7}, 210, pn.LCM},
	}
	for _, tt := range tests {
		name := strings.ReplaceAll(strings.Trim(fmt.Sprint(tt.periods), "[]"), " ", "_")
		t.Run(name, func(t *testing.T) {
			n := newMachine(t, tt.periods...)
			r, err := n.DetectPeriods("rx", nil)
			if err != nil {
				trace(t, err)
				t.Fatal(err)
			}
			if r.Press != tt.want || r.Method != tt.method {
				t.Errorf("got press %d (%v), expected %d (%v)", r.Press, r.Method, tt.want, tt.method)
			}
			if got := firstLow(n, "rx", 2*tt.want); got != tt.want {
				t.Errorf("simulation: rx first receives Low at press %d, expected %d", got, tt.want)
			}
		})
	}
}

func TestDetectPeriods_report(t *testing.T) {
	n := newMachine(t, 5, 7)
	// detection starts from the initial state
	pn.BulkCount(n, 7)

	r, err := n.DetectPeriods("rx", nil)
	if err != nil {
		trace(t, err)
		t.Fatal(err)
	}
	if r.Target != "rx" || r.Gate != "gate" || r.Press != 35 || r.Method != pn.LCM || r.Simulated != 21 {
		t.Errorf("unexpected report %+v", r)
	}
	want := []pn.Feeder{
		{Name: "ainv", Presses: []uint64{5, 10, 15}, Period: 5},
		{Name: "binv", Presses: []uint64{7, 14, 21}, Period: 7},
	}
	if len(r.Feeders) != len(want) {
		t.Fatalf("got %d feeders, expected %d", len(r.Feeders), len(want))
	}
	for i, w := range want {
		f := r.Feeders[i]
		if f.Name != w.Name || f.Period != w.Period || !slices.Equal(f.Presses, w.Presses) {
			t.Errorf("feeder %d: got %+v, expected %+v", i, f, w)
		}
		if f.Offset() != w.Presses[0] {
			t.Errorf("feeder %d: got offset %d", i, f.Offset())
		}
	}
	if n.Presses() != r.Simulated {
		t.Errorf("network pressed %d times, report says %d", n.Presses(), r.Simulated)
	}

	// target is the gate itself
	r, err = n.DetectPeriods("gate", nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Gate != "gate" || r.Press != 35 {
		t.Errorf("unexpected report %+v", r)
	}

	press, err := pn.Extrapolate(n, "rx", nil)
	if err != nil || press != 35 {
		t.Errorf("Extrapolate: got %d, %v", press, err)
	}
}

func TestDetectPeriods_direct(t *testing.T) {
	n := newMachine(t, 4, 6)
	r, err := n.DetectPeriods("rx", nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Method != pn.Direct || r.Press != 12 || r.Simulated != 12 {
		t.Errorf("unexpected report %+v", r)
	}
	// the gate fired before the period of binv was established
	if f := r.Feeders[0]; f.Name != "ainv" || f.Period != 4 {
		t.Errorf("unexpected feeder %+v", f)
	}
	if f := r.Feeders[1]; f.Name != "binv" || f.Period != 0 || !slices.Equal(f.Presses, []uint64{6, 12}) {
		t.Errorf("unexpected feeder %+v", f)
	}
}

func TestDetectPeriods_minCycles(t *testing.T) {
	tests := []struct {
		minCycles int
		simulated uint64
	}{
		{-1, 21},
		{0, 21},
		{1, 14},
		{2, 21},
		{3, 28},
	}
	n := newMachine(t, 5, 7)
	for _, tt := range tests {
		r, err := n.DetectPeriods("rx", &pn.PeriodOptions{MinCycles: tt.minCycles})
		if err != nil {
			t.Fatal(err)
		}
		if r.Press != 35 || r.Method != pn.LCM || r.Simulated != tt.simulated {
			t.Errorf("MinCycles %d: got %+v, expected press 35 after %d presses", tt.minCycles, r, tt.simulated)
		}
	}
}

// With periods 3, 4 and 5, the counters never send High to the gate in a
// way that makes it send Low. The detector still extrapolates the least
// common multiple.
func TestDetectPeriods_misaligned(t *testing.T) {
	n := newMachine(t, 3, 4, 5)
	r, err := n.DetectPeriods("rx", nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Press != 60 || r.Method != pn.LCM {
		t.Errorf("got press %d (%v), expected 60 (lcm)", r.Press, r.Method)
	}
	if got := firstLow(n, "rx", 600); got != 0 {
		t.Errorf("rx receives Low at press %d", got)
	}
}

// offsetMachine returns a network where counter a is driven every other
// press, so that it first fires at press 2*pa-1, then every 2*pa presses.
// Counter b is driven by the broadcaster.
func offsetMachine(t *testing.T, pa, pb int) *pn.Network {
	t.Helper()
	specs := []pn.ModuleSpec{
		{Name: "broadcaster", Kind: pn.Broadcaster, Outputs: []string{"d", netlib.CounterInput("b")}},
		{Name: "d", Kind: pn.FlipFlop, Outputs: []string{"x"}},
		{Name: "x", Kind: pn.Conjunction, Outputs: []string{netlib.CounterInput("a")}},
	}
	specs = append(specs, netlib.Counter("a", pa, "gate")...)
	specs = append(specs, netlib.Counter("b", pb, "gate")...)
	specs = append(specs, pn.ModuleSpec{Name: "gate", Kind: pn.Conjunction, Outputs: []string{"rx"}})
	n, err := pn.New(specs)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestDetectPeriods_crt(t *testing.T) {
	n := offsetMachine(t, 3, 7)
	r, err := n.DetectPeriods("rx", nil)
	if err != nil {
		trace(t, err)
		t.Fatal(err)
	}
	if r.Method != pn.CRT || r.Press != 35 || r.Simulated != 21 {
		t.Errorf("unexpected report %+v", r)
	}
	if f := r.Feeders[0]; f.Offset() != 5 || f.Period != 6 {
		t.Errorf("unexpected feeder %+v", f)
	}
	if got := firstLow(n, "rx", 100); got != 35 {
		t.Errorf("simulation: rx first receives Low at press %d, expected 35", got)
	}
}

func TestDetectPeriods_errors(t *testing.T) {
	chain, err := pn.New([]pn.ModuleSpec{
		{Name: "broadcaster", Kind: pn.Broadcaster, Outputs: []string{"a", "b"}},
		{Name: "a", Kind: pn.FlipFlop, Outputs: []string{"b", "rx"}},
		{Name: "b", Kind: pn.FlipFlop, Outputs: []string{"out"}},
		{Name: "lonely", Kind: pn.Conjunction, Outputs: []string{"a"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name     string
		n        *pn.Network
		target   string
		opts     *pn.PeriodOptions
		sentinel error
		msg      string
	}{
		{"unknown target", chain, "nope", nil, pn.ErrNotApplicable, `unknown target "nope"`},
		{"button", chain, pn.Button, nil, pn.ErrNotApplicable, `unknown target "button"`},
		{"two inputs", chain, "b", nil, pn.ErrNotApplicable, `target "b" has 2 inputs, expected 1`},
		{"no input", chain, "broadcaster", nil, pn.ErrNotApplicable, `target "broadcaster" has 0 inputs, expected 1`},
		{"flip-flop gate", chain, "rx", nil, pn.ErrNotApplicable, `target "rx" is fed by flip-flop "a", expected a conjunction`},
		{"gate without inputs", chain, "lonely", nil, pn.ErrNotApplicable, `gate "lonely" has no inputs`},
		{"cap", newMachine(t, 5, 7), "rx", &pn.PeriodOptions{MaxPresses: 10}, pn.ErrNoPeriod, "after 10 presses: ainv, binv"},
		{"cap one missing", newMachine(t, 3, 7), "rx", &pn.PeriodOptions{MaxPresses: 20}, pn.ErrNoPeriod, "after 20 presses: binv"},
		{"inconsistent", offsetMachine(t, 3, 4), "rx", nil, pn.ErrNotApplicable, `feeder "binv" never fires together with previous feeders`},
		{"already simulated", offsetMachine(t, 2, 7), "rx", nil, pn.ErrNotApplicable, `fire together at press 7 without triggering it`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.n.DetectPeriods(tt.target, tt.opts)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("error %q does not wrap %v", err, tt.sentinel)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q does not contain %q", err, tt.msg)
			}
		})
	}
}

func TestDetectPeriods_logger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	n := newMachine(t, 5, 7)
	if _, err := n.FirstLow("rx", &pn.PeriodOptions{Logger: log}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, s := range []string{
		"detecting periods",
		`msg="period found" feeder=ainv period=5 offset=5 press=15`,
		`msg="period found" feeder=binv period=7 offset=7 press=21`,
		"extrapolated target=rx press=35 method=lcm simulated=21",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("log missing %q:\n%s", s, out)
		}
	}
}

func TestDefaultMaxPresses(t *testing.T) {
	if got := pn.DefaultMaxPresses(newMachine(t, 4, 6)); got != 1<<16 {
		t.Errorf("got %d, expected %d", got, 1<<16)
	}
	periods := make([]int, 10)
	for i := range periods {
		periods[i] = 1000 + i
	}
	n := newMachine(t, periods...)
	if got := pn.DefaultMaxPresses(n); got != 4096*uint64(n.Len()) {
		t.Errorf("got %d, expected %d", got, 4096*n.Len())
	}
}

func TestMethod_String(t *testing.T) {
	for m, s := range map[pn.Method]string{pn.Direct: "direct", pn.LCM: "lcm", pn.CRT: "crt", 7: "unknown"} {
		if m.String() != s {
			t.Errorf("got %q, expected %q", m.String(), s)
		}
	}
}
