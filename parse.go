package pulsenet

import (
	"bufio"
	"io"
	"strings"

	"github.com/db47h/pulsenet/internal/netlist"
	"github.com/pkg/errors"
)

// Parse reads a netlist from r and returns the modules it declares, in order.
//
// Each line has the form
//
//	<prefix><name> -> <output>, <output>, ...
//
// where prefix is '%' for a FlipFlop and '&' for a Conjunction. The
// broadcaster has no prefix and must be named "broadcaster". Empty lines and
// text following a '#' are ignored.
//
// Parse only checks the syntax, use New to build the network.
//
func Parse(r io.Reader) ([]ModuleSpec, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read netlist")
	}
	return ParseString(string(b))
}

// ParseString is like Parse but reads from a string.
//
func ParseString(s string) ([]ModuleSpec, error) {
	ds, err := netlist.Parse(s)
	if err != nil {
		return nil, err
	}
	specs := make([]ModuleSpec, 0, len(ds))
	for _, d := range ds {
		s := ModuleSpec{Name: d.Name, Outputs: d.Outputs}
		switch d.Prefix {
		case '%':
			s.Kind = FlipFlop
		case '&':
			s.Kind = Conjunction
		default:
			if d.Name != "broadcaster" {
				return nil, errors.Errorf("%v: module %q has no type prefix", d.Pos, d.Name)
			}
			s.Kind = Broadcaster
		}
		specs = append(specs, s)
	}
	return specs, nil
}

var kindPrefix = [...]string{
	Broadcaster: "",
	FlipFlop:    "%",
	Conjunction: "&",
}

// Format writes specs to w in the format read by Parse.
//
func Format(w io.Writer, specs []ModuleSpec) error {
	bw := bufio.NewWriter(w)
	for _, s := range specs {
		if !s.Kind.Valid() {
			return errors.Errorf("module %q: %v module kind", s.Name, s.Kind)
		}
		if s.Kind == Broadcaster && s.Name != "broadcaster" {
			return errors.Errorf("broadcaster %q must be named \"broadcaster\"", s.Name)
		}
		bw.WriteString(kindPrefix[s.Kind])
		bw.WriteString(s.Name)
		bw.WriteString(" ->")
		if len(s.Outputs) > 0 {
			bw.WriteByte(' ')
			bw.WriteString(strings.Join(s.Outputs, ", "))
		}
		bw.WriteByte('\n')
	}
	return errors.Wrap(bw.Flush(), "write netlist")
}
