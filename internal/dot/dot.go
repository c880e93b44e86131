// Package dot renders the wiring of a pulse network.
package dot

import (
	"fmt"
	"strings"

	"github.com/db47h/pulsenet"
	"github.com/pkg/errors"
)

// Format specifies the output format for graph rendering.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// ParseFormat returns the Format named s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatDOT, FormatJSON:
		return f, nil
	}
	return "", errors.Errorf("unknown graph format %q (valid: dot, json)", s)
}

// nodeShapes maps module kinds to DOT shapes.
var nodeShapes = map[pulsenet.Kind]string{
	pulsenet.Broadcaster: "doublecircle",
	pulsenet.FlipFlop:    "box",
	pulsenet.Conjunction: "invhouse",
	pulsenet.Unknown:     "plaintext", // sinks
}

var nodeColors = map[pulsenet.Kind]string{
	pulsenet.Broadcaster: "goldenrod",
	pulsenet.FlipFlop:    "steelblue",
	pulsenet.Conjunction: "tomato",
	pulsenet.Unknown:     "lightgray",
}

// RenderDOT produces a Graphviz DOT representation of the wiring of n.
// Modules are listed in declaration order, followed by sinks. Edges from the
// button are not rendered.
func RenderDOT(n *pulsenet.Network) string {
	var b strings.Builder
	b.WriteString("digraph pulsenet {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [style=filled, fontname=\"Helvetica\"];\n\n")

	specs := n.Specs()
	for _, s := range specs {
		b.WriteString(fmt.Sprintf("  %q [shape=%s, fillcolor=%q];\n", s.Name, nodeShapes[s.Kind], nodeColors[s.Kind]))
	}
	for _, name := range n.Sinks() {
		b.WriteString(fmt.Sprintf("  %q [shape=%s, fillcolor=%q];\n", name, nodeShapes[pulsenet.Unknown], nodeColors[pulsenet.Unknown]))
	}
	b.WriteString("\n")

	for _, s := range specs {
		seen := make(map[string]bool, len(s.Outputs))
		for _, o := range s.Outputs {
			// a module listing the same output twice sends it two pulses
			if seen[o] {
				continue
			}
			seen[o] = true
			b.WriteString(fmt.Sprintf("  %q -> %q;\n", s.Name, o))
		}
	}
	b.WriteString("}\n")
	return b.String()
}

// Node is a module or sink in the JSON representation.
type Node struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Edge is a wire in the JSON representation.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	// Count is the number of times Target appears in the outputs of Source.
	Count int `json:"count"`
}

// Graph is the JSON representation of a network.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// RenderJSON returns a graph with nodes and edges arrays, suitable for JSON
// encoding.
func RenderJSON(n *pulsenet.Network) *Graph {
	g := &Graph{Nodes: []Node{}, Edges: []Edge{}}
	specs := n.Specs()
	for _, s := range specs {
		id, _ := n.ID(s.Name)
		g.Nodes = append(g.Nodes, Node{ID: id, Name: s.Name, Kind: s.Kind.String()})
	}
	for _, name := range n.Sinks() {
		id, _ := n.ID(name)
		g.Nodes = append(g.Nodes, Node{ID: id, Name: name, Kind: "sink"})
	}
	for _, s := range specs {
		idx := make(map[string]int, len(s.Outputs))
		for _, o := range s.Outputs {
			if i, ok := idx[o]; ok {
				g.Edges[i].Count++
				continue
			}
			idx[o] = len(g.Edges)
			g.Edges = append(g.Edges, Edge{Source: s.Name, Target: o, Count: 1})
		}
	}
	return g
}
