// Package netlist parses the text description of a pulse network.
//
// Each non-empty line declares one module:
//
//	broadcaster -> a, b, c
//	%a -> b
//	&inv -> a
//
// The optional prefix is the module type, the names after the arrow are the
// module outputs. A '#' starts a comment that runs to the end of the line.
//
package netlist

import (
	"github.com/pkg/errors"
)

// Decl is a module declaration.
//
type Decl struct {
	// Prefix is '%', '&' or 0 if the module name has no prefix.
	Prefix  rune
	Name    string
	Outputs []string
	Pos     Pos
}

// Parser parses netlists.
//
type Parser struct {
	l *Lexer
	i Item
}

// NewParser returns a parser for the given input.
//
func NewParser(input string) *Parser {
	return &Parser{l: NewLexer(input)}
}

func (p *Parser) lex() Item {
	p.i = p.l.Lex()
	return p.i
}

// Next returns the next declaration in the input, or nil at the end of the
// input.
//
func (p *Parser) Next() (*Decl, error) {
	for p.lex().Type == Newline {
	}
	if p.i.Type == EOF {
		return nil, nil
	}
	d := &Decl{Pos: p.i.Pos}
	switch p.i.Type {
	case Percent:
		d.Prefix = '%'
		p.lex()
	case Amp:
		d.Prefix = '&'
		p.lex()
	}
	if p.i.Type != Ident {
		return nil, parseError(p.i, "expected module name")
	}
	d.Name = p.i.Value
	if p.lex().Type != Arrow {
		return nil, parseError(p.i, "expected '->' after module name")
	}
	switch p.lex().Type {
	case Newline, EOF:
		return d, nil
	}
	for {
		if p.i.Type != Ident {
			return nil, parseError(p.i, "expected output name")
		}
		d.Outputs = append(d.Outputs, p.i.Value)
		switch p.lex().Type {
		case Newline, EOF:
			return d, nil
		case Comma:
			p.lex()
		default:
			return nil, parseError(p.i, "expected ',' or end of line")
		}
	}
}

// Parse parses the whole input.
//
func Parse(input string) ([]Decl, error) {
	var ds []Decl
	p := NewParser(input)
	for {
		d, err := p.Next()
		if err != nil {
			return nil, err
		}
		if d == nil {
			return ds, nil
		}
		ds = append(ds, *d)
	}
}

func parseError(i Item, msg string) error {
	return errors.Errorf("%v: %s, got %v", i.Pos, msg, i)
}
