package netlist

import (
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Type is a token type.
//
type Type int

// Tokens
const (
	EOF Type = iota
	Raw
	Newline
	Ident
	Percent
	Amp
	Arrow
	Comma
)

var typeNames = [...]string{
	EOF:     "end of input",
	Raw:     "character",
	Newline: "end of line",
	Ident:   "identifier",
	Percent: "'%'",
	Amp:     "'&'",
	Arrow:   "'->'",
	Comma:   "','",
}

func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "token(" + strconv.Itoa(int(t)) + ")"
}

// Pos is a position in the input. Line and Col start at 1.
//
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Col)
}

// Item is a token emitted by the lexer.
//
type Item struct {
	Type  Type
	Pos   Pos
	Value string
}

func (i Item) String() string {
	switch i.Type {
	case Ident:
		return "identifier " + strconv.Quote(i.Value)
	case Raw:
		return "character " + strconv.Quote(i.Value)
	}
	return i.Type.String()
}

// A StateFn is a lexer state. A nil StateFn returns the lexer to its initial
// state.
//
type StateFn func(l *Lexer) StateFn

// Lexer splits a netlist into tokens.
//
type Lexer struct {
	input string
	off   int
	width int
	cur   rune
	pos   Pos // position of cur
	prev  Pos
	start Pos
	items []Item
	state StateFn
}

// NewLexer returns a new lexer for the given netlist.
//
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, pos: Pos{1, 0}, state: lexInit}
}

// Lex returns the next token.
//
func (l *Lexer) Lex() Item {
	for len(l.items) == 0 {
		l.state = l.state(l)
		if l.state == nil {
			l.state = lexInit
		}
	}
	i := l.items[0]
	l.items = l.items[1:]
	return i
}

// next reads the next rune or -1 at the end of input.
//
func (l *Lexer) next() rune {
	l.prev = l.pos
	if l.cur == '\n' {
		l.pos.Line++
		l.pos.Col = 1
	} else {
		l.pos.Col++
	}
	if l.off >= len(l.input) {
		l.width = 0
		l.cur = -1
		return l.cur
	}
	l.cur, l.width = utf8.DecodeRuneInString(l.input[l.off:])
	l.off += l.width
	return l.cur
}

// backup unreads the current rune. Can only be called once after next.
//
func (l *Lexer) backup() {
	l.off -= l.width
	l.pos = l.prev
	// the rune before the current one is never a newline when backing up
	// since newlines are emitted as tokens.
	l.cur = 0
}

func (l *Lexer) emit(t Type, v string) {
	l.items = append(l.items, Item{t, l.start, v})
}

func lexInit(l *Lexer) StateFn {
	r := l.next()
	l.start = l.pos
	switch {
	case r == -1:
		return lexEOF
	case r == '\n':
		l.emit(Newline, "\n")
	case r == '#':
		return lexComment
	case unicode.IsSpace(r):
	case isIdent(r):
		return lexIdent
	case r == '%':
		l.emit(Percent, "%")
	case r == '&':
		l.emit(Amp, "&")
	case r == ',':
		l.emit(Comma, ",")
	case r == '-':
		if l.next() == '>' {
			l.emit(Arrow, "->")
			break
		}
		l.backup()
		fallthrough
	default:
		l.emit(Raw, string(r))
	}
	return nil
}

func lexComment(l *Lexer) StateFn {
	for {
		switch l.next() {
		case '\n':
			l.start = l.pos
			l.emit(Newline, "\n")
			return nil
		case -1:
			return lexEOF
		}
	}
}

func isIdent(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func lexIdent(l *Lexer) StateFn {
	start := l.off - l.width
	for isIdent(l.next()) {
	}
	if l.cur != -1 {
		l.backup()
	}
	l.emit(Ident, l.input[start:l.off])
	return nil
}

// lexEOF places the lexer in End-Of-File state.
// Once in this state, the lexer will only emit EOF.
//
func lexEOF(l *Lexer) StateFn {
	l.start = l.pos
	l.emit(EOF, "")
	return lexEOF
}
