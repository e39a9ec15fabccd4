package ctype

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

type tokenType int

const (
	tokEOF tokenType = iota
	tokIdent
	tokNumber
	tokString
	tokLParen   // (
	tokRParen   // )
	tokLAngle   // <
	tokRAngle   // >
	tokLBracket // [
	tokRBracket // ]
	tokComma    // ,
	tokStar     // *
	tokAmp      // &
	tokAmpAmp   // &&
	tokScope    // ::
	tokEllipsis // ...
)

type token struct {
	typ tokenType
	lit string
	pos int
}

func (t token) String() string {
	if t.typ == tokEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.lit)
}

type lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
}

func newLexer(input string) *lexer {
	l := &lexer{input: input}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = len(l.input)
		l.readPosition = len(l.input) + 1
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += w
}

func (l *lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// tokens lexes the whole input.
func (l *lexer) tokens() ([]token, error) {
	var out []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.typ == tokEOF {
			return out, nil
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipWhitespace()
	pos := l.position
	single := func(t tokenType) (token, error) {
		lit := string(l.ch)
		l.readChar()
		return token{typ: t, lit: lit, pos: pos}, nil
	}

	switch l.ch {
	case 0:
		return token{typ: tokEOF, pos: pos}, nil
	case '(':
		return single(tokLParen)
	case ')':
		return single(tokRParen)
	case '<':
		return single(tokLAngle)
	case '>':
		return single(tokRAngle)
	case '[':
		return single(tokLBracket)
	case ']':
		return single(tokRBracket)
	case ',':
		return single(tokComma)
	case '*':
		return single(tokStar)
	case '&':
		if l.peekChar() == '&' {
			l.readChar()
			l.readChar()
			return token{typ: tokAmpAmp, lit: "&&", pos: pos}, nil
		}
		return single(tokAmp)
	case ':':
		if l.peekChar() == ':' {
			l.readChar()
			l.readChar()
			return token{typ: tokScope, lit: "::", pos: pos}, nil
		}
	case '.':
		if l.peekChar() == '.' {
			l.readChar()
			if l.peekChar() == '.' {
				l.readChar()
				l.readChar()
				return token{typ: tokEllipsis, lit: "...", pos: pos}, nil
			}
		}
	case '"':
		return l.readString()
	}

	if isIdentStart(l.ch) {
		for isIdentPart(l.ch) {
			l.readChar()
		}
		return token{typ: tokIdent, lit: l.input[pos:l.position], pos: pos}, nil
	}
	if unicode.IsDigit(l.ch) {
		for unicode.IsDigit(l.ch) || unicode.IsLetter(l.ch) {
			l.readChar()
		}
		return token{typ: tokNumber, lit: l.input[pos:l.position], pos: pos}, nil
	}
	return token{}, &SyntaxError{Input: l.input, Pos: pos, Msg: fmt.Sprintf("unexpected character %q", l.ch)}
}

func (l *lexer) readString() (token, error) {
	pos := l.position
	l.readChar()
	for l.ch != '"' {
		if l.ch == 0 {
			return token{}, &SyntaxError{Input: l.input, Pos: pos, Msg: "unterminated string literal"}
		}
		l.readChar()
	}
	lit := l.input[pos+1 : l.position]
	l.readChar()
	return token{typ: tokString, lit: lit, pos: pos}, nil
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

// SyntaxError reports a malformed type spelling.
type SyntaxError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("parse %q: offset %d: %s", e.Input, e.Pos, e.Msg)
}
