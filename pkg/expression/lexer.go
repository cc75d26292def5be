package expression

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/mandelsoft/meshcalc/pkg/scanner"
)

type tokenKind int

const (
	tEOF tokenKind = iota
	tNumber
	tName
	tQuoted
	tSymbol
)

type token struct {
	kind  tokenKind
	text  string
	value float64
	pos   int
}

func (t token) String() string {
	if t.kind == tEOF {
		return "end of formula"
	}
	return strconv.Quote(t.text)
}

// is checks for a symbol or a (case-insensitive) keyword.
func (t token) is(s string) bool {
	switch t.kind {
	case tSymbol:
		return t.text == s
	case tName:
		return strings.EqualFold(t.text, s)
	}
	return false
}

var keywords = map[string]bool{
	"IF": true, "AND": true, "OR": true, "NOT": true, "ABS": true, "NODATA": true,
	"MIN": true, "MAX": true,
	"SUM_AGGR": true, "MIN_AGGR": true, "MAX_AGGR": true, "AVG_AGGR": true, "AVERAGE_AGGR": true,
}

func (t token) isKeyword() bool {
	return t.kind == tName && keywords[strings.ToUpper(t.text)]
}

type lexer struct {
	scanner.Scanner
}

func isNameStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isNameRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.'
}

func (s *lexer) scan() (token, error) {
	n := s.SkipBlanks()
	pos := s.Position()
	switch {
	case n == 0:
		return token{kind: tEOF, pos: pos}, nil
	case unicode.IsDigit(n) || (n == '.' && unicode.IsDigit(s.Peek())):
		return s.scanNumber()
	case isNameStart(n):
		name := ""
		for isNameRune(s.Current()) {
			name += string(s.Current())
			s.Next()
		}
		return token{kind: tName, text: name, pos: pos}, nil
	case n == '"':
		return s.scanQuoted()
	}

	sym := string(n)
	s.Next()
	switch n {
	case '+', '-', '*', '/', '^', '(', ')', ',':
	case '=':
		if s.Current() == '=' {
			s.Next()
		}
		sym = "="
	case '!':
		if s.Current() != '=' {
			return token{}, s.ErrorAt(pos, "unexpected character %q", "!")
		}
		s.Next()
		sym = "!="
	case '<':
		switch s.Current() {
		case '=':
			s.Next()
			sym = "<="
		case '>':
			s.Next()
			sym = "!="
		}
	case '>':
		if s.Current() == '=' {
			s.Next()
			sym = ">="
		}
	default:
		return token{}, s.ErrorAt(pos, "unexpected character %q", string(n))
	}
	return token{kind: tSymbol, text: sym, pos: pos}, nil
}

func (s *lexer) scanNumber() (token, error) {
	pos := s.Position()
	num := ""
	digits := func() {
		for unicode.IsDigit(s.Current()) {
			num += string(s.Current())
			s.Next()
		}
	}
	digits()
	if s.Current() == '.' {
		num += "."
		s.Next()
		digits()
	}
	if s.Current() == 'e' || s.Current() == 'E' {
		num += "e"
		s.Next()
		if s.Current() == '+' || s.Current() == '-' {
			num += string(s.Current())
			s.Next()
		}
		if !unicode.IsDigit(s.Current()) {
			return token{}, s.Errorf("exponent of number %q requires digits", num)
		}
		digits()
	}
	if isNameStart(s.Current()) {
		return token{}, s.Errorf("invalid character %q in number", string(s.Current()))
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return token{}, s.ErrorAt(pos, "invalid number %q", num)
	}
	return token{kind: tNumber, text: num, value: v, pos: pos}, nil
}

func (s *lexer) scanQuoted() (token, error) {
	pos := s.Position()
	s.Next()
	name := ""
	for s.Current() != '"' {
		if s.Current() == 0 {
			return token{}, s.ErrorAt(pos, "unterminated dataset name")
		}
		name += string(s.Current())
		s.Next()
	}
	s.Next()
	if name == "" {
		return token{}, s.ErrorAt(pos, "empty dataset name")
	}
	return token{kind: tQuoted, text: name, pos: pos}, nil
}
