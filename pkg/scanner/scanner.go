package scanner

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

type Scanner interface {
	Next() rune
	Peek() rune
	ConsumeRune(r rune) error
	SkipBlanks() rune
	Current() rune
	// Position is the rune offset of the current rune.
	Position() int
	Input() string

	Errorf(msg string, args ...interface{}) error
	ErrorAt(pos int, msg string, args ...interface{}) error
}

// Error describes a syntax problem at a rune position of the scanned input.
type Error struct {
	Input    string
	Position int
	Message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%q %d: %s", e.Input, e.Position, e.Message)
}

// Fragment returns the input starting at the error position.
func (e *Error) Fragment() string {
	runes := []rune(e.Input)
	if e.Position >= len(runes) {
		return ""
	}
	return string(runes[e.Position:])
}

type scanner struct {
	in      []byte
	offset  int
	no      int
	current rune
}

func NewScanner(in string) Scanner {
	s := &scanner{
		in: []byte(in),
		no: -1,
	}
	s.Next()
	return s
}

func (s *scanner) Input() string {
	return string(s.in)
}

func (s *scanner) Next() rune {
	if s.offset >= len(s.in) {
		if s.current != 0 || s.no < 0 {
			s.no++
		}
		s.current = 0
		return 0
	}
	r, size := utf8.DecodeRune(s.in[s.offset:])
	s.current = r
	s.offset += size
	s.no++
	return r
}

func (s *scanner) Peek() rune {
	if s.offset >= len(s.in) {
		return 0
	}
	r, _ := utf8.DecodeRune(s.in[s.offset:])
	return r
}

func (s *scanner) ConsumeRune(r rune) error {
	if s.Current() != r {
		return s.Errorf("%q expected", string(r))
	}
	s.Next()
	return nil
}

func (s *scanner) Current() rune {
	return s.current
}

func (s *scanner) Position() int {
	return s.no
}

func (s *scanner) SkipBlanks() rune {
	n := s.Current()
	for unicode.IsSpace(n) {
		n = s.Next()
	}
	return n
}

func (s *scanner) Errorf(msg string, args ...interface{}) error {
	return s.ErrorAt(s.Position(), msg, args...)
}

func (s *scanner) ErrorAt(pos int, msg string, args ...interface{}) error {
	return &Error{Input: string(s.in), Position: pos, Message: fmt.Sprintf(msg, args...)}
}
