package expression

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mandelsoft/meshcalc/pkg/scanner"
)

// ParseError describes a malformed formula.
type ParseError struct {
	Formula  string
	Position int
	Message  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("syntax error at position %d of %q: %s", e.Position, e.Formula, e.Message)
}

// Fragment returns the part of the formula starting at the error position.
func (e *ParseError) Fragment() string {
	r := []rune(e.Formula)
	if e.Position >= len(r) {
		return ""
	}
	return string(r[e.Position:])
}

// Expression is a parsed formula.
type Expression struct {
	text  string
	root  Node
	names []string
}

func (e *Expression) Text() string {
	return e.text
}

func (e *Expression) Root() Node {
	return e.root
}

// DatasetNames returns the referenced dataset names.
func (e *Expression) DatasetNames() []string {
	return append([]string(nil), e.names...)
}

func (e *Expression) String() string {
	return e.root.String()
}

type parser struct {
	lexer
	token token
}

func NewParser(in string) *parser {
	return &parser{
		lexer: lexer{scanner.NewScanner(in)},
	}
}

// Parse compiles a formula. On failure a *ParseError is returned.
func Parse(in string) (*Expression, error) {
	p := NewParser(in)
	n, err := p.parse()
	if err != nil {
		var serr *scanner.Error
		if errors.As(err, &serr) {
			return nil, &ParseError{Formula: in, Position: serr.Position, Message: serr.Message}
		}
		return nil, err
	}
	return &Expression{text: in, root: n, names: DatasetNames(n)}, nil
}

func (p *parser) parse() (Node, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	if p.token.kind == tEOF {
		return nil, p.errorf("empty formula")
	}
	n, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.token.kind != tEOF {
		return nil, p.errorf("unexpected %s", p.token)
	}
	return n, nil
}

func (p *parser) next() error {
	t, err := p.scan()
	if err != nil {
		return err
	}
	p.token = t
	return nil
}

func (p *parser) errorf(msg string, args ...interface{}) error {
	return p.ErrorAt(p.token.pos, msg, args...)
}

func (p *parser) consume(sym string) error {
	if !p.token.is(sym) {
		return p.errorf("%q expected, but found %s", sym, p.token)
	}
	return p.next()
}

////////////////////////////////////////////////////////////////////////////////

func (p *parser) parseExpression() (Node, error) {
	return p.parseOr()
}

type level func() (Node, error)

// parseLeft parses a left associative chain of binary operators.
func (p *parser) parseLeft(operand level, ops map[string]Operator) (Node, error) {
	o1, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.operator(ops)
		if !ok {
			return o1, nil
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		o2, err := operand()
		if err != nil {
			return nil, err
		}
		o1 = NewBinary(op, o1, o2)
	}
}

func (p *parser) operator(ops map[string]Operator) (Operator, bool) {
	if p.token.kind != tSymbol && p.token.kind != tName {
		return 0, false
	}
	op, ok := ops[strings.ToUpper(p.token.text)]
	return op, ok
}

var (
	orOps  = map[string]Operator{"OR": OpOr}
	andOps = map[string]Operator{"AND": OpAnd}
	cmpOps = map[string]Operator{"=": OpEq, "!=": OpNe, ">": OpGt, "<": OpLt, ">=": OpGe, "<=": OpLe}
	addOps = map[string]Operator{"+": OpAdd, "-": OpSub}
	mulOps = map[string]Operator{"*": OpMul, "/": OpDiv}
)

func (p *parser) parseOr() (Node, error) {
	return p.parseLeft(p.parseAnd, orOps)
}

func (p *parser) parseAnd() (Node, error) {
	return p.parseLeft(p.parseComparison, andOps)
}

func (p *parser) parseComparison() (Node, error) {
	return p.parseLeft(p.parseAdditive, cmpOps)
}

func (p *parser) parseAdditive() (Node, error) {
	return p.parseLeft(p.parseMultiplicative, addOps)
}

func (p *parser) parseMultiplicative() (Node, error) {
	return p.parseLeft(p.parsePower, mulOps)
}

// parsePower is right associative.
func (p *parser) parsePower() (Node, error) {
	o1, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if !p.token.is("^") {
		return o1, nil
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	o2, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	return NewBinary(OpPow, o1, o2), nil
}

func (p *parser) parseUnary() (Node, error) {
	var op Operator
	switch {
	case p.token.is("-"):
		op = OpNeg
	case p.token.is("NOT"):
		op = OpNot
	case p.token.is("ABS"):
		op = OpAbs
	default:
		return p.parsePrimary()
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	n, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return NewUnary(op, n), nil
}

var aggregates = map[string]Operator{
	"SUM_AGGR": OpSumAggr, "MIN_AGGR": OpMinAggr, "MAX_AGGR": OpMaxAggr,
	"AVG_AGGR": OpAvgAggr, "AVERAGE_AGGR": OpAvgAggr,
}

var functions = map[string]Operator{
	"MIN": OpMin, "MAX": OpMax,
}

func (p *parser) parsePrimary() (Node, error) {
	t := p.token
	switch t.kind {
	case tEOF:
		return nil, p.errorf("operand expected, but found %s", t)
	case tNumber:
		return NewNumber(t.value), p.next()
	case tQuoted:
		return NewDatasetRef(t.text), p.next()
	case tName:
		if !t.isKeyword() {
			return NewDatasetRef(t.text), p.next()
		}
		kw := strings.ToUpper(t.text)
		if kw == "NODATA" {
			return &NoData{}, p.next()
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		if kw == "IF" {
			args, err := p.parseArguments(3)
			if err != nil {
				return nil, err
			}
			return NewConditional(args[0], args[1], args[2]), nil
		}
		if op, ok := aggregates[kw]; ok {
			args, err := p.parseArguments(1)
			if err != nil {
				return nil, err
			}
			return NewUnary(op, args[0]), nil
		}
		if op, ok := functions[kw]; ok {
			args, err := p.parseArguments(2)
			if err != nil {
				return nil, err
			}
			return NewFunction(op, args[0], args[1]), nil
		}
		return nil, p.ErrorAt(t.pos, "unexpected keyword %s", t)
	}

	if t.is("(") {
		if err := p.next(); err != nil {
			return nil, err
		}
		n, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.consume(")"); err != nil {
			return nil, err
		}
		return n, nil
	}
	return nil, p.errorf("operand expected, but found %s", t)
}

// parseArguments parses a parenthesized argument list of exactly n
// expressions.
func (p *parser) parseArguments(n int) ([]Node, error) {
	if err := p.consume("("); err != nil {
		return nil, err
	}
	var args []Node
	for {
		a, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if len(args) == n {
			break
		}
		if err := p.consume(","); err != nil {
			return nil, err
		}
	}
	if err := p.consume(")"); err != nil {
		return nil, err
	}
	return args, nil
}
