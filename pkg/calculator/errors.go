package calculator

import (
	"errors"

	"github.com/mandelsoft/meshcalc/pkg/algebra"
	"github.com/mandelsoft/meshcalc/pkg/expression"
)

var (
	ErrParser          = errors.New("cannot parse formula")
	ErrInvalidDatasets = algebra.ErrInvalidDatasets
	ErrEvaluate        = errors.New("could not evaluate expression")
	ErrCreateOutput    = errors.New("cannot create output")
	ErrInputLayer      = errors.New("invalid input layer")
	ErrCanceled        = errors.New("calculation canceled")
	ErrMemory          = errors.New("out of memory")
)

// Code is the result code of a calculation as exposed to integrations.
// The numeric values are stable.
type Code int

const (
	Success Code = iota
	CreateOutputError
	InputLayerError
	Canceled
	ParserError
	MemoryError
	InvalidDatasets
	EvaluateError
)

var codeNames = map[Code]string{
	Success:           "Success",
	CreateOutputError: "CreateOutputError",
	InputLayerError:   "InputLayerError",
	Canceled:          "Canceled",
	ParserError:       "ParserError",
	MemoryError:       "MemoryError",
	InvalidDatasets:   "InvalidDatasets",
	EvaluateError:     "EvaluateError",
}

func (c Code) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return "Unknown"
}

// CodeOf maps an error returned by this package to its result code.
func CodeOf(err error) Code {
	var perr *expression.ParseError
	switch {
	case err == nil:
		return Success
	case errors.Is(err, ErrCanceled):
		return Canceled
	case errors.Is(err, ErrParser), errors.As(err, &perr):
		return ParserError
	case errors.Is(err, ErrInvalidDatasets):
		return InvalidDatasets
	case errors.Is(err, ErrInputLayer):
		return InputLayerError
	case errors.Is(err, ErrCreateOutput):
		return CreateOutputError
	case errors.Is(err, ErrMemory):
		return MemoryError
	default:
		return EvaluateError
	}
}
