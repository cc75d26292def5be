package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mandelsoft/meshcalc/pkg/calculator"
	"github.com/mandelsoft/meshcalc/pkg/expression"
)

type Parse struct {
	cmd *cobra.Command

	mainopts *Options
}

func NewParse(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <formula>",
		Short: "show the structure of a formula",
		Args:  cobra.ExactArgs(1),
	}

	c := &Parse{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	return cmd
}

func (c *Parse) Run(args []string) error {
	expr, err := expression.Parse(args[0])
	if err != nil {
		return &CalculationError{Code: calculator.ParserError, err: err}
	}
	out := c.cmd.OutOrStdout()
	fmt.Fprintf(out, "expression: %s\n", expr)
	fmt.Fprintf(out, "datasets:   %s\n", strings.Join(expr.DatasetNames(), ", "))
	return nil
}
