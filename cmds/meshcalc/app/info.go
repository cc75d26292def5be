package app

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mandelsoft/meshcalc/pkg/calculator"
)

type Info struct {
	cmd *cobra.Command

	mainopts *Options
}

func NewInfo(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info [<formula>]",
		Short: "show the datasets of a project or the result kind of a formula",
		Args:  cobra.MaximumNArgs(1),
	}

	c := &Info{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	return cmd
}

func (c *Info) Run(args []string) error {
	m, err := c.mainopts.Mesh()
	if err != nil {
		return err
	}
	out := c.cmd.OutOrStdout()

	if len(args) == 0 {
		fmt.Fprintf(out, "mesh %s: %d nodes, %d elements\n", m.Name(), m.NodeCount(), m.ElementCount())
		var rows [][]string
		for _, n := range m.DatasetNames() {
			ds, _ := m.Dataset(n)
			rows = append(rows, []string{n, ds.Location.String(), ds.Nature.String(), strconv.Itoa(ds.OutputCount()), formatTimes(ds.Times())})
		}
		if len(rows) == 0 {
			fmt.Fprintf(out, "no dataset found\n")
			return nil
		}
		PrintTable(out, []string{"NAME", "LOCATION", "NATURE", "OUTPUTS", "TIMES"}, rows)
		return nil
	}

	calc := calculator.New(calculator.WithLogging(c.mainopts.lctx))
	info, err := calc.Check(args[0], m)
	if err != nil {
		return &CalculationError{Code: calculator.CodeOf(err), err: err}
	}
	fmt.Fprintf(out, "expression:   %s\n", info.Expression)
	fmt.Fprintf(out, "location:     %s\n", info.Location)
	fmt.Fprintf(out, "time varying: %t\n", info.TimeVarying)
	fmt.Fprintf(out, "times:        %s\n", formatTimes(info.Times))
	fmt.Fprintf(out, "boolean:      %t\n", info.Boolean)
	fmt.Fprintf(out, "depth:        %d\n", info.Depth)
	return nil
}
