package app

import (
	"context"
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/mandelsoft/meshcalc/pkg/calculator"
	"github.com/mandelsoft/meshcalc/pkg/extent"
	"github.com/mandelsoft/meshcalc/pkg/project"
	"github.com/mandelsoft/meshcalc/pkg/storage/netcdf"
)

type Calc struct {
	cmd *cobra.Command

	mainopts *Options
	name     string
	extent   string
	start    float64
	end      float64
	save     bool
}

func NewCalc(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc <formula> <options>",
		Short: "evaluate a formula",
		Long: `
Evaluate a formula on the datasets of a project. The result is written
to the output directory as NetCDF file, added to the project file with
--save, or just reported otherwise.
`,
		Args: cobra.ExactArgs(1),
	}

	c := &Calc{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(cmd.Context(), args) }
	flags := cmd.Flags()
	flags.StringVarP(&c.name, "name", "n", "", "name of the result dataset")
	flags.StringVarP(&c.extent, "extent", "e", "", "spatial extent (minx,miny,maxx,maxy or WKT polygon)")
	flags.Float64Var(&c.start, "start", math.Inf(-1), "start of time window")
	flags.Float64Var(&c.end, "end", math.Inf(1), "end of time window")
	flags.BoolVarP(&c.save, "save", "s", false, "add result to project file")
	return cmd
}

func (c *Calc) Run(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.save && c.mainopts.output != "" {
		return fmt.Errorf("--save and --output are exclusive")
	}
	m, err := c.mainopts.Mesh()
	if err != nil {
		return err
	}

	req := calculator.Request{
		Formula: args[0],
		Mesh:    m,
		Name:    c.name,
	}
	if c.extent != "" {
		req.Extent, err = extent.Parse(c.extent)
		if err != nil {
			return err
		}
	}
	if c.cmd.Flags().Changed("start") || c.cmd.Flags().Changed("end") {
		req.Window = &calculator.Window{Start: c.start, End: c.end}
	}

	var store calculator.Store = calculator.MeshStore{}
	switch {
	case c.mainopts.output != "":
		store, err = netcdf.New(c.mainopts.output, c.mainopts.fs)
		if err != nil {
			return err
		}
	case c.save:
		store = project.NewStore(c.mainopts.project, c.mainopts.fs)
	}

	calc := calculator.New(
		calculator.WithLogging(c.mainopts.lctx),
		calculator.WithStore(store),
		calculator.WithMemoryLimit(c.mainopts.memoryLimit),
	)
	r, err := calc.Run(ctx, req)
	if err != nil {
		return &CalculationError{Code: r.Code, err: err}
	}

	ds := r.Dataset
	out := c.cmd.OutOrStdout()
	fmt.Fprintf(out, "dataset:  %s\n", ds.Name)
	fmt.Fprintf(out, "location: %s\n", ds.Location)
	fmt.Fprintf(out, "times:    %s\n", formatTimes(ds.Times()))
	if min, max, ok := ds.Statistics(); ok {
		fmt.Fprintf(out, "range:    %g..%g\n", min, max)
	} else {
		fmt.Fprintf(out, "range:    nodata\n")
	}
	fmt.Fprintf(out, "stored:   %s\n", r.Location)
	return nil
}
