package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mandelsoft/meshcalc/pkg/jobs"
)

type Run struct {
	cmd *cobra.Command

	mainopts *Options
	vars     map[string]string
	parallel int
}

func NewRun(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <job file> <options>",
		Short: "run the calculations of a job file",
		Args:  cobra.ExactArgs(1),
	}

	c := &Run{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(cmd.Context(), args) }
	flags := cmd.Flags()
	flags.StringToStringVarP(&c.vars, "var", "v", nil, "job variable (NAME=VALUE)")
	flags.IntVarP(&c.parallel, "parallel", "P", 0, "number of parallel calculations")
	return cmd
}

func (c *Run) Run(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f, err := jobs.Load(args[0], c.vars, c.mainopts.fs)
	if err != nil {
		return err
	}
	if c.cmd.Flags().Changed("parallel") {
		f.Parallel = c.parallel
	}
	if c.mainopts.output != "" && f.Output == "" {
		f.Output = c.mainopts.output
	}

	outcomes, err := jobs.Run(ctx, c.mainopts.lctx, f, c.mainopts.fs)
	var rows [][]string
	for _, o := range outcomes {
		if o == nil {
			continue
		}
		row := []string{o.Name, "", ""}
		if o.Result != nil {
			row[1] = o.Result.Code.String()
			row[2] = o.Result.Location
		}
		rows = append(rows, row)
	}
	if len(rows) > 0 {
		PrintTable(c.cmd.OutOrStdout(), []string{"NAME", "RESULT", "LOCATION"}, rows)
	}
	if err != nil {
		return fmt.Errorf("job %s failed: %w", args[0], err)
	}
	return nil
}
