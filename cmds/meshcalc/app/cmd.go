package app

import (
	"errors"
	"fmt"

	"github.com/mandelsoft/logging"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/spf13/cobra"

	"github.com/mandelsoft/meshcalc/pkg/calculator"
	"github.com/mandelsoft/meshcalc/pkg/mesh"
	"github.com/mandelsoft/meshcalc/pkg/project"
	"github.com/mandelsoft/meshcalc/pkg/utils"
)

var REALM = logging.DefineRealm("meshcalc/cli", "command line interface")

// EXIT_FAILED is the exit code for failures not caused by a calculation.
const EXIT_FAILED = 100

type Options struct {
	fs   vfs.FileSystem
	lctx logging.Context

	config      string
	project     string
	output      string
	level       string
	memoryLimit int
}

func New(fss ...vfs.FileSystem) *cobra.Command {
	opts := &Options{
		fs:   utils.OptionalDefaulted(vfs.FileSystem(osfs.OsFs), fss...),
		lctx: logging.DefaultContext(),
	}

	maincmd := &cobra.Command{
		Use:   "meshcalc <options> <cmd> <args>",
		Short: "evaluate formulas on mesh datasets",
		Long: `
This command evaluates arithmetic and logical formulas over the datasets
of a mesh project and stores the derived datasets.
`,
		SilenceUsage:     true,
		SilenceErrors:    true,
		TraverseChildren: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.Complete(cmd)
		},
	}

	flags := maincmd.PersistentFlags()
	flags.StringVarP(&opts.config, "config", "C", "", "config file")
	flags.StringVarP(&opts.project, "project", "p", "", "mesh project file")
	flags.StringVarP(&opts.output, "output", "o", "", "output directory for NetCDF results")
	flags.StringVarP(&opts.level, "log-level", "L", "", "log level")
	flags.IntVarP(&opts.memoryLimit, "memory-limit", "M", 0, "maximum number of values of a result")

	maincmd.AddCommand(NewCalc(opts))
	maincmd.AddCommand(NewRun(opts))
	maincmd.AddCommand(NewParse(opts))
	maincmd.AddCommand(NewInfo(opts))
	return maincmd
}

// Complete fills options not given on the command line from the config.
func (o *Options) Complete(cmd *cobra.Command) error {
	cfg, err := GetConfig(o.fs, o.config)
	if err != nil {
		return fmt.Errorf("cannot read config: %w", err)
	}
	flags := cmd.Flags()
	if !flags.Changed("project") {
		o.project = value(cfg.Project, o.project)
	}
	if !flags.Changed("output") {
		o.output = value(cfg.Output, o.output)
	}
	if !flags.Changed("log-level") {
		o.level = value(cfg.LogLevel, "info")
	}
	if !flags.Changed("memory-limit") {
		o.memoryLimit = value(cfg.MemoryLimit, o.memoryLimit)
	}

	l, err := logging.ParseLevel(o.level)
	if err != nil {
		return fmt.Errorf("invalid log level %q", o.level)
	}
	o.lctx.AddRule(logging.NewConditionRule(l, logging.NewRealmPrefix("meshcalc")))
	return nil
}

func (o *Options) Mesh() (*mesh.Mesh, error) {
	if o.project == "" {
		return nil, fmt.Errorf("project file required")
	}
	return project.Load(o.project, o.fs)
}

// CalculationError reports a failed calculation together with its result
// code.
type CalculationError struct {
	Code calculator.Code
	err  error
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.err)
}

func (e *CalculationError) Unwrap() error {
	return e.err
}

// ExitCode maps a command error to the process exit code. Failed
// calculations exit with their result code.
func ExitCode(err error) int {
	var cerr *CalculationError
	if errors.As(err, &cerr) {
		return int(cerr.Code)
	}
	if err != nil {
		return EXIT_FAILED
	}
	return 0
}
