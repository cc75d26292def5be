package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/mandelsoft/logging"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"golang.org/x/sync/errgroup"

	"github.com/mandelsoft/meshcalc/pkg/calculator"
	"github.com/mandelsoft/meshcalc/pkg/ctxutil"
	"github.com/mandelsoft/meshcalc/pkg/project"
	"github.com/mandelsoft/meshcalc/pkg/storage/netcdf"
	"github.com/mandelsoft/meshcalc/pkg/utils"
)

var REALM = logging.DefineRealm("meshcalc/jobs", "batch calculations")

// Outcome is the result of a single calculation of a job.
type Outcome struct {
	Name   string
	Result *calculator.Result
	Err    error
}

// Run executes all calculations of a job. With a parallelism of one (the
// default) calculations run in file order, so later ones may use the
// results of earlier ones if the results are stored at the mesh. The
// outcomes are returned in file order, the error joins all failures.
func Run(ctx context.Context, lctx logging.Context, f *File, fss ...vfs.FileSystem) ([]*Outcome, error) {
	fs := utils.OptionalDefaulted(vfs.FileSystem(osfs.OsFs), fss...)
	log := lctx.Logger(REALM).WithValues("job", f.Mesh)

	meshPath := f.path(f.Mesh)
	m, err := project.Load(meshPath, fs)
	if err != nil {
		return nil, err
	}

	var store calculator.Store
	if f.Output != "" {
		store, err = netcdf.New(f.path(f.Output), fs)
		if err != nil {
			return nil, err
		}
	} else {
		store = project.NewStore(meshPath, fs)
	}
	calc := calculator.New(calculator.WithLogging(lctx), calculator.WithStore(store))

	parallel := f.Parallel
	if parallel == 0 {
		parallel = 1
	}
	log.Info("running {{count}} calculations with parallelism {{parallel}}", "count", len(f.Calculations), "parallel", parallel)

	outcomes := make([]*Outcome, len(f.Calculations))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, c := range f.Calculations {
		i, c := i, c
		g.Go(func() error {
			cctx := ctxutil.TimeoutContext(gctx, f.timeout)
			defer ctxutil.Cancel(cctx)

			r, err := calc.Run(cctx, c.Request(m))
			outcomes[i] = &Outcome{Name: c.Name, Result: r, Err: err}
			if err != nil && f.FailFast {
				return fmt.Errorf("calculation %q: %w", c.Name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("job aborted", "error", err)
	}

	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("calculation %q: %w", o.Name, o.Err))
		}
	}
	return outcomes, errors.Join(errs...)
}
