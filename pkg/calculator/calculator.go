// Package calculator evaluates mesh expressions. It ties together the
// formula parser, the dataset algebra, the output extent and the
// persistence of derived datasets.
package calculator

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"
	"github.com/mandelsoft/logging"

	"github.com/mandelsoft/meshcalc/pkg/algebra"
	"github.com/mandelsoft/meshcalc/pkg/expression"
	"github.com/mandelsoft/meshcalc/pkg/extent"
	"github.com/mandelsoft/meshcalc/pkg/mesh"
	"github.com/mandelsoft/meshcalc/pkg/utils"
)

var REALM = logging.DefineRealm("meshcalc/calculator", "mesh expression calculator")

// Metadata keys of derived datasets.
const (
	META_NAME         = "name"
	META_MIN          = "min"
	META_MAX          = "max"
	META_TIME_VARYING = "time_varying"
	META_FORMULA      = "formula"
	META_ID           = "id"
	META_HASH         = "hash"
)

// Window is an inclusive time window in hours.
type Window struct {
	Start float64
	End   float64
}

// AllTimes is the window covering every output time.
func AllTimes() Window {
	return Window{Start: math.Inf(-1), End: math.Inf(1)}
}

type Request struct {
	Formula string
	Mesh    *mesh.Mesh
	// Extent optionally restricts the result. Values outside are nodata.
	Extent extent.Extent
	// Window restricts the used outputs. Nil selects all times.
	Window *Window
	// Name of the derived dataset, the formula is used if empty.
	Name string
}

func (r *Request) window() Window {
	if r.Window == nil {
		return AllTimes()
	}
	return *r.Window
}

type Result struct {
	Code     Code
	Dataset  *mesh.Dataset
	Location string
}

type Calculator struct {
	opts Options
}

func New(opts ...Option) *Calculator {
	c := &Calculator{
		opts: Options{
			Logging: logging.DefaultContext(),
			Store:   MeshStore{},
		},
	}
	for _, o := range opts {
		o.ApplyTo(&c.opts)
	}
	return c
}

// Run executes the complete calculation pipeline for a request. The
// result is always returned, it carries the result code. On failure it
// never holds a dataset.
func (c *Calculator) Run(ctx context.Context, req Request) (*Result, error) {
	log := c.opts.Logging.Logger(REALM).WithValues("formula", req.Formula)

	ds, loc, err := c.run(ctx, log, &req)
	if err != nil {
		code := CodeOf(err)
		log.Error("calculation failed with {{code}}", "code", code, "error", err)
		return &Result{Code: code}, err
	}
	log.Info("stored {{name}} at {{location}}", "name", ds.Name, "location", loc)
	return &Result{Code: Success, Dataset: ds, Location: loc}, nil
}

func (c *Calculator) run(ctx context.Context, log logging.Logger, req *Request) (*mesh.Dataset, string, error) {
	if req.Mesh == nil {
		return nil, "", fmt.Errorf("%w: no mesh given", ErrInputLayer)
	}

	expr, err := expression.Parse(req.Formula)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrParser, err)
	}
	log.Debug("parsed {{expression}}", "expression", expr.String(), "datasets", expr.DatasetNames())

	w := req.window()
	ac, err := algebra.New(req.Mesh, expr.DatasetNames(), w.Start, w.End)
	if err != nil {
		return nil, "", err
	}
	if err := c.checkMemory(ac); err != nil {
		return nil, "", err
	}

	ds, err := Evaluate(ctx, expr.Root(), ac)
	if err != nil {
		return nil, "", err
	}
	if req.Extent != nil {
		log.Debug("applying extent {{extent}}", "extent", req.Extent.String())
		ds = ac.Filter(ds, extent.Mask(req.Mesh, req.Extent, ds.Location))
	}

	name := req.Name
	if name == "" {
		name = expr.Text()
	}
	finalize(ds, name, expr)

	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	loc, err := c.opts.Store.Store(ctx, req.Mesh, ds)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %q: %w", ErrCreateOutput, name, err)
	}
	return ds, loc, nil
}

func (c *Calculator) checkMemory(ac *algebra.Context) error {
	if c.opts.MemoryLimit <= 0 {
		return nil
	}
	n := ac.Mesh().Size(ac.Location()) * len(ac.Times())
	if n > c.opts.MemoryLimit {
		return fmt.Errorf("%w: %d values required, but limit is %d", ErrMemory, n, c.opts.MemoryLimit)
	}
	return nil
}

// Evaluate evaluates a parsed expression for a mesh without storing the
// result.
func (c *Calculator) Evaluate(ctx context.Context, expr *expression.Expression, m *mesh.Mesh, start, end float64) (*mesh.Dataset, error) {
	ac, err := algebra.New(m, expr.DatasetNames(), start, end)
	if err != nil {
		return nil, err
	}
	if err := c.checkMemory(ac); err != nil {
		return nil, err
	}
	ds, err := Evaluate(ctx, expr.Root(), ac)
	if err != nil {
		return nil, err
	}
	finalize(ds, expr.Text(), expr)
	return ds, nil
}

func finalize(ds *mesh.Dataset, name string, expr *expression.Expression) {
	ds.Name = name
	ds.Metadata = map[string]string{
		META_NAME:         name,
		META_FORMULA:      expr.Text(),
		META_TIME_VARYING: strconv.FormatBool(ds.IsTimeVarying()),
		META_ID:           uuid.NewString(),
		META_HASH:         utils.HashData(content(ds, expr)),
	}
	if min, max, ok := ds.Statistics(); ok {
		ds.Metadata[META_MIN] = strconv.FormatFloat(min, 'g', -1, 64)
		ds.Metadata[META_MAX] = strconv.FormatFloat(max, 'g', -1, 64)
	}
}

type hashContent struct {
	Formula  string      `json:"formula"`
	Location string      `json:"location"`
	Times    []float64   `json:"times"`
	Values   [][]float64 `json:"values"`
}

func content(ds *mesh.Dataset, expr *expression.Expression) *hashContent {
	c := &hashContent{
		Formula:  expr.String(),
		Location: ds.Location.String(),
		Times:    ds.Times(),
	}
	for _, o := range ds.Outputs {
		c.Values = append(c.Values, o.Values)
	}
	return c
}
