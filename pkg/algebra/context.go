// Package algebra implements elementwise and aggregating operations over
// whole mesh datasets.
//
// A Context binds a mesh and the datasets referenced by one formula and owns
// the canonical time axis of the evaluation. Construction validates the
// datasets, all operations assume a valid context. Operations never modify
// their inputs, they always return newly allocated datasets.
package algebra

import (
	"errors"
	"fmt"
	"slices"

	"github.com/mandelsoft/logging"

	"github.com/mandelsoft/meshcalc/pkg/mesh"
	"github.com/mandelsoft/meshcalc/pkg/value"
)

var REALM = logging.DefineRealm("meshcalc/algebra", "dataset algebra")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)

var ErrInvalidDatasets = errors.New("invalid datasets")

type Reason string

const (
	ReasonMissing        Reason = "missing"
	ReasonEmpty          Reason = "empty"
	ReasonTimeMismatch   Reason = "time mismatch"
	ReasonMixedLocation  Reason = "mixed centering"
	ReasonEmptyTimeRange Reason = "empty time window"
)

// ValidationError describes why a set of datasets cannot be combined.
type ValidationError struct {
	Reason  Reason
	Dataset string
	Detail  string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: %s", ErrInvalidDatasets, e.Reason)
	if e.Dataset != "" {
		msg = fmt.Sprintf("%s (dataset %q)", msg, e.Dataset)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidDatasets
}

type Context struct {
	mesh     *mesh.Mesh
	datasets map[string]*mesh.Dataset
	times    []float64
	location mesh.Location
	start    float64
	end      float64
}

// New validates the named datasets of m and builds the time axis for the
// window [start,end]. A validation failure is reported as
// *ValidationError.
func New(m *mesh.Mesh, names []string, start, end float64) (*Context, error) {
	c := &Context{
		mesh:     m,
		datasets: map[string]*mesh.Dataset{},
		start:    start,
		end:      end,
	}

	var reference *mesh.Dataset
	var first *mesh.Dataset
	for _, n := range names {
		ds, ok := m.Dataset(n)
		if !ok {
			return nil, &ValidationError{Reason: ReasonMissing, Dataset: n}
		}
		if ds.OutputCount() == 0 {
			return nil, &ValidationError{Reason: ReasonEmpty, Dataset: n}
		}
		if first == nil {
			first = ds
		} else if ds.Location != first.Location {
			return nil, &ValidationError{Reason: ReasonMixedLocation, Dataset: n,
				Detail: fmt.Sprintf("%s expected, but found %s", first.Location, ds.Location)}
		}
		if ds.IsTimeVarying() {
			if err := increasingTimes(ds); err != nil {
				return nil, err
			}
			if reference == nil {
				reference = ds
			} else if err := compatibleTimes(reference, ds); err != nil {
				return nil, err
			}
		}
		c.datasets[n] = ds
	}

	if first != nil {
		c.location = first.Location
	}
	if reference == nil {
		c.times = []float64{0}
	} else {
		for _, t := range reference.Times() {
			if !c.InWindow(t) {
				continue
			}
			c.times = append(c.times, t)
		}
		if len(c.times) == 0 {
			return nil, &ValidationError{Reason: ReasonEmptyTimeRange,
				Detail: fmt.Sprintf("no output time of %q in [%g,%g]", reference.Name, start, end)}
		}
	}
	log.Debug("time axis for {{datasets}}: {{times}}", "datasets", names, "times", c.times)
	return c, nil
}

// increasingTimes checks that every output of ds has its own time, so that
// outputs map one to one onto the time axis.
func increasingTimes(ds *mesh.Dataset) error {
	for i := 1; i < ds.OutputCount(); i++ {
		prev, t := ds.Outputs[i-1].Time, ds.Outputs[i].Time
		if t < prev || value.Equal(t, prev) {
			return &ValidationError{Reason: ReasonTimeMismatch, Dataset: ds.Name,
				Detail: fmt.Sprintf("output %d has time %g, but output %d has %g", i, t, i-1, prev)}
		}
	}
	return nil
}

func compatibleTimes(ref, ds *mesh.Dataset) error {
	if ref.OutputCount() != ds.OutputCount() {
		return &ValidationError{Reason: ReasonTimeMismatch, Dataset: ds.Name,
			Detail: fmt.Sprintf("%d outputs found, but %q has %d", ds.OutputCount(), ref.Name, ref.OutputCount())}
	}
	for i, o := range ds.Outputs {
		if !value.Equal(o.Time, ref.Outputs[i].Time) {
			return &ValidationError{Reason: ReasonTimeMismatch, Dataset: ds.Name,
				Detail: fmt.Sprintf("output %d has time %g, but %q has %g", i, o.Time, ref.Name, ref.Outputs[i].Time)}
		}
	}
	return nil
}

func (c *Context) Mesh() *mesh.Mesh {
	return c.mesh
}

// Times returns the time axis.
func (c *Context) Times() []float64 {
	return slices.Clone(c.times)
}

// Location is the common centering of all bound datasets.
func (c *Context) Location() mesh.Location {
	return c.location
}

// Window returns the requested time window.
func (c *Context) Window() (float64, float64) {
	return c.start, c.end
}

// InWindow checks a time against the window. Boundary times are always
// included.
func (c *Context) InWindow(t float64) bool {
	return (t >= c.start || value.Equal(t, c.start)) && (t <= c.end || value.Equal(t, c.end))
}

// Has checks whether a dataset is bound to the context.
func (c *Context) Has(name string) bool {
	_, ok := c.datasets[name]
	return ok
}

// Dataset returns a bound dataset. Requesting an unbound name is a
// programming error.
func (c *Context) Dataset(name string) *mesh.Dataset {
	ds, ok := c.datasets[name]
	if !ok {
		panic(fmt.Sprintf("dataset %q not bound to algebra context", name))
	}
	return ds
}
