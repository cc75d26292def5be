package mesh

import (
	"fmt"
	"math"
	"slices"

	"github.com/mandelsoft/meshcalc/pkg/value"
)

// Location describes whether the values of a dataset are stored per
// node or per element.
type Location int

const (
	OnVertices Location = iota
	OnFaces
)

func (l Location) String() string {
	if l == OnFaces {
		return "faces"
	}
	return "vertices"
}

func ParseLocation(s string) (Location, error) {
	switch s {
	case "", "vertices", "nodes":
		return OnVertices, nil
	case "faces", "elements":
		return OnFaces, nil
	}
	return OnVertices, fmt.Errorf("invalid dataset location %q", s)
}

type Nature int

const (
	Scalar Nature = iota
	Vector
	Bed
)

func (n Nature) String() string {
	switch n {
	case Vector:
		return "vector"
	case Bed:
		return "bed"
	default:
		return "scalar"
	}
}

func ParseNature(s string) (Nature, error) {
	switch s {
	case "", "scalar":
		return Scalar, nil
	case "vector":
		return Vector, nil
	case "bed":
		return Bed, nil
	}
	return Scalar, fmt.Errorf("invalid dataset nature %q", s)
}

// Output is a single time sample of a dataset.
type Output struct {
	// Time in hours.
	Time   float64
	Values []float64
	// Vectors holds the (x,y) components of vector datasets. Values then
	// holds the magnitude.
	Vectors [][2]float64
	// Active holds the element activity of node-centered outputs.
	Active []bool
}

// NewOutput creates an output for the given location filled with v.
// Node-centered outputs get an all-active activity array.
func NewOutput(m *Mesh, loc Location, time float64, v float64) *Output {
	o := &Output{
		Time:   time,
		Values: make([]float64, m.Size(loc)),
	}
	for i := range o.Values {
		o.Values[i] = v
	}
	if loc == OnVertices {
		o.Active = make([]bool, m.ElementCount())
		for i := range o.Active {
			o.Active[i] = true
		}
	}
	return o
}

func (o *Output) Clone() *Output {
	return &Output{
		Time:    o.Time,
		Values:  slices.Clone(o.Values),
		Vectors: slices.Clone(o.Vectors),
		Active:  slices.Clone(o.Active),
	}
}

// IsActive reports the activity of element i. For element-centered outputs
// (no activity array) it is derived from the value itself.
func (o *Output) IsActive(i int) bool {
	if o.Active == nil {
		return !value.IsNodata(o.Values[i])
	}
	return o.Active[i]
}

// Dataset is a named, time ordered sequence of outputs over one mesh.
type Dataset struct {
	Name     string
	Location Location
	Nature   Nature
	Outputs  []*Output
	Metadata map[string]string
}

func (d *Dataset) OutputCount() int {
	return len(d.Outputs)
}

func (d *Dataset) Output(i int) *Output {
	return d.Outputs[i]
}

func (d *Dataset) IsTimeVarying() bool {
	return len(d.Outputs) > 1
}

func (d *Dataset) Times() []float64 {
	r := make([]float64, len(d.Outputs))
	for i, o := range d.Outputs {
		r[i] = o.Time
	}
	return r
}

// Statistics returns the value range over all outputs ignoring nodata.
// ok is false if there is no valid value at all.
func (d *Dataset) Statistics() (min, max float64, ok bool) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, o := range d.Outputs {
		for _, v := range o.Values {
			if value.IsNodata(v) {
				continue
			}
			ok = true
			min = math.Min(min, v)
			max = math.Max(max, v)
		}
	}
	if !ok {
		return value.Nodata, value.Nodata, false
	}
	return min, max, true
}

// Validate checks the output sizes against the mesh.
func (d *Dataset) Validate(m *Mesh) error {
	size := m.Size(d.Location)
	for i, o := range d.Outputs {
		if len(o.Values) != size {
			return fmt.Errorf("output %d: %d values found, but %s requires %d", i, len(o.Values), d.Location, size)
		}
		if o.Vectors != nil && len(o.Vectors) != size {
			return fmt.Errorf("output %d: %d vectors found, but %s requires %d", i, len(o.Vectors), d.Location, size)
		}
		if o.Active != nil {
			if d.Location == OnFaces {
				return fmt.Errorf("output %d: element-centered outputs have no activity", i)
			}
			if len(o.Active) != m.ElementCount() {
				return fmt.Errorf("output %d: %d activity flags found, but mesh has %d elements", i, len(o.Active), m.ElementCount())
			}
		}
		if i > 0 && (o.Time < d.Outputs[i-1].Time || value.Equal(o.Time, d.Outputs[i-1].Time)) {
			return fmt.Errorf("output %d: times must be strictly increasing", i)
		}
	}
	return nil
}
