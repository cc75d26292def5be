// Package netcdf persists derived datasets as NetCDF files.
//
// A file holds exactly one dataset. The dimensions are time, values (nodes
// or elements, depending on the location) and, for node-centered datasets,
// elements. The values variable is a double array [time,values], activity
// is stored as int32 array [time,elements]. Dataset properties are global
// attributes, the metadata is kept as YAML document in the attribute
// "metadata".
package netcdf

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/meshcalc/pkg/mesh"
	"github.com/mandelsoft/meshcalc/pkg/value"
)

const FORMAT_VERSION = "meshcalc/v1"

const (
	DIM_TIME     = "time"
	DIM_VALUES   = "values"
	DIM_ELEMENTS = "elements"

	VAR_TIME     = "time"
	VAR_VALUES   = "values"
	VAR_VECTOR_X = "vector_x"
	VAR_VECTOR_Y = "vector_y"
	VAR_ACTIVE   = "active"
)

// Write stores ds computed for mesh m in a NetCDF file.
func Write(fs vfs.FileSystem, path string, m *mesh.Mesh, ds *mesh.Dataset) error {
	if ds.OutputCount() == 0 {
		return fmt.Errorf("dataset %q has no outputs", ds.Name)
	}
	if err := ds.Validate(m); err != nil {
		return fmt.Errorf("dataset %q: %w", ds.Name, err)
	}

	size := m.Size(ds.Location)
	vectors := ds.Outputs[0].Vectors != nil

	dims := []string{DIM_TIME, DIM_VALUES}
	lengths := []int{ds.OutputCount(), size}
	if ds.Location == mesh.OnVertices {
		dims = append(dims, DIM_ELEMENTS)
		lengths = append(lengths, m.ElementCount())
	}
	h := cdf.NewHeader(dims, lengths)
	h.AddAttribute("", "format", FORMAT_VERSION)
	h.AddAttribute("", "name", ds.Name)
	h.AddAttribute("", "mesh", m.Name())
	h.AddAttribute("", "location", ds.Location.String())
	h.AddAttribute("", "nature", ds.Nature.String())
	h.AddAttribute("", "nodes", []int32{int32(m.NodeCount())})
	h.AddAttribute("", "elements", []int32{int32(m.ElementCount())})
	if len(ds.Metadata) > 0 {
		data, err := yaml.Marshal(ds.Metadata)
		if err != nil {
			return err
		}
		h.AddAttribute("", "metadata", string(data))
	}

	h.AddVariable(VAR_TIME, []string{DIM_TIME}, []float64{0})
	h.AddAttribute(VAR_TIME, "units", "hours")
	h.AddVariable(VAR_VALUES, []string{DIM_TIME, DIM_VALUES}, []float64{0})
	h.AddAttribute(VAR_VALUES, "nodata", []float64{value.Nodata})
	if vectors {
		h.AddVariable(VAR_VECTOR_X, []string{DIM_TIME, DIM_VALUES}, []float64{0})
		h.AddVariable(VAR_VECTOR_Y, []string{DIM_TIME, DIM_VALUES}, []float64{0})
	}
	if ds.Location == mesh.OnVertices {
		h.AddVariable(VAR_ACTIVE, []string{DIM_TIME, DIM_ELEMENTS}, []int32{0})
	}
	h.Define()

	file, err := fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	f, err := cdf.Create(file, h)
	if err != nil {
		return err
	}

	times := ds.Times()
	values := make([]float64, 0, len(times)*size)
	var vx, vy []float64
	var active []int32
	for _, o := range ds.Outputs {
		values = append(values, o.Values...)
		if vectors {
			if len(o.Vectors) != size {
				return fmt.Errorf("dataset %q: output at %g has no vectors", ds.Name, o.Time)
			}
			for _, v := range o.Vectors {
				vx = append(vx, v[0])
				vy = append(vy, v[1])
			}
		}
		if ds.Location == mesh.OnVertices {
			for i := 0; i < m.ElementCount(); i++ {
				active = append(active, boolInt(o.IsActive(i)))
			}
		}
	}

	if err := write(f, VAR_TIME, times); err != nil {
		return err
	}
	if err := write(f, VAR_VALUES, values); err != nil {
		return err
	}
	if vectors {
		if err := write(f, VAR_VECTOR_X, vx); err != nil {
			return err
		}
		if err := write(f, VAR_VECTOR_Y, vy); err != nil {
			return err
		}
	}
	if ds.Location == mesh.OnVertices {
		if err := write(f, VAR_ACTIVE, active); err != nil {
			return err
		}
	}
	return nil
}

func write(f *cdf.File, name string, data interface{}) error {
	end := f.Header.Lengths(name)
	start := make([]int, len(end))
	w := f.Writer(name, start, end)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing variable %s: %w", name, err)
	}
	return nil
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// Read loads a dataset written by Write. If a mesh is given, the dataset
// is validated against it.
func Read(fs vfs.FileSystem, path string, m *mesh.Mesh) (*mesh.Dataset, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	f, err := cdf.Open(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if v, _ := f.Header.GetAttribute("", "format").(string); v != FORMAT_VERSION {
		return nil, fmt.Errorf("%s: unsupported format %q", path, v)
	}

	ds := &mesh.Dataset{}
	ds.Name, _ = f.Header.GetAttribute("", "name").(string)
	loc, _ := f.Header.GetAttribute("", "location").(string)
	if ds.Location, err = mesh.ParseLocation(loc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	nature, _ := f.Header.GetAttribute("", "nature").(string)
	if ds.Nature, err = mesh.ParseNature(nature); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if md, ok := f.Header.GetAttribute("", "metadata").(string); ok {
		if err := yaml.Unmarshal([]byte(md), &ds.Metadata); err != nil {
			return nil, fmt.Errorf("%s: invalid metadata: %w", path, err)
		}
	}

	lengths := f.Header.Lengths(VAR_VALUES)
	if len(lengths) != 2 {
		return nil, fmt.Errorf("%s: invalid shape of %s", path, VAR_VALUES)
	}
	ntimes, size := lengths[0], lengths[1]

	times := make([]float64, ntimes)
	if err := read(f, VAR_TIME, times); err != nil {
		return nil, err
	}
	values := make([]float64, ntimes*size)
	if err := read(f, VAR_VALUES, values); err != nil {
		return nil, err
	}
	var vx, vy []float64
	if f.Header.Lengths(VAR_VECTOR_X) != nil {
		vx = make([]float64, ntimes*size)
		vy = make([]float64, ntimes*size)
		if err := read(f, VAR_VECTOR_X, vx); err != nil {
			return nil, err
		}
		if err := read(f, VAR_VECTOR_Y, vy); err != nil {
			return nil, err
		}
	}
	var active []int32
	nelems := 0
	if ds.Location == mesh.OnVertices {
		nelems = f.Header.Lengths(VAR_ACTIVE)[1]
		active = make([]int32, ntimes*nelems)
		if err := read(f, VAR_ACTIVE, active); err != nil {
			return nil, err
		}
	}

	for t := 0; t < ntimes; t++ {
		o := &mesh.Output{
			Time:   times[t],
			Values: values[t*size : (t+1)*size : (t+1)*size],
		}
		if vx != nil {
			o.Vectors = make([][2]float64, size)
			for i := range o.Vectors {
				o.Vectors[i] = [2]float64{vx[t*size+i], vy[t*size+i]}
			}
		}
		if active != nil {
			o.Active = make([]bool, nelems)
			for i := range o.Active {
				o.Active[i] = active[t*nelems+i] != 0
			}
		}
		ds.Outputs = append(ds.Outputs, o)
	}

	if m != nil {
		if err := ds.Validate(m); err != nil {
			return nil, fmt.Errorf("%s: dataset %q does not match mesh %q: %w", path, ds.Name, m.Name(), err)
		}
	}
	return ds, nil
}

func read(f *cdf.File, name string, data interface{}) error {
	r := f.Reader(name, nil, nil)
	if _, err := r.Read(data); err != nil {
		return fmt.Errorf("reading variable %s: %w", name, err)
	}
	return nil
}
