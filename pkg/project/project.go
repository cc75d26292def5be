// Package project reads and writes mesh project files. A project file is
// a YAML document describing the nodes and elements of a mesh together
// with its datasets. Dataset values can be given inline, where null marks
// nodata, or refer to a NetCDF file relative to the project file.
package project

import (
	"fmt"
	"path/filepath"

	"github.com/ctessum/geom"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/meshcalc/pkg/mesh"
	"github.com/mandelsoft/meshcalc/pkg/storage/netcdf"
	"github.com/mandelsoft/meshcalc/pkg/utils"
	"github.com/mandelsoft/meshcalc/pkg/value"
)

type Project struct {
	Name     string       `json:"name"`
	Nodes    [][2]float64 `json:"nodes"`
	Elements [][]int      `json:"elements"`
	Datasets []*Dataset   `json:"datasets,omitempty"`
}

type Dataset struct {
	Name     string            `json:"name"`
	Location string            `json:"location,omitempty"`
	Nature   string            `json:"nature,omitempty"`
	File     string            `json:"file,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Outputs  []*Output         `json:"outputs,omitempty"`
}

type Output struct {
	Time    float64       `json:"time"`
	Values  []*float64    `json:"values"`
	Vectors [][2]*float64 `json:"vectors,omitempty"`
	Active  []bool        `json:"active,omitempty"`
}

// Load reads a project file and creates the described mesh.
func Load(path string, fss ...vfs.FileSystem) (*mesh.Mesh, error) {
	fs := utils.OptionalDefaulted(vfs.FileSystem(osfs.OsFs), fss...)
	data, err := vfs.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	var p Project
	if err := yaml.UnmarshalStrict(data, &p); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m, err := p.Mesh(fs, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Mesh creates the described mesh. Dataset files are resolved relative to
// dir.
func (p *Project) Mesh(fs vfs.FileSystem, dir string) (*mesh.Mesh, error) {
	nodes := make([]geom.Point, len(p.Nodes))
	for i, n := range p.Nodes {
		nodes[i] = geom.Point{X: n[0], Y: n[1]}
	}
	elems := make([]mesh.Element, len(p.Elements))
	for i, e := range p.Elements {
		elems[i] = mesh.Element{Nodes: e}
	}
	name := p.Name
	if name == "" {
		name = "mesh"
	}
	m, err := mesh.New(name, nodes, elems)
	if err != nil {
		return nil, err
	}
	for _, d := range p.Datasets {
		ds, err := d.dataset(fs, dir, m)
		if err != nil {
			return nil, fmt.Errorf("dataset %q: %w", d.Name, err)
		}
		if err := m.AddDataset(ds); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (d *Dataset) dataset(fs vfs.FileSystem, dir string, m *mesh.Mesh) (*mesh.Dataset, error) {
	if d.File != "" {
		if len(d.Outputs) > 0 {
			return nil, fmt.Errorf("file and outputs are mutually exclusive")
		}
		path := d.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		ds, err := netcdf.Read(fs, path, m)
		if err != nil {
			return nil, err
		}
		ds.Name = d.Name
		return ds, nil
	}

	loc, err := mesh.ParseLocation(d.Location)
	if err != nil {
		return nil, err
	}
	nature, err := mesh.ParseNature(d.Nature)
	if err != nil {
		return nil, err
	}
	ds := &mesh.Dataset{
		Name:     d.Name,
		Location: loc,
		Nature:   nature,
		Metadata: d.Metadata,
	}
	for _, o := range d.Outputs {
		out := &mesh.Output{
			Time:   o.Time,
			Values: make([]float64, len(o.Values)),
			Active: o.Active,
		}
		for i, v := range o.Values {
			out.Values[i] = fromYAML(v)
		}
		if o.Vectors != nil {
			out.Vectors = make([][2]float64, len(o.Vectors))
			for i, v := range o.Vectors {
				out.Vectors[i] = [2]float64{fromYAML(v[0]), fromYAML(v[1])}
			}
		}
		ds.Outputs = append(ds.Outputs, out)
	}
	return ds, nil
}

func fromYAML(v *float64) float64 {
	if v == nil {
		return value.Nodata
	}
	return *v
}

func toYAML(v float64) *float64 {
	if value.IsNodata(v) {
		return nil
	}
	return &v
}

// New creates the project description of a mesh with all its datasets
// given inline.
func New(m *mesh.Mesh) *Project {
	p := &Project{
		Name:     m.Name(),
		Nodes:    make([][2]float64, m.NodeCount()),
		Elements: make([][]int, m.ElementCount()),
	}
	for i := range p.Nodes {
		n := m.Node(i)
		p.Nodes[i] = [2]float64{n.X, n.Y}
	}
	for i := range p.Elements {
		p.Elements[i] = m.Element(i).Nodes
	}
	for _, n := range m.DatasetNames() {
		ds, _ := m.Dataset(n)
		d := &Dataset{
			Name:     ds.Name,
			Location: ds.Location.String(),
			Nature:   ds.Nature.String(),
			Metadata: ds.Metadata,
		}
		for _, o := range ds.Outputs {
			out := &Output{
				Time:   o.Time,
				Values: make([]*float64, len(o.Values)),
			}
			for i, v := range o.Values {
				out.Values[i] = toYAML(v)
			}
			if o.Vectors != nil {
				out.Vectors = make([][2]*float64, len(o.Vectors))
				for i, v := range o.Vectors {
					out.Vectors[i] = [2]*float64{toYAML(v[0]), toYAML(v[1])}
				}
			}
			if !allActive(o.Active) {
				out.Active = o.Active
			}
			d.Outputs = append(d.Outputs, out)
		}
		p.Datasets = append(p.Datasets, d)
	}
	return p
}

func allActive(a []bool) bool {
	for _, b := range a {
		if !b {
			return false
		}
	}
	return true
}

// Save writes the project file for a mesh.
func Save(m *mesh.Mesh, path string, fss ...vfs.FileSystem) error {
	fs := utils.OptionalDefaulted(vfs.FileSystem(osfs.OsFs), fss...)

	data, err := yaml.Marshal(New(m))
	if err != nil {
		return err
	}
	err = fs.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return err
	}
	return vfs.WriteFile(fs, path, data, 0o644)
}
