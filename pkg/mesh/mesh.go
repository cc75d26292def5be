// Package mesh provides the in-memory mesh and dataset model the calculator
// operates on. A mesh is an immutable set of nodes and elements plus a
// registry of named datasets.
package mesh

import (
	"fmt"
	"slices"
	"sync"

	"github.com/ctessum/geom"
)

type ElementType int

const (
	Line ElementType = iota
	Triangle
	Quad
	Polygon
)

func (t ElementType) String() string {
	switch t {
	case Line:
		return "line"
	case Triangle:
		return "triangle"
	case Quad:
		return "quad"
	default:
		return "ngon"
	}
}

// Element is an ordered list of node indices.
type Element struct {
	Nodes []int
}

func (e Element) Type() ElementType {
	switch len(e.Nodes) {
	case 2:
		return Line
	case 3:
		return Triangle
	case 4:
		return Quad
	default:
		return Polygon
	}
}

type Mesh struct {
	lock     sync.RWMutex
	name     string
	nodes    []geom.Point
	elements []Element
	datasets map[string]*Dataset
	order    []string
}

// New creates a mesh. All element node indices must refer to existing nodes
// and every element needs at least two nodes.
func New(name string, nodes []geom.Point, elements []Element) (*Mesh, error) {
	for i, e := range elements {
		if len(e.Nodes) < 2 {
			return nil, fmt.Errorf("element %d: at least two nodes required, found %d", i, len(e.Nodes))
		}
		for _, n := range e.Nodes {
			if n < 0 || n >= len(nodes) {
				return nil, fmt.Errorf("element %d: node index %d out of range [0,%d)", i, n, len(nodes))
			}
		}
	}
	return &Mesh{
		name:     name,
		nodes:    slices.Clone(nodes),
		elements: slices.Clone(elements),
		datasets: map[string]*Dataset{},
	}, nil
}

func (m *Mesh) Name() string {
	return m.name
}

func (m *Mesh) NodeCount() int {
	return len(m.nodes)
}

func (m *Mesh) ElementCount() int {
	return len(m.elements)
}

func (m *Mesh) Node(i int) geom.Point {
	return m.nodes[i]
}

func (m *Mesh) Element(i int) Element {
	return m.elements[i]
}

// Size returns the number of values an output with the given location has.
func (m *Mesh) Size(loc Location) int {
	if loc == OnFaces {
		return len(m.elements)
	}
	return len(m.nodes)
}

func (m *Mesh) Bounds() *geom.Bounds {
	b := geom.NewBounds()
	for _, p := range m.nodes {
		b.Extend(p.Bounds())
	}
	return b
}

// ElementBounds returns the bounding box of element i.
func (m *Mesh) ElementBounds(i int) *geom.Bounds {
	b := geom.NewBounds()
	for _, n := range m.elements[i].Nodes {
		b.Extend(m.nodes[n].Bounds())
	}
	return b
}

// Centroid returns the vertex average of element i.
func (m *Mesh) Centroid(i int) geom.Point {
	var c geom.Point
	e := m.elements[i]
	for _, n := range e.Nodes {
		c.X += m.nodes[n].X
		c.Y += m.nodes[n].Y
	}
	c.X /= float64(len(e.Nodes))
	c.Y /= float64(len(e.Nodes))
	return c
}

////////////////////////////////////////////////////////////////////////////////

// Dataset looks up a dataset by its exact (case-sensitive) name.
func (m *Mesh) Dataset(name string) (*Dataset, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	ds, ok := m.datasets[name]
	return ds, ok
}

// DatasetNames returns the dataset names in registration order.
func (m *Mesh) DatasetNames() []string {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return slices.Clone(m.order)
}

// AddDataset registers a dataset. Existing datasets with the same name
// are replaced.
func (m *Mesh) AddDataset(ds *Dataset) error {
	if ds.Name == "" {
		return fmt.Errorf("dataset name required")
	}
	if err := ds.Validate(m); err != nil {
		return fmt.Errorf("dataset %q: %w", ds.Name, err)
	}
	if ds.Location == OnVertices {
		for _, o := range ds.Outputs {
			if o.Active == nil {
				o.Active = make([]bool, m.ElementCount())
				for i := range o.Active {
					o.Active[i] = true
				}
			}
		}
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	if _, ok := m.datasets[ds.Name]; !ok {
		m.order = append(m.order, ds.Name)
	}
	m.datasets[ds.Name] = ds
	return nil
}
