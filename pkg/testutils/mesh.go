package testutils

import (
	"github.com/ctessum/geom"

	"github.com/mandelsoft/meshcalc/pkg/mesh"
)

// StripMesh creates a mesh with n nodes at (i,0) connected by n-1 line
// elements (i,i+1).
func StripMesh(n int) *mesh.Mesh {
	nodes := make([]geom.Point, n)
	for i := range nodes {
		nodes[i] = geom.Point{X: float64(i), Y: 0}
	}
	var elems []mesh.Element
	for i := 0; i+1 < n; i++ {
		elems = append(elems, mesh.Element{Nodes: []int{i, i + 1}})
	}
	m, err := mesh.New("strip", nodes, elems)
	if err != nil {
		panic(err)
	}
	return m
}

// GridMesh creates a mesh of nx*ny unit quads.
func GridMesh(nx, ny int) *mesh.Mesh {
	var nodes []geom.Point
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			nodes = append(nodes, geom.Point{X: float64(i), Y: float64(j)})
		}
	}
	var elems []mesh.Element
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			n := j*(nx+1) + i
			elems = append(elems, mesh.Element{Nodes: []int{n, n + 1, n + nx + 2, n + nx + 1}})
		}
	}
	m, err := mesh.New("grid", nodes, elems)
	if err != nil {
		panic(err)
	}
	return m
}

// Dataset creates a dataset with one output per values list. Output i gets
// time times[i], with a nil times list the outputs are numbered 0..n-1.
func Dataset(name string, loc mesh.Location, times []float64, values ...[]float64) *mesh.Dataset {
	ds := &mesh.Dataset{Name: name, Location: loc}
	for i, v := range values {
		t := float64(i)
		if times != nil {
			t = times[i]
		}
		ds.Outputs = append(ds.Outputs, &mesh.Output{Time: t, Values: append([]float64(nil), v...)})
	}
	return ds
}

// AddDataset registers a dataset and panics on failure.
func AddDataset(m *mesh.Mesh, ds *mesh.Dataset) *mesh.Dataset {
	if err := m.AddDataset(ds); err != nil {
		panic(err)
	}
	return ds
}

// Values returns the values of all outputs of ds.
func Values(ds *mesh.Dataset) [][]float64 {
	var r [][]float64
	for _, o := range ds.Outputs {
		r = append(r, o.Values)
	}
	return r
}
