// Package extent describes spatial output extents and converts them into
// boolean mask datasets for a mesh.
package extent

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"

	"github.com/mandelsoft/meshcalc/pkg/mesh"
	"github.com/mandelsoft/meshcalc/pkg/value"
)

// Extent is a region of the mesh plane.
type Extent interface {
	fmt.Stringer
	Bounds() *geom.Bounds
	Contains(p geom.Point) bool
}

type Box struct {
	bounds geom.Bounds
}

var _ Extent = (*Box)(nil)

func NewBox(minx, miny, maxx, maxy float64) *Box {
	if minx > maxx {
		minx, maxx = maxx, minx
	}
	if miny > maxy {
		miny, maxy = maxy, miny
	}
	return &Box{bounds: geom.Bounds{Min: geom.Point{X: minx, Y: miny}, Max: geom.Point{X: maxx, Y: maxy}}}
}

func (b *Box) Bounds() *geom.Bounds {
	r := b.bounds
	return &r
}

// Contains checks a point against the box. Points on the border are inside.
func (b *Box) Contains(p geom.Point) bool {
	return between(p.X, b.bounds.Min.X, b.bounds.Max.X) && between(p.Y, b.bounds.Min.Y, b.bounds.Max.Y)
}

func (b *Box) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.bounds.Min.X, b.bounds.Min.Y, b.bounds.Max.X, b.bounds.Max.Y)
}

func between(v, min, max float64) bool {
	return (v >= min || value.Equal(v, min)) && (v <= max || value.Equal(v, max))
}

// Polygon is a polygon with optional holes.
type Polygon struct {
	polygon geom.Polygon
	bounds  *geom.Bounds
}

var _ Extent = (*Polygon)(nil)

func NewPolygon(rings ...[]geom.Point) *Polygon {
	var p geom.Polygon
	for _, r := range rings {
		p = append(p, r)
	}
	return &Polygon{polygon: p, bounds: p.Bounds()}
}

func (p *Polygon) Bounds() *geom.Bounds {
	r := *p.bounds
	return &r
}

// Contains checks a point against the polygon. Points on an edge are inside.
func (p *Polygon) Contains(pt geom.Point) bool {
	return pt.Within(p.polygon) != geom.Outside
}

func (p *Polygon) String() string {
	var rings []string
	for _, r := range p.polygon {
		var pts []string
		for _, pt := range r {
			pts = append(pts, fmt.Sprintf("%g %g", pt.X, pt.Y))
		}
		rings = append(rings, "("+strings.Join(pts, ", ")+")")
	}
	return "POLYGON (" + strings.Join(rings, ", ") + ")"
}

// Parse parses an extent given either as bounding box "minx,miny,maxx,maxy"
// or as WKT polygon.
func Parse(s string) (Extent, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty extent")
	}
	if strings.HasPrefix(strings.ToUpper(s), "POLYGON") {
		return ParseWKT(s)
	}
	fields := strings.Split(s, ",")
	if len(fields) != 4 {
		return nil, fmt.Errorf("invalid extent %q: bounding box requires 4 coordinates, found %d", s, len(fields))
	}
	var c [4]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid extent %q: coordinate %d: %w", s, i+1, err)
		}
		c[i] = v
	}
	return NewBox(c[0], c[1], c[2], c[3]), nil
}

////////////////////////////////////////////////////////////////////////////////

// location is the epsilon square around a node or element centroid. It
// embeds a polygon to satisfy the geometry interface of the spatial index.
type location struct {
	geom.Polygon
	index int
}

var _ geom.Geom = (*location)(nil)

func newLocation(index int, p geom.Point) *location {
	e := value.Epsilon
	ring := []geom.Point{
		{X: p.X - e, Y: p.Y - e},
		{X: p.X + e, Y: p.Y - e},
		{X: p.X + e, Y: p.Y + e},
		{X: p.X - e, Y: p.Y + e},
		{X: p.X - e, Y: p.Y - e},
	}
	return &location{Polygon: geom.Polygon{ring}, index: index}
}

func padded(b *geom.Bounds) *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: b.Min.X - value.Epsilon, Y: b.Min.Y - value.Epsilon},
		Max: geom.Point{X: b.Max.X + value.Epsilon, Y: b.Max.Y + value.Epsilon},
	}
}

// Mask creates a static boolean dataset for the given location of m. Nodes
// are inside if their position is contained in e, elements if their
// centroid is.
func Mask(m *mesh.Mesh, e Extent, loc mesh.Location) *mesh.Dataset {
	position := m.Node
	if loc == mesh.OnFaces {
		position = m.Centroid
	}

	tree := rtree.NewTree(25, 50)
	for i := 0; i < m.Size(loc); i++ {
		tree.Insert(newLocation(i, position(i)))
	}

	o := mesh.NewOutput(m, loc, 0, value.False)
	for _, s := range tree.SearchIntersect(padded(e.Bounds())) {
		l := s.(*location)
		if e.Contains(position(l.index)) {
			o.Values[l.index] = value.True
		}
	}
	return &mesh.Dataset{
		Name:     "extent",
		Location: loc,
		Nature:   mesh.Scalar,
		Outputs:  []*mesh.Output{o},
	}
}
