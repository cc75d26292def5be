package algebra

import (
	"fmt"

	"github.com/mandelsoft/meshcalc/pkg/mesh"
	"github.com/mandelsoft/meshcalc/pkg/value"
)

func (c *Context) newDataset(name string) *mesh.Dataset {
	return &mesh.Dataset{
		Name:     name,
		Location: c.location,
		Nature:   mesh.Scalar,
	}
}

// Ones returns a dataset with the value 1 everywhere.
func (c *Context) Ones() *mesh.Dataset {
	return c.Number(value.True)
}

// Nodata returns a dataset without any valid value.
func (c *Context) Nodata() *mesh.Dataset {
	return c.Number(value.Nodata)
}

// Number returns a dataset with one output per axis time holding v
// everywhere. Elements are active unless v is nodata.
func (c *Context) Number(v float64) *mesh.Dataset {
	ds := c.newDataset(fmt.Sprintf("%g", v))
	active := !value.IsNodata(v)
	for _, t := range c.times {
		o := mesh.NewOutput(c.mesh, c.location, t, v)
		for i := range o.Active {
			o.Active[i] = active
		}
		ds.Outputs = append(ds.Outputs, o)
	}
	return ds
}

// Copy returns a copy of a bound dataset. Time varying datasets are
// restricted to the outputs inside the time window.
func (c *Context) Copy(name string) *mesh.Dataset {
	src := c.Dataset(name)
	ds := c.newDataset(name)
	ds.Nature = src.Nature
	if !src.IsTimeVarying() {
		ds.Outputs = []*mesh.Output{src.Outputs[0].Clone()}
		return ds
	}
	for _, o := range src.Outputs {
		if c.InWindow(o.Time) {
			ds.Outputs = append(ds.Outputs, o.Clone())
		}
	}
	return ds
}

// Expand replicates the single output of target once per output of
// reference if reference is time varying. Otherwise target is returned
// unchanged.
func (c *Context) Expand(target, reference *mesh.Dataset) *mesh.Dataset {
	if !reference.IsTimeVarying() || target.OutputCount() != 1 {
		return target
	}
	ds := &mesh.Dataset{
		Name:     target.Name,
		Location: target.Location,
		Nature:   target.Nature,
	}
	for _, r := range reference.Outputs {
		o := target.Outputs[0].Clone()
		o.Time = r.Time
		ds.Outputs = append(ds.Outputs, o)
	}
	return ds
}

// Unary applies f to every valid entry of every output of ds.
func (c *Context) Unary(ds *mesh.Dataset, f value.UnaryFunc) *mesh.Dataset {
	r := c.newDataset(ds.Name)
	r.Location = ds.Location
	for _, src := range ds.Outputs {
		o := mesh.NewOutput(c.mesh, ds.Location, src.Time, value.Nodata)
		for i, v := range src.Values {
			o.Values[i] = value.ApplyUnary(f, v)
		}
		c.Activate(o, src)
		r.Outputs = append(r.Outputs, o)
	}
	return r
}

// Binary combines a and b entry by entry. A static operand is expanded to
// the time axis of a time varying one. Combining datasets with different
// centering is a programming error.
func (c *Context) Binary(a, b *mesh.Dataset, f value.BinaryFunc) *mesh.Dataset {
	if a.Location != b.Location {
		panic(fmt.Sprintf("binary operation on %s and %s datasets", a.Location, b.Location))
	}
	a, b = c.Expand(a, b), c.Expand(b, a)
	if a.OutputCount() != b.OutputCount() {
		panic(fmt.Sprintf("binary operation on %d and %d outputs", a.OutputCount(), b.OutputCount()))
	}

	r := c.newDataset(a.Name)
	r.Location = a.Location
	for t, oa := range a.Outputs {
		ob := b.Outputs[t]
		o := mesh.NewOutput(c.mesh, a.Location, oa.Time, value.Nodata)
		for i, v := range oa.Values {
			o.Values[i] = value.ApplyBinary(f, v, ob.Values[i])
		}
		c.Activate(o, oa)
		c.Activate(o, ob)
		r.Outputs = append(r.Outputs, o)
	}
	return r
}

// Aggregate reduces all outputs of ds into a single output at the first
// axis time. For every entry nodata values are skipped, an entry without
// any valid value becomes nodata.
func (c *Context) Aggregate(ds *mesh.Dataset, f value.Reduction) *mesh.Dataset {
	r := c.newDataset(ds.Name)
	r.Location = ds.Location
	o := mesh.NewOutput(c.mesh, ds.Location, c.times[0], value.Nodata)
	series := make([]float64, ds.OutputCount())
	for i := range o.Values {
		for t, src := range ds.Outputs {
			series[t] = src.Values[i]
		}
		o.Values[i] = value.Reduce(f, series)
	}
	c.Activate(o, nil)
	r.Outputs = []*mesh.Output{o}
	return r
}

// Select implements a three-way conditional. For every entry the result is
// the value of a where cond is true, the value of b where cond is false
// and nodata where cond is nodata.
func (c *Context) Select(cond, a, b *mesh.Dataset) *mesh.Dataset {
	if cond.Location != a.Location || cond.Location != b.Location {
		panic(fmt.Sprintf("conditional on %s, %s and %s datasets", cond.Location, a.Location, b.Location))
	}
	ref := cond
	for _, d := range []*mesh.Dataset{a, b} {
		if d.IsTimeVarying() {
			ref = d
		}
	}
	cond, a, b = c.Expand(cond, ref), c.Expand(a, ref), c.Expand(b, ref)
	if cond.OutputCount() != a.OutputCount() || cond.OutputCount() != b.OutputCount() {
		panic(fmt.Sprintf("conditional on %d, %d and %d outputs", cond.OutputCount(), a.OutputCount(), b.OutputCount()))
	}

	r := c.newDataset(a.Name)
	r.Location = cond.Location
	for t, oc := range cond.Outputs {
		oa, ob := a.Outputs[t], b.Outputs[t]
		o := mesh.NewOutput(c.mesh, cond.Location, oc.Time, value.Nodata)
		for i, v := range oc.Values {
			switch {
			case value.IsNodata(v):
				o.Values[i] = value.Nodata
			case value.IsTrue(v):
				o.Values[i] = oa.Values[i]
			default:
				o.Values[i] = ob.Values[i]
			}
		}
		c.Activate(o, oc)
		c.activateSelected(o, oc, oa, ob)
		r.Outputs = append(r.Outputs, o)
	}
	return r
}

// activateSelected deactivates elements taking a node value from a branch
// output in which the element is inactive.
func (c *Context) activateSelected(o, cond, a, b *mesh.Output) {
	for i := range o.Active {
		for _, n := range c.mesh.Element(i).Nodes {
			v := cond.Values[n]
			if value.IsNodata(v) {
				continue
			}
			src := b
			if value.IsTrue(v) {
				src = a
			}
			if !src.IsActive(i) {
				o.Active[i] = false
				break
			}
		}
	}
}

// Filter replaces all entries of ds by nodata where mask is not true. The
// nature and the vector components of ds are kept.
func (c *Context) Filter(ds, mask *mesh.Dataset) *mesh.Dataset {
	r := c.Binary(ds, mask, func(v, m float64) float64 {
		if value.IsTrue(m) {
			return v
		}
		return value.Nodata
	})
	r.Name = ds.Name
	r.Nature = ds.Nature

	src := c.Expand(ds, mask)
	for t, o := range r.Outputs {
		vectors := src.Outputs[t].Vectors
		if vectors == nil {
			continue
		}
		o.Vectors = make([][2]float64, len(vectors))
		for i, v := range vectors {
			if value.IsNodata(o.Values[i]) {
				v = [2]float64{value.Nodata, value.Nodata}
			}
			o.Vectors[i] = v
		}
	}
	return r
}

// Activate updates the element activity of a node-centered output. An
// element becomes inactive if it is inactive in reference or if any of its
// nodes holds nodata. Element-centered outputs derive their activity from
// their values and are left untouched.
func (c *Context) Activate(o *mesh.Output, reference *mesh.Output) {
	if o.Active == nil {
		return
	}
	for i := range o.Active {
		if reference != nil && !reference.IsActive(i) {
			o.Active[i] = false
			continue
		}
		for _, n := range c.mesh.Element(i).Nodes {
			if value.IsNodata(o.Values[n]) {
				o.Active[i] = false
				break
			}
		}
	}
}
