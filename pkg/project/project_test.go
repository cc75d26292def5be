package project_test

import (
	"context"

	"github.com/go-test/deep"
	. "github.com/mandelsoft/meshcalc/pkg/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"

	"github.com/mandelsoft/meshcalc/pkg/calculator"
	"github.com/mandelsoft/meshcalc/pkg/mesh"
	me "github.com/mandelsoft/meshcalc/pkg/project"
	"github.com/mandelsoft/meshcalc/pkg/storage/netcdf"
	"github.com/mandelsoft/meshcalc/pkg/value"
)

const X = value.Nodata

var _ = Describe("project", func() {
	var fs vfs.FileSystem

	BeforeEach(func() {
		fs = Must(TestFileSystem("testdata", false))
	})

	AfterEach(func() {
		vfs.Cleanup(fs)
	})

	It("loads a project", func() {
		m := Must(me.Load("testdata/channel.yaml", fs))
		Expect(m.Name()).To(Equal("channel"))
		Expect(m.NodeCount()).To(Equal(6))
		Expect(m.ElementCount()).To(Equal(2))
		Expect(m.Element(1).Nodes).To(Equal([]int{1, 2, 5, 4}))
		Expect(m.DatasetNames()).To(Equal([]string{"bed", "depth", "velocity"}))

		bed, _ := m.Dataset("bed")
		Expect(bed.Nature).To(Equal(mesh.Bed))

		depth, _ := m.Dataset("depth")
		Expect(depth.Times()).To(Equal([]float64{0, 1}))
		Expect(depth.Outputs[0].Values).To(Equal([]float64{0.5, 0.5, X, 0.5, 0.5, 0.5}))
		Expect(depth.Outputs[0].Active).To(Equal([]bool{true, true}))

		velocity, _ := m.Dataset("velocity")
		Expect(velocity.Location).To(Equal(mesh.OnFaces))
		Expect(velocity.Outputs[0].Vectors).To(Equal([][2]float64{{3, 4}, {X, X}}))
	})

	It("saves a project", func() {
		m := Must(me.Load("testdata/channel.yaml", fs))
		depth, _ := m.Dataset("depth")
		depth.Outputs[1].Active = []bool{false, true}

		MustBeSuccessful(me.Save(m, "out/channel.yaml", fs))
		data := Must(vfs.ReadFile(fs, "out/channel.yaml"))
		Expect(string(data)).To(ContainSubstring("- null"))

		r := Must(me.Load("out/channel.yaml", fs))
		Expect(r.DatasetNames()).To(Equal(m.DatasetNames()))
		for _, n := range m.DatasetNames() {
			a, _ := m.Dataset(n)
			b, _ := r.Dataset(n)
			Expect(deep.Equal(b, a)).To(BeNil(), n)
		}
	})

	It("stores derived datasets", func() {
		m := Must(me.Load("testdata/channel.yaml", fs))
		calc := calculator.New(calculator.WithStore(me.NewStore("testdata/channel.yaml", fs)))
		res := Must(calc.Run(context.Background(), calculator.Request{Formula: `"bed" + "depth"`, Mesh: m, Name: "level"}))
		Expect(res.Location).To(Equal("testdata/channel.yaml#level"))

		r := Must(me.Load("testdata/channel.yaml", fs))
		level, ok := r.Dataset("level")
		Expect(ok).To(BeTrue())
		Expect(Values(level)).To(Equal([][]float64{
			{1.5, 2, X, 1.5, 2, 2.5},
			{2, 2.5, 3, 2, 2.5, 3},
		}))
		Expect(level.Outputs[0].Active).To(Equal([]bool{true, false}))
		Expect(level.Metadata).To(HaveKeyWithValue(calculator.META_FORMULA, `"bed" + "depth"`))
	})

	Context("errors", func() {
		It("rejects unknown fields", func() {
			MustBeSuccessful(vfs.WriteFile(fs, "bad.yaml", []byte("name: x\nnode: []\n"), 0o600))
			_, err := me.Load("bad.yaml", fs)
			Expect(err).To(MatchError(ContainSubstring(`unknown field "node"`)))
		})
		It("rejects invalid meshes", func() {
			MustBeSuccessful(vfs.WriteFile(fs, "bad.yaml", []byte("nodes: [[0,0]]\nelements: [[0,1]]\n"), 0o600))
			_, err := me.Load("bad.yaml", fs)
			MustFailWithMessage(err, "bad.yaml: element 0: node index 1 out of range [0,1)")
		})
		It("rejects invalid datasets", func() {
			MustBeSuccessful(vfs.WriteFile(fs, "bad.yaml", []byte(`
nodes: [[0,0],[1,0]]
elements: [[0,1]]
datasets:
- name: d
  location: somewhere
`), 0o600))
			_, err := me.Load("bad.yaml", fs)
			MustFailWithMessage(err, `bad.yaml: dataset "d": invalid dataset location "somewhere"`)
		})
	})

	Context("dataset files", func() {
		var tfs vfs.FileSystem

		BeforeEach(func() {
			tfs = Must(osfs.NewTempFileSystem())
		})

		AfterEach(func() {
			vfs.Cleanup(tfs)
		})

		It("reads NetCDF datasets", func() {
			m := StripMesh(3)
			ds := AddDataset(m, Dataset("level", mesh.OnVertices, []float64{0, 1}, []float64{1, 2, X}, []float64{3, 4, 5}))
			MustBeSuccessful(tfs.MkdirAll("project/data", 0o755))
			MustBeSuccessful(netcdf.Write(tfs, "project/data/level.nc", m, ds))
			MustBeSuccessful(vfs.WriteFile(tfs, "project/strip.yaml", []byte(`
name: strip
nodes: [[0,0],[1,0],[2,0]]
elements: [[0,1],[1,2]]
datasets:
- name: wsl
  file: data/level.nc
`), 0o600))

			r := Must(me.Load("project/strip.yaml", tfs))
			wsl, ok := r.Dataset("wsl")
			Expect(ok).To(BeTrue())
			Expect(Values(wsl)).To(Equal(Values(ds)))
		})
	})
})
