package calculator_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	. "github.com/mandelsoft/meshcalc/pkg/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	me "github.com/mandelsoft/meshcalc/pkg/calculator"
	"github.com/mandelsoft/meshcalc/pkg/expression"
	"github.com/mandelsoft/meshcalc/pkg/extent"
	"github.com/mandelsoft/meshcalc/pkg/mesh"
	"github.com/mandelsoft/meshcalc/pkg/value"
)

const X = value.Nodata

type failingStore struct{}

func (failingStore) Store(ctx context.Context, m *mesh.Mesh, ds *mesh.Dataset) (string, error) {
	return "", fmt.Errorf("disk full")
}

var _ = Describe("calculator", func() {
	var ctx context.Context
	var m *mesh.Mesh
	var calc *me.Calculator

	BeforeEach(func() {
		ctx = context.Background()
		m = StripMesh(5)
		AddDataset(m, Dataset("A", mesh.OnVertices, nil, []float64{1, 2, 3, 4, X}))
		AddDataset(m, Dataset("B", mesh.OnVertices, nil, []float64{1, 1, 1, 1, 1}))
		calc = me.New()
	})

	Context("scenarios", func() {
		It("adds static datasets", func() {
			r := Must(calc.Run(ctx, me.Request{Formula: `"A" + "B"`, Mesh: m, Name: "sum"}))
			Expect(r.Code).To(Equal(me.Success))
			Expect(r.Location).To(Equal("strip:sum"))
			Expect(Values(r.Dataset)).To(Equal([][]float64{{2, 3, 4, 5, X}}))
			ds, ok := m.Dataset("sum")
			Expect(ok).To(BeTrue())
			Expect(ds).To(BeIdenticalTo(r.Dataset))
		})

		It("compares with a number", func() {
			m := StripMesh(4)
			AddDataset(m, Dataset("A", mesh.OnVertices, nil, []float64{1, 2, 3, X}))
			r := Must(calc.Run(ctx, me.Request{Formula: `"A" > 2`, Mesh: m}))
			Expect(Values(r.Dataset)).To(Equal([][]float64{{0, 0, 1, X}}))
			Expect(r.Dataset.Name).To(Equal(`"A" > 2`))
		})

		It("rejects unknown datasets", func() {
			r, err := calc.Run(ctx, me.Request{Formula: `"A" + "Z"`, Mesh: m})
			Expect(errors.Is(err, me.ErrInvalidDatasets)).To(BeTrue())
			Expect(r.Code).To(Equal(me.InvalidDatasets))
			Expect(r.Dataset).To(BeNil())
			Expect(m.DatasetNames()).To(Equal([]string{"A", "B"}))
		})

		It("rejects malformed formulas", func() {
			r, err := calc.Run(ctx, me.Request{Formula: `"A" + `, Mesh: m})
			Expect(r.Code).To(Equal(me.ParserError))
			Expect(errors.Is(err, me.ErrParser)).To(BeTrue())
			var perr *expression.ParseError
			Expect(errors.As(err, &perr)).To(BeTrue())
			Expect(perr.Message).To(Equal("operand expected, but found end of formula"))
		})
	})

	Context("metadata", func() {
		It("describes the derived dataset", func() {
			r := Must(calc.Run(ctx, me.Request{Formula: `"A" * 2`, Mesh: m, Name: "double"}))
			md := r.Dataset.Metadata
			Expect(md).To(HaveKeyWithValue(me.META_NAME, "double"))
			Expect(md).To(HaveKeyWithValue(me.META_MIN, "2"))
			Expect(md).To(HaveKeyWithValue(me.META_MAX, "8"))
			Expect(md).To(HaveKeyWithValue(me.META_TIME_VARYING, "false"))
			Expect(md).To(HaveKeyWithValue(me.META_FORMULA, `"A" * 2`))
			Expect(uuid.Parse(md[me.META_ID])).Error().NotTo(HaveOccurred())
			Expect(md[me.META_HASH]).To(HaveLen(64))
		})

		It("hashes the content only", func() {
			r1 := Must(calc.Run(ctx, me.Request{Formula: `"A" * 2`, Mesh: m, Name: "x"}))
			r2 := Must(calc.Run(ctx, me.Request{Formula: `"A"*2`, Mesh: m, Name: "y"}))
			r3 := Must(calc.Run(ctx, me.Request{Formula: `"A"*3`, Mesh: m, Name: "z"}))
			Expect(r1.Dataset.Metadata[me.META_HASH]).To(Equal(r2.Dataset.Metadata[me.META_HASH]))
			Expect(r1.Dataset.Metadata[me.META_HASH]).NotTo(Equal(r3.Dataset.Metadata[me.META_HASH]))
			Expect(r1.Dataset.Metadata[me.META_ID]).NotTo(Equal(r2.Dataset.Metadata[me.META_ID]))
		})

		It("omits the range without valid values", func() {
			r := Must(calc.Run(ctx, me.Request{Formula: `NODATA`, Mesh: m, Name: "none"}))
			Expect(r.Dataset.Metadata).NotTo(HaveKey(me.META_MIN))
		})
	})

	Context("extent", func() {
		It("filters the result", func() {
			r := Must(calc.Run(ctx, me.Request{Formula: `"A" + "B"`, Mesh: m, Extent: extent.NewBox(0, -1, 2, 1)}))
			Expect(Values(r.Dataset)).To(Equal([][]float64{{2, 3, 4, X, X}}))
			Expect(r.Dataset.Outputs[0].Active).To(Equal([]bool{true, true, false, false}))
		})
	})

	Context("failures", func() {
		It("requires a mesh", func() {
			r, err := calc.Run(ctx, me.Request{Formula: `1`})
			Expect(err).To(HaveOccurred())
			Expect(r.Code).To(Equal(me.InputLayerError))
		})

		It("reports store failures", func() {
			r, err := me.New(me.WithStore(failingStore{})).Run(ctx, me.Request{Formula: `"A"`, Mesh: m, Name: "copy"})
			Expect(r.Code).To(Equal(me.CreateOutputError))
			Expect(err).To(MatchError(`cannot create output: "copy": disk full`))
		})

		It("enforces the memory limit", func() {
			r, err := me.New(me.WithMemoryLimit(4)).Run(ctx, me.Request{Formula: `"A"`, Mesh: m})
			Expect(r.Code).To(Equal(me.MemoryError))
			Expect(err).To(MatchError("out of memory: 5 values required, but limit is 4"))
		})

		It("is canceled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			r, err := calc.Run(cctx, me.Request{Formula: `"A" + 1`, Mesh: m})
			Expect(r.Code).To(Equal(me.Canceled))
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(m.DatasetNames()).To(Equal([]string{"A", "B"}))
		})
	})

	Context("codes", func() {
		It("maps errors", func() {
			Expect(me.CodeOf(nil)).To(Equal(me.Success))
			Expect(me.CodeOf(fmt.Errorf("wrapped: %w", me.ErrMemory))).To(Equal(me.MemoryError))
			Expect(me.CodeOf(fmt.Errorf("unknown"))).To(Equal(me.EvaluateError))
			Expect(me.ParserError.String()).To(Equal("ParserError"))
			Expect(int(me.InvalidDatasets)).To(Equal(6))
		})
	})
})
