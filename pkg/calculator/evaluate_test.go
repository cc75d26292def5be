package calculator_test

import (
	"context"
	"errors"

	. "github.com/mandelsoft/meshcalc/pkg/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/meshcalc/pkg/algebra"
	me "github.com/mandelsoft/meshcalc/pkg/calculator"
	"github.com/mandelsoft/meshcalc/pkg/expression"
	"github.com/mandelsoft/meshcalc/pkg/mesh"
)

var _ = Describe("evaluation", func() {
	var ctx context.Context
	var m *mesh.Mesh
	var calc *me.Calculator

	eval := func(formula string) (*mesh.Dataset, error) {
		return calc.Evaluate(ctx, Must(expression.Parse(formula)), m, 0, 100)
	}

	BeforeEach(func() {
		ctx = context.Background()
		m = StripMesh(4)
		AddDataset(m, Dataset("static", mesh.OnVertices, nil, []float64{1, 2, X, 4}))
		AddDataset(m, Dataset("depth", mesh.OnVertices, []float64{0, 1, 2},
			[]float64{1, 1, 1, 1},
			[]float64{2, X, 2, 2},
			[]float64{3, 3, 3, 3},
		))
		AddDataset(m, Dataset("faces", mesh.OnFaces, nil, []float64{1, 2, 3}))
		calc = me.New()
	})

	It("expands static datasets", func() {
		ds := Must(eval(`"depth" * "static"`))
		Expect(ds.Times()).To(Equal([]float64{0, 1, 2}))
		Expect(Values(ds)).To(Equal([][]float64{
			{1, 2, X, 4},
			{2, X, X, 8},
			{3, 6, X, 12},
		}))
		Expect(ds.Metadata).To(HaveKeyWithValue(me.META_TIME_VARYING, "true"))
	})

	It("follows the time axis with constants", func() {
		ds := Must(eval(`"depth" + 1`))
		Expect(ds.OutputCount()).To(Equal(3))
		Expect(ds.Outputs[1].Values).To(Equal([]float64{3, X, 3, 3}))
	})

	It("restricts to the time window", func() {
		ds := Must(calc.Evaluate(ctx, Must(expression.Parse(`"depth"`)), m, 1, 2))
		Expect(ds.Times()).To(Equal([]float64{1, 2}))
	})

	It("aggregates over time", func() {
		Expect(Values(Must(eval(`SUM_AGGR("depth")`)))).To(Equal([][]float64{{6, 4, 6, 6}}))
		Expect(Values(Must(eval(`AVERAGE_AGGR(depth)`)))).To(Equal([][]float64{{2, 2, 2, 2}}))
		ds := Must(eval(`MAX_AGGR("depth") - MIN_AGGR("depth")`))
		Expect(Values(ds)).To(Equal([][]float64{{2, 2, 2, 2}}))
		Expect(ds.IsTimeVarying()).To(BeFalse())
	})

	It("selects with conditionals", func() {
		ds := Must(eval(`IF("static" > 2, "depth", -1)`))
		Expect(Values(ds)).To(Equal([][]float64{
			{-1, -1, X, 1},
			{-1, -1, X, 2},
			{-1, -1, X, 3},
		}))
	})

	It("uses boolean logic", func() {
		ds := Must(eval(`NOT ("static" > 1) AND "static" < 4`))
		Expect(Values(ds)).To(Equal([][]float64{{1, 0, X, 0}}))
		ds = Must(eval(`"static" = 2 OR "static" >= 4`))
		Expect(Values(ds)).To(Equal([][]float64{{0, 1, X, 1}}))
	})

	It("handles functions and nodata", func() {
		Expect(Values(Must(eval(`MAX("static", 2)`)))).To(Equal([][]float64{{2, 2, X, 4}}))
		Expect(Values(Must(eval(`MIN("static", NODATA)`)))).To(Equal([][]float64{{X, X, X, X}}))
		Expect(Values(Must(eval(`ABS(-"static") ^ 2 / 0`)))).To(Equal([][]float64{{X, X, X, X}}))
	})

	It("evaluates element-centered datasets", func() {
		ds := Must(eval(`"faces" * 2`))
		Expect(ds.Location).To(Equal(mesh.OnFaces))
		Expect(Values(ds)).To(Equal([][]float64{{2, 4, 6}}))
		Expect(ds.Outputs[0].Active).To(BeNil())
	})

	It("rejects mixed centering", func() {
		_, err := eval(`"faces" + "static"`)
		Expect(me.CodeOf(err)).To(Equal(me.InvalidDatasets))
	})

	It("rejects non-boolean conditions", func() {
		_, err := eval(`IF("static", 1, 0)`)
		Expect(errors.Is(err, me.ErrEvaluate)).To(BeTrue())
		Expect(me.CodeOf(err)).To(Equal(me.EvaluateError))
		Expect(err).To(MatchError(`could not evaluate expression: condition "static" is not boolean: value 2 at index 1`))
	})

	It("accepts nodata conditions", func() {
		ds := Must(eval(`IF(NODATA, 1, 0)`))
		Expect(Values(ds)).To(Equal([][]float64{{X, X, X, X}}))
	})

	It("keeps the activity of the selected branch", func() {
		flagged := AddDataset(m, Dataset("flagged", mesh.OnVertices, nil, []float64{1, 2, 3, 4}))
		flagged.Outputs[0].Active = []bool{false, true, true}

		ds := Must(eval(`IF(1 = 1, "flagged", 0)`))
		Expect(ds.Outputs[0].Active).To(Equal([]bool{false, true, true}))
		Expect(ds.Outputs[0].Active).To(Equal(Must(eval(`"flagged" + 0`)).Outputs[0].Active))

		ds = Must(eval(`IF(1 = 0, "flagged", 0)`))
		Expect(ds.Outputs[0].Active).To(Equal([]bool{true, true, true}))
	})

	It("rejects repeated output times", func() {
		ds, _ := m.Dataset("depth")
		ds.Outputs[2].Time = 1
		_, err := eval(`"depth" + 1`)
		Expect(errors.Is(err, me.ErrInvalidDatasets)).To(BeTrue())
		Expect(me.CodeOf(err)).To(Equal(me.InvalidDatasets))
	})

	Context("trees", func() {
		var ac *algebra.Context

		BeforeEach(func() {
			ac = Must(algebra.New(m, []string{"static"}, 0, 100))
		})

		It("rejects unbound datasets", func() {
			_, err := me.Evaluate(ctx, expression.NewDatasetRef("depth"), ac)
			Expect(err).To(MatchError(`could not evaluate expression: dataset "depth" not bound`))
		})

		It("rejects missing operands", func() {
			_, err := me.Evaluate(ctx, expression.NewBinary(expression.OpAdd, expression.NewNumber(1), nil), ac)
			Expect(me.CodeOf(err)).To(Equal(me.EvaluateError))
		})

		It("rejects invalid operators", func() {
			_, err := me.Evaluate(ctx, expression.NewUnary(expression.OpAdd, expression.NewNumber(1)), ac)
			Expect(err).To(MatchError("could not evaluate expression: invalid unary operator +"))
		})

		It("checks for cancellation", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := me.Evaluate(cctx, expression.NewNumber(1), ac)
			Expect(errors.Is(err, me.ErrCanceled)).To(BeTrue())
		})
	})

	Context("check", func() {
		It("reports the result kind", func() {
			info := Must(calc.Check(`SUM_AGGR("depth") + "static"`, m))
			Expect(info.TimeVarying).To(BeFalse())
			Expect(info.Location).To(Equal(mesh.OnVertices))
			Expect(info.Times).To(Equal([]float64{0}))
			Expect(info.Datasets).To(Equal([]string{"depth", "static"}))

			info = Must(calc.Check(`"depth" + 1`, m))
			Expect(info.TimeVarying).To(BeTrue())
			Expect(info.Times).To(Equal([]float64{0, 1, 2}))

			info = Must(calc.Check(`"faces"`, m))
			Expect(info.Location).To(Equal(mesh.OnFaces))
		})

		It("reports boolean results and depth", func() {
			info := Must(calc.Check(`"static" > 1 AND "depth" < 3`, m))
			Expect(info.Boolean).To(BeTrue())
			Expect(info.Depth).To(Equal(3))

			info = Must(calc.Check(`IF("static" > 1, "depth" = 1, 0)`, m))
			Expect(info.Boolean).To(BeFalse())
			Expect(info.Depth).To(Equal(3))

			info = Must(calc.Check(`"depth"`, m))
			Expect(info.Boolean).To(BeFalse())
			Expect(info.Depth).To(Equal(1))
		})

		It("reports errors", func() {
			_, err := calc.Check(`"depth" +`, m)
			Expect(me.CodeOf(err)).To(Equal(me.ParserError))
			_, err = calc.Check(`"nope"`, m)
			Expect(me.CodeOf(err)).To(Equal(me.InvalidDatasets))
		})
	})
})
