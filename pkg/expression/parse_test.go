package expression_test

import (
	. "github.com/mandelsoft/meshcalc/pkg/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/go-test/deep"

	"github.com/mandelsoft/meshcalc/pkg/expression"
)

var _ = Describe("Expression Parsing", func() {
	Context("leafs", func() {
		It("value", func() {
			Expect(Must(expression.Parse("12")).Root()).To(Equal(expression.NewNumber(12)))
		})
		It("decimal value", func() {
			Expect(Must(expression.Parse(".5")).Root()).To(Equal(expression.NewNumber(0.5)))
			Expect(Must(expression.Parse("1.5e-3")).Root()).To(Equal(expression.NewNumber(0.0015)))
		})
		It("negative value", func() {
			Expect(Must(expression.Parse("--12")).Root()).To(Equal(
				expression.NewUnary(expression.OpNeg, expression.NewUnary(expression.OpNeg, expression.NewNumber(12)))))
		})
		It("name", func() {
			Expect(Must(expression.Parse("varA")).Root()).To(Equal(expression.NewDatasetRef("varA")))
		})
		It("quoted name", func() {
			Expect(Must(expression.Parse(`"water depth/max"`)).Root()).To(Equal(expression.NewDatasetRef("water depth/max")))
		})
		It("keeps case of names", func() {
			Expect(Must(expression.Parse(`Depth + depth`)).DatasetNames()).To(Equal([]string{"Depth", "depth"}))
		})
		It("nodata", func() {
			Expect(Must(expression.Parse("nodata")).Root()).To(Equal(&expression.NoData{}))
		})
	})

	Context("expressions", func() {
		It("add", func() {
			Expect(Must(expression.Parse("A+1")).String()).To(Equal(`("A"+1)`))
		})
		It("sub", func() {
			Expect(Must(expression.Parse("A-1")).String()).To(Equal(`("A"-1)`))
		})
		It("mul", func() {
			Expect(Must(expression.Parse("A*1")).String()).To(Equal(`("A"*1)`))
		})
		It("div", func() {
			Expect(Must(expression.Parse("A/1")).String()).To(Equal(`("A"/1)`))
		})
		It("chained", func() {
			Expect(Must(expression.Parse("A+B+C")).String()).To(Equal(`(("A"+"B")+"C")`))
		})
		It("order", func() {
			Expect(Must(expression.Parse("A+B*C+D")).String()).To(Equal(`(("A"+("B"*"C"))+"D")`))
		})
		It("complex", func() {
			Expect(Must(expression.Parse("A+B*(C+D)+1")).String()).To(Equal(`(("A"+("B"*("C"+"D")))+1)`))
		})
		It("blanks", func() {
			Expect(Must(expression.Parse(" A + B * ( C + D ) + 1 ")).String()).To(Equal(`(("A"+("B"*("C"+"D")))+1)`))
		})
		It("power is right associative", func() {
			Expect(Must(expression.Parse("2^3^2")).String()).To(Equal(`(2^(3^2))`))
		})
		It("unary binds tighter than power", func() {
			Expect(Must(expression.Parse("-A^2")).String()).To(Equal(`((-"A")^2)`))
		})
		It("comparison below arithmetic", func() {
			Expect(Must(expression.Parse(`"A" > 2 * B`)).String()).To(Equal(`("A">(2*"B"))`))
		})
		It("logical precedence", func() {
			Expect(Must(expression.Parse(`A > 1 or B < 2 and not C = 3`)).String()).To(
				Equal(`(("A">1) OR (("B"<2) AND ((NOT "C")=3)))`))
		})
		It("alternative comparison symbols", func() {
			Expect(Must(expression.Parse(`A <> B`)).String()).To(Equal(`("A"!="B")`))
			Expect(Must(expression.Parse(`A == B`)).String()).To(Equal(`("A"="B")`))
			Expect(Must(expression.Parse(`A >= B`)).String()).To(Equal(`("A">="B")`))
			Expect(Must(expression.Parse(`A <= B`)).String()).To(Equal(`("A"<="B")`))
		})
		It("conditional", func() {
			Expect(Must(expression.Parse(`if(A > 0, A, 0) * 2`)).String()).To(Equal(`(IF(("A">0), "A", 0)*2)`))
		})
		It("aggregates", func() {
			Expect(Must(expression.Parse(`max_aggr("depth") - MIN_AGGR(depth)`)).String()).To(
				Equal(`(MAX_AGGR("depth")-MIN_AGGR("depth"))`))
			Expect(Must(expression.Parse(`average_aggr(A)`)).Root()).To(
				Equal(expression.NewUnary(expression.OpAvgAggr, expression.NewDatasetRef("A"))))
		})
		It("functions", func() {
			Expect(Must(expression.Parse(`min(A, 2) + abs(B - 1)`)).String()).To(Equal(`(MIN("A", 2)+ABS(("B"-1)))`))
		})
	})

	Context("operands", func() {
		It("collects names in post-order without duplicates", func() {
			e := Must(expression.Parse(`IF(C > 0, A + B, A * D)`))
			Expect(e.DatasetNames()).To(Equal([]string{"C", "A", "B", "D"}))
		})
		It("finds no names for constants", func() {
			Expect(Must(expression.Parse(`1 + 2`)).DatasetNames()).To(BeEmpty())
		})
	})

	Context("round trip", func() {
		for _, f := range []string{
			`A+B*(C+D)+1`,
			`-A^-2`,
			`IF(NOT (A >= 1 AND B != 2), sum_aggr(A), nodata)`,
			`max(min(A, 1e-5), abs -B) / 3.25`,
			`"a b" <= 4 OR "c.d" = .5`,
		} {
			formula := f
			It(formula, func() {
				e := Must(expression.Parse(formula))
				r := Must(expression.Parse(e.String()))
				Expect(deep.Equal(r.Root(), e.Root())).To(BeNil())
				Expect(r.String()).To(Equal(e.String()))
			})
		}
	})

	Context("errors", func() {
		It("incomplete", func() {
			_, err := expression.Parse("A + ")
			MustFailWithMessage(err, `syntax error at position 4 of "A + ": operand expected, but found end of formula`)
		})
		It("empty", func() {
			_, err := expression.Parse("  ")
			MustFailWithMessage(err, `syntax error at position 2 of "  ": empty formula`)
		})
		It("unbalanced", func() {
			_, err := expression.Parse("(A + B")
			MustFailWithMessage(err, `syntax error at position 6 of "(A + B": ")" expected, but found end of formula`)
		})
		It("trailing", func() {
			_, err := expression.Parse("A + B)")
			MustFailWithMessage(err, `syntax error at position 5 of "A + B)": unexpected ")"`)
		})
		It("unknown token", func() {
			_, err := expression.Parse("A # B")
			Expect(err).To(BeAssignableToTypeOf(&expression.ParseError{}))
			Expect(err.(*expression.ParseError).Fragment()).To(Equal("# B"))
		})
		It("unterminated name", func() {
			_, err := expression.Parse(`"A + 1`)
			MustFailWithMessage(err, `syntax error at position 0 of "\"A + 1": unterminated dataset name`)
		})
		It("wrong argument count", func() {
			_, err := expression.Parse(`IF(A, B)`)
			MustFailWithMessage(err, `syntax error at position 7 of "IF(A, B)": "," expected, but found ")"`)
		})
		It("keyword as operand", func() {
			_, err := expression.Parse(`A + AND`)
			Expect(err).To(HaveOccurred())
		})
	})
})
