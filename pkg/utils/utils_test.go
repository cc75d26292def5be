package utils_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/meshcalc/pkg/utils"
)

type content struct {
	Formula string    `json:"formula"`
	Values  []float64 `json:"values"`
}

var _ = Describe("utils", func() {
	It("defaults optional arguments", func() {
		Expect(utils.OptionalDefaulted("d")).To(Equal("d"))
		Expect(utils.OptionalDefaulted("d", "", "x")).To(Equal("x"))
	})

	Context("hashing", func() {
		It("is independent of map ordering", func() {
			a := map[string]interface{}{"a": 1, "b": []int{1, 2}}
			b := map[string]interface{}{"b": []int{1, 2}, "a": 1}
			Expect(utils.HashData(a)).To(Equal(utils.HashData(b)))
		})
		It("distinguishes content", func() {
			h := utils.HashData(&content{Formula: "a+1", Values: []float64{1, 2}})
			Expect(h).To(HaveLen(64))
			Expect(h).NotTo(Equal(utils.HashData(&content{Formula: "a+1", Values: []float64{1, 3}})))
		})
		It("hashes raw data", func() {
			Expect(utils.HashData("x")).To(Equal(utils.HashData([]byte("x"))))
			Expect(utils.HashData(nil)).To(Equal(""))
			var c *content
			Expect(utils.HashData(c)).To(Equal(""))
		})
	})

	It("converts and joins slices", func() {
		Expect(utils.ConvertSlice[any]([]string{"a", "b"})).To(Equal([]any{"a", "b"}))
		Expect(utils.JoinFunc([]float64{0, 1.5}, ",", func(f float64) string { return fmt.Sprintf("%g", f) })).To(Equal("0,1.5"))
		Expect(*utils.Pointer(3)).To(Equal(3))
	})
})
