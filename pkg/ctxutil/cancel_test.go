package ctxutil_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	me "github.com/mandelsoft/meshcalc/pkg/ctxutil"
)

var _ = Describe("cancel contexts", func() {
	It("cancels", func() {
		ctx := me.CancelContext(context.Background())
		Expect(ctx.Err()).To(BeNil())
		me.Cancel(ctx)
		Expect(ctx.Err()).To(Equal(context.Canceled))
	})
	It("times out", func() {
		ctx := me.TimeoutContext(context.Background(), time.Millisecond)
		defer me.Cancel(ctx)
		Eventually(ctx.Done()).Should(BeClosed())
		Expect(ctx.Err()).To(Equal(context.DeadlineExceeded))
	})
	It("ignores missing timeouts", func() {
		ctx := me.TimeoutContext(context.Background(), 0)
		_, ok := ctx.Deadline()
		Expect(ok).To(BeFalse())
		me.Cancel(ctx)
		Expect(ctx.Err()).To(Equal(context.Canceled))
	})
	It("ignores foreign contexts", func() {
		Expect(func() { me.Cancel(context.Background()) }).NotTo(Panic())
	})
})
