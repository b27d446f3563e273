package hooking_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/pagesim/sim/hooking"
)

var _ = Describe("PosCounter", func() {
	var (
		hit   = &hooking.HookPos{Name: "Hit"}
		fault = &hooking.HookPos{Name: "Fault"}
	)

	It("should count positions", func() {
		c := hooking.NewPosCounter(nil)

		c.Func(hooking.HookCtx{Pos: fault})
		c.Func(hooking.HookCtx{Pos: hit})
		c.Func(hooking.HookCtx{Pos: fault})
		c.Func(hooking.HookCtx{})

		Expect(c.PosNames()).To(Equal([]string{"Fault", "Hit"}))
		Expect(c.Count(fault)).To(Equal(uint64(2)))
		Expect(c.Count(hit)).To(Equal(uint64(1)))
		Expect(c.CountOf(fault, "a")).To(BeZero())
	})

	It("should count per key", func() {
		c := hooking.NewPosCounter(func(ctx hooking.HookCtx) (string, bool) {
			key, ok := ctx.Item.(string)
			return key, ok
		})

		c.Func(hooking.HookCtx{Pos: fault, Item: "a"})
		c.Func(hooking.HookCtx{Pos: fault, Item: "b"})
		c.Func(hooking.HookCtx{Pos: fault, Item: "a"})
		c.Func(hooking.HookCtx{Pos: fault, Item: 3})

		Expect(c.Count(fault)).To(Equal(uint64(4)))
		Expect(c.CountOf(fault, "a")).To(Equal(uint64(2)))
		Expect(c.CountOf(fault, "b")).To(Equal(uint64(1)))
		Expect(c.CountOf(hit, "a")).To(BeZero())
	})
})
