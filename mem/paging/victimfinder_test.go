package paging

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("VictimFinder", func() {
	var resident *Tier

	BeforeEach(func() {
		resident = NewTier(3, 1)
		resident.Add(Block{PID: 1, Index: 0})
		resident.Add(Block{PID: 1, Index: 1})
		resident.Add(Block{PID: 2, Index: 0})
	})

	Context("FIFO", func() {
		It("should pick the oldest block regardless of visits", func() {
			vf := NewFIFOVictimFinder()
			vf.Visit(Block{PID: 1, Index: 0})

			victim, ok := vf.FindVictim(resident)

			Expect(ok).To(BeTrue())
			Expect(victim).To(Equal(Block{PID: 1, Index: 0}))
		})

		It("should find nothing in an empty tier", func() {
			_, ok := NewFIFOVictimFinder().FindVictim(NewTier(1, 1))
			Expect(ok).To(BeFalse())
		})
	})

	Context("LRU", func() {
		It("should pick the least recently visited block", func() {
			vf := NewLRUVictimFinder()
			vf.Visit(Block{PID: 1, Index: 0})
			vf.Visit(Block{PID: 1, Index: 1})
			vf.Visit(Block{PID: 2, Index: 0})
			vf.Visit(Block{PID: 1, Index: 0})

			victim, ok := vf.FindVictim(resident)

			Expect(ok).To(BeTrue())
			Expect(victim).To(Equal(Block{PID: 1, Index: 1}))
		})

		It("should treat unvisited blocks as the oldest", func() {
			vf := NewLRUVictimFinder()
			vf.Visit(Block{PID: 1, Index: 0})

			victim, _ := vf.FindVictim(resident)

			Expect(victim).To(Equal(Block{PID: 1, Index: 1}))
		})

		It("should forget blocks", func() {
			vf := NewLRUVictimFinder()
			vf.Visit(Block{PID: 1, Index: 0})
			vf.Forget(Block{PID: 1, Index: 0})

			Expect(vf.lastVisit).To(BeEmpty())
		})
	})

	Context("Random", func() {
		It("should pick resident blocks only", func() {
			vf := NewRandomVictimFinder(rand.New(rand.NewSource(3)))

			for i := 0; i < 20; i++ {
				victim, ok := vf.FindVictim(resident)
				Expect(ok).To(BeTrue())
				Expect(resident.Keys()).To(ContainElement(victim))
			}
		})

		It("should be reproducible with the same seed", func() {
			a := NewRandomVictimFinder(rand.New(rand.NewSource(5)))
			b := NewRandomVictimFinder(rand.New(rand.NewSource(5)))

			for i := 0; i < 10; i++ {
				va, _ := a.FindVictim(resident)
				vb, _ := b.FindVictim(resident)
				Expect(va).To(Equal(vb))
			}
		})
	})

	Context("ParseVictimFinder", func() {
		It("should parse known names", func() {
			vf, err := ParseVictimFinder("fifo", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(vf).To(BeAssignableToTypeOf(&FIFOVictimFinder{}))

			vf, err = ParseVictimFinder("", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(vf).To(BeAssignableToTypeOf(&FIFOVictimFinder{}))

			vf, err = ParseVictimFinder("random", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(vf).To(BeAssignableToTypeOf(&RandomVictimFinder{}))

			vf, err = ParseVictimFinder("lru", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(vf).To(BeAssignableToTypeOf(&LRUVictimFinder{}))
		})

		It("should reject unknown names", func() {
			_, err := ParseVictimFinder("clock", nil)
			Expect(err).To(HaveOccurred())
		})
	})
})
