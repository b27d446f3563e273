package paging

import (
	"errors"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Tier", func() {
	var tier *Tier

	BeforeEach(func() {
		tier = NewTier(40, 8)
	})

	It("should round the capacity down", func() {
		Expect(tier.Capacity()).To(Equal(5))
		Expect(tier.BlockSize()).To(Equal(uint64(8)))
	})

	It("should panic if no block fits", func() {
		Expect(func() { NewTier(7, 8) }).To(Panic())
		Expect(func() { NewTier(8, 0) }).To(Panic())
	})

	It("should panic if the tier has too many blocks", func() {
		Expect(BlocksIn(math.MaxUint64, 1)).To(Equal(uint64(math.MaxUint64)))
		Expect(func() { NewTier(math.MaxUint64, 1) }).To(Panic())
		Expect(func() { NewTier(MaxBlocks, 1) }).NotTo(Panic())
	})

	It("should add and get blocks", func() {
		Expect(tier.Add(Block{PID: 1, Index: 0})).To(Succeed())

		b, ok := tier.Get(1, 0)
		Expect(ok).To(BeTrue())
		Expect(b).To(Equal(Block{PID: 1, Index: 0}))

		_, ok = tier.Get(1, 1)
		Expect(ok).To(BeFalse())
	})

	It("should refuse to add when full", func() {
		for i := 0; i < 5; i++ {
			Expect(tier.Add(Block{PID: 1, Index: i})).To(Succeed())
		}

		err := tier.Add(Block{PID: 2, Index: 0})

		Expect(errors.Is(err, ErrCapacityExceeded)).To(BeTrue())
		Expect(tier.Size()).To(Equal(5))
		Expect(tier.Owners()).To(Equal([]PID{1}))
	})

	It("should add a batch", func() {
		err := tier.AddBatch([]Block{{PID: 1, Index: 0}, {PID: 1, Index: 1}})

		Expect(err).NotTo(HaveOccurred())
		Expect(tier.Size()).To(Equal(2))
		Expect(tier.BlocksOf(1)).To(HaveLen(2))
	})

	It("should add nothing if the batch does not fit", func() {
		tier.Add(Block{PID: 9, Index: 0})
		tier.Add(Block{PID: 9, Index: 1})

		batch := []Block{
			{PID: 1, Index: 0}, {PID: 1, Index: 1},
			{PID: 1, Index: 2}, {PID: 1, Index: 3},
		}
		err := tier.AddBatch(batch)

		Expect(errors.Is(err, ErrCapacityExceeded)).To(BeTrue())
		Expect(tier.Size()).To(Equal(2))
		Expect(tier.BlocksOf(1)).To(BeEmpty())
		Expect(tier.Owners()).To(Equal([]PID{9}))
	})

	It("should remove a block and forget the owner with its last block", func() {
		tier.AddBatch([]Block{{PID: 1, Index: 0}, {PID: 1, Index: 1}})

		Expect(tier.Remove(1, 0)).To(BeTrue())
		Expect(tier.Owners()).To(Equal([]PID{1}))

		Expect(tier.Remove(1, 1)).To(BeTrue())
		Expect(tier.Owners()).To(BeEmpty())
		Expect(tier.Size()).To(Equal(0))
	})

	It("should ignore removing an absent block", func() {
		Expect(tier.Remove(3, 3)).To(BeFalse())
	})

	It("should remove all the blocks of an owner", func() {
		tier.AddBatch([]Block{
			{PID: 1, Index: 0}, {PID: 2, Index: 0}, {PID: 1, Index: 1},
		})

		removed := tier.RemoveByOwner(1)

		Expect(removed).To(Equal([]Block{{PID: 1, Index: 0}, {PID: 1, Index: 1}}))
		Expect(tier.Keys()).To(Equal([]Block{{PID: 2, Index: 0}}))
		Expect(tier.Owners()).To(Equal([]PID{2}))
		Expect(tier.RemoveByOwner(1)).To(BeEmpty())
	})

	It("should keep keys in insertion order across owners", func() {
		tier.Add(Block{PID: 2, Index: 0})
		tier.Add(Block{PID: 1, Index: 0})
		tier.Add(Block{PID: 2, Index: 1})

		Expect(tier.Keys()).To(Equal([]Block{
			{PID: 2, Index: 0}, {PID: 1, Index: 0}, {PID: 2, Index: 1},
		}))

		oldest, ok := tier.Oldest()
		Expect(ok).To(BeTrue())
		Expect(oldest).To(Equal(Block{PID: 2, Index: 0}))
	})

	It("should report load", func() {
		Expect(tier.Load()).To(Equal(0.0))

		tier.AddBatch([]Block{{PID: 1, Index: 0}, {PID: 1, Index: 1}})

		Expect(tier.Load()).To(BeNumerically("~", 0.4))
		Expect(tier.HasCapacity(3)).To(BeTrue())
		Expect(tier.HasCapacity(4)).To(BeFalse())
	})

	It("should pick random blocks among the present ones", func() {
		rng := rand.New(rand.NewSource(7))

		_, ok := tier.RandomBlock(rng)
		Expect(ok).To(BeFalse())

		tier.AddBatch([]Block{{PID: 1, Index: 0}, {PID: 2, Index: 0}})

		seen := map[Block]bool{}
		for i := 0; i < 100; i++ {
			b, ok := tier.RandomBlock(rng)
			Expect(ok).To(BeTrue())
			seen[b] = true
		}

		Expect(seen).To(HaveLen(2))
	})

	It("should never exceed its capacity", func() {
		rng := rand.New(rand.NewSource(1))

		for i := 0; i < 1000; i++ {
			pid := PID(rng.Intn(4))
			index := rng.Intn(4)

			switch rng.Intn(3) {
			case 0:
				_ = tier.Add(Block{PID: pid, Index: index})
			case 1:
				tier.Remove(pid, index)
			case 2:
				tier.RemoveByOwner(pid)
			}

			Expect(tier.Size()).To(BeNumerically("<=", tier.Capacity()))

			total := 0
			for _, owner := range tier.Owners() {
				blocks := tier.BlocksOf(owner)
				Expect(blocks).NotTo(BeEmpty())
				total += len(blocks)
			}
			Expect(total).To(Equal(tier.Size()))
		}
	})
})
