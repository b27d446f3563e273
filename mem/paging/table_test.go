package paging

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Table", func() {
	var table *Table[string, int]

	BeforeEach(func() {
		table = NewTable[string, int](3)
	})

	It("should panic if capacity is not positive", func() {
		Expect(func() { NewTable[string, int](0) }).To(Panic())
	})

	It("should add and get", func() {
		Expect(table.Add("a", 1)).To(Succeed())

		v, ok := table.Get("a")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(1))
		Expect(table.Size()).To(Equal(1))
	})

	It("should report absent keys", func() {
		v, ok := table.Get("x")
		Expect(ok).To(BeFalse())
		Expect(v).To(BeZero())
	})

	It("should refuse to add when full", func() {
		Expect(table.Add("a", 1)).To(Succeed())
		Expect(table.Add("b", 2)).To(Succeed())
		Expect(table.Add("c", 3)).To(Succeed())

		err := table.Add("d", 4)

		Expect(errors.Is(err, ErrCapacityExceeded)).To(BeTrue())
		Expect(table.Has("d")).To(BeFalse())
		Expect(table.Size()).To(Equal(3))
		Expect(table.IsFull()).To(BeTrue())
	})

	It("should refuse to overwrite when full", func() {
		table.Add("a", 1)
		table.Add("b", 2)
		table.Add("c", 3)

		Expect(table.TryAdd("a", 10)).To(BeFalse())

		v, _ := table.Get("a")
		Expect(v).To(Equal(1))
	})

	It("should keep the position of an overwritten key", func() {
		table.Add("a", 1)
		table.Add("b", 2)
		table.Add("a", 3)

		Expect(table.Keys()).To(Equal([]string{"a", "b"}))

		v, _ := table.Get("a")
		Expect(v).To(Equal(3))
	})

	It("should enumerate keys in insertion order", func() {
		table.Add("c", 1)
		table.Add("a", 2)
		table.Add("b", 3)

		Expect(table.Keys()).To(Equal([]string{"c", "a", "b"}))

		key, value, ok := table.Front()
		Expect(ok).To(BeTrue())
		Expect(key).To(Equal("c"))
		Expect(value).To(Equal(1))
	})

	It("should return a snapshot of the keys", func() {
		table.Add("a", 1)
		keys := table.Keys()

		table.Add("b", 2)
		table.Remove("a")

		Expect(keys).To(Equal([]string{"a"}))
	})

	It("should remove", func() {
		table.Add("a", 1)

		Expect(table.Remove("a")).To(BeTrue())
		Expect(table.Remove("a")).To(BeFalse())
		Expect(table.Size()).To(Equal(0))

		_, _, ok := table.Front()
		Expect(ok).To(BeFalse())
	})

	It("should append a removed key again at the end", func() {
		table.Add("a", 1)
		table.Add("b", 2)
		table.Remove("a")
		table.Add("a", 3)

		Expect(table.Keys()).To(Equal([]string{"b", "a"}))
	})

	It("should tell the remaining capacity", func() {
		table.Add("a", 1)

		Expect(table.Capacity()).To(Equal(3))
		Expect(table.HasCapacity(2)).To(BeTrue())
		Expect(table.HasCapacity(3)).To(BeFalse())
	})
})
