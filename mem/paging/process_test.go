package paging

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Process", func() {
	It("should accept sizes within the default bounds", func() {
		p, err := NewProcess(3, DefaultMaxProcessSize)

		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(Process{ID: 3, Size: DefaultMaxProcessSize}))
	})

	It("should reject a size of zero", func() {
		_, err := NewProcess(1, 0)

		Expect(errors.Is(err, ErrInvalidProcessSize)).To(BeTrue())
	})

	It("should reject sizes above the maximum", func() {
		_, err := NewProcess(1, DefaultMaxProcessSize+1)

		Expect(errors.Is(err, ErrInvalidProcessSize)).To(BeTrue())
	})

	It("should use custom bounds", func() {
		bounds := SizeBounds{Min: 10, Max: 20}

		_, err := bounds.NewProcess(1, 9)
		Expect(errors.Is(err, ErrInvalidProcessSize)).To(BeTrue())

		p, err := bounds.NewProcess(1, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Size).To(Equal(uint64(10)))
	})

	It("should print a block as pid:index", func() {
		Expect(Block{PID: 4, Index: 2}.String()).To(Equal("4:2"))
	})
})
