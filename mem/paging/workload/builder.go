package workload

import (
	"math/rand"

	"github.com/sarchlab/pagesim/mem/paging"
)

// DefaultExponent is the exponent of the process size distribution.
const DefaultExponent = 8.0

// A Builder can build Generators.
type Builder struct {
	rng      *rand.Rand
	seed     int64
	exponent float64
	bounds   paging.SizeBounds
}

// MakeBuilder creates a builder with seed 0, the default exponent, and the
// default process size bounds.
func MakeBuilder() Builder {
	return Builder{
		exponent: DefaultExponent,
		bounds:   paging.DefaultSizeBounds(),
	}
}

// WithSeed sets the seed of the random source.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// WithRand sets the random source directly. It takes precedence over the
// seed.
func (b Builder) WithRand(rng *rand.Rand) Builder {
	b.rng = rng
	return b
}

// WithExponent sets the exponent of the process size distribution.
func (b Builder) WithExponent(exponent float64) Builder {
	b.exponent = exponent
	return b
}

// WithSizeBounds sets the range of process sizes.
func (b Builder) WithSizeBounds(bounds paging.SizeBounds) Builder {
	b.bounds = bounds
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.exponent < 0 {
		panic("exponent must not be negative")
	}

	if b.bounds.Min == 0 || b.bounds.Min > b.bounds.Max {
		panic("process size bounds must satisfy 0 < min <= max")
	}
}

// Build returns a newly created Generator.
func (b Builder) Build() *Generator {
	b.parametersMustBeValid()

	rng := b.rng
	if rng == nil {
		rng = rand.New(rand.NewSource(b.seed))
	}

	return &Generator{
		rng:      rng,
		exponent: b.exponent,
		bounds:   b.bounds,
	}
}
