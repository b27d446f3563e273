package paging

import (
	"fmt"
	"math/rand"
)

// A VictimFinder decides which resident block should be evicted when the
// resident tier is full.
type VictimFinder interface {
	// Visit is called every time a block is loaded, hit or miss.
	Visit(block Block)

	// Forget is called when a block leaves the resident tier.
	Forget(block Block)

	// FindVictim picks the block to evict. It returns false only if the tier
	// is empty.
	FindVictim(resident *Tier) (Block, bool)
}

// FIFOVictimFinder evicts the block that entered the resident tier first.
type FIFOVictimFinder struct{}

// NewFIFOVictimFinder returns a newly constructed FIFO evictor.
func NewFIFOVictimFinder() *FIFOVictimFinder {
	return new(FIFOVictimFinder)
}

// Visit does nothing. Hits do not change insertion order.
func (e *FIFOVictimFinder) Visit(Block) {}

// Forget does nothing.
func (e *FIFOVictimFinder) Forget(Block) {}

// FindVictim returns the oldest resident block.
func (e *FIFOVictimFinder) FindVictim(resident *Tier) (Block, bool) {
	return resident.Oldest()
}

// RandomVictimFinder evicts a uniformly chosen resident block.
type RandomVictimFinder struct {
	rng *rand.Rand
}

// NewRandomVictimFinder returns an evictor that draws from rng.
func NewRandomVictimFinder(rng *rand.Rand) *RandomVictimFinder {
	return &RandomVictimFinder{rng: rng}
}

// Visit does nothing.
func (e *RandomVictimFinder) Visit(Block) {}

// Forget does nothing.
func (e *RandomVictimFinder) Forget(Block) {}

// FindVictim returns a random resident block.
func (e *RandomVictimFinder) FindVictim(resident *Tier) (Block, bool) {
	return resident.RandomBlock(e.rng)
}

// LRUVictimFinder evicts the least recently used block. Blocks that were
// never visited count as the oldest, in insertion order.
type LRUVictimFinder struct {
	visitCount uint64
	lastVisit  map[Block]uint64
}

// NewLRUVictimFinder returns a newly constructed LRU evictor.
func NewLRUVictimFinder() *LRUVictimFinder {
	return &LRUVictimFinder{
		lastVisit: make(map[Block]uint64),
	}
}

// Visit marks the block as the most recently used.
func (e *LRUVictimFinder) Visit(block Block) {
	e.visitCount++
	e.lastVisit[block] = e.visitCount
}

// Forget drops the usage record of the block.
func (e *LRUVictimFinder) Forget(block Block) {
	delete(e.lastVisit, block)
}

// FindVictim returns the resident block with the oldest visit.
func (e *LRUVictimFinder) FindVictim(resident *Tier) (Block, bool) {
	var (
		victim Block
		found  bool
		oldest uint64
	)

	for _, b := range resident.Keys() {
		visit := e.lastVisit[b]
		if !found || visit < oldest {
			victim, oldest, found = b, visit, true
		}
	}

	return victim, found
}

// ParseVictimFinder creates a VictimFinder by name. Accepted names are
// "fifo", "random", and "lru". The rng is only used by "random"; a nil rng falls back to a
// generator seeded with 1.
func ParseVictimFinder(name string, rng *rand.Rand) (VictimFinder, error) {
	switch name {
	case "", "fifo":
		return NewFIFOVictimFinder(), nil
	case "random":
		if rng == nil {
			rng = rand.New(rand.NewSource(1))
		}

		return NewRandomVictimFinder(rng), nil
	case "lru":
		return NewLRUVictimFinder(), nil
	default:
		return nil, fmt.Errorf(
			"unknown eviction policy %q, allowed values are fifo, random, lru",
			name)
	}
}
