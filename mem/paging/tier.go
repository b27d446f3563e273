package paging

import (
	"fmt"
	"math/rand"
)

// MaxBlocks is the largest number of blocks a tier can hold.
const MaxBlocks = 1 << 30

// BlocksIn returns how many whole blocks of blockSize fit in sizeBytes.
func BlocksIn(sizeBytes, blockSize uint64) uint64 {
	return sizeBytes / blockSize
}

// A Tier is a capacity-bounded memory that holds Blocks. Blocks are indexed by
// their identity and, separately, by owner so that all the blocks of a
// process can be dropped without scanning the whole tier.
type Tier struct {
	blockSize uint64
	blocks    *Table[Block, Block]
	owners    *Table[PID, *Table[int, struct{}]]
}

// NewTier creates a tier of sizeBytes split into blocks of blockSize bytes.
// The number of blocks is rounded down.
func NewTier(sizeBytes, blockSize uint64) *Tier {
	if blockSize == 0 {
		panic("block size must be positive")
	}

	numBlocks := BlocksIn(sizeBytes, blockSize)
	if numBlocks == 0 {
		panic(fmt.Sprintf(
			"tier of %d bytes cannot hold a single %d-byte block",
			sizeBytes, blockSize))
	}

	if numBlocks > MaxBlocks {
		panic(fmt.Sprintf("tier of %d blocks exceeds the maximum of %d",
			numBlocks, MaxBlocks))
	}

	return &Tier{
		blockSize: blockSize,
		blocks:    NewTable[Block, Block](int(numBlocks)),
		owners:    NewTable[PID, *Table[int, struct{}]](int(numBlocks)),
	}
}

// BlockSize returns the size of each block in bytes.
func (t *Tier) BlockSize() uint64 {
	return t.blockSize
}

// Add puts the block into the tier. It fails if the tier is full.
func (t *Tier) Add(block Block) error {
	if t.IsFull() {
		return fmt.Errorf("cannot add block %s, tier is full: %w",
			block, ErrCapacityExceeded)
	}

	t.addBlock(block)

	return nil
}

// AddBatch puts all the blocks into the tier, or none of them if there is not
// enough room for all.
func (t *Tier) AddBatch(blocks []Block) error {
	if !t.HasCapacity(len(blocks)) {
		return fmt.Errorf(
			"cannot add %d blocks, only %d of %d free: %w",
			len(blocks), t.Capacity()-t.Size(), t.Capacity(),
			ErrCapacityExceeded)
	}

	for _, b := range blocks {
		t.addBlock(b)
	}

	return nil
}

func (t *Tier) addBlock(block Block) {
	indices, found := t.owners.Get(block.PID)
	if !found {
		indices = NewTable[int, struct{}](t.blocks.Capacity())
		t.owners.put(block.PID, indices)
	}

	indices.put(block.Index, struct{}{})
	t.blocks.put(block, block)
}

// Get returns the block of the process at the given index.
func (t *Tier) Get(pid PID, index int) (Block, bool) {
	return t.blocks.Get(Block{PID: pid, Index: index})
}

// Has tells if the tier holds the block of the process at the given index.
func (t *Tier) Has(pid PID, index int) bool {
	return t.blocks.Has(Block{PID: pid, Index: index})
}

// Remove drops one block. The owner is forgotten together with its last
// block. It reports whether the block was present.
func (t *Tier) Remove(pid PID, index int) bool {
	if !t.blocks.Remove(Block{PID: pid, Index: index}) {
		return false
	}

	indices, _ := t.owners.Get(pid)
	indices.Remove(index)

	if indices.Size() == 0 {
		t.owners.Remove(pid)
	}

	return true
}

// RemoveByOwner drops every block of the process and returns them in the
// order they were added. Removing an unknown owner does nothing.
func (t *Tier) RemoveByOwner(pid PID) []Block {
	indices, found := t.owners.Get(pid)
	if !found {
		return nil
	}

	removed := make([]Block, 0, indices.Size())
	for _, index := range indices.Keys() {
		block := Block{PID: pid, Index: index}
		t.blocks.Remove(block)
		removed = append(removed, block)
	}

	t.owners.Remove(pid)

	return removed
}

// Keys returns the identities of the blocks in insertion order.
func (t *Tier) Keys() []Block {
	return t.blocks.Keys()
}

// Oldest returns the block that has been in the tier for the longest time.
func (t *Tier) Oldest() (Block, bool) {
	block, _, ok := t.blocks.Front()
	return block, ok
}

// Owners returns the processes that have at least one block in the tier.
func (t *Tier) Owners() []PID {
	return t.owners.Keys()
}

// BlocksOf returns the blocks of a process in insertion order.
func (t *Tier) BlocksOf(pid PID) []Block {
	indices, found := t.owners.Get(pid)
	if !found {
		return nil
	}

	blocks := make([]Block, 0, indices.Size())
	for _, index := range indices.Keys() {
		blocks = append(blocks, Block{PID: pid, Index: index})
	}

	return blocks
}

// RandomBlock picks a block uniformly at random.
func (t *Tier) RandomBlock(rng *rand.Rand) (Block, bool) {
	if t.Size() == 0 {
		return Block{}, false
	}

	keys := t.blocks.Keys()

	return keys[rng.Intn(len(keys))], true
}

// Size returns the number of blocks in the tier.
func (t *Tier) Size() int {
	return t.blocks.Size()
}

// Capacity returns the maximum number of blocks.
func (t *Tier) Capacity() int {
	return t.blocks.Capacity()
}

// IsFull tells if no more blocks can be added.
func (t *Tier) IsFull() bool {
	return t.blocks.IsFull()
}

// HasCapacity tells if amount more blocks can be added.
func (t *Tier) HasCapacity(amount int) bool {
	return t.blocks.HasCapacity(amount)
}

// Load returns the fraction of the capacity that is in use.
func (t *Tier) Load() float64 {
	return float64(t.Size()) / float64(t.Capacity())
}
