package paging

// A Builder can build MMUs.
type Builder struct {
	blockSize    uint64
	residentSize uint64
	backingSize  uint64
	victimFinder VictimFinder
}

// MakeBuilder creates a new builder with the default sizes and FIFO eviction.
func MakeBuilder() Builder {
	return Builder{
		blockSize:    DefaultBlockSize,
		residentSize: DefaultResidentSize,
		backingSize:  DefaultBackingSize,
	}
}

// WithBlockSize sets the size of a block in bytes.
func (b Builder) WithBlockSize(blockSize uint64) Builder {
	b.blockSize = blockSize
	return b
}

// WithResidentSize sets the total size of the resident tier in bytes.
func (b Builder) WithResidentSize(size uint64) Builder {
	b.residentSize = size
	return b
}

// WithBackingSize sets the total size of the backing tier in bytes.
func (b Builder) WithBackingSize(size uint64) Builder {
	b.backingSize = size
	return b
}

// WithVictimFinder sets the eviction policy of the resident tier.
func (b Builder) WithVictimFinder(vf VictimFinder) Builder {
	b.victimFinder = vf
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.blockSize == 0 {
		panic("block size must be positive")
	}

	if b.residentSize < b.blockSize {
		panic("resident tier must hold at least one block")
	}

	if b.backingSize < b.blockSize {
		panic("backing tier must hold at least one block")
	}

	if BlocksIn(b.residentSize, b.blockSize) > MaxBlocks ||
		BlocksIn(b.backingSize, b.blockSize) > MaxBlocks {
		panic("tiers must not hold more than MaxBlocks blocks")
	}
}

// Build returns a newly created MMU.
func (b Builder) Build(name string) *MMU {
	b.parametersMustBeValid()

	m := &MMU{
		name:         name,
		blockSize:    b.blockSize,
		resident:     NewTier(b.residentSize, b.blockSize),
		backing:      NewTier(b.backingSize, b.blockSize),
		victimFinder: b.victimFinder,
	}

	if m.victimFinder == nil {
		m.victimFinder = NewFIFOVictimFinder()
	}

	return m
}
