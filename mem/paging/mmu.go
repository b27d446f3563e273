package paging

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/sarchlab/pagesim/sim/hooking"
)

// Hook positions of the MMU. The hook Item is the Block concerned, or the
// Process for HookPosAdmit and HookPosReject. For HookPosRemove the Item is
// the PID and the Detail is the number of blocks dropped from both tiers.
var (
	HookPosAdmit  = &hooking.HookPos{Name: "Admit"}
	HookPosReject = &hooking.HookPos{Name: "Reject"}
	HookPosHit    = &hooking.HookPos{Name: "Hit"}
	HookPosFault  = &hooking.HookPos{Name: "Fault"}
	HookPosLoaded = &hooking.HookPos{Name: "Loaded"}
	HookPosEvict  = &hooking.HookPos{Name: "Evict"}
	HookPosRemove = &hooking.HookPos{Name: "Remove"}
)

// Stats is a snapshot of the MMU counters and tier occupancy.
type Stats struct {
	AccessCount  uint64  `json:"access_count"`
	FaultCount   uint64  `json:"fault_count"`
	SwapCount    uint64  `json:"swap_count"`
	ResidentSize int     `json:"resident_size"`
	ResidentCap  int     `json:"resident_cap"`
	BackingSize  int     `json:"backing_size"`
	BackingCap   int     `json:"backing_cap"`
	ResidentLoad float64 `json:"resident_load"`
	BackingLoad  float64 `json:"backing_load"`
	HitRate      float64 `json:"hit_rate"`
	NumProcesses int     `json:"num_processes"`
}

// MMU moves blocks from the backing tier into the resident tier on demand.
// All the public methods are serialized by a single lock. Hooks run while the
// lock is held and must not call back into the MMU.
type MMU struct {
	sync.Mutex
	hooking.HookableBase

	name         string
	blockSize    uint64
	resident     *Tier
	backing      *Tier
	victimFinder VictimFinder

	accessCount uint64
	faultCount  uint64
	swapCount   uint64
}

// NewMMU creates an MMU with tiers of the given sizes in bytes and FIFO
// eviction.
func NewMMU(residentBytes, backingBytes, blockSize uint64) *MMU {
	return MakeBuilder().
		WithResidentSize(residentBytes).
		WithBackingSize(backingBytes).
		WithBlockSize(blockSize).
		Build("MMU")
}

// Name returns the name of the MMU.
func (m *MMU) Name() string {
	return m.name
}

// BlockSize returns the block size in bytes.
func (m *MMU) BlockSize() uint64 {
	return m.blockSize
}

// BlocksFor returns the number of blocks a process of size bytes occupies.
// A partial block still takes a whole block. Counts that do not fit in an int
// are reported as math.MaxInt.
func (m *MMU) BlocksFor(size uint64) int {
	n := size / m.blockSize
	if size%m.blockSize != 0 {
		n++
	}

	if n > math.MaxInt {
		return math.MaxInt
	}

	return int(n)
}

// Admit puts all the blocks of the process into the backing tier. If they do
// not all fit, nothing is admitted and an error wrapping ErrCapacityExceeded
// is returned. A process without any byte is refused with an error wrapping
// ErrInvalidProcessSize.
func (m *MMU) Admit(p Process) error {
	m.Lock()
	defer m.Unlock()

	numBlocks := m.BlocksFor(p.Size)

	err := m.admissionMustBePossible(p, numBlocks)
	if err == nil {
		err = m.backing.AddBatch(m.createBlocks(p.ID, numBlocks))
	}

	if err != nil {
		m.invoke(HookPosReject, p, err)
		return fmt.Errorf("admit process %d: %w", p.ID, err)
	}

	m.invoke(HookPosAdmit, p, numBlocks)

	return nil
}

func (m *MMU) admissionMustBePossible(p Process, numBlocks int) error {
	if numBlocks == 0 {
		return fmt.Errorf("process %d of %d bytes has no block: %w",
			p.ID, p.Size, ErrInvalidProcessSize)
	}

	if !m.backing.HasCapacity(numBlocks) {
		return fmt.Errorf(
			"cannot add %d blocks, only %d of %d free: %w",
			numBlocks, m.backing.Capacity()-m.backing.Size(),
			m.backing.Capacity(), ErrCapacityExceeded)
	}

	return nil
}

// TryAdmit is the same as Admit, but only reports whether the process is
// admitted.
func (m *MMU) TryAdmit(p Process) bool {
	return m.Admit(p) == nil
}

func (m *MMU) createBlocks(pid PID, numBlocks int) []Block {
	blocks := make([]Block, 0, numBlocks)
	for i := 0; i < numBlocks; i++ {
		blocks = append(blocks, Block{PID: pid, Index: i})
	}

	return blocks
}

// Load returns the block of the process at index from the resident tier,
// bringing it in from the backing tier if needed. When the resident tier is
// full, one block is evicted first. Requesting a block that was never
// admitted returns an error wrapping ErrBlockNotFound and leaves the resident
// tier untouched.
func (m *MMU) Load(pid PID, index int) (Block, error) {
	m.Lock()
	defer m.Unlock()

	m.accessCount++

	block, found := m.resident.Get(pid, index)
	if found {
		m.victimFinder.Visit(block)
		m.invoke(HookPosHit, block, nil)

		return block, nil
	}

	m.faultCount++

	block, found = m.backing.Get(pid, index)
	m.invoke(HookPosFault, Block{PID: pid, Index: index}, found)

	if !found {
		return Block{}, fmt.Errorf(
			"could not find block - pid: %d, index: %d: %w",
			pid, index, ErrBlockNotFound)
	}

	if m.resident.IsFull() {
		m.evict()
	}

	err := m.resident.Add(block)
	if err != nil {
		panic(err)
	}

	m.victimFinder.Visit(block)
	m.invoke(HookPosLoaded, block, nil)

	return block, nil
}

func (m *MMU) evict() {
	victim, ok := m.victimFinder.FindVictim(m.resident)
	if !ok {
		panic("evicting from an empty resident tier")
	}

	if !m.resident.Remove(victim.PID, victim.Index) {
		panic(fmt.Sprintf("victim %s is not resident", victim))
	}

	m.victimFinder.Forget(victim)
	m.swapCount++
	m.invoke(HookPosEvict, victim, nil)
}

// Remove drops every block of the process from both tiers. Counters are not
// affected. Removing an unknown process does nothing.
func (m *MMU) Remove(pid PID) {
	m.Lock()
	defer m.Unlock()

	removed := m.resident.RemoveByOwner(pid)
	for _, b := range removed {
		m.victimFinder.Forget(b)
	}

	numRemoved := len(removed) + len(m.backing.RemoveByOwner(pid))
	m.invoke(HookPosRemove, pid, numRemoved)
}

// ResidentLoad returns the fraction of the resident tier in use.
func (m *MMU) ResidentLoad() float64 {
	m.Lock()
	defer m.Unlock()

	return m.resident.Load()
}

// BackingLoad returns the fraction of the backing tier in use.
func (m *MMU) BackingLoad() float64 {
	m.Lock()
	defer m.Unlock()

	return m.backing.Load()
}

// AccessCount returns the number of Load calls.
func (m *MMU) AccessCount() uint64 {
	m.Lock()
	defer m.Unlock()

	return m.accessCount
}

// FaultCount returns the number of Load calls that missed the resident tier.
func (m *MMU) FaultCount() uint64 {
	m.Lock()
	defer m.Unlock()

	return m.faultCount
}

// SwapCount returns the number of evictions.
func (m *MMU) SwapCount() uint64 {
	m.Lock()
	defer m.Unlock()

	return m.swapCount
}

// Stats returns a consistent snapshot of the counters and occupancy.
func (m *MMU) Stats() Stats {
	m.Lock()
	defer m.Unlock()

	return m.stats()
}

// Snapshot is a copy of the state of an MMU taken under its lock.
type Snapshot struct {
	Name     string
	Stats    Stats
	Resident []Block
	Backing  []Block
}

// Snapshot copies the counters and the content of both tiers at once.
func (m *MMU) Snapshot() Snapshot {
	m.Lock()
	defer m.Unlock()

	return Snapshot{
		Name:     m.name,
		Stats:    m.stats(),
		Resident: m.resident.Keys(),
		Backing:  m.backing.Keys(),
	}
}

func (m *MMU) stats() Stats {
	s := Stats{
		AccessCount:  m.accessCount,
		FaultCount:   m.faultCount,
		SwapCount:    m.swapCount,
		ResidentSize: m.resident.Size(),
		ResidentCap:  m.resident.Capacity(),
		BackingSize:  m.backing.Size(),
		BackingCap:   m.backing.Capacity(),
		ResidentLoad: m.resident.Load(),
		BackingLoad:  m.backing.Load(),
		NumProcesses: len(m.backing.Owners()),
	}

	if m.accessCount > 0 {
		s.HitRate = float64(m.accessCount-m.faultCount) /
			float64(m.accessCount)
	}

	return s
}

// ResidentKeys returns the identities of the resident blocks, oldest first.
func (m *MMU) ResidentKeys() []Block {
	m.Lock()
	defer m.Unlock()

	return m.resident.Keys()
}

// BackingKeys returns the identities of the admitted blocks, oldest first.
func (m *MMU) BackingKeys() []Block {
	m.Lock()
	defer m.Unlock()

	return m.backing.Keys()
}

// RandomResidentBlock picks a resident block uniformly with rng.
func (m *MMU) RandomResidentBlock(rng *rand.Rand) (Block, bool) {
	m.Lock()
	defer m.Unlock()

	return m.resident.RandomBlock(rng)
}

// RandomBackingBlock picks an admitted block uniformly with rng.
func (m *MMU) RandomBackingBlock(rng *rand.Rand) (Block, bool) {
	m.Lock()
	defer m.Unlock()

	return m.backing.RandomBlock(rng)
}

// IsResident tells if the block of the process at index is resident.
func (m *MMU) IsResident(pid PID, index int) bool {
	m.Lock()
	defer m.Unlock()

	return m.resident.Has(pid, index)
}

func (m *MMU) invoke(pos *hooking.HookPos, item, detail interface{}) {
	if m.NumHooks() == 0 {
		return
	}

	m.InvokeHook(hooking.HookCtx{
		Domain: m,
		Pos:    pos,
		Item:   item,
		Detail: detail,
	})
}
