package hooking

import (
	"sync"
)

// PosCounter is a hook that counts how many times each hook position fires.
// When a Keyer is given, it also keeps a per-key breakdown, for example the
// number of faults caused by each process.
type PosCounter struct {
	lock sync.Mutex

	keyer    func(ctx HookCtx) (key string, ok bool)
	posNames []string
	count    map[string]uint64
	perKey   map[string]map[string]uint64
}

// NewPosCounter creates a new PosCounter. The keyer may be nil.
func NewPosCounter(keyer func(ctx HookCtx) (string, bool)) *PosCounter {
	return &PosCounter{
		keyer:  keyer,
		count:  make(map[string]uint64),
		perKey: make(map[string]map[string]uint64),
	}
}

// Func counts the position of the hook site.
func (c *PosCounter) Func(ctx HookCtx) {
	if ctx.Pos == nil {
		return
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	name := ctx.Pos.Name
	if _, ok := c.count[name]; !ok {
		c.posNames = append(c.posNames, name)
		c.perKey[name] = make(map[string]uint64)
	}

	c.count[name]++

	if c.keyer == nil {
		return
	}

	key, ok := c.keyer(ctx)
	if ok {
		c.perKey[name][key]++
	}
}

// PosNames returns the names of the positions seen, in first-seen order.
func (c *PosCounter) PosNames() []string {
	c.lock.Lock()
	defer c.lock.Unlock()

	names := make([]string, len(c.posNames))
	copy(names, c.posNames)

	return names
}

// Count returns the number of times the given position fired.
func (c *PosCounter) Count(pos *HookPos) uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.count[pos.Name]
}

// CountOf returns the number of times the given position fired for key.
func (c *PosCounter) CountOf(pos *HookPos, key string) uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.perKey[pos.Name][key]
}
