// Package workload generates processes and memory demands for an MMU.
package workload

import (
	"math"
	"math/rand"

	"github.com/sarchlab/pagesim/mem/paging"
)

// A Pager is what the generator drives. *paging.MMU is a Pager.
type Pager interface {
	RandomBackingBlock(rng *rand.Rand) (paging.Block, bool)
	Load(pid paging.PID, index int) (paging.Block, error)
}

// A Generator creates processes with skewed sizes and random page demands.
type Generator struct {
	rng      *rand.Rand
	exponent float64
	bounds   paging.SizeBounds
}

// ProcessSize draws a process size. Sizes follow max(min, u^k * max) with u
// uniform in [0, 1), so a larger exponent k gives more small processes.
func (g *Generator) ProcessSize() uint64 {
	u := math.Pow(g.rng.Float64(), g.exponent)
	size := uint64(u * float64(g.bounds.Max))

	if size < g.bounds.Min {
		size = g.bounds.Min
	}

	return size
}

// Processes creates n processes with IDs 0 to n-1.
func (g *Generator) Processes(n int) ([]paging.Process, error) {
	processes := make([]paging.Process, 0, n)

	for i := 0; i < n; i++ {
		p, err := g.bounds.NewProcess(paging.PID(i), g.ProcessSize())
		if err != nil {
			return nil, err
		}

		processes = append(processes, p)
	}

	return processes, nil
}

// NextDemand picks an admitted block uniformly and loads it. It returns false
// if there is no admitted block to demand.
func (g *Generator) NextDemand(pager Pager) (paging.Block, bool, error) {
	target, ok := pager.RandomBackingBlock(g.rng)
	if !ok {
		return paging.Block{}, false, nil
	}

	block, err := pager.Load(target.PID, target.Index)
	if err != nil {
		return paging.Block{}, true, err
	}

	return block, true, nil
}
