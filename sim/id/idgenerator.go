// Package id generates identifiers for runs, recorded rows and progress bars.
package id

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
)

// IDGenerator can generate IDs.
type IDGenerator interface {
	Generate() string
}

var (
	generatorMutex   sync.Mutex
	defaultGenerator IDGenerator = &xidGenerator{}
)

// UseSequentialIDGenerator makes Generate return 1, 2, 3, ... Tests use it
// to get reproducible IDs.
func UseSequentialIDGenerator() {
	generatorMutex.Lock()
	defer generatorMutex.Unlock()

	defaultGenerator = &sequentialIDGenerator{}
}

// UseXIDGenerator makes Generate return globally unique xid strings. This is
// the default.
func UseXIDGenerator() {
	generatorMutex.Lock()
	defer generatorMutex.Unlock()

	defaultGenerator = &xidGenerator{}
}

// Generate returns a new ID from the current generator.
func Generate() string {
	generatorMutex.Lock()
	g := defaultGenerator
	generatorMutex.Unlock()

	return g.Generate()
}

type sequentialIDGenerator struct {
	nextID uint64
}

func (g *sequentialIDGenerator) Generate() string {
	idNumber := atomic.AddUint64(&g.nextID, 1)
	id := strconv.FormatUint(idNumber, 10)

	return id
}

type xidGenerator struct{}

func (g xidGenerator) Generate() string {
	return xid.New().String()
}
