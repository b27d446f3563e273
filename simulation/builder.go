package simulation

import (
	"fmt"
	"math/rand"

	"github.com/sarchlab/pagesim/datarecording"
	"github.com/sarchlab/pagesim/mem/paging"
	"github.com/sarchlab/pagesim/mem/paging/workload"
	"github.com/sarchlab/pagesim/monitoring"
	"github.com/sarchlab/pagesim/sim/hooking"
	"github.com/sarchlab/pagesim/sim/id"
)

// Builder can be used to build a simulation.
type Builder struct {
	processes    int
	iterations   int
	exponent     float64
	seed         int64
	blockSize    uint64
	residentSize uint64
	backingSize  uint64
	policy       string
	hooks        []hooking.Hook

	recordOn       bool
	outputFileName string
	monitorOn      bool
	monitorPort    int
}

// MakeBuilder creates a new builder. Recording and monitoring are off.
func MakeBuilder() Builder {
	return Builder{
		processes:    2,
		iterations:   100,
		exponent:     workload.DefaultExponent,
		blockSize:    paging.DefaultBlockSize,
		residentSize: paging.DefaultResidentSize,
		backingSize:  paging.DefaultBackingSize,
		policy:       "fifo",
	}
}

// WithProcesses sets the number of processes to admit.
func (b Builder) WithProcesses(n int) Builder {
	b.processes = n
	return b
}

// WithIterations sets the number of page demands.
func (b Builder) WithIterations(n int) Builder {
	b.iterations = n
	return b
}

// WithExponent sets the exponent of the process size distribution.
func (b Builder) WithExponent(exponent float64) Builder {
	b.exponent = exponent
	return b
}

// WithSeed sets the seed of all the randomness in the simulation.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// WithBlockSize sets the block size in bytes.
func (b Builder) WithBlockSize(size uint64) Builder {
	b.blockSize = size
	return b
}

// WithResidentSize sets the size of the resident tier in bytes.
func (b Builder) WithResidentSize(size uint64) Builder {
	b.residentSize = size
	return b
}

// WithBackingSize sets the size of the backing tier in bytes.
func (b Builder) WithBackingSize(size uint64) Builder {
	b.backingSize = size
	return b
}

// WithPolicy sets the eviction policy, one of "fifo", "random", or "lru".
func (b Builder) WithPolicy(policy string) Builder {
	b.policy = policy
	return b
}

// WithHook attaches an extra hook to the MMU, such as an EventLogger.
func (b Builder) WithHook(h hooking.Hook) Builder {
	hooks := make([]hooking.Hook, len(b.hooks), len(b.hooks)+1)
	copy(hooks, b.hooks)
	b.hooks = append(hooks, h)

	return b
}

// WithDataRecording turns on recording into filename + ".sqlite3". An empty
// file name derives one from the simulation ID.
func (b Builder) WithDataRecording(filename string) Builder {
	b.recordOn = true
	b.outputFileName = filename

	return b
}

// WithMonitoring turns on the monitoring server. Port 0 picks a random port.
func (b Builder) WithMonitoring(port int) Builder {
	b.monitorOn = true
	b.monitorPort = port

	return b
}

func (b Builder) parametersMustBeValid() {
	if b.processes < 0 {
		panic("number of processes must not be negative")
	}

	if b.iterations < 0 {
		panic("number of iterations must not be negative")
	}

	if _, err := paging.ParseVictimFinder(b.policy, nil); err != nil {
		panic(err)
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		id:         id.Generate(),
		processes:  b.processes,
		iterations: b.iterations,
	}

	rng := rand.New(rand.NewSource(b.seed))

	victimFinder, err := paging.ParseVictimFinder(b.policy, rng)
	if err != nil {
		panic(err)
	}

	s.mmu = paging.MakeBuilder().
		WithBlockSize(b.blockSize).
		WithResidentSize(b.residentSize).
		WithBackingSize(b.backingSize).
		WithVictimFinder(victimFinder).
		Build("MMU")

	s.generator = workload.MakeBuilder().
		WithRand(rng).
		WithExponent(b.exponent).
		Build()

	s.faultCounter = hooking.NewPosCounter(faultingProcess)
	s.mmu.AcceptHook(s.faultCounter)

	for _, h := range b.hooks {
		s.mmu.AcceptHook(h)
	}

	if b.recordOn {
		b.buildRecorder(s)
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor().WithPortNumber(b.monitorPort)
		s.monitor.RegisterComponent(s.mmu)
		s.monitorURL = s.monitor.StartServer()
	}

	return s
}

func (b Builder) buildRecorder(s *Simulation) {
	outputPath := b.outputFileName
	if outputPath == "" {
		outputPath = "pagesim_" + s.id
	}

	s.dataRecorder = datarecording.New(outputPath)
	s.execRecorder = datarecording.NewExecRecorder(s.dataRecorder)
	s.eventRecorder = newEventRecorder(s.dataRecorder)
	s.mmu.AcceptHook(s.eventRecorder)

	s.execRecorder.Note("Simulation ID", s.id)
	s.execRecorder.Note("Processes", fmt.Sprint(b.processes))
	s.execRecorder.Note("Iterations", fmt.Sprint(b.iterations))
	s.execRecorder.Note("Exponent", fmt.Sprint(b.exponent))
	s.execRecorder.Note("Seed", fmt.Sprint(b.seed))
	s.execRecorder.Note("Block Size", fmt.Sprint(b.blockSize))
	s.execRecorder.Note("Resident Size", fmt.Sprint(b.residentSize))
	s.execRecorder.Note("Backing Size", fmt.Sprint(b.backingSize))
	s.execRecorder.Note("Policy", b.policy)
}

func faultingProcess(ctx hooking.HookCtx) (string, bool) {
	if ctx.Pos != paging.HookPosFault {
		return "", false
	}

	block, ok := ctx.Item.(paging.Block)
	if !ok {
		return "", false
	}

	return processKey(block.PID), true
}
