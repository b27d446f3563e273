package simulation

import (
	"github.com/sarchlab/pagesim/datarecording"
	"github.com/sarchlab/pagesim/mem/paging"
	"github.com/sarchlab/pagesim/sim/hooking"
	"github.com/sarchlab/pagesim/sim/id"
)

// Tables written by a simulation with recording on.
const (
	LoadSampleTable = "load_samples"
	MMUEventTable   = "mmu_events"
)

// LoadSample is the load of both tiers after a step. Step 0 covers the
// admissions; step i is the i-th demand.
type LoadSample struct {
	Step     int
	Resident float64
	Backing  float64
}

// MMUEvent is one hook event of the MMU. BlockIndex is -1 for events about a
// whole process.
type MMUEvent struct {
	ID         string
	Step       int
	Kind       string
	PID        uint32
	BlockIndex int
}

// MapRecordingTables prepares a reader to query the tables of a recorded
// simulation.
func MapRecordingTables(reader datarecording.DataReader) {
	reader.MapTable(datarecording.ExecInfoTable, datarecording.ExecInfo{})
	reader.MapTable(LoadSampleTable, LoadSample{})
	reader.MapTable(MMUEventTable, MMUEvent{})
}

// eventRecorder is a hook that writes every MMU event into the recorder,
// tagged with the current step of the simulation.
type eventRecorder struct {
	recorder datarecording.DataRecorder
	step     int
}

func newEventRecorder(recorder datarecording.DataRecorder) *eventRecorder {
	recorder.CreateTable(LoadSampleTable, LoadSample{})
	recorder.CreateTable(MMUEventTable, MMUEvent{})

	return &eventRecorder{recorder: recorder}
}

func (r *eventRecorder) Func(ctx hooking.HookCtx) {
	if ctx.Pos == nil {
		return
	}

	event := MMUEvent{
		ID:         id.Generate(),
		Step:       r.step,
		Kind:       ctx.Pos.Name,
		BlockIndex: -1,
	}

	switch item := ctx.Item.(type) {
	case paging.Block:
		event.PID = uint32(item.PID)
		event.BlockIndex = item.Index
	case paging.Process:
		event.PID = uint32(item.ID)
	case paging.PID:
		event.PID = uint32(item)
	default:
		return
	}

	r.recorder.InsertData(MMUEventTable, event)
}

func (r *eventRecorder) sample(resident, backing float64) {
	r.recorder.InsertData(LoadSampleTable, LoadSample{
		Step:     r.step,
		Resident: resident,
		Backing:  backing,
	})
}
