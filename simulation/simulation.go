// Package simulation runs a workload against an MMU and collects how the
// tiers fill up over time.
package simulation

import (
	"errors"
	"strconv"

	"github.com/sarchlab/pagesim/datarecording"
	"github.com/sarchlab/pagesim/mem/paging"
	"github.com/sarchlab/pagesim/mem/paging/workload"
	"github.com/sarchlab/pagesim/monitoring"
	"github.com/sarchlab/pagesim/sim/hooking"
)

// A Simulation admits a number of processes into an MMU and then demands
// random pages from it.
type Simulation struct {
	id         string
	processes  int
	iterations int

	mmu          *paging.MMU
	generator    *workload.Generator
	faultCounter *hooking.PosCounter

	dataRecorder  datarecording.DataRecorder
	execRecorder  *datarecording.ExecRecorder
	eventRecorder *eventRecorder

	monitor    *monitoring.Monitor
	monitorURL string

	residentLoad []float64
	backingLoad  []float64
}

// Result is what a finished run reports.
type Result struct {
	ID              string
	Iterations      int
	Stats           paging.Stats
	ResidentLoad    []float64
	BackingLoad     []float64
	Admitted        []paging.Process
	Rejected        []paging.Process
	FaultsByProcess map[paging.PID]uint64
}

// ID returns the unique ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// MMU returns the MMU being simulated.
func (s *Simulation) MMU() *paging.MMU {
	return s.mmu
}

// DataRecorder returns the data recorder, or nil if recording is off.
func (s *Simulation) DataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// Monitor returns the monitor, or nil if monitoring is off.
func (s *Simulation) Monitor() *monitoring.Monitor {
	return s.monitor
}

// MonitorURL returns the address of the monitoring server, if any.
func (s *Simulation) MonitorURL() string {
	return s.monitorURL
}

// Run creates the processes, admits them, and performs the page demands. A
// sample of both tier loads is taken at the start, after every admission, and
// after every demand. Processes that do not fit are skipped.
func (s *Simulation) Run() (*Result, error) {
	if s.execRecorder != nil {
		s.execRecorder.Start()
	}

	s.sample()

	processes, err := s.generator.Processes(s.processes)
	if err != nil {
		return nil, err
	}

	result := &Result{
		ID:              s.id,
		Iterations:      s.iterations,
		FaultsByProcess: make(map[paging.PID]uint64),
	}

	for _, p := range processes {
		err := s.mmu.Admit(p)

		switch {
		case err == nil:
			result.Admitted = append(result.Admitted, p)
		case errors.Is(err, paging.ErrCapacityExceeded):
			result.Rejected = append(result.Rejected, p)
		default:
			return nil, err
		}

		s.sample()
	}

	err = s.demand()
	if err != nil {
		return nil, err
	}

	if s.execRecorder != nil {
		s.execRecorder.End()
	}

	result.Stats = s.mmu.Stats()
	result.ResidentLoad = s.residentLoad
	result.BackingLoad = s.backingLoad

	for _, p := range result.Admitted {
		result.FaultsByProcess[p.ID] = s.faultCounter.CountOf(
			paging.HookPosFault, processKey(p.ID))
	}

	return result, nil
}

func (s *Simulation) demand() error {
	var bar *monitoring.ProgressBar
	if s.monitor != nil {
		bar = s.monitor.CreateProgressBar("Demand", uint64(s.iterations))
		defer s.monitor.CompleteProgressBar(bar)
	}

	for i := 0; i < s.iterations; i++ {
		if s.eventRecorder != nil {
			s.eventRecorder.step = i + 1
		}

		if bar != nil {
			bar.IncrementInProgress(1)
		}

		_, _, err := s.generator.NextDemand(s.mmu)
		if err != nil {
			return err
		}

		s.sample()

		if bar != nil {
			bar.MoveInProgressToFinished(1)
		}
	}

	return nil
}

func (s *Simulation) sample() {
	resident := s.mmu.ResidentLoad()
	backing := s.mmu.BackingLoad()

	s.residentLoad = append(s.residentLoad, resident)
	s.backingLoad = append(s.backingLoad, backing)

	if s.eventRecorder != nil {
		s.eventRecorder.sample(resident, backing)
	}
}

// Terminate flushes and closes the data recorder, if any.
func (s *Simulation) Terminate() error {
	if s.dataRecorder == nil {
		return nil
	}

	return s.dataRecorder.Close()
}

func processKey(pid paging.PID) string {
	return strconv.FormatUint(uint64(pid), 10)
}
