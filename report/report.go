// Package report prints the outcome of a simulation for humans.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/guptarohit/asciigraph"
	"github.com/sarchlab/pagesim/mem/paging"
	"github.com/sarchlab/pagesim/simulation"
)

const chartHeight = 10

// Summary writes the counters of the run.
func Summary(w io.Writer, result *simulation.Result) {
	fmt.Fprintf(w, "--- %d iterations\n", result.Iterations)
	fmt.Fprintf(w, "Page access count: %d\n", result.Stats.AccessCount)
	fmt.Fprintf(w, "Page fault count: %d\n", result.Stats.FaultCount)
	fmt.Fprintf(w, "Page swap count: %d\n", result.Stats.SwapCount)
}

// Processes writes one line per process with its size and fault count.
func Processes(w io.Writer, result *simulation.Result) {
	admitted := make([]paging.Process, len(result.Admitted))
	copy(admitted, result.Admitted)
	sort.Slice(admitted, func(i, j int) bool {
		return admitted[i].ID < admitted[j].ID
	})

	for _, p := range admitted {
		fmt.Fprintf(w, "Process %d: %d bytes, %d faults\n",
			p.ID, p.Size, result.FaultsByProcess[p.ID])
	}

	for _, p := range result.Rejected {
		fmt.Fprintf(w, "Process %d: %d bytes, rejected\n", p.ID, p.Size)
	}
}

// Chart plots the backing and the resident load, in percent, over the run.
func Chart(result *simulation.Result) string {
	if len(result.BackingLoad) == 0 {
		return ""
	}

	return asciigraph.PlotMany(
		[][]float64{
			percentages(result.BackingLoad),
			percentages(result.ResidentLoad),
		},
		asciigraph.Height(chartHeight),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Red),
		asciigraph.Caption("VRAM: green, RAM: red"),
	)
}

// Write prints the summary followed by the chart.
func Write(w io.Writer, result *simulation.Result) {
	Summary(w, result)
	fmt.Fprintln(w)
	fmt.Fprintln(w, " VRAM x RAM - (%)")
	fmt.Fprintln(w, Chart(result))
}

func percentages(loads []float64) []float64 {
	p := make([]float64, len(loads))
	for i, l := range loads {
		p[i] = l * 100
	}

	return p
}
