package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/pkg/browser"
	"github.com/sarchlab/pagesim/mem/paging"
	"github.com/sarchlab/pagesim/report"
	"github.com/sarchlab/pagesim/simulation"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const envPrefix = "PAGESIM_"

// positionalFlags are the flags that can also be given as positional
// arguments, in order.
var positionalFlags = []string{"processes", "iterations", "exponent"}

type runOptions struct {
	processes    int
	iterations   int
	exponent     float64
	seed         int64
	blockSize    uint64
	ramSize      uint64
	vramSize     uint64
	policy       string
	trace        bool
	perProcess   bool
	record       bool
	recordPath   string
	monitor      bool
	monitorPort  int
	openBrowser  bool
	waitOnFinish bool
}

func newRunCommand() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [processCount [iterations [exponent]]]",
		Short: "Run a paging simulation and print the report.",
		Long: "`run` admits processes, demands random pages, and prints the " +
			"page access, fault, and swap counts with a chart of the tier " +
			"loads.",
		Args: cobra.MaximumNArgs(len(positionalFlags)),
		RunE: func(cmd *cobra.Command, args []string) error {
			explicit := changedFlags(cmd.Flags())

			err := applyEnv(cmd.Flags())
			if err != nil {
				return err
			}

			err = applyPositionalArgs(cmd.Flags(), args, explicit)
			if err != nil {
				return err
			}

			return runSimulation(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.processes, "processes", 2, "number of processes to admit")
	f.IntVar(&opts.iterations, "iterations", 100, "number of page demands")
	f.Float64Var(&opts.exponent, "exponent", 8,
		"exponent of the process size distribution")
	f.Int64Var(&opts.seed, "seed", 0, "seed of the random source")
	f.Uint64Var(&opts.blockSize, "block-size", paging.DefaultBlockSize,
		"block size in bytes")
	f.Uint64Var(&opts.ramSize, "ram-size", paging.DefaultResidentSize,
		"size of the resident tier in bytes")
	f.Uint64Var(&opts.vramSize, "vram-size", paging.DefaultBackingSize,
		"size of the backing tier in bytes")
	f.StringVar(&opts.policy, "policy", "fifo",
		"eviction policy: fifo, random, or lru")
	f.BoolVar(&opts.trace, "trace", false, "print every MMU event")
	f.BoolVar(&opts.perProcess, "per-process", false,
		"print the size and fault count of each process")
	f.BoolVar(&opts.record, "record", false,
		"record samples and events into a SQLite database")
	f.StringVar(&opts.recordPath, "record-path", "",
		"database path without the .sqlite3 extension")
	f.BoolVar(&opts.monitor, "monitor", false, "serve the monitoring API")
	f.IntVar(&opts.monitorPort, "monitor-port", 0,
		"port of the monitoring server, 0 for a random port")
	f.BoolVar(&opts.openBrowser, "open", false,
		"open the monitoring address in a browser")
	f.BoolVar(&opts.waitOnFinish, "wait", false,
		"keep the monitoring server up after the run until interrupted")

	return cmd
}

// envName maps a flag name to its environment variable, for example
// block-size to PAGESIM_BLOCK_SIZE.
func envName(flagName string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

// applyEnv sets the flags that are not given on the command line from the
// environment.
func applyEnv(flags *pflag.FlagSet) error {
	var err error

	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed {
			return
		}

		value, ok := os.LookupEnv(envName(f.Name))
		if !ok {
			return
		}

		if setErr := flags.Set(f.Name, value); setErr != nil {
			err = fmt.Errorf("invalid %s: %w", envName(f.Name), setErr)
		}
	})

	return err
}

func changedFlags(flags *pflag.FlagSet) map[string]bool {
	changed := make(map[string]bool)

	flags.Visit(func(f *pflag.Flag) {
		changed[f.Name] = true
	})

	return changed
}

// applyPositionalArgs sets processes, iterations, and exponent from the
// arguments. They override the environment but must not contradict flags
// given on the command line.
func applyPositionalArgs(
	flags *pflag.FlagSet,
	args []string,
	explicit map[string]bool,
) error {
	for i, arg := range args {
		name := positionalFlags[i]

		if explicit[name] {
			return fmt.Errorf(
				"%s is given both as argument %d and as --%s", name, i+1, name)
		}

		if err := flags.Set(name, arg); err != nil {
			return fmt.Errorf("invalid argument %d (%s): %w", i+1, name, err)
		}
	}

	return nil
}

func (o *runOptions) validate() error {
	if o.processes < 0 {
		return fmt.Errorf("processes must not be negative: %d", o.processes)
	}

	if o.iterations < 0 {
		return fmt.Errorf("iterations must not be negative: %d", o.iterations)
	}

	if o.exponent < 0 {
		return fmt.Errorf("exponent must not be negative: %g", o.exponent)
	}

	if o.blockSize == 0 {
		return errors.New("block size must be positive")
	}

	if o.ramSize < o.blockSize || o.vramSize < o.blockSize {
		return fmt.Errorf("tiers must hold at least one block of %d bytes",
			o.blockSize)
	}

	if paging.BlocksIn(o.ramSize, o.blockSize) > paging.MaxBlocks ||
		paging.BlocksIn(o.vramSize, o.blockSize) > paging.MaxBlocks {
		return fmt.Errorf("tiers must not hold more than %d blocks",
			paging.MaxBlocks)
	}

	if _, err := paging.ParseVictimFinder(o.policy, nil); err != nil {
		return err
	}

	if o.openBrowser && !o.monitor {
		return errors.New("--open requires --monitor")
	}

	return nil
}

func (o *runOptions) builder(out io.Writer) simulation.Builder {
	b := simulation.MakeBuilder().
		WithProcesses(o.processes).
		WithIterations(o.iterations).
		WithExponent(o.exponent).
		WithSeed(o.seed).
		WithBlockSize(o.blockSize).
		WithResidentSize(o.ramSize).
		WithBackingSize(o.vramSize).
		WithPolicy(o.policy)

	if o.trace {
		b = b.WithHook(paging.NewEventLogger(log.New(out, "", 0)))
	}

	if o.record {
		b = b.WithDataRecording(o.recordPath)
	}

	if o.monitor {
		b = b.WithMonitoring(o.monitorPort)
	}

	return b
}

func runSimulation(ctx context.Context, out io.Writer, o *runOptions) error {
	err := o.validate()
	if err != nil {
		return err
	}

	s := o.builder(out).Build()

	if o.openBrowser {
		if err := browser.OpenURL(s.MonitorURL()); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open browser: %v\n", err)
		}
	}

	result, err := s.Run()
	if err != nil {
		s.Terminate()
		return err
	}

	report.Write(out, result)

	if o.perProcess {
		fmt.Fprintln(out)
		report.Processes(out, result)
	}

	if o.monitor && o.waitOnFinish {
		waitForInterrupt(ctx, s.MonitorURL())
	}

	return s.Terminate()
}

func waitForInterrupt(ctx context.Context, url string) {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	fmt.Fprintf(os.Stderr,
		"Simulation finished. Monitor is still served at %s, "+
			"press Ctrl+C to exit.\n", url)

	<-ctx.Done()
}
