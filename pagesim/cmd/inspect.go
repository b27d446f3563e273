package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sarchlab/pagesim/datarecording"
	"github.com/sarchlab/pagesim/mem/paging"
	"github.com/sarchlab/pagesim/sim/hooking"
	"github.com/sarchlab/pagesim/simulation"
	"github.com/spf13/cobra"
)

var inspectedEvents = []*hooking.HookPos{
	paging.HookPosAdmit,
	paging.HookPosReject,
	paging.HookPosHit,
	paging.HookPosFault,
	paging.HookPosLoaded,
	paging.HookPosEvict,
	paging.HookPosRemove,
}

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect recording",
		Short: "Print what a run recorded with --record.",
		Long: "`inspect` reads a recording and prints the run properties, " +
			"the final tier loads and the number of MMU events of each kind. " +
			"The .sqlite3 extension may be omitted.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			return inspectRecording(ctx, cmd.OutOrStdout(), args[0])
		},
	}
}

func recordingFile(path string) string {
	if strings.HasSuffix(path, ".sqlite3") {
		return path
	}

	return path + ".sqlite3"
}

func inspectRecording(ctx context.Context, out io.Writer, path string) error {
	filename := recordingFile(path)

	if _, err := os.Stat(filename); err != nil {
		return err
	}

	reader, err := datarecording.NewReader(filename)
	if err != nil {
		return err
	}
	defer reader.Close()

	simulation.MapRecordingTables(reader)

	err = printExecInfo(ctx, out, reader)
	if err != nil {
		return err
	}

	err = printFinalLoad(ctx, out, reader)
	if err != nil {
		return err
	}

	return printEventCounts(ctx, out, reader)
}

func printExecInfo(
	ctx context.Context,
	out io.Writer,
	reader datarecording.DataReader,
) error {
	infos, _, err := reader.Query(ctx, datarecording.ExecInfoTable,
		datarecording.QueryParams{})
	if err != nil {
		return err
	}

	for _, info := range infos {
		entry := info.(*datarecording.ExecInfo)
		fmt.Fprintf(out, "%s: %s\n", entry.Property, entry.Value)
	}

	return nil
}

func printFinalLoad(
	ctx context.Context,
	out io.Writer,
	reader datarecording.DataReader,
) error {
	samples, total, err := reader.Query(ctx, simulation.LoadSampleTable,
		datarecording.QueryParams{OrderBy: "Step DESC, rowid DESC", Limit: 1})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Samples: %d\n", total)

	if len(samples) == 0 {
		return nil
	}

	last := samples[0].(*simulation.LoadSample)
	fmt.Fprintf(out, "Final load: resident %.2f%%, backing %.2f%%\n",
		last.Resident*100, last.Backing*100)

	return nil
}

func printEventCounts(
	ctx context.Context,
	out io.Writer,
	reader datarecording.DataReader,
) error {
	for _, pos := range inspectedEvents {
		_, count, err := reader.Query(ctx, simulation.MMUEventTable,
			datarecording.QueryParams{
				Where: "Kind = ?",
				Args:  []any{pos.Name},
				Limit: 1,
			})
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%s events: %d\n", pos.Name, count)
	}

	return nil
}
