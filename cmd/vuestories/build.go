package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gnana997/vuestories/pkg/build"
)

var buildFlags struct {
	outDir   string
	workers  int
	noMaps   bool
	progress bool
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Transform every matched file under the root into the output directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(globals)
		if err != nil {
			return err
		}
		defer a.Close()

		b, err := a.newBuilder()
		if err != nil {
			return err
		}
		var progress build.ProgressCallback
		if buildFlags.progress {
			out := cmd.ErrOrStderr()
			progress = func(done, total int, current string) {
				fmt.Fprintf(out, "[%d/%d] %s\n", done, total, current)
			}
		}

		stats, err := b.Build(cmd.Context(), progress)
		if err != nil {
			return err
		}
		printBuildStats(cmd.OutOrStdout(), stats)
		if stats.FilesFailed > 0 {
			return fmt.Errorf("%d of %d files failed", stats.FilesFailed, stats.FilesDiscovered)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{buildCmd, watchCmd} {
		f := c.Flags()
		f.StringVar(&buildFlags.outDir, "out-dir", "", "output directory (default .vuestories/out)")
		f.IntVar(&buildFlags.workers, "workers", 0, "worker count (default: CPU based)")
		f.BoolVar(&buildFlags.noMaps, "no-source-maps", false, "skip writing source maps")
	}
	buildCmd.Flags().BoolVar(&buildFlags.progress, "progress", false, "print each processed file to stderr")
}

func (a *app) newBuilder() (*build.Builder, error) {
	opts := a.buildOptions(buildFlags.outDir, buildFlags.workers, !buildFlags.noMaps)
	return build.NewBuilder(a.root, a.plugin, a.files, opts, a.logger)
}

func printBuildStats(w io.Writer, stats *build.Stats) {
	fmt.Fprintf(w, "%d files: %d written, %d unchanged, %d failed (%d ms, %d workers)\n",
		stats.FilesDiscovered, stats.FilesWritten, stats.FilesUnchanged, stats.FilesFailed,
		stats.TotalTimeMs, stats.WorkerCount)
	for _, fe := range stats.Errors {
		fmt.Fprintf(w, "  ! %s: %v\n", fe.FilePath, fe.Error)
	}
	if stats.Cancelled {
		fmt.Fprintln(w, "build cancelled")
	}
}
