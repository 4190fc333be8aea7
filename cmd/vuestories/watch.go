package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gnana997/vuestories/pkg/watch"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Build once, then rebuild changed files until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(globals)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		b, err := a.newBuilder()
		if err != nil {
			return err
		}
		stats, err := b.Build(ctx, nil)
		if err != nil {
			return err
		}
		printBuildStats(cmd.OutOrStdout(), stats)

		opts := watch.DefaultOptions()
		opts.Debounce = watchDebounce
		out := cmd.OutOrStdout()
		opts.OnBuild = func(path, output string, err error) {
			switch {
			case err != nil:
				fmt.Fprintf(out, "! %s: %v\n", path, err)
			case output != "":
				fmt.Fprintf(out, "+ %s\n", output)
			}
		}

		w, err := watch.New(b, opts, a.logger)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return w.Stop()
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultOptions().Debounce, "quiet period before a changed file is rebuilt")
}
