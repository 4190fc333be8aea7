package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

var globals globalOptions

var rootCmd = &cobra.Command{
	Use:           "vuestories",
	Short:         "Compile Vue story files into Storybook CSF modules",
	Long:          "vuestories turns *.stories.vue files into Storybook CSF modules and injects component metadata into .vue components.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&globals.root, "root", ".", "project root")
	pf.StringVar(&globals.config, "config", "", "config file (default <root>/.vuestories/config.yaml)")
	pf.StringVar(&globals.tsconfig, "tsconfig", "", "tsconfig scoping component metadata")
	pf.StringVar(&globals.compiler, "compiler", "", "template compiler: builtin or node")
	pf.StringVar(&globals.formatter, "formatter", "", "story source formatter: builtin or prettier")
	pf.StringVar(&globals.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&globals.logFormat, "log-format", "", "text or json")

	rootCmd.AddCommand(transformCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(metaCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "vuestories %s\n", version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
