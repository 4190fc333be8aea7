package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gnana997/vuestories/pkg/parser"
	"github.com/gnana997/vuestories/pkg/preview"
)

var previewModule bool

var previewCmd = &cobra.Command{
	Use:   "preview <file.stories.vue>",
	Short: "Print the component rendering the first story of a story file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := loadConfig(globals)
		if err != nil {
			return err
		}
		logger := newLogger(globals, cfg)
		pm := parser.NewParserManager(logger)
		defer pm.Close()

		code, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		id := filepath.ToSlash(args[0])

		var out string
		if previewModule {
			out, err = preview.Module(pm, string(code), id)
		} else {
			res, terr := preview.Transform(pm, string(code), id)
			if terr == nil {
				out = res.Code
			}
			err = terr
		}
		if err != nil {
			return err
		}
		_, err = io.WriteString(cmd.OutOrStdout(), out)
		return err
	},
}

func init() {
	previewCmd.Flags().BoolVar(&previewModule, "module", false, "wrap the preview in a JS module exporting it as a string")
}
