package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gnana997/vuestories/pkg/build"
	"github.com/gnana997/vuestories/pkg/edit"
	"github.com/gnana997/vuestories/pkg/plugin"
)

var transformFlags struct {
	mapPath   string
	inlineMap bool
}

var transformCmd = &cobra.Command{
	Use:   "transform <file.vue>",
	Short: "Print the transformed module of one story file or component",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(globals)
		if err != nil {
			return err
		}
		defer a.Close()

		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		id := build.ID(path)
		if !a.plugin.TransformInclude(id) {
			return fmt.Errorf("%s is not matched by the include/exclude filters", args[0])
		}
		code, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		res, err := a.plugin.Transform(cmd.Context(), string(code), id)
		if err != nil {
			return err
		}
		if res == nil {
			_, err = io.WriteString(cmd.OutOrStdout(), string(code))
			return err
		}
		return writeTransformResult(cmd.OutOrStdout(), res, plugin.IsStoryID(id))
	},
}

func init() {
	transformCmd.Flags().StringVar(&transformFlags.mapPath, "map", "", "write the source map to this file")
	transformCmd.Flags().BoolVar(&transformFlags.inlineMap, "inline-map", false, "append the source map as a data URL (story files only)")
}

func writeTransformResult(w io.Writer, res *edit.Result, story bool) error {
	code := res.Code
	if transformFlags.inlineMap && story {
		url, err := res.Map.DataURL()
		if err != nil {
			return err
		}
		code += "\n//# sourceMappingURL=" + url + "\n"
	}
	if transformFlags.mapPath != "" {
		data, err := res.Map.JSON()
		if err != nil {
			return err
		}
		if err := os.WriteFile(transformFlags.mapPath, []byte(data), 0644); err != nil {
			return fmt.Errorf("failed to write source map: %w", err)
		}
	}
	_, err := io.WriteString(w, code)
	return err
}
