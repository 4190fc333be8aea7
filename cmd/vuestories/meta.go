package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gnana997/vuestories/pkg/meta"
)

const maxWidth = 80

var metaFlags struct {
	export string
	json   bool
}

var metaCmd = &cobra.Command{
	Use:   "meta <file.vue>",
	Short: "Show the props, events, models and slots of a component",
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
		m, err := a.plugin.MetaSource().GetMeta(path, metaFlags.export)
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("%s is outside the tsconfig scope or not a component", args[0])
		}

		if metaFlags.json {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(m)
		}
		rel, err := filepath.Rel(a.root, path)
		if err != nil {
			rel = path
		}
		printComponentMeta(cmd.OutOrStdout(), filepath.ToSlash(rel), m)
		return nil
	},
}

func init() {
	metaCmd.Flags().StringVar(&metaFlags.export, "export", "default", "component export name")
	metaCmd.Flags().BoolVar(&metaFlags.json, "json", false, "print raw metadata as JSON")
}

// printComponentMeta prints a human-readable summary, with models split
// out of props and events.
func printComponentMeta(w io.Writer, name string, m *meta.ComponentMeta) {
	props, events, models := meta.ParseModels(m)
	fmt.Fprintln(w, name)

	fmt.Fprintln(w)
	printPropsSection(w, props)

	fmt.Fprintln(w)
	if len(models) == 0 {
		fmt.Fprintln(w, "Models  (none)")
	} else {
		fmt.Fprintln(w, "Models")
		rows := make([]namedRow, len(models))
		for i, md := range models {
			rows[i] = namedRow{md.Name, md.Type, md.Description}
		}
		printNamed(w, rows)
	}

	fmt.Fprintln(w)
	if len(events) == 0 {
		fmt.Fprintln(w, "Events  (none)")
	} else {
		fmt.Fprintln(w, "Events")
		rows := make([]namedRow, len(events))
		for i, e := range events {
			rows[i] = namedRow{e.Name, e.Type, e.Description}
		}
		printNamed(w, rows)
	}

	fmt.Fprintln(w)
	if len(m.Slots) == 0 {
		fmt.Fprintln(w, "Slots  (none)")
	} else {
		fmt.Fprintln(w, "Slots")
		rows := make([]namedRow, len(m.Slots))
		for i, s := range m.Slots {
			rows[i] = namedRow{s.Name, s.Type, s.Description}
		}
		printNamed(w, rows)
	}
}

// printPropsSection renders the props table with dynamic column widths.
func printPropsSection(w io.Writer, props []meta.PropMeta) {
	if len(props) == 0 {
		fmt.Fprintln(w, "Props  (none)")
		return
	}
	fmt.Fprintln(w, "Props")

	nameW := len("NAME")
	typeW := len("TYPE")
	defW := len("DEFAULT")
	for _, p := range props {
		nameW = max(nameW, len(p.Name))
		typeW = max(typeW, len(p.Type))
		defW = max(defW, len(orDash(p.Default)))
	}

	sepLen := nameW + typeW + 5 + defW + 4
	fmt.Fprintf(w, "  %-*s  %-*s  %-3s  %-*s\n", nameW, "NAME", typeW, "TYPE", "REQ", defW, "DEFAULT")
	fmt.Fprintf(w, "  %s\n", strings.Repeat("-", sepLen))

	for _, p := range props {
		req := "no"
		if p.Required {
			req = "yes"
		}
		fmt.Fprintf(w, "  %-*s  %-*s  %-3s  %s\n", nameW, p.Name, typeW, p.Type, req, orDash(p.Default))
		if p.Description != "" {
			printWrapped(w, p.Description, nameW+4, maxWidth)
		}
	}
}

type namedRow struct {
	name, typ, description string
}

func printNamed(w io.Writer, rows []namedRow) {
	nameW := 0
	for _, r := range rows {
		nameW = max(nameW, len(r.name))
	}
	for _, r := range rows {
		line := fmt.Sprintf("  %-*s  %s", nameW, r.name, r.typ)
		fmt.Fprintln(w, strings.TrimRight(line, " "))
		if r.description != "" {
			printWrapped(w, r.description, nameW+4, maxWidth)
		}
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// printWrapped prints text word-wrapped at width with the given left indent.
func printWrapped(w io.Writer, text string, indent, width int) {
	words := strings.Fields(text)
	prefix := strings.Repeat(" ", indent)
	line := prefix
	for _, word := range words {
		if len(line)+len(word)+1 > width && line != prefix {
			fmt.Fprintln(w, line)
			line = prefix + word
		} else if line == prefix {
			line += word
		} else {
			line += " " + word
		}
	}
	if line != prefix {
		fmt.Fprintln(w, line)
	}
}
