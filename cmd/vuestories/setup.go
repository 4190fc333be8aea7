package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tailscale/hujson"

	mcpserver "github.com/gnana997/vuestories/pkg/mcp"
)

// agentTarget is a project-level MCP config file read by a coding agent.
type agentTarget struct {
	Name   string
	Marker string // directory under the project root that shows the agent is in use
	Binary string // optional: a binary on PATH also selects the target
	File   string // config file relative to the project root
	Key    string // object holding the server entries
	Extra  map[string]any
}

var agentTargets = []agentTarget{
	{Name: "Claude Code", Marker: ".claude", Binary: "claude", File: ".mcp.json", Key: "mcpServers"},
	{Name: "VS Code", Marker: ".vscode", File: filepath.Join(".vscode", "mcp.json"), Key: "servers", Extra: map[string]any{"type": "stdio"}},
	{Name: "Cursor", Marker: ".cursor", File: filepath.Join(".cursor", "mcp.json"), Key: "mcpServers"},
}

// Replaceable for testing.
var lookPathFunc = exec.LookPath

type setupOptions struct {
	yes    bool
	dryRun bool
}

type detectedTarget struct {
	agentTarget
	path       string
	registered bool
}

var setupFlags setupOptions

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Register the MCP server in the project's agent configs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := filepath.Abs(globals.root)
		if err != nil {
			return err
		}
		return runSetup(cmd.InOrStdin(), cmd.OutOrStdout(), root, setupFlags)
	},
}

func init() {
	setupCmd.Flags().BoolVarP(&setupFlags.yes, "yes", "y", false, "register without prompting")
	setupCmd.Flags().BoolVar(&setupFlags.dryRun, "dry-run", false, "print the configs instead of writing them")
}

func detectTargets(root string) []detectedTarget {
	var found []detectedTarget
	for _, t := range agentTargets {
		present := false
		if info, err := os.Stat(filepath.Join(root, t.Marker)); err == nil && info.IsDir() {
			present = true
		} else if t.Binary != "" {
			_, err := lookPathFunc(t.Binary)
			present = err == nil
		}
		if !present {
			continue
		}
		path := filepath.Join(root, t.File)
		found = append(found, detectedTarget{agentTarget: t, path: path, registered: isRegistered(path, t.Key)})
	}
	return found
}

// parseConfigJSON decodes an agent config. Comments and trailing commas are
// accepted.
func parseConfigJSON(data []byte) (map[string]any, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, err
	}
	config := make(map[string]any)
	if err := json.Unmarshal(std, &config); err != nil {
		return nil, err
	}
	return config, nil
}

func isRegistered(path, key string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	config, err := parseConfigJSON(data)
	if err != nil {
		return false
	}
	servers, _ := config[key].(map[string]any)
	_, ok := servers[mcpserver.ServerName]
	return ok
}

func serverEntry(extra map[string]any) map[string]any {
	entry := map[string]any{
		"command": "vuestories",
		"args":    []any{"serve"},
	}
	for k, v := range extra {
		entry[k] = v
	}
	return entry
}

// addServer returns existing with the server entry added under key, or nil
// when the entry is already there.
func addServer(existing []byte, key string, extra map[string]any) ([]byte, error) {
	config := make(map[string]any)
	if strings.TrimSpace(string(existing)) != "" {
		var err error
		if config, err = parseConfigJSON(existing); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}
	servers, ok := config[key].(map[string]any)
	if !ok {
		servers = make(map[string]any)
	}
	if _, exists := servers[mcpserver.ServerName]; exists {
		return nil, nil
	}
	servers[mcpserver.ServerName] = serverEntry(extra)
	config[key] = servers

	out, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// register adds the server to the target's config. With dryRun the merged
// config is written to w instead.
func register(t detectedTarget, w io.Writer, dryRun bool) error {
	existing, err := os.ReadFile(t.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	merged, err := addServer(existing, t.Key, t.Extra)
	if err != nil || merged == nil {
		return err
	}
	if dryRun {
		fmt.Fprintf(w, "--- %s\n%s", t.File, merged)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(t.path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(t.path, merged, 0644)
}

// confirm reads Y/n. Empty input and EOF mean yes.
func confirm(in *bufio.Scanner, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s [Y/n] ", question)
	if !in.Scan() {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(in.Text())) {
	case "", "y", "yes":
		return true
	}
	return false
}

func runSetup(r io.Reader, w io.Writer, root string, opts setupOptions) error {
	targets := detectTargets(root)
	if len(targets) == 0 {
		fmt.Fprintf(w, "No agent configuration found in %s.\n", root)
		return nil
	}

	in := bufio.NewScanner(r)
	var failed []error
	for _, t := range targets {
		if t.registered {
			fmt.Fprintf(w, "= %s: already registered in %s\n", t.Name, t.File)
			continue
		}
		if !opts.yes && !confirm(in, w, fmt.Sprintf("Register %s with %s (%s)?", mcpserver.ServerName, t.Name, t.File)) {
			fmt.Fprintf(w, "- %s: skipped\n", t.Name)
			continue
		}
		if err := register(t, w, opts.dryRun); err != nil {
			fmt.Fprintf(w, "! %s: %v\n", t.Name, err)
			failed = append(failed, fmt.Errorf("%s: %w", t.File, err))
			continue
		}
		if !opts.dryRun {
			fmt.Fprintf(w, "+ %s: registered in %s\n", t.Name, t.File)
		}
	}
	return errors.Join(failed...)
}
