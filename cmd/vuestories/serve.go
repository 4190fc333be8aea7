package main

import (
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/gnana997/vuestories/pkg/mcp"
	"github.com/gnana997/vuestories/pkg/mcplog"
)

// mcpLogEnv names the JSONL call log when --mcp-log is not given.
const mcpLogEnv = "VUESTORIES_MCP_LOG"

var serveLogPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(globals)
		if err != nil {
			return err
		}
		defer a.Close()

		logger, err := mcplog.NewLogger(pick(serveLogPath, os.Getenv(mcpLogEnv)))
		if err != nil {
			return err
		}
		if logger != nil {
			defer logger.Close()
		}

		a.logger.Info("starting MCP server", "root", a.root, "version", version)
		srv := mcpserver.NewServer(a.plugin, a.pm, version, logger)
		return srv.ServeStdio()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveLogPath, "mcp-log", "", "append one JSONL entry per tool call to this file")
}
