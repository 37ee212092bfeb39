package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ctxport/internal/commands"
)

var rootCmd = &cobra.Command{
	Use:   "ctxport",
	Short: "A workspace-aware MCP context server",
	Long:  "A context server for MCP clients that resolves the workspace per session and keeps per-workspace context databases",
}

func init() {
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.DetectCmd)
	rootCmd.AddCommand(commands.WorkspaceCmd)
	rootCmd.AddCommand(commands.VersionCmd)

	rootCmd.Run = func(cmd *cobra.Command, args []string) {
		// Spawned with a pipe on stdin: an MCP client launched us directly,
		// skip the CLI surface and serve.
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			commands.RunServe(commands.ServeOptions{})
			return
		}
		_ = cmd.Help()
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
