package commands

import (
	"github.com/spf13/cobra"
)

// ServeCmd represents the serve command
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the context server",
	Long:  "Run the MCP context server over stdio (when spawned with a pipe) and HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		opts := ServeOptions{}
		opts.Workspace, _ = cmd.Flags().GetString("workspace")
		opts.HTTPBind, _ = cmd.Flags().GetString("http")
		opts.NoAutoDetect, _ = cmd.Flags().GetBool("no-autodetect")
		opts.Depth, _ = cmd.Flags().GetInt("depth")
		opts.DetectFrom, _ = cmd.Flags().GetString("detect-from")
		RunServe(opts)
	},
}

func init() {
	ServeCmd.Flags().StringP("workspace", "w", "", "Explicit workspace directory for stdio clients")
	ServeCmd.Flags().String("http", "", "HTTP listen address (overrides config)")
	ServeCmd.Flags().Bool("no-autodetect", false, "Disable filesystem workspace auto-detection")
	ServeCmd.Flags().Int("depth", 0, "Ancestor directories to examine during detection (overrides config)")
	ServeCmd.Flags().String("detect-from", "", "Directory detection starts from (defaults to the working directory)")
}

// DetectCmd represents the detect command
var DetectCmd = &cobra.Command{
	Use:   "detect [path]",
	Short: "Explain workspace detection",
	Long:  "Show which workspace root detection would choose for a directory, and why",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		start := ""
		if len(args) == 1 {
			start = args[0]
		}
		RunDetect(start)
	},
}

// WorkspaceCmd represents the workspace parent command
var WorkspaceCmd = &cobra.Command{
	Use:     "workspace",
	Aliases: []string{"ws"},
	Short:   "Manage workspace aliases",
	Long:    "Add, list, remove, or pick workspace aliases",
}

// WorkspaceListCmd represents the workspace list command
var WorkspaceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspace aliases",
	Run: func(cmd *cobra.Command, args []string) {
		RunWorkspaceList()
	},
}

// WorkspaceAddCmd represents the workspace add command
var WorkspaceAddCmd = &cobra.Command{
	Use:   "add <name> <path>",
	Short: "Add a workspace alias",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		RunWorkspaceAdd(args[0], args[1])
	},
}

// WorkspaceRemoveCmd represents the workspace remove command
var WorkspaceRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a workspace alias",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		RunWorkspaceRemove(args[0])
	},
}

// WorkspacePickCmd represents the workspace pick command
var WorkspacePickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Pick the default workspace interactively",
	Run: func(cmd *cobra.Command, args []string) {
		RunWorkspacePick()
	},
}

// VersionCmd represents the version command
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show ctxport version",
	Run: func(cmd *cobra.Command, args []string) {
		RunVersion()
	},
}

func init() {
	WorkspaceCmd.AddCommand(WorkspaceListCmd)
	WorkspaceCmd.AddCommand(WorkspaceAddCmd)
	WorkspaceCmd.AddCommand(WorkspaceRemoveCmd)
	WorkspaceCmd.AddCommand(WorkspacePickCmd)
}
