package commands

import (
	"fmt"
	"os"

	"ctxport/internal/config"
	"ctxport/internal/tui"
	"ctxport/internal/ui"
	"ctxport/internal/workspace"
)

// RunWorkspaceAdd registers a workspace alias.
func RunWorkspaceAdd(name, path string) {
	normalized, err := workspace.Normalize(path)
	if err != nil {
		ui.ShowError("Invalid workspace path", err)
		return
	}

	if err := config.AddWorkspace(name, normalized); err != nil {
		ui.ShowError("Failed to add workspace", err)
		return
	}

	ui.ShowSuccess("Workspace '%s' added", name)
	ui.ShowInfo("Path: %s", normalized)
}

// RunWorkspaceRemove drops a workspace alias.
func RunWorkspaceRemove(name string) {
	if err := config.RemoveWorkspace(name); err != nil {
		ui.ShowError("Failed to remove workspace", err)
		return
	}
	ui.ShowSuccess("Workspace '%s' removed", name)
}

// RunWorkspaceList lists the configured aliases.
func RunWorkspaceList() {
	entries, err := config.ListWorkspaces()
	if err != nil {
		ui.ShowError("Failed to load workspaces", err)
		return
	}

	if len(entries) == 0 {
		ui.ShowInfo("No workspaces configured yet")
		ui.ShowInfo("Add one with: ctxport workspace add <name> <path>")
		return
	}

	fmt.Println()
	ui.ShowHeader("Configured Workspaces")
	fmt.Println()
	for _, e := range entries {
		ui.ShowWorkspaceEntry(e.Name, e.Path, e.Exists)
	}
	fmt.Println()
}

// RunWorkspacePick opens the interactive picker and stores the choice as the
// default workspace for stdio connections.
func RunWorkspacePick() {
	cfg, err := config.LoadConfig()
	if err != nil {
		ui.ShowError("Failed to load config", err)
		return
	}

	entries, err := config.ListWorkspaces()
	if err != nil {
		ui.ShowError("Failed to load workspaces", err)
		return
	}

	var detected *workspace.DetectionResult
	if cwd, err := os.Getwd(); err == nil {
		detector := buildDetector(cfg, cwd)
		if result, err := detector.Detect(cwd); err == nil {
			detected = &result
		}
	}

	choice, err := tui.PickWorkspace(entries, detected)
	if err != nil {
		ui.ShowError("Picker failed", err)
		return
	}
	if choice == "" {
		ui.ShowInfo("No workspace selected")
		return
	}

	cfg.DefaultWorkspace = choice
	if err := config.SaveConfig(cfg); err != nil {
		ui.ShowError("Failed to save config", err)
		return
	}
	ui.ShowSuccess("Default workspace set to %s", choice)
}
