package commands

import (
	"fmt"
	"os"

	"ctxport/internal/config"
	"ctxport/internal/ui"
	"ctxport/internal/workspace"
)

// RunDetect explains what workspace detection would decide for a directory.
func RunDetect(start string) {
	cfg, err := config.LoadConfig()
	if err != nil {
		ui.ShowError("Failed to load config", err)
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		ui.ShowError("Cannot determine working directory", err)
		os.Exit(1)
	}
	if start == "" {
		start = cwd
	}

	detector := buildDetector(cfg, cwd)
	resolver := workspace.NewResolver(
		workspace.NewSessionStore(cfg.MaxSessions),
		workspace.NewRootsRegistry(),
		detector,
		workspace.ProcessDefaults{Cwd: cwd, Transport: workspace.TransportStdio},
	)

	diag, err := resolver.Diagnose(start)
	if err != nil {
		ui.ShowError("Detection failed", err)
		os.Exit(1)
	}

	fmt.Println()
	ui.ShowHeader("Workspace Detection")
	fmt.Println()
	fmt.Printf("  start:  %s\n", diag.Start)
	ui.ShowDetection(diag.Result.Root, string(diag.Result.Method), diag.Result.Evidence)
	fmt.Printf("  depth:  %d\n", diag.DepthLimit)
	for name, value := range diag.Hints {
		fmt.Printf("  env:    %s=%s\n", name, value)
	}
	fmt.Println()
}
