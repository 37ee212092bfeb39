package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func ShowHeader(title string) {
	fmt.Printf(" %s\n", strings.Repeat("─", len(title)+2))
	fmt.Printf(" %s\n", title)
	fmt.Printf(" %s\n", strings.Repeat("─", len(title)+2))
}

// ShowWorkspaceEntry prints one alias row from the workspace list.
func ShowWorkspaceEntry(name, path string, exists bool) {
	marker := "✓"
	if !exists {
		marker = "✗"
	}
	fmt.Printf("  %s %s\n", marker, name)
	fmt.Printf("     %s\n", path)
}

// ShowDetection prints a detection outcome with its evidence.
func ShowDetection(root, method string, evidence []string) {
	fmt.Printf("  root:   %s\n", root)
	fmt.Printf("  method: %s\n", method)
	if len(evidence) > 0 {
		fmt.Printf("  found:  %s\n", strings.Join(evidence, ", "))
	}
}

func ShowSuccess(format string, args ...interface{}) {
	fmt.Printf(" ✓ %s\n", fmt.Sprintf(format, args...))
}

func ShowError(msg string, err error) {
	if err != nil {
		fmt.Printf(" ✗ %s: %v\n", msg, err)
	} else {
		fmt.Printf(" ✗ %s\n", msg)
	}
}

func ShowWarning(format string, args ...interface{}) {
	fmt.Printf(" ! %s\n", fmt.Sprintf(format, args...))
}

func ShowInfo(format string, args ...interface{}) {
	fmt.Printf(" ℹ %s\n", fmt.Sprintf(format, args...))
}

func CanWriteTo(dir string) bool {
	testFile := filepath.Join(dir, ".test_write")
	f, err := os.Create(testFile)
	if err != nil {
		return false
	}
	f.Close()
	os.Remove(testFile)
	return true
}
