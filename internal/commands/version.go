package commands

import "fmt"

// Version is the CLI version, overridable at build time with -ldflags.
var Version = "1.0.0"

// RunVersion prints the version.
func RunVersion() {
	fmt.Printf("ctxport %s\n", Version)
}
