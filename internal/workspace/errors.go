package workspace

import (
	"fmt"
	"strings"
)

// InvalidIdentifierError reports a malformed workspace identifier (bad URI
// scheme, empty input, unexpanded IDE variable). Client error, not fatal.
type InvalidIdentifierError struct {
	Input  string
	Reason string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid workspace identifier %q: %s (pass an absolute directory path or a file:// URI)",
		e.Input, e.Reason)
}

// NotADirectoryError reports a well-formed identifier that does not resolve
// to an existing directory.
type NotADirectoryError struct {
	Path string
}

func (e *NotADirectoryError) Error() string {
	return fmt.Sprintf("workspace path %q is not an existing directory (create it, or point at the project root)",
		e.Path)
}

// AmbiguousWorkspaceError is returned when the client declared multiple roots
// but never selected one. The server refuses to guess.
type AmbiguousWorkspaceError struct {
	Candidates []string
}

func (e *AmbiguousWorkspaceError) Error() string {
	return fmt.Sprintf("multiple workspace roots declared, none selected: %s (call set_workspace, or pass workspace_id / the X-Workspace-Id header on each request)",
		strings.Join(e.Candidates, ", "))
}

// NoWorkspaceAvailableError is returned when no signal at all identified a
// workspace for the session.
type NoWorkspaceAvailableError struct {
	AutoDetect bool
}

func (e *NoWorkspaceAvailableError) Error() string {
	msg := "no workspace available for this session: call set_workspace, pass workspace_id or the X-Workspace-Id header, or restart the server with --workspace"
	if e.AutoDetect {
		msg += " (auto-detection found no usable start directory)"
	}
	return msg
}

// RootsMismatchError rejects an explicit selection that falls outside every
// root the client declared. Declared roots are a boundary, not a hint.
type RootsMismatchError struct {
	Path  string
	Roots []string
}

func (e *RootsMismatchError) Error() string {
	return fmt.Sprintf("workspace %q is outside the declared client roots [%s]: select a directory under one of the declared roots, or re-declare roots to include it",
		e.Path, strings.Join(e.Roots, ", "))
}
