package workspace

import (
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Normalize converts a raw workspace identifier — a bare filesystem path or a
// file:// URI — into a canonical absolute directory path. Normalization is
// idempotent: feeding the result back in yields the identical string.
//
// The returned path has been verified to exist and be a directory at the time
// of the call. Callers doing filesystem work later must still tolerate the
// directory disappearing between resolution and use.
func Normalize(identifier string) (string, error) {
	s := strings.TrimSpace(identifier)
	if s == "" {
		return "", &InvalidIdentifierError{Input: identifier, Reason: "empty identifier"}
	}
	if strings.HasPrefix(s, "${") {
		// An IDE variable like ${workspaceFolder} the client never expanded.
		return "", &InvalidIdentifierError{Input: identifier, Reason: "unexpanded editor variable"}
	}

	p := s
	if i := strings.Index(s, "://"); i >= 0 {
		if !strings.EqualFold(s[:i], "file") {
			return "", &InvalidIdentifierError{Input: identifier, Reason: "unsupported URI scheme " + s[:i]}
		}
		u, err := url.Parse(s)
		if err != nil {
			return "", &InvalidIdentifierError{Input: identifier, Reason: "unparseable file URI"}
		}
		p = u.Path
		if p == "" {
			return "", &InvalidIdentifierError{Input: identifier, Reason: "file URI has no path"}
		}
		p = stripDriveSlash(p)
	}

	abs, err := filepath.Abs(filepath.FromSlash(p))
	if err != nil {
		return "", &InvalidIdentifierError{Input: identifier, Reason: err.Error()}
	}

	// EvalSymlinks both canonicalizes and confirms existence.
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", &NotADirectoryError{Path: abs}
	}
	info, err := os.Stat(resolved)
	if err != nil || !info.IsDir() {
		return "", &NotADirectoryError{Path: resolved}
	}
	return resolved, nil
}

// stripDriveSlash removes the leading separator a file URI leaves in front of
// a Windows drive letter ("/C:/Users/x" → "C:/Users/x").
func stripDriveSlash(p string) string {
	if runtime.GOOS != "windows" {
		return p
	}
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' && isASCIILetter(p[1]) {
		return p[1:]
	}
	return p
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
