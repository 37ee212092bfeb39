package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// mustNormalize resolves dir through Normalize, failing the test on error.
// Tests compare against this rather than the raw t.TempDir() value because
// temp directories may sit behind symlinks (e.g. /var → /private/var).
func mustNormalize(t *testing.T, dir string) string {
	t.Helper()
	p, err := Normalize(dir)
	if err != nil {
		t.Fatalf("Normalize(%q): %v", dir, err)
	}
	return p
}

func TestNormalizeIdempotent(t *testing.T) {
	dir := t.TempDir()
	once := mustNormalize(t, dir)
	twice := mustNormalize(t, once)
	if once != twice {
		t.Errorf("Normalize not idempotent: %q then %q", once, twice)
	}
}

func TestNormalizeEquivalentSpellings(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "proj")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	want := mustNormalize(t, sub)
	spellings := []string{
		sub + string(filepath.Separator),
		filepath.Join(sub, "..", "proj"),
		"file://" + filepath.ToSlash(sub),
	}
	for _, s := range spellings {
		got, err := Normalize(s)
		if err != nil {
			t.Errorf("Normalize(%q): %v", s, err)
			continue
		}
		if got != want {
			t.Errorf("Normalize(%q) = %q, want %q", s, got, want)
		}
	}
}

func TestNormalizeFileURIPercentDecoding(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "my proj")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	uri := "file://" + filepath.ToSlash(dir) + "/my%20proj"
	got, err := Normalize(uri)
	if err != nil {
		t.Fatalf("Normalize(%q): %v", uri, err)
	}
	if want := mustNormalize(t, sub); got != want {
		t.Errorf("Normalize(%q) = %q, want %q", uri, got, want)
	}
}

func TestNormalizeRejectsBadScheme(t *testing.T) {
	_, err := Normalize("https://example.com/proj")
	var invalid *InvalidIdentifierError
	if !errors.As(err, &invalid) {
		t.Fatalf("want InvalidIdentifierError, got %v", err)
	}
}

func TestNormalizeRejectsEmpty(t *testing.T) {
	for _, in := range []string{"", "   "} {
		_, err := Normalize(in)
		var invalid *InvalidIdentifierError
		if !errors.As(err, &invalid) {
			t.Errorf("Normalize(%q): want InvalidIdentifierError, got %v", in, err)
		}
	}
}

func TestNormalizeRejectsUnexpandedVariable(t *testing.T) {
	_, err := Normalize("${workspaceFolder}")
	var invalid *InvalidIdentifierError
	if !errors.As(err, &invalid) {
		t.Fatalf("want InvalidIdentifierError, got %v", err)
	}
}

func TestNormalizeMissingDirectory(t *testing.T) {
	_, err := Normalize(filepath.Join(t.TempDir(), "nope"))
	var notDir *NotADirectoryError
	if !errors.As(err, &notDir) {
		t.Fatalf("want NotADirectoryError, got %v", err)
	}
}

func TestNormalizeRejectsRegularFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Normalize(file)
	var notDir *NotADirectoryError
	if !errors.As(err, &notDir) {
		t.Fatalf("want NotADirectoryError, got %v", err)
	}
}
