package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
)

// WriteFile writes content to root/rel, creating parent directories.
// It returns the absolute path of the written file.
func WriteFile(t testing.TB, root, rel, content string) string {
	t.Helper()

	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		t.Fatalf("failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", rel, err)
	}
	return full
}

// WriteArchive writes a zip archive at path holding the given entries
// (entry name -> content). Entries are written in sorted order.
func WriteArchive(t testing.TB, path string, entries map[string]string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	f, err := os.Create(path) //nolint:gosec // test fixture path
	if err != nil {
		t.Fatalf("failed to create archive %s: %v", path, err)
	}
	defer f.Close()

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	zw := zip.NewWriter(f)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to add %s to archive: %v", name, err)
		}
		if _, err := w.Write([]byte(entries[name])); err != nil {
			t.Fatalf("failed to write %s to archive: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close archive %s: %v", path, err)
	}
}

// ClassDescriptor renders a minimal class descriptor for name carrying the
// given namespaced markers (without parameters) and a no-arg constructor.
func ClassDescriptor(name string, markers ...string) string {
	var b strings.Builder
	b.WriteString("class: " + name + "\n")
	if len(markers) > 0 {
		b.WriteString("markers:\n")
		for _, m := range markers {
			b.WriteString("  - name: " + m + "\n")
		}
	}
	b.WriteString("constructors:\n  - params: []\n")
	return b.String()
}
