package classpath

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/klauspost/compress/zip"
)

// Scope is a loader scope: a root from which class descriptors are read.
// A fresh scope is created for every resolution attempt and never shared.
type Scope interface {
	// Root returns the directory or archive path the scope reads from.
	Root() string
	// Load reads the descriptor for name and verifies its declared name.
	Load(name string) (*Type, error)
}

// DirScope loads descriptors from a directory tree.
type DirScope struct {
	root string
}

// NewDirScope creates a scope rooted at dir.
func NewDirScope(dir string) *DirScope {
	return &DirScope{root: filepath.Clean(dir)}
}

// Root implements Scope.
func (s *DirScope) Root() string {
	return s.root
}

// Load implements Scope.
func (s *DirScope) Load(name string) (*Type, error) {
	rel, err := DescriptorPath(name)
	if err != nil {
		return nil, err
	}
	full := filepath.Join(s.root, filepath.FromSlash(rel))

	f, err := os.Open(full) //nolint:gosec // G304: path is built from a validated class name under the scope root
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", full, ErrNotFound)
		}
		return nil, err
	}
	defer f.Close()

	return verify(f, full, name, s.root)
}

// ArchiveScope loads descriptors from a zip archive.
type ArchiveScope struct {
	path string
}

// NewArchiveScope creates a scope reading the archive at path.
func NewArchiveScope(archive string) *ArchiveScope {
	return &ArchiveScope{path: filepath.Clean(archive)}
}

// Root implements Scope.
func (s *ArchiveScope) Root() string {
	return s.path
}

// Load implements Scope.
func (s *ArchiveScope) Load(name string) (*Type, error) {
	rel, err := DescriptorPath(name)
	if err != nil {
		return nil, err
	}

	zr, err := zip.OpenReader(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", s.path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if path.Clean(f.Name) != rel {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s in %s: %w", rel, s.path, err)
		}
		defer rc.Close()
		return verify(rc, s.path+"!"+rel, name, s.path)
	}

	return nil, fmt.Errorf("%s!%s: %w", s.path, rel, ErrNotFound)
}

func verify(r io.Reader, location, requested, origin string) (*Type, error) {
	t, err := ParseDescriptor(r)
	if err != nil {
		var de *DescriptorError
		if errors.As(err, &de) {
			de.Path = location
		}
		return nil, err
	}
	if t.Name != requested {
		return nil, &WrongNameError{Path: location, Requested: requested, Declared: t.Name}
	}
	t.Origin = origin
	return t, nil
}
