// Package discovery finds candidate test classes on disk.
//
// Descriptors found directly in the test directory tree become directory
// artifacts; descriptors stored inside zip archives anywhere in the tree
// become archive artifacts. Results are sorted so runs are reproducible.
package discovery

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/leapstack-labs/leaptest/internal/classpath"
	"github.com/leapstack-labs/leaptest/pkg/core"
)

// ArchiveExt is the extension of archive containers.
const ArchiveExt = ".zip"

// Discoverer produces artifacts for the pipeline.
type Discoverer interface {
	Discover() ([]core.Artifact, error)
}

// FileSystem discovers descriptors under a test directory.
type FileSystem struct {
	root   string
	logger *slog.Logger
}

// NewFileSystem creates a discoverer for the test directory root.
func NewFileSystem(root string, logger *slog.Logger) *FileSystem {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FileSystem{root: filepath.Clean(root), logger: logger}
}

// Root returns the test directory.
func (d *FileSystem) Root() string {
	return d.root
}

// Discover walks the test directory. Hidden directories are skipped.
func (d *FileSystem) Discover() ([]core.Artifact, error) {
	container := filepath.Base(d.root)
	var artifacts []core.Artifact

	err := filepath.WalkDir(d.root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if p != d.root && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		switch {
		case strings.HasSuffix(entry.Name(), classpath.DescriptorExt):
			rel, err := filepath.Rel(d.root, p)
			if err != nil {
				return err
			}
			a := artifactFor(filepath.ToSlash(rel))
			a.Kind = core.ContainerDirectory
			a.Container = container
			a.Dir = d.root
			artifacts = append(artifacts, a)
		case strings.EqualFold(filepath.Ext(entry.Name()), ArchiveExt):
			found, err := d.archive(p)
			if err != nil {
				return err
			}
			artifacts = append(artifacts, found...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover test classes in %s: %w", d.root, err)
	}

	Sort(artifacts)
	d.logger.Debug("discovered test class candidates", "root", d.root, "count", len(artifacts))
	return artifacts, nil
}

func (d *FileSystem) archive(p string) ([]core.Artifact, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", p, err)
	}
	defer zr.Close()

	var out []core.Artifact
	for _, f := range zr.File {
		name := path.Clean(f.Name)
		if f.FileInfo().IsDir() || !strings.HasSuffix(name, classpath.DescriptorExt) {
			continue
		}
		a := artifactFor(name)
		a.Kind = core.ContainerArchive
		a.Container = filepath.Base(p)
		a.Dir = filepath.Dir(p)
		out = append(out, a)
	}
	d.logger.Debug("scanned archive", "archive", p, "count", len(out))
	return out, nil
}

// artifactFor derives package and name from a slash separated descriptor path.
func artifactFor(rel string) core.Artifact {
	dir, file := path.Split(rel)
	pkg := strings.ReplaceAll(strings.Trim(dir, "/"), "/", ".")
	return core.Artifact{
		Name:    strings.TrimSuffix(file, classpath.DescriptorExt),
		Package: pkg,
	}
}

// Sort orders artifacts by qualified name, then container location.
func Sort(artifacts []core.Artifact) {
	sort.SliceStable(artifacts, func(i, j int) bool {
		a, b := artifacts[i], artifacts[j]
		if a.QualifiedName() != b.QualifiedName() {
			return a.QualifiedName() < b.QualifiedName()
		}
		if a.Kind != b.Kind {
			return a.Kind > b.Kind
		}
		return a.ArchivePath() < b.ArchivePath()
	})
}

// Static is a fixed list of artifacts.
type Static []core.Artifact

// Discover implements Discoverer.
func (s Static) Discover() ([]core.Artifact, error) {
	out := make([]core.Artifact, len(s))
	copy(out, s)
	return out, nil
}
