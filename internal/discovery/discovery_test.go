package discovery

import (
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leaptest/internal/testutil"
	"github.com/leapstack-labs/leaptest/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSystem_Discover(t *testing.T) {
	root := filepath.Join(t.TempDir(), "tests")
	testutil.WriteFile(t, root, "smoke/LoginTest.class.yaml", testutil.ClassDescriptor("smoke.LoginTest"))
	testutil.WriteFile(t, root, "RootTest.class.yaml", testutil.ClassDescriptor("RootTest"))
	testutil.WriteFile(t, root, "smoke/README.md", "not a descriptor")
	testutil.WriteFile(t, root, ".cache/Hidden.class.yaml", testutil.ClassDescriptor("Hidden"))
	testutil.WriteArchive(t, filepath.Join(root, "lib", "cart.zip"), map[string]string{
		"shop/CartTest.class.yaml": testutil.ClassDescriptor("shop.CartTest"),
		"shop/notes.txt":           "ignored",
	})

	d := NewFileSystem(root, testutil.NewTestLogger(t))
	artifacts, err := d.Discover()

	require.NoError(t, err)
	assert.Equal(t, []core.Artifact{
		{Name: "RootTest", Kind: core.ContainerDirectory, Container: "tests", Dir: root},
		{Name: "CartTest", Package: "shop", Kind: core.ContainerArchive, Container: "cart.zip", Dir: filepath.Join(root, "lib")},
		{Name: "LoginTest", Package: "smoke", Kind: core.ContainerDirectory, Container: "tests", Dir: root},
	}, artifacts)
}

func TestFileSystem_Discover_MissingRoot(t *testing.T) {
	d := NewFileSystem(filepath.Join(t.TempDir(), "missing"), nil)

	_, err := d.Discover()

	assert.Error(t, err)
}

func TestFileSystem_Discover_BrokenArchive(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "broken.zip", "not a zip")

	_, err := NewFileSystem(root, nil).Discover()

	assert.ErrorContains(t, err, "broken.zip")
}

func TestSort(t *testing.T) {
	artifacts := []core.Artifact{
		{Name: "B", Kind: core.ContainerDirectory},
		{Name: "A", Kind: core.ContainerArchive, Container: "a.zip"},
		{Name: "A", Kind: core.ContainerDirectory},
	}

	Sort(artifacts)

	assert.Equal(t, "A", artifacts[0].Name)
	assert.Equal(t, core.ContainerDirectory, artifacts[0].Kind, "directory before archive for the same name")
	assert.Equal(t, core.ContainerArchive, artifacts[1].Kind)
	assert.Equal(t, "B", artifacts[2].Name)
}

func TestStatic_Discover(t *testing.T) {
	s := Static{{Name: "A"}}
	got, err := s.Discover()
	require.NoError(t, err)
	got[0].Name = "changed"
	assert.Equal(t, "A", s[0].Name)
}
