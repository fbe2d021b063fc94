package classpath

import (
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leaptest/internal/testutil"
	"github.com/leapstack-labs/leaptest/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Plan_Directory(t *testing.T) {
	r := NewResolver("/work/tests", nil)
	artifact := core.Artifact{Name: "LoginTest", Package: "suites.smoke", Kind: core.ContainerDirectory}

	plan := r.Plan(artifact)

	want := []Attempt{
		{Strategy: StrategyPrimary, Kind: core.ContainerDirectory, Root: "/work/tests", Name: "suites.smoke.LoginTest"},
		{Strategy: StrategyFallback, Kind: core.ContainerDirectory, Root: filepath.Join("/work/tests", "suites"), Name: "smoke.LoginTest"},
		{Strategy: StrategyFallback, Kind: core.ContainerDirectory, Root: filepath.Join("/work/tests", "suites", "smoke"), Name: "LoginTest"},
	}
	assert.Equal(t, want, plan, "most specific partition first, duplicate of primary dropped")
}

func TestResolver_Plan_Archive(t *testing.T) {
	r := NewResolver("/work/tests", nil)
	artifact := core.Artifact{
		Name:      "LoginTest",
		Package:   "suites.smoke",
		Kind:      core.ContainerArchive,
		Container: "smoke.zip",
		Dir:       "/work/tests/lib",
	}

	plan := r.Plan(artifact)

	require.Len(t, plan, 1, "archives get no fallback")
	assert.Equal(t, filepath.Join("/work/tests/lib", "smoke.zip"), plan[0].Root)
	assert.Equal(t, "suites.smoke.LoginTest", plan[0].Name)
}

func TestResolver_Resolve_Primary(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "suites/smoke/LoginTest.class.yaml",
		testutil.ClassDescriptor("suites.smoke.LoginTest", "leaptest.TestClass"))

	r := NewResolver(dir, testutil.NewTestLogger(t))
	typ, err := r.Resolve(core.Artifact{Name: "LoginTest", Package: "suites.smoke", Kind: core.ContainerDirectory})

	require.NoError(t, err)
	assert.Equal(t, "suites.smoke.LoginTest", typ.QualifiedName())
	assert.Equal(t, "LoginTest", typ.SimpleName())
	assert.Equal(t, filepath.Clean(dir), typ.Origin)
}

func TestResolver_Resolve_Fallback(t *testing.T) {
	dir := t.TempDir()
	// The descriptor lives under suites/ but declares a name relative to suites/.
	testutil.WriteFile(t, dir, "suites/smoke/LoginTest.class.yaml",
		testutil.ClassDescriptor("smoke.LoginTest", "leaptest.TestClass"))

	r := NewResolver(dir, testutil.NewTestLogger(t))
	artifact := core.Artifact{Name: "LoginTest", Package: "suites.smoke", Kind: core.ContainerDirectory}

	typ, err := r.Resolve(artifact)
	require.NoError(t, err)
	assert.Equal(t, "smoke.LoginTest", typ.QualifiedName())
	assert.Equal(t, filepath.Join(dir, "suites"), typ.Origin)

	again, err := r.Resolve(artifact)
	require.NoError(t, err)
	assert.Equal(t, typ.QualifiedName(), again.QualifiedName(), "resolution is repeatable with fresh scopes")
	assert.NotSame(t, typ, again)
}

func TestResolver_Resolve_LeafFallback(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "a/b/C.class.yaml", testutil.ClassDescriptor("C"))

	r := NewResolver(dir, nil)
	typ, err := r.Resolve(core.Artifact{Name: "C", Package: "a.b", Kind: core.ContainerDirectory})

	require.NoError(t, err)
	assert.Equal(t, "C", typ.QualifiedName())
	assert.Equal(t, filepath.Join(dir, "a", "b"), typ.Origin)
}

func TestResolver_Resolve_NotFound(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "a/b/C.class.yaml", testutil.ClassDescriptor("x.y.Other"))

	r := NewResolver(dir, nil)
	_, err := r.Resolve(core.Artifact{Name: "C", Package: "a.b", Kind: core.ContainerDirectory})

	var loadErr *core.ClassLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "a.b.C", loadErr.Class)
	assert.Len(t, loadErr.Attempts, 3)
	assert.False(t, core.IsFatal(err))

	var wrong *WrongNameError
	assert.ErrorAs(t, err, &wrong)
}

func TestResolver_Resolve_Archive(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "lib", "smoke.zip")
	testutil.WriteArchive(t, archive, map[string]string{
		"suites/smoke/LoginTest.class.yaml": testutil.ClassDescriptor("suites.smoke.LoginTest", "leaptest.TestClass"),
		"suites/smoke/Moved.class.yaml":     testutil.ClassDescriptor("smoke.Moved", "leaptest.TestClass"),
	})

	r := NewResolver(dir, nil)
	base := core.Artifact{Package: "suites.smoke", Kind: core.ContainerArchive, Container: "smoke.zip", Dir: filepath.Join(dir, "lib")}

	login := base
	login.Name = "LoginTest"
	typ, err := r.Resolve(login)
	require.NoError(t, err)
	assert.Equal(t, "suites.smoke.LoginTest", typ.QualifiedName())
	assert.Equal(t, archive, typ.Origin)

	moved := base
	moved.Name = "Moved"
	_, err = r.Resolve(moved)
	var loadErr *core.ClassLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Len(t, loadErr.Attempts, 1, "no fallback for archives")
}

func TestDirScope_Load_InvalidDescriptor(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "Bad.class.yaml", "class: Bad\nunexpected: true\n")

	_, err := NewDirScope(dir).Load("Bad")

	var de *DescriptorError
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Path, "Bad.class.yaml")
}
