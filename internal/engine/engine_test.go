package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/leaptest/internal/discovery"
	"github.com/leapstack-labs/leaptest/internal/state"
	"github.com/leapstack-labs/leaptest/internal/testutil"
	"github.com/leapstack-labs/leaptest/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const checkoutDescriptor = `class: shop.CheckoutTest
markers:
  - name: leaptest.TestClass
  - name: leaptest.DependsOn
    params: {classes: [smoke.LoginTest]}
  - name: leaptest.Instances
    params: {count: 2}
constructors:
  - params: [leaptest.TestContext]
methods:
  - name: pay
    markers:
      - name: leaptest.TestMethod
      - name: leaptest.DependsOn
        params: {classes: ["smoke.LoginTest#login"]}
`

const loginDescriptor = `class: smoke.LoginTest
markers:
  - name: leaptest.TestClass
constructors:
  - params: []
methods:
  - name: login
    markers:
      - name: leaptest.TestMethod
`

// setupProject lays out a test tree exercising every resolution path:
// primary, fallback, archive, non-test, skipped and unresolved.
func setupProject(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "tests")
	// declared relative to suites/, found through the fallback partition
	testutil.WriteFile(t, root, "suites/smoke/LoginTest.class.yaml", loginDescriptor)
	testutil.WriteFile(t, root, "util/Helpers.class.yaml", testutil.ClassDescriptor("util.Helpers"))
	testutil.WriteFile(t, root, "legacy/OldTest.class.yaml",
		testutil.ClassDescriptor("legacy.OldTest", "leaptest.TestClass", "leaptest.Skip"))
	testutil.WriteFile(t, root, "broken/Renamed.class.yaml",
		testutil.ClassDescriptor("somewhere.Else", "leaptest.TestClass"))
	testutil.WriteArchive(t, filepath.Join(root, "lib", "shop.zip"), map[string]string{
		"shop/CheckoutTest.class.yaml": checkoutDescriptor,
	})
	return root
}

func TestEngine_Run(t *testing.T) {
	root := setupProject(t)
	e, err := New(Config{TestDir: root, Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)

	result, err := e.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, result.Loaded)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.NonTest)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "broken.Renamed", result.Errors[0].Artifact.QualifiedName())
	assert.False(t, core.IsFatal(result.Errors[0].Err))
	assert.False(t, result.Persisted)
	assert.NotEmpty(t, result.RunID)
	assert.Contains(t, result.Summary(), "Loaded: 3 test classes (1 skipped)")

	reg := result.Registry
	assert.Equal(t, []string{"util.Helpers"}, reg.NonTestNames())

	login, ok := reg.Get("smoke.LoginTest")
	require.True(t, ok, "fallback resolution registers the declared name")
	assert.Equal(t, filepath.Join(root, "suites"), login.Origin)

	checkout, ok := reg.Get("shop.CheckoutTest")
	require.True(t, ok)
	assert.Equal(t, core.ConstructorSingleContext, checkout.Constructor)
	assert.Equal(t, 2, checkout.InstanceCount)
	assert.Len(t, checkout.Dependencies, 2)
	assert.Equal(t, filepath.Join(root, "lib", "shop.zip"), checkout.Origin)

	levels, err := reg.Graph().ExecutionLevels()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"legacy.OldTest", "smoke.LoginTest"}, {"shop.CheckoutTest"}}, levels)
}

func TestEngine_Run_FatalConfigurationError(t *testing.T) {
	root := setupProject(t)
	testutil.WriteFile(t, root, "bad/BadTest.class.yaml", `class: bad.BadTest
markers:
  - name: leaptest.TestClass
    params: {creatorThreads: 0}
constructors:
  - params: []
`)
	e, err := New(Config{TestDir: root})
	require.NoError(t, err)

	result, err := e.Run(context.Background())

	assert.Nil(t, result, "no partial registry on fatal errors")
	var cfgErr *core.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "bad.BadTest", cfgErr.Class)
}

func TestEngine_Run_DependencyCycle(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "A.class.yaml", `class: A
markers:
  - name: leaptest.TestClass
  - name: leaptest.DependsOn
    params: {classes: [B]}
constructors:
  - params: []
`)
	testutil.WriteFile(t, root, "B.class.yaml", `class: B
markers:
  - name: leaptest.TestClass
  - name: leaptest.DependsOn
    params: {classes: [A, Missing]}
constructors:
  - params: []
`)
	e, err := New(Config{TestDir: root})
	require.NoError(t, err)

	_, err = e.Run(context.Background())

	var depErr *core.DependencyValidationError
	require.ErrorAs(t, err, &depErr)
	assert.Len(t, depErr.Edges(core.DependencyCycle), 2)
	assert.Len(t, depErr.Edges(core.DependencyUnresolved), 1)
}

func TestEngine_Run_Persist(t *testing.T) {
	root := setupProject(t)
	store := state.NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	defer store.Close()

	e, err := New(Config{TestDir: root, Store: store})
	require.NoError(t, err)

	result, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Persisted)

	run, err := store.LatestRun()
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, result.RunID, run.ID)
	assert.Equal(t, 3, run.Loaded)
	assert.Equal(t, 1, run.LoadErrors)

	defs, err := store.ListDefinitions(run.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Registry.All(), defs)
}

func TestEngine_Run_PersistFailedRun(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "A.class.yaml", `class: A
markers:
  - name: leaptest.TestClass
  - name: leaptest.DependsOn
    params: {classes: [Missing]}
constructors:
  - params: []
`)
	store := state.NewSQLiteStore(nil)
	require.NoError(t, store.Open(":memory:"))
	defer store.Close()
	e, err := New(Config{TestDir: root, Store: store})
	require.NoError(t, err)

	_, err = e.Run(context.Background())
	require.Error(t, err)

	latest, err := store.LatestRun()
	require.NoError(t, err)
	assert.Nil(t, latest, "failed runs are recorded but never become the latest catalog")
}

func TestEngine_Run_Cancelled(t *testing.T) {
	root := setupProject(t)
	e, err := New(Config{TestDir: root})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = e.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_Run_StaticDiscoverer(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "pkg/OnlyTest.class.yaml",
		testutil.ClassDescriptor("pkg.OnlyTest", "leaptest.TestClass"))
	testutil.WriteFile(t, root, "pkg/Ignored.class.yaml",
		testutil.ClassDescriptor("pkg.Ignored", "leaptest.TestClass"))

	e, err := New(Config{
		TestDir:    root,
		Discoverer: discovery.Static{{Name: "OnlyTest", Package: "pkg", Kind: core.ContainerDirectory}},
	})
	require.NoError(t, err)

	result, err := e.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Registry.Count())
}

func TestEngine_Run_CustomNamespace(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "AcmeTest.class.yaml",
		testutil.ClassDescriptor("AcmeTest", "acme.TestClass"))
	testutil.WriteFile(t, root, "LeapTest.class.yaml",
		testutil.ClassDescriptor("LeapTest", "leaptest.TestClass"))

	e, err := New(Config{TestDir: root, MarkerNamespace: "acme"})
	require.NoError(t, err)

	result, err := e.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Loaded)
	assert.Equal(t, []string{"LeapTest"}, result.Registry.NonTestNames())
}

func TestNew_RequiresTestDir(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestEngine_Watch(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "FirstTest.class.yaml",
		testutil.ClassDescriptor("FirstTest", "leaptest.TestClass"))
	e, err := New(Config{TestDir: root, Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	counts := make(chan int, 8)
	done := make(chan error, 1)
	go func() {
		done <- e.Watch(ctx, 20*time.Millisecond, func(res *Result, err error) {
			if err == nil {
				counts <- res.Loaded
			}
		})
	}()

	select {
	case n := <-counts:
		assert.Equal(t, 1, n)
	case <-time.After(5 * time.Second):
		t.Fatal("initial run did not happen")
	}

	testutil.WriteFile(t, root, "SecondTest.class.yaml",
		testutil.ClassDescriptor("SecondTest", "leaptest.TestClass"))

	select {
	case n := <-counts:
		assert.Equal(t, 2, n)
	case <-time.After(5 * time.Second):
		t.Fatal("change did not trigger a rerun")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
