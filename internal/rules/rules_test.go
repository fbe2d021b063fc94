package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	store, err := LoadDefaults()
	require.NoError(t, err)

	assert.Equal(t, ClassTable, store.Class.Name())
	assert.Equal(t, MethodTable, store.Method.Name())

	assert.True(t, store.Class.Knows("Instances"))
	assert.True(t, store.Class.Allows("Instances", "TestClass"))
	assert.True(t, store.Class.Allows("Skip", "TestClass"))
	assert.False(t, store.Class.Allows("Skip", "Instances"), "Skip is sorted after Instances and never its primary")
	assert.Equal(t, []string{"DependsOn", "Skip", "TestClass"}, store.Class.Compatible("DataRef"))
	assert.False(t, store.Class.Allows("DataRef", "Instances"))

	assert.True(t, store.Method.Allows("Skip", "TestMethod"))
	assert.False(t, store.Method.Knows("Instances"))
}

func TestCompatibilityTable_Unknown(t *testing.T) {
	table := NewCompatibilityTable("class", map[string][]string{"A": {"B"}})

	assert.False(t, table.Knows("Z"))
	assert.False(t, table.Allows("Z", "A"))
	assert.Empty(t, table.Compatible("Z"))
	assert.Equal(t, []string{"A"}, table.Primaries())
	assert.Equal(t, 1, table.Len())
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse(ClassTable, []byte("Skip: {nested: true}"))
	require.Error(t, err)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ClassTable, pe.Table)
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	classPath := filepath.Join(dir, "class.yaml")
	require.NoError(t, os.WriteFile(classPath, []byte("Instances: [TestClass]\nTestClass: []\n"), 0o600))

	store, err := LoadFiles(classPath, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"Instances", "TestClass"}, store.Class.Primaries())
	assert.False(t, store.Class.Knows("Skip"), "override replaces the embedded class table")
	assert.True(t, store.Method.Knows("TestMethod"), "method table falls back to the embedded default")
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		missing bool
	}{
		{name: "missing file", missing: true},
		{name: "scalar entry", content: "Skip: TestClass\n"},
		{name: "non-string member", content: "Skip: [1, 2]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			if !tt.missing {
				require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))
			}

			_, err := LoadFile(ClassTable, path)
			require.Error(t, err)
			var pe *ParseError
			assert.ErrorAs(t, err, &pe)
		})
	}
}
