package classpath

import (
	"strings"
	"testing"

	"github.com/leapstack-labs/leaptest/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDescriptor(t *testing.T) {
	src := `
class: smoke.CartTest
markers:
  - name: leaptest.TestClass
    params:
      creatorThreads: 2
  - name: org.other.Tag
constructors:
  - params: []
  - params: [leaptest.TestContext]
methods:
  - name: addItem
    markers:
      - name: leaptest.TestMethod
`
	typ, err := ParseDescriptor(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, "smoke.CartTest", typ.QualifiedName())
	assert.Equal(t, "CartTest", typ.SimpleName())
	require.Len(t, typ.DeclaredMarkers(), 2)
	assert.Equal(t, 2, typ.Markers[0].Params["creatorThreads"])
	assert.True(t, typ.HasConstructor())
	assert.True(t, typ.HasConstructor(core.ContextParamType))
	assert.False(t, typ.HasConstructor("string"))
	require.Len(t, typ.Methods(), 1)
	assert.Equal(t, "addItem", typ.Methods()[0].Name)
}

func TestParseDescriptor_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "empty", src: "", want: "empty descriptor"},
		{name: "missing class", src: "markers: []\n", want: `missing required field "class"`},
		{name: "unknown field", src: "class: A\nextends: B\n", want: "extends"},
		{name: "unnamed marker", src: "class: A\nmarkers:\n  - params: {}\n", want: "marker 1 has no name"},
		{name: "unnamed method", src: "class: A\nmethods:\n  - markers: []\n", want: "method 1 has no name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDescriptor(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDescriptorPath(t *testing.T) {
	got, err := DescriptorPath("suites.smoke.LoginTest")
	require.NoError(t, err)
	assert.Equal(t, "suites/smoke/LoginTest.class.yaml", got)

	for _, bad := range []string{"", "a..b", "a/b", ".a"} {
		_, err := DescriptorPath(bad)
		assert.Error(t, err, bad)
	}
}
