package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTest(mode OutputMode, isTTY bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

func TestMode(t *testing.T) {
	tests := []struct {
		in   string
		want OutputMode
	}{
		{"text", ModeText},
		{"TEXT", ModeText},
		{"markdown", ModeMarkdown},
		{"md", ModeMarkdown},
		{"json", ModeJSON},
		{"auto", ModeAuto},
		{"", ModeAuto},
		{"yaml", ModeAuto},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Mode(tt.in))
		})
	}
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  OutputMode
		isTTY bool
		want  OutputMode
	}{
		{"auto on terminal", ModeAuto, true, ModeText},
		{"auto piped", ModeAuto, false, ModeMarkdown},
		{"explicit text piped", ModeText, false, ModeText},
		{"explicit json on terminal", ModeJSON, true, ModeJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTest(tt.mode, tt.isTTY)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestNewRenderer_BufferIsNotTerminal(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.False(t, r.IsTTY())
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestHeader(t *testing.T) {
	r, out, _ := newTest(ModeMarkdown, false)
	r.Header(2, "Test Classes")
	assert.Equal(t, "## Test Classes\n\n", out.String())

	r, out, _ = newTest(ModeText, true)
	r.Header(1, "Test Classes")
	assert.Contains(t, out.String(), "Test Classes")
	assert.NotContains(t, out.String(), "#")
}

func TestStatusLine(t *testing.T) {
	r, out, _ := newTest(ModeMarkdown, false)
	r.StatusLine("smoke.LoginTest", "loaded", "2 methods")
	r.StatusLine("util.Helpers", "non-test", "")
	assert.Equal(t, "- smoke.LoginTest: loaded (2 methods)\n- util.Helpers: non-test\n", out.String())

	r, out, _ = newTest(ModeText, true)
	r.StatusLine("smoke.LoginTest", "loaded", "")
	assert.Contains(t, out.String(), "✓")
	assert.Contains(t, out.String(), "smoke.LoginTest")
}

func TestMessages_MarkdownHasNoANSI(t *testing.T) {
	r, out, errOut := newTest(ModeMarkdown, false)
	r.Success("done")
	r.Muted("quiet")
	r.Warning("careful")
	r.Error("broken")

	assert.Equal(t, "done\nquiet\n", out.String())
	assert.Equal(t, "careful\nbroken\n", errOut.String())
}

func TestJSON(t *testing.T) {
	r, out, _ := newTest(ModeJSON, false)
	require.NoError(t, r.JSON(map[string]int{"loaded": 3}))
	assert.Equal(t, "{\n  \"loaded\": 3\n}\n", out.String())
}

func TestTable(t *testing.T) {
	build := func() table.Writer {
		tw := table.NewWriter()
		tw.AppendHeader(table.Row{"Class", "Instances"})
		tw.AppendRow(table.Row{"smoke.LoginTest", 1})
		return tw
	}

	r, out, _ := newTest(ModeMarkdown, false)
	r.Table(build())
	assert.Contains(t, out.String(), "| Class | Instances |")
	assert.Contains(t, out.String(), "| smoke.LoginTest | 1 |")

	r, out, _ = newTest(ModeText, true)
	r.Table(build())
	assert.Contains(t, out.String(), "smoke.LoginTest")
	assert.Contains(t, out.String(), "┌")
}

func TestDiagnostic(t *testing.T) {
	err := errors.New("configuration error in a.B")
	lines := []string{"configuration error in a.B", "  Attribute: @Instances.count", "  Guidance: use a positive integer"}

	t.Run("markdown", func(t *testing.T) {
		r, _, errOut := newTest(ModeMarkdown, false)
		r.Diagnostic(err, lines)
		s := errOut.String()
		assert.True(t, strings.HasPrefix(s, "**Error:** configuration error in a.B"))
		assert.Contains(t, s, "Attribute: @Instances.count")
		assert.Equal(t, 2, strings.Count(s, "```"))
	})

	t.Run("json", func(t *testing.T) {
		r, _, errOut := newTest(ModeJSON, false)
		r.Diagnostic(err, lines)
		assert.Contains(t, errOut.String(), `"error": "configuration error in a.B"`)
		assert.Contains(t, errOut.String(), `"  Guidance: use a positive integer"`)
	})

	t.Run("text without lines", func(t *testing.T) {
		r, _, errOut := newTest(ModeText, false)
		r.Diagnostic(err, nil)
		assert.Equal(t, "Error: configuration error in a.B\n", errOut.String())
	})
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "# Title", FormatHeader(1, "Title"))
	assert.Equal(t, "### Title", FormatHeader(3, "Title"))
	assert.Equal(t, "# Title", FormatHeader(0, "Title"))
	assert.Equal(t, "- **Count:** 3", FormatKeyValue("Count", "3"))
	assert.Equal(t, "- a\n- b", FormatList([]string{"a", "b"}))
	assert.Empty(t, FormatList(nil))
}
