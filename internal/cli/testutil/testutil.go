// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/leaptest/internal/cli/output"
	"github.com/leapstack-labs/leaptest/internal/testutil"
)

// LoginDescriptor is a plain test class with one test method.
const LoginDescriptor = `class: smoke.LoginTest
markers:
  - name: leaptest.TestClass
constructors:
  - params: []
methods:
  - name: login
    markers:
      - name: leaptest.TestMethod
`

// CheckoutDescriptor depends on LoginTest and runs two instances with
// user supplied properties.
const CheckoutDescriptor = `class: shop.CheckoutTest
markers:
  - name: leaptest.TestClass
  - name: leaptest.DependsOn
    params: {classes: [smoke.LoginTest]}
  - name: leaptest.Instances
    params:
      count: 2
      properties:
        - {env: dev}
        - {env: prod}
constructors:
  - params: [leaptest.TestContext]
methods:
  - name: pay
    markers:
      - name: leaptest.TestMethod
  - name: refund
    markers:
      - name: leaptest.TestMethod
      - name: leaptest.Skip
`

// SetupTestProject creates a temporary project with a test tree holding
// two test classes, one non-test class and one descriptor whose declared
// name does not match its location. It returns the project root; the test
// tree is its "tests" directory.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	tests := filepath.Join(root, "tests")
	testutil.WriteFile(t, tests, "smoke/LoginTest.class.yaml", LoginDescriptor)
	testutil.WriteFile(t, tests, "shop/CheckoutTest.class.yaml", CheckoutDescriptor)
	testutil.WriteFile(t, tests, "util/Helpers.class.yaml", testutil.ClassDescriptor("util.Helpers"))
	testutil.WriteFile(t, tests, "broken/Renamed.class.yaml",
		testutil.ClassDescriptor("somewhere.Else", "leaptest.TestClass"))
	return root
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererJSON creates a new test renderer in JSON mode.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns the combined stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// Reset clears both output buffers.
func (tr *TestRenderer) Reset() {
	tr.Out.Reset()
	tr.ErrOut.Reset()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	fenceCount := strings.Count(md, "```")
	if fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	lines := strings.Split(md, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
