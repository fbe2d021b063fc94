package config

import (
	"fmt"
	"os"
	"strings"
)

// OutputFormats are the accepted values of the output key.
var OutputFormats = []string{"auto", "text", "markdown", "json"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.TestDir == "" {
		return fmt.Errorf("test_dir is required")
	}
	if c.MarkerNamespace == "" || strings.ContainsAny(c.MarkerNamespace, " \t") {
		return fmt.Errorf("marker_namespace %q is invalid", c.MarkerNamespace)
	}
	for _, f := range OutputFormats {
		if c.OutputFormat == f {
			return nil
		}
	}
	return fmt.Errorf("output %q is invalid (expected one of %s)", c.OutputFormat, strings.Join(OutputFormats, ", "))
}

// ValidateDirectories checks if required directories and files exist.
func (c *Config) ValidateDirectories() error {
	if _, err := os.Stat(c.TestDir); os.IsNotExist(err) {
		return fmt.Errorf("test directory does not exist: %s\nHint: Create the directory or use --test-dir to specify a different path", c.TestDir)
	}
	for _, p := range []string{c.Rules.Class, c.Rules.Method} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("rules file does not exist: %s\nHint: Remove the rules entry to use the built-in tables", p)
		}
	}
	return nil
}
