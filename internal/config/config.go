// Package config loads leaptest configuration.
//
// Values are layered with koanf, lowest to highest precedence: built-in
// defaults, the project file (leaptest.yaml or leaptest.yml), LEAPTEST_
// environment variables and explicitly set command-line flags. Relative
// paths are resolved against the project root, which is the directory of
// the config file or the working directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/leapstack-labs/leaptest/pkg/core"
	"github.com/spf13/pflag"
)

// Config file names, in lookup order.
const (
	ConfigFileName    = "leaptest.yaml"
	ConfigFileNameAlt = "leaptest.yml"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "LEAPTEST_"

// Default configuration values.
const (
	DefaultTestDir   = "tests"
	DefaultStateFile = ".leaptest/catalog.db"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// RulesConfig points at user supplied marker compatibility tables.
type RulesConfig struct {
	Class  string `koanf:"class"`
	Method string `koanf:"method"`
}

// Config holds all leaptest configuration options.
type Config struct {
	TestDir         string      `koanf:"test_dir"`
	MarkerNamespace string      `koanf:"marker_namespace"`
	Rules           RulesConfig `koanf:"rules"`
	StatePath       string      `koanf:"state_path"`
	Persist         bool        `koanf:"persist"`
	OutputFormat    string      `koanf:"output"`
	Verbose         bool        `koanf:"verbose"`

	// ProjectRoot is the base for relative paths.
	ProjectRoot string `koanf:"-"`
	// FileUsed is the config file that was loaded, if any.
	FileUsed string `koanf:"-"`
}

// defaults are the lowest configuration layer.
func defaults() map[string]any {
	return map[string]any{
		"test_dir":         DefaultTestDir,
		"marker_namespace": core.DefaultMarkerNamespace,
		"rules.class":      "",
		"rules.method":     "",
		"state_path":       DefaultStateFile,
		"persist":          false,
		"output":           DefaultOutput,
		"verbose":          false,
	}
}

// flagKeys maps flag names to config keys where they differ.
var flagKeys = map[string]string{
	"state":        "state_path",
	"class-rules":  "rules.class",
	"method-rules": "rules.method",
	"namespace":    "marker_namespace",
}

// Load builds the configuration. cfgFile may be empty to search the working
// directory and its parents; flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	projectRoot, err := os.Getwd()
	if err != nil {
		projectRoot = "."
	}
	if cfgFile == "" {
		if root := findProjectRootUpward(projectRoot); root != "" {
			projectRoot = root
			cfgFile = findConfigFile(root)
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
		if abs, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}

	// 3. Environment: LEAPTEST_TEST_DIR -> test_dir, LEAPTEST_RULES__CLASS -> rules.class
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, only those explicitly set
	var flagPaths map[string]string
	if flags != nil {
		flagPaths = absoluteFlagPaths(flags)
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot
	cfg.FileUsed = cfgFile

	// Paths given as flags are relative to the working directory; everything
	// else is relative to the project root.
	cfg.TestDir = pickPath(flagPaths["test-dir"], cfg.TestDir, projectRoot)
	cfg.StatePath = pickPath(flagPaths["state"], cfg.StatePath, projectRoot)
	cfg.Rules.Class = pickPath(flagPaths["class-rules"], cfg.Rules.Class, projectRoot)
	cfg.Rules.Method = pickPath(flagPaths["method-rules"], cfg.Rules.Method, projectRoot)

	return &cfg, nil
}

func absoluteFlagPaths(flags *pflag.FlagSet) map[string]string {
	out := make(map[string]string)
	for _, name := range []string{"test-dir", "state", "class-rules", "method-rules"} {
		if !flags.Changed(name) {
			continue
		}
		if v, _ := flags.GetString(name); v != "" && v != ":memory:" {
			if abs, err := filepath.Abs(v); err == nil {
				out[name] = abs
			}
		}
	}
	return out
}

func pickPath(fromFlag, value, base string) string {
	if fromFlag != "" {
		return fromFlag
	}
	return resolvePathRelativeTo(value, base)
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty, absolute or ":memory:".
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// findConfigFile finds the config file in dir.
// Returns empty string if not found.
func findConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findProjectRootUpward searches upward from startDir for a config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if findConfigFile(dir) != "" {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
