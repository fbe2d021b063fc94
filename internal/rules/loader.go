package rules

import (
	"fmt"
	"sort"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadFiles loads the class and method tables from user supplied files.
// An empty path falls back to the embedded default for that table.
func LoadFiles(classPath, methodPath string) (*Store, error) {
	store, err := LoadDefaults()
	if err != nil {
		return nil, err
	}

	if classPath != "" {
		if store.Class, err = LoadFile(ClassTable, classPath); err != nil {
			return nil, err
		}
	}
	if methodPath != "" {
		if store.Method, err = LoadFile(MethodTable, methodPath); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// LoadFile loads a single rule table from a YAML file.
func LoadFile(name, path string) (*CompatibilityTable, error) {
	// Marker names never contain "/", so nested maps cannot be confused with entries.
	k := koanf.New("/")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, &ParseError{Table: name, Path: path, Message: err.Error()}
	}

	raw := k.Raw()
	primaries := make([]string, 0, len(raw))
	for primary := range raw {
		primaries = append(primaries, primary)
	}
	sort.Strings(primaries)

	rules := make(map[string][]string, len(raw))
	for _, primary := range primaries {
		list, ok := raw[primary].([]any)
		if !ok && raw[primary] != nil {
			return nil, &ParseError{
				Table:   name,
				Path:    path,
				Message: fmt.Sprintf("entry %q must be a list of marker names, got %T", primary, raw[primary]),
			}
		}
		names := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, &ParseError{
					Table:   name,
					Path:    path,
					Message: fmt.Sprintf("entry %q contains non-string value %v", primary, item),
				}
			}
			names = append(names, s)
		}
		rules[primary] = names
	}

	return NewCompatibilityTable(name, rules), nil
}
