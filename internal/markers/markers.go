// Package markers extracts framework markers from loaded types and enforces
// the marker compatibility rules.
//
// Compatibility is checked only when two or more framework markers are
// present. Marker names are sorted lexicographically and the first one is the
// primary; every other marker must be listed as compatible with it. The
// primary is chosen by sort order only, which keeps the check reproducible;
// it carries no semantic priority.
package markers

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leaptest/internal/rules"
	"github.com/leapstack-labs/leaptest/pkg/core"
)

// Extract returns the markers of src that belong to namespace, renamed to
// their simple names. Foreign markers are ignored. Declaration order is kept.
func Extract(src core.MarkerSource, namespace string) []core.Marker {
	prefix := namespace + "."
	var out []core.Marker
	for _, m := range src.DeclaredMarkers() {
		if !strings.HasPrefix(m.Name, prefix) {
			continue
		}
		out = append(out, core.Marker{
			Name:   core.SimpleMarkerName(m.Name),
			Params: m.Params,
		})
	}
	return out
}

// Validator enforces the class and method compatibility tables.
type Validator struct {
	rules     *rules.Store
	namespace string
	logger    *slog.Logger
}

// NewValidator creates a validator for the given rules and marker namespace.
func NewValidator(store *rules.Store, namespace string, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if namespace == "" {
		namespace = core.DefaultMarkerNamespace
	}
	return &Validator{rules: store, namespace: namespace, logger: logger}
}

// Namespace returns the framework marker namespace.
func (v *Validator) Namespace() string {
	return v.namespace
}

// Extract returns the framework markers of src.
func (v *Validator) Extract(src core.MarkerSource) []core.Marker {
	return Extract(src, v.namespace)
}

// ValidateClass checks the framework markers of a loaded class against the class table.
func (v *Validator) ValidateClass(class string, src core.MarkerSource) error {
	return v.check(v.rules.Class, class, "", v.Extract(src))
}

// ValidateMethod checks already extracted method markers against the method table.
func (v *Validator) ValidateMethod(class, method string, markers []core.Marker) error {
	return v.check(v.rules.Method, class, method, markers)
}

// Split sorts the marker names and returns the primary and the secondaries.
// It returns ok=false when fewer than two markers are present.
func Split(markers []core.Marker) (primary string, secondary []string, ok bool) {
	if len(markers) < 2 {
		return "", nil, false
	}
	names := core.MarkerNames(markers)
	return names[0], names[1:], true
}

func (v *Validator) check(table *rules.CompatibilityTable, class, method string, markers []core.Marker) error {
	primary, secondary, ok := Split(markers)
	if !ok {
		return nil
	}

	v.logger.Debug("checking marker compatibility",
		"class", class,
		"method", method,
		"table", table.Name(),
		"primary", primary,
		"secondary", secondary)

	err := &CompatibilityError{
		Class:     class,
		Method:    method,
		Table:     table.Name(),
		Primary:   primary,
		Secondary: secondary,
	}

	if !table.Knows(primary) {
		err.UnknownPrimary = true
		return err
	}

	for _, name := range secondary {
		if !table.Allows(primary, name) {
			err.Incompatible = append(err.Incompatible, name)
		}
	}
	if len(err.Incompatible) == 0 {
		return nil
	}
	err.Allowed = table.Compatible(primary)
	return err
}

func formatNames(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// CompatibilityError reports framework markers that may not be combined.
// It unwraps to a *core.ConfigurationError and is therefore fatal.
type CompatibilityError struct {
	Class     string
	Method    string
	Table     string
	Primary   string
	Secondary []string
	// Incompatible is the subset of Secondary not allowed next to Primary
	Incompatible []string
	// Allowed lists the markers the table allows next to Primary
	Allowed []string
	// UnknownPrimary is true when the table has no entry for Primary
	UnknownPrimary bool
}

func (e *CompatibilityError) Error() string {
	return e.configurationError().Error()
}

// Unwrap exposes the equivalent configuration error.
func (e *CompatibilityError) Unwrap() error {
	return e.configurationError()
}

// Details renders the full diagnostic block.
func (e *CompatibilityError) Details() []string {
	return e.configurationError().Details()
}

func (e *CompatibilityError) configurationError() *core.ConfigurationError {
	subject := "class"
	if e.Method != "" {
		subject = "method"
	}
	ce := &core.ConfigurationError{
		Class:     e.Class,
		Method:    e.Method,
		Attribute: "@" + e.Primary,
		Context: []string{
			fmt.Sprintf("The %s is marked with @%s.", subject, e.Primary),
			fmt.Sprintf("Along with this it is marked with: %s.", formatNames(e.Secondary)),
		},
		Guidance: "Please correct the marker usage.",
	}
	if e.UnknownPrimary {
		ce.Message = fmt.Sprintf("@%s can not be used along with any other marker.", e.Primary)
		return ce
	}
	ce.Message = fmt.Sprintf("Markers incompatible with @%s: %s.", e.Primary, formatNames(e.Incompatible))
	ce.Context = append(ce.Context, fmt.Sprintf("@%s is compatible with: %s.", e.Primary, formatNames(e.Allowed)))
	return ce
}
