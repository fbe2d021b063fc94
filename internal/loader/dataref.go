package loader

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var upper = cases.Upper(language.Und)

// DataRefName returns the data reference name for a declaration.
// An empty or NOT_SET name is derived from the base name of path, without
// its extension, upper-cased: "/data/users.csv" -> "USERS".
func DataRefName(name, path string) string {
	if name != "" && name != NotSet {
		return name
	}
	base := filepath.Base(filepath.FromSlash(path))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return upper.String(base)
}
