// Package properties implements POM property tables and ${name} placeholder resolution.
package properties

import "strings"

// ProjectVersion is the synthetic property injected from a document's own version.
const ProjectVersion = "project.version"

// Table maps property names to values. Names are case-sensitive.
type Table map[string]string

// Clone returns an independent copy of the table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Merge returns a new table with overrides layered on top of base.
// Neither input is modified.
func Merge(base, overrides Table) Table {
	out := base.Clone()
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Resolve substitutes a field of the exact form ${name} with the value of name in t.
// Unknown placeholders and literals are returned unchanged.
func Resolve(field string, t Table) string {
	name, ok := placeholder(field)
	if !ok {
		return field
	}
	if value, exists := t[name]; exists {
		return value
	}
	return field
}

func placeholder(field string) (string, bool) {
	if field == "" || !strings.HasPrefix(field, "${") || !strings.HasSuffix(field, "}") {
		return "", false
	}
	return field[2 : len(field)-1], true
}
