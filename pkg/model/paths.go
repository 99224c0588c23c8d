package model

import "strings"

// NestedFieldName joins a parent path and a sub-field name. Segments are
// used verbatim so ParseNestedFieldName recovers them exactly.
func NestedFieldName(parent, child string) string {
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "." + child
}

// ParseNestedFieldName splits a single-dot path into parent and child. Paths
// with no dot or more than one dot are rejected.
func ParseNestedFieldName(path string) (parent, child string, ok bool) {
	if strings.Count(path, ".") != 1 {
		return "", "", false
	}
	parent, child, _ = strings.Cut(path, ".")
	if parent == "" || child == "" {
		return "", "", false
	}
	return parent, child, true
}
