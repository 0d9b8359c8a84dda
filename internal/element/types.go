// Package element defines the data model shared by every worldkit component:
// the fixed set of element types, the Element record itself, the field type
// registry, and identifier generation.
package element

import "strings"

// elementTypes lists every element type the world API serves, in the order
// used for exports and category listings. Lowercase singular, matching the
// URL path segment of each collection.
var elementTypes = []string{
	"ability",
	"character",
	"collective",
	"construct",
	"creature",
	"event",
	"family",
	"institution",
	"language",
	"law",
	"location",
	"map",
	"marker",
	"narrative",
	"object",
	"phenomenon",
	"pin",
	"relation",
	"species",
	"title",
	"trait",
	"zone",
}

// Types returns all element types in stable order. The returned slice is a
// copy and safe to modify.
func Types() []string {
	out := make([]string, len(elementTypes))
	copy(out, elementTypes)
	return out
}

// IsType reports whether s names a known element type.
func IsType(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range elementTypes {
		if t == s {
			return true
		}
	}
	return false
}

// Capitalize converts an element type to its display form ("character" ->
// "Character"), used as the section key in export documents and the path
// segment of the typing endpoint.
func Capitalize(t string) string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(t[:1]) + t[1:]
}
