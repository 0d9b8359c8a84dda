package element

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Element is one typed record in a world. The base fields every type shares
// are promoted to struct fields; everything else lives in Fields keyed by the
// wire name. Reference fields may hold bare id strings or link objects
// ({"id": ..., "name": ...}) depending on how the server expanded them.
type Element struct {
	ID          string
	Name        string
	Description string
	Supertype   string
	Subtype     string
	ImageURL    string
	World       string
	Fields      map[string]any
}

var baseFields = map[string]struct{}{
	"id": {}, "name": {}, "description": {}, "supertype": {},
	"subtype": {}, "image_url": {}, "world": {},
}

// Field returns the value of a field by wire name, base or type-specific.
func (e *Element) Field(name string) (any, bool) {
	switch name {
	case "id":
		return e.ID, true
	case "name":
		return e.Name, true
	case "description":
		return e.Description, true
	case "supertype":
		return e.Supertype, true
	case "subtype":
		return e.Subtype, true
	case "image_url":
		return e.ImageURL, true
	case "world":
		return e.World, true
	}
	v, ok := e.Fields[name]
	return v, ok
}

// SetField assigns a field by wire name. Base fields are coerced to strings;
// the world reference is reduced to a bare id.
func (e *Element) SetField(name string, value any) {
	switch name {
	case "id":
		e.ID = RefID(value)
	case "name":
		e.Name = stringValue(value)
	case "description":
		e.Description = stringValue(value)
	case "supertype":
		e.Supertype = stringValue(value)
	case "subtype":
		e.Subtype = stringValue(value)
	case "image_url":
		e.ImageURL = stringValue(value)
	case "world":
		e.World = RefID(value)
	default:
		if e.Fields == nil {
			e.Fields = make(map[string]any)
		}
		e.Fields[name] = value
	}
}

// FieldNames returns every field name present on the element, base fields
// first, type-specific fields sorted.
func (e *Element) FieldNames() []string {
	names := []string{"id", "name", "description", "supertype", "subtype", "image_url", "world"}
	extras := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		extras = append(extras, name)
	}
	sort.Strings(extras)
	return append(names, extras...)
}

// Clone returns a deep-enough copy: the Fields map is duplicated, values are
// shared except for link lists which are copied.
func (e *Element) Clone() *Element {
	out := *e
	out.Fields = CloneFields(e.Fields)
	return &out
}

// CloneFields duplicates a field map, copying slice values.
func CloneFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if s, ok := v.([]any); ok {
			cp := make([]any, len(s))
			copy(cp, s)
			out[k] = cp
			continue
		}
		if s, ok := v.([]string); ok {
			cp := make([]string, len(s))
			copy(cp, s)
			out[k] = cp
			continue
		}
		out[k] = v
	}
	return out
}

// MarshalJSON flattens base and type-specific fields into one object.
func (e *Element) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(e.Fields)+7)
	for k, v := range e.Fields {
		if _, base := baseFields[k]; base {
			continue
		}
		flat[k] = v
	}
	flat["id"] = e.ID
	flat["name"] = e.Name
	flat["description"] = e.Description
	flat["supertype"] = e.Supertype
	flat["subtype"] = e.Subtype
	flat["image_url"] = e.ImageURL
	flat["world"] = e.World
	return json.Marshal(flat)
}

// UnmarshalJSON splits a flat wire object back into base and extra fields.
func (e *Element) UnmarshalJSON(data []byte) error {
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return fmt.Errorf("unmarshaling element: %w", err)
	}
	e.Fields = make(map[string]any)
	for k, v := range flat {
		e.SetField(k, v)
	}
	return nil
}

// RefID reduces a reference value to a bare id string. Accepts bare strings
// and link objects; anything else yields "".
func RefID(v any) string {
	switch ref := v.(type) {
	case string:
		return ref
	case map[string]any:
		if id, ok := ref["id"].(string); ok {
			return id
		}
	case *Element:
		if ref != nil {
			return ref.ID
		}
	}
	return ""
}

// RefIDs reduces a multi-valued reference to bare id strings, preserving
// order and dropping unresolvable entries.
func RefIDs(v any) []string {
	switch refs := v.(type) {
	case []string:
		out := make([]string, len(refs))
		copy(out, refs)
		return out
	case []any:
		out := make([]string, 0, len(refs))
		for _, r := range refs {
			if id := RefID(r); id != "" {
				out = append(out, id)
			}
		}
		return out
	case nil:
		return nil
	}
	if id := RefID(v); id != "" {
		return []string{id}
	}
	return nil
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
