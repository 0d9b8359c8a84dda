package element

import (
	"encoding/json"
	"testing"
)

func TestTypes(t *testing.T) {
	types := Types()
	if len(types) != 22 {
		t.Fatalf("expected 22 element types, got %d", len(types))
	}
	if !IsType("character") || !IsType("Zone") {
		t.Fatalf("expected known types to validate")
	}
	if IsType("dragon") {
		t.Fatalf("unexpected type accepted")
	}
	if Capitalize("phenomenon") != "Phenomenon" {
		t.Fatalf("unexpected capitalization: %s", Capitalize("phenomenon"))
	}
}

func TestLookup(t *testing.T) {
	t.Run("link field carries target", func(t *testing.T) {
		d := Lookup("location")
		if d.Kind != KindLink || d.Target != "location" {
			t.Fatalf("unexpected descriptor: %+v", d)
		}
	})

	t.Run("link list field", func(t *testing.T) {
		d := Lookup("species")
		if d.Kind != KindLinkList || d.Target != "species" {
			t.Fatalf("unexpected descriptor: %+v", d)
		}
		if !d.IsLink() {
			t.Fatalf("expected link descriptor")
		}
	})

	t.Run("unknown field defaults to string", func(t *testing.T) {
		d := Lookup("totally_new_server_field")
		if d.Kind != KindString || d.Target != "" {
			t.Fatalf("unexpected descriptor: %+v", d)
		}
	})
}

func TestElementJSONRoundTrip(t *testing.T) {
	wire := `{
		"id": "0189e6a0-0000-7000-8000-000000000001",
		"name": "Aria",
		"description": "A wandering bard",
		"supertype": "humanoid",
		"subtype": "bard",
		"image_url": "",
		"world": "0189e6a0-0000-7000-8000-0000000000aa",
		"height": 172,
		"species": ["0189e6a0-0000-7000-8000-0000000000s1"],
		"location": {"id": "0189e6a0-0000-7000-8000-0000000000l1", "name": "Westport"}
	}`

	var e Element
	if err := json.Unmarshal([]byte(wire), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.Name != "Aria" || e.World != "0189e6a0-0000-7000-8000-0000000000aa" {
		t.Fatalf("base fields not promoted: %+v", e)
	}
	if _, ok := e.Fields["name"]; ok {
		t.Fatalf("base field leaked into Fields map")
	}
	if RefID(e.Fields["location"]) != "0189e6a0-0000-7000-8000-0000000000l1" {
		t.Fatalf("link object not resolvable: %v", e.Fields["location"])
	}

	data, err := json.Marshal(&e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if flat["name"] != "Aria" {
		t.Fatalf("flattened name missing: %v", flat)
	}
	if _, ok := flat["height"]; !ok {
		t.Fatalf("extra field dropped on marshal")
	}
}

func TestRefIDs(t *testing.T) {
	t.Run("mixed link objects and strings", func(t *testing.T) {
		ids := RefIDs([]any{
			"id-a",
			map[string]any{"id": "id-b", "name": "B"},
		})
		if len(ids) != 2 || ids[0] != "id-a" || ids[1] != "id-b" {
			t.Fatalf("unexpected ids: %v", ids)
		}
	})

	t.Run("order preserved", func(t *testing.T) {
		ids := RefIDs([]string{"b", "a", "c"})
		if len(ids) != 3 || ids[0] != "b" || ids[2] != "c" {
			t.Fatalf("order not preserved: %v", ids)
		}
	})

	t.Run("nil stays nil", func(t *testing.T) {
		if ids := RefIDs(nil); ids != nil {
			t.Fatalf("expected nil, got %v", ids)
		}
	})
}

func TestClone(t *testing.T) {
	e := &Element{
		ID:   "id-1",
		Name: "Aria",
		Fields: map[string]any{
			"species": []any{"s1", "s2"},
		},
	}
	c := e.Clone()
	c.Fields["species"].([]any)[0] = "changed"
	if e.Fields["species"].([]any)[0] != "s1" {
		t.Fatalf("clone shares link list backing array")
	}
}

func TestNewIDOrdering(t *testing.T) {
	prev := ""
	for i := 0; i < 1000; i++ {
		id, err := NewID()
		if err != nil {
			t.Fatalf("generating id: %v", err)
		}
		if !ValidID(id) {
			t.Fatalf("invalid id generated: %s", id)
		}
		if prev != "" && id <= prev {
			t.Fatalf("ids not strictly increasing: %s then %s", prev, id)
		}
		prev = id
	}
}
