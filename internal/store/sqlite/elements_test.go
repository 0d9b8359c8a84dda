package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worldkit/internal/element"
)

func newTestStore(t *testing.T) *Client {
	t.Helper()
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "mirror.db")
	s, err := New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close(context.Background()) })
	require.NoError(t, s.EnsureSchema(context.Background()))
	return s.(*Client)
}

func TestUpsertAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	el := element.Element{
		ID:          "c1",
		Name:        "Aria",
		Description: "A wandering bard",
		Supertype:   "humanoid",
		Subtype:     "bard",
		World:       "w1",
		Fields:      map[string]any{"height": float64(172), "species": []any{"s1"}},
	}
	require.NoError(t, s.UpsertElement(ctx, "character", el))

	got, err := s.GetElement(ctx, "character", "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Aria", got.Name)
	assert.Equal(t, float64(172), got.Fields["height"])
	assert.Equal(t, []string{"s1"}, element.RefIDs(got.Fields["species"]))

	// Upsert again replaces, never duplicates.
	el.Name = "Arianna"
	require.NoError(t, s.UpsertElement(ctx, "character", el))
	got, err = s.GetElement(ctx, "character", "c1")
	require.NoError(t, err)
	assert.Equal(t, "Arianna", got.Name)

	elements, err := s.ListElements(ctx, "character")
	require.NoError(t, err)
	assert.Len(t, elements, 1)
}

func TestGetMissingElement(t *testing.T) {
	s := newTestStore(t)
	got, err := s.GetElement(context.Background(), "character", "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertElement(ctx, "location", element.Element{
		ID: "l1", Name: "Westport", World: "w1",
	}))
	require.NoError(t, s.UpsertElement(ctx, "character", element.Element{
		ID: "c1", Name: "Aria", Description: "Sails west every spring", World: "w1",
	}))
	require.NoError(t, s.UpsertElement(ctx, "zone", element.Element{
		ID: "z1", Name: "The Deep", World: "w1",
	}))

	results, err := s.Search(ctx, "west")
	require.NoError(t, err)
	require.Len(t, results, 2, "matches name and description, case-insensitively")
	assert.Equal(t, "character", results[0].ElementType)
	assert.Equal(t, "location", results[1].ElementType)
}

func TestCountsAndPrune(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"c1", "c2", "c3"} {
		require.NoError(t, s.UpsertElement(ctx, "character", element.Element{
			ID: id, Name: id, World: "w1",
		}))
	}
	require.NoError(t, s.UpsertElement(ctx, "location", element.Element{
		ID: "l1", Name: "Westport", World: "w1",
	}))

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, counts["character"])
	assert.Equal(t, 1, counts["location"])

	pruned, err := s.PruneMissing(ctx, "character", []string{"c1", "c3"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	counts, err = s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["character"])
	assert.Equal(t, 1, counts["location"], "other types untouched")

	// Empty keep set clears the type.
	pruned, err = s.PruneMissing(ctx, "character", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pruned)
}

func TestParseDSN(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"memory", "sqlite://:memory:", ":memory:", false},
		{"absolute path", "sqlite:///var/data/mirror.db", "/var/data/mirror.db", false},
		{"relative path", "sqlite://mirror.db", "./mirror.db", false},
		{"with options", "sqlite://mirror.db?mode=ro", "./mirror.db?mode=ro", false},
		{"wrong scheme", "postgres://localhost/db", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseDSN(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}
