// Package store is the local mirror sink: a SQL snapshot of one world that
// the mirror command refreshes and plain SQL can query. It never feeds edits
// back to the API.
package store

import (
	"context"
	"fmt"
	"strings"

	"worldkit/internal/element"
)

// Store is implemented by the sqlite and postgres backends.
type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	UpsertElement(ctx context.Context, typ string, el element.Element) error
	GetElement(ctx context.Context, typ, id string) (*element.Element, error)
	ListElements(ctx context.Context, typ string) ([]element.Element, error)
	Search(ctx context.Context, query string) ([]Summary, error)
	Counts(ctx context.Context) (map[string]int, error)

	// PruneMissing removes mirrored elements of a type whose ids are no
	// longer present upstream. Returns the number removed.
	PruneMissing(ctx context.Context, typ string, keep []string) (int64, error)
}

// Summary is a search hit: enough to identify an element without its fields.
type Summary struct {
	ID          string
	ElementType string
	Name        string
	Supertype   string
	Subtype     string
}

// Opener is the constructor signature both backends share; cmd wires the
// schemes to avoid importing database drivers here.
type Opener func(ctx context.Context, dsn string) (Store, error)

// Scheme extracts the DSN scheme used to pick a backend.
func Scheme(dsn string) (string, error) {
	idx := strings.Index(dsn, "://")
	if idx <= 0 {
		return "", fmt.Errorf("mirror DSN %q has no scheme (expected sqlite:// or postgres://)", dsn)
	}
	return dsn[:idx], nil
}
