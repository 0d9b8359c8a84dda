package store

import (
	"context"
	"fmt"
	"net/url"

	"worldkit/internal/element"
)

// Lister is the slice of the API client the mirror needs.
type Lister interface {
	List(ctx context.Context, typ string, filter url.Values) ([]element.Element, error)
}

// SyncResult summarizes one mirror refresh.
type SyncResult struct {
	Upserted int
	Pruned   int64
	Failed   []string
}

// Sync refreshes the mirror: every element of every type is upserted, then
// rows deleted upstream are pruned. Types that fail to list are skipped and
// reported; their mirrored rows are left untouched.
func Sync(ctx context.Context, s Store, client Lister) (*SyncResult, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensuring mirror schema: %w", err)
	}

	result := &SyncResult{}
	for _, typ := range element.Types() {
		elements, err := client.List(ctx, typ, nil)
		if err != nil {
			result.Failed = append(result.Failed, typ)
			continue
		}

		keep := make([]string, 0, len(elements))
		for i := range elements {
			if err := s.UpsertElement(ctx, typ, elements[i]); err != nil {
				return result, fmt.Errorf("mirroring %s %s: %w", typ, elements[i].ID, err)
			}
			keep = append(keep, elements[i].ID)
			result.Upserted++
		}

		pruned, err := s.PruneMissing(ctx, typ, keep)
		if err != nil {
			return result, fmt.Errorf("pruning %s: %w", typ, err)
		}
		result.Pruned += pruned
	}
	return result, nil
}
