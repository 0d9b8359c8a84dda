// Package relation handles reference fields between elements: resolving ids
// to display names, editing single- and multi-valued link lists, candidate
// search for the picker, and the cross-world ownership check.
package relation

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"worldkit/internal/element"
)

// MaxSearchResults caps the candidate list returned by a picker search.
const MaxSearchResults = 50

// Source is the slice of the API client the package needs.
type Source interface {
	Get(ctx context.Context, typ, id string) (*element.Element, error)
	List(ctx context.Context, typ string, filter url.Values) ([]element.Element, error)
}

// Tag is one resolved reference, rendered as a removable chip.
type Tag struct {
	ID   string
	Name string
}

// Candidate is one pickable target element.
type Candidate struct {
	ID    string
	Name  string
	World string
}

// Resolver turns reference field values into display tags. Lookups go through
// the client's cache, so repeated renders of the same tag cost nothing.
type Resolver struct {
	source Source
}

func NewResolver(source Source) *Resolver {
	return &Resolver{source: source}
}

// DisplayName resolves one id to its element name; falls back to the raw id
// when the target cannot be fetched, so a broken link still renders.
func (r *Resolver) DisplayName(ctx context.Context, typ, id string) string {
	el, err := r.source.Get(ctx, typ, id)
	if err != nil || el == nil {
		return id
	}
	if el.Name == "" {
		return id
	}
	return el.Name
}

// Tags resolves a reference field value (single or multi) into display tags,
// preserving order.
func (r *Resolver) Tags(ctx context.Context, fieldName string, value any) []Tag {
	desc := element.Lookup(fieldName)
	if !desc.IsLink() {
		return nil
	}

	var ids []string
	switch desc.Kind {
	case element.KindLink:
		if id := element.RefID(value); id != "" {
			ids = []string{id}
		}
	case element.KindLinkList:
		ids = element.RefIDs(value)
	}

	tags := make([]Tag, 0, len(ids))
	for _, id := range ids {
		tags = append(tags, Tag{ID: id, Name: r.DisplayName(ctx, desc.Target, id)})
	}
	return tags
}

// Remove drops one id from a multi-valued reference, preserving the order of
// the remaining values. Removing A from [A,B] yields [B], never [].
func Remove(values []string, id string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Add appends an id to a multi-valued reference unless it is already present.
func Add(values []string, id string) []string {
	for _, v := range values {
		if v == id {
			return values
		}
	}
	out := make([]string, len(values), len(values)+1)
	copy(out, values)
	return append(out, id)
}

// Warning is a non-blocking cross-world mismatch notice. The caller decides
// whether to proceed; the link is never rejected outright.
type Warning struct {
	SourceWorld string
	TargetWorld string
}

func (w *Warning) Message() string {
	return fmt.Sprintf("target belongs to world %s, not %s; link it anyway?", w.TargetWorld, w.SourceWorld)
}

// CheckWorlds compares the owning worlds of a link's two ends. A nil return
// means the link is clean; a Warning means the worlds differ. Elements that
// do not declare a world are not flagged.
func CheckWorlds(source, target *element.Element) *Warning {
	if source == nil || target == nil {
		return nil
	}
	if source.World == "" || target.World == "" {
		return nil
	}
	if source.World == target.World {
		return nil
	}
	return &Warning{SourceWorld: source.World, TargetWorld: target.World}
}

// Picker serves candidate searches for one target type. The candidate set is
// fetched once and filtered client-side on each query.
type Picker struct {
	source Source
	typ    string

	mu     sync.Mutex
	loaded bool
	all    []Candidate
}

func NewPicker(source Source, targetType string) *Picker {
	return &Picker{source: source, typ: targetType}
}

// Search returns up to MaxSearchResults candidates whose names contain the
// query, case-insensitively. An empty query returns the leading candidates.
func (p *Picker) Search(ctx context.Context, query string) ([]Candidate, error) {
	if err := p.load(ctx); err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	results := make([]Candidate, 0, MaxSearchResults)
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.all {
		if query != "" && !strings.Contains(strings.ToLower(c.Name), query) {
			continue
		}
		results = append(results, c)
		if len(results) == MaxSearchResults {
			break
		}
	}
	return results, nil
}

// Refresh drops the fetched candidate set so the next search refetches.
func (p *Picker) Refresh() {
	p.mu.Lock()
	p.loaded = false
	p.all = nil
	p.mu.Unlock()
}

func (p *Picker) load(ctx context.Context) error {
	p.mu.Lock()
	if p.loaded {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	elements, err := p.source.List(ctx, p.typ, nil)
	if err != nil {
		return fmt.Errorf("loading %s candidates: %w", p.typ, err)
	}

	candidates := make([]Candidate, 0, len(elements))
	for i := range elements {
		el := &elements[i]
		candidates = append(candidates, Candidate{ID: el.ID, Name: el.Name, World: el.World})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return strings.ToLower(candidates[i].Name) < strings.ToLower(candidates[j].Name)
	})

	p.mu.Lock()
	p.all = candidates
	p.loaded = true
	p.mu.Unlock()
	return nil
}
