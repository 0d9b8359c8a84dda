// Package export assembles a whole world into one JSON document and reads
// such documents back in. Fetches run concurrently per element type with
// bounded retry; client errors are not retried.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"worldkit/internal/api"
	"worldkit/internal/element"
)

// FormatVersion identifies the export document layout.
const FormatVersion = "1.0"

const (
	maxRetries  = 3
	backoffBase = time.Second
)

// Metadata describes one export document.
type Metadata struct {
	Version      string         `json:"version"`
	ExportedAt   time.Time      `json:"export_date"`
	WorldID      string         `json:"world_id"`
	WorldName    string         `json:"world_name"`
	ElementCount int            `json:"element_count"`
	Counts       map[string]int `json:"counts"`
}

// Document is the full export: metadata plus one array per element type,
// keyed by the capitalized type name.
type Document struct {
	Metadata Metadata
	Sections map[string][]element.Element
}

// MarshalJSON flattens the sections next to the metadata object.
func (d *Document) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(d.Sections)+1)
	flat["metadata"] = d.Metadata
	for key, elements := range d.Sections {
		flat[key] = elements
	}
	return json.Marshal(flat)
}

// UnmarshalJSON splits metadata from the per-type sections, ignoring keys
// that do not name an element type.
func (d *Document) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return fmt.Errorf("unmarshaling export document: %w", err)
	}

	d.Sections = make(map[string][]element.Element)
	for key, raw := range flat {
		if key == "metadata" {
			if err := json.Unmarshal(raw, &d.Metadata); err != nil {
				return fmt.Errorf("unmarshaling export metadata: %w", err)
			}
			continue
		}
		var elements []element.Element
		if err := json.Unmarshal(raw, &elements); err != nil {
			continue
		}
		d.Sections[key] = elements
	}
	return nil
}

// Client is the slice of the API client the exporter needs.
type Client interface {
	CheckAuth(ctx context.Context) (*api.World, error)
	List(ctx context.Context, typ string, filter url.Values) ([]element.Element, error)
	Get(ctx context.Context, typ, id string) (*element.Element, error)
	Create(ctx context.Context, typ string, el *element.Element) (*element.Element, error)
	Update(ctx context.Context, typ, id string, fields map[string]any) (*element.Element, error)
}

type Exporter struct {
	client Client
	log    *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

type Option func(*Exporter)

// WithLogger attaches a structured logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Exporter) { e.log = log }
}

// WithSleeper substitutes the backoff sleep, for tests.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Exporter) { e.sleep = sleep }
}

func New(client Client, opts ...Option) *Exporter {
	e := &Exporter{
		client: client,
		log:    zap.NewNop(),
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export fetches every element of every type concurrently and assembles the
// document. Types that keep failing are omitted with a zero count; the export
// itself only fails when the world endpoint does.
func (e *Exporter) Export(ctx context.Context) (*Document, error) {
	world, err := e.client.CheckAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking world access: %w", err)
	}

	doc := &Document{
		Metadata: Metadata{
			Version:    FormatVersion,
			ExportedAt: time.Now().UTC(),
			WorldID:    world.ID,
			WorldName:  world.Name,
			Counts:     make(map[string]int),
		},
		Sections: make(map[string][]element.Element),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, typ := range element.Types() {
		g.Go(func() error {
			elements, err := e.fetchWithRetry(gctx, typ)
			key := element.Capitalize(typ)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Partial failure: the type is omitted, not fatal.
				e.log.Warn("type fetch failed, omitting from export",
					zap.String("type", typ), zap.Error(err))
				doc.Metadata.Counts[key] = 0
				return nil
			}
			if elements == nil {
				elements = []element.Element{}
			}
			doc.Sections[key] = elements
			doc.Metadata.Counts[key] = len(elements)
			doc.Metadata.ElementCount += len(elements)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return doc, nil
}

// fetchWithRetry lists one type, retrying up to maxRetries with 1s/2s/4s
// backoff. 4xx responses fail immediately.
func (e *Exporter) fetchWithRetry(ctx context.Context, typ string) ([]element.Element, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffBase << (attempt - 1)
			e.log.Debug("retrying type fetch",
				zap.String("type", typ), zap.Int("attempt", attempt), zap.Duration("delay", delay))
			if err := e.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		elements, err := e.client.List(ctx, typ, nil)
		if err == nil {
			return elements, nil
		}
		lastErr = err

		var reqErr *api.RequestError
		if errors.As(err, &reqErr) && reqErr.ClientError() {
			return nil, err
		}
		var authErr *api.AuthError
		if errors.As(err, &authErr) {
			return nil, err
		}
	}
	return nil, lastErr
}

// WriteFile writes the document as indented JSON.
func WriteFile(path string, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}

// ReadFile loads an export document from disk.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DefaultFilename derives an export filename from the world name and date.
func DefaultFilename(worldName string, now time.Time) string {
	name := worldName
	if name == "" {
		name = "world"
	}
	return fmt.Sprintf("%s-export-%s.json", sanitize(name), now.Format("2006-01-02"))
}

func sanitize(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		case r == ' ':
			out = append(out, '-')
		}
	}
	if len(out) == 0 {
		return "world"
	}
	return string(out)
}

// SectionTypes returns the element types present in the document, in the
// canonical type order.
func (d *Document) SectionTypes() []string {
	var types []string
	for _, typ := range element.Types() {
		if _, ok := d.Sections[element.Capitalize(typ)]; ok {
			types = append(types, typ)
		}
	}
	return types
}

// IDs returns every element id in the document, sorted.
func (d *Document) IDs() []string {
	var ids []string
	for _, elements := range d.Sections {
		for i := range elements {
			ids = append(ids, elements[i].ID)
		}
	}
	sort.Strings(ids)
	return ids
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
