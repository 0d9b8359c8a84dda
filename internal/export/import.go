package export

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"worldkit/internal/api"
	"worldkit/internal/element"
)

// ImportResult summarizes one import run.
type ImportResult struct {
	Created int
	Updated int
	Failed  int
	Errors  []error
}

// Import recreates every element of a document through the client, type by
// type in canonical order. Elements whose id already exists are updated, so
// importing an export back into its own world is idempotent. Individual
// failures are collected, not fatal.
func (e *Exporter) Import(ctx context.Context, doc *Document) (*ImportResult, error) {
	world, err := e.client.CheckAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking world access: %w", err)
	}

	result := &ImportResult{}
	for _, typ := range doc.SectionTypes() {
		elements := doc.Sections[element.Capitalize(typ)]
		for i := range elements {
			el := elements[i].Clone()
			if el.World == "" {
				el.World = world.ID
			}
			if err := e.importOne(ctx, typ, el, result); err != nil {
				result.Failed++
				result.Errors = append(result.Errors, fmt.Errorf("%s %s: %w", typ, el.ID, err))
				e.log.Warn("import failed for element",
					zap.String("type", typ), zap.String("id", el.ID), zap.Error(err))
			}
		}
	}
	return result, nil
}

func (e *Exporter) importOne(ctx context.Context, typ string, el *element.Element, result *ImportResult) error {
	if el.ID != "" {
		existing, err := e.client.Get(ctx, typ, el.ID)
		if err == nil && existing != nil {
			fields := element.CloneFields(el.Fields)
			if fields == nil {
				fields = make(map[string]any)
			}
			fields["name"] = el.Name
			fields["description"] = el.Description
			fields["supertype"] = el.Supertype
			fields["subtype"] = el.Subtype
			fields["image_url"] = el.ImageURL
			if _, err := e.client.Update(ctx, typ, el.ID, fields); err != nil {
				return err
			}
			result.Updated++
			return nil
		}
		var reqErr *api.RequestError
		if err != nil && !(errors.As(err, &reqErr) && reqErr.NotFound()) {
			return err
		}
	}

	if _, err := e.client.Create(ctx, typ, el); err != nil {
		return err
	}
	result.Created++
	return nil
}
