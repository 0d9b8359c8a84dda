package mcp

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"worldkit/internal/element"
)

type WorldSummaryInput struct{}

type ListElementsInput struct {
	Type      string `json:"type" jsonschema:"element type, one of the 22 collections"`
	Supertype string `json:"supertype,omitempty" jsonschema:"filter by supertype"`
}

type GetElementInput struct {
	Type string `json:"type" jsonschema:"element type"`
	ID   string `json:"id" jsonschema:"element id"`
}

type SearchElementsInput struct {
	Query string `json:"query" jsonschema:"search terms matched against names"`
	Type  string `json:"type,omitempty" jsonschema:"restrict to one element type"`
}

type UpdateElementInput struct {
	Type   string         `json:"type" jsonschema:"element type"`
	ID     string         `json:"id" jsonschema:"element id"`
	Fields map[string]any `json:"fields" jsonschema:"partial field values to merge"`
}

type WorldSummaryOutput struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Counts map[string]int `json:"counts"`
}

type ElementOutput struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Supertype   string         `json:"supertype,omitempty"`
	Subtype     string         `json:"subtype,omitempty"`
	World       string         `json:"world"`
	Fields      map[string]any `json:"fields,omitempty"`
}

type ElementSummaryOutput struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Name      string `json:"name"`
	Supertype string `json:"supertype,omitempty"`
	Subtype   string `json:"subtype,omitempty"`
}

type ListElementsOutput struct {
	Elements []ElementSummaryOutput `json:"elements"`
}

type SearchElementsOutput struct {
	Results []ElementSummaryOutput `json:"results"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "world_summary",
		Description: "Return the world's metadata and per-type element counts",
	}, s.handleWorldSummary)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_elements",
		Description: "List elements of one type, optionally filtered by supertype",
	}, s.handleListElements)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_element",
		Description: "Retrieve one element with all of its fields",
	}, s.handleGetElement)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "search_elements",
		Description: "Search elements by name across one or all types",
	}, s.handleSearchElements)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "update_element",
		Description: "Merge partial field values into an element",
	}, s.handleUpdateElement)
}

func (s *Server) handleWorldSummary(ctx context.Context, req *sdk.CallToolRequest, input WorldSummaryInput) (*sdk.CallToolResult, WorldSummaryOutput, error) {
	world, err := s.client.CheckAuth(ctx)
	if err != nil {
		return nil, WorldSummaryOutput{}, err
	}

	counts := make(map[string]int, 22)
	for _, typ := range element.Types() {
		elements, err := s.client.List(ctx, typ, nil)
		if err != nil {
			return nil, WorldSummaryOutput{}, fmt.Errorf("counting %s: %w", typ, err)
		}
		counts[element.Capitalize(typ)] = len(elements)
	}

	return nil, WorldSummaryOutput{ID: world.ID, Name: world.Name, Counts: counts}, nil
}

func (s *Server) handleListElements(ctx context.Context, req *sdk.CallToolRequest, input ListElementsInput) (*sdk.CallToolResult, ListElementsOutput, error) {
	if input.Type == "" {
		return nil, ListElementsOutput{}, fmt.Errorf("type is required")
	}
	if !element.IsType(input.Type) {
		return nil, ListElementsOutput{}, fmt.Errorf("unknown element type %q", input.Type)
	}

	elements, err := s.client.List(ctx, strings.ToLower(input.Type), nil)
	if err != nil {
		return nil, ListElementsOutput{}, err
	}

	output := make([]ElementSummaryOutput, 0, len(elements))
	for i := range elements {
		el := &elements[i]
		if input.Supertype != "" && !strings.EqualFold(el.Supertype, input.Supertype) {
			continue
		}
		output = append(output, summaryOutput(strings.ToLower(input.Type), el))
	}
	return nil, ListElementsOutput{Elements: output}, nil
}

func (s *Server) handleGetElement(ctx context.Context, req *sdk.CallToolRequest, input GetElementInput) (*sdk.CallToolResult, ElementOutput, error) {
	if input.Type == "" || input.ID == "" {
		return nil, ElementOutput{}, fmt.Errorf("type and id are required")
	}

	el, err := s.client.Get(ctx, strings.ToLower(input.Type), input.ID)
	if err != nil {
		return nil, ElementOutput{}, err
	}
	if el == nil {
		return nil, ElementOutput{}, fmt.Errorf("element not found")
	}

	return nil, ElementOutput{
		ID:          el.ID,
		Type:        strings.ToLower(input.Type),
		Name:        el.Name,
		Description: el.Description,
		Supertype:   el.Supertype,
		Subtype:     el.Subtype,
		World:       el.World,
		Fields:      el.Fields,
	}, nil
}

func (s *Server) handleSearchElements(ctx context.Context, req *sdk.CallToolRequest, input SearchElementsInput) (*sdk.CallToolResult, SearchElementsOutput, error) {
	if input.Query == "" {
		return nil, SearchElementsOutput{}, fmt.Errorf("query is required")
	}

	types := element.Types()
	if input.Type != "" {
		if !element.IsType(input.Type) {
			return nil, SearchElementsOutput{}, fmt.Errorf("unknown element type %q", input.Type)
		}
		types = []string{strings.ToLower(input.Type)}
	}

	query := strings.ToLower(input.Query)
	var results []ElementSummaryOutput
	for _, typ := range types {
		elements, err := s.client.List(ctx, typ, nil)
		if err != nil {
			return nil, SearchElementsOutput{}, err
		}
		for i := range elements {
			el := &elements[i]
			if strings.Contains(strings.ToLower(el.Name), query) {
				results = append(results, summaryOutput(typ, el))
			}
		}
	}
	return nil, SearchElementsOutput{Results: results}, nil
}

func (s *Server) handleUpdateElement(ctx context.Context, req *sdk.CallToolRequest, input UpdateElementInput) (*sdk.CallToolResult, ElementOutput, error) {
	if input.Type == "" || input.ID == "" {
		return nil, ElementOutput{}, fmt.Errorf("type and id are required")
	}
	if len(input.Fields) == 0 {
		return nil, ElementOutput{}, fmt.Errorf("fields are required")
	}

	typ := strings.ToLower(input.Type)
	el, err := s.client.Update(ctx, typ, input.ID, input.Fields)
	if err != nil {
		return nil, ElementOutput{}, err
	}

	return nil, ElementOutput{
		ID:          el.ID,
		Type:        typ,
		Name:        el.Name,
		Description: el.Description,
		Supertype:   el.Supertype,
		Subtype:     el.Subtype,
		World:       el.World,
		Fields:      el.Fields,
	}, nil
}

func summaryOutput(typ string, el *element.Element) ElementSummaryOutput {
	return ElementSummaryOutput{
		ID:        el.ID,
		Type:      typ,
		Name:      el.Name,
		Supertype: el.Supertype,
		Subtype:   el.Subtype,
	}
}
