// Package mcp exposes a world over the Model Context Protocol so agents can
// browse and edit elements through the same client path the UI uses.
package mcp

import (
	"context"
	"net/url"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"worldkit/internal/api"
	"worldkit/internal/element"
)

// WorldClient is the slice of the API client the tools need.
type WorldClient interface {
	CheckAuth(ctx context.Context) (*api.World, error)
	List(ctx context.Context, typ string, filter url.Values) ([]element.Element, error)
	Get(ctx context.Context, typ, id string) (*element.Element, error)
	Update(ctx context.Context, typ, id string, fields map[string]any) (*element.Element, error)
}

type Server struct {
	client WorldClient
	mcp    *sdk.Server
}

func NewServer(client WorldClient, version string) *Server {
	s := &Server{
		client: client,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "worldkit",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
