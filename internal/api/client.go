// Package api is the HTTP client for the world API: CRUD over the 22 element
// collections, the typing vocabularies, and the world endpoint used for
// authentication. Responses are cached per (type, id) snapshot.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"worldkit/internal/config"
	"worldkit/internal/element"
)

type cacheKey struct {
	Type string
	ID   string
}

// Client talks to one world. Construct it explicitly and pass it down; there
// is no package-level instance.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     *zap.Logger

	credMu sync.Mutex
	creds  config.Credentials

	cacheMu sync.Mutex
	cache   map[cacheKey]*element.Element
}

type Option func(*Client)

// WithHTTPClient substitutes the transport, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithLogger attaches a structured logger for request tracing.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New builds a client. The credential shape is checked up front; a malformed
// key or PIN fails here with an AuthError rather than on first use.
func New(baseURL string, creds config.Credentials, opts ...Option) (*Client, error) {
	if err := config.ValidateCredentials(creds); err != nil {
		return nil, &AuthError{Reason: err.Error()}
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   http.DefaultClient,
		log:     zap.NewNop(),
		creds:   creds,
		cache:   make(map[cacheKey]*element.Element),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// World is the owning collection's metadata, returned by the auth endpoint.
type World struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Version       string `json:"version,omitempty"`
	TimeFormat    string `json:"time_format_names,omitempty"`
	TotalElements int    `json:"total_elements,omitempty"`
}

// CheckAuth validates the credentials against the world endpoint and returns
// the world they unlock. On an authentication failure the stored credentials
// are cleared so later calls fail fast.
func (c *Client) CheckAuth(ctx context.Context) (*World, error) {
	body, err := c.do(ctx, http.MethodGet, c.baseURL+"/world/", nil)
	if err != nil {
		if _, ok := err.(*AuthError); ok {
			c.clearCredentials()
		}
		return nil, err
	}

	// The endpoint returns either the world object or a single-element list.
	var world World
	if err := json.Unmarshal(body, &world); err != nil || world.ID == "" {
		var worlds []World
		if err := json.Unmarshal(body, &worlds); err != nil {
			return nil, fmt.Errorf("decoding world response: %w", err)
		}
		if len(worlds) == 0 {
			c.clearCredentials()
			return nil, &AuthError{Reason: "no world matches these credentials"}
		}
		world = worlds[0]
	}
	return &world, nil
}

// List fetches every element of a type, optionally filtered by query
// parameters. Results refresh the cache.
func (c *Client) List(ctx context.Context, typ string, filter url.Values) ([]element.Element, error) {
	if !element.IsType(typ) {
		return nil, &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown element type %q", typ)}
	}

	u := fmt.Sprintf("%s/%s/", c.baseURL, typ)
	if len(filter) > 0 {
		u += "?" + filter.Encode()
	}
	body, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	var elements []element.Element
	if err := json.Unmarshal(body, &elements); err != nil {
		return nil, fmt.Errorf("decoding %s list: %w", typ, err)
	}

	c.cacheMu.Lock()
	for i := range elements {
		c.cache[cacheKey{typ, elements[i].ID}] = elements[i].Clone()
	}
	c.cacheMu.Unlock()

	return elements, nil
}

// Get returns one element, serving from the cache when the id has been seen
// and not deleted since.
func (c *Client) Get(ctx context.Context, typ, id string) (*element.Element, error) {
	if !element.IsType(typ) {
		return nil, &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown element type %q", typ)}
	}

	c.cacheMu.Lock()
	if cached, ok := c.cache[cacheKey{typ, id}]; ok {
		c.cacheMu.Unlock()
		return cached.Clone(), nil
	}
	c.cacheMu.Unlock()

	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%s/%s/", c.baseURL, typ, id), nil)
	if err != nil {
		return nil, err
	}

	var el element.Element
	if err := json.Unmarshal(body, &el); err != nil {
		return nil, fmt.Errorf("decoding %s %s: %w", typ, id, err)
	}

	c.cacheMu.Lock()
	c.cache[cacheKey{typ, el.ID}] = el.Clone()
	c.cacheMu.Unlock()

	return &el, nil
}

// Create posts a new element. A missing id is assigned a generated
// time-ordered one; name and world are required.
func (c *Client) Create(ctx context.Context, typ string, el *element.Element) (*element.Element, error) {
	if !element.IsType(typ) {
		return nil, &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown element type %q", typ)}
	}
	if strings.TrimSpace(el.Name) == "" {
		return nil, &ValidationError{Field: "name", Reason: "a name is required"}
	}
	if strings.TrimSpace(el.World) == "" {
		return nil, &ValidationError{Field: "world", Reason: "an owning world id is required"}
	}

	el = el.Clone()
	if el.ID == "" {
		id, err := element.NewID()
		if err != nil {
			return nil, err
		}
		el.ID = id
	}

	payload, err := normalizePayload(el)
	if err != nil {
		return nil, err
	}

	body, err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/%s/", c.baseURL, typ), payload)
	if err != nil {
		return nil, err
	}

	created := el
	if len(body) > 0 {
		var decoded element.Element
		if err := json.Unmarshal(body, &decoded); err == nil && decoded.ID != "" {
			created = &decoded
		}
	}

	c.cacheMu.Lock()
	c.cache[cacheKey{typ, created.ID}] = created.Clone()
	c.cacheMu.Unlock()

	return created.Clone(), nil
}

// Update merges partial fields into the last-known full record and PUTs the
// result, with reference fields reduced to bare ids. The cache is the merge
// baseline; on a miss the element is fetched first so the PUT is never sparse.
func (c *Client) Update(ctx context.Context, typ, id string, fields map[string]any) (*element.Element, error) {
	if !element.IsType(typ) {
		return nil, &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown element type %q", typ)}
	}
	if len(fields) == 0 {
		return nil, &ValidationError{Field: "fields", Reason: "no fields to update"}
	}

	base, err := c.Get(ctx, typ, id)
	if err != nil {
		return nil, err
	}

	merged := base.Clone()
	for name, value := range fields {
		merged.SetField(name, value)
	}
	if strings.TrimSpace(merged.Name) == "" {
		return nil, &ValidationError{Field: "name", Reason: "a name is required"}
	}

	payload, err := normalizePayload(merged)
	if err != nil {
		return nil, err
	}

	body, err := c.do(ctx, http.MethodPut, fmt.Sprintf("%s/%s/%s/", c.baseURL, typ, id), payload)
	if err != nil {
		return nil, err
	}

	updated := merged
	if len(body) > 0 {
		var decoded element.Element
		if err := json.Unmarshal(body, &decoded); err == nil && decoded.ID != "" {
			updated = &decoded
		}
	}

	c.cacheMu.Lock()
	c.cache[cacheKey{typ, id}] = updated.Clone()
	c.cacheMu.Unlock()

	return updated.Clone(), nil
}

// Delete removes an element and evicts its cache entry.
func (c *Client) Delete(ctx context.Context, typ, id string) error {
	if !element.IsType(typ) {
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown element type %q", typ)}
	}

	if _, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/%s/%s/", c.baseURL, typ, id), nil); err != nil {
		return err
	}

	c.cacheMu.Lock()
	delete(c.cache, cacheKey{typ, id})
	c.cacheMu.Unlock()

	return nil
}

// Typing returns the supertype -> subtypes vocabulary for an element type.
// Not cached; vocabularies are small and change rarely.
func (c *Client) Typing(ctx context.Context, typ string) (map[string][]string, error) {
	if !element.IsType(typ) {
		return nil, &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown element type %q", typ)}
	}

	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/typing/%s/", c.baseURL, element.Capitalize(typ)), nil)
	if err != nil {
		return nil, err
	}

	var vocab map[string][]string
	if err := json.Unmarshal(body, &vocab); err != nil {
		return nil, fmt.Errorf("decoding %s typing: %w", typ, err)
	}
	return vocab, nil
}

// ResetCache drops every cached snapshot, e.g. when switching worlds.
func (c *Client) ResetCache() {
	c.cacheMu.Lock()
	c.cache = make(map[cacheKey]*element.Element)
	c.cacheMu.Unlock()
}

func (c *Client) clearCredentials() {
	c.credMu.Lock()
	c.creds = config.Credentials{}
	c.credMu.Unlock()
}

func (c *Client) credentials() (config.Credentials, error) {
	c.credMu.Lock()
	defer c.credMu.Unlock()
	if c.creds.Key == "" || c.creds.Pin == "" {
		return config.Credentials{}, &AuthError{Reason: "credentials are not set"}
	}
	return c.creds, nil
}

func (c *Client) do(ctx context.Context, method, rawURL string, payload []byte) ([]byte, error) {
	creds, err := c.credentials()
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("API-Key", creds.Key)
	req.Header.Set("API-Pin", creds.Pin)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	c.log.Debug("api request",
		zap.String("method", method),
		zap.String("url", rawURL),
		zap.Int("status", resp.StatusCode),
	)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{Reason: fmt.Sprintf("server returned %d", resp.StatusCode)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &RequestError{
			Method: method,
			URL:    rawURL,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}

	return body, nil
}

// normalizePayload flattens an element and reduces every link field to bare
// ids before transmission.
func normalizePayload(el *element.Element) ([]byte, error) {
	raw, err := json.Marshal(el)
	if err != nil {
		return nil, fmt.Errorf("encoding element: %w", err)
	}
	var flat map[string]any
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("encoding element: %w", err)
	}

	for name, value := range flat {
		desc := element.Lookup(name)
		switch desc.Kind {
		case element.KindLink:
			flat[name] = element.RefID(value)
		case element.KindLinkList:
			ids := element.RefIDs(value)
			if ids == nil {
				ids = []string{}
			}
			flat[name] = ids
		}
	}

	return json.Marshal(flat)
}
