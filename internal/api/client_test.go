package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worldkit/internal/config"
	"worldkit/internal/element"
)

var testCreds = config.Credentials{Key: "1234567890", Pin: "4321"}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(srv.URL, testCreds)
	require.NoError(t, err)
	return client, srv
}

func TestNewRejectsMalformedCredentials(t *testing.T) {
	_, err := New("https://example.test", config.Credentials{Key: "abc", Pin: "1"})
	require.Error(t, err)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestHeaders(t *testing.T) {
	var gotKey, gotPin, gotContentType string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("API-Key")
		gotPin = r.Header.Get("API-Pin")
		gotContentType = r.Header.Get("Content-Type")
		json.NewEncoder(w).Encode([]element.Element{})
	}))

	_, err := client.List(context.Background(), "character", nil)
	require.NoError(t, err)
	assert.Equal(t, "1234567890", gotKey)
	assert.Equal(t, "4321", gotPin)
	assert.Equal(t, "application/json", gotContentType)
}

func TestGetCacheFirst(t *testing.T) {
	var hits int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		json.NewEncoder(w).Encode(map[string]any{"id": "c1", "name": "Aria", "world": "w1"})
	}))

	ctx := context.Background()
	first, err := client.Get(ctx, "character", "c1")
	require.NoError(t, err)
	second, err := client.Get(ctx, "character", "c1")
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "second get must be served from cache")
	assert.Equal(t, first.Name, second.Name)

	// Cached copies must not alias each other.
	second.Name = "Mutated"
	third, err := client.Get(ctx, "character", "c1")
	require.NoError(t, err)
	assert.Equal(t, "Aria", third.Name)
}

func TestDeleteEvictsCache(t *testing.T) {
	var gets int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		atomic.AddInt32(&gets, 1)
		json.NewEncoder(w).Encode(map[string]any{"id": "c1", "name": "Aria", "world": "w1"})
	}))

	ctx := context.Background()
	_, err := client.Get(ctx, "character", "c1")
	require.NoError(t, err)
	require.NoError(t, client.Delete(ctx, "character", "c1"))

	_, err = client.Get(ctx, "character", "c1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&gets), "delete must evict the cache entry")
}

func TestListPopulatesCache(t *testing.T) {
	var requests int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "c1", "name": "Aria", "world": "w1"},
			{"id": "c2", "name": "Bram", "world": "w1"},
		})
	}))

	ctx := context.Background()
	elements, err := client.List(ctx, "character", nil)
	require.NoError(t, err)
	require.Len(t, elements, 2)

	el, err := client.Get(ctx, "character", "c2")
	require.NoError(t, err)
	assert.Equal(t, "Bram", el.Name)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests), "get after list must hit the cache")
}

func TestCreate(t *testing.T) {
	t.Run("missing name fails before transmission", func(t *testing.T) {
		var requests int32
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requests, 1)
		}))

		_, err := client.Create(context.Background(), "character", &element.Element{World: "w1"})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "name", vErr.Field)
		assert.Equal(t, int32(0), atomic.LoadInt32(&requests))
	})

	t.Run("missing world fails before transmission", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		_, err := client.Create(context.Background(), "character", &element.Element{Name: "Aria"})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "world", vErr.Field)
	})

	t.Run("assigns a time-ordered id when absent", func(t *testing.T) {
		var posted map[string]any
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
			w.WriteHeader(http.StatusCreated)
		}))

		created, err := client.Create(context.Background(), "character", &element.Element{Name: "Aria", World: "w1"})
		require.NoError(t, err)
		assert.True(t, element.ValidID(created.ID))
		assert.Equal(t, created.ID, posted["id"])
	})
}

func TestUpdate(t *testing.T) {
	t.Run("merges partial fields into the cached record", func(t *testing.T) {
		var put map[string]any
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				json.NewEncoder(w).Encode(map[string]any{
					"id": "c1", "name": "Aria", "description": "A bard", "world": "w1",
				})
			case http.MethodPut:
				require.NoError(t, json.NewDecoder(r.Body).Decode(&put))
			}
		}))

		updated, err := client.Update(context.Background(), "character", "c1", map[string]any{"name": "Arianna"})
		require.NoError(t, err)
		assert.Equal(t, "Arianna", updated.Name)
		assert.Equal(t, "Arianna", put["name"])
		assert.Equal(t, "A bard", put["description"], "untouched fields must survive the merge")
	})

	t.Run("normalizes link fields to bare ids", func(t *testing.T) {
		var put map[string]any
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				json.NewEncoder(w).Encode(map[string]any{
					"id": "c1", "name": "Aria", "world": "w1",
					"location": map[string]any{"id": "l1", "name": "Westport"},
				})
			case http.MethodPut:
				require.NoError(t, json.NewDecoder(r.Body).Decode(&put))
			}
		}))

		_, err := client.Update(context.Background(), "character", "c1", map[string]any{
			"species": []any{
				map[string]any{"id": "s1", "name": "Elf"},
				"s2",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "l1", put["location"], "expanded link object must flatten to its id")
		assert.Equal(t, []any{"s1", "s2"}, put["species"])
	})

	t.Run("empty field set rejected", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		_, err := client.Update(context.Background(), "character", "c1", nil)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
	})
}

func TestErrorTaxonomy(t *testing.T) {
	t.Run("non-2xx yields RequestError with status", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))

		_, err := client.List(context.Background(), "character", nil)
		var reqErr *RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, http.StatusInternalServerError, reqErr.Status)
		assert.Contains(t, reqErr.Body, "boom")
		assert.False(t, reqErr.ClientError())
	})

	t.Run("401 yields AuthError", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))

		_, err := client.Get(context.Background(), "character", "c1")
		var authErr *AuthError
		require.ErrorAs(t, err, &authErr)
	})

	t.Run("auth failure during CheckAuth clears credentials", func(t *testing.T) {
		var requests int32
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requests, 1)
			w.WriteHeader(http.StatusUnauthorized)
		}))

		_, err := client.CheckAuth(context.Background())
		var authErr *AuthError
		require.ErrorAs(t, err, &authErr)

		// Later calls must fail fast without reaching the network.
		_, err = client.Get(context.Background(), "character", "c1")
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
	})
}

func TestCheckAuth(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/world/", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]any{{"id": "w1", "name": "Aethel"}})
	}))

	world, err := client.CheckAuth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "w1", world.ID)
	assert.Equal(t, "Aethel", world.Name)
}

func TestTyping(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/typing/Character/", r.URL.Path)
		json.NewEncoder(w).Encode(map[string][]string{"humanoid": {"bard", "knight"}})
	}))

	vocab, err := client.Typing(context.Background(), "character")
	require.NoError(t, err)
	assert.Equal(t, []string{"bard", "knight"}, vocab["humanoid"])
}

func TestResetCache(t *testing.T) {
	var gets int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&gets, 1)
		json.NewEncoder(w).Encode(map[string]any{"id": "c1", "name": "Aria", "world": "w1"})
	}))

	ctx := context.Background()
	_, err := client.Get(ctx, "character", "c1")
	require.NoError(t, err)
	client.ResetCache()
	_, err = client.Get(ctx, "character", "c1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&gets))
}

func TestUnknownType(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	_, err := client.List(context.Background(), "dragon", nil)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}
