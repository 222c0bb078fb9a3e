package uritemplate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	engine := MustNew()
	catalog := NewCatalog(engine, NewMemoryStorage())

	stored, err := catalog.Publish(ctx, "users.get", "/users/{id}")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)

	_, err = catalog.Publish(ctx, "users.get", "/v2/users/{id}{?fields*}")
	require.NoError(t, err)

	t.Run("expands latest version", func(t *testing.T) {
		uri, err := catalog.Expand(ctx, "users.get", map[string]any{
			"id":     42,
			"fields": []string{"name", "email"},
		})
		require.NoError(t, err)
		assert.Equal(t, "/v2/users/42?fields=name&fields=email", uri)
	})

	t.Run("expands a pinned version", func(t *testing.T) {
		uri, err := catalog.ExpandVersion(ctx, "users.get", 1, map[string]any{"id": 42})
		require.NoError(t, err)
		assert.Equal(t, "/users/42", uri)
	})

	t.Run("parses through the engine cache", func(t *testing.T) {
		engine.FlushCache()
		first, err := catalog.Template(ctx, "users.get")
		require.NoError(t, err)
		second, err := catalog.Template(ctx, "users.get")
		require.NoError(t, err)
		assert.Same(t, first, second)
		assert.Equal(t, 1, engine.CacheSize())
	})

	t.Run("missing template", func(t *testing.T) {
		_, err := catalog.Expand(ctx, "nope", nil)
		require.Error(t, err)
		assert.True(t, IsNotFound(err))

		_, err = catalog.TemplateVersion(ctx, "users.get", 9)
		assert.True(t, IsNotFound(err))
	})

	t.Run("publish rejects invalid source", func(t *testing.T) {
		_, err := catalog.Publish(ctx, "broken", "/x{")
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgInvalidTemplateSource)
	})

	t.Run("expansion errors surface", func(t *testing.T) {
		_, err := catalog.Publish(ctx, "prefixed", "/x{list:2}")
		require.NoError(t, err)
		_, err = catalog.Expand(ctx, "prefixed", map[string]any{"list": []string{"a"}})
		assert.True(t, IsRangeError(err))
	})

	t.Run("nil engine gets a default", func(t *testing.T) {
		c := NewCatalog(nil, catalog.Storage())
		uri, err := c.Expand(ctx, "users.get", map[string]any{"id": 1})
		require.NoError(t, err)
		assert.Equal(t, "/v2/users/1", uri)
	})
}
