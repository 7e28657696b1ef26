package oauth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobeaver/beaver-connect/oauth"
)

func TestTokenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("set then get", func(t *testing.T) {
		kv := newMemoryStore()
		s := oauth.NewTokenStore("fb", kv, nil)
		assert.Equal(t, "fb_access_token", s.Key())
		assert.False(t, s.HasToken(ctx))

		gets := kv.gets
		require.NoError(t, s.SetToken(ctx, "tok_1"))
		assert.True(t, s.HasToken(ctx))
		tok, ok := s.Token(ctx)
		assert.True(t, ok)
		assert.Equal(t, "tok_1", tok)
		assert.Equal(t, gets, kv.gets, "a token just set is served without reading the store")
		assert.Equal(t, "tok_1", kv.value("fb_access_token"))
	})

	t.Run("empty token is ignored", func(t *testing.T) {
		kv := newMemoryStore()
		s := oauth.NewTokenStore("fb", kv, nil)
		require.NoError(t, s.SetToken(ctx, "tok_1"))
		require.NoError(t, s.SetToken(ctx, ""))

		tok, _ := s.Token(ctx)
		assert.Equal(t, "tok_1", tok)
		assert.Equal(t, "tok_1", kv.value("fb_access_token"))
	})

	t.Run("lazy load", func(t *testing.T) {
		kv := newMemoryStore()
		kv.values["fb_access_token"] = "persisted"

		s := oauth.NewTokenStore("fb", kv, nil)
		tok, ok := s.Token(ctx)
		require.True(t, ok)
		assert.Equal(t, "persisted", tok)

		s.HasToken(ctx)
		assert.Equal(t, 1, kv.gets, "a cached token is not read again")
	})

	t.Run("stored empty string is no token", func(t *testing.T) {
		kv := newMemoryStore()
		kv.values["fb_access_token"] = ""
		assert.False(t, oauth.NewTokenStore("fb", kv, nil).HasToken(ctx))
	})

	t.Run("read failure counts as no token", func(t *testing.T) {
		kv := newMemoryStore()
		kv.getErr = errors.New("connection refused")
		s := oauth.NewTokenStore("fb", kv, nil)
		assert.False(t, s.HasToken(ctx))
		_, ok := s.Token(ctx)
		assert.False(t, ok)
	})

	t.Run("write failure is returned", func(t *testing.T) {
		kv := newMemoryStore()
		kv.setErr = errors.New("read-only")
		s := oauth.NewTokenStore("fb", kv, nil)
		err := s.SetToken(ctx, "tok")
		assert.ErrorIs(t, err, kv.setErr)
	})
}
