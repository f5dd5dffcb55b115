package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testrig/internal/datastore"
)

func TestNew_EmptyTokenIsUnauthenticated(t *testing.T) {
	h := New("")
	assert.False(t, h.Authenticated())

	headers, err := h.Headers()
	require.NoError(t, err)
	assert.Empty(t, headers)
}

func TestNew_TokenProducesBearerHeader(t *testing.T) {
	h := New("tok-123")
	assert.True(t, h.Authenticated())

	headers, err := h.Headers()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Authorization": "Bearer tok-123"}, headers)
}

func TestSetToken_ReplacesActiveToken(t *testing.T) {
	h := New("old")
	h.SetToken("new")

	headers, err := h.Headers()
	require.NoError(t, err)
	assert.Equal(t, "Bearer new", headers["Authorization"])
}

func TestFromResponseFile(t *testing.T) {
	store, err := datastore.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.WriteJSON(map[string]interface{}{
		"auth_token":    "access-abc",
		"refresh_token": "refresh-def",
	}, "api", "responses", "tokens.json"))

	h, err := FromResponseFile(store, "api", "responses", "tokens.json")
	require.NoError(t, err)
	assert.True(t, h.Authenticated())

	headers, err := h.Headers()
	require.NoError(t, err)
	assert.Equal(t, "Bearer access-abc", headers["Authorization"])
}

func TestFromResponseFile_MissingToken(t *testing.T) {
	store, err := datastore.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.WriteJSON(map[string]interface{}{
		"something_else": true,
	}, "api", "responses", "tokens.json"))

	_, err = FromResponseFile(store, "api", "responses", "tokens.json")
	assert.Error(t, err)
}
