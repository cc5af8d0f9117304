package id

import (
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShareID_Format(t *testing.T) {
	now := time.Date(2024, 10, 5, 9, 0, 0, 0, time.UTC)

	id, err := NewShareID(now)
	require.NoError(t, err)

	prefix, suffix, ok := strings.Cut(id, "-")
	require.True(t, ok, "share id %q has no separator", id)
	ms, err := strconv.ParseInt(prefix, 36, 64)
	require.NoError(t, err)
	assert.Equal(t, now.UnixMilli(), ms)
	assert.Len(t, suffix, shareSuffixLen)
	for _, r := range suffix {
		assert.True(t, strings.ContainsRune(shareAlphabet, r), "unexpected rune %q", r)
	}
}

func TestNewShareID_Uniqueness(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, err := NewShareID(now)
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate share id %s", id)
		seen[id] = true
	}
}

func TestNew(t *testing.T) {
	_, err := uuid.Parse(New())
	assert.NoError(t, err)
	assert.NotEqual(t, New(), New())
}

func TestNewSession(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := NewSession()
		require.NoError(t, err)
		assert.Len(t, token, sessionLen)
		assert.Equal(t, url.QueryEscape(token), token, "token %q needs escaping", token)
		assert.False(t, seen[token], "duplicate session id %s", token)
		seen[token] = true
	}
}
