package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevokeToken(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	assert.False(t, IsTokenRevoked(ctx, "session-abc"))

	require.NoError(t, RevokeToken(ctx, "session-abc", time.Hour))
	assert.True(t, IsTokenRevoked(ctx, "session-abc"))
	assert.False(t, IsTokenRevoked(ctx, "session-xyz"))

	// The denylist entry lapses with the token's own lifetime.
	mr.FastForward(2 * time.Hour)
	assert.False(t, IsTokenRevoked(ctx, "session-abc"))
}

func TestRevokeToken_NilClient(t *testing.T) {
	SetClient(nil)
	ctx := context.Background()

	assert.Error(t, RevokeToken(ctx, "session-abc", time.Hour))
	assert.False(t, IsTokenRevoked(ctx, "session-abc"))
}
