package relay_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/relay/internal/domain"
	"github.com/nfrund/relay/internal/relay"
)

func TestSessionRegistry(t *testing.T) {
	reg := relay.NewSessionRegistry()

	_, ok := reg.Lookup("conn-1")
	assert.False(t, ok, "a fresh connection must be unauthenticated")

	reg.Bind("conn-1", &domain.Identity{ID: "u1", Role: domain.RoleUser})
	identity, ok := reg.Lookup("conn-1")
	require.True(t, ok)
	assert.Equal(t, "u1", identity.ID)
	assert.Equal(t, 1, reg.Len())

	reg.Drop("conn-1")
	_, ok = reg.Lookup("conn-1")
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Len())

	// Dropping an unknown connection is a no-op.
	reg.Drop("never-seen")
}
