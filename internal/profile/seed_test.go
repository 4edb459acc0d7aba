package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backcheck-service/internal/store"
)

func TestSeedDemoTalentsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(store.NewMemory(), nil)

	n, err := SeedDemoTalents(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, len(demoTalents), n)

	n, err = SeedDemoTalents(ctx, repo)
	require.NoError(t, err)
	assert.Zero(t, n)

	p, err := repo.Get(ctx, "demo-talent-2")
	require.NoError(t, err)
	assert.Len(t, p.Talent.PublicID, 12)
	assert.Equal(t, "John Doe", p.Talent.DisplayName)
}
