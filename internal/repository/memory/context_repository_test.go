package memory

import (
	"context"
	"testing"
	"time"

	"commerce-assistant/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewContextRepository(time.Hour)

	got, err := repo.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	cc := store.NewConversationContext("s1", "u1")
	cc.Entities.CurrentProduct = &store.ProductRef{ID: "p1", Name: "Cashmere Bomber Jacket", Tier: "exact"}
	require.NoError(t, repo.Save(ctx, cc))

	// mutations after Save are not visible
	cc.Entities.CurrentProduct.Name = "changed"

	got, err = repo.Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Cashmere Bomber Jacket", got.Entities.CurrentProduct.Name)

	require.NoError(t, repo.Delete(ctx, "s1"))
	got, _ = repo.Get(ctx, "s1")
	assert.Nil(t, got)
}

func TestContextRepository_DeleteUser(t *testing.T) {
	ctx := context.Background()
	repo := NewContextRepository(time.Hour)

	require.NoError(t, repo.Save(ctx, store.NewConversationContext("s1", "u1")))
	require.NoError(t, repo.Save(ctx, store.NewConversationContext("s2", "u1")))
	require.NoError(t, repo.Save(ctx, store.NewConversationContext("s3", "u2")))

	require.NoError(t, repo.DeleteUser(ctx, "u1"))

	for _, id := range []string{"s1", "s2"} {
		got, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, got, id)
	}
	got, _ := repo.Get(ctx, "s3")
	assert.NotNil(t, got)
}

func TestContextRepository_ClearedAt(t *testing.T) {
	ctx := context.Background()
	repo := NewContextRepository(time.Hour)
	at := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return at }

	got, err := repo.ClearedAt(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	require.NoError(t, repo.Save(ctx, store.NewConversationContext("s1", "u1")))
	require.NoError(t, repo.DeleteUser(ctx, "u1"))

	got, err = repo.ClearedAt(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, at, got)

	// A second clear still walks the sessions cleanly.
	require.NoError(t, repo.Save(ctx, store.NewConversationContext("s2", "u1")))
	require.NoError(t, repo.DeleteUser(ctx, "u1"))
	cc, err := repo.Get(ctx, "s2")
	require.NoError(t, err)
	assert.Nil(t, cc)
}
