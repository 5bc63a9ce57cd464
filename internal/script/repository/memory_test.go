package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chattersim/chattersim/internal/script/models"
	v1 "github.com/chattersim/chattersim/pkg/api/v1"
)

func textItem(content string) *models.QueueItem {
	return &models.QueueItem{
		Sender:       v1.SenderMe,
		Kind:         v1.KindText,
		Content:      content,
		DelayAfterMs: 100,
	}
}

func TestMemoryRepository_CreatePreservesOrder(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	for _, content := range []string{"first", "second", "third"} {
		require.NoError(t, repo.CreateItem(ctx, textItem(content)))
	}

	items, err := repo.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "first", items[0].Content)
	assert.Equal(t, "second", items[1].Content)
	assert.Equal(t, "third", items[2].Content)
	for _, item := range items {
		assert.NotEmpty(t, item.ID)
		assert.NotZero(t, item.CreatedAt)
	}
}

func TestMemoryRepository_UpdateKeepsPosition(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	a := textItem("a")
	b := textItem("b")
	require.NoError(t, repo.CreateItem(ctx, a))
	require.NoError(t, repo.CreateItem(ctx, b))

	updated := a.Clone()
	updated.Content = "a2"
	require.NoError(t, repo.UpdateItem(ctx, updated))

	items, err := repo.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a2", items[0].Content)
	assert.Equal(t, a.CreatedAt, items[0].CreatedAt)
}

func TestMemoryRepository_Delete(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	a := textItem("a")
	b := textItem("b")
	require.NoError(t, repo.CreateItem(ctx, a))
	require.NoError(t, repo.CreateItem(ctx, b))

	require.NoError(t, repo.DeleteItem(ctx, a.ID))
	_, err := repo.GetItem(ctx, a.ID)
	assert.Error(t, err)

	items, err := repo.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].Content)

	assert.Error(t, repo.DeleteItem(ctx, a.ID))
}

func TestMemoryRepository_ReplaceAndClear(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.CreateItem(ctx, textItem("old")))

	replacement := []*models.QueueItem{textItem("n1"), textItem("n2")}
	require.NoError(t, repo.ReplaceItems(ctx, replacement))

	items, err := repo.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "n1", items[0].Content)

	require.NoError(t, repo.ClearItems(ctx))
	items, err = repo.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}
