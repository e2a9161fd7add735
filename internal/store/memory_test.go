package store

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/dmoclinic/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGetVersions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	v, err := s.Set(ctx, "users/u1", map[string]any{"firstName": "Adham", "points": 3})
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	v, err = s.Set(ctx, "users/u1", map[string]any{"firstName": "Omar"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	doc, err := s.Get(ctx, "users/u1")
	require.NoError(t, err)
	assert.Equal(t, "Omar", doc.Fields["firstName"])
	assert.NotContains(t, doc.Fields, "points", "Set overwrites the whole document")
	assert.Equal(t, "u1", doc.ID())
}

func TestMemoryStore_GetMissing(t *testing.T) {
	_, err := NewMemoryStore().Get(context.Background(), "users/ghost")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryStore_InvalidPath(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Get(ctx, "")
	require.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = s.Set(ctx, "users//u1", nil)
	require.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = s.List(ctx, "/")
	require.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestMemoryStore_UpdateMerges(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Set(ctx, "users/u1", map[string]any{"firstName": "Adham", "points": 10})
	require.NoError(t, err)

	v, err := s.Update(ctx, "users/u1", map[string]any{"diet": "d1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	doc, err := s.Get(ctx, "users/u1")
	require.NoError(t, err)
	assert.Equal(t, "Adham", doc.Fields["firstName"])
	assert.Equal(t, "d1", doc.Fields["diet"])
	assert.Equal(t, float64(10), doc.Fields["points"], "numbers are normalised to float64")

	v, err = s.Update(ctx, "workingHours", map[string]any{"Monday": map[string]any{"start": "09:00"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), v, "update creates missing documents")
}

func TestMemoryStore_CompareAndSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	v, err := s.CompareAndSet(ctx, "milestones/u1", map[string]any{"milestoneWeight": 70.0}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	_, err = s.CompareAndSet(ctx, "milestones/u1", map[string]any{"milestoneWeight": 60.0}, 0)
	require.ErrorIs(t, err, common.ErrVersionConflict, "version 0 only creates")

	_, err = s.CompareAndSet(ctx, "milestones/u1", map[string]any{"milestoneWeight": 60.0}, 7)
	require.ErrorIs(t, err, common.ErrVersionConflict)

	v, err = s.CompareAndSet(ctx, "milestones/u1", map[string]any{"milestoneWeight": 0.0}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestMemoryStore_PushAndList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	ids := []string{"b", "a", "c"}
	s.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	for _, content := range []string{"hi", "hello", "bye"} {
		_, err := s.Push(ctx, "chats/c1/messages", map[string]any{"content": content})
		require.NoError(t, err)
	}
	_, err := s.Set(ctx, "chats/c1", map[string]any{"userUID": "u1"})
	require.NoError(t, err)

	docs, err := s.List(ctx, "chats/c1/messages")
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "chats/c1/messages/a", docs[0].Path)
	assert.Equal(t, "hello", docs[0].Fields["content"])

	chats, err := s.List(ctx, "chats")
	require.NoError(t, err)
	require.Len(t, chats, 1, "only direct children are listed")
	assert.Equal(t, "c1", chats[0].ID())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.Set(ctx, "users/u1", map[string]any{"weightProgress": []float64{80, 79}})
	require.NoError(t, err)

	doc, err := s.Get(ctx, "users/u1")
	require.NoError(t, err)
	doc.Fields["weightProgress"] = append(doc.Fields["weightProgress"].([]any), 78.0)

	again, err := s.Get(ctx, "users/u1")
	require.NoError(t, err)
	assert.Len(t, again.Fields["weightProgress"], 2)
}

func TestMemoryStore_Dump(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, _ = s.Set(ctx, "users/u2", nil)
	_, _ = s.Set(ctx, "diets/d1", map[string]any{"name": "Keto"})

	docs, err := s.Dump(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "diets/d1", docs[0].Path)
	assert.Equal(t, "users/u2", docs[1].Path)
}
