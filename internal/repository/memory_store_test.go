package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warelay/internal/entities"
)

func TestMemoryStoreAppendFetch(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	stored := store.Append(ctx, []entities.MessageEvent{
		{ID: "m1", From: "628111", To: "999", Timestamp: "1700000100", Type: entities.TypeText, Body: "first"},
		{ID: "m2", From: "628111", To: "999", Timestamp: "1700000200", Type: entities.TypeText, Body: "second"},
		{ID: "m3", From: "628222", To: "999", Timestamp: "1700000150", Type: entities.TypeText, Body: "other party"},
	})
	assert.Equal(t, 3, stored)

	history := store.Fetch(ctx, "628111", 0)
	require.Len(t, history, 2)
	assert.Equal(t, "second", history[0].Body, "newest first")
	assert.Equal(t, "first", history[1].Body)
}

func TestMemoryStoreFetchMatchesEitherDirection(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Append(ctx, []entities.MessageEvent{
		{ID: "in", From: "628111", To: "999", Timestamp: "1700000100", Type: entities.TypeText, Body: "question"},
		{To: "628111", Timestamp: "1700000200", Type: entities.TypeText, Body: "our reply"},
	})

	history := store.Fetch(ctx, "628111", 0)
	require.Len(t, history, 2, "outbound records surface under the counterparty address")
	assert.Equal(t, "our reply", history[0].Body)
}

func TestMemoryStoreFetchLimit(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Append(ctx, []entities.MessageEvent{
		{ID: "m1", From: "628111", Timestamp: "1700000100", Type: entities.TypeText, Body: "a"},
		{ID: "m2", From: "628111", Timestamp: "1700000200", Type: entities.TypeText, Body: "b"},
		{ID: "m3", From: "628111", Timestamp: "1700000300", Type: entities.TypeText, Body: "c"},
	})

	history := store.Fetch(ctx, "628111", 1)
	require.Len(t, history, 1)
	assert.Equal(t, "c", history[0].Body)
}

func TestMemoryStoreSkipsAddresslessEvents(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	stored := store.Append(ctx, []entities.MessageEvent{
		{ID: "ghost", Timestamp: "1700000100", Type: entities.TypeText, Body: "nobody"},
		{ID: "ok", From: "628111", Timestamp: "1700000200", Type: entities.TypeText, Body: "real"},
	})
	assert.Equal(t, 1, stored)
	assert.Len(t, store.Recent(ctx, 0), 1)
}

func TestMemoryStoreFetchEmptyAddress(t *testing.T) {
	store := NewMemoryStore()
	store.Append(context.Background(), []entities.MessageEvent{
		{ID: "m1", From: "628111", Timestamp: "1700000100", Type: entities.TypeText, Body: "a"},
	})
	assert.Empty(t, store.Fetch(context.Background(), "", 0))
}

func TestMemoryStoreRecent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, ev := range []entities.MessageEvent{
		{ID: "m1", From: "628111", Timestamp: "1700000100", Type: entities.TypeText, Body: "a"},
		{ID: "m2", From: "628222", Timestamp: "1700000300", Type: entities.TypeText, Body: "c"},
		{ID: "m3", From: "628333", Timestamp: "1700000200", Type: entities.TypeText, Body: "b"},
	} {
		store.Append(ctx, []entities.MessageEvent{ev})
	}

	recent := store.Recent(ctx, 2)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].Body)
	assert.Equal(t, "b", recent[1].Body)
}

func TestDegradedMessageRepositoryIsInert(t *testing.T) {
	store := NewMessageRepository(nil, nil)
	ctx := context.Background()

	stored := store.Append(ctx, []entities.MessageEvent{
		{ID: "m1", From: "628111", Timestamp: "1700000100", Type: entities.TypeText, Body: "a"},
	})
	assert.Zero(t, stored)
	assert.Empty(t, store.Fetch(ctx, "628111", 0))
	assert.Empty(t, store.Recent(ctx, 10))
}
