package infrastructure

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"campaignexport/internal/domain"
	"campaignexport/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseArtifactStore(t *testing.T, store domain.ArtifactStore, key string) {
	ctx := context.Background()

	missing, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.Error(t, store.Put(ctx, key, nil))

	created := time.Date(2025, 6, 25, 12, 0, 0, 0, time.UTC)
	artifact := &domain.Artifact{
		FileName:    "EWC_Meta_June25_bulk_import.csv",
		ContentType: "text/csv; charset=utf-8",
		Checksum:    "abc123",
		Data:        []byte("Campaign ID,Campaign Name\n,EWC\n"),
		CreatedAt:   created,
	}
	require.NoError(t, store.Put(ctx, key, artifact))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, artifact.FileName, got.FileName)
	assert.Equal(t, artifact.Data, got.Data)
	assert.Equal(t, artifact.Checksum, got.Checksum)
	assert.True(t, created.Equal(got.CreatedAt))

	require.NoError(t, store.Delete(ctx, key, key+":other"))
	gone, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, gone)
	require.NoError(t, store.Delete(ctx))
}

func TestMemoryArtifactStore(t *testing.T) {
	exerciseArtifactStore(t, NewMemoryArtifactStore(logger.Discard()), "job:1:csv")
}

func TestMemoryArtifactStoreCopiesData(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryArtifactStore(logger.Discard())

	data := []byte("a,b\n")
	require.NoError(t, store.Put(ctx, "job:1:csv", &domain.Artifact{Data: data}))
	data[0] = 'x'

	first, err := store.Get(ctx, "job:1:csv")
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(first.Data))
	first.Data[0] = 'z'

	second, err := store.Get(ctx, "job:1:csv")
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(second.Data))
}

func TestRedisArtifactStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	db, _ := strconv.Atoi(os.Getenv("TEST_REDIS_DB"))

	client, err := NewRedisClient(context.Background(), addr, os.Getenv("TEST_REDIS_PASSWORD"), db)
	require.NoError(t, err)
	defer client.Close()

	store := NewRedisArtifactStore(client, time.Minute, logger.Discard())
	key := "job:" + uuid.NewString() + ":csv"
	exerciseArtifactStore(t, store, key)

	ttl, err := client.TTL(context.Background(), store.keyPrefix+key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}
