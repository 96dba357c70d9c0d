package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"campaignexport/internal/domain"
	"campaignexport/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// implements domain.ArtifactStore in memory; artifacts live until deleted.
// Data is copied on the way in and out so stored bytes never change.
type MemoryArtifactStore struct {
	data   map[string]domain.Artifact
	mutex  sync.RWMutex
	logger *logger.Logger
}

func NewMemoryArtifactStore(logger *logger.Logger) *MemoryArtifactStore {
	return &MemoryArtifactStore{
		data:   make(map[string]domain.Artifact),
		logger: logger,
	}
}

func (r *MemoryArtifactStore) Put(ctx context.Context, key string, artifact *domain.Artifact) error {
	if artifact == nil {
		return fmt.Errorf("nil artifact for %s", key)
	}

	stored := *artifact
	stored.Data = bytes.Clone(artifact.Data)

	r.mutex.Lock()
	r.data[key] = stored
	r.mutex.Unlock()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"key":   key,
		"bytes": len(artifact.Data),
	}).Debug("Stored artifact in memory")
	return nil
}

func (r *MemoryArtifactStore) Get(ctx context.Context, key string) (*domain.Artifact, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	artifact, ok := r.data[key]
	if !ok {
		return nil, nil
	}
	artifact.Data = bytes.Clone(artifact.Data)
	return &artifact, nil
}

func (r *MemoryArtifactStore) Delete(ctx context.Context, keys ...string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for _, key := range keys {
		delete(r.data, key)
	}
	return nil
}

// implements domain.ArtifactStore on redis with a per-key TTL
type RedisArtifactStore struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
	logger    *logger.Logger
}

func NewRedisArtifactStore(client *redis.Client, ttl time.Duration, logger *logger.Logger) *RedisArtifactStore {
	return &RedisArtifactStore{
		client:    client,
		ttl:       ttl,
		keyPrefix: "campaignexport:artifact:",
		logger:    logger,
	}
}

// NewRedisClient connects and pings; the client is closed again when the ping fails.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rc := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return rc, nil
}

func (r *RedisArtifactStore) Put(ctx context.Context, key string, artifact *domain.Artifact) error {
	if artifact == nil {
		return fmt.Errorf("nil artifact for %s", key)
	}

	payload, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	if err := r.client.Set(ctx, r.keyPrefix+key, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store artifact %s: %w", key, err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"key":   key,
		"bytes": len(artifact.Data),
		"ttl":   r.ttl,
	}).Debug("Stored artifact in redis")
	return nil
}

func (r *RedisArtifactStore) Get(ctx context.Context, key string) (*domain.Artifact, error) {
	payload, err := r.client.Get(ctx, r.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load artifact %s: %w", key, err)
	}

	var artifact domain.Artifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifact %s: %w", key, err)
	}
	return &artifact, nil
}

func (r *RedisArtifactStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = r.keyPrefix + key
	}
	if err := r.client.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("failed to delete artifacts: %w", err)
	}
	return nil
}
