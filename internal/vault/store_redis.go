package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"hearth/pkg/platform/sentinel"
)

const redisKeyPrefix = "vault:"

// RedisStore persists blobs in Redis so multiple instances share the vault.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisBlobKey(subjectID, collection string) string {
	return redisKeyPrefix + subjectID + ":" + collection
}

func (s *RedisStore) Put(ctx context.Context, subjectID, collection string, blob Blob) error {
	raw, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("marshal blob: %w", err)
	}
	if err := s.client.Set(ctx, redisBlobKey(subjectID, collection), raw, 0).Err(); err != nil {
		return fmt.Errorf("store blob: %w: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, subjectID, collection string) (Blob, error) {
	raw, err := s.client.Get(ctx, redisBlobKey(subjectID, collection)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Blob{}, fmt.Errorf("no %s blob for subject: %w", collection, sentinel.ErrNotFound)
	}
	if err != nil {
		return Blob{}, fmt.Errorf("load blob: %w: %v", sentinel.ErrUnavailable, err)
	}
	var blob Blob
	if err := json.Unmarshal(raw, &blob); err != nil {
		return Blob{}, fmt.Errorf("decode blob: %w", err)
	}
	return blob, nil
}
