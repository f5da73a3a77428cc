package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jgoulah/powerpal/pkg/models"
)

// DefaultRedisKey is where the model is kept when no key is configured
const DefaultRedisKey = "powerpal:model"

// RedisArtifacts shares the fitted model between processes through Redis
type RedisArtifacts struct {
	client *redis.Client
	key    string
}

// NewRedisArtifacts creates an artifact store using the given client
func NewRedisArtifacts(client *redis.Client, key string) *RedisArtifacts {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisArtifacts{client: client, key: key}
}

// Save overwrites the stored model; the last writer wins
func (s *RedisArtifacts) Save(ctx context.Context, model *LinearModel) error {
	data, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: saving model to redis: %v", models.ErrIO, err)
	}
	return nil
}

// Load fetches the stored model
func (s *RedisArtifacts) Load(ctx context.Context) (*LinearModel, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("model %s: %w", s.key, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: loading model from redis: %v", models.ErrIO, err)
	}

	var model LinearModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("%w: decoding model: %v", models.ErrIO, err)
	}
	return &model, nil
}
