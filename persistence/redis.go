package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wfunc/coinflip/config"
	"github.com/wfunc/coinflip/models"
)

// RedisStore keeps the most recent rounds in a capped list, newest first.
type RedisStore struct {
	client *redis.Client
	key    string
	maxLen int64
}

func NewRedisStore(cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return NewRedisStoreWithClient(client, cfg.Key, cfg.MaxLen), nil
}

// NewRedisStoreWithClient wraps an existing client (for testing).
func NewRedisStoreWithClient(client *redis.Client, key string, maxLen int64) *RedisStore {
	return &RedisStore{client: client, key: key, maxLen: maxLen}
}

func (s *RedisStore) SaveRound(ctx context.Context, rec *models.RoundRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.key, data)
	if s.maxLen > 0 {
		pipe.LTrim(ctx, s.key, 0, s.maxLen-1)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns up to n of the newest rounds.
func (s *RedisStore) Recent(ctx context.Context, n int64) ([]models.RoundRecord, error) {
	raw, err := s.client.LRange(ctx, s.key, 0, n-1).Result()
	if err != nil {
		return nil, err
	}

	records := make([]models.RoundRecord, 0, len(raw))
	for _, item := range raw {
		var rec models.RoundRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
