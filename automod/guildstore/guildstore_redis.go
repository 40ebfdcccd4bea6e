package guildstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var redisGuildPrefix = "guild/"

// Number of optimistic-lock attempts for a single Update before giving up.
var redisUpdateAttempts = 5

type RedisStore struct {
	Client *redis.Client
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(context.TODO()).Result()
	if err != nil {
		return nil, err
	}
	return &RedisStore{Client: rdb}, nil
}

func (s *RedisStore) GetGuild(ctx context.Context, guildID string) (*GuildDoc, error) {
	raw, err := s.Client.Get(ctx, redisGuildPrefix+guildID).Bytes()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	var doc GuildDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *RedisStore) Update(ctx context.Context, guildID string, fn func(doc *GuildDoc) error) error {
	key := redisGuildPrefix + guildID
	txf := func(tx *redis.Tx) error {
		doc := newGuildDoc(guildID)
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil {
			if err := json.Unmarshal(raw, doc); err != nil {
				return err
			}
		}
		if err := fn(doc); err != nil {
			return err
		}
		out, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		return err
	}

	for i := 0; i < redisUpdateAttempts; i++ {
		err := s.Client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			// document changed underneath us; re-read and try again
			continue
		}
		return err
	}
	return fmt.Errorf("updating guild document %s: too much contention", guildID)
}
