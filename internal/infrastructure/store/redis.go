package store

import (
	"context"
	"errors"
	"strings"

	"github.com/go-redis/redis/v8"
)

const scanBatch = 100

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// Redis 以 Redis 作為鍵值儲存
type Redis struct {
	client *redis.Client
}

// NewRedis 建立 Redis 儲存並確認連線
func NewRedis(ctx context.Context, addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, transportErr("ping", addr, err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, transportErr("get", key, err)
	}
	return v, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return transportErr("set", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return transportErr("del", key, err)
	}
	return nil
}

// ScanPrefix 使用 SCAN MATCH 收集鍵，再以 MGET 取值
func (r *Redis) ScanPrefix(ctx context.Context, prefix string) ([]Entry, error) {
	match := globEscaper.Replace(prefix) + "*"

	seen := make(map[string]struct{})
	var keys []string
	var cursor uint64
	for {
		batch, next, err := r.client.Scan(ctx, cursor, match, scanBatch).Result()
		if err != nil {
			return nil, transportErr("scan", prefix, err)
		}
		for _, k := range batch {
			if _, dup := seen[k]; !dup {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	entries := make([]Entry, 0, len(keys))
	if len(keys) == 0 {
		return entries, nil
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, transportErr("mget", prefix, err)
	}
	for i, v := range values {
		// 掃描後被刪除的鍵為 nil
		s, ok := v.(string)
		if !ok {
			continue
		}
		entries = append(entries, Entry{Key: keys[i], Value: []byte(s)})
	}
	return sortEntries(entries), nil
}

func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return transportErr("ping", "", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
