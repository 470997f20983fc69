package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"smart-fridge/internal/infrastructure/config"
	"smart-fridge/internal/pkg/common"
)

// ErrNotFound 鍵不存在
var ErrNotFound = common.ErrNotFound

// Entry 前綴掃描的結果
type Entry struct {
	Key   string
	Value []byte
}

// KV 鍵值儲存介面
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// ScanPrefix 回傳所有以 prefix 開頭的鍵，依鍵排序
	ScanPrefix(ctx context.Context, prefix string) ([]Entry, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open 依設定建立儲存實例
func Open(ctx context.Context, cfg config.StoreConfig) (KV, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "redis":
		return NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case "sqlite":
		return NewSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// GetJSON 讀取並解析 JSON 值
func GetJSON[T any](ctx context.Context, kv KV, key string) (T, error) {
	var out T
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}

// SetJSON 將值編碼為 JSON 後寫入
func SetJSON(ctx context.Context, kv KV, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return kv.Set(ctx, key, raw)
}

func sortEntries(entries []Entry) []Entry {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

func transportErr(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", common.ErrTransport, op, key, err)
}
