package cache

import (
	"strings"
	"sync/atomic"

	"smart-fridge/internal/infrastructure/config"
	"smart-fridge/internal/pkg/common"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

const defaultMaxSize = 500

// Stats 緩存統計
type Stats struct {
	Enabled   bool    `json:"enabled"`
	Size      int     `json:"size"`
	MaxSize   int     `json:"max_size"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRatio  float64 `json:"hit_ratio"`
}

// Manager 以名稱為鍵的行程內緩存，條目不會過期，只在超出容量時以 LRU 淘汰
type Manager[V any] struct {
	name      string
	enabled   bool
	maxSize   int
	store     *lru.Cache[string, V]
	hits      int64
	misses    int64
	evictions int64
}

// NewManager 創建新的緩存管理器
func NewManager[V any](name string, cfg config.CacheConfig) *Manager[V] {
	size := cfg.MaxSize
	if size <= 0 {
		size = defaultMaxSize
	}
	m := &Manager[V]{name: name, enabled: cfg.Enabled, maxSize: size}

	store, err := lru.NewWithEvict[string, V](size, func(key string, _ V) {
		atomic.AddInt64(&m.evictions, 1)
		common.LogDebug("快取已淘汰(LRU)", zap.String("cache", m.name), zap.String("key", key))
	})
	if err != nil {
		// 只有 size <= 0 時才會失敗
		panic(err)
	}
	m.store = store

	common.LogInfo("快取管理員已初始化",
		zap.String("cache", name),
		zap.Bool("enabled", cfg.Enabled),
		zap.Int("max_size", size),
	)
	return m
}

// Key 正規化緩存鍵：去除前後空白並忽略大小寫
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Get 獲取緩存值
func (m *Manager[V]) Get(name string) (V, bool) {
	var zero V
	if m == nil || !m.enabled {
		return zero, false
	}
	key := Key(name)
	v, ok := m.store.Get(key)
	if !ok {
		atomic.AddInt64(&m.misses, 1)
		common.LogCacheMiss(m.name, key)
		return zero, false
	}
	atomic.AddInt64(&m.hits, 1)
	common.LogCacheHit(m.name, key)
	return v, true
}

// Set 設置緩存值
func (m *Manager[V]) Set(name string, value V) {
	if m == nil || !m.enabled {
		return
	}
	m.store.Add(Key(name), value)
}

// Contains 檢查是否已緩存，不影響統計與 LRU 順序
func (m *Manager[V]) Contains(name string) bool {
	if m == nil || !m.enabled {
		return false
	}
	return m.store.Contains(Key(name))
}

// Len 目前條目數
func (m *Manager[V]) Len() int {
	if m == nil {
		return 0
	}
	return m.store.Len()
}

// GetStats 獲取緩存統計信息
func (m *Manager[V]) GetStats() Stats {
	if m == nil {
		return Stats{}
	}
	hits := atomic.LoadInt64(&m.hits)
	misses := atomic.LoadInt64(&m.misses)
	ratio := 0.0
	if hits+misses > 0 {
		ratio = float64(hits) / float64(hits+misses)
	}
	return Stats{
		Enabled:   m.enabled,
		Size:      m.store.Len(),
		MaxSize:   m.maxSize,
		Hits:      hits,
		Misses:    misses,
		Evictions: atomic.LoadInt64(&m.evictions),
		HitRatio:  ratio,
	}
}

// Close 清空緩存
func (m *Manager[V]) Close() {
	if m == nil {
		return
	}
	stats := m.GetStats()
	m.store.Purge()
	common.LogInfo("快取管理員已關閉",
		zap.String("cache", m.name),
		zap.Int64("hits", stats.Hits),
		zap.Int64("misses", stats.Misses),
		zap.Int64("evictions", stats.Evictions),
	)
}
