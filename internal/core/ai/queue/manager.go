package queue

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"smart-fridge/internal/core/ai/provider"
	"smart-fridge/internal/infrastructure/config"
	"smart-fridge/internal/pkg/common"

	"go.uber.org/zap"
)

// 隊列錯誤都包裝 common.ErrTransport：對呼叫端而言與模型連線失敗相同
var (
	// ErrQueueFull 等待中的模型呼叫已達上限
	ErrQueueFull = common.NewError(common.ErrCodeTooManyRequests, "요청이 너무 많습니다. 잠시 후 다시 시도해주세요.", http.StatusTooManyRequests, common.ErrTransport)
	// ErrClosed 隊列管理器已關閉
	ErrClosed = fmt.Errorf("%w: queue manager is closed", common.ErrTransport)
)

// Status 隊列狀態
type Status struct {
	QueueLength    int   `json:"queue_length"`
	Active         int   `json:"active"`
	ProcessedCount int64 `json:"processed_count"`
	FailedCount    int64 `json:"failed_count"`
	MaxQueueSize   int   `json:"max_queue_size"`
	Workers        int   `json:"workers"`
}

// Manager 限制同時進行的模型呼叫數量
type Manager struct {
	workers   int
	maxSize   int
	slots     chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	waiting   int64
	processed int64
	failed    int64
}

// NewManager 創建新的隊列管理器
func NewManager(cfg config.QueueConfig) *Manager {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Manager{
		workers: workers,
		maxSize: cfg.MaxSize,
		slots:   make(chan struct{}, workers),
		done:    make(chan struct{}),
	}
}

// Do 取得執行槽後執行 fn；等待中的呼叫超過上限時回傳 ErrQueueFull
func (m *Manager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: waiting for model slot: %w", common.ErrTransport, err)
	}
	if n := atomic.AddInt64(&m.waiting, 1); m.maxSize > 0 && n > int64(m.maxSize) {
		atomic.AddInt64(&m.waiting, -1)
		common.LogWarn("模型呼叫隊列已滿", zap.Int("max_queue_size", m.maxSize))
		return ErrQueueFull
	}

	select {
	case m.slots <- struct{}{}:
		atomic.AddInt64(&m.waiting, -1)
	case <-ctx.Done():
		atomic.AddInt64(&m.waiting, -1)
		return fmt.Errorf("%w: waiting for model slot: %w", common.ErrTransport, ctx.Err())
	case <-m.done:
		atomic.AddInt64(&m.waiting, -1)
		return ErrClosed
	}
	defer func() { <-m.slots }()

	err := fn(ctx)
	if err != nil {
		atomic.AddInt64(&m.failed, 1)
	} else {
		atomic.AddInt64(&m.processed, 1)
	}
	return err
}

// Wrap 讓 client 的每次呼叫都經過隊列
func (m *Manager) Wrap(client provider.ModelClient) provider.ModelClient {
	return provider.ModelClientFunc(func(ctx context.Context, req *provider.Request) (string, error) {
		var out string
		err := m.Do(ctx, func(ctx context.Context) error {
			var err error
			out, err = client.Complete(ctx, req)
			return err
		})
		return out, err
	})
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() *Status {
	return &Status{
		QueueLength:    int(atomic.LoadInt64(&m.waiting)),
		Active:         len(m.slots),
		ProcessedCount: atomic.LoadInt64(&m.processed),
		FailedCount:    atomic.LoadInt64(&m.failed),
		MaxQueueSize:   m.maxSize,
		Workers:        m.workers,
	}
}

// Close 關閉隊列管理器，等待中的呼叫回傳 ErrClosed
func (m *Manager) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}
