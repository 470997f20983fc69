package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"smart-fridge/internal/core/ai/cache"
	"smart-fridge/internal/core/ai/queue"
	"smart-fridge/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const pingTimeout = 2 * time.Second

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Queue     *queue.Status          `json:"queue,omitempty"`
	Cache     *cache.Stats           `json:"cache,omitempty"`
}

// QueueReporter 回報模型呼叫隊列狀態
type QueueReporter interface {
	GetQueueStatus() *queue.Status
}

// CacheReporter 回報詳細食譜快取統計
type CacheReporter interface {
	CacheStats() cache.Stats
}

// Pinger 檢查儲存層連線
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler 健康檢查處理器
type Handler struct {
	version string
	queue   QueueReporter
	cache   CacheReporter
	store   Pinger
}

// NewHandler 創建健康檢查處理器；queue 與 cache 可為 nil
func NewHandler(version string, queue QueueReporter, cache CacheReporter, store Pinger) *Handler {
	return &Handler{version: version, queue: queue, cache: cache, store: store}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if h.queue != nil {
		response.Queue = h.queue.GetQueueStatus()
	}
	if h.cache != nil {
		stats := h.cache.CacheStats()
		response.Cache = &stats
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)
	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查：儲存層可連線才算就緒
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			common.LogWarn("儲存層尚未就緒", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not_ready",
				"error":  "store unavailable",
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
