package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smart-fridge/internal/pkg/common"
)

const (
	defaultDedupWindow = time.Second
	msgDuplicate       = "동일한 요청이 처리 중입니다. 잠시 후 다시 시도해주세요."
)

// deduplicator 記錄最近的 POST 指紋
type deduplicator struct {
	mu        sync.Mutex
	window    time.Duration
	seen      map[string]time.Time
	lastSweep time.Time
	now       func() time.Time
}

func newDeduplicator(window time.Duration) *deduplicator {
	if window <= 0 {
		window = defaultDedupWindow
	}
	return &deduplicator{window: window, seen: make(map[string]time.Time), now: time.Now}
}

// check 在視窗內重複時回傳 false，否則記錄並回傳 true
func (d *deduplicator) check(fingerprint string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if now.Sub(d.lastSweep) > 10*d.window {
		for k, t := range d.seen {
			if now.Sub(t) > d.window {
				delete(d.seen, k)
			}
		}
		d.lastSweep = now
	}

	if last, ok := d.seen[fingerprint]; ok && now.Sub(last) <= d.window {
		return false
	}
	d.seen[fingerprint] = now
	return true
}

// Deduplication 在 window 內拒絕來自同一用戶端、路徑與請求體完全相同的 POST
func Deduplication(window time.Duration) gin.HandlerFunc {
	d := newDeduplicator(window)

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost || c.Request.Body == nil {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			common.LogError("Failed to read request body", zap.Error(err))
			abortJSON(c, http.StatusBadRequest, "Invalid request format")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		hash := sha256.Sum256(body)
		fingerprint := c.ClientIP() + ":" + c.Request.URL.Path + ":" + hex.EncodeToString(hash[:])

		if !d.check(fingerprint) {
			common.LogWarn("重複請求已拒絕",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", common.RequestIDFrom(c.Request.Context())),
			)
			abortJSON(c, http.StatusTooManyRequests, msgDuplicate)
			return
		}

		c.Next()
	}
}
