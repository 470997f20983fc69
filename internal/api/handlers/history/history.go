package history

import (
	"context"
	"strconv"

	"smart-fridge/internal/api/handlers"
	historyService "smart-fridge/internal/core/history"
	"smart-fridge/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

const msgDeleted = "Record deleted successfully"

// Service 辨識紀錄操作
type Service interface {
	Save(ctx context.Context, req historyService.SaveRequest) (string, error)
	Recent(ctx context.Context, limit int) ([]*historyService.Record, error)
	Get(ctx context.Context, id string) (*historyService.Record, error)
	Delete(ctx context.Context, id string) error
}

// Handler 辨識紀錄處理器
type Handler struct {
	svc Service
}

// NewHandler 創建辨識紀錄處理器
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// HandleSave POST /ingredients
func (h *Handler) HandleSave(c *gin.Context) {
	var req historyService.SaveRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	id, err := h.svc.Save(c.Request.Context(), req)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, gin.H{"id": id})
}

// HandleRecent GET /ingredients/recent?limit=N
func (h *Handler) HandleRecent(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			handlers.RespondError(c, common.NewValidationError("limit must be an integer"))
			return
		}
		limit = n
	}

	records, err := h.svc.Recent(c.Request.Context(), limit)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, gin.H{"records": records})
}

// HandleGet GET /ingredients/:id
func (h *Handler) HandleGet(c *gin.Context) {
	rec, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, gin.H{"record": rec})
}

// HandleDelete DELETE /ingredients/:id
func (h *Handler) HandleDelete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, gin.H{"message": msgDeleted})
}
