package ingredient

import (
	"context"
	"strings"

	"smart-fridge/internal/api/handlers"
	"smart-fridge/internal/core/fridge"
	"smart-fridge/internal/core/image"
	ingredientService "smart-fridge/internal/core/ingredient"
	"smart-fridge/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Analyzer 食材辨識
type Analyzer interface {
	AnalyzeImage(ctx context.Context, imageData string) (*common.ObservationBatch, error)
	AnalyzeText(ctx context.Context, text string) (*common.ObservationBatch, error)
	LookupIngredient(ctx context.Context, name string, quantity int) (*ingredientService.LookupResult, error)
}

// ImageValidator 呼叫模型前檢查圖片
type ImageValidator interface {
	Validate(imageData string) (*image.Info, error)
}

// Fridge 辨識後直接放入冰箱
type Fridge interface {
	AddBatch(ctx context.Context, incoming []fridge.Incoming) ([]common.FridgeItem, error)
}

// AnalyzeImageRequest 照片辨識請求
type AnalyzeImageRequest struct {
	ImageData   string `json:"imageData"`
	AddToFridge bool   `json:"addToFridge"`
}

// AnalyzeTextRequest 文字辨識請求
type AnalyzeTextRequest struct {
	Text        string `json:"text"`
	AddToFridge bool   `json:"addToFridge"`
}

// LookupRequest 單一食材查詢請求
type LookupRequest struct {
	Name     string         `json:"name"`
	Quantity common.FlexInt `json:"quantity"`
}

// Handler 食材辨識處理器
type Handler struct {
	analyzer Analyzer
	images   ImageValidator
	fridge   Fridge
}

// NewHandler 創建食材辨識處理器
func NewHandler(analyzer Analyzer, images ImageValidator, fridge Fridge) *Handler {
	return &Handler{analyzer: analyzer, images: images, fridge: fridge}
}

// HandleAnalyzeImage POST /analyze-ingredient
func (h *Handler) HandleAnalyzeImage(c *gin.Context) {
	var req AnalyzeImageRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	common.LogInfo("開始處理照片辨識請求",
		zap.Int("image_length", len(req.ImageData)),
		zap.Bool("add_to_fridge", req.AddToFridge),
		zap.String("request_id", common.RequestIDFrom(c.Request.Context())),
	)

	if strings.TrimSpace(req.ImageData) != "" && image.HasDataURIPrefix(req.ImageData) {
		if _, err := h.images.Validate(req.ImageData); err != nil {
			handlers.RespondError(c, err)
			return
		}
	}

	batch, err := h.analyzer.AnalyzeImage(c.Request.Context(), req.ImageData)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	h.respondBatch(c, batch, req.AddToFridge)
}

// HandleAnalyzeText POST /analyze-text
func (h *Handler) HandleAnalyzeText(c *gin.Context) {
	var req AnalyzeTextRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	batch, err := h.analyzer.AnalyzeText(c.Request.Context(), req.Text)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	h.respondBatch(c, batch, req.AddToFridge)
}

// HandleLookup POST /ingredient-info
func (h *Handler) HandleLookup(c *gin.Context) {
	var req LookupRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	res, err := h.analyzer.LookupIngredient(c.Request.Context(), req.Name, int(req.Quantity))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, handlers.WithWarning(gin.H{"data": res.Ingredient}, res.Warning))
}

// respondBatch 回傳辨識結果；冰箱更新失敗只標記在 fridge 欄位，不影響辨識結果
func (h *Handler) respondBatch(c *gin.Context, batch *common.ObservationBatch, addToFridge bool) {
	body := handlers.WithWarning(gin.H{"data": batch}, batch.Warning)

	if addToFridge && h.fridge != nil {
		items, err := h.fridge.AddBatch(c.Request.Context(), fridge.FromObservations(batch.Ingredients))
		if err != nil {
			common.LogError("辨識結果放入冰箱失敗",
				zap.Error(err),
				zap.String("request_id", common.RequestIDFrom(c.Request.Context())),
			)
			body["fridge"] = gin.H{"updated": false, "error": common.MessageOf(err)}
		} else {
			body["fridge"] = gin.H{"updated": true, "ingredients": items}
		}
	}

	handlers.RespondOK(c, body)
}
