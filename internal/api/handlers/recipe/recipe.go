package recipe

import (
	"context"
	"time"

	"smart-fridge/internal/api/handlers"
	recipeService "smart-fridge/internal/core/recipe"
	"smart-fridge/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Service 食譜推薦與詳細食譜
type Service interface {
	Recommend(ctx context.Context, inventory []common.InventoryEntry, userRequest string) (*recipeService.RecommendResult, error)
	Detail(ctx context.Context, recipeName string, inventory []common.InventoryEntry) (*recipeService.DetailResult, error)
	Preload(ctx context.Context, recipes []recipeService.Summary, inventory []common.InventoryEntry)
}

// RecommendRequest 推薦請求；ingredients 通常是冰箱清單
type RecommendRequest struct {
	Ingredients []inventoryItem `json:"ingredients"`
	UserRequest string          `json:"userRequest"`
}

// DetailRequest 詳細食譜請求
type DetailRequest struct {
	RecipeName  string          `json:"recipeName"`
	Ingredients []inventoryItem `json:"ingredients"`
}

type inventoryItem struct {
	Name     common.FlexString `json:"name"`
	Quantity common.FlexInt    `json:"quantity"`
}

func toInventory(items []inventoryItem) []common.InventoryEntry {
	out := make([]common.InventoryEntry, 0, len(items))
	for _, it := range items {
		out = append(out, common.InventoryEntry{Name: string(it.Name), Quantity: int(it.Quantity)})
	}
	return out
}

// Handler 食譜處理器
type Handler struct {
	svc            Service
	preloadTimeout time.Duration
}

// NewHandler 創建食譜處理器；preloadTimeout 限制背景預載的總時間
func NewHandler(svc Service, preloadTimeout time.Duration) *Handler {
	return &Handler{svc: svc, preloadTimeout: preloadTimeout}
}

// HandleRecommend POST /recipes/recommend
func (h *Handler) HandleRecommend(c *gin.Context) {
	var req RecommendRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	inventory := toInventory(req.Ingredients)
	res, err := h.svc.Recommend(c.Request.Context(), inventory, req.UserRequest)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	if res.Warning == "" && len(res.Recipes) > 0 {
		h.preload(c.Request.Context(), res.Recipes, inventory)
	}

	handlers.RespondOK(c, handlers.WithWarning(gin.H{"data": gin.H{"recipes": res.Recipes}}, res.Warning))
}

// preload 在背景預先取得詳細食譜，不隨請求結束而取消
func (h *Handler) preload(parent context.Context, recipes []recipeService.Summary, inventory []common.InventoryEntry) {
	ctx := context.WithoutCancel(parent)
	go func() {
		if h.preloadTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, h.preloadTimeout)
			defer cancel()
		}
		defer func() {
			if r := recover(); r != nil {
				common.LogError("預載詳細食譜時發生 panic", zap.Any("error", r))
			}
		}()
		h.svc.Preload(ctx, recipes, inventory)
	}()
}

// HandleDetail POST /recipes/detail
func (h *Handler) HandleDetail(c *gin.Context) {
	var req DetailRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	res, err := h.svc.Detail(c.Request.Context(), req.RecipeName, toInventory(req.Ingredients))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	body := gin.H{"data": gin.H{"recipe": res.Recipe}, "cached": res.Cached}
	handlers.RespondOK(c, handlers.WithWarning(body, res.Warning))
}
