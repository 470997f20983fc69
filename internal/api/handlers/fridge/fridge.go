package fridge

import (
	"context"
	"encoding/json"

	"smart-fridge/internal/api/handlers"
	fridgeService "smart-fridge/internal/core/fridge"
	"smart-fridge/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

const (
	msgIngredientsRequired = "Ingredients array is required"
	msgDeleted             = "Ingredient deleted successfully"
)

// Service 冰箱清單操作
type Service interface {
	List(ctx context.Context) ([]common.FridgeItem, error)
	AddBatch(ctx context.Context, incoming []fridgeService.Incoming) ([]common.FridgeItem, error)
	Update(ctx context.Context, id string, u fridgeService.Update) (*common.FridgeItem, error)
	Delete(ctx context.Context, id string) error
}

type addRequest struct {
	Ingredients json.RawMessage `json:"ingredients"`
}

type incomingItem struct {
	Name      common.FlexString  `json:"name"`
	Quantity  common.FlexInt     `json:"quantity"`
	Freshness common.FlexString  `json:"freshness"`
	Storage   common.FlexStrings `json:"storage"`
}

// Handler 冰箱處理器
type Handler struct {
	svc Service
}

// NewHandler 創建冰箱處理器
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// HandleList GET /fridge/ingredients
func (h *Handler) HandleList(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, gin.H{"ingredients": items})
}

// HandleAdd POST /fridge/ingredients
func (h *Handler) HandleAdd(c *gin.Context) {
	var req addRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	var items []incomingItem
	if len(req.Ingredients) == 0 || req.Ingredients[0] != '[' || json.Unmarshal(req.Ingredients, &items) != nil {
		handlers.RespondError(c, common.NewValidationError(msgIngredientsRequired))
		return
	}

	incoming := make([]fridgeService.Incoming, 0, len(items))
	for _, it := range items {
		incoming = append(incoming, fridgeService.Incoming{
			Name:      string(it.Name),
			Quantity:  int(it.Quantity),
			Freshness: common.Freshness(it.Freshness),
			Storage:   it.Storage,
		})
	}

	updated, err := h.svc.AddBatch(c.Request.Context(), incoming)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, gin.H{"ingredients": updated})
}

// HandleUpdate PUT /fridge/ingredients/:id
func (h *Handler) HandleUpdate(c *gin.Context) {
	var u fridgeService.Update
	if !handlers.BindJSON(c, &u) {
		return
	}

	item, err := h.svc.Update(c.Request.Context(), c.Param("id"), u)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, gin.H{"ingredient": item})
}

// HandleDelete DELETE /fridge/ingredients/:id
func (h *Handler) HandleDelete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, gin.H{"message": msgDeleted})
}
