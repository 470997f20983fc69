package recipe

import (
	"context"
	"errors"
	"strings"

	"smart-fridge/internal/core/ai/cache"
	"smart-fridge/internal/core/ai/provider"
	"smart-fridge/internal/infrastructure/config"
	"smart-fridge/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	msgNoIngredients = "냉장고에 식재료가 없습니다"
	msgNameRequired  = "레시피 이름이 필요합니다"

	defaultPreloadCount = 3
)

// Service 食譜推薦與詳細食譜服務
type Service struct {
	client   provider.ModelClient
	cfg      config.ModelConfig
	cacheCfg config.CacheConfig
	details  *cache.Manager[Detail]
	inflight singleflight.Group
}

// NewService 創建食譜服務；詳細食譜以名稱快取於行程內
func NewService(client provider.ModelClient, cfg config.ModelConfig, cacheCfg config.CacheConfig) *Service {
	return &Service{
		client:   client,
		cfg:      cfg,
		cacheCfg: cacheCfg,
		details:  cache.NewManager[Detail]("recipe_detail", cacheCfg),
	}
}

// Recommend 依冰箱食材推薦料理；回應無法解析或模型無法連線時回傳預設推薦與警告
func (s *Service) Recommend(ctx context.Context, inventory []common.InventoryEntry, userRequest string) (*RecommendResult, error) {
	if len(inventory) == 0 {
		return nil, common.NewValidationError(msgNoIngredients)
	}

	raw, err := s.client.Complete(ctx, &provider.Request{
		Kind:        "recommend",
		Model:       s.cfg.RecipeModel,
		Prompt:      buildRecommendPrompt(inventory, userRequest),
		MaxTokens:   s.cfg.RecommendTokens,
		Temperature: s.cfg.RecipeTemp,
		Timeout:     s.cfg.RecipeTimeout,
		RequestID:   common.RequestIDFrom(ctx),
	})
	if err != nil {
		if !degradable(err) {
			return nil, err
		}
		common.LogWarn("模型無法連線，使用預設推薦", zap.Error(err), zap.String("request_id", common.RequestIDFrom(ctx)))
		return &RecommendResult{Recipes: FallbackRecommendations(inventory), Warning: warnTransportFallback}, nil
	}

	recipes, err := extractRecommendations(raw)
	if err != nil {
		common.LogError("推薦回應解析失敗，使用預設推薦",
			zap.Error(err),
			zap.Int("response_length", len(raw)),
			zap.String("request_id", common.RequestIDFrom(ctx)),
		)
		return &RecommendResult{Recipes: FallbackRecommendations(inventory), Warning: warnParseFallback}, nil
	}

	common.LogInfo("食譜推薦完成",
		zap.Int("recipes", len(recipes)),
		zap.Bool("has_user_request", strings.TrimSpace(userRequest) != ""),
		zap.String("request_id", common.RequestIDFrom(ctx)),
	)
	return &RecommendResult{Recipes: recipes}, nil
}

func extractRecommendations(raw string) ([]Summary, error) {
	jsonText, err := common.ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	return parseRecommendations(jsonText)
}

// Detail 取得詳細食譜；同名料理只向模型請求一次，同時進行的相同請求會合併
func (s *Service) Detail(ctx context.Context, recipeName string, inventory []common.InventoryEntry) (*DetailResult, error) {
	name := strings.TrimSpace(recipeName)
	if name == "" {
		return nil, common.NewValidationError(msgNameRequired)
	}

	if d, ok := s.details.Get(name); ok {
		return &DetailResult{Recipe: &d, Cached: true}, nil
	}

	v, err, shared := s.inflight.Do(cache.Key(name), func() (interface{}, error) {
		return s.fetchDetail(ctx, name, inventory)
	})
	if err != nil {
		return nil, err
	}
	res := *v.(*DetailResult)
	if shared {
		common.LogDebug("合併相同的詳細食譜請求", zap.String("recipe", name))
	}
	return &res, nil
}

func (s *Service) fetchDetail(ctx context.Context, name string, inventory []common.InventoryEntry) (*DetailResult, error) {
	raw, err := s.client.Complete(ctx, &provider.Request{
		Kind:        "detail",
		Model:       s.cfg.RecipeModel,
		Prompt:      buildDetailPrompt(name, inventory),
		MaxTokens:   s.cfg.DetailTokens,
		Temperature: s.cfg.RecipeTemp,
		Timeout:     s.cfg.RecipeTimeout,
		RequestID:   common.RequestIDFrom(ctx),
	})
	if err != nil {
		if !degradable(err) {
			return nil, err
		}
		common.LogWarn("模型無法連線，使用預設詳細食譜", zap.String("recipe", name), zap.Error(err))
		return &DetailResult{Recipe: FallbackDetail(name), Warning: warnTransportFallback}, nil
	}

	detail, err := extractDetail(raw, name)
	if err != nil {
		common.LogError("詳細食譜解析失敗，使用預設食譜",
			zap.String("recipe", name),
			zap.Error(err),
			zap.Int("response_length", len(raw)),
		)
		return &DetailResult{Recipe: FallbackDetail(name), Warning: warnParseFallback}, nil
	}

	// 預設食譜不寫入快取，下次仍會重新請求
	s.details.Set(name, *detail)
	common.LogInfo("詳細食譜產生完成", zap.String("recipe", name), zap.Int("steps", len(detail.Instructions)))
	return &DetailResult{Recipe: detail}, nil
}

func extractDetail(raw, name string) (*Detail, error) {
	jsonText, err := common.ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	return parseDetail(jsonText, name)
}

// Preload 在背景預先取得前幾道推薦料理的詳細食譜；單一失敗不影響其他
func (s *Service) Preload(ctx context.Context, recipes []Summary, inventory []common.InventoryEntry) {
	if !s.cacheCfg.Enabled || !s.cacheCfg.PreloadEnabled {
		return
	}
	count := s.cacheCfg.PreloadCount
	if count <= 0 {
		count = defaultPreloadCount
	}
	if count > len(recipes) {
		count = len(recipes)
	}

	var g errgroup.Group
	g.SetLimit(count)
	for _, r := range recipes[:count] {
		name := r.Name
		if s.details.Contains(name) {
			continue
		}
		g.Go(func() error {
			res, err := s.Detail(ctx, name, inventory)
			if err != nil {
				common.LogWarn("預載詳細食譜失敗", zap.String("recipe", name), zap.Error(err))
				return nil
			}
			common.LogDebug("預載詳細食譜完成", zap.String("recipe", name), zap.Bool("fallback", res.Warning != ""))
			return nil
		})
	}
	_ = g.Wait()
}

// CacheStats 詳細食譜快取統計
func (s *Service) CacheStats() cache.Stats {
	return s.details.GetStats()
}

// Close 清空詳細食譜快取
func (s *Service) Close() {
	s.details.Close()
}

// degradable 模型連線類錯誤可改用預設內容；憑證錯誤與取消必須回報
func degradable(err error) bool {
	if errors.Is(err, common.ErrUpstreamAuth) || errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, common.ErrTransport)
}
