package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-fridge/internal/core/ai/provider"
	"smart-fridge/internal/core/ai/queue"
	fridgeService "smart-fridge/internal/core/fridge"
	historyService "smart-fridge/internal/core/history"
	imageService "smart-fridge/internal/core/image"
	ingredientService "smart-fridge/internal/core/ingredient"
	recipeService "smart-fridge/internal/core/recipe"
	"smart-fridge/internal/infrastructure/config"
	"smart-fridge/internal/infrastructure/store"
	"smart-fridge/internal/pkg/common"
)

const (
	prefix    = "/make-server-1aa0d6ee"
	testToken = "test-token"
	jwtSecret = "test-secret"
)

const visionReply = "```json\n" + `{"type":"ingredients","ingredients":[
	{"name":"사과","quantity":2,"confidence":95,"freshness":"excellent"},
	{"name":"우유","quantity":1,"confidence":88,"freshness":"good"}
]}` + "\n```"

const recommendReply = `{"recipes":[{"name":"사과 샐러드","difficulty":"쉬움","category":"양식"}]}`

const detailReply = `{"recipe":{"name":"사과 샐러드","instructions":[{"title":"썰기","description":"사과를 썬다"}]}}`

type testEnv struct {
	router *gin.Engine
	calls  map[string]int
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Debug: true, Version: "test"},
		Server: config.ServerConfig{
			RoutePrefix:    prefix,
			RequestTimeout: 10 * time.Second,
			MaxBodyBytes:   16 << 20,
		},
		Model: config.ModelConfig{
			VisionModel:   "gpt-4o",
			TextModel:     "gpt-4o",
			RecipeModel:   "gpt-4o-mini",
			VisionTimeout: time.Minute,
			TextTimeout:   time.Minute,
			RecipeTimeout: time.Minute,
		},
		Auth:        config.AuthConfig{Enabled: true, StaticToken: testToken, JWTSecret: jwtSecret},
		Cache:       config.CacheConfig{Enabled: true, MaxSize: 10},
		Queue:       config.QueueConfig{Workers: 2, MaxSize: 10},
		Image:       config.ImageConfig{MaxSizeBytes: 1 << 20},
		DedupWindow: time.Nanosecond,
	}
}

func newTestEnv(t *testing.T, cfg *config.Config, model provider.ModelClientFunc) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{calls: map[string]int{}}
	counting := provider.ModelClientFunc(func(ctx context.Context, req *provider.Request) (string, error) {
		env.calls[req.Kind]++
		return model(ctx, req)
	})

	kv := store.NewMemory()
	q := queue.NewManager(cfg.Queue)
	t.Cleanup(q.Close)
	client := q.Wrap(counting)
	images := imageService.NewService(cfg.Image)

	env.router = SetupRouter(cfg, Services{
		Analyzer: ingredientService.NewAnalyzer(client, cfg.Model),
		Fridge:   fridgeService.NewService(fridgeService.NewKVRepository(kv)),
		History:  historyService.NewService(kv, images),
		Recipes:  recipeService.NewService(client, cfg.Model, cfg.Cache),
		Images:   images,
		Queue:    q,
		Store:    kv,
	})
	return env
}

func defaultModel(_ context.Context, req *provider.Request) (string, error) {
	switch req.Kind {
	case "vision":
		return visionReply, nil
	case "text":
		return `{"ingredients":[{"name":"계란","quantity":"6"}]}`, nil
	case "recommend":
		return recommendReply, nil
	case "detail":
		return detailReply, nil
	}
	return "", fmt.Errorf("unexpected kind %s", req.Kind)
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, prefix+path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func pngDataURI(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestHealthDoesNotRequireAuth(t *testing.T) {
	env := newTestEnv(t, testConfig(), defaultModel)

	w, body := env.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Contains(t, body, "queue")
	assert.Contains(t, body, "cache")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w, body = env.do(t, http.MethodGet, "/ready", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", body["status"])
}

func TestAuth(t *testing.T) {
	env := newTestEnv(t, testConfig(), defaultModel)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong static token", "nope", http.StatusUnauthorized},
		{"expired jwt", expired, http.StatusUnauthorized},
		{"static token", testToken, http.StatusOK},
		{"signed jwt", signed, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := env.do(t, http.MethodGet, "/fridge/ingredients", nil, tt.token)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Equal(t, false, body["success"])
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestAnalyzeIngredientAddsToFridge(t *testing.T) {
	env := newTestEnv(t, testConfig(), defaultModel)

	w, body := env.do(t, http.MethodPost, "/analyze-ingredient", gin.H{"imageData": pngDataURI(t), "addToFridge": true}, testToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 3, data["totalCount"])
	assert.Len(t, data["ingredients"], 2)

	fridge := body["fridge"].(map[string]interface{})
	assert.Equal(t, true, fridge["updated"])
	assert.Len(t, fridge["ingredients"], 2)

	// 再辨識一次，數量累加而不是新增
	w, _ = env.do(t, http.MethodPost, "/analyze-ingredient", gin.H{"imageData": pngDataURI(t), "addToFridge": true}, testToken)
	require.Equal(t, http.StatusOK, w.Code)

	_, body = env.do(t, http.MethodGet, "/fridge/ingredients", nil, testToken)
	items := body["ingredients"].([]interface{})
	require.Len(t, items, 2)
	apple := items[0].(map[string]interface{})
	assert.Equal(t, "사과", apple["name"])
	assert.EqualValues(t, 4, apple["quantity"])
	assert.Nil(t, apple["expiryDate"])
	assert.Equal(t, 2, env.calls["vision"])
}

func TestAnalyzeIngredientRejectsBadImage(t *testing.T) {
	env := newTestEnv(t, testConfig(), defaultModel)

	w, body := env.do(t, http.MethodPost, "/analyze-ingredient", gin.H{"imageData": "data:image/png;base64,bm90IGFuIGltYWdl"}, testToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Zero(t, env.calls["vision"])

	w, _ = env.do(t, http.MethodPost, "/analyze-ingredient", gin.H{}, testToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeTextSurfacesUpstreamAuth(t *testing.T) {
	env := newTestEnv(t, testConfig(), func(context.Context, *provider.Request) (string, error) {
		return "", common.NewError(common.ErrCodeUpstreamAuth, "OpenAI API 키가 유효하지 않습니다. API 키를 확인해주세요.", http.StatusUnauthorized, common.ErrUpstreamAuth)
	})

	w, body := env.do(t, http.MethodPost, "/analyze-text", gin.H{"text": "계란 6개"}, testToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "OpenAI API 키가 유효하지 않습니다. API 키를 확인해주세요.", body["error"])
}

func TestAnalyzeTextAndLookup(t *testing.T) {
	env := newTestEnv(t, testConfig(), func(ctx context.Context, req *provider.Request) (string, error) {
		if req.Kind == "lookup" {
			return `{"name": ,}`, nil
		}
		return defaultModel(ctx, req)
	})

	w, body := env.do(t, http.MethodPost, "/analyze-text", gin.H{"text": "계란 6개"}, testToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 6, data["totalCount"])
	assert.NotContains(t, body, "fridge")

	w, body = env.do(t, http.MethodPost, "/ingredient-info", gin.H{"name": "두부", "quantity": 2}, testToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "AI 응답 처리 중 문제가 발생하여 기본 정보를 제공합니다.", body["warning"])
	item := body["data"].(map[string]interface{})
	assert.Equal(t, "두부", item["name"])
}

func TestFridgeEndpoints(t *testing.T) {
	env := newTestEnv(t, testConfig(), defaultModel)

	w, body := env.do(t, http.MethodPost, "/fridge/ingredients", gin.H{"ingredients": "사과"}, testToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Ingredients array is required", body["error"])

	w, body = env.do(t, http.MethodPost, "/fridge/ingredients", gin.H{"ingredients": []gin.H{
		{"name": "사과", "quantity": 2, "freshness": "good"},
		{"name": "APPLE", "quantity": 1},
		{"name": "apple", "quantity": 1, "freshness": "poor"},
	}}, testToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	items := body["ingredients"].([]interface{})
	require.Len(t, items, 2)
	apple := items[1].(map[string]interface{})
	assert.Equal(t, "apple", apple["name"])
	assert.EqualValues(t, 2, apple["quantity"])
	assert.Equal(t, "poor", apple["freshness"])
	id := apple["id"].(string)

	w, body = env.do(t, http.MethodPut, "/fridge/ingredients/"+id, gin.H{"quantity": -1}, testToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Quantity must be a non-negative integer", body["error"])

	w, body = env.do(t, http.MethodPut, "/fridge/ingredients/"+id, gin.H{"expiryDate": 20260101}, testToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "expiryDate must be a string or null", body["error"])

	w, body = env.do(t, http.MethodPut, "/fridge/ingredients/"+id, gin.H{"quantity": 7, "expiryDate": "2026-11-01"}, testToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := body["ingredient"].(map[string]interface{})
	assert.EqualValues(t, 7, updated["quantity"])
	assert.Equal(t, "2026-11-01", updated["expiryDate"])

	w, body = env.do(t, http.MethodPut, "/fridge/ingredients/missing", gin.H{"quantity": 1}, testToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Ingredient not found", body["error"])

	w, body = env.do(t, http.MethodDelete, "/fridge/ingredients/"+id, nil, testToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ingredient deleted successfully", body["message"])

	w, _ = env.do(t, http.MethodDelete, "/fridge/ingredients/"+id, nil, testToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistoryEndpoints(t *testing.T) {
	env := newTestEnv(t, testConfig(), defaultModel)

	w, body := env.do(t, http.MethodPost, "/ingredients", gin.H{"ingredientData": gin.H{"foo": 1}}, testToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Ingredient data is required", body["error"])

	batch := gin.H{"ingredients": []gin.H{{"name": "사과", "quantity": 2}}, "totalCount": 2}
	var ids []string
	for i := 0; i < 3; i++ {
		w, body = env.do(t, http.MethodPost, "/ingredients", gin.H{
			"ingredientData": batch,
			"timestamp":      fmt.Sprintf("2026-04-0%dT00:00:00Z", i+1),
			"sourceText":     "apple x2",
		}, testToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		ids = append(ids, body["id"].(string))
		time.Sleep(2 * time.Millisecond)
	}

	w, body = env.do(t, http.MethodGet, "/ingredients/recent?limit=2", nil, testToken)
	require.Equal(t, http.StatusOK, w.Code)
	records := body["records"].([]interface{})
	require.Len(t, records, 2)
	assert.Equal(t, ids[2], records[0].(map[string]interface{})["id"])

	w, _ = env.do(t, http.MethodGet, "/ingredients/recent?limit=abc", nil, testToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = env.do(t, http.MethodGet, "/ingredients/"+ids[0], nil, testToken)
	require.Equal(t, http.StatusOK, w.Code)
	rec := body["record"].(map[string]interface{})
	assert.Contains(t, rec["imageData"], "data:image/png;base64,")

	w, body = env.do(t, http.MethodDelete, "/ingredients/"+ids[0], nil, testToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Record deleted successfully", body["message"])

	w, body = env.do(t, http.MethodGet, "/ingredients/"+ids[0], nil, testToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Record not found", body["error"])
}

func TestRecipeEndpoints(t *testing.T) {
	env := newTestEnv(t, testConfig(), defaultModel)

	w, body := env.do(t, http.MethodPost, "/recipes/recommend", gin.H{"ingredients": []gin.H{}}, testToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "냉장고에 식재료가 없습니다", body["error"])

	w, body = env.do(t, http.MethodPost, "/recipes/recommend", gin.H{
		"ingredients": []gin.H{{"name": "사과", "quantity": 2}},
		"userRequest": "간단하게",
	}, testToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	recipes := body["data"].(map[string]interface{})["recipes"].([]interface{})
	require.Len(t, recipes, 1)
	assert.Equal(t, "사과 샐러드", recipes[0].(map[string]interface{})["name"])
	assert.NotContains(t, body, "warning")

	w, body = env.do(t, http.MethodPost, "/recipes/detail", gin.H{"recipeName": "사과 샐러드"}, testToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, false, body["cached"])
	recipe := body["data"].(map[string]interface{})["recipe"].(map[string]interface{})
	assert.Equal(t, "사과 샐러드", recipe["name"])

	w, body = env.do(t, http.MethodPost, "/recipes/detail", gin.H{"recipeName": "사과 샐러드", "ingredients": []gin.H{}}, testToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["cached"])
	assert.Equal(t, 1, env.calls["detail"])

	w, body = env.do(t, http.MethodPost, "/recipes/detail", gin.H{}, testToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "레시피 이름이 필요합니다", body["error"])
}

func TestDuplicatePostRejected(t *testing.T) {
	cfg := testConfig()
	cfg.DedupWindow = time.Minute
	env := newTestEnv(t, cfg, defaultModel)

	req := gin.H{"text": "계란 6개"}
	w, _ := env.do(t, http.MethodPost, "/analyze-text", req, testToken)
	require.Equal(t, http.StatusOK, w.Code)

	w, body := env.do(t, http.MethodPost, "/analyze-text", req, testToken)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, 1, env.calls["text"])

	// 非模型端點不受影響
	for i := 0; i < 2; i++ {
		w, _ = env.do(t, http.MethodPost, "/fridge/ingredients", gin.H{"ingredients": []gin.H{{"name": "a"}}}, testToken)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, Requests: 2, Window: time.Hour}
	env := newTestEnv(t, cfg, defaultModel)

	for i := 0; i < 2; i++ {
		w, _ := env.do(t, http.MethodGet, "/live", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
	}
	w, body := env.do(t, http.MethodGet, "/live", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}
